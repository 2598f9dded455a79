package config

import (
	"fmt"
)

// Source records where a resolved value came from.
type Source int

const (
	SourceDefault Source = iota
	SourceConfig
	SourceEnv
)

func (s Source) String() string {
	switch s {
	case SourceEnv:
		return "env"
	case SourceConfig:
		return "config"
	default:
		return "default"
	}
}

// Values is read access to persisted settings.
type Values interface {
	Lookup(key string) (string, bool)
}

// Resolve picks the value of key: the environment variable (used verbatim,
// even when empty), else the persisted value, else def.
func Resolve(name string, key Key, env Environment, persisted Values, def string) (string, Source) {
	if env != nil {
		if v, ok := env.LookupEnv(name); ok {
			return v, SourceEnv
		}
	}
	if persisted != nil {
		if v, ok := persisted.Lookup(string(key)); ok {
			return v, SourceConfig
		}
	}
	return def, SourceDefault
}

// Resolver builds snapshots for one variable prefix.
type Resolver struct {
	prefix string
	env    Environment
}

// NewResolver returns a Resolver reading and writing variables named
// <prefix>_<key> through env.
func NewResolver(prefix string, env Environment) *Resolver {
	if env == nil {
		env = OSEnvironment{}
	}
	return &Resolver{prefix: prefix, env: env}
}

// ConfigDir resolves the configuration directory: <prefix>_config_dir when
// set, platformDefault otherwise.
func (r *Resolver) ConfigDir(platformDefault string) (string, Source) {
	return Resolve(ConfigDirKey.Var(r.prefix), ConfigDirKey, r.env, nil, platformDefault)
}

// Snapshot resolves every key in order, writes each value back to the
// environment and returns the frozen result. The config dir is recorded as
// already resolved by ConfigDir.
func (r *Resolver) Snapshot(configDir string, configDirSource Source, persisted Values, defaults []Entry) (*Snapshot, error) {
	byKey := make(map[Key]string, len(defaults))
	for _, d := range defaults {
		byKey[d.Key] = d.Value
	}

	s := &Snapshot{
		prefix:  r.prefix,
		values:  make(map[Key]string, len(keys)+1),
		sources: make(map[Key]Source, len(keys)+1),
	}

	if err := r.publish(s, ConfigDirKey, configDir, configDirSource); err != nil {
		return nil, err
	}
	for _, key := range keys {
		value, src := Resolve(key.Var(r.prefix), key, r.env, persisted, byKey[key])
		if err := r.publish(s, key, value, src); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (r *Resolver) publish(s *Snapshot, key Key, value string, src Source) error {
	s.values[key] = value
	s.sources[key] = src
	if err := r.env.Setenv(key.Var(r.prefix), value); err != nil {
		return fmt.Errorf("export %s: %w", key.Var(r.prefix), err)
	}
	return nil
}
