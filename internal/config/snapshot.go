package config

import (
	"sort"
)

// Snapshot is the resolved configuration of the process. It is immutable
// after construction and safe for concurrent reads.
type Snapshot struct {
	prefix  string
	values  map[Key]string
	sources map[Key]Source
}

// Var is one resolved namespaced variable.
type Var struct {
	Name   string `json:"name" yaml:"name"`
	Value  string `json:"value" yaml:"value"`
	Source string `json:"source" yaml:"source"`
}

// Prefix returns the variable prefix the snapshot was resolved with.
func (s *Snapshot) Prefix() string { return s.prefix }

// Get returns the resolved value of key; unknown keys yield "".
func (s *Snapshot) Get(key Key) string { return s.values[key] }

// Source returns where the value of key came from.
func (s *Snapshot) Source(key Key) Source { return s.sources[key] }

// Lookup finds a value by its namespaced variable name.
func (s *Snapshot) Lookup(name string) (string, bool) {
	for key, value := range s.values {
		if key.Var(s.prefix) == name {
			return value, true
		}
	}
	return "", false
}

func (s *Snapshot) ConfigDir() string { return s.values[ConfigDirKey] }

func (s *Snapshot) DataDir() string { return s.values[KeyDataDir] }

func (s *Snapshot) LogDir() string { return s.values[KeyLogDir] }

func (s *Snapshot) LogLevel() string { return s.values[KeyLogLevel] }

func (s *Snapshot) Email() string { return s.values[KeyEmail] }

// CachedFuncs returns cached_funcs split on commas.
func (s *Snapshot) CachedFuncs() []string { return SplitList(s.values[KeyCachedFuncs]) }

// Vars returns every resolved variable sorted by name.
func (s *Snapshot) Vars() []Var {
	out := make([]Var, 0, len(s.values))
	for key, value := range s.values {
		out = append(out, Var{
			Name:   key.Var(s.prefix),
			Value:  value,
			Source: s.sources[key].String(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Equal reports whether both snapshots resolved the same values.
func (s *Snapshot) Equal(other *Snapshot) bool {
	if s == nil || other == nil {
		return s == other
	}
	if s.prefix != other.prefix || len(s.values) != len(other.values) {
		return false
	}
	for key, value := range s.values {
		if v, ok := other.values[key]; !ok || v != value {
			return false
		}
	}
	return true
}
