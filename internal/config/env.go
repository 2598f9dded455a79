package config

import (
	"os"
	"sort"
	"strings"
	"sync"
)

// Environment is the process-environment channel the resolver reads
// overrides from and writes resolved values back to.
type Environment interface {
	LookupEnv(key string) (string, bool)
	Setenv(key, value string) error
	Environ() []string
}

// OSEnvironment is backed by the real process environment.
type OSEnvironment struct{}

func (OSEnvironment) LookupEnv(key string) (string, bool) { return os.LookupEnv(key) }

func (OSEnvironment) Setenv(key, value string) error { return os.Setenv(key, value) }

func (OSEnvironment) Environ() []string { return os.Environ() }

// MapEnvironment is an in-memory Environment, safe for concurrent use.
type MapEnvironment struct {
	mu   sync.RWMutex
	vars map[string]string
}

// NewMapEnvironment returns a MapEnvironment seeded with a copy of vars.
func NewMapEnvironment(vars map[string]string) *MapEnvironment {
	m := &MapEnvironment{vars: make(map[string]string, len(vars))}
	for k, v := range vars {
		m.vars[k] = v
	}
	return m
}

func (m *MapEnvironment) LookupEnv(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.vars[key]
	return v, ok
}

func (m *MapEnvironment) Setenv(key, value string) error {
	m.mu.Lock()
	m.vars[key] = value
	m.mu.Unlock()
	return nil
}

func (m *MapEnvironment) Environ() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.vars))
	for k, v := range m.vars {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

// Prefixed returns the KEY=VALUE entries of environ whose name starts with
// prefix followed by an underscore.
func Prefixed(environ []string, prefix string) map[string]string {
	out := make(map[string]string)
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, prefix+"_") {
			continue
		}
		out[name] = value
	}
	return out
}
