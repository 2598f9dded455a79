// Package config resolves the runtime configuration from multiple sources
// with precedence: Environment variables > persisted config file > Defaults.
// The result is a Snapshot that is frozen once built; every later read is a
// plain lookup and nothing is ever re-resolved.
package config
