// Package report renders the namespaced environment variables for operators,
// as a two-column table, JSON or YAML.
package report
