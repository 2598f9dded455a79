// Package features detects optional capabilities. A Feature is a named list
// of probes; evaluating it yields a Set of per-probe availability in probe
// order. Probing only reads the environment and reports through the
// logger: a missing capability degrades the feature but is never an error.
package features
