// Package storage owns the on-disk state of the bootstrap: the persisted INI
// configuration file and the working directories. Both are created at most
// once and never rewritten, and creation races with other processes are
// treated as success.
package storage
