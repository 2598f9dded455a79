// Package bootstrap runs the one-time environment setup of the process:
// locate and load (or create) the persisted configuration, resolve every
// setting into a frozen snapshot, create the working directories, attach the
// rotating file logger and probe optional features.
//
// The sequence is linear:
//
//	Uninitialized → ConfigLoaded → EnvironmentResolved → DirectoriesEnsured →
//	LoggerReady → FeaturesProbed → Ready
//
// Any fatal error stops it and is returned as a *StageError. Init guards the
// sequence with a process-wide once so concurrent callers share a single
// result.
package bootstrap
