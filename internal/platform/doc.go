// Package platform resolves the per-user default directories (config, data,
// log) for an application following the conventions of the host OS:
// XDG base directories on Linux and other POSIX systems, ~/Library on macOS
// and %LOCALAPPDATA% on Windows. Resolution is pure; nothing is created on
// disk here.
package platform
