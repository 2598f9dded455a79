// Package logging builds the process logger: a zap logger writing through a
// size-rotating file sink (lumberjack) with one line per entry carrying the
// timestamp, level name, calling function and message. Loggers are kept in a
// Registry so that initialising the same logger twice reuses its sink instead
// of attaching a second one.
package logging
