// Package logging builds the slog loggers used across fieldsync.
//
// Two output formats are supported: a compact console format for
// interactive use and JSON for log shipping. Output fans out to stdout
// and the daemon log file when a log directory is configured. Helper
// constructors mirror the slog attr functions so call sites stay terse.
package logging
