// Package execshell provides structured helpers for invoking external tools.
//
// It wraps os/exec with logging, timeouts, and cooperative cancellation via
// ShellExecutor, exposes OSCommandRunner for default process execution, and
// captures every invocation as an immutable Transcript consumed throughout
// gitfleet for status reporting and failure diagnostics.
package execshell
