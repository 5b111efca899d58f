// Package status converts porcelain-style git status text into a structured summary.
//
// Parsing is a pure function over the raw text: branch headers are classified
// into an explicit grammar (unborn, detached, tracking, local-only) and every
// remaining line is interpreted as a per-file entry. Refresh timestamps and
// merge/rebase progress markers are layered on by the fleet engine.
package status
