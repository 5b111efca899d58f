// Package fleet is the repository engine at the heart of gitfleet.
//
// The engine owns the repository catalog and settings, exposes the
// caller-facing operations (refresh, stage, commit, push, sync, discovery
// scan, launches), and composes the execution primitive, environment
// invokers, status parser, and per-repository operation queue. Every
// mutating call settles into a uniform OperationResult carrying a full
// catalog snapshot, never a delta.
package fleet
