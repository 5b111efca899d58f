// Package opqueue serializes operations per repository identity.
//
// Each repository runs at most one operation at a time, in submission order;
// operations for different repositories proceed independently. Cancellation is
// cooperative: a running task's context is cancelled and queued tasks settle
// with a cancellation error without ever starting. A per-task timer enforces
// the queue-level timeout as a backstop independent of any timeout the task
// body's own commands apply internally.
package opqueue
