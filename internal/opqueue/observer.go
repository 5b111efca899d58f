package opqueue

import "time"

// OperationDescriptor identifies one running queue operation.
type OperationDescriptor struct {
	ID        string
	Name      string
	StartedAt time.Time
}

// QueueObserver receives lifecycle notifications for queue operations.
//
// OperationStarted fires only when a task actually begins running, never while
// it is merely queued.
type QueueObserver interface {
	OperationStarted(repositoryID string, descriptor OperationDescriptor)
	OperationFinished(repositoryID string)
}

// noopQueueObserver discards all queue events.
type noopQueueObserver struct{}

// OperationStarted implements QueueObserver for the no-op observer.
func (noopQueueObserver) OperationStarted(string, OperationDescriptor) {}

// OperationFinished implements QueueObserver for the no-op observer.
func (noopQueueObserver) OperationFinished(string) {}
