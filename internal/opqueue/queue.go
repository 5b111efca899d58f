package opqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	cancellationErrorTemplateConstant = "operation %s on repository %s was cancelled"
)

// CancellationError indicates an operation aborted by explicit request or queue-level timeout.
type CancellationError struct {
	RepositoryID  string
	OperationName string
}

// Error describes the cancelled operation.
func (cancellation CancellationError) Error() string {
	return fmt.Sprintf(cancellationErrorTemplateConstant, cancellation.OperationName, cancellation.RepositoryID)
}

// IsCancellation reports whether the error chain contains a CancellationError.
func IsCancellation(candidateError error) bool {
	cancellation := CancellationError{}
	return errors.As(candidateError, &cancellation)
}

// TaskBody is the cancellable unit of work executed inside a queue slot.
type TaskBody func(taskContext context.Context) error

type queuedTask struct {
	descriptor OperationDescriptor
	body       TaskBody
	timeout    time.Duration
	settled    chan error
}

type repositoryQueue struct {
	pending    []*queuedTask
	running    *OperationDescriptor
	cancelTask context.CancelFunc
}

// OperationQueue guarantees at most one in-flight operation per repository.
type OperationQueue struct {
	mutex            sync.Mutex
	repositoryQueues map[string]*repositoryQueue
	observer         QueueObserver
}

// NewOperationQueue constructs an empty operation queue.
func NewOperationQueue() *OperationQueue {
	return &OperationQueue{
		repositoryQueues: make(map[string]*repositoryQueue),
		observer:         noopQueueObserver{},
	}
}

// SetObserver replaces the lifecycle observer; nil restores the no-op observer.
func (queue *OperationQueue) SetObserver(observer QueueObserver) {
	queue.mutex.Lock()
	defer queue.mutex.Unlock()
	if observer == nil {
		queue.observer = noopQueueObserver{}
		return
	}
	queue.observer = observer
}

// Enqueue schedules the task behind any in-flight work for the repository and
// blocks until it settles.
//
// The settlement value is exactly the task body's error, or a
// CancellationError when the task was cancelled before or during execution.
func (queue *OperationQueue) Enqueue(repositoryID string, operationName string, timeout time.Duration, body TaskBody) error {
	task := &queuedTask{
		descriptor: OperationDescriptor{ID: uuid.NewString(), Name: operationName},
		body:       body,
		timeout:    timeout,
		settled:    make(chan error, 1),
	}

	queue.mutex.Lock()
	targetQueue, queueExists := queue.repositoryQueues[repositoryID]
	if !queueExists {
		targetQueue = &repositoryQueue{}
		queue.repositoryQueues[repositoryID] = targetQueue
	}
	targetQueue.pending = append(targetQueue.pending, task)
	queue.startNextLocked(repositoryID)
	queue.mutex.Unlock()

	return <-task.settled
}

// CancelRepository cancels the repository's running task cooperatively and
// fails every not-yet-started queued task with a CancellationError.
//
// The queue never force-kills anything itself; a running task must observe its
// context or rely on its spawned process's own timeout.
func (queue *OperationQueue) CancelRepository(repositoryID string) {
	queue.mutex.Lock()
	defer queue.mutex.Unlock()

	targetQueue, queueExists := queue.repositoryQueues[repositoryID]
	if !queueExists {
		return
	}

	for _, pendingTask := range targetQueue.pending {
		pendingTask.settled <- CancellationError{RepositoryID: repositoryID, OperationName: pendingTask.descriptor.Name}
	}
	targetQueue.pending = nil

	if targetQueue.cancelTask != nil {
		targetQueue.cancelTask()
	}
}

// RunningOperation returns the descriptor of the repository's in-flight operation, if any.
func (queue *OperationQueue) RunningOperation(repositoryID string) (OperationDescriptor, bool) {
	queue.mutex.Lock()
	defer queue.mutex.Unlock()

	targetQueue, queueExists := queue.repositoryQueues[repositoryID]
	if !queueExists || targetQueue.running == nil {
		return OperationDescriptor{}, false
	}
	return *targetQueue.running, true
}

// startNextLocked launches the next queued task for the repository when idle.
// The queue mutex must be held.
func (queue *OperationQueue) startNextLocked(repositoryID string) {
	targetQueue, queueExists := queue.repositoryQueues[repositoryID]
	if !queueExists {
		return
	}
	if targetQueue.running != nil {
		return
	}
	if len(targetQueue.pending) == 0 {
		delete(queue.repositoryQueues, repositoryID)
		return
	}

	task := targetQueue.pending[0]
	targetQueue.pending = targetQueue.pending[1:]

	taskContext, cancelTask := context.WithCancel(context.Background())
	task.descriptor.StartedAt = time.Now()
	runningDescriptor := task.descriptor
	targetQueue.running = &runningDescriptor
	targetQueue.cancelTask = cancelTask

	observer := queue.observer

	go func() {
		observer.OperationStarted(repositoryID, runningDescriptor)

		var backstopTimer *time.Timer
		if task.timeout > 0 {
			backstopTimer = time.AfterFunc(task.timeout, cancelTask)
		}

		bodyError := task.body(taskContext)

		if backstopTimer != nil {
			backstopTimer.Stop()
		}
		cancelTask()

		settlement := bodyError
		if bodyError != nil && taskContext.Err() != nil && !IsCancellation(bodyError) {
			settlement = CancellationError{RepositoryID: repositoryID, OperationName: task.descriptor.Name}
		}

		// The slot stays occupied until the finish notification returns so a
		// successor can never report started before this task reports finished.
		observer.OperationFinished(repositoryID)

		queue.mutex.Lock()
		targetQueue.running = nil
		targetQueue.cancelTask = nil
		queue.startNextLocked(repositoryID)
		queue.mutex.Unlock()

		task.settled <- settlement
	}()
}
