package fleet

import (
	"errors"
	"fmt"

	"github.com/temirov/gitfleet/internal/execshell"
	"github.com/temirov/gitfleet/internal/opqueue"
)

// FailureKind classifies how an operation failed.
type FailureKind string

// Failure classifications surfaced through OperationResult.
const (
	FailureKindNone       FailureKind = ""
	FailureKindValidation FailureKind = "validation"
	FailureKindSpawn      FailureKind = "spawn"
	FailureKindProcess    FailureKind = "process"
	FailureKindCancelled  FailureKind = "cancelled"
)

// OperationResult is the uniform settlement of every engine operation.
//
// Transcript is present only for process failures; Snapshot always reflects
// the full catalog after the operation settled.
type OperationResult struct {
	OK          bool
	Message     string
	FailureKind FailureKind
	Transcript  *execshell.Transcript
	Snapshot    Snapshot
}

// validationError marks a failure rejected before any process spawned.
type validationError struct {
	message string
}

// Error returns the validation message.
func (validation validationError) Error() string {
	return validation.message
}

func newValidationError(messageTemplate string, templateArguments ...any) validationError {
	return validationError{message: fmt.Sprintf(messageTemplate, templateArguments...)}
}

func classifyFailure(operationError error) (FailureKind, *execshell.Transcript) {
	if opqueue.IsCancellation(operationError) {
		return FailureKindCancelled, nil
	}

	commandFailure := execshell.CommandFailedError{}
	if errors.As(operationError, &commandFailure) {
		failureTranscript := commandFailure.Result
		return FailureKindProcess, &failureTranscript
	}

	startFailure := execshell.CommandStartError{}
	if errors.As(operationError, &startFailure) {
		return FailureKindSpawn, nil
	}

	return FailureKindValidation, nil
}
