package execshell

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

const (
	loggerNotConfiguredMessageConstant        = "logger not configured"
	commandRunnerNotConfiguredMessageConstant = "command runner not configured"
	commandFailedErrorTemplateConstant        = "%s failed with exit code %d"
	commandTimedOutErrorTemplateConstant      = "%s timed out"
	commandStartErrorTemplateConstant         = "%s could not start: %s"
	commandLineLogFieldNameConstant           = "command_line"
	exitCodeLogFieldNameConstant              = "exit_code"
	timedOutLogFieldNameConstant              = "timed_out"
	standardErrorLogFieldNameConstant         = "stderr"
)

// Initialization validation errors.
var (
	ErrLoggerNotConfigured        = errors.New(loggerNotConfiguredMessageConstant)
	ErrCommandRunnerNotConfigured = errors.New(commandRunnerNotConfiguredMessageConstant)
)

// CommandFailedError indicates a process launched, ran, and settled unsuccessfully.
type CommandFailedError struct {
	Command ShellCommand
	Result  Transcript
}

// Error describes the failed invocation.
func (failure CommandFailedError) Error() string {
	if failure.Result.TimedOut {
		return fmt.Sprintf(commandTimedOutErrorTemplateConstant, failure.Command.CommandLine())
	}
	exitCode := -1
	if failure.Result.ExitCode != nil {
		exitCode = *failure.Result.ExitCode
	}
	return fmt.Sprintf(commandFailedErrorTemplateConstant, failure.Command.CommandLine(), exitCode)
}

// CommandStartError indicates the program could not launch at all.
type CommandStartError struct {
	Command ShellCommand
	Cause   error
}

// Error describes the spawn failure.
func (failure CommandStartError) Error() string {
	return fmt.Sprintf(commandStartErrorTemplateConstant, failure.Command.CommandLine(), failure.Cause)
}

// Unwrap exposes the underlying spawn failure.
func (failure CommandStartError) Unwrap() error {
	return failure.Cause
}

// CommandRunner represents the ability to run shell commands.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (Transcript, error)
}

// ShellExecutor coordinates command execution with logging, timeouts, and lifecycle events.
type ShellExecutor struct {
	logger           *zap.Logger
	commandRunner    CommandRunner
	messageFormatter CommandMessageFormatter
	eventObserver    CommandEventObserver
}

// NewShellExecutor validates collaborators and constructs a ShellExecutor.
func NewShellExecutor(logger *zap.Logger, commandRunner CommandRunner) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if commandRunner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}

	return &ShellExecutor{
		logger:           logger,
		commandRunner:    commandRunner,
		messageFormatter: CommandMessageFormatter{},
		eventObserver:    noopCommandEventObserver{},
	}, nil
}

// SetCommandEventObserver replaces the lifecycle observer; nil restores the no-op observer.
func (executor *ShellExecutor) SetCommandEventObserver(observer CommandEventObserver) {
	if observer == nil {
		executor.eventObserver = noopCommandEventObserver{}
		return
	}
	executor.eventObserver = observer
}

// ExecuteGit runs git with the provided details.
func (executor *ShellExecutor) ExecuteGit(executionContext context.Context, details CommandDetails) (Transcript, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandGit, Details: details})
}

// ExecuteGuestBridge runs the guest execution bridge with the provided details.
func (executor *ShellExecutor) ExecuteGuestBridge(executionContext context.Context, details CommandDetails) (Transcript, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandGuestBridge, Details: details})
}

// Execute runs an arbitrary command, applying the command timeout and reporting lifecycle events.
//
// The returned Transcript is populated on every path that reached process
// execution; only spawn failures leave its exit code absent.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand) (Transcript, error) {
	boundedContext := executionContext
	if command.Details.Timeout > 0 {
		timeoutContext, cancelTimeout := context.WithTimeout(executionContext, command.Details.Timeout)
		defer cancelTimeout()
		boundedContext = timeoutContext
	}

	executor.logger.Info(executor.messageFormatter.BuildStartedMessage(command), zap.String(commandLineLogFieldNameConstant, command.CommandLine()))
	executor.eventObserver.CommandStarted(command)

	transcript, runError := executor.commandRunner.Run(boundedContext, command)
	if runError != nil {
		executor.logger.Error(
			executor.messageFormatter.BuildExecutionFailureMessage(command, runError),
			zap.String(commandLineLogFieldNameConstant, command.CommandLine()),
		)
		executor.eventObserver.CommandExecutionFailed(command, runError)
		return transcript, CommandStartError{Command: command, Cause: runError}
	}

	executor.eventObserver.CommandCompleted(command, transcript)

	if !transcript.Succeeded() {
		exitCode := -1
		if transcript.ExitCode != nil {
			exitCode = *transcript.ExitCode
		}
		executor.logger.Warn(
			executor.messageFormatter.BuildFailureMessage(command, transcript),
			zap.String(commandLineLogFieldNameConstant, command.CommandLine()),
			zap.Int(exitCodeLogFieldNameConstant, exitCode),
			zap.Bool(timedOutLogFieldNameConstant, transcript.TimedOut),
			zap.String(standardErrorLogFieldNameConstant, transcript.Stderr),
		)
		return transcript, CommandFailedError{Command: command, Result: transcript}
	}

	executor.logger.Info(executor.messageFormatter.BuildSuccessMessage(command), zap.String(commandLineLogFieldNameConstant, command.CommandLine()))
	return transcript, nil
}
