package execshell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"
)

const (
	environmentAssignmentSeparatorConstant = "="
	environmentAssignmentTemplateConstant  = "%s%s%s"
	defaultTerminationGraceWindowConstant  = 2 * time.Second
)

// OSCommandRunner executes commands using the operating system facilities.
//
// Cancellation and timeouts first deliver a termination signal and escalate to
// a forced kill once the grace window elapses, so a hung process can never
// outlive its invocation.
type OSCommandRunner struct {
	terminationGraceWindow time.Duration
}

// NewOSCommandRunner constructs a runner backed by os/exec with the default grace window.
func NewOSCommandRunner() *OSCommandRunner {
	return &OSCommandRunner{terminationGraceWindow: defaultTerminationGraceWindowConstant}
}

// Run executes the supplied command and captures its full output as a Transcript.
func (runner *OSCommandRunner) Run(executionContext context.Context, command ShellCommand) (Transcript, error) {
	commandArguments := append([]string{}, command.Details.Arguments...)
	executable := exec.CommandContext(executionContext, string(command.Name), commandArguments...)

	if len(command.Details.WorkingDirectory) > 0 {
		executable.Dir = command.Details.WorkingDirectory
	}

	if len(command.Details.EnvironmentVariables) > 0 {
		mergedEnvironment := append([]string{}, os.Environ()...)
		for environmentKey, environmentValue := range command.Details.EnvironmentVariables {
			mergedEnvironment = append(mergedEnvironment, fmt.Sprintf(environmentAssignmentTemplateConstant, environmentKey, environmentAssignmentSeparatorConstant, environmentValue))
		}
		executable.Env = mergedEnvironment
	}

	executable.Cancel = func() error {
		return executable.Process.Signal(syscall.SIGTERM)
	}
	executable.WaitDelay = runner.terminationGraceWindow

	var standardOutputBuffer bytes.Buffer
	var standardErrorBuffer bytes.Buffer
	executable.Stdout = &standardOutputBuffer
	executable.Stderr = &standardErrorBuffer

	startedAt := time.Now()
	runError := executable.Run()
	finishedAt := time.Now()

	transcript := Transcript{
		CommandLine: command.CommandLine(),
		Stdout:      standardOutputBuffer.String(),
		Stderr:      standardErrorBuffer.String(),
		StartedAt:   startedAt,
		FinishedAt:  finishedAt,
	}

	if runError == nil {
		zeroExitCode := 0
		transcript.ExitCode = &zeroExitCode
		return transcript, nil
	}

	exitError := &exec.ExitError{}
	if errors.As(runError, &exitError) {
		exitCode := exitError.ExitCode()
		transcript.ExitCode = &exitCode
		transcript.TimedOut = executionContext.Err() != nil
		return transcript, nil
	}

	if executionContext.Err() != nil {
		transcript.TimedOut = true
		return transcript, nil
	}

	return transcript, runError
}
