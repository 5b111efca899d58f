package environ_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/gitfleet/internal/environ"
	"github.com/temirov/gitfleet/internal/execshell"
)

const (
	testGuestIdentifierConstant     = "ubuntu"
	testGuestRepositoryPathConstant = "/home/dev/it's complicated"
)

type scriptedExecutorResponse struct {
	transcript     execshell.Transcript
	executionError error
}

type scriptedCommandExecutor struct {
	responses        []scriptedExecutorResponse
	recordedCommands []execshell.ShellCommand
}

func (executor *scriptedCommandExecutor) nextResponse() scriptedExecutorResponse {
	if len(executor.responses) == 0 {
		zeroExitCode := 0
		return scriptedExecutorResponse{transcript: execshell.Transcript{ExitCode: &zeroExitCode}}
	}
	response := executor.responses[0]
	executor.responses = executor.responses[1:]
	return response
}

func (executor *scriptedCommandExecutor) ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.Transcript, error) {
	executor.recordedCommands = append(executor.recordedCommands, execshell.ShellCommand{Name: execshell.CommandGit, Details: details})
	response := executor.nextResponse()
	return response.transcript, response.executionError
}

func (executor *scriptedCommandExecutor) ExecuteGuestBridge(executionContext context.Context, details execshell.CommandDetails) (execshell.Transcript, error) {
	executor.recordedCommands = append(executor.recordedCommands, execshell.ShellCommand{Name: execshell.CommandGuestBridge, Details: details})
	response := executor.nextResponse()
	return response.transcript, response.executionError
}

func failedTranscriptResponse(exitCode int) scriptedExecutorResponse {
	transcript := execshell.Transcript{ExitCode: &exitCode}
	command := execshell.ShellCommand{Name: execshell.CommandGuestBridge}
	return scriptedExecutorResponse{
		transcript:     transcript,
		executionError: execshell.CommandFailedError{Command: command, Result: transcript},
	}
}

func newGuestInvoker(testInstance *testing.T, executor *scriptedCommandExecutor) environ.EnvironmentInvoker {
	factory, creationError := environ.NewInvokerFactory(executor)
	require.NoError(testInstance, creationError)
	return factory.InvokerFor(environ.GuestEnvironment(testGuestIdentifierConstant))
}

func TestGuestRunVersionControlCommandComposition(testInstance *testing.T) {
	executor := &scriptedCommandExecutor{}
	invoker := newGuestInvoker(testInstance, executor)

	_, executionError := invoker.RunVersionControlCommand(context.Background(), testGuestRepositoryPathConstant, []string{"status", "--porcelain", "--branch"}, time.Minute)
	require.NoError(testInstance, executionError)

	require.Len(testInstance, executor.recordedCommands, 1)
	recordedCommand := executor.recordedCommands[0]
	require.Equal(testInstance, execshell.CommandGuestBridge, recordedCommand.Name)
	require.Equal(testInstance, time.Minute, recordedCommand.Details.Timeout)

	expectedArguments := []string{
		"-d", testGuestIdentifierConstant, "--", "sh", "-c",
		`cd '/home/dev/it'\''s complicated' && GIT_TERMINAL_PROMPT=0 GIT_SSH_COMMAND='ssh -oBatchMode=yes' git 'status' '--porcelain' '--branch'`,
	}
	require.Equal(testInstance, expectedArguments, recordedCommand.Details.Arguments)
}

func TestGuestProbePathExists(testInstance *testing.T) {
	testCases := []struct {
		name           string
		response       scriptedExecutorResponse
		expectedExists bool
	}{
		{
			name: "existing_path",
			response: func() scriptedExecutorResponse {
				zeroExitCode := 0
				return scriptedExecutorResponse{transcript: execshell.Transcript{ExitCode: &zeroExitCode}}
			}(),
			expectedExists: true,
		},
		{
			name:           "missing_path",
			response:       failedTranscriptResponse(1),
			expectedExists: false,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &scriptedCommandExecutor{responses: []scriptedExecutorResponse{testCase.response}}
			invoker := newGuestInvoker(testInstance, executor)

			exists, probeError := invoker.ProbePathExists(context.Background(), "/home/dev/project")
			require.NoError(testInstance, probeError)
			require.Equal(testInstance, testCase.expectedExists, exists)

			require.Len(testInstance, executor.recordedCommands, 1)
			compositeLine := executor.recordedCommands[0].Details.Arguments[5]
			require.Equal(testInstance, "test -e '/home/dev/project'", compositeLine)
		})
	}
}

func TestGuestDiscoverRepositoriesParsesFindOutput(testInstance *testing.T) {
	zeroExitCode := 0
	findTranscript := execshell.Transcript{
		ExitCode: &zeroExitCode,
		Stdout:   "/home/dev/alpha/.git\n/home/dev/vendor/beta/.git\n/home/dev/gamma/.git\n",
	}
	executor := &scriptedCommandExecutor{responses: []scriptedExecutorResponse{{transcript: findTranscript}}}
	invoker := newGuestInvoker(testInstance, executor)

	repositories, discoveryError := invoker.DiscoverRepositories(context.Background(), "/home/dev", []string{"VENDOR"}, 3)
	require.NoError(testInstance, discoveryError)
	require.Equal(testInstance, []string{"/home/dev/alpha", "/home/dev/gamma"}, repositories)

	require.Len(testInstance, executor.recordedCommands, 1)
	compositeLine := executor.recordedCommands[0].Details.Arguments[5]
	require.Equal(testInstance, "find '/home/dev' -maxdepth 4 -type d -name '.git' -prune -print", compositeLine)
}

func TestGuestDiscoverRepositoriesToleratesPartialFindFailure(testInstance *testing.T) {
	partialResponse := failedTranscriptResponse(1)
	partialResponse.transcript.Stdout = "/home/dev/alpha/.git\n"
	failure := partialResponse.executionError.(execshell.CommandFailedError)
	failure.Result = partialResponse.transcript
	partialResponse.executionError = failure

	executor := &scriptedCommandExecutor{responses: []scriptedExecutorResponse{partialResponse}}
	invoker := newGuestInvoker(testInstance, executor)

	repositories, discoveryError := invoker.DiscoverRepositories(context.Background(), "/home/dev", nil, 3)
	require.NoError(testInstance, discoveryError)
	require.Equal(testInstance, []string{"/home/dev/alpha"}, repositories)
}
