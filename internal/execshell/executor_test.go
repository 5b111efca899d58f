package execshell_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/gitfleet/internal/execshell"
)

const (
	testExecutionSuccessCaseNameConstant         = "success"
	testExecutionFailureCaseNameConstant         = "failure_exit_code"
	testExecutionTimeoutCaseNameConstant         = "timed_out"
	testExecutionRunnerErrorCaseNameConstant     = "runner_error"
	testGitWrapperCaseNameConstant               = "git_wrapper"
	testGuestBridgeWrapperCaseNameConstant       = "guest_bridge_wrapper"
	testCommandArgumentConstant                  = "--version"
	testWorkingDirectoryConstant                 = "."
	testStandardErrorOutputConstant              = "failure"
	testLoggerInitializationCaseNameConstant     = "logger_validation"
	testRunnerInitializationCaseNameConstant     = "runner_validation"
	testSuccessfulInitializationCaseNameConstant = "successful_initialization"
)

type recordingCommandRunner struct {
	transcript       execshell.Transcript
	executionError   error
	recordedCommands []execshell.ShellCommand
	recordedContexts []context.Context
}

func (runner *recordingCommandRunner) Run(executionContext context.Context, command execshell.ShellCommand) (execshell.Transcript, error) {
	runner.recordedCommands = append(runner.recordedCommands, command)
	runner.recordedContexts = append(runner.recordedContexts, executionContext)
	return runner.transcript, runner.executionError
}

func transcriptWithExitCode(exitCode int) execshell.Transcript {
	return execshell.Transcript{ExitCode: &exitCode}
}

func TestShellExecutorInitializationValidation(testInstance *testing.T) {
	testCases := []struct {
		name          string
		logger        *zap.Logger
		runner        execshell.CommandRunner
		expectError   error
		expectSuccess bool
	}{
		{
			name:        testLoggerInitializationCaseNameConstant,
			logger:      nil,
			runner:      &recordingCommandRunner{},
			expectError: execshell.ErrLoggerNotConfigured,
		},
		{
			name:        testRunnerInitializationCaseNameConstant,
			logger:      zap.NewNop(),
			runner:      nil,
			expectError: execshell.ErrCommandRunnerNotConfigured,
		},
		{
			name:          testSuccessfulInitializationCaseNameConstant,
			logger:        zap.NewNop(),
			runner:        &recordingCommandRunner{},
			expectSuccess: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor, creationError := execshell.NewShellExecutor(testCase.logger, testCase.runner)
			if testCase.expectSuccess {
				require.NoError(testInstance, creationError)
				require.NotNil(testInstance, executor)
			} else {
				require.Error(testInstance, creationError)
				require.ErrorIs(testInstance, creationError, testCase.expectError)
			}
		})
	}
}

func TestShellExecutorExecuteBehavior(testInstance *testing.T) {
	testCases := []struct {
		name             string
		runnerTranscript execshell.Transcript
		runnerError      error
		expectErrorType  any
		expectedLogCount int
	}{
		{
			name: testExecutionSuccessCaseNameConstant,
			runnerTranscript: func() execshell.Transcript {
				transcript := transcriptWithExitCode(0)
				transcript.Stdout = "ok"
				return transcript
			}(),
			expectedLogCount: 2,
		},
		{
			name: testExecutionFailureCaseNameConstant,
			runnerTranscript: func() execshell.Transcript {
				transcript := transcriptWithExitCode(1)
				transcript.Stderr = testStandardErrorOutputConstant
				return transcript
			}(),
			expectErrorType:  execshell.CommandFailedError{},
			expectedLogCount: 2,
		},
		{
			name: testExecutionTimeoutCaseNameConstant,
			runnerTranscript: func() execshell.Transcript {
				transcript := transcriptWithExitCode(-1)
				transcript.TimedOut = true
				return transcript
			}(),
			expectErrorType:  execshell.CommandFailedError{},
			expectedLogCount: 2,
		},
		{
			name:             testExecutionRunnerErrorCaseNameConstant,
			runnerError:      errors.New("runner failure"),
			expectErrorType:  execshell.CommandStartError{},
			expectedLogCount: 2,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			observerCore, observerLogs := observer.New(zap.DebugLevel)
			logger := zap.New(observerCore)

			recordingRunner := &recordingCommandRunner{
				transcript:     testCase.runnerTranscript,
				executionError: testCase.runnerError,
			}

			shellExecutor, creationError := execshell.NewShellExecutor(logger, recordingRunner)
			require.NoError(testInstance, creationError)

			commandDetails := execshell.CommandDetails{Arguments: []string{testCommandArgumentConstant}, WorkingDirectory: testWorkingDirectoryConstant}
			transcript, executionError := shellExecutor.ExecuteGit(context.Background(), commandDetails)

			if testCase.expectErrorType != nil {
				require.Error(testInstance, executionError)
				require.IsType(testInstance, testCase.expectErrorType, executionError)
			} else {
				require.NoError(testInstance, executionError)
				require.Equal(testInstance, testCase.runnerTranscript.Stdout, transcript.Stdout)
			}

			require.Len(testInstance, observerLogs.All(), testCase.expectedLogCount)
		})
	}
}

func TestShellExecutorAppliesCommandTimeout(testInstance *testing.T) {
	recordingRunner := &recordingCommandRunner{transcript: transcriptWithExitCode(0)}
	shellExecutor, creationError := execshell.NewShellExecutor(zap.NewNop(), recordingRunner)
	require.NoError(testInstance, creationError)

	commandDetails := execshell.CommandDetails{Timeout: time.Minute}
	_, executionError := shellExecutor.ExecuteGit(context.Background(), commandDetails)
	require.NoError(testInstance, executionError)

	require.Len(testInstance, recordingRunner.recordedContexts, 1)
	deadline, deadlineConfigured := recordingRunner.recordedContexts[0].Deadline()
	require.True(testInstance, deadlineConfigured)
	require.WithinDuration(testInstance, time.Now().Add(time.Minute), deadline, 10*time.Second)
}

func TestShellExecutorWrappersSetCommandNames(testInstance *testing.T) {
	testCases := []struct {
		name            string
		invoke          func(executor *execshell.ShellExecutor) error
		expectedCommand execshell.CommandName
	}{
		{
			name: testGitWrapperCaseNameConstant,
			invoke: func(executor *execshell.ShellExecutor) error {
				_, executionError := executor.ExecuteGit(context.Background(), execshell.CommandDetails{})
				return executionError
			},
			expectedCommand: execshell.CommandGit,
		},
		{
			name: testGuestBridgeWrapperCaseNameConstant,
			invoke: func(executor *execshell.ShellExecutor) error {
				_, executionError := executor.ExecuteGuestBridge(context.Background(), execshell.CommandDetails{})
				return executionError
			},
			expectedCommand: execshell.CommandGuestBridge,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			recordingRunner := &recordingCommandRunner{transcript: transcriptWithExitCode(1)}

			executor, creationError := execshell.NewShellExecutor(zap.NewNop(), recordingRunner)
			require.NoError(testInstance, creationError)

			executionError := testCase.invoke(executor)
			require.Error(testInstance, executionError)
			require.Len(testInstance, recordingRunner.recordedCommands, 1)
			require.Equal(testInstance, testCase.expectedCommand, recordingRunner.recordedCommands[0].Name)
		})
	}
}

func TestTranscriptSucceeded(testInstance *testing.T) {
	zeroExitCode := 0
	failingExitCode := 128

	testCases := []struct {
		name       string
		transcript execshell.Transcript
		expected   bool
	}{
		{name: "zero_exit", transcript: execshell.Transcript{ExitCode: &zeroExitCode}, expected: true},
		{name: "nonzero_exit", transcript: execshell.Transcript{ExitCode: &failingExitCode}, expected: false},
		{name: "never_started", transcript: execshell.Transcript{}, expected: false},
		{name: "timed_out_zero_exit", transcript: execshell.Transcript{ExitCode: &zeroExitCode, TimedOut: true}, expected: false},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expected, testCase.transcript.Succeeded())
		})
	}
}
