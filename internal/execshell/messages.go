package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	defaultWorkingDirectoryLabelConstant    = "current directory"
)

const (
	gitStatusSubcommandNameConstant   = "status"
	gitFetchSubcommandNameConstant    = "fetch"
	gitPullSubcommandNameConstant     = "pull"
	gitPushSubcommandNameConstant     = "push"
	gitAddSubcommandNameConstant      = "add"
	gitResetSubcommandNameConstant    = "reset"
	gitCommitSubcommandNameConstant   = "commit"
	gitRevParseSubcommandNameConstant = "rev-parse"
)

const (
	gitStatusStartTemplateConstant            = "Reviewing working tree status in %s"
	gitStatusSuccessTemplateConstant          = "Collected working tree status for %s"
	gitStatusFailureTemplateConstant          = "Failed to review working tree status in %s (exit code %d%s)"
	gitStatusExecutionFailureTemplateConstant = "Unable to review working tree status in %s: %s"
	gitFetchStartTemplateConstant             = "Fetching remotes in %s"
	gitFetchSuccessTemplateConstant           = "Fetched remotes in %s"
	gitFetchFailureTemplateConstant           = "Failed to fetch remotes in %s (exit code %d%s)"
	gitFetchExecutionFailureTemplateConstant  = "Unable to fetch remotes in %s: %s"
	gitPullStartTemplateConstant              = "Pulling upstream changes into %s"
	gitPullSuccessTemplateConstant            = "Pulled upstream changes into %s"
	gitPullFailureTemplateConstant            = "Failed to pull upstream changes into %s (exit code %d%s)"
	gitPullExecutionFailureTemplateConstant   = "Unable to pull upstream changes into %s: %s"
	gitPushStartTemplateConstant              = "Pushing local commits from %s"
	gitPushSuccessTemplateConstant            = "Pushed local commits from %s"
	gitPushFailureTemplateConstant            = "Failed to push local commits from %s (exit code %d%s)"
	gitPushExecutionFailureTemplateConstant   = "Unable to push local commits from %s: %s"
	gitAddStartTemplateConstant               = "Staging changes in %s"
	gitAddSuccessTemplateConstant             = "Staged changes in %s"
	gitAddFailureTemplateConstant             = "Failed to stage changes in %s (exit code %d%s)"
	gitAddExecutionFailureTemplateConstant    = "Unable to stage changes in %s: %s"
	gitResetStartTemplateConstant             = "Unstaging changes in %s"
	gitResetSuccessTemplateConstant           = "Unstaged changes in %s"
	gitResetFailureTemplateConstant           = "Failed to unstage changes in %s (exit code %d%s)"
	gitResetExecutionFailureTemplateConstant  = "Unable to unstage changes in %s: %s"
	gitCommitStartTemplateConstant            = "Creating commit in %s"
	gitCommitSuccessTemplateConstant          = "Created commit in %s"
	gitCommitFailureTemplateConstant          = "Failed to create commit in %s (exit code %d%s)"
	gitCommitExecutionFailureTemplateConstant = "Unable to create commit in %s: %s"
	gitVerifyStartTemplateConstant            = "Analyzing repository at %s"
	gitVerifySuccessTemplateConstant          = "%s is a Git repository"
	gitVerifyFailureTemplateConstant          = "Could not confirm %s is a Git repository (exit code %d%s)"
	gitVerifyExecutionFailureTemplateConstant = "Could not analyze %s: %s"
)

const (
	guestBridgeStartTemplateConstant            = "Running bridged guest command %s"
	guestBridgeSuccessTemplateConstant          = "Completed bridged guest command %s"
	guestBridgeFailureTemplateConstant          = "Bridged guest command %s failed with exit code %d%s"
	guestBridgeExecutionFailureTemplateConstant = "Bridged guest command %s failed: %s"
)

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, Transcript{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, Transcript{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that settled unsuccessfully.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, transcript Transcript) string {
	return formatter.buildMessage(command, transcript, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing a spawn-level failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, Transcript{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, transcript Transcript, failure error, stage messageStage) string {
	switch command.Name {
	case CommandGit:
		return formatter.describeGitMessage(command, transcript, failure, stage)
	case CommandGuestBridge:
		return formatter.describeGuestBridgeMessage(command, transcript, failure, stage)
	default:
		return formatter.buildGenericMessage(command, transcript, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitMessage(command ShellCommand, transcript Transcript, failure error, stage messageStage) string {
	subcommandTemplates := map[string][4]string{
		gitStatusSubcommandNameConstant:   {gitStatusStartTemplateConstant, gitStatusSuccessTemplateConstant, gitStatusFailureTemplateConstant, gitStatusExecutionFailureTemplateConstant},
		gitFetchSubcommandNameConstant:    {gitFetchStartTemplateConstant, gitFetchSuccessTemplateConstant, gitFetchFailureTemplateConstant, gitFetchExecutionFailureTemplateConstant},
		gitPullSubcommandNameConstant:     {gitPullStartTemplateConstant, gitPullSuccessTemplateConstant, gitPullFailureTemplateConstant, gitPullExecutionFailureTemplateConstant},
		gitPushSubcommandNameConstant:     {gitPushStartTemplateConstant, gitPushSuccessTemplateConstant, gitPushFailureTemplateConstant, gitPushExecutionFailureTemplateConstant},
		gitAddSubcommandNameConstant:      {gitAddStartTemplateConstant, gitAddSuccessTemplateConstant, gitAddFailureTemplateConstant, gitAddExecutionFailureTemplateConstant},
		gitResetSubcommandNameConstant:    {gitResetStartTemplateConstant, gitResetSuccessTemplateConstant, gitResetFailureTemplateConstant, gitResetExecutionFailureTemplateConstant},
		gitCommitSubcommandNameConstant:   {gitCommitStartTemplateConstant, gitCommitSuccessTemplateConstant, gitCommitFailureTemplateConstant, gitCommitExecutionFailureTemplateConstant},
		gitRevParseSubcommandNameConstant: {gitVerifyStartTemplateConstant, gitVerifySuccessTemplateConstant, gitVerifyFailureTemplateConstant, gitVerifyExecutionFailureTemplateConstant},
	}

	subcommand := emptyStringConstant
	if len(command.Details.Arguments) > 0 {
		subcommand = strings.TrimSpace(command.Details.Arguments[0])
	}

	templates, templatesExist := subcommandTemplates[subcommand]
	if !templatesExist {
		return formatter.buildGenericMessage(command, transcript, failure, stage)
	}

	workingDirectory := formatter.describeWorkingDirectory(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(templates[0], workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(templates[1], workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(templates[2], workingDirectory, formatter.describeExitCode(transcript), formatter.formatStandardErrorSuffix(transcript.Stderr))
	case messageStageExecutionFailure:
		return fmt.Sprintf(templates[3], workingDirectory, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, transcript, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGuestBridgeMessage(command ShellCommand, transcript Transcript, failure error, stage messageStage) string {
	commandLabel := command.CommandLine()
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(guestBridgeStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(guestBridgeSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(guestBridgeFailureTemplateConstant, commandLabel, formatter.describeExitCode(transcript), formatter.formatStandardErrorSuffix(transcript.Stderr))
	case messageStageExecutionFailure:
		return fmt.Sprintf(guestBridgeExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	default:
		return fmt.Sprintf(guestBridgeStartTemplateConstant, commandLabel)
	}
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, transcript Transcript, failure error, stage messageStage) string {
	commandLabel := command.CommandLine()
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, formatter.describeExitCode(transcript), formatter.formatStandardErrorSuffix(transcript.Stderr))
	case messageStageExecutionFailure:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	default:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	}
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedDirectory
}

func (formatter CommandMessageFormatter) describeExitCode(transcript Transcript) int {
	if transcript.ExitCode == nil {
		return -1
	}
	return *transcript.ExitCode
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedError := strings.TrimSpace(standardError)
	if len(trimmedError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedError)
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}
