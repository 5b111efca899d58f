package execshell

import (
	"strings"
	"time"
)

const (
	commandLineJoinSeparatorConstant = " "
)

// CommandName identifies a supported executable.
type CommandName string

// Supported executables.
const (
	CommandGit         CommandName = "git"
	CommandShell       CommandName = "sh"
	CommandGuestBridge CommandName = "wsl.exe"
)

// CommandDetails describes one tool invocation.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	Timeout              time.Duration
}

// ShellCommand combines a CommandName with specific invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// CommandLine renders the full invocation as a single display string.
func (command ShellCommand) CommandLine() string {
	segments := append([]string{string(command.Name)}, command.Details.Arguments...)
	return strings.Join(segments, commandLineJoinSeparatorConstant)
}

// Transcript captures the complete observable record of one external process invocation.
//
// ExitCode is nil when the process never started. A Transcript is immutable
// once returned; callers copy it into repository history rather than mutating it.
type Transcript struct {
	CommandLine string    `yaml:"command_line"`
	ExitCode    *int      `yaml:"exit_code,omitempty"`
	Stdout      string    `yaml:"stdout"`
	Stderr      string    `yaml:"stderr"`
	StartedAt   time.Time `yaml:"started_at"`
	FinishedAt  time.Time `yaml:"finished_at"`
	TimedOut    bool      `yaml:"timed_out"`
}

// Succeeded reports whether the invocation exited zero without timing out.
func (transcript Transcript) Succeeded() bool {
	if transcript.TimedOut {
		return false
	}
	if transcript.ExitCode == nil {
		return false
	}
	return *transcript.ExitCode == 0
}
