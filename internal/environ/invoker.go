package environ

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/temirov/gitfleet/internal/execshell"
)

const (
	executorNotConfiguredMessageConstant = "command executor not configured"
	versionControlToolNameConstant       = "git"
	gitTerminalPromptVariableConstant    = "GIT_TERMINAL_PROMPT"
	gitTerminalPromptDisabledConstant    = "0"
	gitSSHCommandVariableConstant        = "GIT_SSH_COMMAND"
	gitSSHBatchModeCommandConstant       = "ssh -oBatchMode=yes"
	repositoryMarkerDirectoryConstant    = ".git"
)

// ErrExecutorNotConfigured indicates invoker construction without a command executor.
var ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)

// CommandExecutor exposes the subset of shell execution used by environment invokers.
type CommandExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.Transcript, error)
	ExecuteGuestBridge(executionContext context.Context, details execshell.CommandDetails) (execshell.Transcript, error)
}

// FileSystem exposes the filesystem operations required by the native invoker.
type FileSystem interface {
	Stat(path string) (fs.FileInfo, error)
}

// OSFileSystem implements FileSystem using the host operating system.
type OSFileSystem struct{}

// Stat delegates to os.Stat.
func (OSFileSystem) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// EnvironmentInvoker runs version control commands and filesystem probes in one environment.
//
// All implementations disable interactive prompting so credential or host-key
// prompts fail immediately instead of hanging a queued operation.
type EnvironmentInvoker interface {
	RunVersionControlCommand(executionContext context.Context, repositoryPath string, arguments []string, timeout time.Duration) (execshell.Transcript, error)
	ProbePathExists(executionContext context.Context, path string) (bool, error)
	DiscoverRepositories(executionContext context.Context, root string, ignoreTokens []string, maximumDepth int) ([]string, error)
}

// InvokerFactory selects the invoker matching a repository environment.
type InvokerFactory struct {
	executor   CommandExecutor
	fileSystem FileSystem
}

// NewInvokerFactory validates collaborators and constructs an InvokerFactory.
func NewInvokerFactory(executor CommandExecutor) (*InvokerFactory, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	return &InvokerFactory{executor: executor, fileSystem: OSFileSystem{}}, nil
}

// SetFileSystem replaces the filesystem used by native invokers; nil restores the OS filesystem.
func (factory *InvokerFactory) SetFileSystem(fileSystem FileSystem) {
	if fileSystem == nil {
		factory.fileSystem = OSFileSystem{}
		return
	}
	factory.fileSystem = fileSystem
}

// InvokerFor returns the invoker serving the provided environment.
func (factory *InvokerFactory) InvokerFor(environment Environment) EnvironmentInvoker {
	if environment.IsGuest() {
		return &GuestInvoker{executor: factory.executor, guestIdentifier: environment.GuestIdentifier}
	}
	return &NativeInvoker{executor: factory.executor, fileSystem: factory.fileSystem}
}

func nonInteractiveGitEnvironment() map[string]string {
	return map[string]string{
		gitTerminalPromptVariableConstant: gitTerminalPromptDisabledConstant,
		gitSSHCommandVariableConstant:     gitSSHBatchModeCommandConstant,
	}
}
