package environ

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/temirov/gitfleet/internal/execshell"
)

const (
	guestDistributionFlagConstant          = "-d"
	guestArgumentSeparatorConstant         = "--"
	guestShellProgramConstant              = "sh"
	guestShellCommandFlagConstant          = "-c"
	guestChangeDirectoryTemplateConstant   = "cd %s && %s"
	guestEnvironmentPrefixTemplateConstant = "%s=%s %s=%s %s %s"
	guestProbeTemplateConstant             = "test -e %s"
	guestFindTemplateConstant              = "find %s -maxdepth %s -type d -name %s -prune -print"
	guestFindPartialResultExitCodeConstant = 1
	guestMarkerSuffixConstant              = "/" + repositoryMarkerDirectoryConstant
)

// GuestInvoker executes repository operations inside a guest distribution through the bridge.
type GuestInvoker struct {
	executor        CommandExecutor
	guestIdentifier string
}

// RunVersionControlCommand routes one composite git invocation through the guest bridge.
//
// The composite line changes into the repository directory, disables
// interactive prompting, and runs git; every embedded value is individually
// shell-escaped so arbitrary path content is handled correctly.
func (invoker *GuestInvoker) RunVersionControlCommand(executionContext context.Context, repositoryPath string, arguments []string, timeout time.Duration) (execshell.Transcript, error) {
	versionControlLine := fmt.Sprintf(
		guestEnvironmentPrefixTemplateConstant,
		gitTerminalPromptVariableConstant, gitTerminalPromptDisabledConstant,
		gitSSHCommandVariableConstant, QuoteForPOSIXShell(gitSSHBatchModeCommandConstant),
		versionControlToolNameConstant, QuoteAllForPOSIXShell(arguments),
	)
	compositeLine := fmt.Sprintf(guestChangeDirectoryTemplateConstant, QuoteForPOSIXShell(repositoryPath), versionControlLine)
	return invoker.runCompositeCommand(executionContext, compositeLine, timeout)
}

// ProbePathExists checks path existence inside the guest filesystem.
func (invoker *GuestInvoker) ProbePathExists(executionContext context.Context, path string) (bool, error) {
	probeLine := fmt.Sprintf(guestProbeTemplateConstant, QuoteForPOSIXShell(path))
	_, executionError := invoker.runCompositeCommand(executionContext, probeLine, 0)
	if executionError == nil {
		return true, nil
	}

	commandFailure := execshell.CommandFailedError{}
	if errors.As(executionError, &commandFailure) && !commandFailure.Result.TimedOut {
		return false, nil
	}
	return false, executionError
}

// DiscoverRepositories delegates the depth-bounded marker search to one guest-executed find command.
func (invoker *GuestInvoker) DiscoverRepositories(executionContext context.Context, root string, ignoreTokens []string, maximumDepth int) ([]string, error) {
	// find counts depth from the root, so the marker sits one level below the
	// deepest candidate repository.
	markerDepth := strconv.Itoa(maximumDepth + 1)
	findLine := fmt.Sprintf(
		guestFindTemplateConstant,
		QuoteForPOSIXShell(root),
		markerDepth,
		QuoteForPOSIXShell(repositoryMarkerDirectoryConstant),
	)

	transcript, executionError := invoker.runCompositeCommand(executionContext, findLine, 0)
	if executionError != nil {
		// find settles non-zero when parts of the tree are unreadable while
		// still printing every reachable marker.
		commandFailure := execshell.CommandFailedError{}
		partialResult := errors.As(executionError, &commandFailure) &&
			commandFailure.Result.ExitCode != nil &&
			*commandFailure.Result.ExitCode == guestFindPartialResultExitCodeConstant &&
			!commandFailure.Result.TimedOut
		if !partialResult {
			return nil, executionError
		}
		transcript = commandFailure.Result
	}

	var repositories []string
	for _, outputLine := range strings.Split(transcript.Stdout, "\n") {
		markerPath := strings.TrimSpace(outputLine)
		if !strings.HasSuffix(markerPath, guestMarkerSuffixConstant) {
			continue
		}
		repositoryPath := strings.TrimSuffix(markerPath, guestMarkerSuffixConstant)
		if pathContainsIgnoreToken(repositoryPath, ignoreTokens) {
			continue
		}
		repositories = append(repositories, repositoryPath)
	}

	sort.Strings(repositories)
	return repositories, nil
}

func (invoker *GuestInvoker) runCompositeCommand(executionContext context.Context, compositeLine string, timeout time.Duration) (execshell.Transcript, error) {
	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			guestDistributionFlagConstant,
			invoker.guestIdentifier,
			guestArgumentSeparatorConstant,
			guestShellProgramConstant,
			guestShellCommandFlagConstant,
			compositeLine,
		},
		Timeout: timeout,
	}
	return invoker.executor.ExecuteGuestBridge(executionContext, commandDetails)
}
