package repositories

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/temirov/gitfleet/internal/fleet"
	"github.com/temirov/gitfleet/internal/utils"
)

const (
	missingProvidersMessageConstant       = "command builders require logger and engine providers"
	listEntryTemplateConstant             = "%s  %s  %s  [%s]\n"
	listEmptyCatalogMessageConstant       = "no repositories registered"
	attentionMarkerConstant               = "!"
	noAttentionMarkerConstant             = " "
	detachedBranchTemplateConstant        = "detached@%s"
	inaccessibleBranchLabelConstant       = "inaccessible"
	branchCountersTemplateConstant        = "%s%s"
	aheadCounterTemplateConstant          = " +%d"
	behindCounterTemplateConstant         = " -%d"
	dirtyCounterTemplateConstant          = " *%d"
	conflictedCounterTemplateConstant     = " x%d"
	operationSuffixTemplateConstant       = " (%s running)"
	unrefreshedStatusPlaceholderConstant  = "unrefreshed"
	guestLocationSuffixTemplateConstant   = "%s (%s)"
	repositorySelectorResolutionConstant  = "no repository matches %q"
	ambiguousSelectorTemplateConstant     = "%q matches more than one repository"
)

// ErrProvidersNotConfigured indicates a command builder without its collaborators.
var ErrProvidersNotConfigured = errors.New(missingProvidersMessageConstant)

// emitOperationResult prints the settlement message and maps failures to command errors.
func emitOperationResult(command *cobra.Command, result fleet.OperationResult) error {
	outputWriter := utils.NewFlushingWriter(command.OutOrStdout())
	fmt.Fprintln(outputWriter, result.Message)
	if result.OK {
		return nil
	}
	return errors.New(result.Message)
}

// renderSnapshot writes one line per repository with branch, counters, and an attention marker.
func renderSnapshot(outputWriter io.Writer, snapshot fleet.Snapshot) {
	if len(snapshot.Repositories) == 0 {
		fmt.Fprintln(outputWriter, listEmptyCatalogMessageConstant)
		return
	}
	for _, repository := range snapshot.Repositories {
		attentionMarker := noAttentionMarkerConstant
		statusLabel := unrefreshedStatusPlaceholderConstant
		if repository.Status != nil {
			if repository.Status.NeedsAttention {
				attentionMarker = attentionMarkerConstant
			}
			statusLabel = describeStatus(repository)
		}

		locationLabel := repository.Location
		if repository.Environment.IsGuest() {
			locationLabel = fmt.Sprintf(guestLocationSuffixTemplateConstant, repository.Location, repository.Environment.GuestIdentifier)
		}
		if repository.ActiveOperation != nil {
			statusLabel += fmt.Sprintf(operationSuffixTemplateConstant, repository.ActiveOperation.Name)
		}

		fmt.Fprintf(outputWriter, listEntryTemplateConstant, attentionMarker, repository.DisplayName, statusLabel, locationLabel)
	}
}

func describeStatus(repository fleet.RepositoryRecord) string {
	summary := repository.Status
	if summary.Inaccessible {
		return inaccessibleBranchLabelConstant
	}

	branchLabel := summary.Branch
	if summary.IsDetached {
		branchLabel = fmt.Sprintf(detachedBranchTemplateConstant, summary.Branch)
	}

	counters := strings.Builder{}
	if summary.Ahead > 0 {
		counters.WriteString(fmt.Sprintf(aheadCounterTemplateConstant, summary.Ahead))
	}
	if summary.Behind > 0 {
		counters.WriteString(fmt.Sprintf(behindCounterTemplateConstant, summary.Behind))
	}
	if summary.Dirty {
		counters.WriteString(fmt.Sprintf(dirtyCounterTemplateConstant, summary.StagedCount+summary.ModifiedCount+summary.UntrackedCount))
	}
	if summary.ConflictedCount > 0 {
		counters.WriteString(fmt.Sprintf(conflictedCounterTemplateConstant, summary.ConflictedCount))
	}
	return fmt.Sprintf(branchCountersTemplateConstant, branchLabel, counters.String())
}

// resolveRepositoryIdentifier accepts a repository identifier or a unique
// display name and returns the identifier.
func resolveRepositoryIdentifier(snapshot fleet.Snapshot, selector string) (string, error) {
	trimmedSelector := strings.TrimSpace(selector)
	matches := make([]string, 0, 1)
	for _, repository := range snapshot.Repositories {
		if repository.ID == trimmedSelector {
			return repository.ID, nil
		}
		if repository.DisplayName == trimmedSelector {
			matches = append(matches, repository.ID)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return "", fmt.Errorf(repositorySelectorResolutionConstant, trimmedSelector)
	default:
		return "", fmt.Errorf(ambiguousSelectorTemplateConstant, trimmedSelector)
	}
}
