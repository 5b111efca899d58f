package repositories

import (
	"github.com/spf13/cobra"

	"github.com/temirov/gitfleet/internal/environ"
	"github.com/temirov/gitfleet/internal/fleet"
	"github.com/temirov/gitfleet/internal/utils"
	pathutils "github.com/temirov/gitfleet/internal/utils/path"
)

const (
	listCommandUseConstant           = "list"
	listCommandShortDescription      = "List registered repositories with their latest status"
	refreshCommandUseConstant        = "refresh [repository]"
	refreshCommandShortDescription   = "Refresh repository status summaries"
	scanCommandUseConstant           = "scan"
	scanCommandShortDescription      = "Discover repositories under the configured roots"
	addCommandUseConstant            = "add <path>"
	addCommandShortDescription       = "Register a repository by path"
	removeCommandUseConstant         = "remove <repository>"
	removeCommandShortDescription    = "Remove a repository from the catalog"
	guestFlagNameConstant            = "guest"
	guestFlagUsageConstant           = "Guest distribution identifier hosting the repository path."
	displayNameFlagNameConstant      = "name"
	displayNameFlagUsageConstant     = "Display name override for the registered repository."
)

// ListCommandBuilder assembles the list command.
type ListCommandBuilder struct {
	LoggerProvider LoggerProvider
	EngineProvider EngineProvider
}

// Build constructs the list command.
func (builder *ListCommandBuilder) Build() (*cobra.Command, error) {
	if builder.LoggerProvider == nil || builder.EngineProvider == nil {
		return nil, ErrProvidersNotConfigured
	}

	command := &cobra.Command{
		Use:   listCommandUseConstant,
		Short: listCommandShortDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			engine, engineError := builder.EngineProvider()
			if engineError != nil {
				return engineError
			}
			renderSnapshot(utils.NewFlushingWriter(command.OutOrStdout()), engine.GetSnapshot())
			return nil
		},
	}
	return command, nil
}

// RefreshCommandBuilder assembles the refresh command.
type RefreshCommandBuilder struct {
	LoggerProvider LoggerProvider
	EngineProvider EngineProvider
}

// Build constructs the refresh command. Without an argument the whole catalog
// is refreshed.
func (builder *RefreshCommandBuilder) Build() (*cobra.Command, error) {
	if builder.LoggerProvider == nil || builder.EngineProvider == nil {
		return nil, ErrProvidersNotConfigured
	}

	command := &cobra.Command{
		Use:   refreshCommandUseConstant,
		Short: refreshCommandShortDescription,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			engine, engineError := builder.EngineProvider()
			if engineError != nil {
				return engineError
			}
			if len(arguments) == 0 {
				return emitOperationResult(command, engine.RefreshAll(command.Context()))
			}
			repositoryID, resolutionError := resolveRepositoryIdentifier(engine.GetSnapshot(), arguments[0])
			if resolutionError != nil {
				return resolutionError
			}
			return emitOperationResult(command, engine.RefreshRepository(command.Context(), repositoryID))
		},
	}
	return command, nil
}

// ScanCommandBuilder assembles the scan command.
type ScanCommandBuilder struct {
	LoggerProvider LoggerProvider
	EngineProvider EngineProvider
}

// Build constructs the scan command.
func (builder *ScanCommandBuilder) Build() (*cobra.Command, error) {
	if builder.LoggerProvider == nil || builder.EngineProvider == nil {
		return nil, ErrProvidersNotConfigured
	}

	command := &cobra.Command{
		Use:   scanCommandUseConstant,
		Short: scanCommandShortDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			engine, engineError := builder.EngineProvider()
			if engineError != nil {
				return engineError
			}
			return emitOperationResult(command, engine.ScanConfiguredRoots(command.Context()))
		},
	}
	return command, nil
}

// AddCommandBuilder assembles the add command.
type AddCommandBuilder struct {
	LoggerProvider LoggerProvider
	EngineProvider EngineProvider
}

// Build constructs the add command. Native paths are sanitized and home
// expanded before registration; guest paths are forwarded as provided.
func (builder *AddCommandBuilder) Build() (*cobra.Command, error) {
	if builder.LoggerProvider == nil || builder.EngineProvider == nil {
		return nil, ErrProvidersNotConfigured
	}

	var guestIdentifierFlagValue string
	var displayNameFlagValue string
	pathSanitizer := pathutils.NewRepositoryPathSanitizer()

	command := &cobra.Command{
		Use:   addCommandUseConstant,
		Short: addCommandShortDescription,
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			engine, engineError := builder.EngineProvider()
			if engineError != nil {
				return engineError
			}

			repositoryEnvironment := environ.NativeEnvironment()
			repositoryPath := arguments[0]
			if len(guestIdentifierFlagValue) > 0 {
				repositoryEnvironment = environ.GuestEnvironment(guestIdentifierFlagValue)
			} else {
				sanitizedPaths := pathSanitizer.Sanitize([]string{repositoryPath})
				if len(sanitizedPaths) > 0 {
					repositoryPath = sanitizedPaths[0]
				}
			}

			result := engine.AddRepository(command.Context(), fleet.AddRepositoryInput{
				Environment: repositoryEnvironment,
				Path:        repositoryPath,
				DisplayName: displayNameFlagValue,
			})
			return emitOperationResult(command, result)
		},
	}
	command.Flags().StringVar(&guestIdentifierFlagValue, guestFlagNameConstant, "", guestFlagUsageConstant)
	command.Flags().StringVar(&displayNameFlagValue, displayNameFlagNameConstant, "", displayNameFlagUsageConstant)
	return command, nil
}

// RemoveCommandBuilder assembles the remove command.
type RemoveCommandBuilder struct {
	LoggerProvider LoggerProvider
	EngineProvider EngineProvider
}

// Build constructs the remove command.
func (builder *RemoveCommandBuilder) Build() (*cobra.Command, error) {
	if builder.LoggerProvider == nil || builder.EngineProvider == nil {
		return nil, ErrProvidersNotConfigured
	}

	command := &cobra.Command{
		Use:   removeCommandUseConstant,
		Short: removeCommandShortDescription,
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			engine, engineError := builder.EngineProvider()
			if engineError != nil {
				return engineError
			}
			repositoryID, resolutionError := resolveRepositoryIdentifier(engine.GetSnapshot(), arguments[0])
			if resolutionError != nil {
				return resolutionError
			}
			return emitOperationResult(command, engine.RemoveRepository(command.Context(), repositoryID))
		},
	}
	return command, nil
}
