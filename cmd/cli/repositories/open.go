package repositories

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temirov/gitfleet/internal/utils/flags"
)

const (
	openCommandUseConstant        = "open <repository>"
	openCommandShortDescription   = "Open the repository in an external program"
	openTargetFlagNameConstant    = "target"
	openTargetFlagDescription     = "Program to open the repository with"
	openTargetEditorConstant      = "editor"
	openTargetFileManagerConstant = "files"
	openTargetTerminalConstant    = "terminal"
	unknownOpenTargetTemplate     = "unknown open target %q"
)

// OpenCommandBuilder assembles the open command.
type OpenCommandBuilder struct {
	LoggerProvider LoggerProvider
	EngineProvider EngineProvider
}

// Build constructs the open command.
func (builder *OpenCommandBuilder) Build() (*cobra.Command, error) {
	if builder.LoggerProvider == nil || builder.EngineProvider == nil {
		return nil, ErrProvidersNotConfigured
	}

	openTargets := []string{openTargetEditorConstant, openTargetFileManagerConstant, openTargetTerminalConstant}
	var openTargetFlagValue string

	command := &cobra.Command{
		Use:   openCommandUseConstant,
		Short: openCommandShortDescription,
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

			switch openTargetFlagValue {
			case openTargetEditorConstant:
				return emitOperationResult(command, engine.OpenInEditor(command.Context(), repositoryID))
			case openTargetFileManagerConstant:
				return emitOperationResult(command, engine.OpenInFileManager(command.Context(), repositoryID))
			case openTargetTerminalConstant:
				return emitOperationResult(command, engine.OpenInTerminal(command.Context(), repositoryID))
			default:
				return fmt.Errorf(unknownOpenTargetTemplate, openTargetFlagValue)
			}
		},
	}
	command.Flags().StringVar(
		&openTargetFlagValue,
		openTargetFlagNameConstant,
		openTargetEditorConstant,
		flags.FormatChoiceUsage(openTargetEditorConstant, openTargets, openTargetFlagDescription),
	)
	return command, nil
}
