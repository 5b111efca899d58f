package repositories

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/temirov/gitfleet/internal/fleet"
)

const (
	commitCommandUseConstant       = "commit <repository>"
	commitCommandShortDescription  = "Commit the repository working tree"
	commitMessageFlagNameConstant  = "message"
	commitMessageFlagShorthand     = "m"
	commitMessageFlagUsageConstant = "Commit message."
	pushCommandUseConstant         = "push <repository>"
	pushCommandShortDescription    = "Push the current branch"
	syncCommandUseConstant         = "sync <repository>"
	syncCommandShortDescription    = "Fetch, pull, and push as one serialized operation"
	stageCommandUseConstant        = "stage <repository> <file>"
	stageCommandShortDescription   = "Stage one file"
	unstageCommandUseConstant      = "unstage <repository> <file>"
	unstageCommandShortDescription = "Unstage one file"
	cancelCommandUseConstant       = "cancel <repository>"
	cancelCommandShortDescription  = "Cancel the running operation and flush queued ones"
)

// CommitCommandBuilder assembles the commit command.
type CommitCommandBuilder struct {
	LoggerProvider LoggerProvider
	EngineProvider EngineProvider
}

// Build constructs the commit command.
func (builder *CommitCommandBuilder) Build() (*cobra.Command, error) {
	if builder.LoggerProvider == nil || builder.EngineProvider == nil {
		return nil, ErrProvidersNotConfigured
	}

	var commitMessageFlagValue string

	command := &cobra.Command{
		Use:   commitCommandUseConstant,
		Short: commitCommandShortDescription,
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
			return emitOperationResult(command, engine.CommitRepository(command.Context(), repositoryID, commitMessageFlagValue))
		},
	}
	command.Flags().StringVarP(&commitMessageFlagValue, commitMessageFlagNameConstant, commitMessageFlagShorthand, "", commitMessageFlagUsageConstant)
	return command, nil
}

// PushCommandBuilder assembles the push command.
type PushCommandBuilder struct {
	LoggerProvider LoggerProvider
	EngineProvider EngineProvider
}

// Build constructs the push command.
func (builder *PushCommandBuilder) Build() (*cobra.Command, error) {
	return buildRepositoryActionCommand(builder.LoggerProvider, builder.EngineProvider, pushCommandUseConstant, pushCommandShortDescription, func(executionContext context.Context, engine *fleet.Engine, repositoryID string) fleet.OperationResult {
		return engine.PushRepository(executionContext, repositoryID)
	})
}

// SyncCommandBuilder assembles the sync command.
type SyncCommandBuilder struct {
	LoggerProvider LoggerProvider
	EngineProvider EngineProvider
}

// Build constructs the sync command.
func (builder *SyncCommandBuilder) Build() (*cobra.Command, error) {
	return buildRepositoryActionCommand(builder.LoggerProvider, builder.EngineProvider, syncCommandUseConstant, syncCommandShortDescription, func(executionContext context.Context, engine *fleet.Engine, repositoryID string) fleet.OperationResult {
		return engine.SyncRepository(executionContext, repositoryID)
	})
}

// CancelCommandBuilder assembles the cancel command.
type CancelCommandBuilder struct {
	LoggerProvider LoggerProvider
	EngineProvider EngineProvider
}

// Build constructs the cancel command.
func (builder *CancelCommandBuilder) Build() (*cobra.Command, error) {
	return buildRepositoryActionCommand(builder.LoggerProvider, builder.EngineProvider, cancelCommandUseConstant, cancelCommandShortDescription, func(executionContext context.Context, engine *fleet.Engine, repositoryID string) fleet.OperationResult {
		return engine.CancelRepositoryOperation(executionContext, repositoryID)
	})
}

// StageCommandBuilder assembles the stage command.
type StageCommandBuilder struct {
	LoggerProvider LoggerProvider
	EngineProvider EngineProvider
}

// Build constructs the stage command.
func (builder *StageCommandBuilder) Build() (*cobra.Command, error) {
	return buildFileActionCommand(builder.LoggerProvider, builder.EngineProvider, stageCommandUseConstant, stageCommandShortDescription, func(executionContext context.Context, engine *fleet.Engine, repositoryID string, filePath string) fleet.OperationResult {
		return engine.StageFile(executionContext, repositoryID, filePath)
	})
}

// UnstageCommandBuilder assembles the unstage command.
type UnstageCommandBuilder struct {
	LoggerProvider LoggerProvider
	EngineProvider EngineProvider
}

// Build constructs the unstage command.
func (builder *UnstageCommandBuilder) Build() (*cobra.Command, error) {
	return buildFileActionCommand(builder.LoggerProvider, builder.EngineProvider, unstageCommandUseConstant, unstageCommandShortDescription, func(executionContext context.Context, engine *fleet.Engine, repositoryID string, filePath string) fleet.OperationResult {
		return engine.UnstageFile(executionContext, repositoryID, filePath)
	})
}

func buildRepositoryActionCommand(loggerProvider LoggerProvider, engineProvider EngineProvider, useLine string, shortDescription string, action func(context.Context, *fleet.Engine, string) fleet.OperationResult) (*cobra.Command, error) {
	if loggerProvider == nil || engineProvider == nil {
		return nil, ErrProvidersNotConfigured
	}

	command := &cobra.Command{
		Use:   useLine,
		Short: shortDescription,
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			engine, engineError := engineProvider()
			if engineError != nil {
				return engineError
			}
			repositoryID, resolutionError := resolveRepositoryIdentifier(engine.GetSnapshot(), arguments[0])
			if resolutionError != nil {
				return resolutionError
			}
			return emitOperationResult(command, action(command.Context(), engine, repositoryID))
		},
	}
	return command, nil
}

func buildFileActionCommand(loggerProvider LoggerProvider, engineProvider EngineProvider, useLine string, shortDescription string, action func(context.Context, *fleet.Engine, string, string) fleet.OperationResult) (*cobra.Command, error) {
	if loggerProvider == nil || engineProvider == nil {
		return nil, ErrProvidersNotConfigured
	}

	command := &cobra.Command{
		Use:   useLine,
		Short: shortDescription,
		Args:  cobra.ExactArgs(2),
		RunE: func(command *cobra.Command, arguments []string) error {
			engine, engineError := engineProvider()
			if engineError != nil {
				return engineError
			}
			repositoryID, resolutionError := resolveRepositoryIdentifier(engine.GetSnapshot(), arguments[0])
			if resolutionError != nil {
				return resolutionError
			}
			return emitOperationResult(command, action(command.Context(), engine, repositoryID, arguments[1]))
		},
	}
	return command, nil
}
