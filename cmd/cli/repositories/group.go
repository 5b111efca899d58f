package repositories

import "github.com/spf13/cobra"

// CommandGroupBuilder assembles every repository command for the root command.
type CommandGroupBuilder struct {
	LoggerProvider LoggerProvider
	EngineProvider EngineProvider
}

// Build constructs the repository command set.
func (builder *CommandGroupBuilder) Build() ([]*cobra.Command, error) {
	if builder.LoggerProvider == nil || builder.EngineProvider == nil {
		return nil, ErrProvidersNotConfigured
	}

	commandBuilders := []func() (*cobra.Command, error){
		(&ListCommandBuilder{LoggerProvider: builder.LoggerProvider, EngineProvider: builder.EngineProvider}).Build,
		(&RefreshCommandBuilder{LoggerProvider: builder.LoggerProvider, EngineProvider: builder.EngineProvider}).Build,
		(&ScanCommandBuilder{LoggerProvider: builder.LoggerProvider, EngineProvider: builder.EngineProvider}).Build,
		(&AddCommandBuilder{LoggerProvider: builder.LoggerProvider, EngineProvider: builder.EngineProvider}).Build,
		(&RemoveCommandBuilder{LoggerProvider: builder.LoggerProvider, EngineProvider: builder.EngineProvider}).Build,
		(&CommitCommandBuilder{LoggerProvider: builder.LoggerProvider, EngineProvider: builder.EngineProvider}).Build,
		(&PushCommandBuilder{LoggerProvider: builder.LoggerProvider, EngineProvider: builder.EngineProvider}).Build,
		(&SyncCommandBuilder{LoggerProvider: builder.LoggerProvider, EngineProvider: builder.EngineProvider}).Build,
		(&StageCommandBuilder{LoggerProvider: builder.LoggerProvider, EngineProvider: builder.EngineProvider}).Build,
		(&UnstageCommandBuilder{LoggerProvider: builder.LoggerProvider, EngineProvider: builder.EngineProvider}).Build,
		(&OpenCommandBuilder{LoggerProvider: builder.LoggerProvider, EngineProvider: builder.EngineProvider}).Build,
		(&CancelCommandBuilder{LoggerProvider: builder.LoggerProvider, EngineProvider: builder.EngineProvider}).Build,
		(&SettingsCommandBuilder{LoggerProvider: builder.LoggerProvider, EngineProvider: builder.EngineProvider}).Build,
	}

	commands := make([]*cobra.Command, 0, len(commandBuilders))
	for _, buildCommand := range commandBuilders {
		command, buildError := buildCommand()
		if buildError != nil {
			return nil, buildError
		}
		commands = append(commands, command)
	}
	return commands, nil
}
