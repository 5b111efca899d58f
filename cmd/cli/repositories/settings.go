package repositories

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/temirov/gitfleet/internal/fleet"
	"github.com/temirov/gitfleet/internal/utils/flags"
	pathutils "github.com/temirov/gitfleet/internal/utils/path"
)

const (
	settingsCommandUseConstant        = "settings"
	settingsCommandShortDescription   = "Update the persisted engine settings"
	refreshFloorFlagNameConstant      = "refresh-floor"
	refreshFloorFlagUsageConstant     = "Minimum number of seconds between automatic refreshes."
	fetchFlagNameConstant             = "fetch"
	fetchFlagUsageConstant            = "Run git fetch before computing status during refreshes."
	scanDepthFlagNameConstant         = "scan-depth"
	scanDepthFlagUsageConstant        = "Maximum directory depth inspected while scanning roots."
	nativeRootFlagNameConstant        = "native-root"
	nativeRootFlagUsageConstant       = "Native discovery roots; repeat the flag for multiple roots."
	guestRootFlagNameConstant         = "guest-root"
	guestRootFlagUsageConstant        = "Guest discovery roots as <guest>:<path>; repeat for multiple roots."
	ignoreTokenFlagNameConstant       = "ignore-token"
	ignoreTokenFlagUsageConstant      = "Path substrings excluded from discovery; repeat for multiple tokens."
	editorTemplateFlagNameConstant    = "editor-template"
	editorTemplateFlagUsageConstant   = "Native editor command template containing {path}."
	terminalTemplateFlagNameConstant  = "terminal-template"
	terminalTemplateFlagUsageConstant = "Native terminal command template containing {path}."
	filesTemplateFlagNameConstant     = "files-template"
	filesTemplateFlagUsageConstant    = "Native file manager command template containing {path}."
	guestRootSeparatorConstant        = ":"
)

// SettingsCommandBuilder assembles the settings command.
type SettingsCommandBuilder struct {
	LoggerProvider LoggerProvider
	EngineProvider EngineProvider
}

// Build constructs the settings command. Only flags provided on the command
// line replace the corresponding persisted values.
func (builder *SettingsCommandBuilder) Build() (*cobra.Command, error) {
	if builder.LoggerProvider == nil || builder.EngineProvider == nil {
		return nil, ErrProvidersNotConfigured
	}

	var refreshFloorFlagValue int
	var fetchFlagValue bool
	var scanDepthFlagValue int
	var nativeRootsFlagValue []string
	var guestRootsFlagValue []string
	var ignoreTokensFlagValue []string
	var editorTemplateFlagValue string
	var terminalTemplateFlagValue string
	var filesTemplateFlagValue string

	command := &cobra.Command{
		Use:   settingsCommandUseConstant,
		Short: settingsCommandShortDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			engine, engineError := builder.EngineProvider()
			if engineError != nil {
				return engineError
			}

			updatedSettings := engine.GetSnapshot().Settings
			commandFlags := command.Flags()
			if commandFlags.Changed(refreshFloorFlagNameConstant) {
				updatedSettings.RefreshIntervalFloorSeconds = refreshFloorFlagValue
			}
			if commandFlags.Changed(fetchFlagNameConstant) {
				updatedSettings.FetchDuringRefresh = fetchFlagValue
			}
			if commandFlags.Changed(scanDepthFlagNameConstant) {
				updatedSettings.ScanDepthLimit = scanDepthFlagValue
			}
			if commandFlags.Changed(nativeRootFlagNameConstant) {
				rootSanitizer := pathutils.NewRepositoryPathSanitizerWithConfiguration(nil, pathutils.RepositoryPathSanitizerConfiguration{
					ExcludeBooleanLiteralCandidates: true,
					PruneNestedPaths:                true,
				})
				updatedSettings.NativeRoots = rootSanitizer.Sanitize(nativeRootsFlagValue)
			}
			if commandFlags.Changed(guestRootFlagNameConstant) {
				updatedSettings.GuestRoots = parseGuestRoots(guestRootsFlagValue)
			}
			if commandFlags.Changed(ignoreTokenFlagNameConstant) {
				updatedSettings.IgnoreTokens = ignoreTokensFlagValue
			}
			if commandFlags.Changed(editorTemplateFlagNameConstant) {
				updatedSettings.EditorTemplateNative = editorTemplateFlagValue
			}
			if commandFlags.Changed(terminalTemplateFlagNameConstant) {
				updatedSettings.TerminalTemplateNative = terminalTemplateFlagValue
			}
			if commandFlags.Changed(filesTemplateFlagNameConstant) {
				updatedSettings.FileManagerTemplateNative = filesTemplateFlagValue
			}

			return emitOperationResult(command, engine.UpdateSettings(command.Context(), updatedSettings))
		},
	}

	commandFlags := command.Flags()
	commandFlags.IntVar(&refreshFloorFlagValue, refreshFloorFlagNameConstant, 0, refreshFloorFlagUsageConstant)
	flags.AddToggleFlag(commandFlags, &fetchFlagValue, fetchFlagNameConstant, "", false, fetchFlagUsageConstant)
	commandFlags.IntVar(&scanDepthFlagValue, scanDepthFlagNameConstant, 0, scanDepthFlagUsageConstant)
	commandFlags.StringArrayVar(&nativeRootsFlagValue, nativeRootFlagNameConstant, nil, nativeRootFlagUsageConstant)
	commandFlags.StringArrayVar(&guestRootsFlagValue, guestRootFlagNameConstant, nil, guestRootFlagUsageConstant)
	commandFlags.StringArrayVar(&ignoreTokensFlagValue, ignoreTokenFlagNameConstant, nil, ignoreTokenFlagUsageConstant)
	commandFlags.StringVar(&editorTemplateFlagValue, editorTemplateFlagNameConstant, "", editorTemplateFlagUsageConstant)
	commandFlags.StringVar(&terminalTemplateFlagValue, terminalTemplateFlagNameConstant, "", terminalTemplateFlagUsageConstant)
	commandFlags.StringVar(&filesTemplateFlagValue, filesTemplateFlagNameConstant, "", filesTemplateFlagUsageConstant)
	return command, nil
}

// parseGuestRoots splits <guest>:<path> entries; entries without a separator
// are skipped.
func parseGuestRoots(rawGuestRoots []string) []fleet.GuestRoot {
	guestRoots := make([]fleet.GuestRoot, 0, len(rawGuestRoots))
	for _, rawGuestRoot := range rawGuestRoots {
		separatorIndex := strings.Index(rawGuestRoot, guestRootSeparatorConstant)
		if separatorIndex <= 0 {
			continue
		}
		guestRoots = append(guestRoots, fleet.GuestRoot{
			GuestIdentifier: rawGuestRoot[:separatorIndex],
			Path:            rawGuestRoot[separatorIndex+1:],
		})
	}
	return guestRoots
}
