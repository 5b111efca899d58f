package repositories_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/gitfleet/cmd/cli/repositories"
	"github.com/temirov/gitfleet/internal/environ"
	"github.com/temirov/gitfleet/internal/execshell"
	"github.com/temirov/gitfleet/internal/fleet"
)

type stubStateStore struct {
	initialState fleet.PersistedState
}

func (stateStore *stubStateStore) Load() fleet.PersistedState {
	return stateStore.initialState
}

func (stateStore *stubStateStore) Save(state fleet.PersistedState) error {
	return nil
}

type stubInvoker struct{}

func (stubInvoker) RunVersionControlCommand(executionContext context.Context, repositoryPath string, arguments []string, timeout time.Duration) (execshell.Transcript, error) {
	successCode := 0
	return execshell.Transcript{CommandLine: "git " + strings.Join(arguments, " "), ExitCode: &successCode, Stdout: "## main...origin/main\n"}, nil
}

func (stubInvoker) ProbePathExists(executionContext context.Context, path string) (bool, error) {
	return !strings.Contains(path, "/.git/"), nil
}

func (stubInvoker) DiscoverRepositories(executionContext context.Context, root string, ignoreTokens []string, maximumDepth int) ([]string, error) {
	return nil, nil
}

type stubInvokerProvider struct{}

func (stubInvokerProvider) InvokerFor(environment environ.Environment) environ.EnvironmentInvoker {
	return stubInvoker{}
}

type stubLauncher struct{}

func (stubLauncher) LaunchNative(commandTemplate string, targetPath string) error {
	return nil
}

func (stubLauncher) LaunchInGuest(guestIdentifier string, commandTemplate string, targetPath string) error {
	return nil
}

func newCommandTestEngine(testInstance *testing.T) *fleet.Engine {
	initialState := fleet.PersistedState{
		Settings: fleet.DefaultSettings(),
		Repositories: []fleet.RepositoryRecord{
			{ID: "repo-alpha", DisplayName: "alpha", Location: "/workspace/alpha", Environment: environ.NativeEnvironment()},
		},
	}
	engine, creationError := fleet.NewEngine(zap.NewNop(), &stubStateStore{initialState: initialState}, stubInvokerProvider{}, stubLauncher{})
	require.NoError(testInstance, creationError)
	return engine
}

func buildCommandSet(testInstance *testing.T, engine *fleet.Engine) map[string]*cobra.Command {
	builder := repositories.CommandGroupBuilder{
		LoggerProvider: func() *zap.Logger { return zap.NewNop() },
		EngineProvider: func() (*fleet.Engine, error) { return engine, nil },
	}
	commands, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	commandsByName := map[string]*cobra.Command{}
	for _, command := range commands {
		commandsByName[command.Name()] = command
	}
	return commandsByName
}

func TestCommandGroupBuilderRequiresProviders(testInstance *testing.T) {
	builder := repositories.CommandGroupBuilder{}
	_, buildError := builder.Build()
	require.ErrorIs(testInstance, buildError, repositories.ErrProvidersNotConfigured)
}

func TestCommandGroupBuildsExpectedCommandSet(testInstance *testing.T) {
	commandsByName := buildCommandSet(testInstance, newCommandTestEngine(testInstance))

	expectedCommandNames := []string{
		"list", "refresh", "scan", "add", "remove",
		"commit", "push", "sync", "stage", "unstage",
		"open", "cancel", "settings",
	}
	for _, commandName := range expectedCommandNames {
		require.Contains(testInstance, commandsByName, commandName)
	}
}

func TestListCommandPrintsCatalog(testInstance *testing.T) {
	commandsByName := buildCommandSet(testInstance, newCommandTestEngine(testInstance))
	listCommand := commandsByName["list"]

	outputBuilder := &strings.Builder{}
	listCommand.SetOut(outputBuilder)
	listCommand.SetContext(context.Background())

	require.NoError(testInstance, listCommand.RunE(listCommand, nil))
	require.Contains(testInstance, outputBuilder.String(), "alpha")
}

func TestRefreshCommandAcceptsDisplayName(testInstance *testing.T) {
	commandsByName := buildCommandSet(testInstance, newCommandTestEngine(testInstance))
	refreshCommand := commandsByName["refresh"]

	outputBuilder := &strings.Builder{}
	refreshCommand.SetOut(outputBuilder)
	refreshCommand.SetContext(context.Background())

	require.NoError(testInstance, refreshCommand.RunE(refreshCommand, []string{"alpha"}))
	require.Contains(testInstance, outputBuilder.String(), "refreshed alpha")
}

func TestSettingsCommandAppliesOnlyChangedFlags(testInstance *testing.T) {
	engine := newCommandTestEngine(testInstance)
	commandsByName := buildCommandSet(testInstance, engine)
	settingsCommand := commandsByName["settings"]

	outputBuilder := &strings.Builder{}
	settingsCommand.SetOut(outputBuilder)
	settingsCommand.SetContext(context.Background())

	require.NoError(testInstance, settingsCommand.Flags().Set("scan-depth", "2"))
	require.NoError(testInstance, settingsCommand.RunE(settingsCommand, nil))
	require.Contains(testInstance, outputBuilder.String(), "settings updated")

	updatedSettings := engine.GetSnapshot().Settings
	require.Equal(testInstance, 2, updatedSettings.ScanDepthLimit)
	require.Equal(testInstance, fleet.DefaultSettings().RefreshIntervalFloorSeconds, updatedSettings.RefreshIntervalFloorSeconds)
}

func TestSettingsCommandPrunesNestedNativeRoots(testInstance *testing.T) {
	engine := newCommandTestEngine(testInstance)
	commandsByName := buildCommandSet(testInstance, engine)
	settingsCommand := commandsByName["settings"]

	outputBuilder := &strings.Builder{}
	settingsCommand.SetOut(outputBuilder)
	settingsCommand.SetContext(context.Background())

	require.NoError(testInstance, settingsCommand.Flags().Set("native-root", "/workspace"))
	require.NoError(testInstance, settingsCommand.Flags().Set("native-root", "/workspace/nested"))
	require.NoError(testInstance, settingsCommand.RunE(settingsCommand, nil))

	require.Equal(testInstance, []string{"/workspace"}, engine.GetSnapshot().Settings.NativeRoots)
}

func TestSettingsCommandRejectsRefreshFloorBelowMinimum(testInstance *testing.T) {
	commandsByName := buildCommandSet(testInstance, newCommandTestEngine(testInstance))
	settingsCommand := commandsByName["settings"]

	outputBuilder := &strings.Builder{}
	settingsCommand.SetOut(outputBuilder)
	settingsCommand.SetContext(context.Background())

	require.NoError(testInstance, settingsCommand.Flags().Set("refresh-floor", "2"))
	settingsError := settingsCommand.RunE(settingsCommand, nil)
	require.Error(testInstance, settingsError)
	require.Contains(testInstance, settingsError.Error(), "at least")
}

func TestCommitCommandSurfacesValidationFailure(testInstance *testing.T) {
	commandsByName := buildCommandSet(testInstance, newCommandTestEngine(testInstance))
	commitCommand := commandsByName["commit"]

	outputBuilder := &strings.Builder{}
	commitCommand.SetOut(outputBuilder)
	commitCommand.SetContext(context.Background())

	commitError := commitCommand.RunE(commitCommand, []string{"alpha"})
	require.Error(testInstance, commitError)
	require.Contains(testInstance, commitError.Error(), "commit message")
}
