package environ_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/gitfleet/internal/environ"
)

func TestEnvironmentKeys(testInstance *testing.T) {
	testCases := []struct {
		name        string
		environment environ.Environment
		expectedKey string
	}{
		{name: "native", environment: environ.NativeEnvironment(), expectedKey: "native:"},
		{name: "guest", environment: environ.GuestEnvironment("ubuntu"), expectedKey: "guest:ubuntu"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedKey, testCase.environment.Key())
		})
	}
}

func TestRepositoryKeyNormalizesLocation(testInstance *testing.T) {
	testCases := []struct {
		name        string
		environment environ.Environment
		path        string
		expectedKey string
	}{
		{
			name:        "guest_trailing_slash",
			environment: environ.GuestEnvironment("ubuntu"),
			path:        "/home/dev/project/",
			expectedKey: "guest:ubuntu:/home/dev/project",
		},
		{
			name:        "guest_redundant_segments",
			environment: environ.GuestEnvironment("ubuntu"),
			path:        "/home/dev/../dev/project",
			expectedKey: "guest:ubuntu:/home/dev/project",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedKey, environ.RepositoryKey(testCase.environment, testCase.path))
		})
	}
}

func TestQuoteForPOSIXShell(testInstance *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain_value", input: "/home/dev/project", expected: "'/home/dev/project'"},
		{name: "embedded_space", input: "/home/dev/my project", expected: "'/home/dev/my project'"},
		{name: "embedded_quote", input: "it's here", expected: `'it'\''s here'`},
		{name: "hostile_content", input: "$(rm -rf /)", expected: "'$(rm -rf /)'"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expected, environ.QuoteForPOSIXShell(testCase.input))
		})
	}
}

func TestGuestPathToUNC(testInstance *testing.T) {
	require.Equal(testInstance, `\\wsl$\ubuntu\home\dev\project`, environ.GuestPathToUNC("ubuntu", "/home/dev/project"))
}
