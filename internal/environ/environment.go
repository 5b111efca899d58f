package environ

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	environmentKeyTemplateConstant  = "%s:%s"
	guestPathSeparatorConstant      = "/"
	nativeUNCPrefixTemplateConstant = `\\wsl$\%s%s`
	uncPathSeparatorConstant        = `\`
)

// EnvironmentKind distinguishes native host repositories from bridged guest repositories.
type EnvironmentKind string

// Supported environment kinds.
const (
	EnvironmentKindNative EnvironmentKind = "native"
	EnvironmentKindGuest  EnvironmentKind = "guest"
)

// Environment identifies where a repository lives. Immutable once a repository is registered.
type Environment struct {
	Kind            EnvironmentKind `yaml:"kind"`
	GuestIdentifier string          `yaml:"guest_identifier,omitempty"`
}

// NativeEnvironment returns the native host environment.
func NativeEnvironment() Environment {
	return Environment{Kind: EnvironmentKindNative}
}

// GuestEnvironment returns the environment of the named guest distribution.
func GuestEnvironment(guestIdentifier string) Environment {
	return Environment{Kind: EnvironmentKindGuest, GuestIdentifier: guestIdentifier}
}

// IsGuest reports whether the environment requires the guest bridge.
func (environment Environment) IsGuest() bool {
	return environment.Kind == EnvironmentKindGuest
}

// Key renders a stable identity component combining kind and guest identifier.
func (environment Environment) Key() string {
	return fmt.Sprintf(environmentKeyTemplateConstant, environment.Kind, environment.GuestIdentifier)
}

// NormalizeRepositoryPath canonicalizes an environment-relative repository location.
//
// Guest paths stay slash-separated because they name guest-filesystem
// locations regardless of the host platform.
func NormalizeRepositoryPath(environment Environment, repositoryPath string) string {
	trimmedPath := strings.TrimSpace(repositoryPath)
	if environment.IsGuest() {
		cleanedPath := filepath.ToSlash(filepath.Clean(trimmedPath))
		return strings.TrimSuffix(cleanedPath, guestPathSeparatorConstant)
	}
	return filepath.Clean(trimmedPath)
}

// RepositoryKey renders the unique catalog key for a repository location.
func RepositoryKey(environment Environment, repositoryPath string) string {
	return fmt.Sprintf(environmentKeyTemplateConstant, environment.Key(), NormalizeRepositoryPath(environment, repositoryPath))
}

// GuestPathToUNC maps a guest-filesystem path onto the host-visible UNC share.
func GuestPathToUNC(guestIdentifier string, guestPath string) string {
	normalizedPath := strings.ReplaceAll(filepath.ToSlash(guestPath), guestPathSeparatorConstant, uncPathSeparatorConstant)
	return fmt.Sprintf(nativeUNCPrefixTemplateConstant, guestIdentifier, normalizedPath)
}
