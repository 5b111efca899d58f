package environ

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/temirov/gitfleet/internal/execshell"
)

// NativeInvoker executes repository operations directly on the host.
type NativeInvoker struct {
	executor   CommandExecutor
	fileSystem FileSystem
}

// RunVersionControlCommand invokes git with the repository path as working directory.
func (invoker *NativeInvoker) RunVersionControlCommand(executionContext context.Context, repositoryPath string, arguments []string, timeout time.Duration) (execshell.Transcript, error) {
	commandDetails := execshell.CommandDetails{
		Arguments:            append([]string{}, arguments...),
		WorkingDirectory:     repositoryPath,
		EnvironmentVariables: nonInteractiveGitEnvironment(),
		Timeout:              timeout,
	}
	return invoker.executor.ExecuteGit(executionContext, commandDetails)
}

// ProbePathExists reports whether the path exists on the host filesystem.
func (invoker *NativeInvoker) ProbePathExists(executionContext context.Context, path string) (bool, error) {
	_, statError := invoker.fileSystem.Stat(path)
	if statError == nil {
		return true, nil
	}
	if errors.Is(statError, fs.ErrNotExist) {
		return false, nil
	}
	return false, statError
}

// DiscoverRepositories walks the root looking for repository marker directories.
//
// Descent stops at the marker itself, honors the depth bound, and skips any
// path containing an ignore token (case-insensitive).
func (invoker *NativeInvoker) DiscoverRepositories(executionContext context.Context, root string, ignoreTokens []string, maximumDepth int) ([]string, error) {
	cleanedRoot := filepath.Clean(root)
	rootDepth := strings.Count(cleanedRoot, string(os.PathSeparator))

	seenRepositories := make(map[string]struct{})
	var repositories []string

	walkError := filepath.WalkDir(cleanedRoot, func(path string, directoryEntry fs.DirEntry, entryError error) error {
		if contextError := executionContext.Err(); contextError != nil {
			return contextError
		}
		if entryError != nil {
			return nil
		}

		if pathContainsIgnoreToken(path, ignoreTokens) {
			if directoryEntry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if directoryEntry.Name() != repositoryMarkerDirectoryConstant {
			// The marker itself sits one level below its repository, so the
			// depth bound applies to every other directory.
			if directoryEntry.IsDir() && strings.Count(path, string(os.PathSeparator))-rootDepth > maximumDepth {
				return fs.SkipDir
			}
			return nil
		}

		repositoryPath := filepath.Dir(path)
		if _, alreadySeen := seenRepositories[repositoryPath]; !alreadySeen {
			seenRepositories[repositoryPath] = struct{}{}
			repositories = append(repositories, repositoryPath)
		}

		if directoryEntry.IsDir() {
			return fs.SkipDir
		}
		return nil
	})
	if walkError != nil {
		return nil, walkError
	}

	sort.Strings(repositories)
	return repositories, nil
}

func pathContainsIgnoreToken(path string, ignoreTokens []string) bool {
	loweredPath := strings.ToLower(path)
	for _, ignoreToken := range ignoreTokens {
		trimmedToken := strings.TrimSpace(ignoreToken)
		if len(trimmedToken) == 0 {
			continue
		}
		if strings.Contains(loweredPath, strings.ToLower(trimmedToken)) {
			return true
		}
	}
	return false
}
