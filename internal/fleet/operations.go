package fleet

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/temirov/gitfleet/internal/environ"
	"github.com/temirov/gitfleet/internal/execshell"
	"github.com/temirov/gitfleet/internal/status"
)

const (
	refreshOperationNameConstant = "refresh"
	stageOperationNameConstant   = "stage"
	unstageOperationNameConstant = "unstage"
	commitOperationNameConstant  = "commit"
	pushOperationNameConstant    = "push"
	syncOperationNameConstant    = "sync"
)

const (
	statusCommandTimeoutConstant   = 30 * time.Second
	fetchCommandTimeoutConstant    = 60 * time.Second
	verifyCommandTimeoutConstant   = 5 * time.Second
	fileCommandTimeoutConstant     = 30 * time.Second
	commitCommandTimeoutConstant   = 60 * time.Second
	pushCommandTimeoutConstant     = 120 * time.Second
	syncStepTimeoutConstant        = 120 * time.Second
	refreshQueueTimeoutConstant    = 2 * time.Minute
	mutationQueueTimeoutConstant   = 5 * time.Minute
	syncQueueTimeoutConstant       = 10 * time.Minute
	refreshAllSingleflightConstant = "refresh_all"
)

const (
	unknownBranchLabelConstant         = "unknown"
	repositoryMarkerDirectoryConstant  = ".git"
	mergeHeadMarkerFileConstant        = "MERGE_HEAD"
	rebaseMergeMarkerDirectoryConstant = "rebase-merge"
	rebaseApplyMarkerDirectoryConstant = "rebase-apply"
	workingTreeVerificationConstant    = "true"
	guestDisplayNameSeparatorConstant  = "@"
)

const (
	repositoryNotFoundTemplateConstant        = "repository %s is not registered"
	repositoryPathEmptyMessageConstant        = "repository path must not be empty"
	filePathEmptyMessageConstant              = "file path must not be empty"
	commitMessageBlankMessageConstant         = "commit message must not be blank"
	nothingToCommitTemplateConstant           = "nothing to commit in %s"
	notWorkingTreeTemplateConstant            = "%s is not inside a git working tree"
	templatePlaceholderTemplateConstant       = "%s template %q is missing the %s placeholder"
	programTemplateMissingTemplateConstant    = "no %s template configured for %s"
	refreshedRepositoryTemplateConstant       = "refreshed %s"
	refreshedCatalogTemplateConstant          = "refreshed %d repositories, pruned %d"
	registeredRepositoryTemplateConstant      = "registered %s"
	alreadyRegisteredTemplateConstant         = "%s is already registered"
	removedRepositoryTemplateConstant         = "removed %s"
	stagedFileTemplateConstant                = "staged %s in %s"
	unstagedFileTemplateConstant              = "unstaged %s in %s"
	committedTemplateConstant                 = "committed changes in %s"
	pushedTemplateConstant                    = "pushed %s"
	syncedTemplateConstant                    = "synchronized %s"
	scanCompletedTemplateConstant             = "scan registered %d new repositories"
	cancellationRequestedTemplateConstant     = "cancellation requested for %s"
	settingsUpdatedMessageConstant            = "settings updated"
	launchedProgramTemplateConstant           = "opened %s for %s"
	discoveryFailedMessageConstant            = "repository discovery failed for root"
	discoveryRootLogFieldNameConstant         = "root"
	editorProgramLabelConstant                = "editor"
	fileManagerProgramLabelConstant           = "file manager"
	terminalProgramLabelConstant              = "terminal"
	refreshIntervalFloorSettingLabelConstant  = "refresh interval floor"
	invalidRefreshFloorTemplateConstant       = "%s must be at least %d seconds"
	invalidScanDepthMessageConstant           = "scan depth limit must be at least 1"
)

var statusCommandArguments = []string{"status", "--porcelain", "--branch"}

var fetchCommandArguments = []string{"fetch", "--all", "--prune"}

func (engine *Engine) successResult(messageTemplate string, templateArguments ...any) OperationResult {
	return OperationResult{OK: true, Message: fmt.Sprintf(messageTemplate, templateArguments...), Snapshot: engine.GetSnapshot()}
}

func (engine *Engine) failureResult(operationError error) OperationResult {
	failureKind, failureTranscript := classifyFailure(operationError)
	return OperationResult{OK: false, Message: operationError.Error(), FailureKind: failureKind, Transcript: failureTranscript, Snapshot: engine.GetSnapshot()}
}

// RefreshRepository recomputes the status summary of one repository.
//
// A failing status command is a valid degraded outcome: the repository is
// marked inaccessible and the call still settles OK.
func (engine *Engine) RefreshRepository(executionContext context.Context, repositoryID string) OperationResult {
	if contextError := executionContext.Err(); contextError != nil {
		return engine.failureResult(contextError)
	}

	displayName, lookupError := engine.repositoryDisplayName(repositoryID)
	if lookupError != nil {
		return engine.failureResult(lookupError)
	}

	enqueueError := engine.operationQueue.Enqueue(repositoryID, refreshOperationNameConstant, refreshQueueTimeoutConstant, func(taskContext context.Context) error {
		return engine.performRefresh(taskContext, repositoryID)
	})
	if enqueueError != nil {
		return engine.failureResult(enqueueError)
	}
	return engine.successResult(refreshedRepositoryTemplateConstant, displayName)
}

func (engine *Engine) repositoryDisplayName(repositoryID string) (string, error) {
	engine.mutex.Lock()
	defer engine.mutex.Unlock()
	record := engine.findRepositoryLocked(repositoryID)
	if record == nil {
		return "", newValidationError(repositoryNotFoundTemplateConstant, repositoryID)
	}
	return record.DisplayName, nil
}

func (engine *Engine) performRefresh(taskContext context.Context, repositoryID string) error {
	engine.mutex.Lock()
	record := engine.findRepositoryLocked(repositoryID)
	if record == nil {
		engine.mutex.Unlock()
		return newValidationError(repositoryNotFoundTemplateConstant, repositoryID)
	}
	repositoryLocation := record.Location
	repositoryEnvironment := record.Environment
	fetchEnabled := engine.settings.FetchDuringRefresh
	engine.mutex.Unlock()

	invoker := engine.invokerProvider.InvokerFor(repositoryEnvironment)

	fetchFailed := false
	fetchFailureMessage := ""
	var fetchFailureTranscript *execshell.Transcript
	if fetchEnabled {
		fetchTranscript, fetchError := invoker.RunVersionControlCommand(taskContext, repositoryLocation, fetchCommandArguments, fetchCommandTimeoutConstant)
		engine.mutex.Lock()
		engine.recordTranscriptLocked(record, fetchTranscript)
		engine.mutex.Unlock()
		if fetchError != nil {
			fetchFailed = true
			fetchFailureMessage = fetchError.Error()
			transcriptCopy := fetchTranscript
			fetchFailureTranscript = &transcriptCopy
		}
	}

	statusTranscript, statusError := invoker.RunVersionControlCommand(taskContext, repositoryLocation, statusCommandArguments, statusCommandTimeoutConstant)
	engine.mutex.Lock()
	engine.recordTranscriptLocked(record, statusTranscript)
	engine.mutex.Unlock()

	if statusError != nil {
		degradedSummary := status.Summary{
			NeedsAttention: true,
			Inaccessible:   true,
			Branch:         unknownBranchLabelConstant,
			RefreshedAt:    engine.clock.Now(),
		}
		transcriptCopy := statusTranscript
		engine.mutex.Lock()
		record.Status = &degradedSummary
		record.LastErrorMessage = statusError.Error()
		record.FailureTranscript = &transcriptCopy
		record.UpdatedAt = engine.clock.Now()
		engine.persistLocked()
		engine.mutex.Unlock()
		return nil
	}

	summary := status.Parse(statusTranscript.Stdout)
	summary.MergeInProgress = engine.probeStateMarker(taskContext, invoker, repositoryEnvironment, repositoryLocation, mergeHeadMarkerFileConstant)
	summary.RebaseInProgress = engine.probeStateMarker(taskContext, invoker, repositoryEnvironment, repositoryLocation, rebaseMergeMarkerDirectoryConstant) ||
		engine.probeStateMarker(taskContext, invoker, repositoryEnvironment, repositoryLocation, rebaseApplyMarkerDirectoryConstant)
	summary.NeedsAttention = status.ComputeNeedsAttention(summary, fetchFailed)
	summary.RefreshedAt = engine.clock.Now()

	engine.mutex.Lock()
	record.Status = &summary
	if fetchFailed {
		record.LastErrorMessage = fetchFailureMessage
		record.FailureTranscript = fetchFailureTranscript
	} else {
		record.LastErrorMessage = ""
		record.FailureTranscript = nil
	}
	record.UpdatedAt = engine.clock.Now()
	engine.persistLocked()
	engine.mutex.Unlock()
	return nil
}

// probeStateMarker checks one entry under the repository's .git directory.
// Probe failures read as absence so a flaky bridge never blocks a refresh.
func (engine *Engine) probeStateMarker(taskContext context.Context, invoker environ.EnvironmentInvoker, repositoryEnvironment environ.Environment, repositoryLocation string, markerName string) bool {
	markerPath := filepath.Join(repositoryLocation, repositoryMarkerDirectoryConstant, markerName)
	if repositoryEnvironment.IsGuest() {
		markerPath = repositoryLocation + "/" + repositoryMarkerDirectoryConstant + "/" + markerName
	}
	markerExists, probeError := invoker.ProbePathExists(taskContext, markerPath)
	if probeError != nil {
		return false
	}
	return markerExists
}

type refreshAllOutcome struct {
	prunedCount    int
	refreshedCount int
}

// RefreshAll prunes repositories whose locations disappeared, then refreshes
// every remaining repository. Concurrent calls share one pass.
func (engine *Engine) RefreshAll(executionContext context.Context) OperationResult {
	outcomeValue, _, _ := engine.refreshAllGroup.Do(refreshAllSingleflightConstant, func() (any, error) {
		prunedCount := engine.pruneMissingRepositories(executionContext)

		engine.mutex.Lock()
		repositoryIdentifiers := make([]string, 0, len(engine.repositories))
		for _, record := range engine.repositories {
			repositoryIdentifiers = append(repositoryIdentifiers, record.ID)
		}
		engine.mutex.Unlock()

		refreshedCount := 0
		for _, repositoryID := range repositoryIdentifiers {
			capturedID := repositoryID
			refreshError := engine.operationQueue.Enqueue(capturedID, refreshOperationNameConstant, refreshQueueTimeoutConstant, func(taskContext context.Context) error {
				return engine.performRefresh(taskContext, capturedID)
			})
			if refreshError == nil {
				refreshedCount++
			}
		}
		return refreshAllOutcome{prunedCount: prunedCount, refreshedCount: refreshedCount}, nil
	})

	outcome := outcomeValue.(refreshAllOutcome)
	return engine.successResult(refreshedCatalogTemplateConstant, outcome.refreshedCount, outcome.prunedCount)
}

func (engine *Engine) pruneMissingRepositories(executionContext context.Context) int {
	engine.mutex.Lock()
	candidates := make([]*RepositoryRecord, len(engine.repositories))
	copy(candidates, engine.repositories)
	engine.mutex.Unlock()

	missingIdentifiers := map[string]bool{}
	for _, record := range candidates {
		invoker := engine.invokerProvider.InvokerFor(record.Environment)
		locationExists, probeError := invoker.ProbePathExists(executionContext, record.Location)
		if probeError == nil && !locationExists {
			missingIdentifiers[record.ID] = true
		}
	}
	if len(missingIdentifiers) == 0 {
		return 0
	}

	engine.mutex.Lock()
	defer engine.mutex.Unlock()
	retained := engine.repositories[:0]
	prunedCount := 0
	for _, record := range engine.repositories {
		if missingIdentifiers[record.ID] {
			prunedCount++
			continue
		}
		retained = append(retained, record)
	}
	engine.repositories = retained
	if prunedCount > 0 {
		engine.persistLocked()
	}
	return prunedCount
}

// AddRepositoryInput names the location a caller wants registered.
type AddRepositoryInput struct {
	Environment environ.Environment
	Path        string
	DisplayName string
}

// AddRepository verifies the location is a git working tree and registers it.
// Registration is idempotent on the repository key.
func (engine *Engine) AddRepository(executionContext context.Context, input AddRepositoryInput) OperationResult {
	if len(strings.TrimSpace(input.Path)) == 0 {
		return engine.failureResult(newValidationError(repositoryPathEmptyMessageConstant))
	}

	normalizedPath := environ.NormalizeRepositoryPath(input.Environment, input.Path)
	repositoryKey := environ.RepositoryKey(input.Environment, input.Path)

	engine.mutex.Lock()
	existingRecord := engine.findRepositoryByKeyLocked(repositoryKey)
	engine.mutex.Unlock()
	if existingRecord != nil {
		return engine.successResult(alreadyRegisteredTemplateConstant, existingRecord.DisplayName)
	}

	invoker := engine.invokerProvider.InvokerFor(input.Environment)
	verificationTranscript, verificationError := invoker.RunVersionControlCommand(executionContext, normalizedPath, []string{"rev-parse", "--is-inside-work-tree"}, verifyCommandTimeoutConstant)
	if verificationError != nil {
		return engine.failureResult(verificationError)
	}
	if strings.TrimSpace(verificationTranscript.Stdout) != workingTreeVerificationConstant {
		return engine.failureResult(newValidationError(notWorkingTreeTemplateConstant, normalizedPath))
	}

	registeredName := engine.registerRepository(input.Environment, normalizedPath, input.DisplayName)
	return engine.successResult(registeredRepositoryTemplateConstant, registeredName)
}

// registerRepository inserts a record unless the key is already present and
// returns the display name of the record that owns the key afterwards.
func (engine *Engine) registerRepository(repositoryEnvironment environ.Environment, normalizedPath string, requestedDisplayName string) string {
	engine.mutex.Lock()
	defer engine.mutex.Unlock()

	repositoryKey := environ.RepositoryKey(repositoryEnvironment, normalizedPath)
	if existingRecord := engine.findRepositoryByKeyLocked(repositoryKey); existingRecord != nil {
		return existingRecord.DisplayName
	}

	displayName := strings.TrimSpace(requestedDisplayName)
	if len(displayName) == 0 {
		displayName = deriveDisplayName(repositoryEnvironment, normalizedPath)
	}

	creationInstant := engine.clock.Now()
	record := &RepositoryRecord{
		ID:          uuid.NewString(),
		DisplayName: displayName,
		Location:    normalizedPath,
		Environment: repositoryEnvironment,
		CreatedAt:   creationInstant,
		UpdatedAt:   creationInstant,
	}
	engine.repositories = append(engine.repositories, record)
	engine.persistLocked()
	return displayName
}

func deriveDisplayName(repositoryEnvironment environ.Environment, normalizedPath string) string {
	if repositoryEnvironment.IsGuest() {
		return path.Base(normalizedPath) + guestDisplayNameSeparatorConstant + repositoryEnvironment.GuestIdentifier
	}
	return filepath.Base(normalizedPath)
}

// RemoveRepository deletes the repository record from the catalog.
func (engine *Engine) RemoveRepository(executionContext context.Context, repositoryID string) OperationResult {
	engine.mutex.Lock()
	removalIndex := -1
	removedDisplayName := ""
	for recordIndex, record := range engine.repositories {
		if record.ID == repositoryID {
			removalIndex = recordIndex
			removedDisplayName = record.DisplayName
			break
		}
	}
	if removalIndex < 0 {
		engine.mutex.Unlock()
		return engine.failureResult(newValidationError(repositoryNotFoundTemplateConstant, repositoryID))
	}
	engine.repositories = append(engine.repositories[:removalIndex], engine.repositories[removalIndex+1:]...)
	engine.persistLocked()
	engine.mutex.Unlock()

	engine.operationQueue.CancelRepository(repositoryID)
	return engine.successResult(removedRepositoryTemplateConstant, removedDisplayName)
}

// StageFile stages one file and refreshes the repository status.
func (engine *Engine) StageFile(executionContext context.Context, repositoryID string, filePath string) OperationResult {
	return engine.runFileOperation(executionContext, repositoryID, stageOperationNameConstant, []string{"add", "--", filePath}, filePath, stagedFileTemplateConstant)
}

// UnstageFile unstages one file and refreshes the repository status.
func (engine *Engine) UnstageFile(executionContext context.Context, repositoryID string, filePath string) OperationResult {
	return engine.runFileOperation(executionContext, repositoryID, unstageOperationNameConstant, []string{"reset", "--", filePath}, filePath, unstagedFileTemplateConstant)
}

func (engine *Engine) runFileOperation(executionContext context.Context, repositoryID string, operationName string, commandArguments []string, filePath string, successTemplate string) OperationResult {
	if len(strings.TrimSpace(filePath)) == 0 {
		return engine.failureResult(newValidationError(filePathEmptyMessageConstant))
	}
	displayName, lookupError := engine.repositoryDisplayName(repositoryID)
	if lookupError != nil {
		return engine.failureResult(lookupError)
	}

	enqueueError := engine.operationQueue.Enqueue(repositoryID, operationName, mutationQueueTimeoutConstant, func(taskContext context.Context) error {
		commandError := engine.runRecordedCommand(taskContext, repositoryID, commandArguments, fileCommandTimeoutConstant)
		if commandError != nil {
			return commandError
		}
		return engine.performRefresh(taskContext, repositoryID)
	})
	if enqueueError != nil {
		return engine.failureResult(enqueueError)
	}
	return engine.successResult(successTemplate, filePath, displayName)
}

// runRecordedCommand runs one git command in the repository's environment and
// appends the transcript to the repository history. Failures also update the
// last error fields.
func (engine *Engine) runRecordedCommand(taskContext context.Context, repositoryID string, commandArguments []string, timeout time.Duration) error {
	engine.mutex.Lock()
	record := engine.findRepositoryLocked(repositoryID)
	if record == nil {
		engine.mutex.Unlock()
		return newValidationError(repositoryNotFoundTemplateConstant, repositoryID)
	}
	repositoryLocation := record.Location
	repositoryEnvironment := record.Environment
	engine.mutex.Unlock()

	invoker := engine.invokerProvider.InvokerFor(repositoryEnvironment)
	commandTranscript, commandError := invoker.RunVersionControlCommand(taskContext, repositoryLocation, commandArguments, timeout)

	engine.mutex.Lock()
	engine.recordTranscriptLocked(record, commandTranscript)
	if commandError != nil {
		transcriptCopy := commandTranscript
		record.LastErrorMessage = commandError.Error()
		record.FailureTranscript = &transcriptCopy
	} else {
		record.LastErrorMessage = ""
		record.FailureTranscript = nil
	}
	record.UpdatedAt = engine.clock.Now()
	engine.persistLocked()
	engine.mutex.Unlock()

	return commandError
}

// CommitRepository commits the working tree with the provided message.
//
// A blank message is rejected before any process spawns. When nothing is
// staged yet the whole working tree is staged first.
func (engine *Engine) CommitRepository(executionContext context.Context, repositoryID string, commitMessage string) OperationResult {
	if len(strings.TrimSpace(commitMessage)) == 0 {
		return engine.failureResult(newValidationError(commitMessageBlankMessageConstant))
	}
	displayName, lookupError := engine.repositoryDisplayName(repositoryID)
	if lookupError != nil {
		return engine.failureResult(lookupError)
	}

	enqueueError := engine.operationQueue.Enqueue(repositoryID, commitOperationNameConstant, mutationQueueTimeoutConstant, func(taskContext context.Context) error {
		repositoryLocation, repositoryEnvironment, resolveError := engine.repositoryLocation(repositoryID)
		if resolveError != nil {
			return resolveError
		}
		invoker := engine.invokerProvider.InvokerFor(repositoryEnvironment)

		statusTranscript, statusError := invoker.RunVersionControlCommand(taskContext, repositoryLocation, statusCommandArguments, statusCommandTimeoutConstant)
		engine.appendTranscript(repositoryID, statusTranscript)
		if statusError != nil {
			engine.recordFailure(repositoryID, statusError, statusTranscript)
			return statusError
		}

		summary := status.Parse(statusTranscript.Stdout)
		if !summary.Dirty {
			return newValidationError(nothingToCommitTemplateConstant, displayName)
		}
		if summary.StagedCount == 0 {
			stageError := engine.runRecordedCommand(taskContext, repositoryID, []string{"add", "-A"}, fileCommandTimeoutConstant)
			if stageError != nil {
				return stageError
			}
		}

		commitError := engine.runRecordedCommand(taskContext, repositoryID, []string{"commit", "-m", commitMessage}, commitCommandTimeoutConstant)
		if commitError != nil {
			return commitError
		}
		return engine.performRefresh(taskContext, repositoryID)
	})
	if enqueueError != nil {
		return engine.failureResult(enqueueError)
	}
	return engine.successResult(committedTemplateConstant, displayName)
}

func (engine *Engine) repositoryLocation(repositoryID string) (string, environ.Environment, error) {
	engine.mutex.Lock()
	defer engine.mutex.Unlock()
	record := engine.findRepositoryLocked(repositoryID)
	if record == nil {
		return "", environ.Environment{}, newValidationError(repositoryNotFoundTemplateConstant, repositoryID)
	}
	return record.Location, record.Environment, nil
}

func (engine *Engine) appendTranscript(repositoryID string, transcript execshell.Transcript) {
	engine.mutex.Lock()
	defer engine.mutex.Unlock()
	record := engine.findRepositoryLocked(repositoryID)
	if record == nil {
		return
	}
	engine.recordTranscriptLocked(record, transcript)
}

func (engine *Engine) recordFailure(repositoryID string, operationError error, failureTranscript execshell.Transcript) {
	engine.mutex.Lock()
	defer engine.mutex.Unlock()
	record := engine.findRepositoryLocked(repositoryID)
	if record == nil {
		return
	}
	transcriptCopy := failureTranscript
	record.LastErrorMessage = operationError.Error()
	record.FailureTranscript = &transcriptCopy
	record.UpdatedAt = engine.clock.Now()
	engine.persistLocked()
}

// PushRepository pushes the current branch. The status summary is left as is;
// callers refresh when they want updated counters.
func (engine *Engine) PushRepository(executionContext context.Context, repositoryID string) OperationResult {
	displayName, lookupError := engine.repositoryDisplayName(repositoryID)
	if lookupError != nil {
		return engine.failureResult(lookupError)
	}

	enqueueError := engine.operationQueue.Enqueue(repositoryID, pushOperationNameConstant, mutationQueueTimeoutConstant, func(taskContext context.Context) error {
		return engine.runRecordedCommand(taskContext, repositoryID, []string{"push"}, pushCommandTimeoutConstant)
	})
	if enqueueError != nil {
		return engine.failureResult(enqueueError)
	}
	return engine.successResult(pushedTemplateConstant, displayName)
}

// SyncRepository runs fetch, pull, and push as one queued task, stopping at
// the first failing step. Transcripts of completed steps are preserved.
func (engine *Engine) SyncRepository(executionContext context.Context, repositoryID string) OperationResult {
	displayName, lookupError := engine.repositoryDisplayName(repositoryID)
	if lookupError != nil {
		return engine.failureResult(lookupError)
	}

	syncSteps := [][]string{fetchCommandArguments, {"pull"}, {"push"}}
	enqueueError := engine.operationQueue.Enqueue(repositoryID, syncOperationNameConstant, syncQueueTimeoutConstant, func(taskContext context.Context) error {
		for _, stepArguments := range syncSteps {
			stepError := engine.runRecordedCommand(taskContext, repositoryID, stepArguments, syncStepTimeoutConstant)
			if stepError != nil {
				return stepError
			}
		}
		return nil
	})
	if enqueueError != nil {
		return engine.failureResult(enqueueError)
	}
	return engine.successResult(syncedTemplateConstant, displayName)
}

// ScanConfiguredRoots discovers repositories under the configured native and
// guest roots, registers the new ones, and refreshes the whole catalog.
func (engine *Engine) ScanConfiguredRoots(executionContext context.Context) OperationResult {
	engine.pruneMissingRepositories(executionContext)

	engine.mutex.Lock()
	settingsCopy := engine.settings
	ignoredKeys := map[string]bool{}
	for _, ignoredKey := range settingsCopy.IgnoredRepositoryKeys {
		ignoredKeys[ignoredKey] = true
	}
	engine.mutex.Unlock()

	registeredCount := 0
	registerDiscovered := func(repositoryEnvironment environ.Environment, discoveredPath string) {
		normalizedPath := environ.NormalizeRepositoryPath(repositoryEnvironment, discoveredPath)
		repositoryKey := environ.RepositoryKey(repositoryEnvironment, normalizedPath)
		if ignoredKeys[repositoryKey] {
			return
		}
		engine.mutex.Lock()
		alreadyRegistered := engine.findRepositoryByKeyLocked(repositoryKey) != nil
		engine.mutex.Unlock()
		if alreadyRegistered {
			return
		}
		engine.registerRepository(repositoryEnvironment, normalizedPath, "")
		registeredCount++
	}

	nativeInvoker := engine.invokerProvider.InvokerFor(environ.NativeEnvironment())
	for _, nativeRoot := range settingsCopy.NativeRoots {
		discoveredPaths, discoveryError := nativeInvoker.DiscoverRepositories(executionContext, nativeRoot, settingsCopy.IgnoreTokens, settingsCopy.ScanDepthLimit)
		if discoveryError != nil {
			engine.logger.Warn(discoveryFailedMessageConstant, zap.String(discoveryRootLogFieldNameConstant, nativeRoot), zap.Error(discoveryError))
			continue
		}
		for _, discoveredPath := range discoveredPaths {
			registerDiscovered(environ.NativeEnvironment(), discoveredPath)
		}
	}

	for _, guestRoot := range settingsCopy.GuestRoots {
		guestEnvironment := environ.GuestEnvironment(guestRoot.GuestIdentifier)
		guestInvoker := engine.invokerProvider.InvokerFor(guestEnvironment)
		discoveredPaths, discoveryError := guestInvoker.DiscoverRepositories(executionContext, guestRoot.Path, settingsCopy.IgnoreTokens, settingsCopy.ScanDepthLimit)
		if discoveryError != nil {
			engine.logger.Warn(discoveryFailedMessageConstant, zap.String(discoveryRootLogFieldNameConstant, guestRoot.Path), zap.Error(discoveryError))
			continue
		}
		for _, discoveredPath := range discoveredPaths {
			registerDiscovered(guestEnvironment, discoveredPath)
		}
	}

	engine.RefreshAll(executionContext)
	return engine.successResult(scanCompletedTemplateConstant, registeredCount)
}

// CancelRepositoryOperation cancels the running operation and rejects every
// queued operation of the repository.
func (engine *Engine) CancelRepositoryOperation(executionContext context.Context, repositoryID string) OperationResult {
	displayName, lookupError := engine.repositoryDisplayName(repositoryID)
	if lookupError != nil {
		return engine.failureResult(lookupError)
	}
	engine.operationQueue.CancelRepository(repositoryID)
	return engine.successResult(cancellationRequestedTemplateConstant, displayName)
}

// UpdateSettings validates and replaces the engine settings.
func (engine *Engine) UpdateSettings(executionContext context.Context, updatedSettings Settings) OperationResult {
	if updatedSettings.RefreshIntervalFloorSeconds < minimumRefreshIntervalFloorConstant {
		return engine.failureResult(newValidationError(invalidRefreshFloorTemplateConstant, refreshIntervalFloorSettingLabelConstant, minimumRefreshIntervalFloorConstant))
	}
	if updatedSettings.ScanDepthLimit < 1 {
		return engine.failureResult(newValidationError(invalidScanDepthMessageConstant))
	}

	commandTemplates := []struct {
		label    string
		template string
	}{
		{label: editorProgramLabelConstant, template: updatedSettings.EditorTemplateNative},
		{label: editorProgramLabelConstant, template: updatedSettings.EditorTemplateGuest},
		{label: fileManagerProgramLabelConstant, template: updatedSettings.FileManagerTemplateNative},
		{label: fileManagerProgramLabelConstant, template: updatedSettings.FileManagerTemplateGuest},
		{label: terminalProgramLabelConstant, template: updatedSettings.TerminalTemplateNative},
		{label: terminalProgramLabelConstant, template: updatedSettings.TerminalTemplateGuest},
	}
	for _, templateCandidate := range commandTemplates {
		if len(strings.TrimSpace(templateCandidate.template)) == 0 {
			continue
		}
		if !strings.Contains(templateCandidate.template, pathPlaceholderConstant) {
			return engine.failureResult(newValidationError(templatePlaceholderTemplateConstant, templateCandidate.label, templateCandidate.template, pathPlaceholderConstant))
		}
	}

	engine.mutex.Lock()
	engine.settings = updatedSettings
	engine.persistLocked()
	engine.mutex.Unlock()
	return engine.successResult(settingsUpdatedMessageConstant)
}

// OpenInEditor opens the repository in the configured editor.
func (engine *Engine) OpenInEditor(executionContext context.Context, repositoryID string) OperationResult {
	engine.mutex.Lock()
	nativeTemplate := engine.settings.EditorTemplateNative
	guestTemplate := engine.settings.EditorTemplateGuest
	engine.mutex.Unlock()
	return engine.launchProgram(repositoryID, editorProgramLabelConstant, nativeTemplate, guestTemplate)
}

// OpenInFileManager opens the repository in the configured file manager.
func (engine *Engine) OpenInFileManager(executionContext context.Context, repositoryID string) OperationResult {
	engine.mutex.Lock()
	nativeTemplate := engine.settings.FileManagerTemplateNative
	guestTemplate := engine.settings.FileManagerTemplateGuest
	engine.mutex.Unlock()
	return engine.launchProgram(repositoryID, fileManagerProgramLabelConstant, nativeTemplate, guestTemplate)
}

// OpenInTerminal opens the repository in the configured terminal.
func (engine *Engine) OpenInTerminal(executionContext context.Context, repositoryID string) OperationResult {
	engine.mutex.Lock()
	nativeTemplate := engine.settings.TerminalTemplateNative
	guestTemplate := engine.settings.TerminalTemplateGuest
	engine.mutex.Unlock()
	return engine.launchProgram(repositoryID, terminalProgramLabelConstant, nativeTemplate, guestTemplate)
}

// launchProgram routes a launch to the right environment. Guest repositories
// prefer the guest template; without one the native template runs against the
// host-visible UNC path.
func (engine *Engine) launchProgram(repositoryID string, programLabel string, nativeTemplate string, guestTemplate string) OperationResult {
	engine.mutex.Lock()
	record := engine.findRepositoryLocked(repositoryID)
	if record == nil {
		engine.mutex.Unlock()
		return engine.failureResult(newValidationError(repositoryNotFoundTemplateConstant, repositoryID))
	}
	repositoryLocation := record.Location
	repositoryEnvironment := record.Environment
	displayName := record.DisplayName
	engine.mutex.Unlock()

	var launchError error
	switch {
	case repositoryEnvironment.IsGuest() && len(strings.TrimSpace(guestTemplate)) > 0:
		launchError = engine.launcher.LaunchInGuest(repositoryEnvironment.GuestIdentifier, guestTemplate, repositoryLocation)
	case repositoryEnvironment.IsGuest() && len(strings.TrimSpace(nativeTemplate)) > 0:
		launchError = engine.launcher.LaunchNative(nativeTemplate, environ.GuestPathToUNC(repositoryEnvironment.GuestIdentifier, repositoryLocation))
	case !repositoryEnvironment.IsGuest() && len(strings.TrimSpace(nativeTemplate)) > 0:
		launchError = engine.launcher.LaunchNative(nativeTemplate, repositoryLocation)
	default:
		return engine.failureResult(newValidationError(programTemplateMissingTemplateConstant, programLabel, displayName))
	}

	if launchError != nil {
		return OperationResult{OK: false, Message: launchError.Error(), FailureKind: FailureKindSpawn, Snapshot: engine.GetSnapshot()}
	}
	return engine.successResult(launchedProgramTemplateConstant, programLabel, displayName)
}
