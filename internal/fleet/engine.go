package fleet

import (
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/temirov/gitfleet/internal/execshell"
	"github.com/temirov/gitfleet/internal/opqueue"
	"github.com/temirov/gitfleet/internal/status"
)

const (
	loggerNotConfiguredMessageConstant          = "logger not configured"
	stateStoreNotConfiguredMessageConstant      = "state store not configured"
	invokerProviderNotConfiguredMessageConstant = "invoker provider not configured"
	launcherNotConfiguredMessageConstant        = "launcher not configured"
	statePersistFailedMessageConstant           = "failed to persist engine state"
	repositoryFieldNameConstant                 = "repository_id"
	operationFieldNameConstant                  = "operation_name"
	operationStartedMessageConstant             = "repository operation started"
	operationFinishedMessageConstant            = "repository operation finished"
)

// Initialization validation errors.
var (
	ErrLoggerNotConfigured          = errors.New(loggerNotConfiguredMessageConstant)
	ErrStateStoreNotConfigured      = errors.New(stateStoreNotConfiguredMessageConstant)
	ErrInvokerProviderNotConfigured = errors.New(invokerProviderNotConfiguredMessageConstant)
	ErrLauncherNotConfigured        = errors.New(launcherNotConfiguredMessageConstant)
)

// Engine orchestrates the repository catalog, settings, and all operations.
type Engine struct {
	logger          *zap.Logger
	stateStore      StateStore
	invokerProvider InvokerProvider
	launcher        RepositoryLauncher
	operationQueue  *opqueue.OperationQueue
	clock           Clock

	mutex        sync.Mutex
	settings     Settings
	repositories []*RepositoryRecord

	refreshAllGroup singleflight.Group
}

// NewEngine validates collaborators, loads persisted state, and constructs the engine.
func NewEngine(logger *zap.Logger, stateStore StateStore, invokerProvider InvokerProvider, launcher RepositoryLauncher) (*Engine, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if stateStore == nil {
		return nil, ErrStateStoreNotConfigured
	}
	if invokerProvider == nil {
		return nil, ErrInvokerProviderNotConfigured
	}
	if launcher == nil {
		return nil, ErrLauncherNotConfigured
	}

	loadedState := stateStore.Load()

	engine := &Engine{
		logger:          logger,
		stateStore:      stateStore,
		invokerProvider: invokerProvider,
		launcher:        launcher,
		operationQueue:  opqueue.NewOperationQueue(),
		clock:           SystemClock{},
		settings:        loadedState.Settings,
	}

	for repositoryIndex := range loadedState.Repositories {
		repositoryCopy := loadedState.Repositories[repositoryIndex]
		repositoryCopy.ActiveOperation = nil
		engine.repositories = append(engine.repositories, &repositoryCopy)
	}

	engine.operationQueue.SetObserver(engine)

	return engine, nil
}

// SetClock replaces the time source; nil restores the system clock.
func (engine *Engine) SetClock(clock Clock) {
	if clock == nil {
		engine.clock = SystemClock{}
		return
	}
	engine.clock = clock
}

// OperationStarted implements opqueue.QueueObserver by exposing the active operation.
func (engine *Engine) OperationStarted(repositoryID string, descriptor opqueue.OperationDescriptor) {
	engine.logger.Debug(operationStartedMessageConstant, zap.String(repositoryFieldNameConstant, repositoryID), zap.String(operationFieldNameConstant, descriptor.Name))

	engine.mutex.Lock()
	defer engine.mutex.Unlock()
	record := engine.findRepositoryLocked(repositoryID)
	if record == nil {
		return
	}
	record.ActiveOperation = &ActiveOperation{ID: descriptor.ID, Name: descriptor.Name, StartedAt: descriptor.StartedAt}
}

// OperationFinished implements opqueue.QueueObserver by clearing the active operation.
func (engine *Engine) OperationFinished(repositoryID string) {
	engine.logger.Debug(operationFinishedMessageConstant, zap.String(repositoryFieldNameConstant, repositoryID))

	engine.mutex.Lock()
	defer engine.mutex.Unlock()
	record := engine.findRepositoryLocked(repositoryID)
	if record == nil {
		return
	}
	record.ActiveOperation = nil
}

// GetSnapshot returns the full catalog, settings, and a generation timestamp.
func (engine *Engine) GetSnapshot() Snapshot {
	engine.mutex.Lock()
	defer engine.mutex.Unlock()
	return engine.snapshotLocked()
}

func (engine *Engine) snapshotLocked() Snapshot {
	repositories := make([]RepositoryRecord, 0, len(engine.repositories))
	for _, record := range engine.repositories {
		repositories = append(repositories, copyRepositoryRecord(record))
	}
	return Snapshot{Repositories: repositories, Settings: engine.settings, GeneratedAt: engine.clock.Now()}
}

func copyRepositoryRecord(record *RepositoryRecord) RepositoryRecord {
	recordCopy := *record
	if record.Status != nil {
		statusCopy := *record.Status
		statusCopy.ChangedFiles = append([]status.ChangedFile(nil), record.Status.ChangedFiles...)
		recordCopy.Status = &statusCopy
	}
	if record.ActiveOperation != nil {
		activeOperationCopy := *record.ActiveOperation
		recordCopy.ActiveOperation = &activeOperationCopy
	}
	if record.FailureTranscript != nil {
		failureTranscriptCopy := *record.FailureTranscript
		recordCopy.FailureTranscript = &failureTranscriptCopy
	}
	recordCopy.TranscriptHistory = append([]execshell.Transcript(nil), record.TranscriptHistory...)
	return recordCopy
}

func (engine *Engine) findRepositoryLocked(repositoryID string) *RepositoryRecord {
	for _, record := range engine.repositories {
		if record.ID == repositoryID {
			return record
		}
	}
	return nil
}

func (engine *Engine) findRepositoryByKeyLocked(repositoryKey string) *RepositoryRecord {
	for _, record := range engine.repositories {
		if record.Key() == repositoryKey {
			return record
		}
	}
	return nil
}

func (engine *Engine) recordTranscriptLocked(record *RepositoryRecord, transcript execshell.Transcript) {
	record.TranscriptHistory = append(record.TranscriptHistory, transcript)
	if len(record.TranscriptHistory) > transcriptHistoryCapacityConstant {
		overflow := len(record.TranscriptHistory) - transcriptHistoryCapacityConstant
		record.TranscriptHistory = append([]execshell.Transcript{}, record.TranscriptHistory[overflow:]...)
	}
}

func (engine *Engine) persistLocked() {
	persistedRepositories := make([]RepositoryRecord, 0, len(engine.repositories))
	for _, record := range engine.repositories {
		persistedRepositories = append(persistedRepositories, *record)
	}
	saveError := engine.stateStore.Save(PersistedState{Settings: engine.settings, Repositories: persistedRepositories})
	if saveError != nil {
		engine.logger.Error(statePersistFailedMessageConstant, zap.Error(saveError))
	}
}
