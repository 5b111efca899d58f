package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/temirov/gitfleet/internal/fleet"
)

const (
	loggerNotConfiguredMessageConstant    = "logger not configured"
	statePathNotConfiguredMessageConstant = "state file path not configured"
	temporaryFileSuffixConstant           = ".tmp"
	stateFilePermissionsConstant          = 0o600
	stateDirectoryPermissionsConstant     = 0o755
	stateMarshalErrorTemplateConstant     = "failed to encode state document: %w"
	stateWriteErrorTemplateConstant       = "failed to write state document: %w"
	stateRenameErrorTemplateConstant      = "failed to replace state document: %w"
	stateDirectoryErrorTemplateConstant   = "failed to prepare state directory: %w"
	stateUnreadableMessageConstant        = "state document unreadable, using defaults"
	stateCorruptedMessageConstant         = "state document corrupted, using defaults"
	stateFileFieldNameConstant            = "state_file"
)

// Initialization validation errors.
var (
	ErrLoggerNotConfigured    = errors.New(loggerNotConfiguredMessageConstant)
	ErrStatePathNotConfigured = errors.New(statePathNotConfiguredMessageConstant)
)

// YAMLStateStore stores the catalog and settings in one YAML file.
type YAMLStateStore struct {
	logger        *zap.Logger
	stateFilePath string
}

// NewYAMLStateStore validates collaborators and constructs a YAMLStateStore.
func NewYAMLStateStore(logger *zap.Logger, stateFilePath string) (*YAMLStateStore, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if len(stateFilePath) == 0 {
		return nil, ErrStatePathNotConfigured
	}
	return &YAMLStateStore{logger: logger, stateFilePath: stateFilePath}, nil
}

// Load reads the state document, degrading to defaults on any read or parse failure.
//
// Active operations never survive a restart, so they are reset to absent here.
func (stateStore *YAMLStateStore) Load() fleet.PersistedState {
	defaultState := fleet.PersistedState{Settings: fleet.DefaultSettings()}

	documentBytes, readError := os.ReadFile(stateStore.stateFilePath)
	if readError != nil {
		if !errors.Is(readError, os.ErrNotExist) {
			stateStore.logger.Warn(stateUnreadableMessageConstant, zap.String(stateFileFieldNameConstant, stateStore.stateFilePath), zap.Error(readError))
		}
		return defaultState
	}

	loadedState := fleet.PersistedState{}
	unmarshalError := yaml.Unmarshal(documentBytes, &loadedState)
	if unmarshalError != nil {
		stateStore.logger.Warn(stateCorruptedMessageConstant, zap.String(stateFileFieldNameConstant, stateStore.stateFilePath), zap.Error(unmarshalError))
		return defaultState
	}

	if loadedState.Settings.RefreshIntervalFloorSeconds == 0 {
		loadedState.Settings.RefreshIntervalFloorSeconds = fleet.DefaultSettings().RefreshIntervalFloorSeconds
	}
	if loadedState.Settings.ScanDepthLimit == 0 {
		loadedState.Settings.ScanDepthLimit = fleet.DefaultSettings().ScanDepthLimit
	}

	for repositoryIndex := range loadedState.Repositories {
		loadedState.Repositories[repositoryIndex].ActiveOperation = nil
	}

	return loadedState
}

// Save overwrites the whole state document atomically.
func (stateStore *YAMLStateStore) Save(state fleet.PersistedState) error {
	documentBytes, marshalError := yaml.Marshal(state)
	if marshalError != nil {
		return fmt.Errorf(stateMarshalErrorTemplateConstant, marshalError)
	}

	stateDirectory := filepath.Dir(stateStore.stateFilePath)
	directoryError := os.MkdirAll(stateDirectory, stateDirectoryPermissionsConstant)
	if directoryError != nil {
		return fmt.Errorf(stateDirectoryErrorTemplateConstant, directoryError)
	}

	temporaryFilePath := stateStore.stateFilePath + temporaryFileSuffixConstant
	writeError := os.WriteFile(temporaryFilePath, documentBytes, stateFilePermissionsConstant)
	if writeError != nil {
		return fmt.Errorf(stateWriteErrorTemplateConstant, writeError)
	}

	renameError := os.Rename(temporaryFilePath, stateStore.stateFilePath)
	if renameError != nil {
		return fmt.Errorf(stateRenameErrorTemplateConstant, renameError)
	}

	return nil
}
