package fleet

import (
	"time"

	"github.com/temirov/gitfleet/internal/environ"
	"github.com/temirov/gitfleet/internal/execshell"
	"github.com/temirov/gitfleet/internal/status"
)

const (
	transcriptHistoryCapacityConstant   = 20
	defaultScanDepthLimitConstant       = 4
	defaultRefreshIntervalFloorConstant = 15
	minimumRefreshIntervalFloorConstant = 5
	pathPlaceholderConstant             = "{path}"
)

// Clock abstracts time acquisition for deterministic testing.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the system time source.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// GuestRoot names a discovery root inside one guest distribution.
type GuestRoot struct {
	GuestIdentifier string `yaml:"guest_identifier"`
	Path            string `yaml:"path"`
}

// Settings holds the engine-wide configuration persisted alongside the catalog.
type Settings struct {
	NativeRoots                 []string    `yaml:"native_roots"`
	GuestRoots                  []GuestRoot `yaml:"guest_roots"`
	IgnoreTokens                []string    `yaml:"ignore_tokens"`
	IgnoredRepositoryKeys       []string    `yaml:"ignored_repository_keys"`
	EditorTemplateNative        string      `yaml:"editor_template_native"`
	EditorTemplateGuest         string      `yaml:"editor_template_guest"`
	FileManagerTemplateNative   string      `yaml:"file_manager_template_native"`
	FileManagerTemplateGuest    string      `yaml:"file_manager_template_guest"`
	TerminalTemplateNative      string      `yaml:"terminal_template_native"`
	TerminalTemplateGuest       string      `yaml:"terminal_template_guest"`
	RefreshIntervalFloorSeconds int         `yaml:"refresh_interval_floor_seconds"`
	FetchDuringRefresh          bool        `yaml:"fetch_during_refresh"`
	ScanDepthLimit              int         `yaml:"scan_depth_limit"`
}

// DefaultSettings returns the settings used before any configuration is persisted.
func DefaultSettings() Settings {
	return Settings{
		RefreshIntervalFloorSeconds: defaultRefreshIntervalFloorConstant,
		ScanDepthLimit:              defaultScanDepthLimitConstant,
	}
}

// ActiveOperation describes the operation currently occupying a repository's queue slot.
//
// It exists only while a task is actually running and is never persisted
// across engine restarts.
type ActiveOperation struct {
	ID        string    `yaml:"id"`
	Name      string    `yaml:"name"`
	StartedAt time.Time `yaml:"started_at"`
}

// RepositoryRecord is the engine-owned state of one registered repository.
type RepositoryRecord struct {
	ID                string                 `yaml:"id"`
	DisplayName       string                 `yaml:"display_name"`
	Location          string                 `yaml:"location"`
	Environment       environ.Environment    `yaml:"environment"`
	CreatedAt         time.Time              `yaml:"created_at"`
	UpdatedAt         time.Time              `yaml:"updated_at"`
	Status            *status.Summary        `yaml:"status,omitempty"`
	ActiveOperation   *ActiveOperation       `yaml:"active_operation,omitempty"`
	LastErrorMessage  string                 `yaml:"last_error_message,omitempty"`
	FailureTranscript *execshell.Transcript  `yaml:"failure_transcript,omitempty"`
	TranscriptHistory []execshell.Transcript `yaml:"transcript_history,omitempty"`
}

// Key returns the unique catalog identity of the repository location.
func (record *RepositoryRecord) Key() string {
	return environ.RepositoryKey(record.Environment, record.Location)
}

// Snapshot is the full engine state handed to callers after every operation.
type Snapshot struct {
	Repositories []RepositoryRecord
	Settings     Settings
	GeneratedAt  time.Time
}

// PersistedState is the whole document written to and loaded from the state store.
type PersistedState struct {
	Settings     Settings           `yaml:"settings"`
	Repositories []RepositoryRecord `yaml:"repositories"`
}

// StateStore abstracts the durable catalog and settings document.
//
// Load never fails: a corrupted or unreadable store degrades to defaults.
// Save overwrites the whole document.
type StateStore interface {
	Load() PersistedState
	Save(state PersistedState) error
}

// RepositoryLauncher opens external programs on a repository path, fire-and-forget.
type RepositoryLauncher interface {
	LaunchNative(commandTemplate string, targetPath string) error
	LaunchInGuest(guestIdentifier string, commandTemplate string, targetPath string) error
}

// InvokerProvider selects the environment invoker for a repository environment.
type InvokerProvider interface {
	InvokerFor(environment environ.Environment) environ.EnvironmentInvoker
}
