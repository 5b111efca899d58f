package status

import "time"

// ChangedFile describes one working tree entry from porcelain status output.
//
// Path always refers to the post-rename target when the entry records a rename.
type ChangedFile struct {
	Path         string `yaml:"path"`
	IndexCode    string `yaml:"index_code"`
	WorktreeCode string `yaml:"worktree_code"`
	Untracked    bool   `yaml:"untracked"`
	Staged       bool   `yaml:"staged"`
	Unstaged     bool   `yaml:"unstaged"`
	Conflicted   bool   `yaml:"conflicted"`
}

// Summary is the point-in-time structured status of one repository.
//
// Summaries are recomputed wholesale on every refresh, never patched in place.
type Summary struct {
	NeedsAttention   bool          `yaml:"needs_attention"`
	Dirty            bool          `yaml:"dirty"`
	StagedCount      int           `yaml:"staged_count"`
	ModifiedCount    int           `yaml:"modified_count"`
	UntrackedCount   int           `yaml:"untracked_count"`
	ConflictedCount  int           `yaml:"conflicted_count"`
	ChangedFiles     []ChangedFile `yaml:"changed_files,omitempty"`
	Branch           string        `yaml:"branch"`
	IsDetached       bool          `yaml:"is_detached"`
	HasUpstream      bool          `yaml:"has_upstream"`
	Ahead            int           `yaml:"ahead"`
	Behind           int           `yaml:"behind"`
	MergeInProgress  bool          `yaml:"merge_in_progress"`
	RebaseInProgress bool          `yaml:"rebase_in_progress"`
	Inaccessible     bool          `yaml:"inaccessible"`
	RefreshedAt      time.Time     `yaml:"refreshed_at"`
}

// ComputeNeedsAttention reports whether any attention condition holds for the
// summary, with the fetch failure signal layered in by the caller.
func ComputeNeedsAttention(summary Summary, fetchFailed bool) bool {
	return summary.Dirty ||
		summary.Ahead > 0 ||
		summary.Behind > 0 ||
		summary.ConflictedCount > 0 ||
		summary.MergeInProgress ||
		summary.RebaseInProgress ||
		fetchFailed
}
