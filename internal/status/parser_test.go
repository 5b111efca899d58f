package status_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/gitfleet/internal/status"
)

const (
	testMixedChangesInputConstant  = "## main...origin/main [ahead 2, behind 1]\n M src/a.ts\nA  src/b.ts\n?? src/c.ts"
	testCleanTrackingInputConstant = "## main...origin/main\n"
	testShortLinesInputConstant    = "## main...origin/main\nM\n M src/kept.go\nxy\n"
	testRenameInputConstant        = "## main...origin/main\nR  docs/old.md -> docs/new.md\n"
	testConflictInputConstant      = "## main...origin/main\nUU src/merge.go\nAA src/both_added.go\nDD src/both_deleted.go\n"
	testUnbornInputConstant        = "## No commits yet on trunk\n?? README.md\n"
	testDetachedInputConstant      = "## HEAD (no branch)\n"
	testLocalOnlyInputConstant     = "## feature/offline\n"
)

func TestParseMixedChanges(testInstance *testing.T) {
	summary := status.Parse(testMixedChangesInputConstant)

	require.Equal(testInstance, "main", summary.Branch)
	require.True(testInstance, summary.HasUpstream)
	require.Equal(testInstance, 2, summary.Ahead)
	require.Equal(testInstance, 1, summary.Behind)
	require.Equal(testInstance, 1, summary.ModifiedCount)
	require.Equal(testInstance, 1, summary.StagedCount)
	require.Equal(testInstance, 1, summary.UntrackedCount)
	require.Equal(testInstance, 0, summary.ConflictedCount)
	require.True(testInstance, summary.Dirty)
	require.True(testInstance, summary.NeedsAttention)
	require.Len(testInstance, summary.ChangedFiles, 3)
}

func TestParseIsDeterministic(testInstance *testing.T) {
	firstSummary := status.Parse(testMixedChangesInputConstant)
	secondSummary := status.Parse(testMixedChangesInputConstant)

	require.Equal(testInstance, firstSummary, secondSummary)
}

func TestParseCleanTrackingBranch(testInstance *testing.T) {
	summary := status.Parse(testCleanTrackingInputConstant)

	require.Equal(testInstance, "main", summary.Branch)
	require.True(testInstance, summary.HasUpstream)
	require.Equal(testInstance, 0, summary.Ahead)
	require.Equal(testInstance, 0, summary.Behind)
	require.False(testInstance, summary.Dirty)
	require.False(testInstance, summary.NeedsAttention)
	require.Empty(testInstance, summary.ChangedFiles)
}

func TestParseSkipsShortFileEntries(testInstance *testing.T) {
	summary := status.Parse(testShortLinesInputConstant)

	require.Len(testInstance, summary.ChangedFiles, 1)
	require.Equal(testInstance, "src/kept.go", summary.ChangedFiles[0].Path)
	require.Equal(testInstance, 1, summary.ModifiedCount)
	require.Equal(testInstance, 0, summary.StagedCount)
}

func TestParseKeepsRenameTargetPath(testInstance *testing.T) {
	summary := status.Parse(testRenameInputConstant)

	require.Len(testInstance, summary.ChangedFiles, 1)
	require.Equal(testInstance, "docs/new.md", summary.ChangedFiles[0].Path)
	require.True(testInstance, summary.ChangedFiles[0].Staged)
}

func TestParseFlagsConflictCodePairs(testInstance *testing.T) {
	summary := status.Parse(testConflictInputConstant)

	require.Equal(testInstance, 3, summary.ConflictedCount)
	for _, changedFile := range summary.ChangedFiles {
		require.True(testInstance, changedFile.Conflicted, changedFile.Path)
	}
	require.True(testInstance, summary.NeedsAttention)
}

func TestParseEmptyInputYieldsZeroState(testInstance *testing.T) {
	summary := status.Parse("")

	require.Empty(testInstance, summary.Branch)
	require.False(testInstance, summary.Dirty)
	require.False(testInstance, summary.NeedsAttention)
	require.Empty(testInstance, summary.ChangedFiles)
}

func TestParseBranchHeaderClassification(testInstance *testing.T) {
	testCases := []struct {
		name           string
		input          string
		expectedHeader status.BranchHeader
	}{
		{
			name:           "unborn_branch",
			input:          "No commits yet on trunk",
			expectedHeader: status.BranchHeader{Kind: status.BranchHeaderKindUnborn, BranchName: "trunk"},
		},
		{
			name:           "legacy_unborn_branch",
			input:          "Initial commit on master",
			expectedHeader: status.BranchHeader{Kind: status.BranchHeaderKindUnborn, BranchName: "master"},
		},
		{
			name:           "detached_head",
			input:          "HEAD (no branch)",
			expectedHeader: status.BranchHeader{Kind: status.BranchHeaderKindDetached, BranchName: "detached"},
		},
		{
			name:           "local_only_branch",
			input:          "feature/offline",
			expectedHeader: status.BranchHeader{Kind: status.BranchHeaderKindLocalOnly, BranchName: "feature/offline"},
		},
		{
			name:           "tracking_without_detail",
			input:          "main...origin/main",
			expectedHeader: status.BranchHeader{Kind: status.BranchHeaderKindTracking, BranchName: "main", HasUpstream: true},
		},
		{
			name:           "tracking_ahead_only",
			input:          "main...origin/main [ahead 3]",
			expectedHeader: status.BranchHeader{Kind: status.BranchHeaderKindTracking, BranchName: "main", HasUpstream: true, Ahead: 3},
		},
		{
			name:           "tracking_behind_only",
			input:          "main...origin/main [behind 7]",
			expectedHeader: status.BranchHeader{Kind: status.BranchHeaderKindTracking, BranchName: "main", HasUpstream: true, Behind: 7},
		},
		{
			name:           "tracking_ahead_and_behind",
			input:          "release/v2...origin/release/v2 [ahead 2, behind 1]",
			expectedHeader: status.BranchHeader{Kind: status.BranchHeaderKindTracking, BranchName: "release/v2", HasUpstream: true, Ahead: 2, Behind: 1},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedHeader, status.ParseBranchHeader(testCase.input))
		})
	}
}

func TestParseDetachedAndUnbornSummaries(testInstance *testing.T) {
	detachedSummary := status.Parse(testDetachedInputConstant)
	require.Equal(testInstance, "detached", detachedSummary.Branch)
	require.True(testInstance, detachedSummary.IsDetached)
	require.False(testInstance, detachedSummary.HasUpstream)

	unbornSummary := status.Parse(testUnbornInputConstant)
	require.Equal(testInstance, "trunk", unbornSummary.Branch)
	require.False(testInstance, unbornSummary.HasUpstream)
	require.Equal(testInstance, 1, unbornSummary.UntrackedCount)

	localOnlySummary := status.Parse(testLocalOnlyInputConstant)
	require.Equal(testInstance, "feature/offline", localOnlySummary.Branch)
	require.False(testInstance, localOnlySummary.HasUpstream)
}
