package status

import (
	"strconv"
	"strings"
)

const (
	lineSeparatorConstant              = "\n"
	branchHeaderMarkerConstant         = "## "
	untrackedEntryMarkerConstant       = "?? "
	unbornBranchPrefixConstant         = "No commits yet on "
	legacyUnbornBranchPrefixConstant   = "Initial commit on "
	detachedHeadHeaderConstant         = "HEAD (no branch)"
	detachedBranchLabelConstant        = "detached"
	upstreamSeparatorConstant          = "..."
	aheadBehindDetailOpenConstant      = " ["
	aheadBehindDetailCloseConstant     = "]"
	aheadDetailPrefixConstant          = "ahead "
	behindDetailPrefixConstant         = "behind "
	aheadBehindDetailSeparatorConstant = ", "
	renameArrowSeparatorConstant       = " -> "
	minimumFileEntryLengthConstant     = 4
	statusCodePathOffsetConstant       = 3
	statusCodeCleanConstant            = byte(' ')
	statusCodeUntrackedConstant        = byte('?')
	statusCodeConflictConstant         = byte('U')
	statusCodeAddedConstant            = byte('A')
	statusCodeDeletedConstant          = byte('D')
)

// BranchHeaderKind classifies the branch header line of porcelain status output.
type BranchHeaderKind string

// Recognized branch header classifications.
const (
	BranchHeaderKindUnborn    BranchHeaderKind = "unborn"
	BranchHeaderKindDetached  BranchHeaderKind = "detached"
	BranchHeaderKindTracking  BranchHeaderKind = "tracking"
	BranchHeaderKindLocalOnly BranchHeaderKind = "local_only"
)

// BranchHeader captures the parsed branch header line.
type BranchHeader struct {
	Kind        BranchHeaderKind
	BranchName  string
	HasUpstream bool
	Ahead       int
	Behind      int
}

// ParseBranchHeader interprets the content of a branch header line without its marker prefix.
func ParseBranchHeader(headerContent string) BranchHeader {
	trimmedContent := strings.TrimSpace(headerContent)

	if strings.HasPrefix(trimmedContent, unbornBranchPrefixConstant) {
		return BranchHeader{Kind: BranchHeaderKindUnborn, BranchName: strings.TrimPrefix(trimmedContent, unbornBranchPrefixConstant)}
	}
	if strings.HasPrefix(trimmedContent, legacyUnbornBranchPrefixConstant) {
		return BranchHeader{Kind: BranchHeaderKindUnborn, BranchName: strings.TrimPrefix(trimmedContent, legacyUnbornBranchPrefixConstant)}
	}
	if trimmedContent == detachedHeadHeaderConstant {
		return BranchHeader{Kind: BranchHeaderKindDetached, BranchName: detachedBranchLabelConstant}
	}

	branchSegment := trimmedContent
	detailSegment := ""
	detailOpenIndex := strings.Index(trimmedContent, aheadBehindDetailOpenConstant)
	if detailOpenIndex >= 0 {
		branchSegment = trimmedContent[:detailOpenIndex]
		detailSegment = strings.TrimSuffix(trimmedContent[detailOpenIndex+len(aheadBehindDetailOpenConstant):], aheadBehindDetailCloseConstant)
	}

	separatorIndex := strings.Index(branchSegment, upstreamSeparatorConstant)
	if separatorIndex < 0 {
		return BranchHeader{Kind: BranchHeaderKindLocalOnly, BranchName: branchSegment}
	}

	header := BranchHeader{
		Kind:        BranchHeaderKindTracking,
		BranchName:  branchSegment[:separatorIndex],
		HasUpstream: true,
	}

	for _, detailComponent := range strings.Split(detailSegment, aheadBehindDetailSeparatorConstant) {
		trimmedComponent := strings.TrimSpace(detailComponent)
		if strings.HasPrefix(trimmedComponent, aheadDetailPrefixConstant) {
			if parsedCount, parseError := strconv.Atoi(strings.TrimPrefix(trimmedComponent, aheadDetailPrefixConstant)); parseError == nil {
				header.Ahead = parsedCount
			}
		}
		if strings.HasPrefix(trimmedComponent, behindDetailPrefixConstant) {
			if parsedCount, parseError := strconv.Atoi(strings.TrimPrefix(trimmedComponent, behindDetailPrefixConstant)); parseError == nil {
				header.Behind = parsedCount
			}
		}
	}

	return header
}

func parseFileEntry(entryLine string) (ChangedFile, bool) {
	if strings.HasPrefix(entryLine, untrackedEntryMarkerConstant) {
		return ChangedFile{
			Path:         normalizeEntryPath(entryLine[len(untrackedEntryMarkerConstant):]),
			IndexCode:    string(statusCodeUntrackedConstant),
			WorktreeCode: string(statusCodeUntrackedConstant),
			Untracked:    true,
			Unstaged:     true,
		}, true
	}

	if len(entryLine) < minimumFileEntryLengthConstant {
		return ChangedFile{}, false
	}

	indexCode := entryLine[0]
	worktreeCode := entryLine[1]

	changedFile := ChangedFile{
		Path:         normalizeEntryPath(entryLine[statusCodePathOffsetConstant:]),
		IndexCode:    string(indexCode),
		WorktreeCode: string(worktreeCode),
	}
	changedFile.Staged = indexCode != statusCodeCleanConstant && indexCode != statusCodeUntrackedConstant
	changedFile.Unstaged = worktreeCode != statusCodeCleanConstant
	changedFile.Conflicted = isConflictCodePair(indexCode, worktreeCode)

	return changedFile, true
}

func isConflictCodePair(indexCode byte, worktreeCode byte) bool {
	if indexCode == statusCodeConflictConstant || worktreeCode == statusCodeConflictConstant {
		return true
	}
	if indexCode == statusCodeAddedConstant && worktreeCode == statusCodeAddedConstant {
		return true
	}
	if indexCode == statusCodeDeletedConstant && worktreeCode == statusCodeDeletedConstant {
		return true
	}
	return false
}

func normalizeEntryPath(rawPath string) string {
	arrowIndex := strings.LastIndex(rawPath, renameArrowSeparatorConstant)
	if arrowIndex >= 0 {
		return rawPath[arrowIndex+len(renameArrowSeparatorConstant):]
	}
	return rawPath
}

// Parse converts raw porcelain status text into a Summary.
//
// Merge/rebase progress, accessibility, and the refresh timestamp are left at
// their zero values for the engine to fill in.
func Parse(rawText string) Summary {
	summary := Summary{}

	for _, rawLine := range strings.Split(rawText, lineSeparatorConstant) {
		line := strings.TrimRight(rawLine, "\r")
		if len(strings.TrimSpace(line)) == 0 {
			continue
		}

		if strings.HasPrefix(line, branchHeaderMarkerConstant) {
			header := ParseBranchHeader(line[len(branchHeaderMarkerConstant):])
			summary.Branch = header.BranchName
			summary.IsDetached = header.Kind == BranchHeaderKindDetached
			summary.HasUpstream = header.HasUpstream
			summary.Ahead = header.Ahead
			summary.Behind = header.Behind
			continue
		}

		changedFile, entryValid := parseFileEntry(line)
		if !entryValid {
			continue
		}

		summary.ChangedFiles = append(summary.ChangedFiles, changedFile)
		if changedFile.Untracked {
			summary.UntrackedCount++
		} else {
			if changedFile.Staged {
				summary.StagedCount++
			}
			if changedFile.Unstaged {
				summary.ModifiedCount++
			}
		}
		if changedFile.Conflicted {
			summary.ConflictedCount++
		}
	}

	summary.Dirty = summary.StagedCount > 0 || summary.ModifiedCount > 0 || summary.UntrackedCount > 0
	summary.NeedsAttention = ComputeNeedsAttention(summary, false)

	return summary
}
