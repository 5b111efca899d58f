package status_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/gitfleet/internal/status"
)

const (
	attentionConditionCountConstant         = 7
	attentionCombinationNameConstant        = "combination_%07b"
	attentionDirtyConditionIndexConstant    = 0
	attentionAheadConditionIndexConstant    = 1
	attentionBehindConditionIndexConstant   = 2
	attentionConflictConditionIndexConstant = 3
	attentionMergeConditionIndexConstant    = 4
	attentionRebaseConditionIndexConstant   = 5
	attentionFetchConditionIndexConstant    = 6
)

func TestComputeNeedsAttentionMatchesDisjunctionOfAllConditions(testInstance *testing.T) {
	for combinationMask := 0; combinationMask < 1<<attentionConditionCountConstant; combinationMask++ {
		combinationMask := combinationMask
		testInstance.Run(fmt.Sprintf(attentionCombinationNameConstant, combinationMask), func(subTest *testing.T) {
			conditionActive := func(conditionIndex int) bool {
				return combinationMask&(1<<conditionIndex) != 0
			}

			summary := status.Summary{
				Dirty:            conditionActive(attentionDirtyConditionIndexConstant),
				MergeInProgress:  conditionActive(attentionMergeConditionIndexConstant),
				RebaseInProgress: conditionActive(attentionRebaseConditionIndexConstant),
			}
			if conditionActive(attentionAheadConditionIndexConstant) {
				summary.Ahead = 2
			}
			if conditionActive(attentionBehindConditionIndexConstant) {
				summary.Behind = 1
			}
			if conditionActive(attentionConflictConditionIndexConstant) {
				summary.ConflictedCount = 1
			}
			fetchFailed := conditionActive(attentionFetchConditionIndexConstant)

			expectedNeedsAttention := combinationMask != 0
			require.Equal(subTest, expectedNeedsAttention, status.ComputeNeedsAttention(summary, fetchFailed))
		})
	}
}
