package assessment_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/steadypath/steadypath/internal/assessment"
)

func TestScoreAnswers(t *testing.T) {
	assert.Equal(t, 0, assessment.ScoreAnswers(nil))

	in := answers(
		[2]int{0, 4}, [2]int{1, 2}, [2]int{2, 4}, [2]int{3, 3}, [2]int{4, 4},
		[2]int{5, 4}, [2]int{6, 4}, [2]int{7, 4}, [2]int{8, 4}, [2]int{9, 4},
	)
	assert.Equal(t, 37, assessment.ScoreAnswers(in))

	// Repeated slot keeps the highest option; out-of-range slots ignored.
	dup := answers([2]int{0, 1}, [2]int{0, 3}, [2]int{99, 4})
	assert.Equal(t, 3, assessment.ScoreAnswers(dup))
}

func TestClassifyScore(t *testing.T) {
	cases := []struct {
		score int
		tier  string
	}{
		{0, assessment.TierLow},
		{14, assessment.TierLow},
		{15, assessment.TierModerate},
		{24, assessment.TierModerate},
		{25, assessment.TierHigh},
		{40, assessment.TierHigh},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.tier, assessment.ClassifyScore(tc.score), "score %d", tc.score)
	}
}

func TestClassifyHighRiskScenario(t *testing.T) {
	in := answers(
		[2]int{0, 4}, [2]int{1, 2}, [2]int{2, 4}, [2]int{3, 3}, [2]int{4, 4},
		[2]int{5, 4}, [2]int{6, 4}, [2]int{7, 4}, [2]int{8, 4}, [2]int{9, 4},
	)
	assert.Equal(t, assessment.TierHigh, assessment.Classify(in))
}
