package assessment_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/steadypath/steadypath/internal/assessment"
	"github.com/steadypath/steadypath/pkg/models"
)

func answers(pairs ...[2]int) []models.AnswerRecord {
	out := make([]models.AnswerRecord, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, models.AnswerRecord{QuestionID: p[0], SelectedOption: p[1]})
	}
	return out
}

func TestExtractRiskFactorsNeverEmpty(t *testing.T) {
	cases := map[string][]models.AnswerRecord{
		"nil answers":       nil,
		"empty answers":     {},
		"all below cutoff":  answers([2]int{0, 0}, [2]int{1, 0}, [2]int{2, 1}),
		"out of range slot": answers([2]int{42, 4}, [2]int{-1, 4}),
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			factors := assessment.ExtractRiskFactors(in)
			assert.NotEmpty(t, factors)
			assert.Equal(t, []string{assessment.GenericFactor}, factors)
		})
	}
}

func TestExtractRiskFactorsAllSlotsMatch(t *testing.T) {
	in := answers(
		[2]int{0, 4}, [2]int{1, 2}, [2]int{2, 4}, [2]int{3, 3}, [2]int{4, 4},
		[2]int{5, 4}, [2]int{6, 4}, [2]int{7, 4}, [2]int{8, 4}, [2]int{9, 4},
	)
	factors := assessment.ExtractRiskFactors(in)
	assert.Len(t, factors, assessment.QuestionCount)
	assert.NotContains(t, factors, assessment.GenericFactor)
}

func TestExtractRiskFactorsFollowsQuestionOrder(t *testing.T) {
	// Answers arrive out of order; factors must still follow slot order.
	in := answers([2]int{7, 4}, [2]int{0, 4}, [2]int{4, 4})
	factors := assessment.ExtractRiskFactors(in)
	assert.Equal(t, []string{
		"frequent cravings",
		"mood instability",
		"feelings of hopelessness",
	}, factors)
}

func TestExtractRiskFactorsOnePerSlot(t *testing.T) {
	// Duplicate answers for the same slot emit the factor once.
	in := answers([2]int{0, 4}, [2]int{0, 3}, [2]int{0, 4})
	factors := assessment.ExtractRiskFactors(in)
	assert.Equal(t, []string{"frequent cravings"}, factors)
}

func TestExtractRiskFactorsCutoffBoundary(t *testing.T) {
	// Slot 1 has cutoff 2: value 1 misses, value 2 hits.
	assert.Equal(t, []string{assessment.GenericFactor},
		assessment.ExtractRiskFactors(answers([2]int{1, 1})))
	assert.Equal(t, []string{"disrupted sleep pattern"},
		assessment.ExtractRiskFactors(answers([2]int{1, 2})))
}
