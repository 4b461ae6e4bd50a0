package assessment

import "github.com/steadypath/steadypath/pkg/models"

// Risk tiers produced by ScoreAnswers. Only TierHigh triggers an
// escalation.
const (
	TierLow      = "low"
	TierModerate = "moderate"
	TierHigh     = "high"
)

// Tier thresholds on the summed option indices (ten questions, options
// 0-4, so the score range is 0-40).
const (
	moderateThreshold = 15
	highThreshold     = 25
)

// ScoreAnswers sums the selected option indices across all question slots.
// Answers outside the fixed slots are ignored; repeated answers for the
// same slot keep the highest option.
func ScoreAnswers(answers []models.AnswerRecord) int {
	best := [QuestionCount]int{}
	seen := [QuestionCount]bool{}
	for _, ans := range answers {
		if ans.QuestionID < 0 || ans.QuestionID >= QuestionCount {
			continue
		}
		if !seen[ans.QuestionID] || ans.SelectedOption > best[ans.QuestionID] {
			best[ans.QuestionID] = ans.SelectedOption
			seen[ans.QuestionID] = true
		}
	}
	total := 0
	for i := range best {
		if seen[i] {
			total += best[i]
		}
	}
	return total
}

// ClassifyScore maps a summed score to a risk tier.
func ClassifyScore(score int) string {
	switch {
	case score >= highThreshold:
		return TierHigh
	case score >= moderateThreshold:
		return TierModerate
	default:
		return TierLow
	}
}

// Classify scores and tiers a full answer set in one step.
func Classify(answers []models.AnswerRecord) string {
	return ClassifyScore(ScoreAnswers(answers))
}
