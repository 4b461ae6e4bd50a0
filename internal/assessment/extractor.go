// Package assessment turns raw quiz answers into risk tiers and
// human-readable risk factors. Everything here is pure and deterministic.
package assessment

import "github.com/steadypath/steadypath/pkg/models"

// questionRule binds one fixed question slot to its risk cutoff and the
// factor emitted when the recorded answer index meets or exceeds it.
type questionRule struct {
	cutoff int
	factor string
}

// GenericFactor is substituted when no per-question rule fires, so the
// extracted list is never empty.
const GenericFactor = "multiple high-risk indicators detected"

// questionRules covers the ten fixed assessment slots in question order.
var questionRules = [QuestionCount]questionRule{
	{cutoff: 3, factor: "frequent cravings"},
	{cutoff: 2, factor: "disrupted sleep pattern"},
	{cutoff: 3, factor: "social isolation"},
	{cutoff: 3, factor: "regular exposure to triggers"},
	{cutoff: 3, factor: "mood instability"},
	{cutoff: 3, factor: "missed support meetings"},
	{cutoff: 3, factor: "ongoing conflict at home"},
	{cutoff: 3, factor: "feelings of hopelessness"},
	{cutoff: 3, factor: "prior relapse history"},
	{cutoff: 3, factor: "reduced impulse control"},
}

// QuestionCount is the number of fixed question slots in the assessment.
const QuestionCount = 10

// ExtractRiskFactors maps assessment answers to risk-factor strings. For
// each question slot whose recorded answer meets its cutoff, the slot's
// factor is emitted, in question order, at most once per slot. The result
// is never empty: if no rule fires, GenericFactor is returned alone.
func ExtractRiskFactors(answers []models.AnswerRecord) []string {
	matched := [QuestionCount]bool{}
	for _, ans := range answers {
		if ans.QuestionID < 0 || ans.QuestionID >= QuestionCount {
			continue
		}
		if ans.SelectedOption >= questionRules[ans.QuestionID].cutoff {
			matched[ans.QuestionID] = true
		}
	}

	factors := make([]string, 0, QuestionCount)
	for i, hit := range matched {
		if hit {
			factors = append(factors, questionRules[i].factor)
		}
	}
	if len(factors) == 0 {
		factors = append(factors, GenericFactor)
	}
	return factors
}
