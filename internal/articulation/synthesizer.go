// Package articulation renders a resolved condition into the caller-facing
// AnalysisResponse: a templated explanation, a risk tier and the entry's care
// guidance.
package articulation

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"mednerd/internal/logging"
	"mednerd/internal/types"
)

// Risk tiers.
const (
	RiskHigh         = "High Risk / Emergency"
	RiskModerateHigh = "Moderate to High Risk"
	RiskModerate     = "Moderate Risk"
	RiskLowModerate  = "Low to Moderate Risk"
	RiskUnknown      = "Unknown / Assessment Required"
)

const livePrefix = "LIVE WEB RESULT: "

var (
	highRiskTriggers = []string{"blood", "breathing", "chest", "severe"}
	lowRiskTriggers  = []string{"mild", "itch"}
	// Matched against the condition name as written.
	dangerousConditions = []string{"Malaria", "Pneumonia", "TB", "Cancer"}

	pediatricTriggers = []string{"child", "baby"}
	acuteTriggers     = []string{"severe", "pain", "bleeding"}
)

const (
	pediatricNuance = " Note: Special care is required for pediatric presentation."
	acuteNuance     = " The mention of severity/pain suggests an acute presentation."
)

// explanationTemplates take the query and the condition name, in that order.
var explanationTemplates = []string{
	"Based on the clinical presentation of '%[1]s', the symptoms align closely with %[2]s.",
	"The reported indicators (%[1]s) are characteristic of %[2]s.",
	"Analysis indicates %[2]s, specifically triggered by the presence of %[1]s.",
}

// templateCount is the number of explanation templates a Chooser selects from.
var templateCount = len(explanationTemplates)

// Chooser picks an index in [0, n).
type Chooser func(n int) int

// Fixed returns a Chooser that always picks i.
func Fixed(i int) Chooser {
	return func(int) int { return i }
}

// Synthesizer builds responses.
type Synthesizer struct {
	choose Chooser
}

// NewSynthesizer creates a synthesizer. A nil chooser picks uniformly at random.
func NewSynthesizer(choose Chooser) *Synthesizer {
	if choose == nil {
		choose = rand.IntN
	}
	return &Synthesizer{choose: choose}
}

// Synthesize renders entry as the answer to query. A nil entry yields Unknown().
func (s *Synthesizer) Synthesize(query string, entry *types.ConditionEntry) types.AnalysisResponse {
	if entry == nil {
		return Unknown()
	}
	query = strings.ToLower(query)

	resp := types.AnalysisResponse{
		RiskLevel:              ClassifyRisk(query, entry.Condition),
		ProbableCondition:      entry.Condition,
		DiseaseStage:           string(entry.Stage),
		DetailedExplanation:    s.explain(query, entry),
		TreatmentGuidance:      entry.TreatmentGuidance,
		Medications:            orEmpty(entry.Medications),
		PatientDos:             orEmpty(entry.Dos),
		PatientDonts:           orEmpty(entry.Donts),
		ReferralRecommendation: entry.Referral,
	}
	if resp.DiseaseStage == "" {
		resp.DiseaseStage = string(types.StageClinicalPresentation)
	}
	if resp.TreatmentGuidance == "" {
		resp.TreatmentGuidance = "Consult GP"
	}
	if resp.ReferralRecommendation == "" {
		resp.ReferralRecommendation = "Refer to GP"
	}

	logging.ArticulationDebug("synthesized %q for %q (risk=%s)", entry.Condition, query, resp.RiskLevel)
	return resp
}

func (s *Synthesizer) explain(query string, entry *types.ConditionEntry) string {
	if entry.IsLive() {
		return livePrefix + entry.Explanation
	}

	i := s.choose(templateCount)
	if i < 0 || i >= templateCount {
		i = 0
	}
	return fmt.Sprintf(explanationTemplates[i], query, entry.Condition) +
		" " + entry.Explanation + nuance(query)
}

// nuance returns at most one context clause; pediatric takes precedence.
func nuance(query string) string {
	switch {
	case containsAny(query, pediatricTriggers):
		return pediatricNuance
	case containsAny(query, acuteTriggers):
		return acuteNuance
	default:
		return ""
	}
}

// ClassifyRisk derives the risk tier from the lower-cased query, escalating
// dangerous conditions that would otherwise rank below the top tier.
func ClassifyRisk(query, condition string) string {
	risk := RiskModerate
	switch {
	case containsAny(query, highRiskTriggers):
		risk = RiskHigh
	case containsAny(query, lowRiskTriggers):
		risk = RiskLowModerate
	}
	if risk != RiskHigh && containsAny(condition, dangerousConditions) {
		risk = RiskModerateHigh
	}
	return risk
}

// Unknown is the fixed response for queries nothing could resolve.
func Unknown() types.AnalysisResponse {
	return types.AnalysisResponse{
		RiskLevel:              RiskUnknown,
		ProbableCondition:      "Unidentified Condition",
		DiseaseStage:           "N/A",
		DetailedExplanation:    "The reported symptoms do not match our database or live web search. Please visit the closest medical facility.",
		TreatmentGuidance:      "Consult a doctor immediately for proper diagnosis.",
		Medications:            []string{},
		PatientDos:             []string{"Monitor symptoms", "Visit nearest clinic"},
		PatientDonts:           []string{"Do not ignore worsening symptoms"},
		ReferralRecommendation: "Refer to General Physician (GP) for diagnosis.",
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func orEmpty(in []string) []string {
	if in == nil {
		return []string{}
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
