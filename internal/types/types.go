// Package types provides shared type definitions used across mednerd packages.
// Types in this package are foundational data structures with no complex dependencies.
package types

import "strings"

// =============================================================================
// KNOWLEDGE BASE TYPES
// =============================================================================

// Stage records where an entry came from.
type Stage string

const (
	// StageClinicalPresentation marks entries produced by the offline seeding crawl.
	StageClinicalPresentation Stage = "Clinical Presentation"
	// StageLiveWebResult marks entries learned from a live page fetch.
	StageLiveWebResult Stage = "Live Web Result"
)

// ConditionEntry is one record of the knowledge base.
// The JSON field names are the knowledge base file format.
type ConditionEntry struct {
	Condition         string   `json:"condition"`
	Keywords          []string `json:"keywords"`
	Stage             Stage    `json:"stage,omitempty"`
	Explanation       string   `json:"explanation"`
	TreatmentGuidance string   `json:"treatment_guidance,omitempty"`
	Medications       []string `json:"medications"`
	Dos               []string `json:"dos"`
	Donts             []string `json:"donts"`
	Referral          string   `json:"referral,omitempty"`
}

// IsLive reports whether the entry was learned from a live fetch.
func (e *ConditionEntry) IsLive() bool {
	return e != nil && e.Stage == StageLiveWebResult
}

// Key returns the dedup key for the entry's condition name.
func (e *ConditionEntry) Key() string {
	return NameKey(e.Condition)
}

// Clone returns a deep copy so callers can't mutate store-owned slices.
func (e *ConditionEntry) Clone() *ConditionEntry {
	if e == nil {
		return nil
	}
	c := *e
	c.Keywords = cloneStrings(e.Keywords)
	c.Medications = cloneStrings(e.Medications)
	c.Dos = cloneStrings(e.Dos)
	c.Donts = cloneStrings(e.Donts)
	return &c
}

// NameKey normalizes a condition name for case-insensitive equality.
func NameKey(name string) string {
	return strings.ToLower(name)
}

// DedupeKeywords lower-cases keywords and drops repeats, keeping first-seen order.
func DedupeKeywords(words []string) []string {
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// AnalysisResponse is the caller-facing answer rendered by the synthesizer.
type AnalysisResponse struct {
	RiskLevel              string   `json:"risk_level"`
	ProbableCondition      string   `json:"probable_condition"`
	DiseaseStage           string   `json:"disease_stage"`
	DetailedExplanation    string   `json:"detailed_explanation"`
	TreatmentGuidance      string   `json:"treatment_guidance"`
	Medications            []string `json:"medications"`
	PatientDos             []string `json:"patient_dos"`
	PatientDonts           []string `json:"patient_donts"`
	ReferralRecommendation string   `json:"referral_recommendation"`
}

// Placeholder text attached to entries whose source page carries no guidance.
const (
	SeedTreatmentPlaceholder = "Please consult a healthcare professional for specific treatment advice relative to this condition."
	SeedReferralPlaceholder  = "Refer to GP if symptoms persist."

	LiveTreatmentPlaceholder   = "Please consult a GP for specific guidance on this condition."
	LiveReferralPlaceholder    = "Refer to GP."
	LiveExplanationPlaceholder = "Information not available."
)

// SeedPlaceholders fills the non-descriptive fields of a seeded entry.
func SeedPlaceholders(e *ConditionEntry) {
	e.Stage = StageClinicalPresentation
	e.TreatmentGuidance = SeedTreatmentPlaceholder
	e.Medications = []string{"Consult Doctor"}
	e.Dos = []string{"Monitor symptoms", "Keep a symptom diary"}
	e.Donts = []string{"Do not self-medicate without advice"}
	e.Referral = SeedReferralPlaceholder
}

// LivePlaceholders fills the non-descriptive fields of a live-fetched entry.
func LivePlaceholders(e *ConditionEntry) {
	e.Stage = StageLiveWebResult
	e.TreatmentGuidance = LiveTreatmentPlaceholder
	e.Medications = []string{"Consult Doctor"}
	e.Dos = []string{"Monitor symptoms", "Consult NHS 111 if urgent"}
	e.Donts = []string{"Do not self-diagnose"}
	e.Referral = LiveReferralPlaceholder
}
