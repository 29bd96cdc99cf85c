package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"mednerd/internal/articulation"
	"mednerd/internal/types"
)

var (
	primary     = lipgloss.Color("#101F38")
	accent      = lipgloss.Color("#8BC34A")
	muted       = lipgloss.Color("#6b7785")
	destructive = lipgloss.Color("#e53935")
	warning     = lipgloss.Color("#FFC107")
	info        = lipgloss.Color("#2196F3")

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(primary)
	headingStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(muted)
	accentStyle  = lipgloss.NewStyle().Foreground(accent)
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
	boxStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 1)
)

// riskStyle colours a risk level badge.
func riskStyle(level string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	switch level {
	case articulation.RiskHigh:
		return base.Foreground(lipgloss.Color("#ffffff")).Background(destructive)
	case articulation.RiskModerateHigh, articulation.RiskModerate:
		return base.Foreground(primary).Background(warning)
	case articulation.RiskLowModerate:
		return base.Foreground(primary).Background(accent)
	default:
		return base.Foreground(lipgloss.Color("#ffffff")).Background(info)
	}
}

func renderResponse(r types.AnalysisResponse) string {
	var sb strings.Builder

	header := lipgloss.JoinHorizontal(lipgloss.Center,
		titleStyle.Render(r.ProbableCondition), "  ", riskStyle(r.RiskLevel).Render(r.RiskLevel))
	sb.WriteString(header)
	sb.WriteString("\n")
	sb.WriteString(mutedStyle.Render(r.DiseaseStage))
	sb.WriteString("\n\n")
	sb.WriteString(r.DetailedExplanation)
	sb.WriteString("\n")

	section(&sb, "Treatment", []string{r.TreatmentGuidance})
	section(&sb, "Medications", r.Medications)
	section(&sb, "Do", r.PatientDos)
	section(&sb, "Don't", r.PatientDonts)
	section(&sb, "Referral", []string{r.ReferralRecommendation})

	return boxStyle.Render(strings.TrimRight(sb.String(), "\n"))
}

func renderSummary(summary string) string {
	return headingStyle.Render("Report summary") + "\n" + mutedStyle.Render(summary)
}

func renderEntry(e *types.ConditionEntry) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(e.Condition))
	sb.WriteString("\n")
	sb.WriteString(mutedStyle.Render(fmt.Sprintf("%s · keywords: %s", e.Stage, strings.Join(e.Keywords, ", "))))
	sb.WriteString("\n\n")
	sb.WriteString(e.Explanation)
	sb.WriteString("\n")

	section(&sb, "Treatment", []string{e.TreatmentGuidance})
	section(&sb, "Medications", e.Medications)
	section(&sb, "Do", e.Dos)
	section(&sb, "Don't", e.Donts)
	section(&sb, "Referral", []string{e.Referral})

	return boxStyle.Render(strings.TrimRight(sb.String(), "\n"))
}

func section(sb *strings.Builder, title string, lines []string) {
	var nonEmpty []string
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			nonEmpty = append(nonEmpty, l)
		}
	}
	if len(nonEmpty) == 0 {
		return
	}
	sb.WriteString("\n")
	sb.WriteString(headingStyle.Render(title))
	sb.WriteString("\n")
	for _, l := range nonEmpty {
		sb.WriteString("  • ")
		sb.WriteString(l)
		sb.WriteString("\n")
	}
}
