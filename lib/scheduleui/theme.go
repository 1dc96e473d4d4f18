// Copyright 2026 The Governance Hub Authors
// SPDX-License-Identifier: Apache-2.0

// Package scheduleui renders ledger entities as styled terminal
// tables: delta reviews, version histories, source overviews, and
// the WBS reconciliation feed. All output is plain line-oriented
// text suitable for piping; styling degrades gracefully when the
// terminal strips ANSI.
package scheduleui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/kefifahd-hub/project-governance-hub-sub001/lib/schema/schedule"
)

// Theme defines the color palette for schedule tables. Colors use
// lipgloss ANSI 256-color codes for broad terminal compatibility.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	HeaderForeground lipgloss.Color

	// Impact colors (indexed by ImpactLevel: info, minor, major,
	// critical).
	ImpactColors [4]lipgloss.Color

	// Markers for rows that need attention.
	CriticalPathAccent lipgloss.Color
	MilestoneAccent    lipgloss.Color

	// Baseline and current version markers.
	BaselineAccent lipgloss.Color
	CurrentAccent  lipgloss.Color
}

// DefaultTheme returns the standard palette.
func DefaultTheme() Theme {
	return Theme{
		NormalText:       lipgloss.Color("252"),
		FaintText:        lipgloss.Color("243"),
		HeaderForeground: lipgloss.Color("39"),
		ImpactColors: [4]lipgloss.Color{
			lipgloss.Color("243"), // info: faint
			lipgloss.Color("220"), // minor: yellow
			lipgloss.Color("208"), // major: orange
			lipgloss.Color("196"), // critical: red
		},
		CriticalPathAccent: lipgloss.Color("196"),
		MilestoneAccent:    lipgloss.Color("135"),
		BaselineAccent:     lipgloss.Color("72"),
		CurrentAccent:      lipgloss.Color("39"),
	}
}

// ImpactColor returns the color for an impact level. Out-of-range
// values return NormalText.
func (theme Theme) ImpactColor(impact schedule.ImpactLevel) lipgloss.Color {
	if int(impact) >= len(theme.ImpactColors) {
		return theme.NormalText
	}
	return theme.ImpactColors[impact]
}
