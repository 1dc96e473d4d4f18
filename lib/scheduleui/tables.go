// Copyright 2026 The Governance Hub Authors
// SPDX-License-Identifier: Apache-2.0

package scheduleui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/kefifahd-hub/project-governance-hub-sub001/lib/schema/schedule"
)

const dateLayout = "2006-01-02"

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(dateLayout)
}

// Renderer produces styled tables from ledger entities.
type Renderer struct {
	theme  Theme
	header lipgloss.Style
	normal lipgloss.Style
	faint  lipgloss.Style
}

// NewRenderer creates a Renderer with the given theme.
func NewRenderer(theme Theme) Renderer {
	return Renderer{
		theme:  theme,
		header: lipgloss.NewStyle().Foreground(theme.HeaderForeground).Bold(true),
		normal: lipgloss.NewStyle().Foreground(theme.NormalText),
		faint:  lipgloss.NewStyle().Foreground(theme.FaintText),
	}
}

// RenderDeltas renders a delta review table, one row per delta in
// the given order (callers pass severity-sorted slices). Critical
// path involvement is marked with ● and milestones with ◆.
func (r Renderer) RenderDeltas(deltas []schedule.Delta) string {
	if len(deltas) == 0 {
		return r.faint.Render("no deltas") + "\n"
	}

	var b strings.Builder
	b.WriteString(r.header.Render(fmt.Sprintf("%-8s %-10s %-14s %-12s %6s  %s",
		"IMPACT", "TASK", "CHANGE", "FIELD", "DAYS", "DETAIL")))
	b.WriteString("\n")

	for i := range deltas {
		d := &deltas[i]
		impactStyle := lipgloss.NewStyle().Foreground(r.theme.ImpactColor(d.Impact))

		marker := " "
		if d.AffectsCriticalPath {
			marker = lipgloss.NewStyle().Foreground(r.theme.CriticalPathAccent).Render("●")
		} else if d.AffectsMilestone {
			marker = lipgloss.NewStyle().Foreground(r.theme.MilestoneAccent).Render("◆")
		}

		detail := d.TaskName
		if d.OldValue != "" || d.NewValue != "" {
			detail = fmt.Sprintf("%s  %s → %s", d.TaskName, valueOrDash(d.OldValue), valueOrDash(d.NewValue))
		}
		if d.Acknowledged {
			detail += r.faint.Render("  (acked)")
		}

		b.WriteString(fmt.Sprintf("%s %s %s %s %s  %s\n",
			impactStyle.Render(fmt.Sprintf("%-8s", d.Impact)),
			r.normal.Render(fmt.Sprintf("%-10s", d.ExternalID)),
			r.normal.Render(fmt.Sprintf("%-14s", d.Change)),
			r.faint.Render(fmt.Sprintf("%-12s", d.FieldChanged)),
			r.normal.Render(fmt.Sprintf("%5d%s", d.VarianceDays, marker)),
			detail,
		))
	}
	return b.String()
}

func valueOrDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}

// RenderVersions renders a version history table, newest first.
// The current version is marked with ▶ and the baseline with B.
func (r Renderer) RenderVersions(versions []schedule.Version) string {
	if len(versions) == 0 {
		return r.faint.Render("no versions") + "\n"
	}

	var b strings.Builder
	b.WriteString(r.header.Render(fmt.Sprintf("%-2s %-6s %-11s %-11s %6s %6s %6s  %s",
		"", "VER", "IMPORTED", "DATA DATE", "TASKS", "DELTAS", "CRIT", "FILE")))
	b.WriteString("\n")

	for i := range versions {
		v := &versions[i]

		marker := "  "
		if v.IsCurrent {
			marker = lipgloss.NewStyle().Foreground(r.theme.CurrentAccent).Render("▶ ")
		}
		label := v.Label
		if v.IsBaseline {
			label += lipgloss.NewStyle().Foreground(r.theme.BaselineAccent).Render(" B")
		}

		b.WriteString(fmt.Sprintf("%s%s %s %s %s %s %s  %s\n",
			marker,
			r.normal.Render(padRight(label, 6)),
			r.normal.Render(fmt.Sprintf("%-11s", formatDate(v.ImportDate))),
			r.normal.Render(fmt.Sprintf("%-11s", formatDate(v.DataDate))),
			r.normal.Render(fmt.Sprintf("%6d", v.TaskCount)),
			r.normal.Render(fmt.Sprintf("%6d", v.DeltaCount)),
			r.normal.Render(fmt.Sprintf("%6d", v.CriticalDeltaCount)),
			r.faint.Render(v.FileName),
		))
	}
	return b.String()
}

// padRight pads by display width so styled labels line up.
func padRight(s string, width int) string {
	gap := width - lipgloss.Width(s)
	if gap <= 0 {
		return s
	}
	return s + strings.Repeat(" ", gap)
}

// RenderSources renders the source overview table.
func (r Renderer) RenderSources(sources []schedule.Source) string {
	if len(sources) == 0 {
		return r.faint.Render("no sources registered") + "\n"
	}

	var b strings.Builder
	b.WriteString(r.header.Render(fmt.Sprintf("%-14s %-20s %-5s %-5s %-11s %6s  %s",
		"ID", "NAME", "TOOL", "FMT", "LAST SYNC", "TASKS", "STATUS")))
	b.WriteString("\n")

	for i := range sources {
		s := &sources[i]
		b.WriteString(fmt.Sprintf("%s %s %s %s %s %s  %s\n",
			r.normal.Render(fmt.Sprintf("%-14s", s.ID)),
			r.normal.Render(fmt.Sprintf("%-20s", s.Name)),
			r.faint.Render(fmt.Sprintf("%-5s", s.Tool)),
			r.faint.Render(fmt.Sprintf("%-5s", s.Format)),
			r.normal.Render(fmt.Sprintf("%-11s", formatDate(s.LastSyncDate))),
			r.normal.Render(fmt.Sprintf("%6d", s.TaskCount)),
			r.faint.Render(s.LastSyncStatus),
		))
	}
	return b.String()
}

// RenderWBSMappings renders the reconciliation feed. Unmapped codes
// show a ? in place of the unified code.
func (r Renderer) RenderWBSMappings(mappings []schedule.WBSMapping) string {
	if len(mappings) == 0 {
		return r.faint.Render("no WBS codes discovered") + "\n"
	}

	var b strings.Builder
	b.WriteString(r.header.Render(fmt.Sprintf("%-6s %-16s %-24s %-12s %-14s %s",
		"ID", "CODE", "NAME", "UNIFIED", "WORKSTREAM", "FIRST SEEN")))
	b.WriteString("\n")

	for i := range mappings {
		m := &mappings[i]
		unified := m.UnifiedCode
		if !m.IsMapped {
			unified = lipgloss.NewStyle().Foreground(r.theme.ImpactColors[schedule.ImpactMinor]).Render("?")
		}
		b.WriteString(fmt.Sprintf("%s %s %s %s %s %s\n",
			r.faint.Render(fmt.Sprintf("%-6d", m.ID)),
			r.normal.Render(fmt.Sprintf("%-16s", m.ExternalCode)),
			r.normal.Render(fmt.Sprintf("%-24s", truncate(m.DisplayName, 24))),
			padRight(unified, 12),
			r.normal.Render(fmt.Sprintf("%-14s", m.Workstream)),
			r.faint.Render(formatDate(m.FirstSeen)),
		))
	}
	return b.String()
}

// RenderPreview renders the dry-run result: the summary block, the
// import log, and the full delta table.
func (r Renderer) RenderPreview(preview schedule.Preview) string {
	var b strings.Builder

	b.WriteString(r.header.Render(fmt.Sprintf("preview for %s → %s", preview.SourceID, preview.NextVersionLabel)))
	b.WriteString("\n\n")
	b.WriteString(r.RenderSummary(preview.Summary))

	if preview.DeltaCount > 0 {
		b.WriteString("\n")
		b.WriteString(r.normal.Render(fmt.Sprintf("%d deltas (%d critical)",
			preview.DeltaCount, preview.CriticalDeltaCount)))
		b.WriteString("\n")
		b.WriteString(r.RenderDeltas(preview.Deltas))
	}
	return b.String()
}

// RenderSummary renders an import summary block.
func (r Renderer) RenderSummary(summary schedule.Summary) string {
	var b strings.Builder

	line := func(label string, value string) {
		b.WriteString(r.faint.Render(fmt.Sprintf("%-16s", label)))
		b.WriteString(r.normal.Render(value))
		b.WriteString("\n")
	}

	line("tasks", fmt.Sprintf("%d (%d milestones, %d critical)",
		summary.TaskCount, summary.MilestoneCount, summary.CriticalTaskCount))
	line("wbs depth", fmt.Sprintf("%d", summary.WBSDepth))
	line("window", fmt.Sprintf("%s → %s",
		formatDate(summary.ProjectStart), formatDate(summary.ProjectFinish)))
	line("data date", formatDate(summary.DataDate))
	line("min float", fmt.Sprintf("%d days", summary.MinTotalFloatDays))
	if summary.RelationshipCount > 0 {
		line("relationships", fmt.Sprintf("%d", summary.RelationshipCount))
	}

	if summary.ImportLog != "" {
		b.WriteString(r.faint.Render("log             " + summary.ImportLog))
		b.WriteString("\n")
	}
	return b.String()
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-1]) + "…"
}
