// Copyright 2026 The Governance Hub Authors
// SPDX-License-Identifier: Apache-2.0

package scheduleui

import (
	"strings"
	"testing"
	"time"

	"github.com/kefifahd-hub/project-governance-hub-sub001/lib/schema/schedule"
)

func testRenderer() Renderer {
	return NewRenderer(DefaultTheme())
}

func TestRenderDeltasEmpty(t *testing.T) {
	out := testRenderer().RenderDeltas(nil)
	if !strings.Contains(out, "no deltas") {
		t.Errorf("output = %q, want a no-deltas line", out)
	}
}

func TestRenderDeltasShowsValuesAndOrder(t *testing.T) {
	deltas := []schedule.Delta{
		{
			ExternalID:   "A1000",
			TaskName:     "Erect Block",
			Change:       schedule.ChangeDateShift,
			FieldChanged: "planned_finish",
			OldValue:     "2026-08-28",
			NewValue:     "2026-09-17",
			VarianceDays: 20,
			Impact:       schedule.ImpactMajor,
		},
		{
			ExternalID:   "A1020",
			TaskName:     "Inspect Block",
			Change:       schedule.ChangeNewTask,
			FieldChanged: schedule.FieldAll,
			Impact:       schedule.ImpactInfo,
		},
	}

	out := testRenderer().RenderDeltas(deltas)
	for _, want := range []string{"A1000", "2026-08-28", "2026-09-17", "A1020", "major", "date_shift"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "A1000") > strings.Index(out, "A1020") {
		t.Error("rows rendered out of input order")
	}
}

func TestRenderVersionsMarksBaselineAndCurrent(t *testing.T) {
	versions := []schedule.Version{
		{
			Label:      "V002",
			ImportDate: time.Date(2026, time.August, 31, 10, 0, 0, 0, time.UTC),
			TaskCount:  3,
			IsCurrent:  true,
			FileName:   "week2.csv",
		},
		{
			Label:      "V001",
			ImportDate: time.Date(2026, time.August, 24, 10, 0, 0, 0, time.UTC),
			TaskCount:  2,
			IsBaseline: true,
			FileName:   "week1.csv",
		},
	}

	out := testRenderer().RenderVersions(versions)
	for _, want := range []string{"V001", "V002", "week1.csv", "week2.csv", "2026-08-24"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderSummaryIncludesImportLog(t *testing.T) {
	summary := schedule.Summary{
		TaskCount:      2,
		MilestoneCount: 1,
		ProjectStart:   time.Date(2026, time.August, 3, 0, 0, 0, 0, time.UTC),
		ProjectFinish:  time.Date(2026, time.September, 20, 0, 0, 0, 0, time.UTC),
		ImportLog:      "csv: 2 tasks from 3 data rows; 1 rows dropped",
	}

	out := testRenderer().RenderSummary(summary)
	if !strings.Contains(out, "rows dropped") {
		t.Errorf("output missing import log:\n%s", out)
	}
	if !strings.Contains(out, "2026-09-20") {
		t.Errorf("output missing project finish:\n%s", out)
	}
}

func TestRenderWBSMappingsShowsUnmappedMarker(t *testing.T) {
	mappings := []schedule.WBSMapping{
		{ID: 1, ExternalCode: "HULL.QA", DisplayName: "Inspect Block", FirstSeen: time.Now()},
		{ID: 2, ExternalCode: "HULL.STEEL", UnifiedCode: "SHIP.HULL.S", IsMapped: true, FirstSeen: time.Now()},
	}

	out := testRenderer().RenderWBSMappings(mappings)
	if !strings.Contains(out, "HULL.QA") || !strings.Contains(out, "SHIP.HULL.S") {
		t.Errorf("output missing mapping rows:\n%s", out)
	}
}
