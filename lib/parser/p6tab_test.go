// Copyright 2026 The Governance Hub Authors
// SPDX-License-Identifier: Apache-2.0

package parser

import (
	"errors"
	"strings"
	"testing"
	"time"
)

// xerFixture assembles a small but structurally complete XER export:
// preamble, PROJECT, two-level PROJWBS, resources with assignments,
// three TASK rows (one unusable), relationships, end marker.
func xerFixture() []byte {
	lines := []string{
		"ERMHDR\t19.12\t2026-08-24",
		"%T\tPROJECT",
		"%F\tproj_id\tlast_recalc_date",
		"%R\tP1\t2026-08-24 17:00",
		"%T\tPROJWBS",
		"%F\twbs_id\twbs_short_name\tparent_wbs_id",
		"%R\tW1\tHULL\t",
		"%R\tW2\tHULL.STEEL\tW1",
		"%T\tRSRC",
		"%F\trsrc_id\trsrc_name",
		"%R\tR1\tWelding Crew A",
		"%T\tTASKRSRC",
		"%F\ttask_id\trsrc_id",
		"%R\tT1\tR1",
		"%T\tTASK",
		"%F\ttask_id\ttask_code\ttask_name\ttask_type\tstatus_code\twbs_id\ttarget_start_date\ttarget_end_date\tact_start_date\tact_end_date\ttarget_drtn_hr_cnt\tremain_drtn_hr_cnt\ttotal_float_hr_cnt\tfree_float_hr_cnt\tphys_complete_pct\tsuspend_date",
		"%R\tT1\tA1000\tErect Block 12\tTT_Task\tTK_Active\tW2\t2026-08-03 08:00\t2026-08-28 17:00\t2026-08-03 08:00\t\t160\t80\t40\t16\t50\t",
		"%R\tT2\tM1000\tKeel Laid\tTT_Mile\tTK_NotStart\tW1\t2026-09-01 08:00\t2026-09-01 08:00\t\t\t0\t0\t0\t0\t0\t",
		"%R\tT3\t\tRow Without Code\tTT_Task\tTK_NotStart\tW1\t2026-09-01 08:00\t2026-09-02 17:00",
		"%T\tTASKPRED",
		"%F\ttask_pred_id\ttask_id\tpred_task_id",
		"%R\tTP1\tT2\tT1",
		"%E",
	}
	return []byte(strings.Join(lines, "\n"))
}

func TestP6TabularParse(t *testing.T) {
	tasks, summary, err := NewP6Tabular(DefaultUnits()).Parse(xerFixture(), "weekly.xer")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(tasks) != 2 {
		t.Fatalf("got %d tasks, want 2 (row without task_code dropped)", len(tasks))
	}

	block := tasks[0]
	if block.ExternalID != "A1000" {
		t.Fatalf("ExternalID = %q, want A1000", block.ExternalID)
	}
	if block.Name != "Erect Block 12" {
		t.Errorf("Name = %q", block.Name)
	}
	if block.ExternalWBS != "HULL.STEEL" {
		t.Errorf("ExternalWBS = %q, want HULL.STEEL", block.ExternalWBS)
	}
	if block.WBSLevel != 1 {
		t.Errorf("WBSLevel = %d, want 1", block.WBSLevel)
	}
	wantStart := time.Date(2026, time.August, 3, 0, 0, 0, 0, time.UTC)
	if !block.PlannedStart.Equal(wantStart) {
		t.Errorf("PlannedStart = %v, want %v (time of day truncated)", block.PlannedStart, wantStart)
	}
	if block.DurationDays != 20 {
		t.Errorf("DurationDays = %d, want 20 (160h at 8h/day)", block.DurationDays)
	}
	if block.RemainingDurationDays != 10 {
		t.Errorf("RemainingDurationDays = %d, want 10", block.RemainingDurationDays)
	}
	if block.TotalFloatDays != 5 {
		t.Errorf("TotalFloatDays = %d, want 5 (40h at 8h/day)", block.TotalFloatDays)
	}
	if block.FreeFloatDays != 2 {
		t.Errorf("FreeFloatDays = %d, want 2", block.FreeFloatDays)
	}
	if block.PercentComplete != 50 {
		t.Errorf("PercentComplete = %g, want 50", block.PercentComplete)
	}
	if block.IsCritical {
		t.Error("IsCritical = true for a task with 5 days of float")
	}
	if block.Status != "in_progress" {
		t.Errorf("Status = %q, want in_progress", block.Status)
	}
	if len(block.ResourceNames) != 1 || block.ResourceNames[0] != "Welding Crew A" {
		t.Errorf("ResourceNames = %v, want [Welding Crew A]", block.ResourceNames)
	}

	milestone := tasks[1]
	if milestone.ExternalID != "M1000" {
		t.Fatalf("ExternalID = %q, want M1000", milestone.ExternalID)
	}
	if milestone.Type != "milestone" {
		t.Errorf("Type = %q, want milestone", milestone.Type)
	}
	if !milestone.IsCritical {
		t.Error("IsCritical = false for a zero-float milestone")
	}
	if milestone.ExternalWBS != "HULL" {
		t.Errorf("ExternalWBS = %q, want HULL", milestone.ExternalWBS)
	}
	if milestone.WBSLevel != 0 {
		t.Errorf("WBSLevel = %d, want 0", milestone.WBSLevel)
	}

	// Summary rollups.
	if summary.TaskCount != 2 {
		t.Errorf("TaskCount = %d, want 2", summary.TaskCount)
	}
	if summary.MilestoneCount != 1 {
		t.Errorf("MilestoneCount = %d, want 1", summary.MilestoneCount)
	}
	if summary.WBSDepth != 1 {
		t.Errorf("WBSDepth = %d, want 1", summary.WBSDepth)
	}
	if summary.CriticalTaskCount != 1 {
		t.Errorf("CriticalTaskCount = %d, want 1", summary.CriticalTaskCount)
	}
	if summary.MinTotalFloatDays != 0 {
		t.Errorf("MinTotalFloatDays = %d, want 0", summary.MinTotalFloatDays)
	}
	if summary.RelationshipCount != 1 {
		t.Errorf("RelationshipCount = %d, want 1", summary.RelationshipCount)
	}
	wantDataDate := time.Date(2026, time.August, 24, 0, 0, 0, 0, time.UTC)
	if !summary.DataDate.Equal(wantDataDate) {
		t.Errorf("DataDate = %v, want %v", summary.DataDate, wantDataDate)
	}
	if !strings.Contains(summary.ImportLog, "dropped row") {
		t.Errorf("ImportLog = %q, want a dropped-row note", summary.ImportLog)
	}
}

func TestP6TabularSuspendDateWins(t *testing.T) {
	lines := []string{
		"%T\tTASK",
		"%F\ttask_code\ttask_name\tstatus_code\ttarget_start_date\ttarget_end_date\tsuspend_date",
		"%R\tA1\tPaused Task\tTK_Active\t2026-08-03 08:00\t2026-08-28 17:00\t2026-08-15 12:00",
	}
	tasks, _, err := NewP6Tabular(DefaultUnits()).Parse([]byte(strings.Join(lines, "\n")), "paused.xer")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if tasks[0].Status != "suspended" {
		t.Errorf("Status = %q, want suspended", tasks[0].Status)
	}
}

func TestP6TabularMalformedInputs(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty file", ""},
		{"no table blocks", "just some text\nwith no markers"},
		{"no task table", "%T\tPROJECT\n%F\tproj_id\n%R\tP1"},
		{"row before header", "%R\tT1\tA1000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := NewP6Tabular(DefaultUnits()).Parse([]byte(tt.data), "bad.xer")
			if !errors.Is(err, ErrMalformedInput) {
				t.Errorf("Parse() error = %v, want ErrMalformedInput", err)
			}
		})
	}
}

func TestP6TabularShortRowsDefaultEmpty(t *testing.T) {
	// The third row has fewer cells than the header; trailing fields
	// default to empty rather than erroring.
	lines := []string{
		"%T\tTASK",
		"%F\ttask_code\ttask_name\ttarget_start_date\ttarget_end_date\ttotal_float_hr_cnt",
		"%R\tA1\tShort Row\t2026-08-03\t2026-08-28",
	}
	tasks, _, err := NewP6Tabular(DefaultUnits()).Parse([]byte(strings.Join(lines, "\n")), "short.xer")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if tasks[0].TotalFloatDays != 0 {
		t.Errorf("TotalFloatDays = %d, want 0 for a missing cell", tasks[0].TotalFloatDays)
	}
}
