// Copyright 2026 The Governance Hub Authors
// SPDX-License-Identifier: Apache-2.0

package delta

import (
	"testing"
	"time"

	"github.com/kefifahd-hub/project-governance-hub-sub001/lib/schema/schedule"
)

// --- Test helpers ---

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// makeTask returns a plain in-progress task with sensible defaults.
// Override fields after construction as needed.
func makeTask(externalID string) schedule.Task {
	return schedule.Task{
		ExternalID:      externalID,
		Name:            "Task " + externalID,
		Type:            schedule.TaskTypeTask,
		PlannedStart:    date(2026, time.March, 2),
		PlannedFinish:   date(2026, time.March, 20),
		DurationDays:    14,
		PercentComplete: 25,
		TotalFloatDays:  20,
		Status:          schedule.StatusInProgress,
	}
}

// shiftFinish returns a copy with the planned finish moved by days.
func shiftFinish(task schedule.Task, days int) schedule.Task {
	task.PlannedFinish = task.PlannedFinish.AddDate(0, 0, days)
	return task
}

func onlyDelta(t *testing.T, deltas []schedule.Delta) schedule.Delta {
	t.Helper()
	if len(deltas) != 1 {
		t.Fatalf("got %d deltas, want 1: %+v", len(deltas), deltas)
	}
	return deltas[0]
}

// --- Date shift classification ---

func TestDateShiftBuckets(t *testing.T) {
	tests := []struct {
		name string
		days int
		want schedule.ImpactLevel
	}{
		{"below minor threshold", 4, schedule.ImpactInfo},
		{"at minor threshold", 5, schedule.ImpactMinor},
		{"between minor and major", 10, schedule.ImpactMinor},
		{"at major threshold", 15, schedule.ImpactMajor},
		{"at critical threshold stays major", 30, schedule.ImpactMajor},
		{"past critical threshold", 31, schedule.ImpactCritical},
		{"large slip", 45, schedule.ImpactCritical},
		{"early finish classifies on magnitude", -20, schedule.ImpactMajor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldTask := makeTask("A100")
			newTask := shiftFinish(oldTask, tt.days)

			deltas := Diff([]schedule.Task{oldTask}, []schedule.Task{newTask}, DefaultThresholds())
			delta := onlyDelta(t, deltas)

			if delta.Change != schedule.ChangeDateShift {
				t.Fatalf("Change = %q, want %q", delta.Change, schedule.ChangeDateShift)
			}
			if delta.VarianceDays != tt.days {
				t.Errorf("VarianceDays = %d, want %d", delta.VarianceDays, tt.days)
			}
			if delta.Impact != tt.want {
				t.Errorf("Impact = %v, want %v", delta.Impact, tt.want)
			}
		})
	}
}

func TestDateShiftOnCriticalPathIsAlwaysCritical(t *testing.T) {
	oldTask := makeTask("A100")
	oldTask.IsCritical = true
	newTask := shiftFinish(oldTask, 6)

	delta := onlyDelta(t, Diff([]schedule.Task{oldTask}, []schedule.Task{newTask}, DefaultThresholds()))
	if delta.Impact != schedule.ImpactCritical {
		t.Errorf("Impact = %v, want %v for a critical-path task", delta.Impact, schedule.ImpactCritical)
	}
	if !delta.AffectsCriticalPath {
		t.Error("AffectsCriticalPath = false, want true")
	}
}

func TestFinishDateAppearingOrDisappearingStaysInfo(t *testing.T) {
	// Rows without a parseable finish carry a zero date. A transition
	// between absent and present has no day variance to bucket and
	// must never escalate off the 292-year zero-time gap.
	tests := []struct {
		name    string
		old     time.Time
		new     time.Time
		oldWant string
		newWant string
	}{
		{"date appears", time.Time{}, date(2026, time.March, 1), "", "2026-03-01"},
		{"date disappears", date(2026, time.March, 1), time.Time{}, "2026-03-01", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldTask := makeTask("A100")
			oldTask.PlannedFinish = tt.old
			newTask := makeTask("A100")
			newTask.PlannedFinish = tt.new
			newTask.IsCritical = true

			delta := onlyDelta(t, Diff([]schedule.Task{oldTask}, []schedule.Task{newTask}, DefaultThresholds()))
			if delta.Change != schedule.ChangeDateShift {
				t.Fatalf("Change = %q, want %q", delta.Change, schedule.ChangeDateShift)
			}
			if delta.VarianceDays != 0 {
				t.Errorf("VarianceDays = %d, want 0", delta.VarianceDays)
			}
			if delta.Impact != schedule.ImpactInfo {
				t.Errorf("Impact = %v, want %v", delta.Impact, schedule.ImpactInfo)
			}
			if delta.OldValue != tt.oldWant || delta.NewValue != tt.newWant {
				t.Errorf("values = %q → %q, want %q → %q", delta.OldValue, delta.NewValue, tt.oldWant, tt.newWant)
			}
		})
	}
}

func TestUnchangedFinishEmitsNothing(t *testing.T) {
	task := makeTask("A100")
	if deltas := Diff([]schedule.Task{task}, []schedule.Task{task}, DefaultThresholds()); len(deltas) != 0 {
		t.Fatalf("got %d deltas for identical tasks, want 0", len(deltas))
	}
}

// --- Progress updates ---

func TestProgressUpdateIsInformational(t *testing.T) {
	oldTask := makeTask("A100")
	newTask := oldTask
	newTask.PercentComplete = 60

	delta := onlyDelta(t, Diff([]schedule.Task{oldTask}, []schedule.Task{newTask}, DefaultThresholds()))
	if delta.Change != schedule.ChangeProgressUpdate {
		t.Fatalf("Change = %q, want %q", delta.Change, schedule.ChangeProgressUpdate)
	}
	if delta.Impact != schedule.ImpactInfo {
		t.Errorf("Impact = %v, want %v", delta.Impact, schedule.ImpactInfo)
	}
	if delta.OldValue != "25%" || delta.NewValue != "60%" {
		t.Errorf("values = %q → %q, want 25%% → 60%%", delta.OldValue, delta.NewValue)
	}
}

// --- Float changes ---

func TestFloatChangeBelowNoiseFloorIsSuppressed(t *testing.T) {
	oldTask := makeTask("A100")
	newTask := oldTask
	newTask.TotalFloatDays = oldTask.TotalFloatDays - 4

	if deltas := Diff([]schedule.Task{oldTask}, []schedule.Task{newTask}, DefaultThresholds()); len(deltas) != 0 {
		t.Fatalf("got %d deltas for sub-floor float drift, want 0", len(deltas))
	}
}

func TestFloatCrossingBelowBandIsMajor(t *testing.T) {
	oldTask := makeTask("A100")
	oldTask.TotalFloatDays = 12
	newTask := oldTask
	newTask.TotalFloatDays = 3

	delta := onlyDelta(t, Diff([]schedule.Task{oldTask}, []schedule.Task{newTask}, DefaultThresholds()))
	if delta.Change != schedule.ChangeFloatChange {
		t.Fatalf("Change = %q, want %q", delta.Change, schedule.ChangeFloatChange)
	}
	if delta.Impact != schedule.ImpactMajor {
		t.Errorf("Impact = %v, want %v", delta.Impact, schedule.ImpactMajor)
	}
	if delta.VarianceDays != -9 {
		t.Errorf("VarianceDays = %d, want -9", delta.VarianceDays)
	}
}

func TestFloatShiftClearOfBandIsMinor(t *testing.T) {
	oldTask := makeTask("A100")
	oldTask.TotalFloatDays = 40
	newTask := oldTask
	newTask.TotalFloatDays = 25

	delta := onlyDelta(t, Diff([]schedule.Task{oldTask}, []schedule.Task{newTask}, DefaultThresholds()))
	if delta.Impact != schedule.ImpactMinor {
		t.Errorf("Impact = %v, want %v", delta.Impact, schedule.ImpactMinor)
	}
}

func TestSmallFloatShiftAboveFloorIsInfo(t *testing.T) {
	oldTask := makeTask("A100")
	oldTask.TotalFloatDays = 40
	newTask := oldTask
	newTask.TotalFloatDays = 33

	delta := onlyDelta(t, Diff([]schedule.Task{oldTask}, []schedule.Task{newTask}, DefaultThresholds()))
	if delta.Impact != schedule.ImpactInfo {
		t.Errorf("Impact = %v, want %v", delta.Impact, schedule.ImpactInfo)
	}
}

// --- Appearance and removal ---

func TestNewTaskIsInformational(t *testing.T) {
	newTask := makeTask("B200")
	delta := onlyDelta(t, Diff(nil, []schedule.Task{newTask}, DefaultThresholds()))

	if delta.Change != schedule.ChangeNewTask {
		t.Fatalf("Change = %q, want %q", delta.Change, schedule.ChangeNewTask)
	}
	if delta.Impact != schedule.ImpactInfo {
		t.Errorf("Impact = %v, want %v", delta.Impact, schedule.ImpactInfo)
	}
	if delta.FieldChanged != schedule.FieldAll {
		t.Errorf("FieldChanged = %q, want %q", delta.FieldChanged, schedule.FieldAll)
	}
}

func TestDeletedTaskIsAtLeastMinor(t *testing.T) {
	oldTask := makeTask("B200")
	delta := onlyDelta(t, Diff([]schedule.Task{oldTask}, nil, DefaultThresholds()))

	if delta.Change != schedule.ChangeDeletedTask {
		t.Fatalf("Change = %q, want %q", delta.Change, schedule.ChangeDeletedTask)
	}
	if delta.Impact != schedule.ImpactMinor {
		t.Errorf("Impact = %v, want %v", delta.Impact, schedule.ImpactMinor)
	}
}

func TestDeletedMilestoneFlagged(t *testing.T) {
	oldTask := makeTask("M1")
	oldTask.Type = schedule.TaskTypeMilestone

	delta := onlyDelta(t, Diff([]schedule.Task{oldTask}, nil, DefaultThresholds()))
	if !delta.AffectsMilestone {
		t.Error("AffectsMilestone = false, want true")
	}
}

// --- Multiple deltas per task ---

func TestOneTaskCanEmitSeveralDeltas(t *testing.T) {
	oldTask := makeTask("A100")
	oldTask.TotalFloatDays = 12

	newTask := shiftFinish(oldTask, 16)
	newTask.PercentComplete = 50
	newTask.TotalFloatDays = 2

	deltas := Diff([]schedule.Task{oldTask}, []schedule.Task{newTask}, DefaultThresholds())
	if len(deltas) != 3 {
		t.Fatalf("got %d deltas, want 3 (date shift, progress, float): %+v", len(deltas), deltas)
	}

	byChange := make(map[schedule.ChangeType]schedule.Delta, len(deltas))
	for _, d := range deltas {
		byChange[d.Change] = d
	}
	if byChange[schedule.ChangeDateShift].Impact != schedule.ImpactMajor {
		t.Errorf("date shift Impact = %v, want %v", byChange[schedule.ChangeDateShift].Impact, schedule.ImpactMajor)
	}
	if byChange[schedule.ChangeProgressUpdate].Impact != schedule.ImpactInfo {
		t.Errorf("progress Impact = %v, want %v", byChange[schedule.ChangeProgressUpdate].Impact, schedule.ImpactInfo)
	}
	if byChange[schedule.ChangeFloatChange].Impact != schedule.ImpactMajor {
		t.Errorf("float Impact = %v, want %v", byChange[schedule.ChangeFloatChange].Impact, schedule.ImpactMajor)
	}
}

// --- Determinism and ordering ---

func TestDiffIsDeterministic(t *testing.T) {
	oldTasks := []schedule.Task{makeTask("A100"), makeTask("B200"), makeTask("C300")}
	newTasks := []schedule.Task{
		shiftFinish(makeTask("A100"), 20),
		shiftFinish(makeTask("B200"), 6),
		makeTask("D400"),
	}

	first := Diff(oldTasks, newTasks, DefaultThresholds())
	for run := 0; run < 5; run++ {
		again := Diff(oldTasks, newTasks, DefaultThresholds())
		if len(again) != len(first) {
			t.Fatalf("run %d: got %d deltas, want %d", run, len(again), len(first))
		}
		for i := range first {
			if again[i] != first[i] {
				t.Fatalf("run %d: delta %d differs: %+v vs %+v", run, i, again[i], first[i])
			}
		}
	}
}

func TestSortBySeverityOrdersMostSevereFirst(t *testing.T) {
	oldTasks := []schedule.Task{makeTask("A100"), makeTask("B200"), makeTask("C300")}

	critical := shiftFinish(makeTask("A100"), 40)
	minor := shiftFinish(makeTask("B200"), 7)
	major := shiftFinish(makeTask("C300"), 20)
	newTasks := []schedule.Task{minor, critical, major, makeTask("E500")}

	deltas := Diff(oldTasks, newTasks, DefaultThresholds())
	SortBySeverity(deltas)

	want := []schedule.ImpactLevel{
		schedule.ImpactCritical,
		schedule.ImpactMajor,
		schedule.ImpactMinor,
		schedule.ImpactInfo,
	}
	if len(deltas) != len(want) {
		t.Fatalf("got %d deltas, want %d", len(deltas), len(want))
	}
	for i, impact := range want {
		if deltas[i].Impact != impact {
			t.Errorf("deltas[%d].Impact = %v, want %v", i, deltas[i].Impact, impact)
		}
	}
}
