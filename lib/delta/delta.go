// Copyright 2026 The Governance Hub Authors
// SPDX-License-Identifier: Apache-2.0

// Package delta computes structured differences between two imports
// of the same schedule source.
//
// Diff is a pure function: no I/O, deterministic given its inputs,
// idempotent. Tasks are joined by ExternalID; a single task may
// produce several deltas in one pass (a date shift and a progress
// update, say). Severity classification runs off the named Thresholds
// table so the policy is auditable and testable independently of
// parsing.
package delta

import (
	"fmt"
	"sort"
	"time"

	"github.com/kefifahd-hub/project-governance-hub-sub001/lib/schema/schedule"
)

// Thresholds is the severity classification policy, in days. All
// values are positive; DefaultThresholds matches the governance
// team's review policy.
type Thresholds struct {
	// Date-shift buckets on |variance|: >= Minor is minor, >= Major
	// is major, > Critical is critical. A shift on a critical-path
	// task is critical at any magnitude.
	DateShiftMinor    int
	DateShiftMajor    int
	DateShiftCritical int

	// FloatNoiseFloor suppresses float changes with |delta| below it
	// entirely — sub-threshold float drift is noise.
	FloatNoiseFloor int

	// FloatCriticalBand marks the major case: float crossing from
	// at-or-above the band to below it.
	FloatCriticalBand int

	// FloatMinorShift is the |delta| at which a float change that
	// stays clear of the band still rates minor.
	FloatMinorShift int
}

// DefaultThresholds returns the standard policy: date shifts bucket
// at 5/15/30 days, float changes gate at 5, band at 10, minor at 14.
func DefaultThresholds() Thresholds {
	return Thresholds{
		DateShiftMinor:    5,
		DateShiftMajor:    15,
		DateShiftCritical: 30,
		FloatNoiseFloor:   5,
		FloatCriticalBand: 10,
		FloatMinorShift:   14,
	}
}

// Diff compares the previous current task set against a new import
// and returns the detected changes, unsorted (emission order:
// new/changed tasks in newTasks order, then deletions in oldTasks
// order). Callers wanting severity-first presentation apply
// SortBySeverity.
func Diff(oldTasks, newTasks []schedule.Task, thresholds Thresholds) []schedule.Delta {
	oldIndex := indexByExternalID(oldTasks)
	newIndex := indexByExternalID(newTasks)

	var deltas []schedule.Delta

	for i := range newTasks {
		newTask := &newTasks[i]
		oldTask, existed := oldIndex[newTask.ExternalID]
		if !existed {
			deltas = append(deltas, newTaskDelta(newTask))
			continue
		}
		deltas = append(deltas, compareTask(oldTask, newTask, thresholds)...)
	}

	for i := range oldTasks {
		oldTask := &oldTasks[i]
		if _, present := newIndex[oldTask.ExternalID]; !present {
			deltas = append(deltas, deletedTaskDelta(oldTask))
		}
	}

	return deltas
}

func indexByExternalID(tasks []schedule.Task) map[string]*schedule.Task {
	index := make(map[string]*schedule.Task, len(tasks))
	for i := range tasks {
		index[tasks[i].ExternalID] = &tasks[i]
	}
	return index
}

func newTaskDelta(task *schedule.Task) schedule.Delta {
	return schedule.Delta{
		ExternalID:          task.ExternalID,
		TaskName:            task.Name,
		Change:              schedule.ChangeNewTask,
		FieldChanged:        schedule.FieldAll,
		NewValue:            task.Name,
		Impact:              schedule.ImpactInfo,
		AffectsCriticalPath: task.IsCritical,
		AffectsMilestone:    task.Type == schedule.TaskTypeMilestone,
	}
}

// deletedTaskDelta rates deletions Minor, never Info: a task leaving
// the schedule always needs review.
func deletedTaskDelta(task *schedule.Task) schedule.Delta {
	return schedule.Delta{
		ExternalID:          task.ExternalID,
		TaskName:            task.Name,
		Change:              schedule.ChangeDeletedTask,
		FieldChanged:        schedule.FieldAll,
		OldValue:            task.Name,
		Impact:              schedule.ImpactMinor,
		AffectsCriticalPath: task.IsCritical,
		AffectsMilestone:    task.Type == schedule.TaskTypeMilestone,
	}
}

// compareTask emits the per-field deltas for a task present in both
// sets. Each comparison is independent.
func compareTask(oldTask, newTask *schedule.Task, thresholds Thresholds) []schedule.Delta {
	var deltas []schedule.Delta

	base := schedule.Delta{
		ExternalID:          newTask.ExternalID,
		TaskName:            newTask.Name,
		AffectsCriticalPath: newTask.IsCritical,
		AffectsMilestone:    newTask.Type == schedule.TaskTypeMilestone,
	}

	if !newTask.PlannedFinish.Equal(oldTask.PlannedFinish) {
		shift := base
		shift.Change = schedule.ChangeDateShift
		shift.FieldChanged = "planned_finish"
		shift.OldValue = formatDate(oldTask.PlannedFinish)
		shift.NewValue = formatDate(newTask.PlannedFinish)
		if oldTask.PlannedFinish.IsZero() || newTask.PlannedFinish.IsZero() {
			// A finish date appearing or disappearing has no day
			// variance to bucket; surface it without escalating.
			shift.Impact = schedule.ImpactInfo
		} else {
			variance := wholeDays(oldTask.PlannedFinish, newTask.PlannedFinish)
			shift.VarianceDays = variance
			shift.Impact = thresholds.classifyDateShift(variance, newTask.IsCritical)
		}
		deltas = append(deltas, shift)
	}

	if newTask.PercentComplete != oldTask.PercentComplete {
		// Progress changes are informational, never escalated.
		progress := base
		progress.Change = schedule.ChangeProgressUpdate
		progress.FieldChanged = "percent_complete"
		progress.OldValue = formatPercent(oldTask.PercentComplete)
		progress.NewValue = formatPercent(newTask.PercentComplete)
		progress.Impact = schedule.ImpactInfo
		deltas = append(deltas, progress)
	}

	if floatDelta := newTask.TotalFloatDays - oldTask.TotalFloatDays; abs(floatDelta) >= thresholds.FloatNoiseFloor {
		change := base
		change.Change = schedule.ChangeFloatChange
		change.FieldChanged = "total_float_days"
		change.OldValue = fmt.Sprintf("%d", oldTask.TotalFloatDays)
		change.NewValue = fmt.Sprintf("%d", newTask.TotalFloatDays)
		change.VarianceDays = floatDelta
		change.Impact = thresholds.classifyFloatChange(oldTask.TotalFloatDays, newTask.TotalFloatDays)
		deltas = append(deltas, change)
	}

	return deltas
}

// classifyDateShift buckets a planned-finish variance. Critical-path
// tasks rate critical for any shift large enough to emit a delta.
func (t Thresholds) classifyDateShift(varianceDays int, critical bool) schedule.ImpactLevel {
	magnitude := abs(varianceDays)
	switch {
	case magnitude > t.DateShiftCritical || critical:
		return schedule.ImpactCritical
	case magnitude >= t.DateShiftMajor:
		return schedule.ImpactMajor
	case magnitude >= t.DateShiftMinor:
		return schedule.ImpactMinor
	default:
		return schedule.ImpactInfo
	}
}

// classifyFloatChange rates a float movement that already cleared the
// noise floor. Crossing below the critical band from at-or-above it
// is major; a large drift that stays clear of the band is minor.
func (t Thresholds) classifyFloatChange(oldFloat, newFloat int) schedule.ImpactLevel {
	switch {
	case oldFloat >= t.FloatCriticalBand && newFloat < t.FloatCriticalBand:
		return schedule.ImpactMajor
	case abs(newFloat-oldFloat) >= t.FloatMinorShift:
		return schedule.ImpactMinor
	default:
		return schedule.ImpactInfo
	}
}

// SortBySeverity orders deltas most severe first (critical, major,
// minor, info), stable within a level by external ID then change
// type. Downstream escalation banners rely on this ordering to decide
// what to surface first.
func SortBySeverity(deltas []schedule.Delta) {
	sort.SliceStable(deltas, func(i, j int) bool {
		if deltas[i].Impact != deltas[j].Impact {
			return deltas[i].Impact > deltas[j].Impact
		}
		if deltas[i].ExternalID != deltas[j].ExternalID {
			return deltas[i].ExternalID < deltas[j].ExternalID
		}
		return deltas[i].Change < deltas[j].Change
	})
}

// wholeDays returns the signed day count from one calendar date to
// another. Dates are already truncated to UTC midnight by the
// parsers, so this is exact.
func wholeDays(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatPercent(value float64) string {
	return fmt.Sprintf("%g%%", value)
}

func abs(value int) int {
	if value < 0 {
		return -value
	}
	return value
}
