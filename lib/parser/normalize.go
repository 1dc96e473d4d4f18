// Copyright 2026 The Governance Hub Authors
// SPDX-License-Identifier: Apache-2.0

package parser

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/kefifahd-hub/project-governance-hub-sub001/lib/schema/schedule"
)

// Units centralizes the unit-conversion divisors that vary by source
// tool and tool version. Divisors are configuration, not literals:
// real P6 calendars can define a different hours-per-day, and MSP
// TotalSlack units vary by file version. The engine applies these as
// fixed divisors — a documented approximation, not a working-calendar
// computation.
type Units struct {
	// P6HoursPerDay divides P6 hour-denominated duration and float
	// fields into days. Standard P6 calendars use 8.
	P6HoursPerDay int

	// MSPSlackUnitsPerDay divides MSP XML slack values into days.
	// MSP reports slack in tenths of minutes: 8h * 60min * 10 = 4800.
	MSPSlackUnitsPerDay int
}

// DefaultUnits returns the divisors for standard 8-hour-day calendars.
func DefaultUnits() Units {
	return Units{
		P6HoursPerDay:       8,
		MSPSlackUnitsPerDay: 4800,
	}
}

// HoursToDays converts P6 hours to whole working days, rounding to
// nearest. Lossy by design.
func (u Units) HoursToDays(hours float64) int {
	return int(math.Round(hours / float64(u.P6HoursPerDay)))
}

// SlackToDays converts MSP slack units to whole working days,
// rounding to nearest.
func (u Units) SlackToDays(slack float64) int {
	return int(math.Round(slack / float64(u.MSPSlackUnitsPerDay)))
}

// dateOnly truncates a timestamp to a UTC calendar date. Source files
// carry times of day (shift starts, 17:00 finishes) that are noise at
// the granularity this engine compares.
func dateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	u := t.UTC()
	year, month, day := u.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// parseDate tries each layout in order and truncates the result to a
// calendar date. Empty input yields zero time with no error.
func parseDate(value string, layouts ...string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return dateOnly(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", value)
}

// parseFloatDefault parses a float field, returning fallback for
// empty or unparseable input. Parsers treat numeric fields as
// best-effort: a malformed number in one row must not sink the whole
// import.
func parseFloatDefault(value string, fallback float64) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

// clampPercent bounds a percent-complete value to 0-100.
func clampPercent(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 100 {
		return 100
	}
	return value
}

// dedupeTasks drops tasks whose ExternalID repeats an earlier row,
// keeping the first occurrence. External IDs are the join key for
// delta computation and the ledger enforces uniqueness per version,
// so duplicates must not survive parsing. Returns the kept tasks and
// a log note, empty when no duplicates were present.
func dedupeTasks(tasks []schedule.Task) ([]schedule.Task, string) {
	seen := make(map[string]bool, len(tasks))
	kept := tasks[:0]
	dropped := 0
	for i := range tasks {
		if seen[tasks[i].ExternalID] {
			dropped++
			continue
		}
		seen[tasks[i].ExternalID] = true
		kept = append(kept, tasks[i])
	}
	if dropped == 0 {
		return kept, ""
	}
	return kept, fmt.Sprintf("%d duplicate-id rows dropped (first occurrence kept)", dropped)
}

// summarize computes the aggregate fields shared by every parser:
// counts, WBS depth, project start/finish as min/max planned dates,
// critical count, and minimum float.
func summarize(tasks []schedule.Task) schedule.Summary {
	summary := schedule.Summary{TaskCount: len(tasks)}

	first := true
	for i := range tasks {
		task := &tasks[i]

		if task.Type == schedule.TaskTypeMilestone {
			summary.MilestoneCount++
		}
		if task.WBSLevel > summary.WBSDepth {
			summary.WBSDepth = task.WBSLevel
		}
		if task.IsCritical {
			summary.CriticalTaskCount++
		}

		if !task.PlannedStart.IsZero() {
			if summary.ProjectStart.IsZero() || task.PlannedStart.Before(summary.ProjectStart) {
				summary.ProjectStart = task.PlannedStart
			}
		}
		if !task.PlannedFinish.IsZero() {
			if summary.ProjectFinish.IsZero() || task.PlannedFinish.After(summary.ProjectFinish) {
				summary.ProjectFinish = task.PlannedFinish
			}
		}

		if first || task.TotalFloatDays < summary.MinTotalFloatDays {
			summary.MinTotalFloatDays = task.TotalFloatDays
		}
		first = false
	}

	return summary
}
