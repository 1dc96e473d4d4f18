// Copyright 2026 The Governance Hub Authors
// SPDX-License-Identifier: Apache-2.0

package schedule

import (
	"fmt"
	"time"
)

// TaskType classifies a schedule row. Parsers map each source format's
// native activity-type codes onto these four values.
type TaskType string

const (
	// TaskTypeTask is a regular work activity.
	TaskTypeTask TaskType = "task"

	// TaskTypeMilestone is a zero-duration marker (start or finish
	// milestone in P6 terms).
	TaskTypeMilestone TaskType = "milestone"

	// TaskTypeSummary is a WBS rollup row. Summaries carry dates
	// aggregated from their children and are never resource-loaded.
	TaskTypeSummary TaskType = "summary"

	// TaskTypeLevelOfEffort is an ongoing support activity whose
	// duration is derived from the activities it spans.
	TaskTypeLevelOfEffort TaskType = "level_of_effort"
)

// ParseTaskType parses the stored string form of a TaskType.
func ParseTaskType(s string) (TaskType, error) {
	switch TaskType(s) {
	case TaskTypeTask, TaskTypeMilestone, TaskTypeSummary, TaskTypeLevelOfEffort:
		return TaskType(s), nil
	}
	return "", fmt.Errorf("unknown task type %q", s)
}

// TaskStatus is the lifecycle state of a task as reported by the
// source tool.
type TaskStatus string

const (
	StatusNotStarted TaskStatus = "not_started"
	StatusInProgress TaskStatus = "in_progress"
	StatusComplete   TaskStatus = "complete"
	StatusSuspended  TaskStatus = "suspended"
)

// ParseTaskStatus parses the stored string form of a TaskStatus.
func ParseTaskStatus(s string) (TaskStatus, error) {
	switch TaskStatus(s) {
	case StatusNotStarted, StatusInProgress, StatusComplete, StatusSuspended:
		return TaskStatus(s), nil
	}
	return "", fmt.Errorf("unknown task status %q", s)
}

// Task is one schedule activity, milestone, or summary row, normalized
// from any source format. ExternalID is stable across imports from the
// same source — it is the join key for delta computation. Two tasks
// from different sources may share an ExternalID without conflict
// because deltas are computed per source.
//
// Calendar dates are stored truncated to UTC midnight. Absent dates
// are zero time.Time values; callers check IsZero.
type Task struct {
	// ExternalID is the source-native identifier (P6 activity ID,
	// MSP UID, CSV id column). Required, unique within one import.
	ExternalID string `cbor:"external_id"`

	// ExternalWBS is the raw WBS token from the source, unmapped.
	ExternalWBS string `cbor:"external_wbs,omitempty"`

	// Name is the activity name or description.
	Name string `cbor:"name"`

	// Type classifies the row.
	Type TaskType `cbor:"type"`

	// WBSLevel is the depth of the task's WBS node, 0 at the root.
	WBSLevel int `cbor:"wbs_level"`

	PlannedStart  time.Time `cbor:"planned_start,omitempty"`
	PlannedFinish time.Time `cbor:"planned_finish,omitempty"`
	ActualStart   time.Time `cbor:"actual_start,omitempty"`
	ActualFinish  time.Time `cbor:"actual_finish,omitempty"`
	BaselineStart time.Time `cbor:"baseline_start,omitempty"`
	BaselineFinish time.Time `cbor:"baseline_finish,omitempty"`

	// DurationDays and RemainingDurationDays are whole working days.
	// Sources that report hours are converted by the parser's unit
	// table (a lossy, intentional simplification — no working
	// calendar is consulted).
	DurationDays          int `cbor:"duration_days"`
	RemainingDurationDays int `cbor:"remaining_duration_days"`

	// PercentComplete is 0-100.
	PercentComplete float64 `cbor:"percent_complete"`

	// TotalFloatDays and FreeFloatDays are whole working days. Float
	// is read from the source file, never derived here.
	TotalFloatDays int `cbor:"total_float_days"`
	FreeFloatDays  int `cbor:"free_float_days"`

	// IsCritical is true when total float is at or below zero or the
	// source explicitly flags the task as critical.
	IsCritical bool `cbor:"is_critical"`

	Status TaskStatus `cbor:"status"`

	// ResourceNames lists assigned resource names, when the source
	// reports them.
	ResourceNames []string `cbor:"resource_names,omitempty"`

	Notes string `cbor:"notes,omitempty"`
}

// Summary is the per-import aggregate produced alongside the task set.
type Summary struct {
	TaskCount      int `cbor:"task_count"`
	MilestoneCount int `cbor:"milestone_count"`

	// WBSDepth is the maximum WBS level observed.
	WBSDepth int `cbor:"wbs_depth"`

	// ProjectStart and ProjectFinish are the min/max planned dates
	// across all tasks, since not every format carries a reliable
	// project-level field.
	ProjectStart  time.Time `cbor:"project_start,omitempty"`
	ProjectFinish time.Time `cbor:"project_finish,omitempty"`

	// DataDate is the as-of date reported by the source, when present.
	DataDate time.Time `cbor:"data_date,omitempty"`

	// CriticalTaskCount is the number of tasks on the critical path.
	CriticalTaskCount int `cbor:"critical_task_count"`

	// MinTotalFloatDays is the smallest total float observed.
	MinTotalFloatDays int `cbor:"min_total_float_days"`

	// RelationshipCount is the number of dependency rows seen in the
	// source. Relationships are counted, not modeled.
	RelationshipCount int `cbor:"relationship_count"`

	// ImportLog is a human-readable line describing how the import
	// went, including any degraded-confidence notes (dropped CSV
	// rows, missing tables).
	ImportLog string `cbor:"import_log"`
}

// ChangeType classifies one detected change between two imports.
type ChangeType string

const (
	ChangeNewTask        ChangeType = "new_task"
	ChangeDeletedTask    ChangeType = "deleted_task"
	ChangeDateShift      ChangeType = "date_shift"
	ChangeProgressUpdate ChangeType = "progress_update"
	ChangeFloatChange    ChangeType = "float_change"
)

// ImpactLevel orders delta severity. Higher values are more severe,
// so severity comparisons are integer comparisons.
type ImpactLevel uint8

const (
	ImpactInfo     ImpactLevel = 0
	ImpactMinor    ImpactLevel = 1
	ImpactMajor    ImpactLevel = 2
	ImpactCritical ImpactLevel = 3
)

// String returns the stored/displayed name of an impact level.
func (l ImpactLevel) String() string {
	switch l {
	case ImpactInfo:
		return "info"
	case ImpactMinor:
		return "minor"
	case ImpactMajor:
		return "major"
	case ImpactCritical:
		return "critical"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(l))
	}
}

// ParseImpactLevel parses the stored string form of an ImpactLevel.
func ParseImpactLevel(s string) (ImpactLevel, error) {
	switch s {
	case "info":
		return ImpactInfo, nil
	case "minor":
		return ImpactMinor, nil
	case "major":
		return ImpactMajor, nil
	case "critical":
		return ImpactCritical, nil
	}
	return 0, fmt.Errorf("unknown impact level %q", s)
}

// Delta is one detected change between the previous current task set
// and a new import for the same source. A Delta is immutable once
// created except for the Acknowledged/AcknowledgedAt pair, which a
// human reviewer may set after commit.
type Delta struct {
	// ID is the store-assigned identifier, 0 until persisted.
	ID int64

	ExternalID string
	TaskName   string
	Change     ChangeType

	// FieldChanged names the compared attribute, or "all" for
	// new/deleted tasks.
	FieldChanged string

	// OldValue and NewValue are stringified for display.
	OldValue string
	NewValue string

	// VarianceDays is the signed day difference for date and float
	// changes; 0 otherwise.
	VarianceDays int

	Impact ImpactLevel

	// AffectsCriticalPath is copied from the new task's criticality
	// (the old task's, for deletions).
	AffectsCriticalPath bool

	// AffectsMilestone is true when the task is a milestone.
	AffectsMilestone bool

	Acknowledged   bool
	AcknowledgedAt time.Time
}

// FieldAll is the FieldChanged value for NewTask and DeletedTask
// deltas.
const FieldAll = "all"

// Version is one committed import event for one source. Within a
// source, versions form a strictly ordered append-only sequence:
// exactly one is current, and the baseline flag, once set on the
// first version, never moves.
type Version struct {
	ID       int64
	SourceID string

	// Number is the 1-based sequence position; Label is its display
	// form ("V001"). Numbers are never reused or renumbered.
	Number int
	Label  string

	ImportDate time.Time
	DataDate   time.Time

	// FileRef identifies the retained upload blob; FileName and
	// FileDigest describe it. FileDigest is the hex SHA-256 of the
	// uncompressed bytes.
	FileRef    string
	FileName   string
	FileDigest string

	TaskCount          int
	MilestoneCount     int
	WBSDepth           int
	CriticalTaskCount  int
	DeltaCount         int
	CriticalDeltaCount int

	IsCurrent  bool
	IsBaseline bool

	Summary Summary
}

// FormatVersionLabel renders a version number in the ledger's fixed
// "V00N" form.
func FormatVersionLabel(n int) string {
	return fmt.Sprintf("V%03d", n)
}

// Source is a registered external schedule. Rollup fields are
// refreshed after each commit.
type Source struct {
	ID   string
	Name string

	// Tool identifies the planning tool ("p6" or "msp").
	Tool string

	// Format is the expected file format hint ("xer", "xml", "csv").
	Format string

	// SyncCadence is a free-form cadence note ("weekly", "monthly").
	SyncCadence string

	CreatedAt time.Time

	// Rollups.
	LastSyncDate   time.Time
	LastSyncStatus string
	DataDate       time.Time
	TaskCount      int
	BaselineCount  int
}

// WBSMapping is one external WBS code discovered for a source. Created
// lazily the first time a code is seen; never deleted; the unified
// assignment fields are written only by the human curation step.
type WBSMapping struct {
	ID       int64
	SourceID string

	// ExternalCode is the raw WBS token from the source.
	ExternalCode string

	// DisplayName is taken from the first task observed carrying the
	// code.
	DisplayName string

	// Curation fields, empty until a human maps the code.
	UnifiedCode string
	Workstream  string
	QualityGate string

	IsMapped  bool
	FirstSeen time.Time
}

// Preview is the result of parsing and diffing an upload before
// commit. It mutates nothing; the caller confirms by committing the
// same file.
type Preview struct {
	SourceID string

	// NextVersionLabel is the label the commit would assign.
	NextVersionLabel string

	Summary Summary

	// Deltas are sorted most severe first.
	Deltas []Delta

	TaskCount          int
	DeltaCount         int
	CriticalDeltaCount int
}
