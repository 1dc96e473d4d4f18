// Copyright 2026 The Governance Hub Authors
// SPDX-License-Identifier: Apache-2.0

package parser

import (
	"fmt"
	"strings"

	"github.com/kefifahd-hub/project-governance-hub-sub001/lib/schema/schedule"
)

// p6Tabular parses Primavera P6 tabular exports (.xer). The format is
// a sequence of table blocks: a %T line naming the table, a %F line
// listing field names, then %R data rows matched positionally against
// the header, all tab-delimited. Unknown tables are ignored; missing
// fields default to empty strings.
type p6Tabular struct {
	units Units
}

// NewP6Tabular returns the parser for P6 tabular exports.
func NewP6Tabular(units Units) Parser {
	return &p6Tabular{units: units}
}

// Table names and the activity-type / status codes used by P6
// exports. Milestones and WBS rollups classify from task_type;
// criticality is total float at or below zero.
const (
	p6TableTask         = "TASK"
	p6TableWBS          = "PROJWBS"
	p6TableProject      = "PROJECT"
	p6TableRelationship = "TASKPRED"
	p6TableResource     = "RSRC"
	p6TableAssignment   = "TASKRSRC"
)

// p6Table is one parsed table block: rows of field name → value.
type p6Table struct {
	name string
	rows []map[string]string
}

// p6DateLayouts are the timestamp forms seen in XER exports.
var p6DateLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (p *p6Tabular) Parse(data []byte, filename string) ([]schedule.Task, schedule.Summary, error) {
	tables, err := parseP6Tables(data)
	if err != nil {
		return nil, schedule.Summary{}, fmt.Errorf("%w: %s: %v", ErrMalformedInput, filename, err)
	}

	taskTable, ok := tables[p6TableTask]
	if !ok || len(taskTable.rows) == 0 {
		return nil, schedule.Summary{}, fmt.Errorf("%w: %s: no TASK table", ErrMalformedInput, filename)
	}

	var logNotes []string

	// WBS short names and depth from PROJWBS parent chains.
	wbsCodes, wbsLevels := p6WBSIndex(tables[p6TableWBS])
	if tables[p6TableWBS] == nil {
		logNotes = append(logNotes, "no PROJWBS table; WBS codes unavailable")
	}

	// Resource names from RSRC joined through TASKRSRC.
	resourceNames := p6ResourceIndex(tables[p6TableResource], tables[p6TableAssignment])

	tasks := make([]schedule.Task, 0, len(taskTable.rows))
	for _, row := range taskTable.rows {
		task, err := p.taskFromRow(row, wbsCodes, wbsLevels, resourceNames)
		if err != nil {
			// One bad row degrades confidence, it does not sink the
			// import.
			logNotes = append(logNotes, fmt.Sprintf("dropped row %q: %v", row["task_code"], err))
			continue
		}
		tasks = append(tasks, task)
	}
	if len(tasks) == 0 {
		return nil, schedule.Summary{}, fmt.Errorf("%w: %s: TASK table yielded no usable rows", ErrMalformedInput, filename)
	}

	tasks, dupNote := dedupeTasks(tasks)
	if dupNote != "" {
		logNotes = append(logNotes, dupNote)
	}

	summary := summarize(tasks)

	if project, ok := tables[p6TableProject]; ok && len(project.rows) > 0 {
		dataDate, err := parseDate(project.rows[0]["last_recalc_date"], p6DateLayouts...)
		if err == nil {
			summary.DataDate = dataDate
		}
	} else {
		logNotes = append(logNotes, "no PROJECT table; data date unavailable")
	}

	if relationships, ok := tables[p6TableRelationship]; ok {
		summary.RelationshipCount = len(relationships.rows)
	} else {
		logNotes = append(logNotes, "no TASKPRED table")
	}

	summary.ImportLog = fmt.Sprintf("p6-tabular: %d tasks, %d milestones, %d relationships from %d tables",
		summary.TaskCount, summary.MilestoneCount, summary.RelationshipCount, len(tables))
	if len(logNotes) > 0 {
		summary.ImportLog += "; " + strings.Join(logNotes, "; ")
	}

	return tasks, summary, nil
}

// parseP6Tables splits the byte stream into table blocks. Tolerates
// multiple tables per file and rows with fewer cells than the header
// (missing trailing fields default empty).
func parseP6Tables(data []byte) (map[string]*p6Table, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("empty file")
	}

	tables := make(map[string]*p6Table)
	var current *p6Table
	var fields []string

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}

		cells := strings.Split(line, "\t")
		switch cells[0] {
		case "%T":
			if len(cells) < 2 {
				return nil, fmt.Errorf("table marker with no table name")
			}
			current = &p6Table{name: cells[1]}
			tables[cells[1]] = current
			fields = nil

		case "%F":
			if current == nil {
				return nil, fmt.Errorf("field header before any table marker")
			}
			fields = cells[1:]

		case "%R":
			if current == nil || fields == nil {
				return nil, fmt.Errorf("data row before table header")
			}
			row := make(map[string]string, len(fields))
			for i, field := range fields {
				if i+1 < len(cells) {
					row[field] = cells[i+1]
				} else {
					row[field] = ""
				}
			}
			current.rows = append(current.rows, row)

		default:
			// %E end marker, ERMHDR preamble, anything else: ignored.
		}
	}

	if len(tables) == 0 {
		return nil, fmt.Errorf("no table blocks found")
	}
	return tables, nil
}

// p6WBSIndex builds wbs_id → short name and wbs_id → depth maps from
// the PROJWBS table. Depth is the parent-chain length, with a cycle
// guard for malformed exports.
func p6WBSIndex(table *p6Table) (codes map[string]string, levels map[string]int) {
	codes = make(map[string]string)
	levels = make(map[string]int)
	if table == nil {
		return codes, levels
	}

	parents := make(map[string]string)
	for _, row := range table.rows {
		id := row["wbs_id"]
		if id == "" {
			continue
		}
		codes[id] = row["wbs_short_name"]
		parents[id] = row["parent_wbs_id"]
	}

	for id := range codes {
		level := 0
		for parent := parents[id]; parent != "" && level < len(parents); parent = parents[parent] {
			if _, known := codes[parent]; !known {
				break
			}
			level++
		}
		levels[id] = level
	}
	return codes, levels
}

// p6ResourceIndex joins TASKRSRC assignments to RSRC names, producing
// task_id → resource names. Either table may be absent.
func p6ResourceIndex(resources, assignments *p6Table) map[string][]string {
	byTask := make(map[string][]string)
	if resources == nil || assignments == nil {
		return byTask
	}

	names := make(map[string]string, len(resources.rows))
	for _, row := range resources.rows {
		if row["rsrc_id"] != "" {
			names[row["rsrc_id"]] = row["rsrc_name"]
		}
	}

	for _, row := range assignments.rows {
		taskID := row["task_id"]
		name := names[row["rsrc_id"]]
		if taskID == "" || name == "" {
			continue
		}
		byTask[taskID] = append(byTask[taskID], name)
	}
	return byTask
}

func (p *p6Tabular) taskFromRow(row map[string]string, wbsCodes map[string]string, wbsLevels map[string]int, resources map[string][]string) (schedule.Task, error) {
	externalID := strings.TrimSpace(row["task_code"])
	if externalID == "" {
		return schedule.Task{}, fmt.Errorf("missing task_code")
	}

	plannedStart, err := parseDate(row["target_start_date"], p6DateLayouts...)
	if err != nil {
		return schedule.Task{}, err
	}
	plannedFinish, err := parseDate(row["target_end_date"], p6DateLayouts...)
	if err != nil {
		return schedule.Task{}, err
	}
	actualStart, _ := parseDate(row["act_start_date"], p6DateLayouts...)
	actualFinish, _ := parseDate(row["act_end_date"], p6DateLayouts...)

	totalFloat := p.units.HoursToDays(parseFloatDefault(row["total_float_hr_cnt"], 0))
	freeFloat := p.units.HoursToDays(parseFloatDefault(row["free_float_hr_cnt"], 0))

	task := schedule.Task{
		ExternalID:            externalID,
		ExternalWBS:           wbsCodes[row["wbs_id"]],
		Name:                  row["task_name"],
		Type:                  p6TaskType(row["task_type"]),
		WBSLevel:              wbsLevels[row["wbs_id"]],
		PlannedStart:          plannedStart,
		PlannedFinish:         plannedFinish,
		ActualStart:           actualStart,
		ActualFinish:          actualFinish,
		DurationDays:          p.units.HoursToDays(parseFloatDefault(row["target_drtn_hr_cnt"], 0)),
		RemainingDurationDays: p.units.HoursToDays(parseFloatDefault(row["remain_drtn_hr_cnt"], 0)),
		PercentComplete:       clampPercent(parseFloatDefault(row["phys_complete_pct"], 0)),
		TotalFloatDays:        totalFloat,
		FreeFloatDays:         freeFloat,
		IsCritical:            totalFloat <= 0,
		Status:                p6TaskStatus(row["status_code"], row["suspend_date"]),
		ResourceNames:         resources[row["task_id"]],
	}
	return task, nil
}

// p6TaskType maps P6 activity-type codes onto the normalized task
// types. Unrecognized codes default to plain tasks.
func p6TaskType(code string) schedule.TaskType {
	switch code {
	case "TT_Mile", "TT_FinMile":
		return schedule.TaskTypeMilestone
	case "TT_WBS":
		return schedule.TaskTypeSummary
	case "TT_LOE":
		return schedule.TaskTypeLevelOfEffort
	default:
		return schedule.TaskTypeTask
	}
}

// p6TaskStatus maps P6 status codes. A non-empty suspend date wins
// over the status code.
func p6TaskStatus(code, suspendDate string) schedule.TaskStatus {
	if strings.TrimSpace(suspendDate) != "" {
		return schedule.StatusSuspended
	}
	switch code {
	case "TK_Active":
		return schedule.StatusInProgress
	case "TK_Complete":
		return schedule.StatusComplete
	default:
		return schedule.StatusNotStarted
	}
}
