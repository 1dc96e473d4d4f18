// Copyright 2026 The Governance Hub Authors
// SPDX-License-Identifier: Apache-2.0

package parser

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/kefifahd-hub/project-governance-hub-sub001/lib/schema/schedule"
)

// csvParser is the fallback of last resort: a header-driven reader
// that matches columns against synonym lists and keeps whatever rows
// it can resolve. It should never reject a recognizable CSV outright;
// partial recognition is acceptable and reported honestly in the
// import log. CSV rows are never classified as milestones.
type csvParser struct{}

// NewCSV returns the generic CSV fallback parser.
func NewCSV() Parser {
	return &csvParser{}
}

// csvColumn is one logical column the parser tries to resolve from
// the header row.
type csvColumn int

const (
	csvColumnID csvColumn = iota
	csvColumnName
	csvColumnStart
	csvColumnFinish
	csvColumnPercent
	csvColumnFloat
	csvColumnWBS
)

// csvSynonyms maps each logical column to header substrings, in fixed
// priority order. Matching is case-insensitive "contains": a header
// of "Activity ID" resolves the id column, "% Complete" resolves
// percent, "Description" resolves name.
var csvSynonyms = map[csvColumn][]string{
	csvColumnID:      {"activity id", "task id", "unique id", "id"},
	csvColumnName:    {"activity name", "task name", "description", "name", "title"},
	csvColumnStart:   {"planned start", "early start", "start"},
	csvColumnFinish:  {"planned finish", "early finish", "finish", "end"},
	csvColumnPercent: {"% complete", "percent complete", "pct complete", "complete"},
	csvColumnFloat:   {"total float", "total slack", "float", "slack"},
	csvColumnWBS:     {"wbs"},
}

// csvResolveOrder fixes the order in which columns claim headers, so
// that "finish" never steals a header that "start" should have taken
// and resolution is deterministic.
var csvResolveOrder = []csvColumn{
	csvColumnID, csvColumnName, csvColumnStart, csvColumnFinish,
	csvColumnPercent, csvColumnFloat, csvColumnWBS,
}

// csvDateLayouts are the date forms accepted in CSV cells.
var csvDateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"02-Jan-06",
	"2-Jan-06",
	"2006-01-02 15:04",
}

func (p *csvParser) Parse(data []byte, filename string) ([]schedule.Task, schedule.Summary, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, schedule.Summary{}, fmt.Errorf("%w: %s: empty CSV", ErrMalformedInput, filename)
	}

	columns := resolveCSVColumns(header)
	if _, ok := columns[csvColumnName]; !ok {
		return nil, schedule.Summary{}, fmt.Errorf("%w: %s: no resolvable name column in header", ErrMalformedInput, filename)
	}

	var tasks []schedule.Task
	dropped := 0
	rowNumber := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		rowNumber++
		if err != nil {
			// A ragged or quoted-wrong row is dropped, not fatal.
			dropped++
			continue
		}

		task, ok := csvTaskFromRecord(record, columns, rowNumber)
		if !ok {
			dropped++
			continue
		}
		tasks = append(tasks, task)
	}

	if len(tasks) == 0 {
		return nil, schedule.Summary{}, fmt.Errorf("%w: %s: no data rows with a name value", ErrMalformedInput, filename)
	}

	parsedRows := len(tasks)
	tasks, dupNote := dedupeTasks(tasks)

	summary := summarize(tasks)
	summary.ImportLog = fmt.Sprintf("csv: %d tasks from %d data rows", summary.TaskCount, parsedRows+dropped)
	if dropped > 0 {
		summary.ImportLog += fmt.Sprintf("; %d rows dropped (no name value or unreadable)", dropped)
	}
	if dupNote != "" {
		summary.ImportLog += "; " + dupNote
	}

	return tasks, summary, nil
}

// resolveCSVColumns matches header cells against the synonym lists.
// Each logical column claims the first unclaimed header that contains
// one of its synonyms, in priority order.
func resolveCSVColumns(header []string) map[csvColumn]int {
	lowered := make([]string, len(header))
	for i, cell := range header {
		lowered[i] = strings.ToLower(strings.TrimSpace(cell))
	}

	columns := make(map[csvColumn]int)
	claimed := make(map[int]bool)

	for _, column := range csvResolveOrder {
	synonyms:
		for _, synonym := range csvSynonyms[column] {
			for i, cell := range lowered {
				if claimed[i] || cell == "" {
					continue
				}
				if strings.Contains(cell, synonym) {
					columns[column] = i
					claimed[i] = true
					break synonyms
				}
			}
		}
	}
	return columns
}

// csvTaskFromRecord builds a task from one data row. Rows without a
// resolvable name are dropped (ok=false) rather than failing the
// import. A missing id column falls back to the row number so the
// task still has a stable join key within this source.
func csvTaskFromRecord(record []string, columns map[csvColumn]int, rowNumber int) (schedule.Task, bool) {
	cell := func(column csvColumn) string {
		index, ok := columns[column]
		if !ok || index >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[index])
	}

	name := cell(csvColumnName)
	if name == "" {
		return schedule.Task{}, false
	}

	externalID := cell(csvColumnID)
	if externalID == "" {
		externalID = fmt.Sprintf("ROW-%d", rowNumber)
	}

	plannedStart, _ := parseDate(cell(csvColumnStart), csvDateLayouts...)
	plannedFinish, _ := parseDate(cell(csvColumnFinish), csvDateLayouts...)
	percent := clampPercent(parseFloatDefault(strings.TrimSuffix(cell(csvColumnPercent), "%"), 0))

	// CSV float values are taken as days directly — there is no unit
	// metadata to convert from.
	totalFloat := int(parseFloatDefault(cell(csvColumnFloat), 0))

	status := schedule.StatusNotStarted
	switch {
	case percent >= 100:
		status = schedule.StatusComplete
	case percent > 0:
		status = schedule.StatusInProgress
	}

	task := schedule.Task{
		ExternalID:      externalID,
		ExternalWBS:     cell(csvColumnWBS),
		Name:            name,
		Type:            schedule.TaskTypeTask,
		PlannedStart:    plannedStart,
		PlannedFinish:   plannedFinish,
		PercentComplete: percent,
		TotalFloatDays:  totalFloat,
		IsCritical:      totalFloat <= 0 && cell(csvColumnFloat) != "",
		Status:          status,
	}
	return task, true
}
