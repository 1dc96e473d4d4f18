// Copyright 2026 The Governance Hub Authors
// SPDX-License-Identifier: Apache-2.0

package parser

import (
	"encoding/xml"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/kefifahd-hub/project-governance-hub-sub001/lib/schema/schedule"
)

// mspXML parses Microsoft Project XML exports: Task elements under
// Project/Tasks. Slack values are in MSP's native units (tenths of
// minutes) and convert through the Units table; durations are ISO
// 8601-style PT#H#M#S strings.
type mspXML struct {
	units Units
}

// NewMSPXML returns the parser for Microsoft Project XML exports.
func NewMSPXML(units Units) Parser {
	return &mspXML{units: units}
}

type mspXMLProject struct {
	StatusDate string       `xml:"StatusDate"`
	Tasks      []mspXMLTask `xml:"Tasks>Task"`
}

type mspXMLTask struct {
	UID               string            `xml:"UID"`
	Name              string            `xml:"Name"`
	OutlineLevel      string            `xml:"OutlineLevel"`
	WBS               string            `xml:"WBS"`
	Milestone         string            `xml:"Milestone"`
	Summary           string            `xml:"Summary"`
	Critical          string            `xml:"Critical"`
	Start             string            `xml:"Start"`
	Finish            string            `xml:"Finish"`
	ActualStart       string            `xml:"ActualStart"`
	ActualFinish      string            `xml:"ActualFinish"`
	Duration          string            `xml:"Duration"`
	RemainingDuration string            `xml:"RemainingDuration"`
	PercentComplete   string            `xml:"PercentComplete"`
	TotalSlack        string            `xml:"TotalSlack"`
	FreeSlack         string            `xml:"FreeSlack"`
	Baselines         []mspXMLBaseline  `xml:"Baseline"`
	Notes             string            `xml:"Notes"`
}

type mspXMLBaseline struct {
	Number string `xml:"Number"`
	Start  string `xml:"Start"`
	Finish string `xml:"Finish"`
}

// mspDateLayouts are the timestamp forms seen in MSP XML exports.
var mspDateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
}

func (p *mspXML) Parse(data []byte, filename string) ([]schedule.Task, schedule.Summary, error) {
	var project mspXMLProject
	if err := xml.Unmarshal(data, &project); err != nil {
		return nil, schedule.Summary{}, fmt.Errorf("%w: %s: %v", ErrMalformedInput, filename, err)
	}
	if len(project.Tasks) == 0 {
		return nil, schedule.Summary{}, fmt.Errorf("%w: %s: no Task elements", ErrMalformedInput, filename)
	}

	var logNotes []string
	tasks := make([]schedule.Task, 0, len(project.Tasks))
	for _, row := range project.Tasks {
		task, err := p.taskFromXML(row)
		if err != nil {
			logNotes = append(logNotes, fmt.Sprintf("dropped task UID %q: %v", row.UID, err))
			continue
		}
		tasks = append(tasks, task)
	}
	if len(tasks) == 0 {
		return nil, schedule.Summary{}, fmt.Errorf("%w: %s: no usable tasks", ErrMalformedInput, filename)
	}

	tasks, dupNote := dedupeTasks(tasks)
	if dupNote != "" {
		logNotes = append(logNotes, dupNote)
	}

	summary := summarize(tasks)
	if dataDate, err := parseDate(project.StatusDate, mspDateLayouts...); err == nil {
		summary.DataDate = dataDate
	}

	summary.ImportLog = fmt.Sprintf("msp-xml: %d tasks, %d milestones", summary.TaskCount, summary.MilestoneCount)
	if len(logNotes) > 0 {
		summary.ImportLog += "; " + strings.Join(logNotes, "; ")
	}

	return tasks, summary, nil
}

func (p *mspXML) taskFromXML(row mspXMLTask) (schedule.Task, error) {
	externalID := strings.TrimSpace(row.UID)
	if externalID == "" {
		return schedule.Task{}, fmt.Errorf("missing UID")
	}

	plannedStart, err := parseDate(row.Start, mspDateLayouts...)
	if err != nil {
		return schedule.Task{}, err
	}
	plannedFinish, err := parseDate(row.Finish, mspDateLayouts...)
	if err != nil {
		return schedule.Task{}, err
	}
	actualStart, _ := parseDate(row.ActualStart, mspDateLayouts...)
	actualFinish, _ := parseDate(row.ActualFinish, mspDateLayouts...)

	var baselineStart, baselineFinish string
	for _, baseline := range row.Baselines {
		// Baseline 0 is the project baseline; later numbers are
		// interim baselines.
		if baseline.Number == "0" || baseline.Number == "" {
			baselineStart = baseline.Start
			baselineFinish = baseline.Finish
			break
		}
	}
	baseStart, _ := parseDate(baselineStart, mspDateLayouts...)
	baseFinish, _ := parseDate(baselineFinish, mspDateLayouts...)

	totalFloat := p.units.SlackToDays(parseFloatDefault(row.TotalSlack, 0))
	freeFloat := p.units.SlackToDays(parseFloatDefault(row.FreeSlack, 0))

	wbsLevel := 0
	if parsed, err := strconv.Atoi(strings.TrimSpace(row.OutlineLevel)); err == nil && parsed > 0 {
		// MSP outline levels are 1-based; normalize to 0-based depth.
		wbsLevel = parsed - 1
	}

	percent := clampPercent(parseFloatDefault(row.PercentComplete, 0))

	task := schedule.Task{
		ExternalID:            externalID,
		ExternalWBS:           row.WBS,
		Name:                  row.Name,
		Type:                  mspTaskType(row),
		WBSLevel:              wbsLevel,
		PlannedStart:          plannedStart,
		PlannedFinish:         plannedFinish,
		ActualStart:           actualStart,
		ActualFinish:          actualFinish,
		BaselineStart:         baseStart,
		BaselineFinish:        baseFinish,
		DurationDays:          p.units.HoursToDays(mspDurationHours(row.Duration)),
		RemainingDurationDays: p.units.HoursToDays(mspDurationHours(row.RemainingDuration)),
		PercentComplete:       percent,
		TotalFloatDays:        totalFloat,
		FreeFloatDays:         freeFloat,
		IsCritical:            totalFloat <= 0 || mspFlag(row.Critical),
		Status:                mspTaskStatus(percent, actualStart, actualFinish),
		Notes:                 row.Notes,
	}
	return task, nil
}

// mspTaskType classifies from MSP's Milestone/Summary flags. MSP has
// no level-of-effort concept.
func mspTaskType(row mspXMLTask) schedule.TaskType {
	switch {
	case mspFlag(row.Milestone):
		return schedule.TaskTypeMilestone
	case mspFlag(row.Summary):
		return schedule.TaskTypeSummary
	default:
		return schedule.TaskTypeTask
	}
}

// mspTaskStatus derives status: MSP XML has no explicit status field,
// so it falls out of percent complete and actual dates.
func mspTaskStatus(percent float64, actualStart, actualFinish time.Time) schedule.TaskStatus {
	switch {
	case percent >= 100 || !actualFinish.IsZero():
		return schedule.StatusComplete
	case percent > 0 || !actualStart.IsZero():
		return schedule.StatusInProgress
	default:
		return schedule.StatusNotStarted
	}
}

// mspFlag parses MSP's 0/1 boolean elements.
func mspFlag(value string) bool {
	return strings.TrimSpace(value) == "1"
}

// mspDurationPattern matches MSP's PT#H#M#S duration strings.
var mspDurationPattern = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?$`)

// mspDurationHours converts an MSP duration string to hours. Returns
// 0 for empty or unrecognized input — durations are best-effort.
func mspDurationHours(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	match := mspDurationPattern.FindStringSubmatch(value)
	if match == nil {
		return 0
	}
	hours := parseFloatDefault(match[1], 0)
	minutes := parseFloatDefault(match[2], 0)
	seconds := parseFloatDefault(match[3], 0)
	return hours + minutes/60 + seconds/3600
}
