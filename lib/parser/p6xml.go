// Copyright 2026 The Governance Hub Authors
// SPDX-License-Identifier: Apache-2.0

package parser

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/kefifahd-hub/project-governance-hub-sub001/lib/schema/schedule"
)

// p6XML parses Primavera P6 XML exports: Activity elements under
// Project, with WBS elements carrying the breakdown structure.
type p6XML struct {
	units Units
}

// NewP6XML returns the parser for P6 XML exports.
func NewP6XML(units Units) Parser {
	return &p6XML{units: units}
}

// p6XMLDocument mirrors the subset of the P6 XML export the engine
// projects. Projects may appear at the top level or under the
// APIBusinessObjects wrapper; xml.Unmarshal handles both through the
// nested element path.
type p6XMLDocument struct {
	Projects []p6XMLProject `xml:"Project"`
}

type p6XMLProject struct {
	DataDate   string          `xml:"DataDate"`
	WBS        []p6XMLWBS      `xml:"WBS"`
	Activities []p6XMLActivity `xml:"Activity"`
}

type p6XMLWBS struct {
	ObjectID       string `xml:"ObjectId"`
	Code           string `xml:"Code"`
	ParentObjectID string `xml:"ParentObjectId"`
}

type p6XMLActivity struct {
	ID                string  `xml:"Id"`
	Name              string  `xml:"Name"`
	Type              string  `xml:"Type"`
	Status            string  `xml:"Status"`
	StartDate         string  `xml:"StartDate"`
	FinishDate        string  `xml:"FinishDate"`
	ActualStartDate   string  `xml:"ActualStartDate"`
	ActualFinishDate  string  `xml:"ActualFinishDate"`
	PercentComplete   string  `xml:"PercentComplete"`
	PlannedDuration   string  `xml:"PlannedDuration"`
	RemainingDuration string  `xml:"RemainingDuration"`
	TotalFloat        string  `xml:"TotalFloat"`
	FreeFloat         string  `xml:"FreeFloat"`
	IsCritical        string  `xml:"IsCritical"`
	WBSObjectID       string  `xml:"WBSObjectId"`
	NotesToResources  string  `xml:"NotesToResources"`
}

// p6XMLDateLayouts are the timestamp forms seen in P6 XML exports.
var p6XMLDateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02",
}

func (p *p6XML) Parse(data []byte, filename string) ([]schedule.Task, schedule.Summary, error) {
	var document p6XMLDocument
	if err := xml.Unmarshal(data, &document); err != nil {
		return nil, schedule.Summary{}, fmt.Errorf("%w: %s: %v", ErrMalformedInput, filename, err)
	}

	var activities []p6XMLActivity
	var wbsNodes []p6XMLWBS
	var dataDateRaw string
	for _, project := range document.Projects {
		activities = append(activities, project.Activities...)
		wbsNodes = append(wbsNodes, project.WBS...)
		if dataDateRaw == "" {
			dataDateRaw = project.DataDate
		}
	}
	if len(activities) == 0 {
		return nil, schedule.Summary{}, fmt.Errorf("%w: %s: no Activity elements", ErrMalformedInput, filename)
	}

	wbsCodes, wbsLevels := p6XMLWBSIndex(wbsNodes)

	var logNotes []string
	tasks := make([]schedule.Task, 0, len(activities))
	for _, activity := range activities {
		task, err := p.taskFromActivity(activity, wbsCodes, wbsLevels)
		if err != nil {
			logNotes = append(logNotes, fmt.Sprintf("dropped activity %q: %v", activity.ID, err))
			continue
		}
		tasks = append(tasks, task)
	}
	if len(tasks) == 0 {
		return nil, schedule.Summary{}, fmt.Errorf("%w: %s: no usable activities", ErrMalformedInput, filename)
	}

	tasks, dupNote := dedupeTasks(tasks)
	if dupNote != "" {
		logNotes = append(logNotes, dupNote)
	}

	summary := summarize(tasks)
	if dataDate, err := parseDate(dataDateRaw, p6XMLDateLayouts...); err == nil {
		summary.DataDate = dataDate
	}

	summary.ImportLog = fmt.Sprintf("p6-xml: %d tasks, %d milestones", summary.TaskCount, summary.MilestoneCount)
	if len(logNotes) > 0 {
		summary.ImportLog += "; " + strings.Join(logNotes, "; ")
	}

	return tasks, summary, nil
}

// p6XMLWBSIndex builds ObjectId → code and ObjectId → depth maps from
// the WBS elements, walking parent chains with a cycle guard.
func p6XMLWBSIndex(nodes []p6XMLWBS) (codes map[string]string, levels map[string]int) {
	codes = make(map[string]string, len(nodes))
	levels = make(map[string]int, len(nodes))
	parents := make(map[string]string, len(nodes))

	for _, node := range nodes {
		if node.ObjectID == "" {
			continue
		}
		codes[node.ObjectID] = node.Code
		parents[node.ObjectID] = node.ParentObjectID
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

func (p *p6XML) taskFromActivity(activity p6XMLActivity, wbsCodes map[string]string, wbsLevels map[string]int) (schedule.Task, error) {
	externalID := strings.TrimSpace(activity.ID)
	if externalID == "" {
		return schedule.Task{}, fmt.Errorf("missing Id")
	}

	plannedStart, err := parseDate(activity.StartDate, p6XMLDateLayouts...)
	if err != nil {
		return schedule.Task{}, err
	}
	plannedFinish, err := parseDate(activity.FinishDate, p6XMLDateLayouts...)
	if err != nil {
		return schedule.Task{}, err
	}
	actualStart, _ := parseDate(activity.ActualStartDate, p6XMLDateLayouts...)
	actualFinish, _ := parseDate(activity.ActualFinishDate, p6XMLDateLayouts...)

	totalFloat := p.units.HoursToDays(parseFloatDefault(activity.TotalFloat, 0))
	freeFloat := p.units.HoursToDays(parseFloatDefault(activity.FreeFloat, 0))

	// P6 XML reports PercentComplete as a 0-1 fraction, unlike the
	// tabular export's 0-100. Values above 1 are taken as already
	// percent-scaled, which some third-party exporters produce.
	percent := parseFloatDefault(activity.PercentComplete, 0)
	if percent <= 1.0 {
		percent *= 100
	}

	task := schedule.Task{
		ExternalID:            externalID,
		ExternalWBS:           wbsCodes[activity.WBSObjectID],
		Name:                  activity.Name,
		Type:                  p6XMLTaskType(activity.Type),
		WBSLevel:              wbsLevels[activity.WBSObjectID],
		PlannedStart:          plannedStart,
		PlannedFinish:         plannedFinish,
		ActualStart:           actualStart,
		ActualFinish:          actualFinish,
		DurationDays:          p.units.HoursToDays(parseFloatDefault(activity.PlannedDuration, 0)),
		RemainingDurationDays: p.units.HoursToDays(parseFloatDefault(activity.RemainingDuration, 0)),
		PercentComplete:       clampPercent(percent),
		TotalFloatDays:        totalFloat,
		FreeFloatDays:         freeFloat,
		IsCritical:            totalFloat <= 0 || strings.EqualFold(activity.IsCritical, "true"),
		Status:                p6XMLTaskStatus(activity.Status),
		Notes:                 activity.NotesToResources,
	}
	return task, nil
}

// p6XMLTaskType maps the P6 XML activity-type names. Unrecognized
// names default to plain tasks.
func p6XMLTaskType(name string) schedule.TaskType {
	switch name {
	case "Start Milestone", "Finish Milestone":
		return schedule.TaskTypeMilestone
	case "WBS Summary":
		return schedule.TaskTypeSummary
	case "Level of Effort":
		return schedule.TaskTypeLevelOfEffort
	default:
		return schedule.TaskTypeTask
	}
}

func p6XMLTaskStatus(status string) schedule.TaskStatus {
	switch status {
	case "In Progress":
		return schedule.StatusInProgress
	case "Completed", "Complete":
		return schedule.StatusComplete
	case "Suspended":
		return schedule.StatusSuspended
	default:
		return schedule.StatusNotStarted
	}
}
