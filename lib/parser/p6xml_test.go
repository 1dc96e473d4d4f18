// Copyright 2026 The Governance Hub Authors
// SPDX-License-Identifier: Apache-2.0

package parser

import (
	"errors"
	"testing"
	"time"

	"github.com/kefifahd-hub/project-governance-hub-sub001/lib/schema/schedule"
)

const p6XMLFixture = `<?xml version="1.0" encoding="UTF-8"?>
<APIBusinessObjects>
  <Project>
    <DataDate>2026-08-24T17:00:00</DataDate>
    <WBS>
      <ObjectId>100</ObjectId>
      <Code>SHIP</Code>
      <ParentObjectId></ParentObjectId>
    </WBS>
    <WBS>
      <ObjectId>101</ObjectId>
      <Code>SHIP.HULL</Code>
      <ParentObjectId>100</ParentObjectId>
    </WBS>
    <Activity>
      <Id>A100</Id>
      <Name>Panel Assembly</Name>
      <Type>Task Dependent</Type>
      <Status>In Progress</Status>
      <StartDate>2026-08-03T08:00:00</StartDate>
      <FinishDate>2026-08-28T17:00:00</FinishDate>
      <ActualStartDate>2026-08-03T08:00:00</ActualStartDate>
      <PercentComplete>0.35</PercentComplete>
      <PlannedDuration>160</PlannedDuration>
      <RemainingDuration>104</RemainingDuration>
      <TotalFloat>64</TotalFloat>
      <FreeFloat>8</FreeFloat>
      <IsCritical>false</IsCritical>
      <WBSObjectId>101</WBSObjectId>
    </Activity>
    <Activity>
      <Id>M100</Id>
      <Name>Launch</Name>
      <Type>Finish Milestone</Type>
      <Status>Not Started</Status>
      <StartDate>2026-12-01T08:00:00</StartDate>
      <FinishDate>2026-12-01T08:00:00</FinishDate>
      <PercentComplete>0</PercentComplete>
      <TotalFloat>0</TotalFloat>
      <WBSObjectId>100</WBSObjectId>
    </Activity>
  </Project>
</APIBusinessObjects>
`

func TestP6XMLParse(t *testing.T) {
	tasks, summary, err := NewP6XML(DefaultUnits()).Parse([]byte(p6XMLFixture), "project.xml")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("got %d tasks, want 2", len(tasks))
	}

	panel := tasks[0]
	if panel.ExternalID != "A100" {
		t.Fatalf("ExternalID = %q, want A100", panel.ExternalID)
	}
	if panel.ExternalWBS != "SHIP.HULL" {
		t.Errorf("ExternalWBS = %q, want SHIP.HULL", panel.ExternalWBS)
	}
	if panel.WBSLevel != 1 {
		t.Errorf("WBSLevel = %d, want 1", panel.WBSLevel)
	}
	// P6 XML percent complete arrives as a 0-1 fraction.
	if panel.PercentComplete != 35 {
		t.Errorf("PercentComplete = %g, want 35", panel.PercentComplete)
	}
	if panel.TotalFloatDays != 8 {
		t.Errorf("TotalFloatDays = %d, want 8 (64h at 8h/day)", panel.TotalFloatDays)
	}
	if panel.IsCritical {
		t.Error("IsCritical = true for a task with 8 days of float")
	}
	if panel.Status != schedule.StatusInProgress {
		t.Errorf("Status = %q, want %q", panel.Status, schedule.StatusInProgress)
	}
	if panel.ActualStart.IsZero() {
		t.Error("ActualStart is zero, want parsed")
	}

	launch := tasks[1]
	if launch.Type != schedule.TaskTypeMilestone {
		t.Errorf("Type = %q, want %q", launch.Type, schedule.TaskTypeMilestone)
	}
	if !launch.IsCritical {
		t.Error("IsCritical = false for a zero-float milestone")
	}

	if summary.MilestoneCount != 1 {
		t.Errorf("MilestoneCount = %d, want 1", summary.MilestoneCount)
	}
	wantDataDate := time.Date(2026, time.August, 24, 0, 0, 0, 0, time.UTC)
	if !summary.DataDate.Equal(wantDataDate) {
		t.Errorf("DataDate = %v, want %v", summary.DataDate, wantDataDate)
	}
}

func TestP6XMLExplicitCriticalFlag(t *testing.T) {
	const doc = `<Project>
  <Activity>
    <Id>A1</Id>
    <Name>Flagged</Name>
    <StartDate>2026-08-03T08:00:00</StartDate>
    <FinishDate>2026-08-28T17:00:00</FinishDate>
    <TotalFloat>40</TotalFloat>
    <IsCritical>true</IsCritical>
  </Activity>
</Project>`

	tasks, _, err := NewP6XML(DefaultUnits()).Parse([]byte(doc), "flagged.xml")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !tasks[0].IsCritical {
		t.Error("IsCritical = false, want true from the explicit flag despite positive float")
	}
}

func TestP6XMLPercentAlreadyScaled(t *testing.T) {
	// Some third-party exporters emit 0-100 percent values; anything
	// above 1 is taken as already scaled.
	const doc = `<Project>
  <Activity>
    <Id>A1</Id>
    <Name>Scaled</Name>
    <StartDate>2026-08-03T08:00:00</StartDate>
    <FinishDate>2026-08-28T17:00:00</FinishDate>
    <PercentComplete>62.5</PercentComplete>
  </Activity>
</Project>`

	tasks, _, err := NewP6XML(DefaultUnits()).Parse([]byte(doc), "scaled.xml")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if tasks[0].PercentComplete != 62.5 {
		t.Errorf("PercentComplete = %g, want 62.5", tasks[0].PercentComplete)
	}
}

func TestP6XMLMalformedInputs(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not xml", "this is not xml"},
		{"no activities", "<Project><DataDate>2026-08-24T17:00:00</DataDate></Project>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := NewP6XML(DefaultUnits()).Parse([]byte(tt.data), "bad.xml")
			if !errors.Is(err, ErrMalformedInput) {
				t.Errorf("Parse() error = %v, want ErrMalformedInput", err)
			}
		})
	}
}
