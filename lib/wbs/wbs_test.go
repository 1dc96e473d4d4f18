// Copyright 2026 The Governance Hub Authors
// SPDX-License-Identifier: Apache-2.0

package wbs

import (
	"testing"
	"time"

	"github.com/kefifahd-hub/project-governance-hub-sub001/lib/schema/schedule"
)

func taskWithWBS(externalID, name, code string) schedule.Task {
	return schedule.Task{ExternalID: externalID, Name: name, ExternalWBS: code}
}

func TestNewCodesFirstAppearanceOrder(t *testing.T) {
	firstSeen := time.Date(2026, time.August, 24, 12, 0, 0, 0, time.UTC)
	tasks := []schedule.Task{
		taskWithWBS("A1", "Erect Block", "HULL.STEEL"),
		taskWithWBS("A2", "Paint Block", "HULL.PAINT"),
		taskWithWBS("A3", "Weld Block", "HULL.STEEL"),
		taskWithWBS("A4", "Fit Pipe", "MECH.PIPE"),
	}

	mappings := NewCodes("src-1", tasks, nil, firstSeen)
	if len(mappings) != 3 {
		t.Fatalf("got %d mappings, want 3", len(mappings))
	}

	wantCodes := []string{"HULL.STEEL", "HULL.PAINT", "MECH.PIPE"}
	for i, code := range wantCodes {
		if mappings[i].ExternalCode != code {
			t.Errorf("mappings[%d].ExternalCode = %q, want %q", i, mappings[i].ExternalCode, code)
		}
	}

	// Display name comes from the first task carrying the code.
	if mappings[0].DisplayName != "Erect Block" {
		t.Errorf("DisplayName = %q, want Erect Block", mappings[0].DisplayName)
	}
	for i := range mappings {
		if mappings[i].IsMapped {
			t.Errorf("mappings[%d].IsMapped = true, want false on discovery", i)
		}
		if !mappings[i].FirstSeen.Equal(firstSeen) {
			t.Errorf("mappings[%d].FirstSeen = %v, want %v", i, mappings[i].FirstSeen, firstSeen)
		}
		if mappings[i].SourceID != "src-1" {
			t.Errorf("mappings[%d].SourceID = %q, want src-1", i, mappings[i].SourceID)
		}
	}
}

func TestNewCodesSkipsKnownCodes(t *testing.T) {
	tasks := []schedule.Task{
		taskWithWBS("A1", "Erect Block", "HULL.STEEL"),
		taskWithWBS("A2", "Fit Pipe", "MECH.PIPE"),
	}
	known := map[string]bool{"HULL.STEEL": true}

	mappings := NewCodes("src-1", tasks, known, time.Now())
	if len(mappings) != 1 {
		t.Fatalf("got %d mappings, want 1", len(mappings))
	}
	if mappings[0].ExternalCode != "MECH.PIPE" {
		t.Errorf("ExternalCode = %q, want MECH.PIPE", mappings[0].ExternalCode)
	}
}

func TestNewCodesIgnoresEmptyCodes(t *testing.T) {
	tasks := []schedule.Task{
		taskWithWBS("A1", "Codeless", ""),
	}
	if mappings := NewCodes("src-1", tasks, nil, time.Now()); len(mappings) != 0 {
		t.Fatalf("got %d mappings for a codeless task, want 0", len(mappings))
	}
}
