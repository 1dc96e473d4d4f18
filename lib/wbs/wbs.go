// Copyright 2026 The Governance Hub Authors
// SPDX-License-Identifier: Apache-2.0

// Package wbs derives the reconciliation feed of newly discovered WBS
// codes from an import.
//
// The feed is append-only by construction: it emits mapping records
// only for codes not already known for the source, seeded unmapped,
// and never touches existing mappings — manual curation already
// recorded by a human is preserved untouched.
package wbs

import (
	"time"

	"github.com/kefifahd-hub/project-governance-hub-sub001/lib/schema/schedule"
)

// NewCodes returns one unmapped WBSMapping per distinct external WBS
// code present in tasks but absent from known, ordered by first
// appearance in the task list. The display name comes from the first
// task observed carrying the code.
func NewCodes(sourceID string, tasks []schedule.Task, known map[string]bool, firstSeen time.Time) []schedule.WBSMapping {
	seen := make(map[string]bool, len(known))
	var mappings []schedule.WBSMapping

	for i := range tasks {
		code := tasks[i].ExternalWBS
		if code == "" || known[code] || seen[code] {
			continue
		}
		seen[code] = true
		mappings = append(mappings, schedule.WBSMapping{
			SourceID:     sourceID,
			ExternalCode: code,
			DisplayName:  tasks[i].Name,
			IsMapped:     false,
			FirstSeen:    firstSeen,
		})
	}
	return mappings
}
