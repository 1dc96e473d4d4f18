// Copyright 2026 The Governance Hub Authors
// SPDX-License-Identifier: Apache-2.0

package parser

import (
	"errors"
	"testing"
)

// --- Format detection ---

func TestDetectByExtension(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     string
		want     Format
	}{
		{"xer", "weekly.xer", "ERMHDR\t19.12", FormatP6Tabular},
		{"csv", "export.csv", "id,name", FormatCSV},
		{"p6 xml", "project.xml", "<Project><Activity><Id>A1</Id></Activity></Project>", FormatP6XML},
		{"msp xml", "project.xml", "<Project><Tasks><Task><UID>1</UID></Task></Tasks></Project>", FormatMSPXML},
		{"uppercase extension", "WEEKLY.XER", "", FormatP6Tabular},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Detect([]byte(tt.data), tt.filename)
			if err != nil {
				t.Fatalf("Detect() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Detect() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetectRejectsBinaryFormats(t *testing.T) {
	for _, filename := range []string{"plan.mpp", "plan.mpx", "plan.mpt", "plan.xls", "plan.xlsx"} {
		_, err := Detect(nil, filename)
		if !errors.Is(err, ErrUnsupportedBinaryFormat) {
			t.Errorf("Detect(%q) error = %v, want ErrUnsupportedBinaryFormat", filename, err)
		}
	}
}

func TestDetectRejectsUnknownExtension(t *testing.T) {
	_, err := Detect(nil, "notes.docx")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Detect() error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestDetectRejectsUnrecognizableXML(t *testing.T) {
	_, err := Detect([]byte("<Unknown></Unknown>"), "mystery.xml")
	if !errors.Is(err, ErrMalformedInput) {
		t.Errorf("Detect() error = %v, want ErrMalformedInput", err)
	}
}

func TestSelectReturnsMatchingParser(t *testing.T) {
	parser, format, err := Select([]byte("ERMHDR\t19.12"), "weekly.xer", DefaultUnits())
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if format != FormatP6Tabular {
		t.Errorf("format = %q, want %q", format, FormatP6Tabular)
	}
	if parser == nil {
		t.Fatal("Select() returned nil parser")
	}
}

// --- Unit conversion ---

func TestHoursToDaysRoundsToNearest(t *testing.T) {
	units := DefaultUnits()
	tests := []struct {
		hours float64
		want  int
	}{
		{0, 0},
		{8, 1},
		{160, 20},
		{12, 2},  // 1.5 days rounds up
		{11, 1},  // 1.375 days rounds down
		{-40, -5},
	}
	for _, tt := range tests {
		if got := units.HoursToDays(tt.hours); got != tt.want {
			t.Errorf("HoursToDays(%g) = %d, want %d", tt.hours, got, tt.want)
		}
	}
}

func TestSlackToDays(t *testing.T) {
	units := DefaultUnits()
	if got := units.SlackToDays(24000); got != 5 {
		t.Errorf("SlackToDays(24000) = %d, want 5", got)
	}
	if got := units.SlackToDays(-4800); got != -1 {
		t.Errorf("SlackToDays(-4800) = %d, want -1", got)
	}
}
