// Copyright 2026 The Governance Hub Authors
// SPDX-License-Identifier: Apache-2.0

// Package parser converts raw schedule exports into the normalized
// task model. One parser per source format: Primavera P6 tabular
// exports, P6 XML, Microsoft Project XML, and a generic CSV fallback.
//
// Format selection is by file extension, with content sniffing to
// separate the two XML dialects. Binary project files are rejected
// outright — they are not decoded, the user is told to re-export as
// XML.
//
// All parsers share one normalization policy: calendar dates truncate
// to UTC midnight, hour-denominated durations and floats convert to
// whole working days through the Units table, milestone and summary
// rows classify from the source's own type codes, and a task is
// critical when its total float is at or below zero or the source
// flags it explicitly.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kefifahd-hub/project-governance-hub-sub001/lib/schema/schedule"
)

// Parse errors. All are user-facing and recoverable by fixing or
// re-exporting the file; callers match with errors.Is.
var (
	// ErrUnsupportedFormat means the file extension is not one the
	// engine knows how to read.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrUnsupportedBinaryFormat means the extension is recognized
	// as a native binary project file, which is deliberately not
	// decoded.
	ErrUnsupportedBinaryFormat = errors.New("binary project files are not supported; re-export as XML")

	// ErrMalformedInput means a file of a known format failed to
	// parse: empty input, no recognizable tables, undetectable XML
	// dialect.
	ErrMalformedInput = errors.New("malformed schedule file")
)

// Format identifies a detected source file format.
type Format string

const (
	FormatP6Tabular Format = "p6-tabular"
	FormatP6XML     Format = "p6-xml"
	FormatMSPXML    Format = "msp-xml"
	FormatCSV       Format = "csv"
)

// binaryExtensions are native project-file formats that the engine
// refuses to decode. The error tells the user to re-export as XML.
var binaryExtensions = map[string]bool{
	".mpp": true,
	".mpx": true,
	".mpt": true,
	".xls": true,
	".xlsx": true,
}

// Parser converts raw file bytes into a normalized task set plus a
// per-import summary.
type Parser interface {
	Parse(data []byte, filename string) ([]schedule.Task, schedule.Summary, error)
}

// Detect selects the format for a file by extension, sniffing content
// to distinguish the two XML dialects. Returns ErrUnsupportedFormat,
// ErrUnsupportedBinaryFormat, or ErrMalformedInput (for an XML file
// that matches neither dialect).
func Detect(data []byte, filename string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	if binaryExtensions[ext] {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedBinaryFormat, filename)
	}

	switch ext {
	case ".xer":
		return FormatP6Tabular, nil
	case ".csv":
		return FormatCSV, nil
	case ".xml":
		// Dialect sniff: MSP XML task rows are <Task> elements, P6
		// XML activity rows are <Activity> elements.
		if bytes.Contains(data, []byte("<Activity")) {
			return FormatP6XML, nil
		}
		if bytes.Contains(data, []byte("<Task")) {
			return FormatMSPXML, nil
		}
		return "", fmt.Errorf("%w: %s: XML contains neither Activity nor Task elements", ErrMalformedInput, filename)
	}

	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
}

// Select returns the parser for a file, detecting the format first.
func Select(data []byte, filename string, units Units) (Parser, Format, error) {
	format, err := Detect(data, filename)
	if err != nil {
		return nil, "", err
	}

	switch format {
	case FormatP6Tabular:
		return NewP6Tabular(units), format, nil
	case FormatP6XML:
		return NewP6XML(units), format, nil
	case FormatMSPXML:
		return NewMSPXML(units), format, nil
	case FormatCSV:
		return NewCSV(), format, nil
	}
	return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
}

// Parse detects the format and runs the matching parser in one call.
func Parse(data []byte, filename string, units Units) ([]schedule.Task, schedule.Summary, error) {
	selected, _, err := Select(data, filename, units)
	if err != nil {
		return nil, schedule.Summary{}, err
	}
	return selected.Parse(data, filename)
}
