// Copyright 2026 The Governance Hub Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"errors"

	"github.com/kefifahd-hub/project-governance-hub-sub001/lib/parser"
)

// The engine's error taxonomy. Parse-side errors originate in the
// parser package and are re-exported here so callers can match the
// whole taxonomy against one package; all of them are recoverable by
// the user fixing or re-exporting the file. Commit-side failures wrap
// ErrCommitFailure and leave the ledger exactly as it was before the
// attempt.
var (
	// ErrUnsupportedFormat: unrecognized file extension.
	ErrUnsupportedFormat = parser.ErrUnsupportedFormat

	// ErrUnsupportedBinaryFormat: recognized but undecodable native
	// binary project file; the user must re-export as XML.
	ErrUnsupportedBinaryFormat = parser.ErrUnsupportedBinaryFormat

	// ErrMalformedInput: a file of a known format failed to parse.
	ErrMalformedInput = parser.ErrMalformedInput

	// ErrCommitFailure: a persistence step failed after parsing
	// succeeded. The current-version pointer did not advance.
	ErrCommitFailure = errors.New("commit failed; ledger unchanged")

	// ErrSourceNotFound: the source ID is not registered.
	ErrSourceNotFound = errors.New("schedule source not found")

	// ErrSourceExists: RegisterSource was called with an ID already
	// in use.
	ErrSourceExists = errors.New("schedule source already registered")

	// ErrDeltaNotFound: AcknowledgeDelta was called with an unknown
	// delta ID.
	ErrDeltaNotFound = errors.New("delta not found")

	// ErrVersionNotFound: the requested version does not exist.
	ErrVersionNotFound = errors.New("version not found")
)
