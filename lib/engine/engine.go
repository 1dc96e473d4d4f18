// Copyright 2026 The Governance Hub Authors
// SPDX-License-Identifier: Apache-2.0

// Package engine orchestrates the import pipeline: parse a schedule
// export, diff it against the source's current version, discover new
// WBS codes, and either preview the outcome or commit it to the
// ledger.
//
// Preview and commit run the same pipeline. Preview is read-only and
// discards everything; commit appends a version, flips the current
// pointer, and persists tasks, deltas, WBS discoveries, and the
// retained upload in one transaction. Commits for the same source are
// serialized with a per-source lock so concurrent imports cannot race
// on the version number.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/kefifahd-hub/project-governance-hub-sub001/lib/binhash"
	"github.com/kefifahd-hub/project-governance-hub-sub001/lib/clock"
	"github.com/kefifahd-hub/project-governance-hub-sub001/lib/delta"
	"github.com/kefifahd-hub/project-governance-hub-sub001/lib/parser"
	"github.com/kefifahd-hub/project-governance-hub-sub001/lib/schema/schedule"
	"github.com/kefifahd-hub/project-governance-hub-sub001/lib/wbs"
)

// Engine runs the import pipeline against a ledger store.
type Engine struct {
	store      *Store
	clock      clock.Clock
	logger     *slog.Logger
	units      parser.Units
	thresholds delta.Thresholds

	// mu guards sourceLocks; each source's lock serializes its
	// commits.
	mu          sync.Mutex
	sourceLocks map[string]*sync.Mutex
}

// Config holds the parameters for constructing an Engine.
type Config struct {
	// Store is the ledger store. Required.
	Store *Store

	// Clock provides timestamps for WBS discovery and acknowledgement.
	// Required.
	Clock clock.Clock

	// Logger receives operational messages. Required.
	Logger *slog.Logger

	// Units are the unit conversion divisors passed to parsers.
	// Zero value means defaults.
	Units parser.Units

	// Thresholds classify delta severity. Zero value means defaults.
	Thresholds delta.Thresholds
}

// New constructs an Engine.
func New(cfg Config) (*Engine, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("engine: Store is required")
	}
	if cfg.Clock == nil {
		return nil, fmt.Errorf("engine: Clock is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("engine: Logger is required")
	}

	units := cfg.Units
	if units == (parser.Units{}) {
		units = parser.DefaultUnits()
	}
	thresholds := cfg.Thresholds
	if thresholds == (delta.Thresholds{}) {
		thresholds = delta.DefaultThresholds()
	}

	return &Engine{
		store:       cfg.Store,
		clock:       cfg.Clock,
		logger:      cfg.Logger,
		units:       units,
		thresholds:  thresholds,
		sourceLocks: make(map[string]*sync.Mutex),
	}, nil
}

func (e *Engine) sourceLock(sourceID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.sourceLocks[sourceID]
	if !ok {
		lock = &sync.Mutex{}
		e.sourceLocks[sourceID] = lock
	}
	return lock
}

// RegisterSource registers a new schedule source. The ID must be
// unique; re-registering returns ErrSourceExists.
func (e *Engine) RegisterSource(ctx context.Context, id, name, tool, format, syncCadence string) (schedule.Source, error) {
	source := schedule.Source{
		ID:          id,
		Name:        name,
		Tool:        tool,
		Format:      format,
		SyncCadence: syncCadence,
		CreatedAt:   e.clock.Now(),
	}
	if err := e.store.CreateSource(ctx, source); err != nil {
		return schedule.Source{}, err
	}
	e.logger.Info("source registered", "source", id, "name", name, "tool", tool)
	return source, nil
}

// GetSource returns a registered source.
func (e *Engine) GetSource(ctx context.Context, sourceID string) (schedule.Source, error) {
	return e.store.GetSource(ctx, sourceID)
}

// ListSources returns all registered sources.
func (e *Engine) ListSources(ctx context.Context) ([]schedule.Source, error) {
	return e.store.ListSources(ctx)
}

// pipelineResult is the shared output of one pipeline run, consumed
// by preview directly and by commit to build the CommitSet.
type pipelineResult struct {
	tasks       []schedule.Task
	summary     schedule.Summary
	deltas      []schedule.Delta
	newWBSCodes []schedule.WBSMapping
	nextNumber  int
	previous    *schedule.Version
}

// runPipeline parses the file, diffs against the current version,
// and discovers new WBS codes. It mutates nothing.
func (e *Engine) runPipeline(ctx context.Context, sourceID, filename string, data []byte) (pipelineResult, error) {
	if _, err := e.store.GetSource(ctx, sourceID); err != nil {
		return pipelineResult{}, err
	}

	tasks, summary, err := parser.Parse(data, filename, e.units)
	if err != nil {
		return pipelineResult{}, err
	}

	previous, err := e.store.CurrentVersion(ctx, sourceID)
	if err != nil {
		return pipelineResult{}, err
	}

	var previousTasks []schedule.Task
	nextNumber := 1
	if previous != nil {
		nextNumber = previous.Number + 1
		previousTasks, err = e.store.LoadVersionTasks(ctx, previous.ID)
		if err != nil {
			return pipelineResult{}, err
		}

		// A re-upload of the exact same file is allowed; note it so
		// the preview can surface it.
		digest := binhash.FormatDigest(binhash.HashBytes(data))
		if digest == previous.FileDigest {
			summary.ImportLog += "; file is byte-identical to the current version"
		}
	}

	deltas := delta.Diff(previousTasks, tasks, e.thresholds)
	delta.SortBySeverity(deltas)

	known, err := e.store.KnownWBSCodes(ctx, sourceID)
	if err != nil {
		return pipelineResult{}, err
	}
	newCodes := wbs.NewCodes(sourceID, tasks, known, e.clock.Now())

	return pipelineResult{
		tasks:       tasks,
		summary:     summary,
		deltas:      deltas,
		newWBSCodes: newCodes,
		nextNumber:  nextNumber,
		previous:    previous,
	}, nil
}

// PreviewImport runs the import pipeline without writing anything.
// The returned preview shows exactly what a commit of the same file
// would produce.
func (e *Engine) PreviewImport(ctx context.Context, sourceID, filename string, data []byte) (schedule.Preview, error) {
	result, err := e.runPipeline(ctx, sourceID, filename, data)
	if err != nil {
		return schedule.Preview{}, err
	}

	critical := 0
	for i := range result.deltas {
		if result.deltas[i].Impact == schedule.ImpactCritical {
			critical++
		}
	}

	return schedule.Preview{
		SourceID:           sourceID,
		NextVersionLabel:   schedule.FormatVersionLabel(result.nextNumber),
		Summary:            result.summary,
		Deltas:             result.deltas,
		TaskCount:          len(result.tasks),
		DeltaCount:         len(result.deltas),
		CriticalDeltaCount: critical,
	}, nil
}

// CommitImport runs the import pipeline and appends the result to the
// ledger as the source's next version. The first commit for a source
// becomes its baseline. Commits for the same source are serialized;
// a failed commit leaves the ledger untouched and returns an error
// wrapping ErrCommitFailure alongside the cause.
func (e *Engine) CommitImport(ctx context.Context, sourceID, filename string, data []byte) (schedule.Version, error) {
	lock := e.sourceLock(sourceID)
	lock.Lock()
	defer lock.Unlock()

	result, err := e.runPipeline(ctx, sourceID, filename, data)
	if err != nil {
		return schedule.Version{}, err
	}

	version, err := e.store.CommitImport(ctx, CommitSet{
		SourceID:    sourceID,
		FileName:    filename,
		FileData:    data,
		Tasks:       result.tasks,
		Summary:     result.summary,
		Deltas:      result.deltas,
		NewWBSCodes: result.newWBSCodes,
		FileRef:     uuid.NewString(),
		FileDigest:  binhash.FormatDigest(binhash.HashBytes(data)),
	})
	if err != nil {
		return schedule.Version{}, fmt.Errorf("%w: %s: %w", ErrCommitFailure, sourceID, err)
	}
	return version, nil
}

// ListVersions returns a source's version history, newest first.
func (e *Engine) ListVersions(ctx context.Context, sourceID string) ([]schedule.Version, error) {
	if _, err := e.store.GetSource(ctx, sourceID); err != nil {
		return nil, err
	}
	return e.store.ListVersions(ctx, sourceID)
}

// CurrentVersion returns a source's current version, or nil when the
// source has no versions.
func (e *Engine) CurrentVersion(ctx context.Context, sourceID string) (*schedule.Version, error) {
	if _, err := e.store.GetSource(ctx, sourceID); err != nil {
		return nil, err
	}
	return e.store.CurrentVersion(ctx, sourceID)
}

// ListDeltas returns a source's deltas, most severe first.
func (e *Engine) ListDeltas(ctx context.Context, sourceID string, filter DeltaFilter) ([]schedule.Delta, error) {
	if _, err := e.store.GetSource(ctx, sourceID); err != nil {
		return nil, err
	}
	return e.store.ListDeltas(ctx, sourceID, filter)
}

// AcknowledgeDelta marks a delta as reviewed.
func (e *Engine) AcknowledgeDelta(ctx context.Context, deltaID int64) error {
	return e.store.AcknowledgeDelta(ctx, deltaID)
}

// ListWBSMappings returns a source's WBS reconciliation feed,
// unmapped codes first.
func (e *Engine) ListWBSMappings(ctx context.Context, sourceID string) ([]schedule.WBSMapping, error) {
	if _, err := e.store.GetSource(ctx, sourceID); err != nil {
		return nil, err
	}
	return e.store.ListWBSMappings(ctx, sourceID)
}

// MapWBSCode records curation for a discovered WBS code.
func (e *Engine) MapWBSCode(ctx context.Context, mappingID int64, unifiedCode, workstream, qualityGate string) error {
	return e.store.MapWBSCode(ctx, mappingID, unifiedCode, workstream, qualityGate)
}

// LoadVersionTasks returns the task snapshot stored for a version.
func (e *Engine) LoadVersionTasks(ctx context.Context, versionID int64) ([]schedule.Task, error) {
	return e.store.LoadVersionTasks(ctx, versionID)
}

// ReadImportFile returns the retained upload for a version's file
// reference.
func (e *Engine) ReadImportFile(ctx context.Context, fileRef string) (string, []byte, error) {
	return e.store.ReadImportFile(ctx, fileRef)
}
