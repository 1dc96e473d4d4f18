// Copyright 2026 The Governance Hub Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands defines the schedhub command tree.
package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/kefifahd-hub/project-governance-hub-sub001/cmd/schedhub/cli"
	"github.com/kefifahd-hub/project-governance-hub-sub001/lib/clock"
	"github.com/kefifahd-hub/project-governance-hub-sub001/lib/config"
	"github.com/kefifahd-hub/project-governance-hub-sub001/lib/delta"
	"github.com/kefifahd-hub/project-governance-hub-sub001/lib/engine"
	"github.com/kefifahd-hub/project-governance-hub-sub001/lib/parser"
	"github.com/kefifahd-hub/project-governance-hub-sub001/lib/scheduleui"
)

// Root returns the schedhub command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name:    "schedhub",
		Summary: "schedule integration ledger",
		Description: "schedhub ingests Primavera P6 and Microsoft Project exports,\n" +
			"diffs each import against the previous version, and keeps an\n" +
			"append-only version ledger per schedule source.",
		Subcommands: []*cli.Command{
			sourceCommand(),
			importCommand(),
			versionsCommand(),
			deltasCommand(),
			ackCommand(),
			wbsCommand(),
			exportFileCommand(),
		},
	}
}

// app bundles the constructed runtime a command needs: engine,
// renderer, and the resolved configuration.
type app struct {
	cfg      *config.Config
	engine   *engine.Engine
	store    *engine.Store
	renderer scheduleui.Renderer
}

// openApp loads configuration (--config, then SCHEDHUB_CONFIG, then
// defaults), applies the optional --db override, and opens the ledger.
func openApp(configOverride, dbOverride string) (*app, error) {
	var cfg *config.Config
	var err error
	if configOverride != "" {
		cfg, err = config.LoadFile(configOverride)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if dbOverride != "" {
		cfg.Storage.Path = dbOverride
	}
	if err := cfg.EnsureStorageDir(); err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	store, err := engine.OpenStore(engine.StoreConfig{
		Path:      cfg.Storage.Path,
		PoolSize:  cfg.Storage.PoolSize,
		ChunkSize: cfg.Storage.ChunkSize,
		Clock:     clock.Real(),
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	eng, err := engine.New(engine.Config{
		Store:  store,
		Clock:  clock.Real(),
		Logger: logger,
		Units: parser.Units{
			P6HoursPerDay:       cfg.Units.P6HoursPerDay,
			MSPSlackUnitsPerDay: cfg.Units.MSPSlackUnitsPerDay,
		},
		Thresholds: delta.Thresholds{
			DateShiftMinor:    cfg.Thresholds.DateShiftMinor,
			DateShiftMajor:    cfg.Thresholds.DateShiftMajor,
			DateShiftCritical: cfg.Thresholds.DateShiftCritical,
			FloatNoiseFloor:   cfg.Thresholds.FloatNoiseFloor,
			FloatCriticalBand: cfg.Thresholds.FloatCriticalBand,
			FloatMinorShift:   cfg.Thresholds.FloatMinorShift,
		},
	})
	if err != nil {
		store.Close()
		return nil, err
	}

	return &app{
		cfg:      cfg,
		engine:   eng,
		store:    store,
		renderer: scheduleui.NewRenderer(scheduleui.DefaultTheme()),
	}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing ledger: %v\n", err)
	}
}
