// Copyright 2026 The Governance Hub Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/kefifahd-hub/project-governance-hub-sub001/cmd/schedhub/cli"
)

func importCommand() *cli.Command {
	var (
		configPath string
		dbPath     string
		commit     bool
	)
	return &cli.Command{
		Name:    "import",
		Summary: "preview or commit a schedule export",
		Description: "Parses a schedule export, diffs it against the source's current\n" +
			"version, and shows the resulting summary and deltas. Without\n" +
			"--commit nothing is written; with --commit the import becomes the\n" +
			"source's next version.",
		Usage: "schedhub import <source-id> <file> [flags]",
		Examples: []cli.Example{
			{
				Description: "dry-run a weekly export",
				Command:     "schedhub import hull-fab week34.xer",
			},
			{
				Description: "commit it",
				Command:     "schedhub import hull-fab week34.xer --commit",
			},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("import", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "config file path (overrides SCHEDHUB_CONFIG)")
			flags.StringVar(&dbPath, "db", "", "ledger database path override")
			flags.BoolVar(&commit, "commit", false, "commit the import instead of previewing")
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("expected <source-id> <file> arguments")
			}
			sourceID, path := args[0], args[1]

			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			filename := filepath.Base(path)

			a, err := openApp(configPath, dbPath)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := context.Background()
			if !commit {
				preview, err := a.engine.PreviewImport(ctx, sourceID, filename, data)
				if err != nil {
					return err
				}
				fmt.Fprint(os.Stdout, a.renderer.RenderPreview(preview))
				fmt.Println("\ndry run; re-run with --commit to record this version")
				return nil
			}

			version, err := a.engine.CommitImport(ctx, sourceID, filename, data)
			if err != nil {
				return err
			}
			fmt.Fprint(os.Stdout, a.renderer.RenderSummary(version.Summary))
			fmt.Printf("\ncommitted %s as %s (%d deltas, %d critical)\n",
				filename, version.Label, version.DeltaCount, version.CriticalDeltaCount)
			if version.IsBaseline {
				fmt.Println("this version is the source's baseline")
			}
			return nil
		},
	}
}
