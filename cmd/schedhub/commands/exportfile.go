// Copyright 2026 The Governance Hub Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/kefifahd-hub/project-governance-hub-sub001/cmd/schedhub/cli"
	"github.com/kefifahd-hub/project-governance-hub-sub001/lib/engine"
)

func exportFileCommand() *cli.Command {
	var (
		configPath string
		dbPath     string
		outPath    string
	)
	return &cli.Command{
		Name:    "export-file",
		Summary: "write a version's retained upload back to disk",
		Usage:   "schedhub export-file <source-id> <version-label> [flags]",
		Examples: []cli.Example{
			{
				Description: "recover the file behind V003",
				Command:     "schedhub export-file hull-fab V003 --out week34.xer",
			},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("export-file", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "config file path (overrides SCHEDHUB_CONFIG)")
			flags.StringVar(&dbPath, "db", "", "ledger database path override")
			flags.StringVar(&outPath, "out", "", "output path (default: the original file name)")
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("expected <source-id> <version-label> arguments")
			}
			sourceID, label := args[0], strings.ToUpper(args[1])

			a, err := openApp(configPath, dbPath)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := context.Background()
			versions, err := a.engine.ListVersions(ctx, sourceID)
			if err != nil {
				return err
			}

			fileRef := ""
			for i := range versions {
				if versions[i].Label == label {
					fileRef = versions[i].FileRef
					break
				}
			}
			if fileRef == "" {
				return fmt.Errorf("%w: %s %s", engine.ErrVersionNotFound, sourceID, label)
			}

			name, data, err := a.engine.ReadImportFile(ctx, fileRef)
			if err != nil {
				return err
			}
			if outPath == "" {
				outPath = name
			}
			if err := os.WriteFile(outPath, data, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", outPath, err)
			}
			fmt.Printf("wrote %s (%d bytes)\n", outPath, len(data))
			return nil
		},
	}
}
