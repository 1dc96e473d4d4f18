// Copyright 2026 The Governance Hub Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/pflag"

	"github.com/kefifahd-hub/project-governance-hub-sub001/cmd/schedhub/cli"
)

func wbsCommand() *cli.Command {
	return &cli.Command{
		Name:    "wbs",
		Summary: "WBS reconciliation feed",
		Subcommands: []*cli.Command{
			wbsListCommand(),
			wbsMapCommand(),
		},
	}
}

func wbsListCommand() *cli.Command {
	var configPath, dbPath string
	return &cli.Command{
		Name:    "list",
		Summary: "list discovered WBS codes, unmapped first",
		Usage:   "schedhub wbs list <source-id> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("wbs list", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "config file path (overrides SCHEDHUB_CONFIG)")
			flags.StringVar(&dbPath, "db", "", "ledger database path override")
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one source ID argument")
			}

			a, err := openApp(configPath, dbPath)
			if err != nil {
				return err
			}
			defer a.close()

			mappings, err := a.engine.ListWBSMappings(context.Background(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(os.Stdout, a.renderer.RenderWBSMappings(mappings))
			return nil
		},
	}
}

func wbsMapCommand() *cli.Command {
	var (
		configPath  string
		dbPath      string
		unifiedCode string
		workstream  string
		qualityGate string
	)
	return &cli.Command{
		Name:    "map",
		Summary: "assign a unified code to a discovered WBS code",
		Usage:   "schedhub wbs map <mapping-id> [flags]",
		Examples: []cli.Example{
			{
				Description: "map a discovered code into the unified structure",
				Command:     "schedhub wbs map 12 --unified HULL.2.3 --workstream hull --gate G2",
			},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("wbs map", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "config file path (overrides SCHEDHUB_CONFIG)")
			flags.StringVar(&dbPath, "db", "", "ledger database path override")
			flags.StringVar(&unifiedCode, "unified", "", "unified WBS code (required)")
			flags.StringVar(&workstream, "workstream", "", "workstream assignment")
			flags.StringVar(&qualityGate, "gate", "", "quality gate assignment")
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one mapping ID argument")
			}
			if unifiedCode == "" {
				return fmt.Errorf("--unified is required")
			}
			mappingID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid mapping ID %q", args[0])
			}

			a, err := openApp(configPath, dbPath)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.engine.MapWBSCode(context.Background(), mappingID, unifiedCode, workstream, qualityGate); err != nil {
				return err
			}
			fmt.Printf("mapped %d → %s\n", mappingID, unifiedCode)
			return nil
		},
	}
}
