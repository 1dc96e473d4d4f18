// Copyright 2026 The Governance Hub Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/kefifahd-hub/project-governance-hub-sub001/cmd/schedhub/cli"
)

func sourceCommand() *cli.Command {
	return &cli.Command{
		Name:    "source",
		Summary: "manage schedule sources",
		Subcommands: []*cli.Command{
			sourceAddCommand(),
			sourceListCommand(),
		},
	}
}

func sourceAddCommand() *cli.Command {
	var (
		configPath string
		dbPath     string
		name       string
		tool       string
		format     string
		cadence    string
	)
	return &cli.Command{
		Name:    "add",
		Summary: "register a new schedule source",
		Usage:   "schedhub source add <source-id> [flags]",
		Examples: []cli.Example{
			{
				Description: "register a weekly P6 export",
				Command:     "schedhub source add hull-fab --name 'Hull Fabrication' --tool p6 --format xer --cadence weekly",
			},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("source add", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "config file path (overrides SCHEDHUB_CONFIG)")
			flags.StringVar(&dbPath, "db", "", "ledger database path override")
			flags.StringVar(&name, "name", "", "human-readable source name (required)")
			flags.StringVar(&tool, "tool", "", "planning tool: p6 or msp (required)")
			flags.StringVar(&format, "format", "", "expected file format: xer, xml, or csv")
			flags.StringVar(&cadence, "cadence", "", "sync cadence note, e.g. weekly")
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one source ID argument")
			}
			if name == "" || tool == "" {
				return fmt.Errorf("--name and --tool are required")
			}

			a, err := openApp(configPath, dbPath)
			if err != nil {
				return err
			}
			defer a.close()

			source, err := a.engine.RegisterSource(context.Background(), args[0], name, tool, format, cadence)
			if err != nil {
				return err
			}
			fmt.Printf("registered source %s (%s)\n", source.ID, source.Name)
			return nil
		},
	}
}

func sourceListCommand() *cli.Command {
	var configPath, dbPath string
	return &cli.Command{
		Name:    "list",
		Summary: "list registered sources",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("source list", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "config file path (overrides SCHEDHUB_CONFIG)")
			flags.StringVar(&dbPath, "db", "", "ledger database path override")
			return flags
		},
		Run: func(args []string) error {
			a, err := openApp(configPath, dbPath)
			if err != nil {
				return err
			}
			defer a.close()

			sources, err := a.engine.ListSources(context.Background())
			if err != nil {
				return err
			}
			fmt.Fprint(os.Stdout, a.renderer.RenderSources(sources))
			return nil
		},
	}
}
