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

func versionsCommand() *cli.Command {
	var configPath, dbPath string
	return &cli.Command{
		Name:    "versions",
		Summary: "show a source's version history",
		Usage:   "schedhub versions <source-id> [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("versions", pflag.ContinueOnError)
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

			versions, err := a.engine.ListVersions(context.Background(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(os.Stdout, a.renderer.RenderVersions(versions))
			return nil
		},
	}
}
