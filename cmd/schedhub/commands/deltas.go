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
	"github.com/kefifahd-hub/project-governance-hub-sub001/lib/engine"
	"github.com/kefifahd-hub/project-governance-hub-sub001/lib/schema/schedule"
)

func deltasCommand() *cli.Command {
	var (
		configPath string
		dbPath     string
		unacked    bool
		minImpact  string
		versionID  int64
	)
	return &cli.Command{
		Name:    "deltas",
		Summary: "review a source's deltas",
		Usage:   "schedhub deltas <source-id> [flags]",
		Examples: []cli.Example{
			{
				Description: "unreviewed major and critical deltas",
				Command:     "schedhub deltas hull-fab --unacked --min-impact major",
			},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("deltas", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "config file path (overrides SCHEDHUB_CONFIG)")
			flags.StringVar(&dbPath, "db", "", "ledger database path override")
			flags.BoolVar(&unacked, "unacked", false, "only unacknowledged deltas")
			flags.StringVar(&minImpact, "min-impact", "", "minimum impact: info, minor, major, critical")
			flags.Int64Var(&versionID, "version-id", 0, "only deltas from one version's commit")
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one source ID argument")
			}

			filter := engine.DeltaFilter{
				ToVersionID:        versionID,
				UnacknowledgedOnly: unacked,
			}
			if minImpact != "" {
				impact, err := schedule.ParseImpactLevel(minImpact)
				if err != nil {
					return err
				}
				filter.MinImpact = impact
			}

			a, err := openApp(configPath, dbPath)
			if err != nil {
				return err
			}
			defer a.close()

			deltas, err := a.engine.ListDeltas(context.Background(), args[0], filter)
			if err != nil {
				return err
			}
			fmt.Fprint(os.Stdout, a.renderer.RenderDeltas(deltas))
			return nil
		},
	}
}

func ackCommand() *cli.Command {
	var configPath, dbPath string
	return &cli.Command{
		Name:    "ack",
		Summary: "acknowledge reviewed deltas",
		Usage:   "schedhub ack <delta-id>... [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("ack", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "config file path (overrides SCHEDHUB_CONFIG)")
			flags.StringVar(&dbPath, "db", "", "ledger database path override")
			return flags
		},
		Run: func(args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("expected at least one delta ID argument")
			}

			a, err := openApp(configPath, dbPath)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := context.Background()
			for _, arg := range args {
				deltaID, err := strconv.ParseInt(arg, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid delta ID %q", arg)
				}
				if err := a.engine.AcknowledgeDelta(ctx, deltaID); err != nil {
					return err
				}
				fmt.Printf("acknowledged delta %d\n", deltaID)
			}
			return nil
		},
	}
}
