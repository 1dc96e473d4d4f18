// Copyright 2026 The Governance Hub Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/kefifahd-hub/project-governance-hub-sub001/cmd/schedhub/commands"
)

func main() {
	if err := commands.Root().Execute(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
