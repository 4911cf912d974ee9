// Copyright (C) 2026 FGF Postproc Authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fgf-postproc/pkg/ramp"
)

func newCurvesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "curves",
		Short: "List the available ramp curve families",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("Available curves:")
			for _, curve := range ramp.Curves {
				fmt.Printf("  %-12s %s\n", curve.Name, curve.Description)
			}
		},
	}
}
