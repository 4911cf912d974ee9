// Copyright (C) 2026 FGF Postproc Authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"fgf-postproc/pkg/validate"
)

func newAnalyzeCmd() *cobra.Command {
	var maxBlocks int

	cmd := &cobra.Command{
		Use:   "analyze <processed>",
		Short: "Report configured vs. actual ramp zones in a processed file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			blocks, err := validate.AnalyzeRamps(args[0], maxBlocks)
			if err != nil {
				return err
			}
			validate.ReportRamps(os.Stdout, blocks)
			return nil
		},
	}

	cmd.Flags().IntVar(&maxBlocks, "max-blocks", 0, "stop after this many smoothing blocks (0 = all)")
	return cmd
}
