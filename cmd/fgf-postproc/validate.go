// Copyright (C) 2026 FGF Postproc Authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"fgf-postproc/pkg/validate"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <input> <output>",
		Short: "Check that a processed file conserves extruded volume",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := validate.Compare(args[0], args[1])
			if err != nil {
				return err
			}
			result.Report(os.Stdout)
			return result.Err()
		},
	}
}
