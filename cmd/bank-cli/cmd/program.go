// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ava-labs/bankvm/program/bank"
	"github.com/ava-labs/bankvm/program/system"
	"github.com/ava-labs/bankvm/utils"
)

func newProgramCmd(*cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "program",
		Short: "Inspect the built-in programs",
		RunE: func(*cobra.Command, []string) error {
			return ErrMissingSubcommand
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "id",
		Short: "Print the program addresses",
		Run: func(*cobra.Command, []string) {
			utils.Outf("{{cyan}}bank:{{/}} %s\n", bank.ProgramID)
			utils.Outf("{{cyan}}system:{{/}} %s\n", system.ProgramID)
		},
	})
	return cmd
}
