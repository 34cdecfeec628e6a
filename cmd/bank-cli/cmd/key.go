// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ava-labs/bankvm/crypto/ed25519"
	"github.com/ava-labs/bankvm/storage"
	"github.com/ava-labs/bankvm/utils"
)

func newKeyCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the payer key",
		RunE: func(*cobra.Command, []string) error {
			return ErrMissingSubcommand
		},
	}

	var force bool
	generate := &cobra.Command{
		Use:   "generate",
		Short: "Generate a new payer key",
		RunE: func(*cobra.Command, []string) error {
			if _, err := os.Stat(c.keyPath); err == nil && !force {
				return fmt.Errorf("%w: %s (use --force to replace it)", ErrKeyExists, c.keyPath)
			}
			priv, err := ed25519.GeneratePrivateKey()
			if err != nil {
				return err
			}
			if err := priv.SaveKey(c.keyPath); err != nil {
				return err
			}
			utils.Outf("{{green}}created key:{{/}} %s\n", c.keyPath)
			printKey(priv)
			return nil
		},
	}
	generate.Flags().BoolVar(&force, "force", false, "overwrite an existing key")

	address := &cobra.Command{
		Use:   "address",
		Short: "Print the address of the payer key",
		RunE: func(*cobra.Command, []string) error {
			priv, err := c.loadKey()
			if err != nil {
				return err
			}
			printKey(priv)
			return nil
		},
	}

	cmd.AddCommand(generate, address)
	return cmd
}

func printKey(priv ed25519.PrivateKey) {
	pk := priv.PublicKey()
	utils.Outf("{{yellow}}public key:{{/}} %x\n", pk[:])
	utils.Outf("{{yellow}}address:{{/}} %s\n", storage.AddressFromPublicKey(pk))
}
