// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ava-labs/avalanchego/utils/logging"

	"github.com/ava-labs/bankvm/codec"
	"github.com/ava-labs/bankvm/crypto/ed25519"
	"github.com/ava-labs/bankvm/program"
	"github.com/ava-labs/bankvm/program/bank"
	"github.com/ava-labs/bankvm/program/system"
	"github.com/ava-labs/bankvm/runtime"
	"github.com/ava-labs/bankvm/state"
	"github.com/ava-labs/bankvm/storage"
	"github.com/ava-labs/bankvm/utils"
)

func newAccountCmd(c *cli) *cobra.Command {
	var seed string
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Create, fund and inspect the bank account of the payer key",
		RunE: func(*cobra.Command, []string) error {
			return ErrMissingSubcommand
		},
	}
	cmd.PersistentFlags().StringVar(&seed, "seed", defaultSeed, "seed the bank account address is derived with")

	create := &cobra.Command{
		Use:   "create",
		Short: "Create the bank account if it does not exist yet",
		RunE: func(cmd *cobra.Command, _ []string) error {
			priv, err := c.loadKey()
			if err != nil {
				return err
			}
			if err := c.open(); err != nil {
				return err
			}
			addr, created, err := createAccount(cmd.Context(), c.log, c.rt, c.mu, priv, seed)
			if err != nil {
				return err
			}
			if !created {
				utils.Outf("{{yellow}}account already exists:{{/}} %s\n", addr)
				return nil
			}
			utils.Outf("{{green}}created account:{{/}} %s\n", addr)
			return nil
		},
	}

	increase := &cobra.Command{
		Use:   "increase",
		Short: "Increase the balance of the bank account by one, creating it first if needed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			priv, err := c.loadKey()
			if err != nil {
				return err
			}
			if err := c.open(); err != nil {
				return err
			}
			addr, balance, err := increaseBalance(cmd.Context(), c.log, c.rt, c.mu, priv, seed)
			if err != nil {
				return err
			}
			utils.Outf("{{green}}increased balance of{{/}} %s {{green}}to{{/}} %d\n", addr, balance)
			return nil
		},
	}

	balance := &cobra.Command{
		Use:   "balance",
		Short: "Print the balance of the bank account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			priv, err := c.loadKey()
			if err != nil {
				return err
			}
			if err := c.open(); err != nil {
				return err
			}
			addr, balance, err := readBalance(cmd.Context(), c.mu, priv, seed)
			if err != nil {
				return err
			}
			utils.Outf("{{cyan}}account:{{/}} %s {{cyan}}balance:{{/}} %d\n", addr, balance)
			return nil
		},
	}

	cmd.AddCommand(create, increase, balance)
	return cmd
}

// bankAccount derives the address of the bank account owned by [payer]
// under [seed].
func bankAccount(payer codec.Address, seed string) (codec.Address, error) {
	return storage.CreateWithSeed(payer, seed, bank.ProgramID)
}

// createAccount creates the bank account of [priv] under [seed] unless it
// already exists.
func createAccount(
	ctx context.Context,
	log logging.Logger,
	rt *runtime.Runtime,
	mu *state.SimpleMutable,
	priv ed25519.PrivateKey,
	seed string,
) (codec.Address, bool, error) {
	payer := storage.AddressFromPublicKey(priv.PublicKey())
	addr, err := bankAccount(payer, seed)
	if err != nil {
		return codec.EmptyAddress, false, err
	}
	_, _, exists, err := storage.GetAccount(ctx, mu, addr)
	if err != nil || exists {
		return addr, false, err
	}
	ix, err := system.NewCreateAccountWithSeedInstruction(payer, payer, seed, bank.AccountSize, bank.ProgramID)
	if err != nil {
		return codec.EmptyAddress, false, err
	}
	if err := submit(ctx, rt, mu, priv, ix); err != nil {
		return codec.EmptyAddress, false, err
	}
	log.Info("created bank account",
		zap.Stringer("payer", payer),
		zap.Stringer("account", addr),
		zap.String("seed", seed),
	)
	return addr, true, nil
}

// increaseBalance increases the balance of the bank account of [priv] by
// one. A missing account is created in the same transaction.
func increaseBalance(
	ctx context.Context,
	log logging.Logger,
	rt *runtime.Runtime,
	mu *state.SimpleMutable,
	priv ed25519.PrivateKey,
	seed string,
) (codec.Address, uint32, error) {
	payer := storage.AddressFromPublicKey(priv.PublicKey())
	addr, err := bankAccount(payer, seed)
	if err != nil {
		return codec.EmptyAddress, 0, err
	}
	_, _, exists, err := storage.GetAccount(ctx, mu, addr)
	if err != nil {
		return codec.EmptyAddress, 0, err
	}

	var instructions []program.Instruction
	if !exists {
		create, err := system.NewCreateAccountWithSeedInstruction(payer, payer, seed, bank.AccountSize, bank.ProgramID)
		if err != nil {
			return codec.EmptyAddress, 0, err
		}
		instructions = append(instructions, create)
	}
	instructions = append(instructions, bank.NewIncreaseBalanceInstruction(addr))
	if err := submit(ctx, rt, mu, priv, instructions...); err != nil {
		return codec.EmptyAddress, 0, err
	}

	_, balance, err := readBalance(ctx, mu, priv, seed)
	if err != nil {
		return codec.EmptyAddress, 0, err
	}
	log.Info("increased balance",
		zap.Stringer("account", addr),
		zap.Bool("created", !exists),
		zap.Uint32("balance", balance),
	)
	return addr, balance, nil
}

func readBalance(
	ctx context.Context,
	im state.Immutable,
	priv ed25519.PrivateKey,
	seed string,
) (codec.Address, uint32, error) {
	addr, err := bankAccount(storage.AddressFromPublicKey(priv.PublicKey()), seed)
	if err != nil {
		return codec.EmptyAddress, 0, err
	}
	owner, data, exists, err := storage.GetAccount(ctx, im, addr)
	if err != nil {
		return codec.EmptyAddress, 0, err
	}
	if !exists {
		return codec.EmptyAddress, 0, fmt.Errorf("%w: %s", ErrAccountNotFound, addr)
	}
	if owner != bank.ProgramID {
		return codec.EmptyAddress, 0, fmt.Errorf("%w: %s is owned by %s", program.ErrUnauthorized, addr, owner)
	}
	balance, err := bank.Unpack(data)
	if err != nil {
		return codec.EmptyAddress, 0, err
	}
	return addr, balance, nil
}

// submit signs and executes [instructions] as one transaction and commits
// the result.
func submit(
	ctx context.Context,
	rt *runtime.Runtime,
	mu *state.SimpleMutable,
	priv ed25519.PrivateKey,
	instructions ...program.Instruction,
) error {
	tx := runtime.NewTransaction(priv.PublicKey(), instructions...)
	if err := tx.Sign(priv); err != nil {
		return err
	}
	if err := rt.Execute(ctx, mu, tx); err != nil {
		return err
	}
	return mu.Commit(ctx)
}
