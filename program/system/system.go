// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package system implements the built-in program that allocates accounts.
package system

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/near/borsh-go"

	"github.com/ava-labs/bankvm/codec"
	"github.com/ava-labs/bankvm/consts"
	"github.com/ava-labs/bankvm/program"
	"github.com/ava-labs/bankvm/storage"
)

const (
	createAccountWithSeedTag = 0x0

	// seedLenOffset is where the seed's u32 length prefix starts in the
	// CreateAccountWithSeed arguments.
	seedLenOffset = codec.AddressLen
	// maxCreateAccountWithSeedSize is the encoded size of the largest valid
	// CreateAccountWithSeed.
	maxCreateAccountWithSeedSize = codec.AddressLen + consts.Uint32Len + consts.MaxSeedLen + consts.Uint64Len + codec.AddressLen
)

var (
	_ program.Entrypoint = Process

	// ProgramID is the all-zero program address, the owner of every
	// account that has not been allocated yet.
	ProgramID = codec.EmptyAddress
)

// CreateAccountWithSeed allocates [Space] zeroed bytes at the address
// derived from ([Base], [Seed], [Owner]) and assigns it to [Owner].
type CreateAccountWithSeed struct {
	Base  codec.Address
	Seed  string
	Space uint64
	Owner codec.Address
}

// NewCreateAccountWithSeedInstruction builds the instruction that lets
// [payer] create the account [base] derives for [owner] under [seed].
func NewCreateAccountWithSeedInstruction(
	payer codec.Address,
	base codec.Address,
	seed string,
	space uint64,
	owner codec.Address,
) (program.Instruction, error) {
	newAccount, err := storage.CreateWithSeed(base, seed, owner)
	if err != nil {
		return program.Instruction{}, err
	}
	args, err := borsh.Serialize(CreateAccountWithSeed{
		Base:  base,
		Seed:  seed,
		Space: space,
		Owner: owner,
	})
	if err != nil {
		return program.Instruction{}, err
	}
	accounts := []program.AccountMeta{
		{Address: payer, IsSigner: true, IsWritable: true},
		{Address: newAccount, IsWritable: true},
	}
	if base != payer {
		accounts = append(accounts, program.AccountMeta{Address: base, IsSigner: true})
	}
	return program.Instruction{
		ProgramID: ProgramID,
		Accounts:  accounts,
		Data:      append([]byte{createAccountWithSeedTag}, args...),
	}, nil
}

// Process dispatches a system instruction.
//
// Accounts for CreateAccountWithSeed:
//
//	0. [signer, writable] payer
//	1. [writable] new account
//	2. [signer] base, only when base is not the payer
func Process(programID codec.Address, accounts []*program.AccountInfo, instructionData []byte) error {
	if len(instructionData) == 0 {
		return fmt.Errorf("%w: empty", program.ErrInvalidInstructionData)
	}
	switch instructionData[0] {
	case createAccountWithSeedTag:
		b := instructionData[1:]
		// borsh allocates a string before reading it, so the seed length is
		// bounded here first.
		if len(b) >= seedLenOffset+consts.Uint32Len {
			if seedLen := binary.LittleEndian.Uint32(b[seedLenOffset:]); seedLen > consts.MaxSeedLen {
				return fmt.Errorf("%w: seed length %d exceeds %d", program.ErrInvalidSeeds, seedLen, consts.MaxSeedLen)
			}
		}
		if len(b) > maxCreateAccountWithSeedSize {
			return fmt.Errorf("%w: %d bytes exceeds %d", program.ErrInvalidInstructionData, len(b), maxCreateAccountWithSeedSize)
		}
		args := new(CreateAccountWithSeed)
		if err := borsh.Deserialize(args, b); err != nil {
			return fmt.Errorf("%w: %w", program.ErrInvalidInstructionData, err)
		}
		return createAccountWithSeed(programID, accounts, args)
	default:
		return fmt.Errorf("%w: unknown tag %d", program.ErrInvalidInstructionData, instructionData[0])
	}
}

func createAccountWithSeed(programID codec.Address, accounts []*program.AccountInfo, args *CreateAccountWithSeed) error {
	payer, err := program.NextAccountInfo(&accounts)
	if err != nil {
		return err
	}
	newAccount, err := program.NextAccountInfo(&accounts)
	if err != nil {
		return err
	}
	if !payer.IsSigner {
		return fmt.Errorf("%w: payer %s", program.ErrMissingRequiredSignature, payer.Address)
	}
	if !newAccount.IsWritable {
		return fmt.Errorf("%w: new account must be writable", program.ErrInvalidInstructionData)
	}

	if args.Base != payer.Address {
		base, err := program.NextAccountInfo(&accounts)
		if err != nil {
			return err
		}
		if base.Address != args.Base || !base.IsSigner {
			return fmt.Errorf("%w: base %s", program.ErrMissingRequiredSignature, args.Base)
		}
	}

	expected, err := storage.CreateWithSeed(args.Base, args.Seed, args.Owner)
	if errors.Is(err, storage.ErrMaxSeedLengthExceeded) {
		return fmt.Errorf("%w: %w", program.ErrInvalidSeeds, err)
	}
	if err != nil {
		return err
	}
	if expected != newAccount.Address {
		return fmt.Errorf("%w: expected %s but got %s", program.ErrInvalidSeeds, expected, newAccount.Address)
	}

	if newAccount.Owner != programID || len(newAccount.Data) != 0 {
		return fmt.Errorf("%w: %s", program.ErrAccountAlreadyInUse, newAccount.Address)
	}
	if args.Space > consts.MaxAccountDataSize {
		return fmt.Errorf("%w: %d > %d", program.ErrInvalidAccountDataSize, args.Space, consts.MaxAccountDataSize)
	}

	// The system program is the only program allowed to resize an account or
	// hand it to a new owner; the runtime checks this after every call.
	newAccount.Data = make([]byte, args.Space)
	newAccount.Owner = args.Owner
	return nil
}
