// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package bank implements a program that keeps a single counter per
// account and increases it by one on every call.
package bank

import (
	"fmt"

	"github.com/near/borsh-go"

	"github.com/ava-labs/bankvm/codec"
	"github.com/ava-labs/bankvm/consts"
	"github.com/ava-labs/bankvm/program"
	"github.com/ava-labs/bankvm/utils"
)

// AccountSize is the exact length of an encoded [Account].
const AccountSize = consts.Uint32Len

var (
	_ program.Entrypoint = IncreaseBalance

	// ProgramID is the identity the bank program runs under. Only accounts
	// owned by ProgramID can be mutated by it.
	ProgramID = codec.CreateAddress(consts.ProgramTypeID, utils.ToID([]byte("bank")))
)

// Account is the record stored in the data of a bank account.
//
//	Offset | Length | Field   | Encoding
//	-------|--------|---------|-----------------------------
//	0      | 4      | Balance | unsigned 32-bit, little-endian
//
// There is no header, version, or padding.
type Account struct {
	Balance uint32
}

// Decode parses [data] as an [Account]. [data] must be exactly
// [AccountSize] bytes.
func Decode(data []byte) (*Account, error) {
	if len(data) != AccountSize {
		return nil, fmt.Errorf("%w: expected %d bytes but got %d", program.ErrMalformedRecord, AccountSize, len(data))
	}
	acct := new(Account)
	if err := borsh.Deserialize(acct, data); err != nil {
		return nil, fmt.Errorf("%w: %w", program.ErrMalformedRecord, err)
	}
	return acct, nil
}

// Encode writes [acct] over the first [AccountSize] bytes of [dst]. [dst]
// is left untouched if it is too small.
func Encode(acct *Account, dst []byte) error {
	b, err := borsh.Serialize(*acct)
	if err != nil {
		return fmt.Errorf("%w: %w", program.ErrEncodingFailure, err)
	}
	if len(dst) < len(b) {
		return fmt.Errorf("%w: need %d bytes but have %d", program.ErrEncodingFailure, len(b), len(dst))
	}
	copy(dst, b)
	return nil
}

// Unpack returns the balance stored in [data].
func Unpack(data []byte) (uint32, error) {
	acct, err := Decode(data)
	if err != nil {
		return 0, err
	}
	return acct.Balance, nil
}

// IncreaseBalance adds one to the balance held by the first account.
//
// The addition is unchecked: a balance of [consts.MaxUint32] wraps to 0.
// [instructionData] is reserved and ignored.
func IncreaseBalance(programID codec.Address, accounts []*program.AccountInfo, _ []byte) error {
	account, err := program.NextAccountInfo(&accounts)
	if err != nil {
		return err
	}
	if account == nil {
		return program.ErrMissingAccount
	}

	// account must be owned by the program in order to modify its data
	if account.Owner != programID {
		return program.ErrUnauthorized
	}

	bankAccount, err := Decode(account.Data)
	if err != nil {
		return err
	}
	bankAccount.Balance++
	return Encode(bankAccount, account.Data)
}

// NewIncreaseBalanceInstruction builds the instruction that increases the
// balance of [account].
func NewIncreaseBalanceInstruction(account codec.Address) program.Instruction {
	return program.Instruction{
		ProgramID: ProgramID,
		Accounts: []program.AccountMeta{
			{Address: account, IsWritable: true},
		},
		Data: []byte{},
	}
}
