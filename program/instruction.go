// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package program

import "github.com/ava-labs/bankvm/codec"

// AccountMeta references an account from an [Instruction].
type AccountMeta struct {
	Address    codec.Address
	IsSigner   bool
	IsWritable bool
}

// Instruction asks the host to invoke [ProgramID] with the listed
// accounts and an opaque payload.
type Instruction struct {
	ProgramID codec.Address
	Accounts  []AccountMeta
	Data      []byte
}
