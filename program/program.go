// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package program defines the boundary between a host runtime and the
// programs it executes.
package program

import "github.com/ava-labs/bankvm/codec"

// AccountInfo is the host's handle to one persisted account for the
// duration of a single call. Data is borrowed: a program may overwrite it
// in place but must not grow, shrink, or retain it after returning.
type AccountInfo struct {
	Address    codec.Address
	Owner      codec.Address
	IsSigner   bool
	IsWritable bool
	Data       []byte
}

// Entrypoint is the single function a program exposes to the host.
//
// [programID] is the identity the host assigned to the running program,
// [accounts] are the accounts the instruction referenced, in order, and
// [instructionData] is the opaque payload of the instruction.
type Entrypoint func(programID codec.Address, accounts []*AccountInfo, instructionData []byte) error

// NextAccountInfo pops the next account off [iter].
func NextAccountInfo(iter *[]*AccountInfo) (*AccountInfo, error) {
	if len(*iter) == 0 {
		return nil, ErrMissingAccount
	}
	next := (*iter)[0]
	*iter = (*iter)[1:]
	return next, nil
}
