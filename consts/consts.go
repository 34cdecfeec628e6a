// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package consts

const (
	Name = "bankvm"

	IDLen     = 32
	Uint32Len = 4
	Uint64Len = 8
	MaxUint32 = ^uint32(0)

	// Address type IDs. The first byte of every [codec.Address] names the
	// scheme used to derive the remaining 32 bytes.
	ProgramTypeID uint8 = 0
	ED25519TypeID uint8 = 1
	SeedTypeID    uint8 = 2

	// MaxSeedLen bounds the seed used to derive account addresses.
	MaxSeedLen = 32

	// MaxAccountDataSize bounds the bytes a single account may hold.
	MaxAccountDataSize = 10 * 1024 * 1024
)
