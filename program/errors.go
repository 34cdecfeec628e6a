// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package program

import "errors"

var (
	ErrMissingAccount  = errors.New("not enough account keys")
	ErrUnauthorized    = errors.New("account not owned by program")
	ErrMalformedRecord = errors.New("invalid account data")
	ErrEncodingFailure = errors.New("account data too small")

	ErrInvalidInstructionData   = errors.New("invalid instruction data")
	ErrMissingRequiredSignature = errors.New("missing required signature")
	ErrAccountAlreadyInUse      = errors.New("account already in use")
	ErrInvalidSeeds             = errors.New("provided seeds do not result in a valid address")
	ErrInvalidAccountDataSize   = errors.New("invalid account data size")
)
