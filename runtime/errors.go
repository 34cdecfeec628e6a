// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package runtime

import "errors"

var (
	ErrNoInstructions              = errors.New("transaction has no instructions")
	ErrTooManyInstructions         = errors.New("too many instructions")
	ErrTooManyAccounts             = errors.New("too many accounts")
	ErrUnknownProgram              = errors.New("unknown program")
	ErrDuplicateProgram            = errors.New("program already registered")
	ErrReadonlyDataModified        = errors.New("instruction modified data of a read-only account")
	ErrExternalAccountDataModified = errors.New("instruction modified data of an account it does not own")
	ErrAccountDataSizeChanged      = errors.New("instruction changed the size of account data")
	ErrAccountOwnerModified        = errors.New("instruction modified the owner of an account")
	ErrAccountDataTooLarge         = errors.New("account data too large")
)
