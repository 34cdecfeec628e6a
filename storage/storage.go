// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/database"
	"github.com/near/borsh-go"

	"github.com/ava-labs/bankvm/codec"
	"github.com/ava-labs/bankvm/consts"
	"github.com/ava-labs/bankvm/crypto/ed25519"
	"github.com/ava-labs/bankvm/state"
	"github.com/ava-labs/bankvm/utils"
)

const accountsPrefix = 0x0

// storedAccount is the persisted form of an account.
type storedAccount struct {
	Owner codec.Address
	Data  []byte
}

// [accountsPrefix] + [address]
func AccountKey(addr codec.Address) (k []byte) {
	k = make([]byte, 1+codec.AddressLen)
	k[0] = accountsPrefix
	copy(k[1:], addr[:])
	return
}

// GetAccount returns the owner and data of [addr]. An account that was
// never allocated has an empty owner and no data.
func GetAccount(
	ctx context.Context,
	im state.Immutable,
	addr codec.Address,
) (codec.Address, []byte, bool, error) {
	v, err := im.GetValue(ctx, AccountKey(addr))
	if errors.Is(err, database.ErrNotFound) {
		return codec.EmptyAddress, nil, false, nil
	}
	if err != nil {
		return codec.EmptyAddress, nil, false, err
	}
	var acct storedAccount
	if err := borsh.Deserialize(&acct, v); err != nil {
		return codec.EmptyAddress, nil, false, fmt.Errorf("%w: %s: %w", ErrInvalidAccount, addr, err)
	}
	return acct.Owner, acct.Data, true, nil
}

func SetAccount(
	ctx context.Context,
	mu state.Mutable,
	addr codec.Address,
	owner codec.Address,
	data []byte,
) error {
	if data == nil {
		data = []byte{}
	}
	v, err := borsh.Serialize(storedAccount{Owner: owner, Data: data})
	if err != nil {
		return err
	}
	return mu.Insert(ctx, AccountKey(addr), v)
}

func DeleteAccount(
	ctx context.Context,
	mu state.Mutable,
	addr codec.Address,
) error {
	return mu.Remove(ctx, AccountKey(addr))
}

// CreateWithSeed derives the address of the account [base] creates for
// [owner] under [seed].
func CreateWithSeed(base codec.Address, seed string, owner codec.Address) (codec.Address, error) {
	if len(seed) > consts.MaxSeedLen {
		return codec.EmptyAddress, ErrMaxSeedLengthExceeded
	}
	b := make([]byte, 0, 2*codec.AddressLen+len(seed))
	b = append(b, base[:]...)
	b = append(b, seed...)
	b = append(b, owner[:]...)
	return codec.CreateAddress(consts.SeedTypeID, utils.ToID(b)), nil
}

// AddressFromPublicKey returns the address controlled by [pk].
func AddressFromPublicKey(pk ed25519.PublicKey) codec.Address {
	return codec.CreateAddress(consts.ED25519TypeID, utils.ToID(pk[:]))
}
