// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package runtime

import (
	"github.com/near/borsh-go"

	"github.com/ava-labs/bankvm/codec"
	"github.com/ava-labs/bankvm/crypto"
	"github.com/ava-labs/bankvm/crypto/ed25519"
	"github.com/ava-labs/bankvm/program"
	"github.com/ava-labs/bankvm/storage"
)

// Transaction is a list of instructions executed atomically on behalf of
// [Payer]. The payer's address is the only signer the runtime recognizes.
type Transaction struct {
	Payer        ed25519.PublicKey
	Instructions []program.Instruction
	Signature    ed25519.Signature
}

type unsignedTransaction struct {
	Payer        ed25519.PublicKey
	Instructions []program.Instruction
}

func NewTransaction(payer ed25519.PublicKey, instructions ...program.Instruction) *Transaction {
	return &Transaction{
		Payer:        payer,
		Instructions: instructions,
	}
}

// Digest returns the bytes covered by the payer's signature.
func (t *Transaction) Digest() ([]byte, error) {
	return borsh.Serialize(unsignedTransaction{
		Payer:        t.Payer,
		Instructions: t.Instructions,
	})
}

// Sign sets the signature of [t] using [priv]. [priv] must belong to the payer.
func (t *Transaction) Sign(priv ed25519.PrivateKey) error {
	if priv.PublicKey() != t.Payer {
		return crypto.ErrInvalidPrivateKey
	}
	digest, err := t.Digest()
	if err != nil {
		return err
	}
	t.Signature = ed25519.Sign(digest, priv)
	return nil
}

// Verify checks the payer's signature over [t].
func (t *Transaction) Verify() error {
	digest, err := t.Digest()
	if err != nil {
		return err
	}
	if !ed25519.Verify(digest, t.Payer, t.Signature) {
		return crypto.ErrInvalidSignature
	}
	return nil
}

// PayerAddress is the account address controlled by the payer.
func (t *Transaction) PayerAddress() codec.Address {
	return storage.AddressFromPublicKey(t.Payer)
}

// Bytes returns the wire form of [t].
func (t *Transaction) Bytes() ([]byte, error) {
	return borsh.Serialize(*t)
}

// UnmarshalTransaction parses the output of [Transaction.Bytes].
func UnmarshalTransaction(b []byte) (*Transaction, error) {
	tx := new(Transaction)
	if err := borsh.Deserialize(tx, b); err != nil {
		return nil, err
	}
	return tx, nil
}
