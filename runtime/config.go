// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package runtime

import "github.com/ava-labs/bankvm/consts"

const (
	defaultMaxInstructions           = 64
	defaultMaxAccountsPerInstruction = 32
)

type Config struct {
	// MaxInstructions bounds the instructions in one transaction.
	MaxInstructions int `json:"maxInstructions" yaml:"maxInstructions"`
	// MaxAccountsPerInstruction bounds the accounts one instruction may reference.
	MaxAccountsPerInstruction int `json:"maxAccountsPerInstruction" yaml:"maxAccountsPerInstruction"`
	// MaxAccountDataSize bounds the data any account may hold after a call.
	MaxAccountDataSize int `json:"maxAccountDataSize" yaml:"maxAccountDataSize"`
}

func NewConfig() Config {
	return Config{
		MaxInstructions:           defaultMaxInstructions,
		MaxAccountsPerInstruction: defaultMaxAccountsPerInstruction,
		MaxAccountDataSize:        consts.MaxAccountDataSize,
	}
}
