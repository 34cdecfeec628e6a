// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package runtime

import (
	"context"
	"testing"

	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/bankvm/codec"
	"github.com/ava-labs/bankvm/consts"
	"github.com/ava-labs/bankvm/crypto"
	"github.com/ava-labs/bankvm/crypto/ed25519"
	"github.com/ava-labs/bankvm/program"
	"github.com/ava-labs/bankvm/program/bank"
	"github.com/ava-labs/bankvm/program/system"
	"github.com/ava-labs/bankvm/state"
	"github.com/ava-labs/bankvm/storage"
	"github.com/ava-labs/bankvm/trace"
)

const bankSeed = "bank"

type testEnv struct {
	rt    *Runtime
	db    *memdb.Database
	mu    *state.SimpleMutable
	priv  ed25519.PrivateKey
	payer codec.Address
	reg   *prometheus.Registry
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithConfig(t, NewConfig())
}

func newTestEnvWithConfig(t *testing.T, cfg Config) *testEnv {
	require := require.New(t)

	reg := prometheus.NewRegistry()
	rt, err := New(logging.NoLog{}, trace.Noop(), cfg, reg)
	require.NoError(err)
	require.NoError(rt.Register(bank.ProgramID, bank.IncreaseBalance))

	priv, err := ed25519.GeneratePrivateKey()
	require.NoError(err)

	db := memdb.New()
	return &testEnv{
		rt:    rt,
		db:    db,
		mu:    state.NewSimpleMutable(db),
		priv:  priv,
		payer: storage.AddressFromPublicKey(priv.PublicKey()),
		reg:   reg,
	}
}

func (e *testEnv) signed(t *testing.T, instructions ...program.Instruction) *Transaction {
	tx := NewTransaction(e.priv.PublicKey(), instructions...)
	require.NoError(t, tx.Sign(e.priv))
	return tx
}

func (e *testEnv) createBankAccount(t *testing.T) codec.Address {
	require := require.New(t)

	ix, err := system.NewCreateAccountWithSeedInstruction(e.payer, e.payer, bankSeed, bank.AccountSize, bank.ProgramID)
	require.NoError(err)
	require.NoError(e.rt.Execute(context.Background(), e.mu, e.signed(t, ix)))

	addr, err := storage.CreateWithSeed(e.payer, bankSeed, bank.ProgramID)
	require.NoError(err)
	return addr
}

func (e *testEnv) balance(t *testing.T, addr codec.Address) uint32 {
	_, data, exists, err := storage.GetAccount(context.Background(), e.mu, addr)
	require.NoError(t, err)
	require.True(t, exists)
	balance, err := bank.Unpack(data)
	require.NoError(t, err)
	return balance
}

func TestIncreaseBalance(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	env := newTestEnv(t)

	addr := env.createBankAccount(t)
	owner, data, exists, err := storage.GetAccount(ctx, env.mu, addr)
	require.NoError(err)
	require.True(exists)
	require.Equal(bank.ProgramID, owner)
	require.Equal([]byte{0, 0, 0, 0}, data)

	require.NoError(env.rt.Execute(ctx, env.mu, env.signed(t, bank.NewIncreaseBalanceInstruction(addr))))
	require.Equal(uint32(1), env.balance(t, addr))
	require.NoError(env.rt.Execute(ctx, env.mu, env.signed(t, bank.NewIncreaseBalanceInstruction(addr))))
	require.Equal(uint32(2), env.balance(t, addr))

	// committed state survives a fresh view of the database
	require.NoError(env.mu.Commit(ctx))
	_, data, _, err = storage.GetAccount(ctx, state.NewSimpleMutable(env.db), addr)
	require.NoError(err)
	require.Equal([]byte{2, 0, 0, 0}, data)

	require.Equal(float64(3), testutil.ToFloat64(env.rt.metrics.transactions))
	require.Equal(float64(3), testutil.ToFloat64(env.rt.metrics.instructions))
	require.Zero(testutil.ToFloat64(env.rt.metrics.failedTransactions))
}

func TestCreateAndIncreaseInOneTransaction(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	env := newTestEnv(t)

	create, err := system.NewCreateAccountWithSeedInstruction(env.payer, env.payer, bankSeed, bank.AccountSize, bank.ProgramID)
	require.NoError(err)
	addr, err := storage.CreateWithSeed(env.payer, bankSeed, bank.ProgramID)
	require.NoError(err)

	increase := bank.NewIncreaseBalanceInstruction(addr)
	require.NoError(env.rt.Execute(ctx, env.mu, env.signed(t, create, increase, increase)))
	require.Equal(uint32(2), env.balance(t, addr))
}

func TestIncreaseBalanceWrapsThroughRuntime(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	env := newTestEnv(t)

	addr := codec.CreateAddress(consts.SeedTypeID, ids.GenerateTestID())
	require.NoError(storage.SetAccount(ctx, env.mu, addr, bank.ProgramID, []byte{0xff, 0xff, 0xff, 0xff}))

	require.NoError(env.rt.Execute(ctx, env.mu, env.signed(t, bank.NewIncreaseBalanceInstruction(addr))))
	require.Zero(env.balance(t, addr))
}

func TestFailedTransactionIsAtomic(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	env := newTestEnv(t)

	addr := env.createBankAccount(t)
	require.NoError(env.mu.Commit(ctx))

	foreign := codec.CreateAddress(consts.SeedTypeID, ids.GenerateTestID())
	other := codec.CreateAddress(consts.ProgramTypeID, ids.GenerateTestID())
	require.NoError(storage.SetAccount(ctx, env.mu, foreign, other, []byte{7, 0, 0, 0}))
	require.NoError(env.mu.Commit(ctx))

	err := env.rt.Execute(ctx, env.mu, env.signed(t,
		bank.NewIncreaseBalanceInstruction(addr),
		bank.NewIncreaseBalanceInstruction(foreign),
	))
	require.ErrorIs(err, program.ErrUnauthorized)
	require.Zero(env.mu.Pending())
	require.Zero(env.balance(t, addr))
	require.Equal(uint32(7), env.balance(t, foreign))

	require.Equal(float64(1), testutil.ToFloat64(env.rt.metrics.failedTransactions))
	require.Equal(float64(1), testutil.ToFloat64(env.rt.metrics.failedInstructions.WithLabelValues(program.StatusUnauthorized.String())))
}

func TestExecuteProgramErrors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		setup func(t *testing.T, env *testEnv) program.Instruction
		err   error
	}{
		{
			name: "missing account",
			setup: func(*testing.T, *testEnv) program.Instruction {
				return program.Instruction{ProgramID: bank.ProgramID}
			},
			err: program.ErrMissingAccount,
		},
		{
			name: "unallocated account",
			setup: func(*testing.T, *testEnv) program.Instruction {
				return bank.NewIncreaseBalanceInstruction(codec.CreateAddress(consts.SeedTypeID, ids.GenerateTestID()))
			},
			err: program.ErrUnauthorized,
		},
		{
			name: "malformed record",
			setup: func(t *testing.T, env *testEnv) program.Instruction {
				addr := codec.CreateAddress(consts.SeedTypeID, ids.GenerateTestID())
				require.NoError(t, storage.SetAccount(ctx, env.mu, addr, bank.ProgramID, []byte{1, 2, 3}))
				return bank.NewIncreaseBalanceInstruction(addr)
			},
			err: program.ErrMalformedRecord,
		},
		{
			name: "unknown program",
			setup: func(*testing.T, *testEnv) program.Instruction {
				return program.Instruction{ProgramID: codec.CreateAddress(consts.ProgramTypeID, ids.GenerateTestID())}
			},
			err: ErrUnknownProgram,
		},
		{
			name: "signer is not the payer",
			setup: func(*testing.T, *testEnv) program.Instruction {
				ix := bank.NewIncreaseBalanceInstruction(codec.CreateAddress(consts.SeedTypeID, ids.GenerateTestID()))
				ix.Accounts[0].IsSigner = true
				return ix
			},
			err: program.ErrMissingRequiredSignature,
		},
		{
			name: "too many accounts",
			setup: func(*testing.T, *testEnv) program.Instruction {
				ix := program.Instruction{ProgramID: bank.ProgramID}
				for i := 0; i <= defaultMaxAccountsPerInstruction; i++ {
					ix.Accounts = append(ix.Accounts, program.AccountMeta{Address: codec.CreateAddress(consts.SeedTypeID, ids.GenerateTestID())})
				}
				return ix
			},
			err: ErrTooManyAccounts,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			env := newTestEnv(t)
			ix := tt.setup(t, env)
			require.NoError(env.mu.Commit(ctx))

			require.ErrorIs(env.rt.Execute(ctx, env.mu, env.signed(t, ix)), tt.err)
			require.Zero(env.mu.Pending())
		})
	}
}

func TestExecuteTransactionErrors(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	env := newTestEnv(t)
	addr := env.createBankAccount(t)
	ix := bank.NewIncreaseBalanceInstruction(addr)

	require.ErrorIs(env.rt.Execute(ctx, env.mu, env.signed(t)), ErrNoInstructions)

	many := make([]program.Instruction, defaultMaxInstructions+1)
	for i := range many {
		many[i] = ix
	}
	require.ErrorIs(env.rt.Execute(ctx, env.mu, env.signed(t, many...)), ErrTooManyInstructions)

	unsigned := NewTransaction(env.priv.PublicKey(), ix)
	require.ErrorIs(env.rt.Execute(ctx, env.mu, unsigned), crypto.ErrInvalidSignature)

	tampered := env.signed(t, ix)
	tampered.Instructions[0].Data = []byte{1}
	require.ErrorIs(env.rt.Execute(ctx, env.mu, tampered), crypto.ErrInvalidSignature)

	require.Zero(env.balance(t, addr))
}

func TestHostChecks(t *testing.T) {
	ctx := context.Background()
	rogueID := codec.CreateAddress(consts.ProgramTypeID, ids.GenerateTestID())

	tests := []struct {
		name     string
		owner    codec.Address
		writable bool
		call     program.Entrypoint
		err      error
	}{
		{
			name:     "read-only account modified",
			owner:    rogueID,
			writable: false,
			call: func(_ codec.Address, accounts []*program.AccountInfo, _ []byte) error {
				accounts[0].Data[0]++
				return nil
			},
			err: ErrReadonlyDataModified,
		},
		{
			name:     "foreign account modified",
			owner:    bank.ProgramID,
			writable: true,
			call: func(_ codec.Address, accounts []*program.AccountInfo, _ []byte) error {
				accounts[0].Data[0]++
				return nil
			},
			err: ErrExternalAccountDataModified,
		},
		{
			name:     "data resized",
			owner:    rogueID,
			writable: true,
			call: func(_ codec.Address, accounts []*program.AccountInfo, _ []byte) error {
				accounts[0].Data = append(accounts[0].Data, 0)
				return nil
			},
			err: ErrAccountDataSizeChanged,
		},
		{
			name:     "owner reassigned",
			owner:    rogueID,
			writable: true,
			call: func(_ codec.Address, accounts []*program.AccountInfo, _ []byte) error {
				accounts[0].Owner = bank.ProgramID
				return nil
			},
			err: ErrAccountOwnerModified,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			env := newTestEnv(t)
			require.NoError(env.rt.Register(rogueID, tt.call))

			addr := codec.CreateAddress(consts.SeedTypeID, ids.GenerateTestID())
			require.NoError(storage.SetAccount(ctx, env.mu, addr, tt.owner, []byte{4, 0, 0, 0}))
			require.NoError(env.mu.Commit(ctx))

			ix := program.Instruction{
				ProgramID: rogueID,
				Accounts:  []program.AccountMeta{{Address: addr, IsWritable: tt.writable}},
			}
			require.ErrorIs(env.rt.Execute(ctx, env.mu, env.signed(t, ix)), tt.err)
			require.Zero(env.mu.Pending())
		})
	}
}

func TestAccountDataTooLarge(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	cfg := NewConfig()
	cfg.MaxAccountDataSize = 8
	env := newTestEnvWithConfig(t, cfg)

	// within the system program's own limit but above the runtime's
	ix, err := system.NewCreateAccountWithSeedInstruction(env.payer, env.payer, bankSeed, 16, bank.ProgramID)
	require.NoError(err)
	require.ErrorIs(env.rt.Execute(ctx, env.mu, env.signed(t, ix)), ErrAccountDataTooLarge)
	require.Zero(env.mu.Pending())

	addr, err := storage.CreateWithSeed(env.payer, bankSeed, bank.ProgramID)
	require.NoError(err)
	_, _, exists, err := storage.GetAccount(ctx, env.mu, addr)
	require.NoError(err)
	require.False(exists)

	// the limit itself is accepted
	ix, err = system.NewCreateAccountWithSeedInstruction(env.payer, env.payer, bankSeed, 8, bank.ProgramID)
	require.NoError(err)
	require.NoError(env.rt.Execute(ctx, env.mu, env.signed(t, ix)))
}

func TestProgramRewritesAccountAddress(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	env := newTestEnv(t)
	addr := env.createBankAccount(t)
	require.NoError(env.mu.Commit(ctx))

	rogueID := codec.CreateAddress(consts.ProgramTypeID, ids.GenerateTestID())
	require.NoError(env.rt.Register(rogueID, func(_ codec.Address, accounts []*program.AccountInfo, _ []byte) error {
		accounts[0].Address = codec.CreateAddress(consts.SeedTypeID, ids.GenerateTestID())
		accounts[0].Data[0]++
		return nil
	}))

	ix := program.Instruction{
		ProgramID: rogueID,
		Accounts:  []program.AccountMeta{{Address: addr, IsWritable: true}},
	}
	require.ErrorIs(env.rt.Execute(ctx, env.mu, env.signed(t, ix)), ErrExternalAccountDataModified)
	require.Zero(env.mu.Pending())
	require.Zero(env.balance(t, addr))
}

func TestProgramCannotRetainData(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	env := newTestEnv(t)
	addr := env.createBankAccount(t)

	var retained []byte
	spyID := codec.CreateAddress(consts.ProgramTypeID, ids.GenerateTestID())
	require.NoError(env.rt.Register(spyID, func(_ codec.Address, accounts []*program.AccountInfo, _ []byte) error {
		retained = accounts[0].Data
		return nil
	}))

	spy := program.Instruction{
		ProgramID: spyID,
		Accounts:  []program.AccountMeta{{Address: addr}},
	}
	require.NoError(env.rt.Execute(ctx, env.mu, env.signed(t, spy)))
	retained[0] = 0xff
	require.Zero(env.balance(t, addr))
}

func TestDuplicateAccountReferences(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	env := newTestEnv(t)
	addr := env.createBankAccount(t)

	ix := bank.NewIncreaseBalanceInstruction(addr)
	ix.Accounts = append(ix.Accounts, program.AccountMeta{Address: addr})
	require.NoError(env.rt.Execute(ctx, env.mu, env.signed(t, ix)))
	require.Equal(uint32(1), env.balance(t, addr))
}

func TestCreateAccountTwiceFails(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	env := newTestEnv(t)
	env.createBankAccount(t)

	ix, err := system.NewCreateAccountWithSeedInstruction(env.payer, env.payer, bankSeed, bank.AccountSize, bank.ProgramID)
	require.NoError(err)
	require.ErrorIs(env.rt.Execute(ctx, env.mu, env.signed(t, ix)), program.ErrAccountAlreadyInUse)
}

func TestRegisterDuplicate(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)
	require.ErrorIs(env.rt.Register(bank.ProgramID, bank.IncreaseBalance), ErrDuplicateProgram)
	require.ErrorIs(env.rt.Register(system.ProgramID, system.Process), ErrDuplicateProgram)
}
