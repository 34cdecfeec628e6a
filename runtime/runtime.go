// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package runtime

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/ava-labs/avalanchego/trace"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/ava-labs/bankvm/codec"
	"github.com/ava-labs/bankvm/program"
	"github.com/ava-labs/bankvm/program/system"
	"github.com/ava-labs/bankvm/state"
	"github.com/ava-labs/bankvm/storage"
)

// Runtime executes transactions against account state. It plays the host
// for every registered program: it loads the referenced accounts, hands
// the program borrowed copies, checks what the program did with them, and
// writes the result back only once the whole transaction has succeeded.
//
// Runtime does not synchronize access to the [state.Mutable] it is given;
// callers must not execute transactions on the same state concurrently.
type Runtime struct {
	log     logging.Logger
	tracer  trace.Tracer
	cfg     Config
	metrics *metrics

	programs map[codec.Address]program.Entrypoint
}

func New(
	log logging.Logger,
	tracer trace.Tracer,
	cfg Config,
	registerer prometheus.Registerer,
) (*Runtime, error) {
	m, err := newMetrics(registerer)
	if err != nil {
		return nil, err
	}
	r := &Runtime{
		log:      log,
		tracer:   tracer,
		cfg:      cfg,
		metrics:  m,
		programs: map[codec.Address]program.Entrypoint{},
	}
	if err := r.Register(system.ProgramID, system.Process); err != nil {
		return nil, err
	}
	return r, nil
}

// Register makes [entrypoint] callable as [programID].
func (r *Runtime) Register(programID codec.Address, entrypoint program.Entrypoint) error {
	if _, ok := r.programs[programID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateProgram, programID)
	}
	r.programs[programID] = entrypoint
	r.log.Debug("registered program", zap.Stringer("programID", programID))
	return nil
}

// account is the transaction-local view of a persisted account.
type account struct {
	owner codec.Address
	data  []byte
	dirty bool
}

// loadedAccount pairs what the host loaded for [addr] with the copy handed
// to the program. [addr] is kept here since the program may rewrite
// info.Address.
type loadedAccount struct {
	addr   codec.Address
	before *account
	info   *program.AccountInfo
}

// Execute runs every instruction in [tx] in order. If any instruction
// fails, [mu] is left untouched and the error of the first failing
// instruction is returned.
func (r *Runtime) Execute(ctx context.Context, mu state.Mutable, tx *Transaction) error {
	ctx, span := r.tracer.Start(ctx, "Runtime.Execute", oteltrace.WithAttributes(
		attribute.Int("instructions", len(tx.Instructions)),
	))
	defer span.End()

	start := time.Now()
	defer func() { r.metrics.execute.Observe(float64(time.Since(start))) }()
	r.metrics.transactions.Inc()

	if err := r.execute(ctx, mu, tx); err != nil {
		r.metrics.failedTransactions.Inc()
		span.RecordError(err)
		return err
	}
	return nil
}

func (r *Runtime) execute(ctx context.Context, mu state.Mutable, tx *Transaction) error {
	switch {
	case len(tx.Instructions) == 0:
		return ErrNoInstructions
	case len(tx.Instructions) > r.cfg.MaxInstructions:
		return fmt.Errorf("%w: %d > %d", ErrTooManyInstructions, len(tx.Instructions), r.cfg.MaxInstructions)
	}
	if err := tx.Verify(); err != nil {
		return err
	}

	payer := tx.PayerAddress()
	accounts := map[codec.Address]*account{}
	for i := range tx.Instructions {
		ix := &tx.Instructions[i]
		if err := r.executeInstruction(ctx, mu, payer, accounts, ix); err != nil {
			status := program.StatusOf(err)
			r.metrics.failedInstructions.WithLabelValues(status.String()).Inc()
			r.log.Warn("instruction failed",
				zap.Int("index", i),
				zap.Stringer("programID", ix.ProgramID),
				zap.Stringer("status", status),
				zap.Error(err),
			)
			return fmt.Errorf("instruction %d: %w", i, err)
		}
		r.metrics.instructions.Inc()
	}

	// Deterministic write order keeps the batch handed to the database stable.
	addrs := make([]codec.Address, 0, len(accounts))
	for addr, acct := range accounts {
		if acct.dirty {
			addrs = append(addrs, addr)
		}
	}
	slices.SortFunc(addrs, func(a, b codec.Address) int {
		return bytes.Compare(a[:], b[:])
	})
	for _, addr := range addrs {
		acct := accounts[addr]
		if err := storage.SetAccount(ctx, mu, addr, acct.owner, acct.data); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runtime) load(
	ctx context.Context,
	im state.Immutable,
	accounts map[codec.Address]*account,
	addr codec.Address,
) (*account, error) {
	if acct, ok := accounts[addr]; ok {
		return acct, nil
	}
	owner, data, _, err := storage.GetAccount(ctx, im, addr)
	if err != nil {
		return nil, err
	}
	acct := &account{owner: owner, data: data}
	accounts[addr] = acct
	return acct, nil
}

func (r *Runtime) executeInstruction(
	ctx context.Context,
	mu state.Mutable,
	payer codec.Address,
	accounts map[codec.Address]*account,
	ix *program.Instruction,
) error {
	ctx, span := r.tracer.Start(ctx, "Runtime.executeInstruction", oteltrace.WithAttributes(
		attribute.Stringer("programID", ix.ProgramID),
		attribute.Int("accounts", len(ix.Accounts)),
	))
	defer span.End()

	entrypoint, ok := r.programs[ix.ProgramID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProgram, ix.ProgramID)
	}
	if len(ix.Accounts) > r.cfg.MaxAccountsPerInstruction {
		return fmt.Errorf("%w: %d > %d", ErrTooManyAccounts, len(ix.Accounts), r.cfg.MaxAccountsPerInstruction)
	}

	var (
		keys   = state.Keys{}
		infos  = make([]*program.AccountInfo, 0, len(ix.Accounts))
		unique = make([]loadedAccount, 0, len(ix.Accounts))
		byAddr = make(map[codec.Address]*program.AccountInfo, len(ix.Accounts))
	)
	for _, meta := range ix.Accounts {
		if meta.IsSigner && meta.Address != payer {
			return fmt.Errorf("%w: %s", program.ErrMissingRequiredSignature, meta.Address)
		}
		perm := state.Read
		if meta.IsWritable {
			perm = state.Write
		}
		keys.Add(string(meta.Address[:]), perm)

		// An account referenced twice is handed to the program once, with
		// the union of its flags.
		if info, ok := byAddr[meta.Address]; ok {
			info.IsSigner = info.IsSigner || meta.IsSigner
			info.IsWritable = info.IsWritable || meta.IsWritable
			infos = append(infos, info)
			continue
		}
		acct, err := r.load(ctx, mu, accounts, meta.Address)
		if err != nil {
			return err
		}
		info := &program.AccountInfo{
			Address:    meta.Address,
			Owner:      acct.owner,
			IsSigner:   meta.IsSigner,
			IsWritable: meta.IsWritable,
			Data:       append([]byte{}, acct.data...),
		}
		byAddr[meta.Address] = info
		infos = append(infos, info)
		unique = append(unique, loadedAccount{addr: meta.Address, before: acct, info: info})
	}

	if err := entrypoint(ix.ProgramID, infos, slices.Clone(ix.Data)); err != nil {
		return err
	}

	// Validate every account before applying any of them so a rejected
	// instruction leaves the transaction's working set untouched.
	for _, u := range unique {
		if err := r.verifyAccount(ix.ProgramID, u.addr, u.before, u.info, keys); err != nil {
			return err
		}
	}
	for _, u := range unique {
		acct := u.before
		if acct.owner == u.info.Owner && bytes.Equal(acct.data, u.info.Data) {
			continue
		}
		acct.owner = u.info.Owner
		acct.data = slices.Clone(u.info.Data)
		acct.dirty = true
	}

	r.log.Debug("executed instruction",
		zap.Stringer("programID", ix.ProgramID),
		zap.Int("accounts", len(ix.Accounts)),
	)
	return nil
}

// verifyAccount enforces what a program may do to an account it was
// handed:
//   - only writable accounts may change
//   - only the owning program may change data or reassign the owner
//   - data size and owner are fixed once an account is allocated
func (r *Runtime) verifyAccount(
	programID codec.Address,
	addr codec.Address,
	before *account,
	after *program.AccountInfo,
	keys state.Keys,
) error {
	ownerChanged := before.owner != after.Owner
	dataChanged := !bytes.Equal(before.data, after.Data)
	if !ownerChanged && !dataChanged {
		return nil
	}
	if !keys[string(addr[:])].Has(state.Write) {
		return fmt.Errorf("%w: %s", ErrReadonlyDataModified, addr)
	}
	if before.owner != programID {
		return fmt.Errorf("%w: %s", ErrExternalAccountDataModified, addr)
	}
	allocated := len(before.data) > 0
	if ownerChanged && allocated {
		return fmt.Errorf("%w: %s", ErrAccountOwnerModified, addr)
	}
	if len(before.data) != len(after.Data) && allocated {
		return fmt.Errorf("%w: %s %d -> %d", ErrAccountDataSizeChanged, addr, len(before.data), len(after.Data))
	}
	if len(after.Data) > r.cfg.MaxAccountDataSize {
		return fmt.Errorf("%w: %s %d > %d", ErrAccountDataTooLarge, addr, len(after.Data), r.cfg.MaxAccountDataSize)
	}
	return nil
}
