// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"context"
	"slices"

	"github.com/ava-labs/avalanchego/database"
)

var _ Mutable = (*SimpleMutable)(nil)

type changeOp struct {
	value  []byte
	delete bool
}

// SimpleMutable buffers writes on top of a [Database] until Commit
// applies all of them in a single batch.
type SimpleMutable struct {
	db Database

	changes map[string]*changeOp
}

func NewSimpleMutable(db Database) *SimpleMutable {
	return &SimpleMutable{db, make(map[string]*changeOp)}
}

func (s *SimpleMutable) GetValue(_ context.Context, k []byte) ([]byte, error) {
	if v, ok := s.changes[string(k)]; ok {
		if v.delete {
			return nil, database.ErrNotFound
		}
		return slices.Clone(v.value), nil
	}
	return s.db.Get(k)
}

func (s *SimpleMutable) Insert(_ context.Context, k []byte, v []byte) error {
	s.changes[string(k)] = &changeOp{value: slices.Clone(v)}
	return nil
}

func (s *SimpleMutable) Remove(_ context.Context, k []byte) error {
	s.changes[string(k)] = &changeOp{delete: true}
	return nil
}

// Pending returns the number of uncommitted changes.
func (s *SimpleMutable) Pending() int {
	return len(s.changes)
}

// Commit writes all buffered changes to the underlying database atomically.
func (s *SimpleMutable) Commit(context.Context) error {
	if len(s.changes) == 0 {
		return nil
	}
	batch := s.db.NewBatch()
	for k, op := range s.changes {
		var err error
		if op.delete {
			err = batch.Delete([]byte(k))
		} else {
			err = batch.Put([]byte(k), op.value)
		}
		if err != nil {
			return err
		}
	}
	if err := batch.Write(); err != nil {
		return err
	}
	clear(s.changes)
	return nil
}
