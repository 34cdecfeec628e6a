// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pebble

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/ava-labs/avalanchego/database"
	"github.com/cockroachdb/pebble"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/bankvm/state"
)

var _ state.Database = (*Database)(nil)

type Config struct {
	CacheSize             int  `json:"cacheSize" yaml:"cacheSize"`
	BytesPerSync          int  `json:"bytesPerSync" yaml:"bytesPerSync"`
	MaxOpenFiles          int  `json:"maxOpenFiles" yaml:"maxOpenFiles"`
	ConcurrentCompactions int  `json:"concurrentCompactions" yaml:"concurrentCompactions"`
	Sync                  bool `json:"sync" yaml:"sync"`
}

func NewDefaultConfig() Config {
	return Config{
		CacheSize:             64 * 1024 * 1024,
		BytesPerSync:          512 * 1024,
		MaxOpenFiles:          1_024,
		ConcurrentCompactions: 1,
		Sync:                  true,
	}
}

// Database persists account state on disk. Reads outside of a batch are
// served directly by pebble; all writes from the runtime go through
// [Database.NewBatch].
type Database struct {
	db        *pebble.DB
	writeOpts *pebble.WriteOptions

	metrics *metrics

	closeOnce sync.Once
	closing   chan struct{}
	closed    chan struct{}
}

func New(file string, cfg Config) (*Database, *prometheus.Registry, error) {
	registry, metrics, err := newMetrics()
	if err != nil {
		return nil, nil, err
	}
	d := &Database{
		writeOpts: &pebble.WriteOptions{Sync: cfg.Sync},
		metrics:   metrics,
		closing:   make(chan struct{}),
		closed:    make(chan struct{}),
	}
	opts := &pebble.Options{
		Cache:                    pebble.NewCache(int64(cfg.CacheSize)),
		BytesPerSync:             cfg.BytesPerSync,
		MaxOpenFiles:             cfg.MaxOpenFiles,
		MaxConcurrentCompactions: func() int { return cfg.ConcurrentCompactions },
	}
	opts.EventListener = &pebble.EventListener{
		CompactionBegin: d.onCompactionBegin,
		CompactionEnd:   d.onCompactionEnd,
		WriteStallBegin: d.onWriteStallBegin,
		WriteStallEnd:   d.onWriteStallEnd,
	}
	db, err := pebble.Open(file, opts)
	if err != nil {
		return nil, nil, err
	}
	d.db = db
	go d.collectMetrics()
	return d, registry, nil
}

func (db *Database) isClosed() bool {
	select {
	case <-db.closing:
		return true
	default:
		return false
	}
}

func (db *Database) Has(key []byte) (bool, error) {
	_, err := db.Get(key)
	if errors.Is(err, database.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (db *Database) Get(key []byte) ([]byte, error) {
	if db.isClosed() {
		return nil, database.ErrClosed
	}
	start := time.Now()
	defer func() { db.metrics.getLatency.Observe(float64(time.Since(start))) }()

	v, closer, err := db.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	value := slices.Clone(v)
	return value, closer.Close()
}

func (db *Database) Put(key []byte, value []byte) error {
	if db.isClosed() {
		return database.ErrClosed
	}
	return db.db.Set(key, value, db.writeOpts)
}

func (db *Database) Delete(key []byte) error {
	if db.isClosed() {
		return database.ErrClosed
	}
	return db.db.Delete(key, db.writeOpts)
}

func (db *Database) NewBatch() database.Batch {
	return &batch{db: db}
}

func (db *Database) Close() error {
	err := database.ErrClosed
	db.closeOnce.Do(func() {
		close(db.closing)
		<-db.closed
		err = db.db.Close()
	})
	return err
}

// batch records operations in memory and applies them with a single
// pebble batch commit on Write.
type batch struct {
	database.BatchOps

	db *Database
}

func (b *batch) Write() error {
	if b.db.isClosed() {
		return database.ErrClosed
	}
	pb := b.db.db.NewBatch()
	for _, op := range b.Ops {
		var err error
		if op.Delete {
			err = pb.Delete(op.Key, nil)
		} else {
			err = pb.Set(op.Key, op.Value, nil)
		}
		if err != nil {
			_ = pb.Close()
			return err
		}
	}
	if err := pb.Commit(b.db.writeOpts); err != nil {
		_ = pb.Close()
		return err
	}
	return pb.Close()
}

func (b *batch) Inner() database.Batch {
	return b
}
