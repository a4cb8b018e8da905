// SPDX-FileCopyrightText: 2024 The go-mailpost Authors
//
// SPDX-License-Identifier: MIT

package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v3"

	"github.com/mailpost/go-mailpost"
)

// Badger is a Store backed by an embedded BadgerDB. Records are stored as JSON under the key
// <prefix>:send:<id>; since record IDs are ULIDs, key order is collection order.
type Badger struct {
	db      *badger.DB
	options options
}

// OpenBadger opens the BadgerDB in the given directory. An empty path opens an in-memory
// database. It is up to the caller to close the database with Close.
func OpenBadger(path string, opts ...Option) (*Badger, error) {
	dbOpts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		dbOpts = dbOpts.WithInMemory(true)
	}
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}
	return &Badger{db: db, options: newOptions(opts)}, nil
}

func (b *Badger) key(id string) []byte {
	return []byte(b.keyPrefix() + id)
}

func (b *Badger) keyPrefix() string {
	return b.options.prefix + ":send:"
}

// Collect satisfies the mailpost.Collector interface for Badger. A failed write is reported to
// the logger.
func (b *Badger) Collect(record mailpost.SendRecord) {
	if err := b.store(record); err != nil {
		b.options.logError("failed to store send record %s in badger: %s", record.ID, err)
	}
}

func (b *Badger) store(record mailpost.SendRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal send record: %w", err)
	}
	return b.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(b.key(record.ID), data)
		if b.options.ttl > 0 {
			entry = entry.WithTTL(b.options.ttl)
		}
		return txn.SetEntry(entry)
	})
}

// Records returns all stored records in key order.
func (b *Badger) Records(ctx context.Context) ([]mailpost.SendRecord, error) {
	var records []mailpost.SendRecord
	err := b.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = []byte(b.keyPrefix())
		iter := txn.NewIterator(iterOpts)
		defer iter.Close()
		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var record mailpost.SendRecord
			err := iter.Item().Value(func(data []byte) error {
				return json.Unmarshal(data, &record)
			})
			if err != nil {
				return fmt.Errorf("failed to parse send record: %w", err)
			}
			records = append(records, record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Record returns the record with the given ID.
func (b *Badger) Record(_ context.Context, id string) (mailpost.SendRecord, error) {
	var record mailpost.SendRecord
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(b.key(id))
		if err != nil {
			return err
		}
		data, err := item.ValueCopy(nil)
		if err != nil {
			return fmt.Errorf("failed to copy send record: %w", err)
		}
		return json.Unmarshal(data, &record)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return record, ErrRecordNotFound
	}
	return record, err
}

// Cleanup runs the value log garbage collection. Expired records are only removed from disk
// by this routine.
func (b *Badger) Cleanup() error {
	err := b.db.RunValueLogGC(0.5)
	if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrGCInMemoryMode) {
		return nil
	}
	return err
}

// Close closes the database.
func (b *Badger) Close() error {
	return b.db.Close()
}
