// SPDX-FileCopyrightText: 2024 The go-mailpost Authors
//
// SPDX-License-Identifier: MIT

package collector

import (
	"context"
	"sync"

	"github.com/mailpost/go-mailpost"
)

// Memory is a Store that keeps the records in process memory.
type Memory struct {
	mutex   sync.RWMutex
	options options
	records []mailpost.SendRecord
}

// NewMemory returns an empty Memory store.
func NewMemory(opts ...Option) *Memory {
	return &Memory{options: newOptions(opts)}
}

// Collect satisfies the mailpost.Collector interface for Memory.
func (m *Memory) Collect(record mailpost.SendRecord) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.records = append(m.records, record)
	if m.options.limit > 0 && len(m.records) > m.options.limit {
		m.records = append([]mailpost.SendRecord(nil), m.records[len(m.records)-m.options.limit:]...)
	}
}

// Records returns a copy of the stored records.
func (m *Memory) Records(_ context.Context) ([]mailpost.SendRecord, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	records := make([]mailpost.SendRecord, len(m.records))
	copy(records, m.records)
	return records, nil
}

// Record returns the record with the given ID.
func (m *Memory) Record(_ context.Context, id string) (mailpost.SendRecord, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	for _, record := range m.records {
		if record.ID == id {
			return record, nil
		}
	}
	return mailpost.SendRecord{}, ErrRecordNotFound
}

// Len returns the number of stored records.
func (m *Memory) Len() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.records)
}

// Reset removes all records.
func (m *Memory) Reset() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.records = nil
}

// Close satisfies the Store interface. Memory has no resources to release.
func (m *Memory) Close() error {
	return nil
}
