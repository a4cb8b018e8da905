// SPDX-FileCopyrightText: 2024 The go-mailpost Authors
//
// SPDX-License-Identifier: MIT

// Package collector provides storage backends for the send records of a mailpost.Client.
//
// Every backend implements mailpost.Collector and can be passed to mailpost.WithCollector. The
// collected records can be read back through the Store interface, which the inspection view in
// collector/web is built on.
package collector

import (
	"context"
	"errors"
	"time"

	"github.com/docker/go-units"

	"github.com/mailpost/go-mailpost"
	"github.com/mailpost/go-mailpost/log"
)

const (
	// DefaultPrefix is the key prefix used by the Redis and Badger backends.
	DefaultPrefix = "mailpost"

	// DefaultTimeout bounds a single write of the Redis backend.
	DefaultTimeout = time.Second * 2
)

// ErrRecordNotFound is returned by Store.Record if no record with the given ID exists.
var ErrRecordNotFound = errors.New("send record not found")

// Store is a mailpost.Collector that keeps the collected records.
type Store interface {
	mailpost.Collector

	// Records returns all stored records, oldest first.
	Records(ctx context.Context) ([]mailpost.SendRecord, error)

	// Record returns the record with the given ID.
	Record(ctx context.Context, id string) (mailpost.SendRecord, error)

	// Close releases the resources of the Store.
	Close() error
}

// Option configures a Store backend.
type Option func(*options)

type options struct {
	limit   int
	logger  log.Logger
	prefix  string
	timeout time.Duration
	ttl     time.Duration
}

func newOptions(opts []Option) options {
	o := options{prefix: DefaultPrefix, timeout: DefaultTimeout}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&o)
	}
	return o
}

// WithLimit sets the maximum number of records kept in memory. Older records are dropped first.
// Zero keeps all records.
func WithLimit(limit int) Option {
	return func(o *options) {
		if limit >= 0 {
			o.limit = limit
		}
	}
}

// WithLogger sets the log.Logger that failed writes are reported to. Collect has no error
// return, so without a logger these failures are dropped.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithPrefix overrides DefaultPrefix
func WithPrefix(prefix string) Option {
	return func(o *options) {
		if prefix != "" {
			o.prefix = prefix
		}
	}
}

// WithTimeout overrides DefaultTimeout
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithTTL sets the time after which stored records expire. Zero keeps records forever.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl >= 0 {
			o.ttl = ttl
		}
	}
}

func (o options) logError(format string, args ...interface{}) {
	if o.logger == nil {
		return
	}
	o.logger.Errorf(log.Log{Direction: log.DirClientToServer, Format: format, Messages: args})
}

// HumanSize formats a message length in bytes with binary units, like "1.5KiB".
func HumanSize(length int) string {
	return units.BytesSize(float64(length))
}

// ParseSize parses a human readable size like "10MB" or "512KiB" into bytes.
func ParseSize(size string) (int64, error) {
	return units.RAMInBytes(size)
}
