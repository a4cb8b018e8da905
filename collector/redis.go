// SPDX-FileCopyrightText: 2024 The go-mailpost Authors
//
// SPDX-License-Identifier: MIT

package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/mailpost/go-mailpost"
)

// Redis is a Store backed by a Redis server.
//
// Every record is stored as JSON in the "data" field of the hash <prefix>:send:<id>, and its ID
// is appended to the list <prefix>:sends.
type Redis struct {
	client  *redis.Client
	options options
}

// NewRedis returns a Redis store that uses the given client. The client is closed by Close.
func NewRedis(client *redis.Client, opts ...Option) *Redis {
	return &Redis{client: client, options: newOptions(opts)}
}

// NewRedisURL connects to the Redis server at the given URL, like redis://localhost:6379/0.
func NewRedisURL(url string, opts ...Option) (*Redis, error) {
	redisOpts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	return NewRedis(redis.NewClient(redisOpts), opts...), nil
}

func (r *Redis) listKey() string {
	return r.options.prefix + ":sends"
}

func (r *Redis) recordKey(id string) string {
	return r.options.prefix + ":send:" + id
}

// Collect satisfies the mailpost.Collector interface for Redis. The write is bounded by the
// configured timeout; a failed write is reported to the logger.
func (r *Redis) Collect(record mailpost.SendRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), r.options.timeout)
	defer cancel()
	if err := r.store(ctx, record); err != nil {
		r.options.logError("failed to store send record %s in redis: %s", record.ID, err)
	}
}

func (r *Redis) store(ctx context.Context, record mailpost.SendRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal send record: %w", err)
	}
	_, err = r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.recordKey(record.ID), "data", string(data))
		if r.options.ttl > 0 {
			pipe.Expire(ctx, r.recordKey(record.ID), r.options.ttl)
		}
		pipe.RPush(ctx, r.listKey(), record.ID)
		return nil
	})
	return err
}

// Records returns all records whose IDs are listed. Expired records are skipped.
func (r *Redis) Records(ctx context.Context) ([]mailpost.SendRecord, error) {
	ids, err := r.client.LRange(ctx, r.listKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list send records: %w", err)
	}
	records := make([]mailpost.SendRecord, 0, len(ids))
	for _, id := range ids {
		record, err := r.Record(ctx, id)
		if errors.Is(err, ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// Record returns the record with the given ID.
func (r *Redis) Record(ctx context.Context, id string) (mailpost.SendRecord, error) {
	var record mailpost.SendRecord
	data, err := r.client.HGet(ctx, r.recordKey(id), "data").Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return record, ErrRecordNotFound
		}
		return record, fmt.Errorf("failed to get send record: %w", err)
	}
	if err = json.Unmarshal([]byte(data), &record); err != nil {
		return record, fmt.Errorf("failed to parse send record: %w", err)
	}
	return record, nil
}

// Len returns the number of listed record IDs.
func (r *Redis) Len(ctx context.Context) (int64, error) {
	return r.client.LLen(ctx, r.listKey()).Result()
}

// Close closes the redis client.
func (r *Redis) Close() error {
	return r.client.Close()
}
