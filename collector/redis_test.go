// SPDX-FileCopyrightText: 2024 The go-mailpost Authors
//
// SPDX-License-Identifier: MIT

package collector

import (
	"bytes"
	"context"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/redcon"

	"github.com/mailpost/go-mailpost/log"
)

// fakeRedis is a Redis-compatible server that implements the commands used by the Redis store
type fakeRedis struct {
	mutex   sync.Mutex
	hashes  map[string]map[string]string
	lists   map[string][]string
	expires map[string]time.Duration
}

// startFakeRedis starts a fakeRedis on a random local port and returns its address
func startFakeRedis(t *testing.T) (*fakeRedis, string) {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	server := &fakeRedis{
		hashes:  make(map[string]map[string]string),
		lists:   make(map[string][]string),
		expires: make(map[string]time.Duration),
	}
	go func() {
		_ = redcon.Serve(listener, server.handle,
			func(redcon.Conn) bool { return true },
			func(redcon.Conn, error) {})
	}()
	t.Cleanup(func() {
		_ = listener.Close()
	})
	return server, listener.Addr().String()
}

func (s *fakeRedis) handle(conn redcon.Conn, cmd redcon.Command) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	args := make([]string, len(cmd.Args))
	for i, arg := range cmd.Args {
		args[i] = string(arg)
	}
	switch strings.ToLower(args[0]) {
	case "ping":
		conn.WriteString("PONG")
	case "hset":
		hash, ok := s.hashes[args[1]]
		if !ok {
			hash = make(map[string]string)
			s.hashes[args[1]] = hash
		}
		added := 0
		for i := 2; i+1 < len(args); i += 2 {
			if _, ok := hash[args[i]]; !ok {
				added++
			}
			hash[args[i]] = args[i+1]
		}
		conn.WriteInt(added)
	case "hget":
		value, ok := s.hashes[args[1]][args[2]]
		if !ok {
			conn.WriteNull()
			return
		}
		conn.WriteBulkString(value)
	case "expire":
		seconds, _ := time.ParseDuration(args[2] + "s")
		s.expires[args[1]] = seconds
		conn.WriteInt(1)
	case "rpush":
		s.lists[args[1]] = append(s.lists[args[1]], args[2:]...)
		conn.WriteInt(len(s.lists[args[1]]))
	case "llen":
		conn.WriteInt(len(s.lists[args[1]]))
	case "lrange":
		list := s.lists[args[1]]
		conn.WriteArray(len(list))
		for _, item := range list {
			conn.WriteBulkString(item)
		}
	case "del":
		count := 0
		for _, key := range args[1:] {
			if _, ok := s.hashes[key]; ok {
				delete(s.hashes, key)
				count++
			}
		}
		conn.WriteInt(count)
	default:
		conn.WriteError("ERR unknown command '" + args[0] + "'")
	}
}

func newTestRedis(t *testing.T, addr string, opts ...Option) *Redis {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Protocol: 2,
	})
	store := NewRedis(client, opts...)
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestRedis(t *testing.T) {
	server, addr := startFakeRedis(t)
	store := newTestRedis(t, addr)
	assertStore(t, store)

	count, err := store.Len(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	server.mutex.Lock()
	defer server.mutex.Unlock()
	assert.Len(t, server.lists["mailpost:sends"], 2)
	assert.Empty(t, server.expires)
}

func TestRedis_ttl(t *testing.T) {
	server, addr := startFakeRedis(t)
	store := newTestRedis(t, addr, WithPrefix("test"), WithTTL(time.Hour))
	record := testRecord("a@example.com")
	store.Collect(record)

	server.mutex.Lock()
	assert.Equal(t, time.Hour, server.expires["test:send:"+record.ID])
	server.mutex.Unlock()

	// An expired record is still listed but skipped.
	server.mutex.Lock()
	delete(server.hashes, "test:send:"+record.ID)
	server.mutex.Unlock()
	records, err := store.Records(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRedis_unavailable(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	buffer := bytes.NewBuffer(nil)
	store := newTestRedis(t, addr, WithTimeout(time.Second), WithLogger(log.New(buffer, log.LevelError)))
	record := testRecord("a@example.com")
	store.Collect(record)
	assert.Contains(t, buffer.String(), "failed to store send record "+record.ID)

	_, err = store.Records(context.Background())
	assert.Error(t, err)
}

func TestNewRedisURL(t *testing.T) {
	_, addr := startFakeRedis(t)
	store, err := NewRedisURL("redis://" + addr + "/0")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})
	store.Collect(testRecord("a@example.com"))
	count, err := store.Len(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, err = NewRedisURL("http://invalid")
	assert.Error(t, err)
}
