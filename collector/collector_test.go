// SPDX-FileCopyrightText: 2024 The go-mailpost Authors
//
// SPDX-License-Identifier: MIT

package collector

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailpost/go-mailpost"
	"github.com/mailpost/go-mailpost/log"
)

// testRecord returns a SendRecord with a fresh ULID
func testRecord(rcpt string) mailpost.SendRecord {
	start := time.Date(2024, time.March, 4, 5, 6, 7, 0, time.UTC)
	return mailpost.SendRecord{
		ID:         ulid.Make().String(),
		Start:      start,
		End:        start.Add(time.Millisecond * 250),
		Code:       221,
		Success:    true,
		Response:   "221 2.0.0 Bye",
		From:       "toni.sender@example.com",
		Length:     1536,
		Recipients: []string{rcpt},
		Headers: []mailpost.HeaderField{
			{Name: "MIME-Version", Value: "1.0"},
			{Name: "Subject", Value: "Testmail"},
		},
		PlainBody: "Testmail body",
	}
}

// assertStore runs the behavior every Store backend shares
func assertStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	records, err := store.Records(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	first := testRecord("first@example.com")
	second := testRecord("second@example.com")
	store.Collect(first)
	store.Collect(second)

	records, err = store.Records(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, first.ID, records[0].ID)
	assert.Equal(t, second.ID, records[1].ID)
	assert.Equal(t, []string{"second@example.com"}, records[1].Recipients)
	assert.Equal(t, first.Headers, records[0].Headers)
	assert.True(t, records[0].Start.Equal(first.Start))
	assert.Equal(t, first.Duration(), records[0].Duration())

	record, err := store.Record(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, second.From, record.From)
	assert.Equal(t, second.Length, record.Length)

	_, err = store.Record(ctx, "does-not-exist")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestHumanSize(t *testing.T) {
	assert.Equal(t, "100B", HumanSize(100))
	assert.Equal(t, "1.5KiB", HumanSize(1536))
	assert.Equal(t, "2MiB", HumanSize(2*1024*1024))
}

func TestParseSize(t *testing.T) {
	size, err := ParseSize("10MB")
	require.NoError(t, err)
	assert.Equal(t, int64(10*1024*1024), size)

	size, err = ParseSize("512KiB")
	require.NoError(t, err)
	assert.Equal(t, int64(512*1024), size)

	_, err = ParseSize("ten megabytes")
	assert.Error(t, err)
}

func TestOptions(t *testing.T) {
	o := newOptions([]Option{nil, WithPrefix(""), WithTimeout(-1), WithTTL(-1), WithLimit(-1)})
	assert.Equal(t, DefaultPrefix, o.prefix)
	assert.Equal(t, DefaultTimeout, o.timeout)
	assert.Zero(t, o.ttl)
	assert.Zero(t, o.limit)

	buffer := bytes.NewBuffer(nil)
	o = newOptions([]Option{WithPrefix("test"), WithTTL(time.Hour), WithLogger(log.New(buffer, log.LevelError))})
	assert.Equal(t, "test", o.prefix)
	assert.Equal(t, time.Hour, o.ttl)
	o.logError("failed to store %s", "record")
	assert.Contains(t, buffer.String(), "failed to store record")
}
