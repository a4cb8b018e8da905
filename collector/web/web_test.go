// SPDX-FileCopyrightText: 2024 The go-mailpost Authors
//
// SPDX-License-Identifier: MIT

package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailpost/go-mailpost"
	"github.com/mailpost/go-mailpost/collector"
)

func testRecord(rcpt string, success bool) mailpost.SendRecord {
	start := time.Date(2024, time.March, 4, 5, 6, 7, 0, time.UTC)
	return mailpost.SendRecord{
		ID:         ulid.Make().String(),
		Start:      start,
		End:        start.Add(time.Second),
		Code:       221,
		Success:    success,
		From:       "toni.sender@example.com",
		Length:     2048,
		Recipients: []string{rcpt, "<script>@example.com"},
	}
}

type failingStore struct {
	collector.Store
}

func (failingStore) Records(context.Context) ([]mailpost.SendRecord, error) {
	return nil, errors.New("store unavailable")
}

func (failingStore) Record(context.Context, string) (mailpost.SendRecord, error) {
	return mailpost.SendRecord{}, errors.New("store unavailable")
}

func TestListSends(t *testing.T) {
	store := collector.NewMemory()
	first := testRecord("first@example.com", true)
	second := testRecord("second@example.com", false)
	store.Collect(first)
	store.Collect(second)
	app := NewApp(store)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/sends", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var summaries []Summary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summaries))
	require.Len(t, summaries, 2)
	assert.Equal(t, second.ID, summaries[0].ID)
	assert.Equal(t, first.ID, summaries[1].ID)
	assert.Equal(t, "2KiB", summaries[0].Size)
	assert.Equal(t, time.Second, summaries[0].Duration)
	assert.False(t, summaries[0].Success)
}

func TestGetSend(t *testing.T) {
	store := collector.NewMemory()
	record := testRecord("first@example.com", true)
	store.Collect(record)
	app := NewApp(store)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/sends/"+record.ID, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var got mailpost.SendRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, record.ID, got.ID)
	assert.Equal(t, record.Recipients, got.Recipients)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/sends/unknown", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestIndex(t *testing.T) {
	store := collector.NewMemory()
	app := NewApp(store)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, string(body), "No sends collected yet")

	record := testRecord("first@example.com", true)
	store.Collect(record)
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	body, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "/api/sends/"+record.ID)
	assert.Contains(t, string(body), "first@example.com, &lt;script&gt;@example.com")
	assert.Contains(t, string(body), "2024-03-04 05:06:07")
}

func TestStoreErrors(t *testing.T) {
	app := NewApp(failingStore{})
	for _, path := range []string{"/", "/api/sends", "/api/sends/1"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode, path)
	}
}
