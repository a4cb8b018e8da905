// SPDX-FileCopyrightText: 2024 The go-mailpost Authors
//
// SPDX-License-Identifier: MIT

package mailpost

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"testing"
)

// TestReader_Read tests the Reader.Read method that implements the io.Reader interface
func TestReader_Read(t *testing.T) {
	tests := []struct {
		name string
		plen int
	}{
		{"P length is bigger than the mail", 3200000},
		{"P length is smaller than the mail", 128},
	}

	m := NewMsg(WithBoundary("testboundary"))
	m.SetPlainBody("TEST123")
	wbuf, err := m.Render(RenderOptions{})
	if err != nil {
		t.Fatalf("failed to render message: %s", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := m.NewReader(RenderOptions{})
			if err != nil {
				t.Fatalf("failed to create reader: %s", err)
			}
			if r.Len() != len(wbuf) {
				t.Errorf("expected %d unread bytes, got %d", len(wbuf), r.Len())
			}
			p := make([]byte, tt.plen)
			var got []byte
			for {
				n, err := r.Read(p)
				got = append(got, p[:n]...)
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					t.Fatalf("failed to read from Reader: %s", err)
				}
			}
			if !bytes.Equal(got, wbuf) {
				t.Errorf("Reader content differs from rendered message")
			}
			if n, err := r.Read(nil); n != 0 || err != nil {
				t.Errorf("expected empty read to succeed, got: %d, %v", n, err)
			}
			r.Reset()
			if r.Len() != len(wbuf) {
				t.Errorf("expected Reset to rewind the Reader")
			}
		})
	}
}

func TestMsg_NewReader_error(t *testing.T) {
	m := NewMsg()
	m.AddAttachment(filepath.Join(t.TempDir(), "missing.txt"))
	if _, err := m.NewReader(RenderOptions{}); !errors.Is(err, ErrAttachmentNotFound) {
		t.Errorf("expected ErrAttachmentNotFound, got: %v", err)
	}
}
