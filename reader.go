// SPDX-FileCopyrightText: 2024 The go-mailpost Authors
//
// SPDX-License-Identifier: MIT

package mailpost

import (
	"io"
)

// Reader is a type that implements the io.Reader interface for a rendered Msg
type Reader struct {
	buf []byte // contents are the bytes buf[off : len(buf)]
	off int    // read at &buf[off]
}

// NewReader renders the Msg with the given RenderOptions and returns a Reader over the result.
func (m *Msg) NewReader(opts RenderOptions) (*Reader, error) {
	buf, err := m.Render(opts)
	if err != nil {
		return nil, err
	}
	return &Reader{buf: buf}, nil
}

// Read reads the length of p of the Msg buffer to satisfy the io.Reader interface
func (r *Reader) Read(p []byte) (n int, err error) {
	if r.empty() {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}
	n = copy(p, r.buf[r.off:])
	r.off += n
	return n, nil
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	return len(r.buf) - r.off
}

// Reset rewinds the Reader to the start of the rendered Msg.
func (r *Reader) Reset() {
	r.off = 0
}

// empty reports whether the unread portion of the Reader buffer is empty.
func (r *Reader) empty() bool { return len(r.buf) <= r.off }
