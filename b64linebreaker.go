// SPDX-FileCopyrightText: 2024 The go-mailpost Authors
//
// SPDX-License-Identifier: MIT

package mailpost

import (
	"errors"
	"io"
)

// MaxBodyLength defines the maximum line length for base64 encoded body lines
const MaxBodyLength = 76

// ErrNoOutWriter is returned when no io.Writer is set for Base64LineBreaker.
var ErrNoOutWriter = errors.New("no io.Writer set for Base64LineBreaker")

// Base64LineBreaker is used to handle base64 encoding with the insertion of new lines after a certain
// number of characters.
//
// Every line it writes, including the last one, is followed by the configured line terminator.
// It satisfies the io.WriteCloser interface.
type Base64LineBreaker struct {
	line    [MaxBodyLength]byte
	used    int
	out     io.Writer
	newline []byte
}

// NewBase64LineBreaker returns a Base64LineBreaker writing to out and ending lines with newline.
// An empty newline defaults to CRLF.
func NewBase64LineBreaker(out io.Writer, newline string) *Base64LineBreaker {
	if newline == "" {
		newline = CRLF
	}
	return &Base64LineBreaker{out: out, newline: []byte(newline)}
}

// Write writes data to the Base64LineBreaker, ensuring lines do not exceed MaxBodyLength.
// It handles continuation if data length exceeds the limit and writes new lines accordingly.
func (l *Base64LineBreaker) Write(data []byte) (numBytes int, err error) {
	if l.out == nil {
		err = ErrNoOutWriter
		return
	}
	if l.newline == nil {
		l.newline = []byte(CRLF)
	}
	written := 0
	for len(data) > 0 {
		free := MaxBodyLength - l.used
		if len(data) < free {
			copy(l.line[l.used:], data)
			l.used += len(data)
			return written + len(data), nil
		}

		copy(l.line[l.used:], data[:free])
		if _, err = l.out.Write(l.line[:]); err != nil {
			return written, err
		}
		if _, err = l.out.Write(l.newline); err != nil {
			return written, err
		}
		l.used = 0
		written += free
		data = data[free:]
	}
	return written, nil
}

// Close finalizes the Base64LineBreaker, writing any remaining buffered data and appending a newline.
func (l *Base64LineBreaker) Close() (err error) {
	if l.used > 0 {
		_, err = l.out.Write(l.line[0:l.used])
		if err != nil {
			return
		}
		_, err = l.out.Write(l.newline)
		l.used = 0
	}

	return
}
