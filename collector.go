// SPDX-FileCopyrightText: 2024 The go-mailpost Authors
//
// SPDX-License-Identifier: MIT

package mailpost

import (
	"time"
)

// Collector receives a SendRecord after every send attempt of a Client, successful or not.
//
// Collect is called synchronously at the end of the send. Implementations must not block for
// longer than a bounded write.
type Collector interface {
	Collect(record SendRecord)
}

// CollectorFunc is an adapter to use an ordinary function as a Collector.
type CollectorFunc func(record SendRecord)

// Collect calls f(record).
func (f CollectorFunc) Collect(record SendRecord) {
	f(record)
}

// SendRecord describes a single send attempt.
type SendRecord struct {
	// ID is a ULID, so records sort by creation time
	ID    string    `json:"id"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`

	// Code is the status code of the last server reply, 0 if no reply was received
	Code     int    `json:"code"`
	Success  bool   `json:"success"`
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`

	// From is the envelope sender
	From string `json:"from"`

	// Length is the size in bytes of the rendered message
	Length int `json:"length"`

	Recipients        []string      `json:"recipients"`
	Headers           []HeaderField `json:"headers"`
	PlainBody         string        `json:"plain_body,omitempty"`
	HTMLBody          string        `json:"html_body,omitempty"`
	Attachments       []string      `json:"attachments,omitempty"`
	InlineAttachments []Inline      `json:"inline_attachments,omitempty"`
}

// Duration returns the time the send attempt took.
func (r SendRecord) Duration() time.Duration {
	return r.End.Sub(r.Start)
}
