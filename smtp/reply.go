// SPDX-FileCopyrightText: 2024 The go-mailpost Authors
//
// SPDX-License-Identifier: MIT

package smtp

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Category groups reply codes by the action they require from the client.
type Category int

const (
	// CategoryFatal covers permanent failures (5yz) and replies without a valid code.
	CategoryFatal Category = iota

	// CategorySuccess covers positive completion replies (2yz).
	CategorySuccess

	// CategoryContinue covers positive intermediate replies (3yz), which expect more input.
	CategoryContinue

	// CategoryRetryable covers transient failures (4yz). The command failed but may succeed
	// if it is sent again later.
	CategoryRetryable
)

// Reply is a complete, possibly multi-line, server reply.
type Reply struct {
	// Code is the status code taken from the first three characters of the first line, or 0 if
	// they are not a number.
	Code int

	// Lines holds the raw reply lines, including the code prefix, without line terminators.
	Lines []string
}

// Exchange is a single command/reply round-trip of a session.
type Exchange struct {
	// Command is the line sent by the client. It is empty for the server greeting and
	// redacted for authentication data.
	Command string
	Reply   *Reply
	Start   time.Time
	End     time.Time
}

// ReplyError is returned when the server answers a command with an unexpected code.
type ReplyError struct {
	// Command is the verb of the command that was answered, e.g. "MAIL".
	Command string
	Reply   *Reply
}

// Error satisfies the error interface for the ReplyError type.
func (e *ReplyError) Error() string {
	if e.Command == "" {
		return fmt.Sprintf("smtp: unexpected server reply: %s", e.Reply.String())
	}
	return fmt.Sprintf("smtp: unexpected reply to %s: %s", e.Command, e.Reply.String())
}

// Category returns the outcome category of the Reply.
func (r *Reply) Category() Category {
	if r == nil {
		return CategoryFatal
	}
	switch r.Code / 100 {
	case 2:
		return CategorySuccess
	case 3:
		return CategoryContinue
	case 4:
		return CategoryRetryable
	default:
		return CategoryFatal
	}
}

// Message returns the text of all lines without the code prefix, joined by "\n".
func (r *Reply) Message() string {
	if r == nil {
		return ""
	}
	texts := make([]string, 0, len(r.Lines))
	for _, line := range r.Lines {
		if len(line) > 4 {
			texts = append(texts, line[4:])
			continue
		}
		texts = append(texts, "")
	}
	return strings.Join(texts, "\n")
}

// String returns the raw reply lines joined by "\n".
func (r *Reply) String() string {
	if r == nil {
		return ""
	}
	return strings.Join(r.Lines, "\n")
}

// parseCode returns the status code at the start of a reply line, or 0.
func parseCode(line string) int {
	if len(line) < 3 {
		return 0
	}
	code, err := strconv.Atoi(line[:3])
	if err != nil || code < 100 || code > 599 {
		return 0
	}
	return code
}

// isContinuation reports whether more lines of the same reply follow the given line. Only a
// hyphen after the code marks a continuation; a space, or a line of just the code, ends the
// reply.
func isContinuation(line string) bool {
	return len(line) > 3 && line[3] == '-'
}

// String satisfies the fmt.Stringer interface for the Category type.
func (c Category) String() string {
	switch c {
	case CategorySuccess:
		return "success"
	case CategoryContinue:
		return "continue"
	case CategoryRetryable:
		return "retryable"
	default:
		return "fatal"
	}
}
