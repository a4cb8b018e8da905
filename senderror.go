// SPDX-FileCopyrightText: 2024 The go-mailpost Authors
//
// SPDX-License-Identifier: MIT

package mailpost

import (
	"errors"
	"strings"

	"github.com/mailpost/go-mailpost/smtp"
)

// List of SendError reasons
const (
	// ErrConnection is returned if the connection to the SMTP server could not be established,
	// timed out or broke down during the session
	ErrConnection SendErrReason = iota

	// ErrProtocol is returned if the server answered a handshake or envelope command with an
	// unexpected status code
	ErrProtocol

	// ErrAuthentication is returned if the AUTH exchange failed or if the server demands
	// authentication but no credentials were configured
	ErrAuthentication

	// ErrAttachment is returned if an attachment file could not be read while rendering the Msg
	ErrAttachment

	// ErrInlineAttachment is returned if an inline attachment file could not be read while
	// rendering the Msg
	ErrInlineAttachment

	// ErrDelivery is returned if the server did not accept the message after the DATA transfer
	ErrDelivery

	// ErrEnvelope is returned if the Msg has no sender or no recipient for the SMTP envelope
	ErrEnvelope

	// ErrMessageSize is returned if the rendered Msg exceeds the configured maximum size
	ErrMessageSize

	// ErrRender is returned if the Msg could not be rendered for any other reason
	ErrRender
)

// SendErrReason represents a comparable reason on why the delivery failed
type SendErrReason int

// SendError is an error wrapper for delivery errors of the Msg.
//
// It carries the SendErrReason, the status code and text of the last server reply (if any) and
// the underlying errors. No SendError is ever retried by the Client; IsTemp tells the caller
// whether a retry may succeed.
type SendError struct {
	errcode  int
	errlist  []error
	isTemp   bool
	response string
	Reason   SendErrReason
}

// newSendError returns a SendError for the given reason. If one of the errors is a
// smtp.ReplyError, its code and text are used as the server response.
func newSendError(reason SendErrReason, errs ...error) *SendError {
	sendErr := &SendError{Reason: reason}
	for _, err := range errs {
		if err == nil {
			continue
		}
		sendErr.errlist = append(sendErr.errlist, err)
		var replyErr *smtp.ReplyError
		if errors.As(err, &replyErr) && replyErr.Reply != nil {
			sendErr.errcode = replyErr.Reply.Code
			sendErr.response = replyErr.Reply.String()
			sendErr.isTemp = replyErr.Reply.Category() == smtp.CategoryRetryable
		}
	}
	return sendErr
}

// Error implements the error interface for the SendError type.
func (e *SendError) Error() string {
	if e.Reason > ErrRender {
		return "unknown reason"
	}

	var errMessage strings.Builder
	errMessage.WriteString(e.Reason.String())
	if len(e.errlist) > 0 {
		errMessage.WriteRune(':')
		for i := range e.errlist {
			errMessage.WriteRune(' ')
			errMessage.WriteString(e.errlist[i].Error())
			if i != len(e.errlist)-1 {
				errMessage.WriteString(",")
			}
		}
	}

	return errMessage.String()
}

// Is implements the errors.Is functionality and compares the SendErrReason.
func (e *SendError) Is(errType error) bool {
	var t *SendError
	if errors.As(errType, &t) && t != nil {
		return e.Reason == t.Reason && e.isTemp == t.isTemp
	}
	return false
}

// Unwrap returns the errors wrapped by the SendError, so that errors.Is and errors.As can
// match sentinel errors such as ErrAttachmentNotFound.
func (e *SendError) Unwrap() []error {
	if e == nil {
		return nil
	}
	return e.errlist
}

// IsTemp returns true if the server answered with a 4xx transient failure.
func (e *SendError) IsTemp() bool {
	if e == nil {
		return false
	}
	return e.isTemp
}

// ErrorCode returns the status code of the server reply that caused the error, or 0 if the
// error was not caused by a server reply.
func (e *SendError) ErrorCode() int {
	if e == nil {
		return 0
	}
	return e.errcode
}

// Response returns the full text of the server reply that caused the error, or an empty string.
func (e *SendError) Response() string {
	if e == nil {
		return ""
	}
	return e.response
}

// String satisfies the fmt.Stringer interface for the SendErrReason type.
func (r SendErrReason) String() string {
	switch r {
	case ErrConnection:
		return "connection to SMTP server failed"
	case ErrProtocol:
		return "unexpected SMTP server reply"
	case ErrAuthentication:
		return "SMTP authentication failed"
	case ErrAttachment:
		return "reading attachment"
	case ErrInlineAttachment:
		return "reading inline attachment"
	case ErrDelivery:
		return "message delivery rejected"
	case ErrEnvelope:
		return "preparing SMTP envelope"
	case ErrMessageSize:
		return "message exceeds the maximum size"
	case ErrRender:
		return "rendering message"
	}
	return "unknown reason"
}
