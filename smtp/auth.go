// SPDX-FileCopyrightText: 2024 The go-mailpost Authors
//
// SPDX-License-Identifier: MIT

package smtp

import (
	"errors"
)

var (
	// ErrAuthFailed is returned when the server rejects the authentication exchange.
	ErrAuthFailed = errors.New("smtp: authentication failed")

	// ErrUnexpectedServerChallange is returned when a mechanism receives more challenges than
	// it has responses for.
	ErrUnexpectedServerChallange = errors.New("unexpected server challenge")
)

// Auth is implemented by an SMTP authentication mechanism.
type Auth interface {
	// Start begins an authentication with a server. It returns the name of the authentication
	// protocol and optionally data to include in the initial AUTH message sent to the server.
	Start(server *ServerInfo) (proto string, toServer []byte, err error)

	// Next continues the authentication. The server has just sent the fromServer data. If more
	// is true, the server expects a response, which Next should return as toServer; otherwise
	// Next should return toServer == nil.
	Next(fromServer []byte, more bool) (toServer []byte, err error)
}

// ServerInfo records information about an SMTP server.
type ServerInfo struct {
	Name string   // SMTP server name
	TLS  bool     // using TLS, with valid certificate for Name
	Auth []string // advertised authentication mechanisms
}
