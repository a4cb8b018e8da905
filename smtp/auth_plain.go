// SPDX-FileCopyrightText: 2024 The go-mailpost Authors
//
// SPDX-License-Identifier: MIT

package smtp

type plainAuth struct {
	identity, username, password string
}

// PlainAuth returns an [Auth] that implements the PLAIN authentication mechanism as defined in
// RFC 4616. The credentials are sent as the initial response of the AUTH command.
func PlainAuth(identity, username, password string) Auth {
	return &plainAuth{identity, username, password}
}

func (a *plainAuth) Start(_ *ServerInfo) (string, []byte, error) {
	resp := []byte(a.identity + "\x00" + a.username + "\x00" + a.password)
	return "PLAIN", resp, nil
}

func (a *plainAuth) Next(_ []byte, more bool) ([]byte, error) {
	if more {
		// We've already sent everything.
		return nil, ErrUnexpectedServerChallange
	}
	return nil, nil
}
