// SPDX-FileCopyrightText: 2024 The go-mailpost Authors
//
// SPDX-License-Identifier: MIT

package smtp

// loginAuth implements the LOGIN mechanism. The username answers the first challenge and the
// password the second one; the challenge text itself is not interpreted, since servers word it
// differently ("Username:", "User Name\x00", ...).
type loginAuth struct {
	username, password string
	step               int
}

// LoginAuth returns an [Auth] that implements the LOGIN authentication mechanism.
func LoginAuth(username, password string) Auth {
	return &loginAuth{username: username, password: password}
}

// Start begins the LOGIN exchange. The AUTH command carries no initial response.
func (a *loginAuth) Start(_ *ServerInfo) (string, []byte, error) {
	a.step = 0
	return "LOGIN", nil, nil
}

// Next answers the server challenges in order.
func (a *loginAuth) Next(_ []byte, more bool) ([]byte, error) {
	if !more {
		return nil, nil
	}
	a.step++
	switch a.step {
	case 1:
		return []byte(a.username), nil
	case 2:
		return []byte(a.password), nil
	default:
		return nil, ErrUnexpectedServerChallange
	}
}
