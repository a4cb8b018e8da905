// SPDX-FileCopyrightText: 2024 The go-mailpost Authors
//
// SPDX-License-Identifier: MIT

package mailpost

import (
	"fmt"
	"net"
	"strconv"
)

// AuthData holds optional SMTP AUTH credentials for QuickSend.
type AuthData struct {
	Auth     bool
	Username string
	Password string
}

// QuickSend is an all-in-one method for quickly sending simple text mails.
//
// It creates a Client for the server at addr, which must include a port, as in
// "mail.example.com:587". STARTTLS is used if the server offers it. If auth is not nil and
// AuthData.Auth is true, the client authenticates with LOGIN. The Msg is built from the sender,
// the recipients, the subject and the plain text body; it is returned after a successful send.
func QuickSend(addr string, auth *AuthData, from string, rcpts []string, subject, body string,
	opts ...Option,
) (*Msg, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("failed to split host and port from address: %w", err)
	}
	portnum, err := strconv.Atoi(port)
	if err != nil {
		return nil, fmt.Errorf("failed to convert port to int: %w", err)
	}

	clientOpts := []Option{WithPort(portnum), WithTLSPolicy(TLSOpportunistic)}
	if auth != nil && auth.Auth {
		clientOpts = append(clientOpts, WithCredentials(auth.Username, auth.Password))
	}
	client, err := NewClient(host, append(clientOpts, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	message := NewMsg()
	if err = message.SetFrom(from, ""); err != nil {
		return nil, fmt.Errorf("failed to set MAIL FROM address: %w", err)
	}
	for _, rcpt := range rcpts {
		if err = message.AddTo(rcpt, ""); err != nil {
			return nil, fmt.Errorf("failed to set RCPT TO address: %w", err)
		}
	}
	message.SetSubject(subject)
	message.SetPlainBody(body)

	if err = client.Send(message); err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	return message, nil
}

// NewAuthData creates a new AuthData instance with the provided username and password.
func NewAuthData(user, pass string) *AuthData {
	return &AuthData{
		Auth:     true,
		Username: user,
		Password: pass,
	}
}
