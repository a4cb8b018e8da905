// SPDX-FileCopyrightText: 2024 The go-mailpost Authors
//
// SPDX-License-Identifier: MIT

package mailpost

import (
	"fmt"
	"strings"

	"github.com/mailpost/go-mailpost/smtp"
)

// SMTPAuthType represents a string to any SMTP AUTH type
type SMTPAuthType string

// Supported SMTP AUTH types
const (
	// SMTPAuthLogin is the "LOGIN" SASL authentication mechanism. It is the default.
	SMTPAuthLogin SMTPAuthType = "LOGIN"

	// SMTPAuthPlain is the "PLAIN" authentication mechanism as described in RFC 4616
	SMTPAuthPlain SMTPAuthType = "PLAIN"
)

// ParseSMTPAuthType returns the SMTPAuthType for a case-insensitive mechanism name. An empty
// name selects SMTPAuthLogin.
func ParseSMTPAuthType(name string) (SMTPAuthType, error) {
	switch SMTPAuthType(strings.ToUpper(strings.TrimSpace(name))) {
	case "", SMTPAuthLogin:
		return SMTPAuthLogin, nil
	case SMTPAuthPlain:
		return SMTPAuthPlain, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidAuthType, name)
	}
}

// auth returns the smtp.Auth mechanism for the given credentials.
//
// The mechanism is used whether or not the server advertises it, the same way a 503 reply to
// AUTH is taken as an already authenticated session.
func (a SMTPAuthType) auth(username, password string) (smtp.Auth, error) {
	switch a {
	case SMTPAuthLogin, "":
		return smtp.LoginAuth(username, password), nil
	case SMTPAuthPlain:
		return smtp.PlainAuth("", username, password), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidAuthType, string(a))
	}
}

// String satisfies the fmt.Stringer interface for the SMTPAuthType type.
func (a SMTPAuthType) String() string {
	return string(a)
}
