// SPDX-FileCopyrightText: 2024 The go-mailpost Authors
//
// SPDX-License-Identifier: MIT

package mailpost

import "fmt"

// TLSPolicy describes how the Client secures a plaintext connection with STARTTLS.
type TLSPolicy int

const (
	// TLSMandatory always sends STARTTLS after the first EHLO. If the server refuses it, the
	// send fails before any credentials are transmitted.
	TLSMandatory TLSPolicy = iota

	// TLSOpportunistic sends STARTTLS only if the server advertises it and continues in
	// plaintext otherwise.
	TLSOpportunistic

	// NoTLS never sends STARTTLS.
	NoTLS
)

// String satisfies the fmt.Stringer interface for the TLSPolicy type.
func (p TLSPolicy) String() string {
	switch p {
	case TLSMandatory:
		return "TLSMandatory"
	case TLSOpportunistic:
		return "TLSOpportunistic"
	case NoTLS:
		return "NoTLS"
	default:
		return "UnknownPolicy"
	}
}

// ParseTLSPolicy returns the TLSPolicy for one of the names "mandatory", "opportunistic" and
// "none", as used in configuration files.
func ParseTLSPolicy(name string) (TLSPolicy, error) {
	switch name {
	case "mandatory", "TLSMandatory":
		return TLSMandatory, nil
	case "opportunistic", "TLSOpportunistic":
		return TLSOpportunistic, nil
	case "none", "NoTLS":
		return NoTLS, nil
	default:
		return NoTLS, fmt.Errorf("%w: %q", ErrInvalidTLSPolicy, name)
	}
}
