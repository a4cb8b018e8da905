// SPDX-FileCopyrightText: 2024 The go-mailpost Authors
//
// SPDX-License-Identifier: MIT

package mailpost

import (
	"fmt"
	"mime"
	"net/mail"
	"strings"
)

// Address is an email address with an optional display name.
type Address struct {
	Address string `json:"address" yaml:"address"`
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
}

// String formats the Address for use in a header field.
//
// An Address without a display name is returned as the bare address. Otherwise, the result is
// `"Name" <address>`. Display names that contain non-ASCII characters are encoded as RFC 2047
// encoded-words instead of being quoted.
func (a Address) String() string {
	if a.Name == "" {
		return a.Address
	}
	encoded := mime.QEncoding.Encode(CharsetUTF8, a.Name)
	if encoded != a.Name {
		return encoded + " <" + a.Address + ">"
	}
	replacer := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + replacer.Replace(a.Name) + `" <` + a.Address + ">"
}

// addressList is an insertion-ordered set of addresses. Adding an address that is already
// present updates its display name in place.
type addressList struct {
	order []string
	names map[string]string
}

// parseAddress validates the given address and returns the plain address part of it.
func parseAddress(address string) (string, error) {
	parsed, err := mail.ParseAddress(address)
	if err != nil {
		return "", fmt.Errorf("failed to parse mail address %q: %w", address, err)
	}
	return parsed.Address, nil
}

func (l *addressList) set(address, name string) {
	if l.names == nil {
		l.names = make(map[string]string)
	}
	if _, ok := l.names[address]; !ok {
		l.order = append(l.order, address)
	}
	l.names[address] = name
}

func (l *addressList) has(address string) bool {
	_, ok := l.names[address]
	return ok
}

func (l *addressList) len() int {
	return len(l.order)
}

// addresses returns a copy of the list in insertion order.
func (l *addressList) addresses() []Address {
	list := make([]Address, 0, len(l.order))
	for _, address := range l.order {
		list = append(list, Address{Address: address, Name: l.names[address]})
	}
	return list
}

// String formats the list as a comma separated header value.
func (l *addressList) String() string {
	return FormatAddressList(l.addresses())
}

// FormatAddressList joins the formatted addresses with ", ".
func FormatAddressList(addresses []Address) string {
	formatted := make([]string, 0, len(addresses))
	for _, address := range addresses {
		formatted = append(formatted, address.String())
	}
	return strings.Join(formatted, ", ")
}
