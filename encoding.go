// SPDX-FileCopyrightText: 2024 The go-mailpost Authors
//
// SPDX-License-Identifier: MIT

package mailpost

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// Encoding represents a MIME encoding scheme like quoted-printable or base64.
type Encoding string

// ContentType represents a content type for the Msg
type ContentType string

const (
	// EncodingB64 represents the Base64 encoding as specified in RFC 2045.
	EncodingB64 Encoding = "base64"
)

const (
	// CharsetUTF8 is the default charset of rendered bodies.
	CharsetUTF8 = "utf-8"

	// MIME10 is the MIME Version 1.0
	MIME10 = "1.0"

	// CRLF is the line terminator required by RFC 5321 and the default for rendering.
	CRLF = "\r\n"

	// LF is accepted as an alternative line terminator for relays that expect bare newlines.
	LF = "\n"
)

// List of content types used by the renderer
const (
	TypeTextPlain            ContentType = "text/plain"
	TypeTextHTML             ContentType = "text/html"
	TypeAppOctetStream       ContentType = "application/octet-stream"
	TypeMultipartAlternative ContentType = "multipart/alternative"
	TypeMultipartMixed       ContentType = "multipart/mixed"
	TypeMultipartRelated     ContentType = "multipart/related"
)

// String satisfies the fmt.Stringer interface for the Encoding type.
func (e Encoding) String() string {
	return string(e)
}

// String satisfies the fmt.Stringer interface for the ContentType type.
func (c ContentType) String() string {
	return string(c)
}

// charsetEncoder returns the text encoder for the given charset name. A nil encoder is returned
// for UTF-8, which needs no conversion.
func charsetEncoder(charset string) (*encoding.Encoder, error) {
	if isUTF8(charset) {
		return nil, nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCharset, charset)
	}
	return enc.NewEncoder(), nil
}

// encodeCharset converts the UTF-8 input into the given charset.
func encodeCharset(charset, text string) ([]byte, error) {
	encoder, err := charsetEncoder(charset)
	if err != nil {
		return nil, err
	}
	if encoder == nil {
		return []byte(text), nil
	}
	converted, err := encoder.String(text)
	if err != nil {
		return nil, fmt.Errorf("failed to convert body to charset %q: %w", charset, err)
	}
	return []byte(converted), nil
}

func isUTF8(charset string) bool {
	switch strings.ToLower(charset) {
	case "", "utf-8", "utf8":
		return true
	default:
		return false
	}
}
