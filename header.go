// SPDX-FileCopyrightText: 2024 The go-mailpost Authors
//
// SPDX-License-Identifier: MIT

package mailpost

import (
	"strings"
)

// Header is a type wrapper for a string and represents email header fields in a Msg.
type Header string

// Priority is a type wrapper for an int and represents the X-Priority level of a Msg.
type Priority int

const (
	// HeaderBcc is the "Blind Carbon Copy" header field. It is never rendered.
	HeaderBcc Header = "Bcc"

	// HeaderCc is the "Carbon Copy" header field.
	HeaderCc Header = "Cc"

	// HeaderContentDisposition is the "Content-Disposition" header.
	HeaderContentDisposition Header = "Content-Disposition"

	// HeaderContentID is the "Content-ID" header.
	HeaderContentID Header = "Content-ID"

	// HeaderContentTransferEnc is the "Content-Transfer-Encoding" header.
	HeaderContentTransferEnc Header = "Content-Transfer-Encoding"

	// HeaderContentType is the "Content-Type" header.
	HeaderContentType Header = "Content-Type"

	// HeaderDate represents the "Date" field.
	// https://datatracker.ietf.org/doc/html/rfc2822#section-3.3
	HeaderDate Header = "Date"

	// HeaderFrom is the "From" header field.
	HeaderFrom Header = "From"

	// HeaderInReplyTo represents the "In-Reply-To" field.
	HeaderInReplyTo Header = "In-Reply-To"

	// HeaderMessageID represents the "Message-ID" field for message identification.
	// https://datatracker.ietf.org/doc/html/rfc1036#section-2.1.5
	HeaderMessageID Header = "Message-ID"

	// HeaderMIMEVersion represents the "MIME-Version" field as per RFC 2045.
	// https://datatracker.ietf.org/doc/html/rfc2045#section-4
	HeaderMIMEVersion Header = "MIME-Version"

	// HeaderOrganization is the "Organization" header field.
	HeaderOrganization Header = "Organization"

	// HeaderReferences is the "References" header field.
	HeaderReferences Header = "References"

	// HeaderReplyTo is the "Reply-To" header field.
	HeaderReplyTo Header = "Reply-To"

	// HeaderSubject is the "Subject" header field.
	HeaderSubject Header = "Subject"

	// HeaderTo is the "Recipient" header field.
	HeaderTo Header = "To"

	// HeaderUserAgent is the "User-Agent" header field.
	HeaderUserAgent Header = "User-Agent"

	// HeaderXMailer is the "X-Mailer" header field.
	HeaderXMailer Header = "X-Mailer"

	// HeaderXPriority is the "X-Priority" header field.
	HeaderXPriority Header = "X-Priority"
)

// List of Priority levels accepted by Msg.SetPriority.
const (
	PriorityHighest Priority = iota + 1
	PriorityHigh
	PriorityNormal
	PriorityLow
	PriorityLowest
)

// headerNames maps the lowercase form of well-known header fields to the casing used on output.
// It is built once and never modified; a custom table can be passed to the renderer through
// RenderOptions.HeaderNames.
var headerNames = map[string]string{
	"bcc":                         "Bcc",
	"cc":                          "Cc",
	"content-description":         "Content-Description",
	"content-disposition":         "Content-Disposition",
	"content-id":                  "Content-ID",
	"content-language":            "Content-Language",
	"content-transfer-encoding":   "Content-Transfer-Encoding",
	"content-type":                "Content-Type",
	"date":                        "Date",
	"disposition-notification-to": "Disposition-Notification-To",
	"from":                        "From",
	"importance":                  "Importance",
	"in-reply-to":                 "In-Reply-To",
	"list-unsubscribe":            "List-Unsubscribe",
	"list-unsubscribe-post":       "List-Unsubscribe-Post",
	"message-id":                  "Message-ID",
	"mime-version":                "MIME-Version",
	"organization":                "Organization",
	"precedence":                  "Precedence",
	"received":                    "Received",
	"references":                  "References",
	"reply-to":                    "Reply-To",
	"return-path":                 "Return-Path",
	"sender":                      "Sender",
	"subject":                     "Subject",
	"to":                          "To",
	"user-agent":                  "User-Agent",
	"x-mailer":                    "X-Mailer",
	"x-msmail-priority":           "X-MSMail-Priority",
	"x-priority":                  "X-Priority",
}

// HeaderName returns the display form of the given header field name.
//
// Well-known fields are looked up in the built-in table. Any other name has each dash-separated
// token title-cased, so "x-custom-id" becomes "X-Custom-Id".
func HeaderName(name string) string {
	return headerName(headerNames, name)
}

func headerName(table map[string]string, name string) string {
	key := headerKey(name)
	if display, ok := table[key]; ok {
		return display
	}
	tokens := strings.Split(key, "-")
	for i, token := range tokens {
		if token == "" {
			continue
		}
		tokens[i] = strings.ToUpper(token[:1]) + token[1:]
	}
	return strings.Join(tokens, "-")
}

// headerKey returns the canonical storage key for a header field name.
func headerKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// IsValid reports whether the Priority is within the X-Priority range of 1 to 5.
func (p Priority) IsValid() bool {
	return p >= PriorityHighest && p <= PriorityLowest
}

// String satisfies the fmt.Stringer interface for the Priority type.
func (p Priority) String() string {
	switch p {
	case PriorityHighest:
		return "1 (Highest)"
	case PriorityHigh:
		return "2 (High)"
	case PriorityNormal:
		return "3 (Normal)"
	case PriorityLow:
		return "4 (Low)"
	case PriorityLowest:
		return "5 (Lowest)"
	default:
		return ""
	}
}

// String satisfies the fmt.Stringer interface for the Header type.
func (h Header) String() string {
	return string(h)
}
