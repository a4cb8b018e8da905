// SPDX-FileCopyrightText: 2024 The go-mailpost Authors
//
// SPDX-License-Identifier: MIT

package mailpost

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	// ErrNoFromAddress should be used when a FROM address is requested but not set
	ErrNoFromAddress = errors.New("no FROM address set")

	// ErrNoRcptAddresses should be used when the list of RCPTs is empty
	ErrNoRcptAddresses = errors.New("no recipient addresses set")

	// ErrInvalidPriority is returned by SetPriority for values outside of 1 to 5
	ErrInvalidPriority = errors.New("priority must be between 1 and 5")
)

// DateLayout is the RFC 2822 date-time layout used for the Date header.
const DateLayout = "Mon, 02 Jan 2006 15:04:05 -0700"

// Msg is the mail message struct
//
// A Msg is created empty with NewMsg, populated through its setter methods in any order and
// rendered on demand with Msg.Render. It may be sent several times; the boundary stays the same
// until ResetBoundary is called.
type Msg struct {
	// boundary is the MIME content boundary
	boundary string

	// headerOrder holds the canonical header keys in order of first insertion
	headerOrder []string

	// headers maps canonical lowercase header keys to their values
	headers map[string]string

	// autoContentType is true while the Content-Type header is owned by the renderer
	autoContentType bool

	plainBody string
	htmlBody  string

	// attachments holds the file paths of the attachments in insertion order
	attachments []string

	// inlines holds the inline attachments in insertion order, unique per content-ID
	inlines []Inline

	from    Address
	to      addressList
	cc      addressList
	bcc     addressList
	replyTo addressList
}

// Inline is a file referenced from the HTML body by its content-ID.
type Inline struct {
	ContentID string `json:"content_id"`
	Path      string `json:"path"`
}

// HeaderField is a single rendered header line.
type HeaderField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// MsgOption returns a function that can be used for grouping Msg options
type MsgOption func(*Msg)

// NewMsg returns a new Msg pointer
func NewMsg(opts ...MsgOption) *Msg {
	m := &Msg{
		headers: make(map[string]string),
	}
	m.SetHeader(HeaderMIMEVersion.String(), MIME10)

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(m)
	}

	return m
}

// headerValueReplacer removes line breaks from header values
var headerValueReplacer = strings.NewReplacer("\r", "", "\n", "")

// WithBoundary overrides the randomly generated MIME boundary
func WithBoundary(b string) MsgOption {
	return func(m *Msg) {
		m.boundary = b
	}
}

// SetHeader sets a header field of the Msg. Header names are case-insensitive; setting a name
// that is already present replaces its value and keeps its original position. Names containing
// a line break or colon are ignored, and line breaks are removed from values.
func (m *Msg) SetHeader(name, value string) {
	key := headerKey(name)
	if key == "" || strings.ContainsAny(key, "\r\n:") {
		return
	}
	value = headerValueReplacer.Replace(value)
	if _, ok := m.headers[key]; !ok {
		m.headerOrder = append(m.headerOrder, key)
	}
	m.headers[key] = value
	if key == headerKey(HeaderContentType.String()) {
		m.autoContentType = false
	}
}

// GetHeader returns the value of the given header field and whether it is set.
func (m *Msg) GetHeader(name string) (string, bool) {
	value, ok := m.headers[headerKey(name)]
	return value, ok
}

// RemoveHeader removes the given header field from the Msg.
func (m *Msg) RemoveHeader(name string) {
	key := headerKey(name)
	if _, ok := m.headers[key]; !ok {
		return
	}
	delete(m.headers, key)
	for i, k := range m.headerOrder {
		if k == key {
			m.headerOrder = append(m.headerOrder[:i], m.headerOrder[i+1:]...)
			break
		}
	}
	if key == headerKey(HeaderContentType.String()) {
		m.autoContentType = false
	}
}

// Headers returns the header fields of the Msg in order, with display casing applied. A Bcc
// field is never part of the result.
func (m *Msg) Headers() []HeaderField {
	return m.headerFields(headerNames)
}

func (m *Msg) headerFields(table map[string]string) []HeaderField {
	fields := make([]HeaderField, 0, len(m.headerOrder))
	for _, key := range m.headerOrder {
		if key == headerKey(HeaderBcc.String()) {
			continue
		}
		fields = append(fields, HeaderField{Name: headerName(table, key), Value: m.headers[key]})
	}
	return fields
}

// SetFrom validates the given address and sets it as sender of the Msg.
func (m *Msg) SetFrom(address, name string) error {
	addr, err := parseAddress(address)
	if err != nil {
		return err
	}
	m.from = Address{Address: addr, Name: name}
	m.SetHeader(HeaderFrom.String(), m.from.String())
	return nil
}

// From returns the sender of the Msg. The Address is empty if SetFrom was never called.
func (m *Msg) From() Address {
	return m.from
}

// AddTo adds the address to the To recipients, or updates its display name if already present.
func (m *Msg) AddTo(address, name string) error {
	return m.addAddress(&m.to, HeaderTo, address, name)
}

// AddCc adds the address to the Cc recipients, or updates its display name if already present.
func (m *Msg) AddCc(address, name string) error {
	return m.addAddress(&m.cc, HeaderCc, address, name)
}

// AddBcc adds the address to the Bcc recipients. Bcc addresses receive the message but are never
// written to the message headers.
func (m *Msg) AddBcc(address, name string) error {
	return m.addAddress(&m.bcc, HeaderBcc, address, name)
}

// AddReplyTo adds the address to the Reply-To list, or updates its display name if already present.
func (m *Msg) AddReplyTo(address, name string) error {
	return m.addAddress(&m.replyTo, HeaderReplyTo, address, name)
}

func (m *Msg) addAddress(list *addressList, header Header, address, name string) error {
	addr, err := parseAddress(address)
	if err != nil {
		return err
	}
	list.set(addr, name)
	if header != HeaderBcc {
		m.SetHeader(header.String(), list.String())
	}
	return nil
}

// To returns the To recipients in insertion order.
func (m *Msg) To() []Address { return m.to.addresses() }

// Cc returns the Cc recipients in insertion order.
func (m *Msg) Cc() []Address { return m.cc.addresses() }

// Bcc returns the Bcc recipients in insertion order.
func (m *Msg) Bcc() []Address { return m.bcc.addresses() }

// ReplyTo returns the Reply-To addresses in insertion order.
func (m *Msg) ReplyTo() []Address { return m.replyTo.addresses() }

// GetRecipients returns the de-duplicated union of the To and Cc addresses in order of first
// insertion. Bcc addresses are not included.
func (m *Msg) GetRecipients() []string {
	recipients := make([]string, 0, m.to.len()+m.cc.len())
	seen := make(map[string]struct{}, m.to.len()+m.cc.len())
	for _, list := range []*addressList{&m.to, &m.cc} {
		for _, address := range list.order {
			if _, ok := seen[address]; ok {
				continue
			}
			seen[address] = struct{}{}
			recipients = append(recipients, address)
		}
	}
	return recipients
}

// EnvelopeRecipients returns every address the Msg is delivered to: GetRecipients followed by
// the Bcc addresses that are not already part of it.
func (m *Msg) EnvelopeRecipients() []string {
	recipients := m.GetRecipients()
	for _, address := range m.bcc.order {
		if m.to.has(address) || m.cc.has(address) {
			continue
		}
		recipients = append(recipients, address)
	}
	return recipients
}

// SetSubject sets the "Subject" header field of the Msg. Non-ASCII subjects are encoded as
// RFC 2047 encoded-words.
func (m *Msg) SetSubject(subject string) {
	m.SetHeader(HeaderSubject.String(), mime.QEncoding.Encode(CharsetUTF8, subject))
}

// SetDate sets the Date header field to the provided time.
func (m *Msg) SetDate(t time.Time) {
	m.SetHeader(HeaderDate.String(), t.Format(DateLayout))
}

// SetDateNow sets the Date header field to the current time.
func (m *Msg) SetDateNow() {
	m.SetDate(time.Now())
}

// SetPriority sets the X-Priority header field of the Msg.
func (m *Msg) SetPriority(p Priority) error {
	if !p.IsValid() {
		return fmt.Errorf("%w: %d", ErrInvalidPriority, p)
	}
	m.SetHeader(HeaderXPriority.String(), strconv.Itoa(int(p)))
	return nil
}

// SetMessageID generates a random message id for the mail
func (m *Msg) SetMessageID() {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "localhost.localdomain"
	}
	m.SetMessageIDWithValue(uuid.NewString() + "@" + hostname)
}

// SetMessageIDWithValue sets the message id for the mail
func (m *Msg) SetMessageIDWithValue(id string) {
	m.SetHeader(HeaderMessageID.String(), "<"+id+">")
}

// SetPlainBody sets the text/plain body. An empty body is left out of the rendered message.
func (m *Msg) SetPlainBody(body string) {
	m.plainBody = body
}

// SetHTMLBody sets the text/html body. An empty body is left out of the rendered message.
func (m *Msg) SetHTMLBody(body string) {
	m.htmlBody = body
}

// SetMarkdownBody renders the given markdown into the HTML body and uses the markdown source
// as the plain text body.
func (m *Msg) SetMarkdownBody(markdown string) error {
	converter := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
		),
	)
	var buf bytes.Buffer
	if err := converter.Convert([]byte(markdown), &buf); err != nil {
		return fmt.Errorf("failed to convert markdown body: %w", err)
	}
	m.plainBody = markdown
	m.htmlBody = buf.String()
	return nil
}

// PlainBody returns the text/plain body of the Msg.
func (m *Msg) PlainBody() string { return m.plainBody }

// HTMLBody returns the text/html body of the Msg.
func (m *Msg) HTMLBody() string { return m.htmlBody }

// AddAttachment appends the file at path to the list of attachments. The file is only read when
// the Msg is rendered.
func (m *Msg) AddAttachment(path string) {
	m.attachments = append(m.attachments, path)
}

// SetInlineAttachment references the file at path under the given content-ID. Setting a
// content-ID again replaces its path.
func (m *Msg) SetInlineAttachment(path, contentID string) {
	for i := range m.inlines {
		if m.inlines[i].ContentID == contentID {
			m.inlines[i].Path = path
			return
		}
	}
	m.inlines = append(m.inlines, Inline{ContentID: contentID, Path: path})
}

// Attachments returns a copy of the attachment paths in insertion order.
func (m *Msg) Attachments() []string {
	return append([]string(nil), m.attachments...)
}

// InlineAttachments returns a copy of the inline attachments in insertion order.
func (m *Msg) InlineAttachments() []Inline {
	return append([]Inline(nil), m.inlines...)
}

// Boundary returns the MIME boundary of the Msg, generating it on first use.
func (m *Msg) Boundary() (string, error) {
	if m.boundary != "" {
		return m.boundary, nil
	}
	boundary, err := randomBoundary()
	if err != nil {
		return "", fmt.Errorf("failed to generate MIME boundary: %w", err)
	}
	m.boundary = boundary
	return m.boundary, nil
}

// SetBoundary sets the boundary of the Msg
func (m *Msg) SetBoundary(b string) {
	m.boundary = b
}

// ResetBoundary discards the current boundary. A new one is generated on the next render.
func (m *Msg) ResetBoundary() {
	m.boundary = ""
}
