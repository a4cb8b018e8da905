// SPDX-FileCopyrightText: 2024 The go-mailpost Authors
//
// SPDX-License-Identifier: MIT

package mailpost

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"time"
)

// ErrInvalidLineTerminator is returned when a line terminator other than CRLF or LF is requested.
var ErrInvalidLineTerminator = errors.New("line terminator must be CRLF or LF")

// RenderOptions are the explicit inputs of Msg.Render.
type RenderOptions struct {
	// Charset is used for the text parts. Defaults to utf-8.
	Charset string

	// LineTerminator ends every rendered line. Defaults to CRLF.
	LineTerminator string

	// HeaderNames replaces the built-in lowercase to display name table for header output.
	HeaderNames map[string]string

	// Now provides the time for a missing Date header. Defaults to time.Now.
	Now func() time.Time
}

func (o RenderOptions) withDefaults() (RenderOptions, error) {
	if o.Charset == "" {
		o.Charset = CharsetUTF8
	}
	switch o.LineTerminator {
	case "":
		o.LineTerminator = CRLF
	case CRLF, LF:
	default:
		return o, fmt.Errorf("%w: %q", ErrInvalidLineTerminator, o.LineTerminator)
	}
	if o.HeaderNames == nil {
		o.HeaderNames = headerNames
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o, nil
}

// Render returns the complete message, headers and MIME body, as it is transferred in the
// DATA phase.
//
// All attachments are read before anything is rendered. If one of them is missing, Render
// fails with ErrAttachmentNotFound or ErrInlineAttachmentNotFound and the Msg is not modified.
// Otherwise, a missing Date header is set and the Content-Type header is generated, after which
// rendering the unmodified Msg again produces identical output.
func (m *Msg) Render(opts RenderOptions) ([]byte, error) {
	buf := bytes.Buffer{}
	if _, err := m.RenderTo(&buf, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderTo writes the rendered message to w and returns the number of bytes written.
func (m *Msg) RenderTo(w io.Writer, opts RenderOptions) (int64, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return 0, err
	}

	attachments := make([]*File, 0, len(m.attachments))
	for _, path := range m.attachments {
		file, err := loadFile(path, ErrAttachmentNotFound)
		if err != nil {
			return 0, err
		}
		attachments = append(attachments, file)
	}
	inlines := make([]*File, 0, len(m.inlines))
	for _, inline := range m.inlines {
		file, err := loadFile(inline.Path, ErrInlineAttachmentNotFound)
		if err != nil {
			return 0, err
		}
		file.ContentID = inline.ContentID
		inlines = append(inlines, file)
	}

	var plain, htmlBody []byte
	if m.plainBody != "" {
		if plain, err = encodeCharset(opts.Charset, m.plainBody); err != nil {
			return 0, err
		}
	}
	if m.htmlBody != "" {
		if htmlBody, err = encodeCharset(opts.Charset, m.htmlBody); err != nil {
			return 0, err
		}
	}

	boundary, err := m.Boundary()
	if err != nil {
		return 0, err
	}
	m.prepareHeaders(boundary, len(inlines) > 0, opts.Now)

	mw := &msgWriter{w: w, nl: opts.LineTerminator}
	for _, field := range m.headerFields(opts.HeaderNames) {
		mw.writeHeader(field.Name, field.Value)
	}
	mw.writeLine("")

	mixed := "mixed-" + boundary
	alt := "alt-" + boundary
	mw.startBoundary(mixed)
	mw.writeHeader(HeaderContentType.String(),
		fmt.Sprintf(`%s; boundary="%s"`, TypeMultipartAlternative, alt))
	mw.writeLine("")
	if plain != nil {
		mw.writeTextPart(alt, TypeTextPlain, opts.Charset, plain)
	}
	if htmlBody != nil {
		mw.writeTextPart(alt, TypeTextHTML, opts.Charset, htmlBody)
	}
	mw.stopBoundary(alt)
	mw.writeLine("")

	for _, file := range attachments {
		mw.startBoundary(mixed)
		mw.writeHeader(HeaderContentType.String(), fmt.Sprintf(`%s; name="%s"`, file.ContentType,
			file.escapedName()))
		mw.writeHeader(HeaderContentDisposition.String(), fmt.Sprintf(`attachment; filename="%s"`,
			file.escapedName()))
		mw.writeHeader(HeaderContentTransferEnc.String(), EncodingB64.String())
		mw.writeLine("")
		mw.writeBase64(file.Data)
		mw.writeLine("")
	}
	for _, file := range inlines {
		mw.startBoundary(mixed)
		mw.writeHeader(HeaderContentID.String(), file.contentIDHeader())
		mw.writeHeader(HeaderContentType.String(), file.ContentType.String())
		mw.writeHeader(HeaderContentDisposition.String(), "inline")
		mw.writeHeader(HeaderContentTransferEnc.String(), EncodingB64.String())
		mw.writeLine("")
		mw.writeBase64(file.Data)
		mw.writeLine("")
	}
	mw.writeString("--" + mixed + "--")

	if mw.err != nil {
		return mw.n, fmt.Errorf("failed to render message: %w", mw.err)
	}
	return mw.n, nil
}

// prepareHeaders sets the headers that are populated at render time.
func (m *Msg) prepareHeaders(boundary string, related bool, now func() time.Time) {
	if _, ok := m.GetHeader(HeaderDate.String()); !ok {
		m.SetDate(now())
	}
	if _, ok := m.GetHeader(HeaderContentType.String()); ok && !m.autoContentType {
		return
	}
	subtype := TypeMultipartMixed
	if related {
		subtype = TypeMultipartRelated
	}
	m.SetHeader(HeaderContentType.String(), fmt.Sprintf(`%s; boundary="mixed-%s"`, subtype, boundary))
	m.autoContentType = true
}

// msgWriter writes the rendered message into an io.Writer. The first write error is kept and
// turns all subsequent writes into no-ops.
type msgWriter struct {
	w   io.Writer
	n   int64
	err error
	nl  string
}

// Write implements the io.Writer interface for msgWriter
func (mw *msgWriter) Write(p []byte) (int, error) {
	if mw.err != nil {
		return 0, fmt.Errorf("failed to write due to previous error: %w", mw.err)
	}

	var n int
	n, mw.err = mw.w.Write(p)
	mw.n += int64(n)
	return n, mw.err
}

// writeString writes a string into the msgWriter's io.Writer interface
func (mw *msgWriter) writeString(s string) {
	if mw.err != nil {
		return
	}
	var n int
	n, mw.err = io.WriteString(mw.w, s)
	mw.n += int64(n)
}

func (mw *msgWriter) writeLine(s string) {
	mw.writeString(s + mw.nl)
}

// writeHeader writes a header line. Header fields without a value are skipped.
func (mw *msgWriter) writeHeader(name, value string) {
	if value == "" {
		return
	}
	mw.writeLine(name + ": " + value)
}

func (mw *msgWriter) startBoundary(boundary string) {
	mw.writeLine("--" + boundary)
}

func (mw *msgWriter) stopBoundary(boundary string) {
	mw.writeLine("--" + boundary + "--")
}

// writeTextPart writes a base64 encoded text part of the alternative container.
func (mw *msgWriter) writeTextPart(boundary string, contentType ContentType, charset string, body []byte) {
	mw.startBoundary(boundary)
	mw.writeHeader(HeaderContentType.String(), fmt.Sprintf("%s; charset=%s", contentType, charset))
	mw.writeHeader(HeaderContentTransferEnc.String(), EncodingB64.String())
	mw.writeLine("")
	mw.writeBase64(body)
	mw.writeLine("")
}

// writeBase64 writes data base64 encoded in lines of MaxBodyLength characters
func (mw *msgWriter) writeBase64(data []byte) {
	if mw.err != nil {
		return
	}
	lineBreaker := NewBase64LineBreaker(mw, mw.nl)
	encoder := base64.NewEncoder(base64.StdEncoding, lineBreaker)
	if _, err := encoder.Write(data); err != nil {
		mw.err = err
		return
	}
	if err := encoder.Close(); err != nil {
		mw.err = err
		return
	}
	if err := lineBreaker.Close(); err != nil {
		mw.err = err
	}
}
