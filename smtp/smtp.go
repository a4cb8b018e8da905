// SPDX-FileCopyrightText: 2024 The go-mailpost Authors
//
// SPDX-License-Identifier: MIT

// Package smtp implements the client side of the Simple Mail Transfer Protocol as defined in
// RFC 5321, with the following extensions:
//
//	AUTH      RFC 4954 (LOGIN and PLAIN)
//	STARTTLS  RFC 3207
//
// Replies are read as complete units: a command is only sent after the last line of the previous
// reply has been received. Every round-trip can be observed as an [Exchange].
package smtp

import (
	"bufio"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/net/idna"

	"github.com/mailpost/go-mailpost/log"
)

const (
	// redactedAuthData replaces credentials in logs and transcripts.
	redactedAuthData = "<SMTP auth data redacted>"

	// EndOfData is the Command of a ReplyError that rejects a transferred message, as
	// opposed to one that rejects the DATA command itself.
	EndOfData = "end of data"
)

var (
	// ErrNonTLSConnection is returned when an attempt is made to retrieve TLS state on a non-TLS connection.
	ErrNonTLSConnection = errors.New("connection is not using TLS")

	// ErrNoConnection is returned when attempting to perform an operation that requires an established
	// connection but none exists.
	ErrNoConnection = errors.New("connection is not established")

	// ErrInvalidLine is returned when a command argument contains CR or LF.
	ErrInvalidLine = errors.New("smtp: a line must not contain CR or LF")
)

// A Client represents a client connection to an SMTP server.
//
// A Client is not safe for concurrent use. It is owned by exactly one caller, which issues one
// command at a time.
type Client struct {
	// auth supported auth mechanisms
	auth []string

	// authIsActive indicates that the Client is currently during SMTP authentication
	authIsActive bool

	// keep a reference to the connection so it can be used to create a TLS connection later
	conn net.Conn

	// debug logging is enabled
	debug bool

	// ext is a map of supported extensions
	ext map[string]string

	// isConnected indicates if the Client has an active connection
	isConnected bool

	// localName is the name to use in HELO/EHLO
	localName string

	// logger will be used for debug logging
	logger log.Logger

	// newline terminates every line sent to the server
	newline string

	reader *bufio.Reader
	writer *bufio.Writer

	// responseTimeout bounds every single read of a server reply and every chunk written
	responseTimeout time.Duration

	// serverName denotes the name of the server the Client is connected to
	serverName string

	// tls indicates whether the Client is using TLS
	tls bool

	// transcript receives every completed round-trip
	transcript func(Exchange)
}

// Option configures a Client created by NewClient.
type Option func(*Client)

// WithLineTerminator sets the terminator for lines sent to the server. Defaults to CRLF.
func WithLineTerminator(newline string) Option {
	return func(c *Client) {
		if newline != "" {
			c.newline = newline
		}
	}
}

// WithResponseTimeout sets the deadline for each read of a server reply. Zero disables it.
func WithResponseTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.responseTimeout = timeout
	}
}

// WithLogger enables debug logging of the protocol to the given log.Logger.
func WithLogger(logger log.Logger) Option {
	return func(c *Client) {
		if logger == nil {
			return
		}
		c.logger = logger
		c.debug = true
	}
}

// WithTranscript registers a function that is called with every completed round-trip,
// including the server greeting.
func WithTranscript(fn func(Exchange)) Option {
	return func(c *Client) {
		c.transcript = fn
	}
}

// NewClient returns a new [Client] using an existing connection and host as a server name. It
// reads the server greeting, which is returned as well. If the greeting is not a 220 reply, the
// connection is closed and a *ReplyError is returned.
func NewClient(conn net.Conn, host string, opts ...Option) (*Client, *Reply, error) {
	c := &Client{
		conn:       conn,
		localName:  "localhost",
		newline:    "\r\n",
		serverName: host,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.setConn(conn)
	_, c.tls = conn.(*tls.Conn)

	start := time.Now()
	reply, err := c.readReply()
	if err != nil {
		_ = conn.Close()
		return nil, reply, fmt.Errorf("smtp: failed to read server greeting: %w", err)
	}
	c.debugLog(log.DirServerToClient, "%s", reply.String())
	c.observe("", reply, start)
	if reply.Code != C220ServiceReady {
		_ = conn.Close()
		return nil, reply, &ReplyError{Reply: reply}
	}
	c.isConnected = true

	return c, reply, nil
}

func (c *Client) setConn(conn net.Conn) {
	c.conn = conn
	c.reader = bufio.NewReader(conn)
	c.writer = bufio.NewWriter(&deadlineWriter{client: c})
}

// writeChunkSize is the largest single write to the connection. Every chunk gets a fresh write
// deadline, so a large message only fails when the server stops accepting data.
const writeChunkSize = 4096

// deadlineWriter writes to the connection of a Client in chunks of writeChunkSize and applies
// the response timeout as write deadline to each chunk.
type deadlineWriter struct {
	client *Client
}

func (w *deadlineWriter) Write(p []byte) (int, error) {
	written := 0
	for written < len(p) {
		end := written + writeChunkSize
		if end > len(p) {
			end = len(p)
		}
		if w.client.responseTimeout > 0 {
			deadline := time.Now().Add(w.client.responseTimeout)
			if err := w.client.conn.SetWriteDeadline(deadline); err != nil {
				return written, fmt.Errorf("smtp: failed to set write deadline: %w", err)
			}
		}
		n, err := w.client.conn.Write(p[written:end])
		written += n
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	c.isConnected = false
	return c.conn.Close()
}

// Hello sends EHLO to the server as the given host name and records the advertised extensions.
// If the server does not know EHLO (500 or 502), HELO is sent instead. Hello may be called again
// at any time, which resets the current mail transaction on the server.
func (c *Client) Hello(localName string) error {
	if err := validateLine(localName); err != nil {
		return err
	}
	c.localName = localName

	err := c.ehlo()
	var replyErr *ReplyError
	if errors.As(err, &replyErr) && (replyErr.Reply.Code == C500BadSyntax ||
		replyErr.Reply.Code == C502CmdNotImpl) {
		return c.helo()
	}
	return err
}

// ehlo sends the EHLO (extended hello) greeting to the server. It
// should be the preferred greeting for servers that support it.
func (c *Client) ehlo() error {
	reply, err := c.cmd("EHLO %s", c.localName)
	if err != nil {
		return err
	}
	if err = expect("EHLO", reply, C250Completed); err != nil {
		return err
	}
	ext := make(map[string]string)
	if len(reply.Lines) > 1 {
		for _, line := range reply.Lines[1:] {
			if len(line) < 5 {
				continue
			}
			args := strings.SplitN(line[4:], " ", 2)
			keyword := strings.ToUpper(args[0])
			if len(args) > 1 {
				ext[keyword] = args[1]
			} else {
				ext[keyword] = ""
			}
		}
	}
	c.auth = nil
	if mechs, ok := ext["AUTH"]; ok {
		c.auth = strings.Split(mechs, " ")
	}
	c.ext = ext
	return nil
}

// helo sends the HELO greeting to the server. It should be used only when the
// server does not support ehlo.
func (c *Client) helo() error {
	c.ext = nil
	c.auth = nil
	reply, err := c.cmd("HELO %s", c.localName)
	if err != nil {
		return err
	}
	return expect("HELO", reply, C250Completed)
}

// StartTLS sends the STARTTLS command and encrypts all further communication. After the
// handshake, EHLO is sent again since the server discards its extension state.
func (c *Client) StartTLS(config *tls.Config) error {
	reply, err := c.cmd("STARTTLS")
	if err != nil {
		return err
	}
	if err = expect("STARTTLS", reply, C220ServiceReady); err != nil {
		return err
	}

	tlsConn := tls.Client(c.conn, config)
	if c.responseTimeout > 0 {
		if err = tlsConn.SetDeadline(time.Now().Add(c.responseTimeout)); err != nil {
			return fmt.Errorf("smtp: failed to set TLS handshake deadline: %w", err)
		}
	}
	if err = tlsConn.Handshake(); err != nil {
		return fmt.Errorf("smtp: TLS handshake failed: %w", err)
	}
	if err = tlsConn.SetDeadline(time.Time{}); err != nil {
		return fmt.Errorf("smtp: failed to reset deadline: %w", err)
	}
	c.setConn(tlsConn)
	c.tls = true
	c.debugLog(log.DirClientToServer, "%s", "TLS handshake completed")

	return c.ehlo()
}

// TLSConnectionState returns the client's TLS connection state.
func (c *Client) TLSConnectionState() (*tls.ConnectionState, error) {
	if !c.isConnected {
		return nil, ErrNoConnection
	}
	tlsConn, ok := c.conn.(*tls.Conn)
	if !ok || !c.tls {
		return nil, ErrNonTLSConnection
	}
	state := tlsConn.ConnectionState()
	return &state, nil
}

// Auth authenticates a client using the provided authentication mechanism.
//
// A 503 reply to the AUTH command means the session is already authenticated and counts as
// success. 334 replies are answered through the mechanism until the server sends 235. Any other
// reply ends the exchange with an error wrapping ErrAuthFailed and a *ReplyError.
func (c *Client) Auth(a Auth) error {
	mech, resp, err := a.Start(&ServerInfo{Name: c.serverName, TLS: c.tls, Auth: c.auth})
	if err != nil {
		return err
	}

	command, logged := "AUTH "+mech, "AUTH "+mech
	if resp != nil {
		command += " " + base64.StdEncoding.EncodeToString(resp)
		logged += " " + redactedAuthData
	}
	reply, err := c.exchange(command, logged)
	if err != nil {
		return err
	}
	if reply.Code == C503BadCmdSeq {
		return nil
	}

	c.authIsActive = true
	defer func() {
		c.authIsActive = false
	}()
	for {
		switch reply.Category() {
		case CategorySuccess:
			if reply.Code == C235AuthSuccess {
				return nil
			}
		case CategoryContinue:
			if reply.Code != C334ContinueAuth {
				break
			}
			challenge, derr := base64.StdEncoding.DecodeString(strings.TrimSpace(reply.Message()))
			if derr != nil {
				challenge = []byte(reply.Message())
			}
			resp, err = a.Next(challenge, true)
			if err != nil {
				_, _ = c.exchange("*", "*")
				return fmt.Errorf("%w: %w", ErrAuthFailed, err)
			}
			reply, err = c.exchange(base64.StdEncoding.EncodeToString(resp), redactedAuthData)
			if err != nil {
				return err
			}
			continue
		}
		return fmt.Errorf("%w: %w", ErrAuthFailed, &ReplyError{Command: "AUTH", Reply: reply})
	}
}

// Mail issues a MAIL command to the server using the provided email address.
// This initiates a mail transaction and is followed by one or more [Client.Rcpt] calls.
func (c *Client) Mail(from string) error {
	if err := validateLine(from); err != nil {
		return err
	}
	reply, err := c.cmd("MAIL FROM:<%s>", asciiAddress(from))
	if err != nil {
		return err
	}
	return expect("MAIL", reply, C250Completed)
}

// Rcpt issues a RCPT command to the server using the provided email address.
// A call to Rcpt must be preceded by a call to [Client.Mail] and may be followed by
// a [Client.Data] call or another Rcpt call.
func (c *Client) Rcpt(to string) error {
	if err := validateLine(to); err != nil {
		return err
	}
	reply, err := c.cmd("RCPT TO:<%s>", asciiAddress(to))
	if err != nil {
		return err
	}
	return expect("RCPT", reply, C250Completed, C251UserNotLocalWillForward)
}

// Data issues a DATA command, transfers the payload followed by the terminating "." line and
// returns the final reply of the server. The payload is dot-stuffed on the fly. If the final
// reply is not 250, a *ReplyError is returned along with it.
func (c *Client) Data(payload []byte) (*Reply, error) {
	reply, err := c.cmd("DATA")
	if err != nil {
		return nil, err
	}
	if err = expect("DATA", reply, C354Continue); err != nil {
		return reply, err
	}

	start := time.Now()
	c.debugLog(log.DirClientToServer, "<message data: %d bytes>", len(payload))
	if _, err = c.writer.Write(dotStuff(payload)); err != nil {
		return nil, fmt.Errorf("smtp: failed to write message data: %w", err)
	}
	if _, err = c.writer.WriteString(c.newline + "." + c.newline); err != nil {
		return nil, fmt.Errorf("smtp: failed to write message data: %w", err)
	}
	if err = c.writer.Flush(); err != nil {
		return nil, fmt.Errorf("smtp: failed to write message data: %w", err)
	}
	reply, err = c.readReply()
	if err != nil {
		return nil, err
	}
	c.debugLog(log.DirServerToClient, "%s", reply.String())
	c.observe(string(payload)+c.newline+".", reply, start)

	return reply, expect(EndOfData, reply, C250Completed)
}

// Extension reports whether an extension is support by the server.
// The extension name is case-insensitive. If the extension is supported,
// Extension also returns a string that contains any parameters the
// server specifies for the extension.
func (c *Client) Extension(ext string) (bool, string) {
	if c.ext == nil {
		return false, ""
	}
	param, ok := c.ext[strings.ToUpper(ext)]
	return ok, param
}

// Reset sends the RSET command to the server, aborting the current mail
// transaction.
func (c *Client) Reset() error {
	reply, err := c.cmd("RSET")
	if err != nil {
		return err
	}
	return expect("RSET", reply, C250Completed)
}

// Noop sends the NOOP command to the server. It does nothing but check
// that the connection to the server is okay.
func (c *Client) Noop() error {
	reply, err := c.cmd("NOOP")
	if err != nil {
		return err
	}
	return expect("NOOP", reply, C250Completed)
}

// Quit sends the QUIT command and closes the connection to the server. The connection is
// closed even if the server does not answer properly.
func (c *Client) Quit() error {
	reply, err := c.cmd("QUIT")
	if err == nil {
		err = expect("QUIT", reply, C221Closing)
	}
	if cerr := c.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// SetDebugLog enables the debug logging for incoming and outgoing SMTP messages
func (c *Client) SetDebugLog(v bool) {
	c.debug = v
	if v {
		if c.logger == nil {
			c.logger = log.New(os.Stderr, log.LevelDebug)
		}
		return
	}
	c.logger = nil
}

// SetLogger overrides the default log.Stdlog for the debug logging with a logger that
// satisfies the log.Logger interface
func (c *Client) SetLogger(l log.Logger) {
	if l == nil {
		return
	}
	c.logger = l
}

// HasConnection checks if the client has an active connection.
func (c *Client) HasConnection() bool {
	return c.isConnected
}

// cmd formats and sends a command and returns the complete reply.
func (c *Client) cmd(format string, args ...interface{}) (*Reply, error) {
	line := fmt.Sprintf(format, args...)
	return c.exchange(line, line)
}

// exchange sends line and reads the reply. logged is the form of line that is written to the
// debug log and the transcript.
func (c *Client) exchange(line, logged string) (*Reply, error) {
	if c.authIsActive {
		logged = redactedAuthData
	}
	c.debugLog(log.DirClientToServer, "%s", logged)

	start := time.Now()
	if _, err := c.writer.WriteString(line + c.newline); err != nil {
		return nil, fmt.Errorf("smtp: failed to send command: %w", err)
	}
	if err := c.writer.Flush(); err != nil {
		return nil, fmt.Errorf("smtp: failed to send command: %w", err)
	}

	reply, err := c.readReply()
	if err != nil {
		return nil, err
	}
	if c.authIsActive && reply.Code == C334ContinueAuth {
		c.debugLog(log.DirServerToClient, "%d %s", reply.Code, redactedAuthData)
	} else {
		c.debugLog(log.DirServerToClient, "%s", reply.String())
	}
	c.observe(logged, reply, start)
	return reply, nil
}

// readReply reads lines until the last line of a reply. The code of the reply is taken from the
// first line.
func (c *Client) readReply() (*Reply, error) {
	reply := &Reply{}
	for {
		if c.responseTimeout > 0 {
			if err := c.conn.SetReadDeadline(time.Now().Add(c.responseTimeout)); err != nil {
				return nil, fmt.Errorf("smtp: failed to set read deadline: %w", err)
			}
		}
		line, err := c.reader.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("smtp: failed to read server reply: %w", err)
		}
		line = strings.TrimRight(line, "\r\n")
		if len(reply.Lines) == 0 {
			reply.Code = parseCode(line)
		}
		reply.Lines = append(reply.Lines, line)
		if !isContinuation(line) {
			return reply, nil
		}
	}
}

func (c *Client) observe(command string, reply *Reply, start time.Time) {
	if c.transcript == nil {
		return
	}
	c.transcript(Exchange{Command: command, Reply: reply, Start: start, End: time.Now()})
}

// debugLog checks if the debug flag is set and if so logs the provided message to
// the log.Logger interface
func (c *Client) debugLog(d log.Direction, f string, a ...interface{}) {
	if c.debug && c.logger != nil {
		c.logger.Debugf(log.Log{Direction: d, Format: f, Messages: a})
	}
}

// expect returns a *ReplyError if the code of reply is none of codes.
func expect(command string, reply *Reply, codes ...int) error {
	for _, code := range codes {
		if reply.Code == code {
			return nil
		}
	}
	return &ReplyError{Command: command, Reply: reply}
}

// dotStuff doubles a leading "." on every line of the payload, as required by RFC 5321,
// section 4.5.2.
func dotStuff(payload []byte) []byte {
	stuffed := make([]byte, 0, len(payload)+16)
	lineStart := true
	for _, b := range payload {
		if lineStart && b == '.' {
			stuffed = append(stuffed, '.')
		}
		stuffed = append(stuffed, b)
		lineStart = b == '\n'
	}
	return stuffed
}

// asciiAddress converts the domain part of an address to its IDNA ASCII form. The address is
// returned unchanged if it has no domain or the conversion fails.
func asciiAddress(address string) string {
	at := strings.LastIndexByte(address, '@')
	if at < 0 {
		return address
	}
	domain, err := idna.ToASCII(address[at+1:])
	if err != nil {
		return address
	}
	return address[:at+1] + domain
}

// validateLine checks to see if a line has CR or LF as per RFC 5321.
func validateLine(line string) error {
	if strings.ContainsAny(line, "\n\r") {
		return ErrInvalidLine
	}
	return nil
}
