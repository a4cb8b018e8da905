// SPDX-FileCopyrightText: 2024 The go-mailpost Authors
//
// SPDX-License-Identifier: MIT

package mailpost

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/mailpost/go-mailpost/log"
	"github.com/mailpost/go-mailpost/smtp"
)

// State is the position of a Client in the SMTP session.
type State int

const (
	// StateIdle means no connection has been opened yet.
	StateIdle State = iota

	// StateConnected means the socket is open and the 220 greeting was received.
	StateConnected

	// StateGreeted means EHLO (or HELO) was accepted.
	StateGreeted

	// StateTLSNegotiated means the connection is encrypted, by STARTTLS or implicit TLS.
	StateTLSNegotiated

	// StateAuthenticated means SMTP AUTH succeeded.
	StateAuthenticated

	// StateEnvelopeSet means sender and all recipients were accepted.
	StateEnvelopeSet

	// StateDataSent means the server accepted the message.
	StateDataSent

	// StateClosed means the session ended with QUIT or Close.
	StateClosed

	// StateFailed means the last send failed and the connection was released.
	StateFailed
)

// Client is the SMTP client that sends Msg to a single server.
//
// A Client holds at most one connection. Without keep-alive, every send opens a connection
// and closes it with QUIT; with keep-alive, the connection stays open and the next send starts
// with a new EHLO on it. Sends on the same Client are serialized.
type Client struct {
	// config is validated by NewClientWithConfig and never modified afterward
	config Config

	// logger is used for the protocol debug log if config.DebugLog is set
	logger log.Logger

	// logs holds the recorded round-trips if config.EnableLogs is set
	logs []LogEntry

	// lastReply is the most recent server reply
	lastReply *smtp.Reply

	// mutex serializes sends and guards the session fields
	mutex sync.Mutex

	// readyState is the state the session reached after the handshake
	readyState State

	// smtpClient is the smtp.Client of the open connection, nil if there is none
	smtpClient *smtp.Client

	// state is the current session State
	state State
}

// LogEntry is a recorded command and the reply lines of the server.
type LogEntry struct {
	// Command is empty for the server greeting and for connection errors
	Command  string    `json:"command"`
	Response []string  `json:"response"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

// NewClient returns a new Client for the given SMTP server host, configured from DefaultConfig
// and the given options. An empty host keeps DefaultHost.
func NewClient(host string, opts ...Option) (*Client, error) {
	config := DefaultConfig()
	if host != "" {
		config.Host = host
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&config); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	return NewClientWithConfig(config)
}

// NewClientWithConfig returns a new Client for a complete Config.
func NewClientWithConfig(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Charset == "" {
		config.Charset = CharsetUTF8
	}
	if config.AuthType == "" {
		config.AuthType = SMTPAuthLogin
	}

	client := &Client{config: config, logger: config.Logger}
	if client.config.DebugLog && client.logger == nil {
		client.logger = log.New(os.Stderr, log.LevelDebug)
	}
	return client, nil
}

// Config returns a copy of the Config of the Client.
func (c *Client) Config() Config {
	return c.config
}

// State returns the current session State.
func (c *Client) State() State {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.state
}

// Send sends the Msg. It is a shortcut for SendWithContext with context.Background.
func (c *Client) Send(m *Msg) error {
	return c.SendWithContext(context.Background(), m)
}

// SendWithContext renders the Msg and delivers it in a single SMTP transaction.
//
// The Msg is rendered before any network I/O, so a missing attachment fails without touching
// the connection. The deadline of ctx, bounded by the connection timeout, applies to the
// connection setup. Any failure is returned as *SendError and releases the connection. If a
// Collector is configured, it receives a SendRecord whether the send succeeded or not.
func (c *Client) SendWithContext(ctx context.Context, m *Msg) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	record := SendRecord{ID: ulid.Make().String(), Start: time.Now()}
	c.lastReply = nil
	err := c.send(ctx, m, &record)
	c.collect(m, &record, err)
	return err
}

func (c *Client) send(ctx context.Context, m *Msg, record *SendRecord) error {
	if m == nil {
		return newSendError(ErrRender, errors.New("message is nil"))
	}

	payload, err := m.Render(RenderOptions{
		Charset:        c.config.Charset,
		LineTerminator: c.config.LineTerminator,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrAttachmentNotFound):
			return newSendError(ErrAttachment, err)
		case errors.Is(err, ErrInlineAttachmentNotFound):
			return newSendError(ErrInlineAttachment, err)
		default:
			return newSendError(ErrRender, err)
		}
	}
	record.Length = len(payload)

	from := m.From().Address
	if from == "" {
		from = c.config.Username
	}
	record.From = from
	if from == "" {
		return newSendError(ErrEnvelope, ErrNoFromAddress)
	}
	rcpts := m.EnvelopeRecipients()
	record.Recipients = rcpts
	if len(rcpts) == 0 {
		return newSendError(ErrEnvelope, ErrNoRcptAddresses)
	}
	if c.config.MaxMessageSize > 0 && int64(len(payload)) > c.config.MaxMessageSize {
		return newSendError(ErrMessageSize, fmt.Errorf("%w: %d bytes, limit is %d bytes",
			ErrMessageTooLarge, len(payload), c.config.MaxMessageSize))
	}

	if err = c.connect(ctx); err != nil {
		return err
	}

	if err = c.smtpClient.Mail(from); err != nil {
		return c.fail(mailReason(err), err)
	}
	for _, rcpt := range rcpts {
		if err = c.smtpClient.Rcpt(rcpt); err != nil {
			return c.fail(replyReason(err, ErrProtocol), fmt.Errorf("recipient %s: %w", rcpt, err))
		}
	}
	c.state = StateEnvelopeSet

	if _, err = c.smtpClient.Data(payload); err != nil {
		reason := replyReason(err, ErrProtocol)
		var replyErr *smtp.ReplyError
		if errors.As(err, &replyErr) && replyErr.Command == smtp.EndOfData {
			reason = ErrDelivery
		}
		return c.fail(reason, err)
	}
	c.state = StateDataSent

	if !c.config.KeepAlive {
		c.quit()
	}
	return nil
}

// connect makes sure an authenticated session is ready for a new transaction. An open
// keep-alive connection is reused if it accepts a new EHLO; otherwise a new connection is
// established.
func (c *Client) connect(ctx context.Context) error {
	if c.smtpClient != nil && c.smtpClient.HasConnection() {
		if c.config.KeepAlive {
			if err := c.smtpClient.Hello(c.config.ClientHostname); err == nil {
				c.state = c.readyState
				return nil
			}
		}
		c.release(false)
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.ConnectionTimeout)
	defer cancel()

	conn, err := c.dial(ctx)
	if err != nil {
		now := time.Now()
		c.addLog(LogEntry{
			Response: []string{fmt.Sprintf("Socket connection error: %s", err)},
			Start:    now,
			End:      now,
		})
		if c.logger != nil {
			c.logger.Errorf(log.Log{Direction: log.DirClientToServer,
				Format: "failed to connect to %s: %s", Messages: []interface{}{c.config.Address(), err}})
		}
		c.state = StateFailed
		return newSendError(ErrConnection, err)
	}

	opts := []smtp.Option{
		smtp.WithLineTerminator(c.config.LineTerminator),
		smtp.WithResponseTimeout(c.config.ResponseTimeout),
		smtp.WithTranscript(c.observe),
	}
	if c.config.DebugLog {
		opts = append(opts, smtp.WithLogger(c.logger))
	}
	smtpClient, _, err := smtp.NewClient(conn, c.config.Host, opts...)
	if err != nil {
		c.state = StateFailed
		return newSendError(replyReason(err, ErrProtocol), err)
	}
	c.smtpClient = smtpClient
	c.state = StateConnected

	if err = c.smtpClient.Hello(c.config.ClientHostname); err != nil {
		return c.fail(replyReason(err, ErrProtocol), err)
	}
	c.state = StateGreeted

	if err = c.tls(); err != nil {
		return c.fail(replyReason(err, ErrProtocol), err)
	}
	if err = c.auth(); err != nil {
		return c.fail(replyReason(err, ErrAuthentication), err)
	}
	c.readyState = c.state
	return nil
}

// dial opens the connection to the server, with implicit TLS if configured.
func (c *Client) dial(ctx context.Context) (net.Conn, error) {
	if c.config.DialContextFunc != nil {
		return c.config.DialContextFunc(ctx, "tcp", c.config.Address())
	}
	if c.config.SSL {
		dialer := tls.Dialer{NetDialer: &net.Dialer{}, Config: c.config.tlsConfig()}
		return dialer.DialContext(ctx, "tcp", c.config.Address())
	}
	dialer := net.Dialer{}
	return dialer.DialContext(ctx, "tcp", c.config.Address())
}

// tls tries to make sure that the STARTTLS requirements are satisfied
func (c *Client) tls() error {
	if c.config.SSL {
		c.state = StateTLSNegotiated
		return nil
	}
	switch c.config.TLSPolicy {
	case NoTLS:
		return nil
	case TLSOpportunistic:
		if ok, _ := c.smtpClient.Extension("STARTTLS"); !ok {
			return nil
		}
	}
	if err := c.smtpClient.StartTLS(c.config.tlsConfig()); err != nil {
		return err
	}
	c.state = StateTLSNegotiated
	return nil
}

// auth performs SMTP AUTH if credentials are configured.
func (c *Client) auth() error {
	if !c.config.hasCredentials() {
		return nil
	}
	auth, err := c.config.AuthType.auth(c.config.Username, c.config.Password)
	if err != nil {
		return err
	}
	if err = c.smtpClient.Auth(auth); err != nil {
		return err
	}
	c.state = StateAuthenticated
	return nil
}

// fail releases the connection after a failed command and returns the SendError.
func (c *Client) fail(reason SendErrReason, err error) error {
	c.release(reason != ErrConnection)
	c.state = StateFailed
	return newSendError(reason, err)
}

// release closes the connection. If quit is true, QUIT is sent first; its outcome is ignored.
func (c *Client) release(quit bool) {
	if c.smtpClient == nil {
		return
	}
	if quit && c.smtpClient.HasConnection() {
		_ = c.smtpClient.Quit()
	} else {
		_ = c.smtpClient.Close()
	}
	c.smtpClient = nil
}

// quit ends the session with QUIT.
func (c *Client) quit() {
	c.release(true)
	c.state = StateClosed
}

// CheckConnection sends NOOP on an open connection.
func (c *Client) CheckConnection() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.smtpClient == nil || !c.smtpClient.HasConnection() {
		return smtp.ErrNoConnection
	}
	return c.smtpClient.Noop()
}

// Close ends an open session with QUIT and closes the connection.
func (c *Client) Close() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.smtpClient == nil {
		return nil
	}
	var err error
	if c.smtpClient.HasConnection() {
		err = c.smtpClient.Quit()
	}
	c.smtpClient = nil
	c.state = StateClosed
	return err
}

// LastResponse returns the raw lines of the most recent server reply of the last send.
func (c *Client) LastResponse() string {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.lastReply.String()
}

// LastCode returns the status code of the most recent server reply of the last send, or 0.
func (c *Client) LastCode() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.lastReply == nil {
		return 0
	}
	return c.lastReply.Code
}

// Logs returns a copy of the recorded round-trips. Logs are only recorded with WithLogs.
func (c *Client) Logs() []LogEntry {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	logs := make([]LogEntry, len(c.logs))
	copy(logs, c.logs)
	return logs
}

// ResetLogs discards the recorded round-trips.
func (c *Client) ResetLogs() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.logs = nil
}

// observe receives every round-trip of the smtp.Client.
func (c *Client) observe(exchange smtp.Exchange) {
	c.lastReply = exchange.Reply
	var lines []string
	if exchange.Reply != nil {
		lines = append(lines, exchange.Reply.Lines...)
	}
	c.addLog(LogEntry{
		Command:  exchange.Command,
		Response: lines,
		Start:    exchange.Start,
		End:      exchange.End,
	})
}

func (c *Client) addLog(entry LogEntry) {
	if !c.config.EnableLogs {
		return
	}
	c.logs = append(c.logs, entry)
}

// collect completes the SendRecord and hands it to the Collector.
func (c *Client) collect(m *Msg, record *SendRecord, err error) {
	if c.config.Collector == nil {
		return
	}
	record.End = time.Now()
	record.Success = err == nil
	if err != nil {
		record.Error = err.Error()
	}
	if c.lastReply != nil {
		record.Code = c.lastReply.Code
		record.Response = c.lastReply.String()
	}
	if m != nil {
		record.Headers = m.Headers()
		record.PlainBody = m.PlainBody()
		record.HTMLBody = m.HTMLBody()
		record.Attachments = m.Attachments()
		record.InlineAttachments = m.InlineAttachments()
	}
	c.config.Collector.Collect(*record)
}

// replyReason returns reason for errors caused by a server reply and ErrConnection for all
// other errors, which are I/O failures.
func replyReason(err error, reason SendErrReason) SendErrReason {
	var replyErr *smtp.ReplyError
	if errors.As(err, &replyErr) || errors.Is(err, smtp.ErrAuthFailed) ||
		errors.Is(err, smtp.ErrInvalidLine) {
		return reason
	}
	return ErrConnection
}

// mailReason classifies a rejected MAIL command. A 530 reply means the server requires
// authentication that was not performed.
func mailReason(err error) SendErrReason {
	var replyErr *smtp.ReplyError
	if errors.As(err, &replyErr) && replyErr.Reply != nil &&
		replyErr.Reply.Code == smtp.C530SecurityRequired {
		return ErrAuthentication
	}
	return replyReason(err, ErrProtocol)
}

// String satisfies the fmt.Stringer interface for the State type.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateConnected:
		return "Connected"
	case StateGreeted:
		return "Greeted"
	case StateTLSNegotiated:
		return "TLSNegotiated"
	case StateAuthenticated:
		return "Authenticated"
	case StateEnvelopeSet:
		return "EnvelopeSet"
	case StateDataSent:
		return "DataSent"
	case StateClosed:
		return "Closed"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}
