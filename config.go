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
	"strings"
	"time"

	"github.com/mailpost/go-mailpost/log"
)

// Defaults
const (
	// DefaultHost is the SMTP server host used when none is given.
	DefaultHost = "localhost"

	// DefaultPort is the submission port used when none is given.
	DefaultPort = 587

	// DefaultPortSSL is the port for implicit TLS (SMTPS).
	DefaultPortSSL = 465

	// DefaultConnectionTimeout bounds the TCP (and implicit TLS) connection setup.
	DefaultConnectionTimeout = time.Second * 10

	// DefaultResponseTimeout bounds every single read of a server reply.
	DefaultResponseTimeout = time.Second * 5

	// DefaultTLSPolicy is the TLSPolicy used when TLS is enabled.
	DefaultTLSPolicy = TLSMandatory

	// DefaultTLSMinVersion is the minimum TLS version required for the connection
	DefaultTLSMinVersion = tls.VersionTLS12
)

var (
	// ErrInvalidPort should be used if a port is specified that is not valid
	ErrInvalidPort = errors.New("invalid port number")

	// ErrInvalidTimeout should be used if a timeout is set that is zero or negative
	ErrInvalidTimeout = errors.New("timeout cannot be zero or negative")

	// ErrInvalidHELO should be used if an empty HELO sting is provided
	ErrInvalidHELO = errors.New("invalid HELO/EHLO value - must not be empty")

	// ErrInvalidTLSConfig should be used if an empty tls.Config is provided
	ErrInvalidTLSConfig = errors.New("invalid TLS config")

	// ErrInvalidTLSPolicy is returned for unknown TLS policy names
	ErrInvalidTLSPolicy = errors.New("invalid TLS policy")

	// ErrInvalidAuthType is returned for SMTP AUTH mechanisms other than LOGIN and PLAIN
	ErrInvalidAuthType = errors.New("unsupported SMTP AUTH type")

	// ErrInvalidCharset is returned for charset names that cannot be encoded to
	ErrInvalidCharset = errors.New("invalid or unsupported charset")

	// ErrInvalidMaxMessageSize is returned for a negative maximum message size
	ErrInvalidMaxMessageSize = errors.New("maximum message size cannot be negative")

	// ErrMessageTooLarge is returned if the rendered Msg exceeds the configured maximum size
	ErrMessageTooLarge = errors.New("message exceeds the maximum message size")

	// ErrNoHostname should be used if a Client has no hostname set
	ErrNoHostname = errors.New("hostname for client cannot be empty")
)

// DialContextFunc is a type to define custom DialContext function.
type DialContextFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Config holds the transport settings of a Client. It is built from DefaultConfig and the
// Option functions, validated once and never modified by the Client afterward.
type Config struct {
	// Host is the SMTP server host name or address
	Host string

	// Port is the SMTP server port
	Port int

	// TLSPolicy selects whether STARTTLS is required, attempted or skipped
	TLSPolicy TLSPolicy

	// SSL connects with implicit TLS instead of STARTTLS
	SSL bool

	// TLSConfig is used for STARTTLS and implicit TLS. ServerName defaults to Host.
	TLSConfig *tls.Config

	// Username and Password are the SMTP AUTH credentials. Authentication is skipped if both
	// are empty.
	Username string
	Password string

	// AuthType is the SMTP AUTH mechanism
	AuthType SMTPAuthType

	// Charset is used for the text parts of rendered messages
	Charset string

	// LineTerminator ends every line sent to the server, CRLF or LF
	LineTerminator string

	// ConnectionTimeout bounds the connection setup
	ConnectionTimeout time.Duration

	// ResponseTimeout bounds every read of a server reply
	ResponseTimeout time.Duration

	// ClientHostname is sent with EHLO/HELO
	ClientHostname string

	// KeepAlive keeps the connection open after a send and reuses it for the next one
	KeepAlive bool

	// EnableLogs records every command/response round-trip, see Client.Logs
	EnableLogs bool

	// MaxMessageSize is the maximum size in bytes of a rendered message. Zero means unlimited.
	MaxMessageSize int64

	// Logger receives the protocol debug log if DebugLog is set
	Logger   log.Logger
	DebugLog bool

	// Collector receives a SendRecord after every send attempt
	Collector Collector

	// DialContextFunc replaces the default net.Dialer and tls.Dialer
	DialContextFunc DialContextFunc
}

// Option returns a function that can be used for grouping Config options
type Option func(*Config) error

// DefaultConfig returns the Config used by NewClient before any Option is applied.
func DefaultConfig() Config {
	return Config{
		Host:              DefaultHost,
		Port:              DefaultPort,
		TLSPolicy:         DefaultTLSPolicy,
		AuthType:          SMTPAuthLogin,
		Charset:           CharsetUTF8,
		LineTerminator:    CRLF,
		ConnectionTimeout: DefaultConnectionTimeout,
		ResponseTimeout:   DefaultResponseTimeout,
		ClientHostname:    defaultHostname(),
	}
}

// defaultHostname returns the local host name or "localhost" if it cannot be determined.
func defaultHostname() string {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		return "localhost"
	}
	return hostname
}

// WithHost overrides the SMTP server host
func WithHost(host string) Option {
	return func(c *Config) error {
		if host == "" {
			return ErrNoHostname
		}
		c.Host = host
		return nil
	}
}

// WithPort overrides the default connection port
func WithPort(port int) Option {
	return func(c *Config) error {
		if port < 1 || port > 65535 {
			return ErrInvalidPort
		}
		c.Port = port
		return nil
	}
}

// WithTLS enables STARTTLS with TLSMandatory or disables it with NoTLS
func WithTLS(enabled bool) Option {
	return func(c *Config) error {
		if enabled {
			c.TLSPolicy = TLSMandatory
			return nil
		}
		c.TLSPolicy = NoTLS
		return nil
	}
}

// WithTLSPolicy overrides the default TLSPolicy
func WithTLSPolicy(policy TLSPolicy) Option {
	return func(c *Config) error {
		switch policy {
		case TLSMandatory, TLSOpportunistic, NoTLS:
			c.TLSPolicy = policy
			return nil
		default:
			return fmt.Errorf("%w: %d", ErrInvalidTLSPolicy, policy)
		}
	}
}

// WithTLSConfig overrides the default *tls.Config
func WithTLSConfig(tlsconfig *tls.Config) Option {
	return func(c *Config) error {
		if tlsconfig == nil {
			return ErrInvalidTLSConfig
		}
		c.TLSConfig = tlsconfig
		return nil
	}
}

// WithSSL connects with implicit TLS. The port is switched to DefaultPortSSL if it has not been
// changed from DefaultPort.
func WithSSL() Option {
	return func(c *Config) error {
		c.SSL = true
		if c.Port == DefaultPort {
			c.Port = DefaultPortSSL
		}
		return nil
	}
}

// WithUsername sets the username for SMTP AUTH
func WithUsername(username string) Option {
	return func(c *Config) error {
		c.Username = username
		return nil
	}
}

// WithPassword sets the password for SMTP AUTH
func WithPassword(password string) Option {
	return func(c *Config) error {
		c.Password = password
		return nil
	}
}

// WithCredentials sets username and password for SMTP AUTH
func WithCredentials(username, password string) Option {
	return func(c *Config) error {
		c.Username = username
		c.Password = password
		return nil
	}
}

// WithSMTPAuth overrides the SMTP AUTH mechanism
func WithSMTPAuth(authtype SMTPAuthType) Option {
	return func(c *Config) error {
		if _, err := authtype.auth("", ""); err != nil {
			return err
		}
		c.AuthType = authtype
		return nil
	}
}

// WithCharset sets the charset of the text parts of sent messages
func WithCharset(charset string) Option {
	return func(c *Config) error {
		if _, err := charsetEncoder(charset); err != nil {
			return err
		}
		c.Charset = charset
		return nil
	}
}

// WithLineTerminator sets the line terminator, which must be CRLF or LF
func WithLineTerminator(newline string) Option {
	return func(c *Config) error {
		if newline != CRLF && newline != LF {
			return fmt.Errorf("%w: %q", ErrInvalidLineTerminator, newline)
		}
		c.LineTerminator = newline
		return nil
	}
}

// WithConnectionTimeout overrides the default connection timeout
func WithConnectionTimeout(timeout time.Duration) Option {
	return func(c *Config) error {
		if timeout <= 0 {
			return ErrInvalidTimeout
		}
		c.ConnectionTimeout = timeout
		return nil
	}
}

// WithResponseTimeout overrides the default response timeout
func WithResponseTimeout(timeout time.Duration) Option {
	return func(c *Config) error {
		if timeout <= 0 {
			return ErrInvalidTimeout
		}
		c.ResponseTimeout = timeout
		return nil
	}
}

// WithHELO tells the client to use the provided string as HELO/EHLO greeting host
func WithHELO(helo string) Option {
	return func(c *Config) error {
		if helo == "" || strings.ContainsAny(helo, "\r\n") {
			return ErrInvalidHELO
		}
		c.ClientHostname = helo
		return nil
	}
}

// WithKeepAlive keeps the connection open between sends
func WithKeepAlive(keepAlive bool) Option {
	return func(c *Config) error {
		c.KeepAlive = keepAlive
		return nil
	}
}

// WithLogs enables the recording of command/response round-trips
func WithLogs(enabled bool) Option {
	return func(c *Config) error {
		c.EnableLogs = enabled
		return nil
	}
}

// WithMaxMessageSize limits the size of rendered messages in bytes. Zero disables the limit.
func WithMaxMessageSize(size int64) Option {
	return func(c *Config) error {
		if size < 0 {
			return ErrInvalidMaxMessageSize
		}
		c.MaxMessageSize = size
		return nil
	}
}

// WithLogger overrides the default log.Logger that is used for debug logging
func WithLogger(logger log.Logger) Option {
	return func(c *Config) error {
		c.Logger = logger
		return nil
	}
}

// WithDebugLog tells the Client to log incoming and outgoing messages of the SMTP client
// to the Logger, or to StdErr if no Logger is set
func WithDebugLog() Option {
	return func(c *Config) error {
		c.DebugLog = true
		return nil
	}
}

// WithCollector registers a Collector that receives a SendRecord for every send attempt
func WithCollector(collector Collector) Option {
	return func(c *Config) error {
		c.Collector = collector
		return nil
	}
}

// WithDialContextFunc overrides the function used to connect to the server
func WithDialContextFunc(dialCtxFunc DialContextFunc) Option {
	return func(c *Config) error {
		c.DialContextFunc = dialCtxFunc
		return nil
	}
}

// Validate checks the Config for values the Client cannot work with.
func (c Config) Validate() error {
	if c.Host == "" {
		return ErrNoHostname
	}
	if c.Port < 1 || c.Port > 65535 {
		return ErrInvalidPort
	}
	if c.ConnectionTimeout <= 0 || c.ResponseTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.ClientHostname == "" || strings.ContainsAny(c.ClientHostname, "\r\n") {
		return ErrInvalidHELO
	}
	if c.LineTerminator != CRLF && c.LineTerminator != LF {
		return fmt.Errorf("%w: %q", ErrInvalidLineTerminator, c.LineTerminator)
	}
	if _, err := charsetEncoder(c.Charset); err != nil {
		return err
	}
	if _, err := c.AuthType.auth("", ""); err != nil {
		return err
	}
	if c.MaxMessageSize < 0 {
		return ErrInvalidMaxMessageSize
	}
	return nil
}

// Address returns the "host:port" address of the server.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, fmt.Sprintf("%d", c.Port))
}

// tlsConfig returns the *tls.Config used for the connection.
func (c Config) tlsConfig() *tls.Config {
	if c.TLSConfig != nil {
		config := c.TLSConfig.Clone()
		if config.ServerName == "" {
			config.ServerName = c.Host
		}
		return config
	}
	return &tls.Config{ServerName: c.Host, MinVersion: DefaultTLSMinVersion}
}

// hasCredentials reports whether SMTP AUTH is performed.
func (c Config) hasCredentials() bool {
	return c.Username != "" || c.Password != ""
}

// String returns a readable form of the Config. The password is masked.
func (c Config) String() string {
	password := ""
	if c.Password != "" {
		password = "********"
	}
	return fmt.Sprintf("host=%s port=%d tls=%s ssl=%t username=%q password=%q auth=%s "+
		"charset=%s crlf=%q connection_timeout=%s response_timeout=%s hostname=%s keep_alive=%t "+
		"logs=%t max_message_size=%d",
		c.Host, c.Port, c.TLSPolicy, c.SSL, c.Username, password, c.AuthType, c.Charset,
		c.LineTerminator, c.ConnectionTimeout, c.ResponseTimeout, c.ClientHostname, c.KeepAlive,
		c.EnableLogs, c.MaxMessageSize)
}
