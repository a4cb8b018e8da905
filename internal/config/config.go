// SPDX-FileCopyrightText: 2024 The go-mailpost Authors
//
// SPDX-License-Identifier: MIT

// Package config loads the configuration of the mailpost command from defaults, an optional
// YAML file and MAILPOST_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/docker/go-units"
	"gopkg.in/yaml.v3"

	"github.com/mailpost/go-mailpost"
	"github.com/mailpost/go-mailpost/collector"
	"github.com/mailpost/go-mailpost/log"
)

// EnvPrefix is the prefix of all environment variables read by Load and LoadFromFile.
const EnvPrefix = "MAILPOST_"

// List of collector types
const (
	CollectorNone   = "none"
	CollectorMemory = "memory"
	CollectorRedis  = "redis"
	CollectorBadger = "badger"
)

// ErrInvalidCollector is returned for an unknown collector type.
var ErrInvalidCollector = errors.New("invalid collector type")

// Config holds the complete command configuration.
type Config struct {
	SMTP      SMTPConfig      `yaml:"smtp"`
	Message   MessageConfig   `yaml:"message"`
	Collector CollectorConfig `yaml:"collector"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// SMTPConfig holds the transport configuration of the mailpost.Client.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      string `yaml:"tls"`
	SSL      bool   `yaml:"ssl"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Auth     string `yaml:"auth"`

	// LineTerminator is either "crlf" or "lf"
	LineTerminator    string        `yaml:"line_terminator"`
	ConnectionTimeout time.Duration `yaml:"connection_timeout"`
	ResponseTimeout   time.Duration `yaml:"response_timeout"`
	HELO              string        `yaml:"helo"`
	KeepAlive         bool          `yaml:"keep_alive"`

	// MaxMessageSize is a human readable size like "25MB". Empty means unlimited.
	MaxMessageSize string `yaml:"max_message_size"`
}

// MessageConfig holds defaults for composed messages.
type MessageConfig struct {
	From    string `yaml:"from"`
	Charset string `yaml:"charset"`
}

// CollectorConfig selects the store for send records.
type CollectorConfig struct {
	Type       string        `yaml:"type"`
	RedisURL   string        `yaml:"redis_url"`
	BadgerPath string        `yaml:"badger_path"`
	Prefix     string        `yaml:"prefix"`
	TTL        time.Duration `yaml:"ttl"`
	Limit      int           `yaml:"limit"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`

	// Format is one of "text", "json" or "zerolog"
	Format string `yaml:"format"`

	// Debug enables the SMTP protocol debug log
	Debug bool `yaml:"debug"`
}

// Load loads the configuration from defaults and environment variables.
func Load() (*Config, error) {
	cfg := Default()
	if err := cfg.applyEnvVars(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads the configuration from a YAML file as the base layer, then overrides it
// with environment variables. Returns an error if the file does not exist.
func LoadFromFile(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()
	return LoadFromReader(file)
}

// LoadFromReader is LoadFromFile for an io.Reader.
func LoadFromReader(reader io.Reader) (*Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(reader)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.applyEnvVars(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration with all defaults applied.
func Default() *Config {
	return &Config{
		SMTP: SMTPConfig{
			Host:              mailpost.DefaultHost,
			Port:              mailpost.DefaultPort,
			TLS:               "mandatory",
			Auth:              string(mailpost.SMTPAuthLogin),
			LineTerminator:    "crlf",
			ConnectionTimeout: mailpost.DefaultConnectionTimeout,
			ResponseTimeout:   mailpost.DefaultResponseTimeout,
		},
		Message: MessageConfig{
			Charset: mailpost.CharsetUTF8,
		},
		Collector: CollectorConfig{
			Type:   CollectorMemory,
			Prefix: collector.DefaultPrefix,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// applyEnvVars overrides the configuration with environment variable values. Only non-empty
// environment variables override existing values.
func (c *Config) applyEnvVars() error {
	strs := map[string]*string{
		"SMTP_HOST":             &c.SMTP.Host,
		"SMTP_TLS":              &c.SMTP.TLS,
		"SMTP_USERNAME":         &c.SMTP.Username,
		"SMTP_PASSWORD":         &c.SMTP.Password,
		"SMTP_AUTH":             &c.SMTP.Auth,
		"SMTP_LINE_TERMINATOR":  &c.SMTP.LineTerminator,
		"SMTP_HELO":             &c.SMTP.HELO,
		"SMTP_MAX_MESSAGE_SIZE": &c.SMTP.MaxMessageSize,
		"MESSAGE_FROM":          &c.Message.From,
		"MESSAGE_CHARSET":       &c.Message.Charset,
		"COLLECTOR_TYPE":        &c.Collector.Type,
		"COLLECTOR_REDIS_URL":   &c.Collector.RedisURL,
		"COLLECTOR_BADGER_PATH": &c.Collector.BadgerPath,
		"COLLECTOR_PREFIX":      &c.Collector.Prefix,
		"LOG_LEVEL":             &c.Logging.Level,
		"LOG_FORMAT":            &c.Logging.Format,
	}
	for name, field := range strs {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			*field = v
		}
	}

	ints := map[string]*int{
		"SMTP_PORT":       &c.SMTP.Port,
		"COLLECTOR_LIMIT": &c.Collector.Limit,
	}
	for name, field := range ints {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			value, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s%s: %w", EnvPrefix, name, err)
			}
			*field = value
		}
	}

	bools := map[string]*bool{
		"SMTP_SSL":        &c.SMTP.SSL,
		"SMTP_KEEP_ALIVE": &c.SMTP.KeepAlive,
		"LOG_DEBUG":       &c.Logging.Debug,
	}
	for name, field := range bools {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			value, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s%s: %w", EnvPrefix, name, err)
			}
			*field = value
		}
	}

	durations := map[string]*time.Duration{
		"SMTP_CONNECTION_TIMEOUT": &c.SMTP.ConnectionTimeout,
		"SMTP_RESPONSE_TIMEOUT":   &c.SMTP.ResponseTimeout,
		"COLLECTOR_TTL":           &c.Collector.TTL,
	}
	for name, field := range durations {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			value, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s%s: %w", EnvPrefix, name, err)
			}
			*field = value
		}
	}
	return nil
}

// MaxMessageBytes returns the parsed maximum message size, 0 if none is configured.
func (c *Config) MaxMessageBytes() (int64, error) {
	if c.SMTP.MaxMessageSize == "" {
		return 0, nil
	}
	size, err := units.RAMInBytes(c.SMTP.MaxMessageSize)
	if err != nil {
		return 0, fmt.Errorf("invalid max_message_size %q: %w", c.SMTP.MaxMessageSize, err)
	}
	return size, nil
}

// ClientOptions returns the mailpost.Client options for the SMTP configuration.
func (c *Config) ClientOptions() ([]mailpost.Option, error) {
	policy, err := mailpost.ParseTLSPolicy(strings.ToLower(c.SMTP.TLS))
	if err != nil {
		return nil, err
	}
	authType, err := mailpost.ParseSMTPAuthType(c.SMTP.Auth)
	if err != nil {
		return nil, err
	}
	var newline string
	switch strings.ToLower(c.SMTP.LineTerminator) {
	case "", "crlf":
		newline = mailpost.CRLF
	case "lf":
		newline = mailpost.LF
	default:
		return nil, fmt.Errorf("%w: %q", mailpost.ErrInvalidLineTerminator, c.SMTP.LineTerminator)
	}
	maxSize, err := c.MaxMessageBytes()
	if err != nil {
		return nil, err
	}

	opts := []mailpost.Option{
		mailpost.WithPort(c.SMTP.Port),
		mailpost.WithTLSPolicy(policy),
		mailpost.WithSMTPAuth(authType),
		mailpost.WithLineTerminator(newline),
		mailpost.WithConnectionTimeout(c.SMTP.ConnectionTimeout),
		mailpost.WithResponseTimeout(c.SMTP.ResponseTimeout),
		mailpost.WithKeepAlive(c.SMTP.KeepAlive),
		mailpost.WithMaxMessageSize(maxSize),
		mailpost.WithCredentials(c.SMTP.Username, c.SMTP.Password),
	}
	if c.SMTP.SSL {
		opts = append(opts, mailpost.WithSSL())
	}
	if c.SMTP.HELO != "" {
		opts = append(opts, mailpost.WithHELO(c.SMTP.HELO))
	}
	if c.Message.Charset != "" {
		opts = append(opts, mailpost.WithCharset(c.Message.Charset))
	}
	if c.Logging.Debug {
		opts = append(opts, mailpost.WithDebugLog())
	}
	return opts, nil
}

// Logger returns the log.Logger for the logging configuration, writing to output.
func (c *Config) Logger(output io.Writer) (log.Logger, error) {
	level, err := log.ParseLevel(c.Logging.Level)
	if err != nil {
		return nil, err
	}
	if c.Logging.Debug {
		level = log.LevelDebug
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text":
		return log.New(output, level), nil
	case "json":
		return log.NewJSON(output, level), nil
	case "zerolog":
		return log.NewZerolog(output, level), nil
	default:
		return nil, fmt.Errorf("unknown log format: %q", c.Logging.Format)
	}
}

// Store opens the collector.Store for the collector configuration. It returns nil for the
// type "none".
func (c *Config) Store(logger log.Logger) (collector.Store, error) {
	opts := []collector.Option{
		collector.WithPrefix(c.Collector.Prefix),
		collector.WithTTL(c.Collector.TTL),
		collector.WithLimit(c.Collector.Limit),
		collector.WithLogger(logger),
	}
	switch strings.ToLower(c.Collector.Type) {
	case CollectorNone:
		return nil, nil
	case "", CollectorMemory:
		return collector.NewMemory(opts...), nil
	case CollectorRedis:
		store, err := collector.NewRedisURL(c.Collector.RedisURL, opts...)
		if err != nil {
			return nil, err
		}
		return store, nil
	case CollectorBadger:
		store, err := collector.OpenBadger(c.Collector.BadgerPath, opts...)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidCollector, c.Collector.Type)
	}
}
