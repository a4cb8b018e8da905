// SPDX-FileCopyrightText: 2024 The go-mailpost Authors
//
// SPDX-License-Identifier: MIT

// Command mailpost renders a message from command line flags and submits it to the SMTP server
// of the configuration file.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mailpost/go-mailpost"
	"github.com/mailpost/go-mailpost/collector"
	"github.com/mailpost/go-mailpost/collector/web"
	"github.com/mailpost/go-mailpost/internal/config"
)

// flags holds the message related command line flags
type flags struct {
	from, to, cc, bcc string
	subject           string
	text, html        string
	markdown          string
	attach, inline    string
	priority          int
}

func main() {
	log.Logger = log.With().Caller().Logger()
	os.Exit(run())
}

// run executes the command and returns its exit code, so that deferred cleanups run before exit
func run() int {
	var f flags
	configPath := flag.String("config", "", "path to a YAML configuration file")
	flag.StringVar(&f.from, "from", "", "sender address, defaults to message.from of the configuration")
	flag.StringVar(&f.to, "to", "", "comma separated list of To recipients")
	flag.StringVar(&f.cc, "cc", "", "comma separated list of Cc recipients")
	flag.StringVar(&f.bcc, "bcc", "", "comma separated list of Bcc recipients")
	flag.StringVar(&f.subject, "subject", "", "message subject")
	flag.StringVar(&f.text, "text", "", "text/plain body")
	flag.StringVar(&f.html, "html", "", "text/html body")
	flag.StringVar(&f.markdown, "markdown", "", "path to a markdown file rendered into the text and HTML bodies")
	flag.StringVar(&f.attach, "attach", "", "comma separated list of files to attach")
	flag.StringVar(&f.inline, "inline", "", `comma separated list of inline files as "cid=path"`)
	flag.IntVar(&f.priority, "priority", 0, "X-Priority from 1 (highest) to 5 (lowest)")
	transcript := flag.Bool("transcript", false, "print the SMTP transcript to stdout")
	inspect := flag.String("inspect", "", `serve the send records on this address, like ":8080"`)
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Error().Str("config-path", *configPath).Err(err).Msg("failed to load configuration")
		return 1
	}
	switch strings.ToLower(cfg.Logging.Level) {
	case "debug":
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	case "warn", "warning":
		log.Logger = log.Logger.Level(zerolog.WarnLevel)
	case "error":
		log.Logger = log.Logger.Level(zerolog.ErrorLevel)
	default:
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	}

	logger, err := cfg.Logger(os.Stderr)
	if err != nil {
		log.Error().Err(err).Msg("invalid logging configuration")
		return 1
	}
	store, err := cfg.Store(logger)
	if err != nil {
		log.Error().Str("collector", cfg.Collector.Type).Err(err).Msg("failed to open collector")
		return 1
	}
	if store != nil {
		defer func() {
			if err := store.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close collector")
			}
		}()
	}

	opts, err := cfg.ClientOptions()
	if err != nil {
		log.Error().Err(err).Msg("invalid smtp configuration")
		return 1
	}
	opts = append(opts, mailpost.WithLogger(logger), mailpost.WithLogs(*transcript))
	if store != nil {
		opts = append(opts, mailpost.WithCollector(store))
	}
	client, err := mailpost.NewClient(cfg.SMTP.Host, opts...)
	if err != nil {
		log.Error().Err(err).Msg("failed to create client")
		return 1
	}

	if f.from == "" {
		f.from = cfg.Message.From
	}
	msg, err := buildMessage(f)
	if err != nil {
		log.Error().Err(err).Msg("failed to build message")
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	log.Info().Str("server", client.Config().Address()).Strs("recipients", msg.EnvelopeRecipients()).
		Msg("sending message")
	sendErr := client.SendWithContext(ctx, msg)
	if *transcript {
		printTranscript(client.Logs())
	}
	if sendErr != nil {
		log.Error().Err(sendErr).Int("code", client.LastCode()).Msg("failed to send message")
	} else {
		log.Info().Str("response", client.LastResponse()).Msg("message sent")
	}

	if *inspect != "" && store != nil {
		serveInspect(ctx, *inspect, store)
	}
	if sendErr != nil {
		return 1
	}
	return 0
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFromFile(path)
}

// buildMessage creates the mailpost.Msg described by the command line flags
func buildMessage(f flags) (*mailpost.Msg, error) {
	msg := mailpost.NewMsg()
	if f.from != "" {
		if err := msg.SetFrom(f.from, ""); err != nil {
			return nil, fmt.Errorf("invalid sender: %w", err)
		}
	}
	recipients := []struct {
		list string
		add  func(string, string) error
	}{
		{f.to, msg.AddTo},
		{f.cc, msg.AddCc},
		{f.bcc, msg.AddBcc},
	}
	for _, rcpt := range recipients {
		for _, address := range splitList(rcpt.list) {
			if err := rcpt.add(address, ""); err != nil {
				return nil, fmt.Errorf("invalid recipient %q: %w", address, err)
			}
		}
	}
	msg.SetSubject(f.subject)
	if f.priority != 0 {
		if err := msg.SetPriority(mailpost.Priority(f.priority)); err != nil {
			return nil, err
		}
	}

	if f.markdown != "" {
		source, err := os.ReadFile(f.markdown)
		if err != nil {
			return nil, fmt.Errorf("failed to read markdown file: %w", err)
		}
		if err := msg.SetMarkdownBody(string(source)); err != nil {
			return nil, err
		}
	}
	if f.text != "" {
		msg.SetPlainBody(f.text)
	}
	if f.html != "" {
		msg.SetHTMLBody(f.html)
	}

	for _, path := range splitList(f.attach) {
		msg.AddAttachment(path)
	}
	for _, inline := range splitList(f.inline) {
		cid, path, ok := strings.Cut(inline, "=")
		if !ok || cid == "" || path == "" {
			return nil, fmt.Errorf("invalid inline attachment %q, expected cid=path", inline)
		}
		msg.SetInlineAttachment(path, cid)
	}
	msg.SetHeader(mailpost.HeaderXMailer.String(), "mailpost/"+mailpost.VERSION)
	msg.SetMessageID()
	return msg, nil
}

// splitList splits a comma separated flag value and drops empty elements
func splitList(value string) []string {
	var list []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}

func printTranscript(entries []mailpost.LogEntry) {
	for _, entry := range entries {
		if entry.Command != "" {
			fmt.Printf("C: %s\n", entry.Command)
		}
		for _, line := range entry.Response {
			fmt.Printf("S: %s\n", line)
		}
	}
}

// serveInspect serves the send records until the context is canceled
func serveInspect(ctx context.Context, addr string, store collector.Store) {
	app := web.NewApp(store)
	go func() {
		<-ctx.Done()
		if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
			log.Error().Err(err).Msg("failed to shut down inspection server")
		}
	}()
	log.Info().Str("addr", addr).Msg("serving send records, interrupt to exit")
	if err := app.Listen(addr); err != nil {
		log.Error().Err(err).Msg("inspection server failed")
	}
}
