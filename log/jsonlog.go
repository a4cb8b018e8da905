// SPDX-FileCopyrightText: 2024 The go-mailpost Authors
//
// SPDX-License-Identifier: MIT

package log

import (
	"context"
	"io"
	"log/slog"
)

// JSONlog is a Logger that writes structured JSON lines through log/slog. The Direction of each
// Log is written as a "direction" group with "from" and "to" keys.
type JSONlog struct {
	level Level
	log   *slog.Logger
}

// NewJSON returns a new JSONlog type that satisfies the Logger interface
func NewJSON(output io.Writer, level Level) *JSONlog {
	logOpts := slog.HandlerOptions{Level: slogLevel(level)}
	if level < LevelError || level > LevelDebug {
		logOpts.Level = slog.LevelDebug
	}
	return &JSONlog{
		level: level,
		log:   slog.New(slog.NewJSONHandler(output, &logOpts)),
	}
}

// Debugf logs the Log at debug level
func (l *JSONlog) Debugf(log Log) { l.output(LevelDebug, log) }

// Infof logs the Log at info level
func (l *JSONlog) Infof(log Log) { l.output(LevelInfo, log) }

// Warnf logs the Log at warn level
func (l *JSONlog) Warnf(log Log) { l.output(LevelWarn, log) }

// Errorf logs the Log at error level
func (l *JSONlog) Errorf(log Log) { l.output(LevelError, log) }

func (l *JSONlog) output(level Level, log Log) {
	if l.level < level {
		return
	}
	l.log.WithGroup(DirString).With(
		slog.String(DirFromString, log.directionFrom()),
		slog.String(DirToString, log.directionTo()),
	).Log(context.Background(), slogLevel(level), log.message())
}

func slogLevel(level Level) slog.Level {
	switch level {
	case LevelError:
		return slog.LevelError
	case LevelWarn:
		return slog.LevelWarn
	case LevelInfo:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}
