// SPDX-FileCopyrightText: 2024 The go-mailpost Authors
//
// SPDX-License-Identifier: MIT

package log

import (
	"io"

	"github.com/rs/zerolog"
)

// Zerolog is a Logger backed by a zerolog.Logger.
type Zerolog struct {
	level Level
	log   zerolog.Logger
}

// NewZerolog returns a Zerolog writing JSON events to output.
func NewZerolog(output io.Writer, level Level) *Zerolog {
	return WrapZerolog(zerolog.New(output).With().Timestamp().Logger(), level)
}

// WrapZerolog returns a Zerolog that logs through an existing zerolog.Logger, e.g. one with a
// zerolog.ConsoleWriter.
func WrapZerolog(logger zerolog.Logger, level Level) *Zerolog {
	return &Zerolog{level: level, log: logger}
}

// Debugf logs the Log at debug level
func (l *Zerolog) Debugf(log Log) { l.output(LevelDebug, log) }

// Infof logs the Log at info level
func (l *Zerolog) Infof(log Log) { l.output(LevelInfo, log) }

// Warnf logs the Log at warn level
func (l *Zerolog) Warnf(log Log) { l.output(LevelWarn, log) }

// Errorf logs the Log at error level
func (l *Zerolog) Errorf(log Log) { l.output(LevelError, log) }

func (l *Zerolog) output(level Level, log Log) {
	if l.level < level {
		return
	}
	var event *zerolog.Event
	switch level {
	case LevelError:
		event = l.log.Error()
	case LevelWarn:
		event = l.log.Warn()
	case LevelInfo:
		event = l.log.Info()
	default:
		event = l.log.Debug()
	}
	event.Dict(DirString, zerolog.Dict().
		Str(DirFromString, log.directionFrom()).
		Str(DirToString, log.directionTo()),
	).Msg(log.message())
}
