// SPDX-FileCopyrightText: 2024 The go-mailpost Authors
//
// SPDX-License-Identifier: MIT

package log

import (
	"io"
	"log"
)

// Stdlog is the default logger that satisfies the Logger interface. It writes one line per Log
// through the standard library logger, prefixed with the level and the Direction.
type Stdlog struct {
	level   Level
	loggers map[Level]*log.Logger
}

// CallDepth is the call depth value for the log.Logger's Output method
const CallDepth = 3

// New returns a new Stdlog type that satisfies the Logger interface
func New(output io.Writer, level Level) *Stdlog {
	flags := log.Lmsgprefix | log.LstdFlags
	return &Stdlog{
		level: level,
		loggers: map[Level]*log.Logger{
			LevelError: log.New(output, "ERROR: ", flags),
			LevelWarn:  log.New(output, " WARN: ", flags),
			LevelInfo:  log.New(output, " INFO: ", flags),
			LevelDebug: log.New(output, "DEBUG: ", flags),
		},
	}
}

// Debugf logs the Log at debug level
func (l *Stdlog) Debugf(log Log) { l.output(LevelDebug, log) }

// Infof logs the Log at info level
func (l *Stdlog) Infof(log Log) { l.output(LevelInfo, log) }

// Warnf logs the Log at warn level
func (l *Stdlog) Warnf(log Log) { l.output(LevelWarn, log) }

// Errorf logs the Log at error level
func (l *Stdlog) Errorf(log Log) { l.output(LevelError, log) }

func (l *Stdlog) output(level Level, logData Log) {
	if l.level < level {
		return
	}
	_ = l.loggers[level].Output(CallDepth, logData.directionPrefix()+" "+logData.message())
}
