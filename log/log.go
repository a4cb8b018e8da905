// SPDX-FileCopyrightText: 2024 The go-mailpost Authors
//
// SPDX-License-Identifier: MIT

// Package log implements a logger interface that can be used within the go-mailpost package
// and its SMTP client. Each log entry carries the Direction of the protocol message it describes.
package log

import (
	"fmt"
	"strings"
)

const (
	DirServerToClient Direction = iota // Server to Client communication
	DirClientToServer                  // Client to Server communication
)

const (
	// LevelError is the log level that only logs errors
	LevelError Level = iota
	// LevelWarn is the log level that logs warnings and errors
	LevelWarn
	// LevelInfo is the log level that logs info, warnings and errors
	LevelInfo
	// LevelDebug is the log level that logs everything, including the SMTP protocol
	LevelDebug
)

// Keys used by structured loggers to describe the Direction of a Log.
const (
	DirString     = "direction"
	DirFromString = "from"
	DirToString   = "to"
)

// Direction is a type wrapper for the direction a debug log message goes
type Direction int

// Level is a type wrapper for the verbosity of a Logger
type Level int

// Log represents a log message type that holds a log Direction, a Format string
// and a slice of Messages
type Log struct {
	Direction Direction
	Format    string
	Messages  []interface{}
}

// Logger is the log interface for go-mailpost
type Logger interface {
	Debugf(Log)
	Infof(Log)
	Warnf(Log)
	Errorf(Log)
}

// ParseLevel returns the Level for the given name ("error", "warn", "info" or "debug").
func ParseLevel(name string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "error":
		return LevelError, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "info", "":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level: %q", name)
	}
}

// String satisfies the fmt.Stringer interface for the Level type.
func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarn:
		return "warn"
	case LevelInfo:
		return "info"
	case LevelDebug:
		return "debug"
	default:
		return "unknown"
	}
}

// message returns the formatted message of the Log.
func (l Log) message() string {
	return fmt.Sprintf(l.Format, l.Messages...)
}

// directionPrefix returns the short arrow notation of the Direction.
func (l Log) directionPrefix() string {
	if l.Direction == DirClientToServer {
		return "C --> S:"
	}
	return "C <-- S:"
}

// directionFrom returns the sending side of the Log.
func (l Log) directionFrom() string {
	if l.Direction == DirClientToServer {
		return "client"
	}
	return "server"
}

// directionTo returns the receiving side of the Log.
func (l Log) directionTo() string {
	if l.Direction == DirClientToServer {
		return "server"
	}
	return "client"
}
