// SPDX-FileCopyrightText: 2024 The go-mailpost Authors
//
// SPDX-License-Identifier: MIT

package log

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"
)

type jsonLog struct {
	Direction jsonDir   `json:"direction"`
	Level     string    `json:"level"`
	Message   string    `json:"msg"`
	Time      time.Time `json:"time"`
}

type jsonDir struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func TestNewJSON(t *testing.T) {
	var b bytes.Buffer
	l := NewJSON(&b, LevelDebug)
	if l.level != LevelDebug {
		t.Error("Expected level to be LevelDebug, got ", l.level)
	}
	if l.log == nil {
		t.Error("logger not initialized")
	}
}

func TestJSONlog(t *testing.T) {
	tests := []struct {
		name      string
		level     Level
		logFn     func(*JSONlog, Log)
		wantLevel string
	}{
		{"debug messages", LevelDebug, (*JSONlog).Debugf, "DEBUG"},
		{"debug messages with an unknown level", 999, (*JSONlog).Debugf, "DEBUG"},
		{"info messages", LevelInfo, (*JSONlog).Infof, "INFO"},
		{"warn messages", LevelWarn, (*JSONlog).Warnf, "WARN"},
		{"error messages", LevelError, (*JSONlog).Errorf, "ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b bytes.Buffer
			l := NewJSON(&b, tt.level)

			tt.logFn(l, Log{Direction: DirServerToClient, Format: "test %s", Messages: []interface{}{"foo"}})
			jl := unmarshalLog(t, b.Bytes())
			if jl.Direction.From != "server" || jl.Direction.To != "client" {
				t.Errorf("unexpected direction, got from: %s, to: %s", jl.Direction.From, jl.Direction.To)
			}
			if jl.Message != "test foo" {
				t.Errorf("expected message: %s, got %s", "test foo", jl.Message)
			}
			if jl.Level != tt.wantLevel {
				t.Errorf("expected level: %s, got %s", tt.wantLevel, jl.Level)
			}

			b.Reset()
			tt.logFn(l, Log{Direction: DirClientToServer, Format: "test %s", Messages: []interface{}{"bar"}})
			jl = unmarshalLog(t, b.Bytes())
			if jl.Direction.From != "client" || jl.Direction.To != "server" {
				t.Errorf("unexpected direction, got from: %s, to: %s", jl.Direction.From, jl.Direction.To)
			}
			if jl.Message != "test bar" {
				t.Errorf("expected message: %s, got %s", "test bar", jl.Message)
			}
		})
	}
	t.Run("debug messages are dropped at info level", func(t *testing.T) {
		var b bytes.Buffer
		l := NewJSON(&b, LevelInfo)
		l.Debugf(Log{Direction: DirServerToClient, Format: "test %s", Messages: []interface{}{"foo"}})
		if b.String() != "" {
			t.Error("Debug message was not expected to be logged")
		}
	})
}

func unmarshalLog(t *testing.T, j []byte) jsonLog {
	t.Helper()
	var l jsonLog
	if err := json.Unmarshal(j, &l); err != nil {
		t.Fatalf("failed to unmarshal json log message: %s", err)
	}
	return l
}
