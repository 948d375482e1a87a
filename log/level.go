// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package log

import (
	"fmt"
	"strings"

	"go.uber.org/zap/zapcore"
)

// Level is the severity of a log entry
type Level int8

// Levels in increasing severity
const (
	DebugLevel Level = iota
	InfoLevel
	WarningLevel
	ErrorLevel
	PanicLevel
	FatalLevel
	InvalidLevel
)

var levels = [...]struct {
	name string
	zap  zapcore.Level
}{
	DebugLevel:   {"debug", zapcore.DebugLevel},
	InfoLevel:    {"info", zapcore.InfoLevel},
	WarningLevel: {"warn", zapcore.WarnLevel},
	ErrorLevel:   {"error", zapcore.ErrorLevel},
	PanicLevel:   {"panic", zapcore.PanicLevel},
	FatalLevel:   {"fatal", zapcore.FatalLevel},
}

// String returns the lowercase level name, the one written in entries
func (l Level) String() string {
	if l < DebugLevel || l >= InvalidLevel {
		return "invalid"
	}
	return levels[l].name
}

// ParseLevel returns the level with the given name. "warning" is accepted
// for WarningLevel.
func ParseLevel(name string) (Level, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "warning" {
		return WarningLevel, nil
	}
	for l := DebugLevel; l < InvalidLevel; l++ {
		if levels[l].name == name {
			return l, nil
		}
	}
	return InvalidLevel, fmt.Errorf("unknown log level %q", name)
}

func (l Level) zap() zapcore.Level {
	if l < DebugLevel || l >= InvalidLevel {
		return zapcore.DebugLevel
	}
	return levels[l].zap
}

func fromZap(level zapcore.Level) Level {
	for l := DebugLevel; l < InvalidLevel; l++ {
		if levels[l].zap == level {
			return l
		}
	}
	return InvalidLevel
}
