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

// Package log defines the Logger used by every runtime component and its
// zap backed implementation.
package log

import (
	"io"
)

// Logger is handed to actors, ports and the scheduler through the runtime
// configuration. Nothing logs through package level helpers.
type Logger interface {
	Debug(...any)
	Debugf(string, ...any)
	Info(...any)
	Infof(string, ...any)
	Warn(...any)
	Warnf(string, ...any)
	Error(...any)
	Errorf(string, ...any)
	// Panic logs then panics
	Panic(...any)
	Panicf(string, ...any)
	// Fatal logs then exits the process
	Fatal(...any)
	Fatalf(string, ...any)

	// LogLevel returns the minimum level written
	LogLevel() Level
	// Enabled reports whether entries at the given level are written
	Enabled(Level) bool
	// With returns a child logger adding the key-value pairs to every entry.
	// Pairs whose key is not a string are dropped.
	With(keyValues ...any) Logger
	// LogOutput returns the writers entries go to
	LogOutput() []io.Writer
}
