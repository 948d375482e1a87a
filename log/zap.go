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
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// DefaultLogger writes info entries and above to os.Stdout
	DefaultLogger = NewZap(InfoLevel, os.Stdout)
	// DebugLogger writes every entry to os.Stdout
	DebugLogger = NewZap(DebugLevel, os.Stdout)
	// DiscardLogger drops every entry. Panic and Fatal still panic and exit.
	DiscardLogger Logger = &Zap{
		sugar:   zap.NewNop().Sugar(),
		level:   zap.NewAtomicLevelAt(zapcore.InfoLevel),
		outputs: []io.Writer{io.Discard},
	}
)

// Zap is a Logger writing JSON entries through zap
type Zap struct {
	sugar   *zap.SugaredLogger
	level   zap.AtomicLevel
	outputs []io.Writer
}

var _ Logger = (*Zap)(nil)

// NewZap creates a Zap writing entries at level and above to the writers
func NewZap(level Level, writers ...io.Writer) *Zap {
	atomicLevel := zap.NewAtomicLevelAt(level.zap())

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "ts"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	encoderConfig.EncodeDuration = zapcore.StringDurationEncoder

	syncers := make([]zapcore.WriteSyncer, len(writers))
	for i, w := range writers {
		syncers[i] = zapcore.AddSync(w)
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zap.CombineWriteSyncers(syncers...), atomicLevel)

	logger := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel))
	return &Zap{
		sugar:   logger.Sugar(),
		level:   atomicLevel,
		outputs: writers,
	}
}

func (z *Zap) Debug(v ...any)                 { z.sugar.Debug(v...) }
func (z *Zap) Debugf(format string, v ...any) { z.sugar.Debugf(format, v...) }
func (z *Zap) Info(v ...any)                  { z.sugar.Info(v...) }
func (z *Zap) Infof(format string, v ...any)  { z.sugar.Infof(format, v...) }
func (z *Zap) Warn(v ...any)                  { z.sugar.Warn(v...) }
func (z *Zap) Warnf(format string, v ...any)  { z.sugar.Warnf(format, v...) }
func (z *Zap) Error(v ...any)                 { z.sugar.Error(v...) }
func (z *Zap) Errorf(format string, v ...any) { z.sugar.Errorf(format, v...) }
func (z *Zap) Panic(v ...any)                 { z.sugar.Panic(v...) }
func (z *Zap) Panicf(format string, v ...any) { z.sugar.Panicf(format, v...) }
func (z *Zap) Fatal(v ...any)                 { z.sugar.Fatal(v...) }
func (z *Zap) Fatalf(format string, v ...any) { z.sugar.Fatalf(format, v...) }

// LogLevel returns the minimum level written
func (z *Zap) LogLevel() Level {
	return fromZap(z.level.Level())
}

// SetLevel changes the minimum level of the logger and of every logger
// derived from it with With
func (z *Zap) SetLevel(level Level) {
	z.level.SetLevel(level.zap())
}

// Enabled reports whether entries at the given level are written
func (z *Zap) Enabled(level Level) bool {
	return z.sugar.Desugar().Core().Enabled(level.zap())
}

// With returns a child logger carrying the key-value pairs
func (z *Zap) With(keyValues ...any) Logger {
	fields := make([]any, 0, len(keyValues))
	for i := 0; i+1 < len(keyValues); i += 2 {
		key, ok := keyValues[i].(string)
		if !ok {
			continue
		}
		if err, ok := keyValues[i+1].(error); ok {
			fields = append(fields, zap.NamedError(key, err))
			continue
		}
		fields = append(fields, key, keyValues[i+1])
	}
	if len(fields) == 0 {
		return z
	}
	return &Zap{
		sugar:   z.sugar.With(fields...),
		level:   z.level,
		outputs: z.outputs,
	}
}

// LogOutput returns the writers entries go to
func (z *Zap) LogOutput() []io.Writer {
	return z.outputs
}

// Sync flushes buffered entries
func (z *Zap) Sync() error {
	return z.sugar.Sync()
}
