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

package capability

import (
	"encoding/json"
	"fmt"
	"sync"

	gerrors "github.com/tochemey/goflow/errors"
)

// BufferName is the name of the in-memory buffer capability
const BufferName = "io.buffer"

// Buffer is an in-memory FIFO of values. The "capacity" config key bounds
// it; a zero capacity means unbounded.
type Buffer struct {
	mu       sync.Mutex
	capacity int
	values   []any
	wakeup   func()
}

var (
	_ Capability = (*Buffer)(nil)
	_ Serializer = (*Buffer)(nil)
	_ Restorer   = (*Buffer)(nil)
)

// NewBuffer is the Factory of the io.buffer capability
func NewBuffer(_ string, config map[string]any, wakeup func()) (Capability, error) {
	capacity, err := intValue(config, "capacity")
	if err != nil {
		return nil, err
	}
	if capacity < 0 {
		return nil, fmt.Errorf("negative capacity %d", capacity)
	}
	return &Buffer{capacity: capacity, wakeup: wakeup}, nil
}

// CanRead reports whether the buffer holds a value
func (b *Buffer) CanRead() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.values) > 0
}

// Read pops the oldest value
func (b *Buffer) Read() (any, error) {
	b.mu.Lock()
	if len(b.values) == 0 {
		b.mu.Unlock()
		return nil, gerrors.ErrCapabilityNotReady
	}
	value := b.values[0]
	b.values = b.values[1:]
	b.mu.Unlock()

	if b.wakeup != nil {
		b.wakeup()
	}
	return value, nil
}

// CanWrite reports whether the buffer has room
func (b *Buffer) CanWrite() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.capacity == 0 || len(b.values) < b.capacity
}

// Write appends a value
func (b *Buffer) Write(value any) error {
	b.mu.Lock()
	if b.capacity > 0 && len(b.values) >= b.capacity {
		b.mu.Unlock()
		return gerrors.ErrCapabilityNotReady
	}
	b.values = append(b.values, value)
	b.mu.Unlock()

	if b.wakeup != nil {
		b.wakeup()
	}
	return nil
}

// Values returns a copy of the buffered values
func (b *Buffer) Values() []any {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]any, len(b.values))
	copy(out, b.values)
	return out
}

// Close drops the buffered values
func (b *Buffer) Close() error {
	b.mu.Lock()
	b.values = nil
	b.mu.Unlock()
	return nil
}

// Serialize returns the buffered values
func (b *Buffer) Serialize() (json.RawMessage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	values := b.values
	if values == nil {
		values = []any{}
	}
	return json.Marshal(values)
}

// Restore replaces the buffered values
func (b *Buffer) Restore(state json.RawMessage) error {
	var values []any
	if err := json.Unmarshal(state, &values); err != nil {
		return err
	}
	b.mu.Lock()
	b.values = values
	b.mu.Unlock()
	return nil
}

func intValue(config map[string]any, key string) (int, error) {
	raw, ok := config[key]
	if !ok || raw == nil {
		return 0, nil
	}
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("config %q: unsupported type %T", key, raw)
	}
}
