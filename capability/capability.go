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

// Package capability implements the uniform interface actors use to reach
// the outside world. Actors never hold capability objects directly. They
// open a named capability, keep the returned handle and poll it with
// CanRead/CanWrite before calling Read/Write.
package capability

import (
	"encoding/json"
)

// Capability is an object reachable through a handle
type Capability interface {
	// CanRead reports whether Read would return a value
	CanRead() bool
	// Read returns the next value
	Read() (any, error)
	// CanWrite reports whether Write would accept a value
	CanWrite() bool
	// Write hands a value to the capability
	Write(value any) error
	// Close releases the capability resources
	Close() error
}

// Serializer is implemented by capabilities that survive migration
type Serializer interface {
	// Serialize returns the state of the capability
	Serialize() (json.RawMessage, error)
}

// Restorer is implemented by capabilities that can resume from a serialized
// state
type Restorer interface {
	// Restore resumes the capability from the given state
	Restore(state json.RawMessage) error
}

// Factory creates a capability for the given owner. The wakeup function asks
// the scheduler to consider the owner again; capabilities call it when they
// become readable or writable.
type Factory func(owner string, config map[string]any, wakeup func()) (Capability, error)

// ObjectState is the serialized form of an open capability
type ObjectState struct {
	Name   string          `json:"name"`
	Config map[string]any  `json:"config,omitempty"`
	State  json.RawMessage `json:"state,omitempty"`
}
