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

// Package token defines the unit of data flowing between actor ports.
//
// A Token is immutable once created. It carries either an application value,
// an exception with an optional diagnostic payload, or an end-of-stream signal.
// End-of-stream is an exception subtype: IsException reports true for it.
package token

import (
	"encoding/json"
	"fmt"
)

// Kind is the token variant
type Kind int

const (
	// KindValue is a regular application value
	KindValue Kind = iota
	// KindException signals an error condition
	KindException
	// KindEOS signals the producer has no more tokens
	KindEOS
)

const eosValue = "End of stream"

var kindNames = map[Kind]string{
	KindValue:     "Token",
	KindException: "ExceptionToken",
	KindEOS:       "EOSToken",
}

// String returns the wire name of the kind
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Token is the unit of data written to and read from port queues
type Token struct {
	kind  Kind
	value any
}

// New creates a value token
func New(value any) *Token {
	return &Token{kind: KindValue, value: value}
}

// NewException creates an exception token with an optional diagnostic value
func NewException(value any) *Token {
	return &Token{kind: KindException, value: value}
}

// NewEOS creates an end-of-stream token
func NewEOS() *Token {
	return &Token{kind: KindEOS, value: eosValue}
}

// Wrap returns v when it already is a token, otherwise a value token holding v
func Wrap(v any) *Token {
	if t, ok := v.(*Token); ok && t != nil {
		return t
	}
	return New(v)
}

// Kind returns the token variant
func (t *Token) Kind() Kind {
	return t.kind
}

// Value returns the token payload
func (t *Token) Value() any {
	return t.value
}

// IsException reports whether the token is an exception or an end-of-stream token
func (t *Token) IsException() bool {
	return t.kind == KindException || t.kind == KindEOS
}

// IsEOS reports whether the token signals end-of-stream
func (t *Token) IsEOS() bool {
	return t.kind == KindEOS
}

// String returns a human-readable representation of the token
func (t *Token) String() string {
	return fmt.Sprintf("%s(%v)", t.kind, t.value)
}

type wireToken struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// MarshalJSON encodes the token as {"type": ..., "data": ...}
func (t *Token) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(t.value)
	if err != nil {
		return nil, fmt.Errorf("token: encoding %s payload: %w", t.kind, err)
	}
	return json.Marshal(wireToken{Type: t.kind.String(), Data: data})
}

// UnmarshalJSON decodes a token encoded by MarshalJSON
func (t *Token) UnmarshalJSON(b []byte) error {
	var wire wireToken
	if err := json.Unmarshal(b, &wire); err != nil {
		return fmt.Errorf("token: %w", err)
	}

	kind, ok := kindOf(wire.Type)
	if !ok {
		return fmt.Errorf("token: unknown type %q", wire.Type)
	}

	var value any
	if len(wire.Data) > 0 {
		if err := json.Unmarshal(wire.Data, &value); err != nil {
			return fmt.Errorf("token: decoding %s payload: %w", kind, err)
		}
	}

	t.kind = kind
	t.value = value
	return nil
}

func kindOf(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return KindValue, false
}
