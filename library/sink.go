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

package library

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/zeebo/xxh3"

	"github.com/tochemey/goflow/actor"
	"github.com/tochemey/goflow/capability"
	"github.com/tochemey/goflow/token"
)

// SinkTag is the type tag of Sink
const SinkTag = "io.Sink"

// SinkState is the managed state of Sink
type SinkState struct {
	Handle   string `json:"handle"`
	Received int    `json:"received"`
	Ended    bool   `json:"ended"`
}

// Sink writes every value it receives into an io.buffer capability. It keeps
// a running digest of the values in its custom state.
type Sink struct {
	ctx    *actor.Context
	state  SinkState
	digest uint64
}

var (
	_ actor.Behavior         = (*Sink)(nil)
	_ actor.ManagedStater    = (*Sink)(nil)
	_ actor.CustomStater     = (*Sink)(nil)
	_ actor.ExceptionHandler = (*Sink)(nil)
	_ actor.MigrationAware   = (*Sink)(nil)
)

// Init opens the buffer. The optional "capacity" argument bounds it.
func (s *Sink) Init(ctx *actor.Context, args actor.Args) error {
	capacity, err := intArg(args, "capacity")
	if err != nil {
		return err
	}
	handle, err := ctx.Open(capability.BufferName, map[string]any{"capacity": capacity})
	if err != nil {
		return err
	}
	s.ctx = ctx
	s.state.Handle = handle
	return nil
}

// WillMigrate does nothing. The buffer travels with the capability state.
func (*Sink) WillMigrate(*actor.Context) {}

// DidMigrate keeps the context of the restored actor
func (s *Sink) DidMigrate(ctx *actor.Context) {
	s.ctx = ctx
}

// Handle returns the buffer handle
func (s *Sink) Handle() string {
	return s.state.Handle
}

// Received returns the number of values written to the buffer
func (s *Sink) Received() int {
	return s.state.Received
}

// Ended reports whether an end of stream token reached the sink
func (s *Sink) Ended() bool {
	return s.state.Ended
}

// Digest returns the running digest of the received values
func (s *Sink) Digest() uint64 {
	return s.digest
}

// Managed returns the sink state
func (s *Sink) Managed() any {
	return &s.state
}

// CustomState returns the digest
func (s *Sink) CustomState() (json.RawMessage, error) {
	return json.Marshal(map[string]string{"digest": strconv.FormatUint(s.digest, 16)})
}

// SetCustomState restores the digest
func (s *Sink) SetCustomState(state json.RawMessage) error {
	var custom map[string]string
	if err := json.Unmarshal(state, &custom); err != nil {
		return err
	}
	digest, err := strconv.ParseUint(custom["digest"], 16, 64)
	if err != nil {
		return err
	}
	s.digest = digest
	return nil
}

// HandleException records end of stream and drops other exceptions
func (s *Sink) HandleException(ctx *actor.Context, _ string, tokens []*token.Token) actor.Production {
	for _, tok := range tokens {
		if tok.IsEOS() {
			s.state.Ended = true
			continue
		}
		if tok.IsException() {
			ctx.Logger().Warnf("%s dropped exception %v", ctx.ActorName(), tok.Value())
		}
	}
	return actor.Production{}
}

func (s *Sink) write(ctx *actor.Context, value any) {
	if err := ctx.Write(s.state.Handle, value); err != nil {
		panic(err)
	}
	s.state.Received++
	s.digest = xxh3.HashString(strconv.FormatUint(s.digest, 16) + fmt.Sprint(value))
}

// SinkType returns the Sink actor type
func SinkType() (*actor.Type, error) {
	return actor.NewType(SinkTag, func() *Sink { return new(Sink) },
		[]actor.PortDecl{{Name: "token"}},
		nil,
		[]actor.Action[*Sink]{{
			Name:   "sink",
			Inputs: []string{"token"},
			Guard: func(s *Sink) bool {
				return s.ctx != nil && s.ctx.CanWrite(s.state.Handle)
			},
			Body: func(s *Sink, ctx *actor.Context, values []any) actor.Production {
				s.write(ctx, values[0])
				return actor.Production{}
			},
		}},
		actor.WithRequires(capability.BufferName),
	)
}
