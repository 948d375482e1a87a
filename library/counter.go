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
	"github.com/tochemey/goflow/actor"
)

// CounterTag is the type tag of Counter
const CounterTag = "std.Counter"

// CounterState is the managed state of Counter
type CounterState struct {
	Count int `json:"count"`
	Limit int `json:"limit"`
}

// Counter produces increasing integers starting at 1. A positive "limit"
// argument stops it after that many values.
type Counter struct {
	state CounterState
}

var (
	_ actor.Behavior      = (*Counter)(nil)
	_ actor.ManagedStater = (*Counter)(nil)
)

// Init reads the optional "start" and "limit" arguments
func (c *Counter) Init(_ *actor.Context, args actor.Args) error {
	start, err := intArg(args, "start")
	if err != nil {
		return err
	}
	limit, err := intArg(args, "limit")
	if err != nil {
		return err
	}
	c.state = CounterState{Count: start, Limit: limit}
	return nil
}

// Managed returns the counter state
func (c *Counter) Managed() any {
	return &c.state
}

// Count returns the last produced value
func (c *Counter) Count() int {
	return c.state.Count
}

// CounterType returns the Counter actor type
func CounterType() (*actor.Type, error) {
	return actor.NewType(CounterTag, func() *Counter { return new(Counter) },
		nil,
		[]actor.PortDecl{{Name: "integer"}},
		[]actor.Action[*Counter]{{
			Name:    "count",
			Outputs: []string{"integer"},
			Guard: func(c *Counter) bool {
				return c.state.Limit <= 0 || c.state.Count < c.state.Limit
			},
			Body: func(c *Counter, _ *actor.Context, _ []any) actor.Production {
				c.state.Count++
				return actor.Production{c.state.Count}
			},
		}},
	)
}
