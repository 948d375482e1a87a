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

package actor

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tochemey/goflow/config"
	"github.com/tochemey/goflow/log"
	"github.com/tochemey/goflow/port"
	"github.com/tochemey/goflow/security"
	"github.com/tochemey/goflow/token"
)

const testNode = "node-1"

// sum adds one token of a to one token of b
type sum struct{}

func (*sum) Init(*Context, Args) error { return nil }

func sumType(t *testing.T) *Type {
	t.Helper()
	typ, err := NewType("std.Sum", func() *sum { return new(sum) },
		[]PortDecl{{Name: "a"}, {Name: "b"}},
		[]PortDecl{{Name: "sum"}},
		[]Action[*sum]{{
			Name:    "add",
			Inputs:  []string{"a", "b"},
			Outputs: []string{"sum"},
			Body: func(_ *sum, _ *Context, values []any) Production {
				return Production{values[0].(int) + values[1].(int)}
			},
		}},
	)
	require.NoError(t, err)
	return typ
}

// relay forwards its input with a status flag and replaces exceptions with
// a marker
type relay struct{}

func (*relay) Init(*Context, Args) error { return nil }

func (*relay) HandleException(_ *Context, _ string, _ []*token.Token) Production {
	return Production{"eos-marker", 1}
}

func relayType(t *testing.T) *Type {
	t.Helper()
	typ, err := NewType("test.Relay", func() *relay { return new(relay) },
		[]PortDecl{{Name: "token"}},
		[]PortDecl{{Name: "token"}, {Name: "status"}},
		[]Action[*relay]{{
			Name:    "relay",
			Inputs:  []string{"token"},
			Outputs: []string{"token", "status"},
			Body: func(_ *relay, _ *Context, values []any) Production {
				return Production{values[0], 0}
			},
		}},
	)
	require.NoError(t, err)
	return typ
}

type counterState struct {
	Count int    `json:"count"`
	Label string `json:"label"`
}

// counter counts the tokens it forwards and tracks its lifecycle hooks
type counter struct {
	state    counterState
	note     string
	starts   int
	stops    int
	ends     int
	migrated int
	initArgs Args
}

func (c *counter) Init(_ *Context, args Args) error {
	c.initArgs = args
	if start, ok := args["start"].(int); ok {
		c.state.Count = start
	}
	if fail, ok := args["fail"].(bool); ok && fail {
		return fmt.Errorf("init refused")
	}
	if _, ok := args["panic"]; ok {
		panic("init panic")
	}
	return nil
}

func (c *counter) WillStart(*Context)   { c.starts++ }
func (c *counter) WillStop(*Context)    { c.stops++ }
func (c *counter) WillEnd(*Context)     { c.ends++ }
func (c *counter) WillMigrate(*Context) {}
func (c *counter) DidMigrate(*Context)  { c.migrated++ }
func (c *counter) Managed() any         { return &c.state }

func (c *counter) CustomState() (json.RawMessage, error) {
	return json.Marshal(map[string]string{"note": c.note})
}

func (c *counter) SetCustomState(state json.RawMessage) error {
	var custom map[string]string
	if err := json.Unmarshal(state, &custom); err != nil {
		return err
	}
	c.note = custom["note"]
	return nil
}

func counterType(t *testing.T) *Type {
	t.Helper()
	typ, err := NewType("test.Counter", func() *counter { return new(counter) },
		[]PortDecl{{Name: "in"}},
		[]PortDecl{{Name: "out"}},
		[]Action[*counter]{{
			Name:    "count",
			Inputs:  []string{"in"},
			Outputs: []string{"out"},
			Body: func(c *counter, _ *Context, values []any) Production {
				c.state.Count++
				return Production{fmt.Sprintf("%v#%d", values[0], c.state.Count)}
			},
		}},
		WithRequires("sys.timer"),
	)
	require.NoError(t, err)
	return typ
}

type fakeWaker struct {
	mu      sync.Mutex
	wakeups []string
	retries map[string]func()
}

func newFakeWaker() *fakeWaker {
	return &fakeWaker{retries: make(map[string]func())}
}

func (w *fakeWaker) Wakeup(id string) {
	w.mu.Lock()
	w.wakeups = append(w.wakeups, id)
	w.mu.Unlock()
}

func (w *fakeWaker) ScheduleRetry(key string, _ time.Duration, fn func()) error {
	w.mu.Lock()
	w.retries[key] = fn
	w.mu.Unlock()
	return nil
}

func (w *fakeWaker) retry(key string) bool {
	w.mu.Lock()
	fn, ok := w.retries[key]
	delete(w.retries, key)
	w.mu.Unlock()
	if ok {
		fn()
	}
	return ok
}

type fixture struct {
	registry   *Registry
	factory    *Factory
	authorizer *security.StaticAuthorizer
	waker      *fakeWaker
}

func newFixture(t *testing.T, opts ...config.Option) *fixture {
	t.Helper()
	cfg, err := config.New(testNode, append([]config.Option{config.WithLogger(log.DiscardLogger)}, opts...)...)
	require.NoError(t, err)

	registry := NewRegistry()
	require.NoError(t, registry.Register(sumType(t), relayType(t), counterType(t)))

	authorizer := security.NewStaticAuthorizer(true)
	waker := newFakeWaker()
	rt := NewRuntimeContext(cfg, WithAuthorizer(authorizer), WithWaker(waker))
	return &fixture{
		registry:   registry,
		factory:    NewFactory(registry, rt),
		authorizer: authorizer,
		waker:      waker,
	}
}

// feed connects a free standing out port to the named in port of the actor
func feed(t *testing.T, a Actor, name string, opts ...port.Option) *port.OutPort {
	t.Helper()
	out, err := port.NewOutPort("src", append([]port.Option{port.WithQueueCapacity(8)}, opts...)...)
	require.NoError(t, err)
	in, err := a.InPort(name)
	require.NoError(t, err)
	out.Attach(port.NewLocalOutEndpoint(out, in, testNode))
	in.Attach(port.NewLocalInEndpoint(in, out, testNode))
	a.DidConnect(in.Port)
	return out
}

// drain connects the named out port of the actor to a free standing in port
func drain(t *testing.T, a Actor, name string) *port.InPort {
	t.Helper()
	in, err := port.NewInPort("sink", port.WithQueueCapacity(8))
	require.NoError(t, err)
	out, err := a.OutPort(name)
	require.NoError(t, err)
	out.Attach(port.NewLocalOutEndpoint(out, in, testNode))
	in.Attach(port.NewLocalInEndpoint(in, out, testNode))
	a.DidConnect(out.Port)
	return in
}

func send(t *testing.T, out *port.OutPort, values ...any) {
	t.Helper()
	for _, v := range values {
		require.NoError(t, out.Write(token.Wrap(v)))
	}
	out.Communicate()
}

// collect moves the pending tokens of the actor out port into the sink and
// returns their values
func collect(t *testing.T, a Actor, outport string, sink *port.InPort) []any {
	t.Helper()
	out, err := a.OutPort(outport)
	require.NoError(t, err)
	out.Communicate()

	var values []any
	for sink.TokensAvailable(1) {
		tok, _, err := sink.Peek()
		require.NoError(t, err)
		values = append(values, tok.Value())
	}
	sink.Commit()
	return values
}
