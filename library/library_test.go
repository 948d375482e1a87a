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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tochemey/goflow/actor"
	"github.com/tochemey/goflow/config"
	gerrors "github.com/tochemey/goflow/errors"
	"github.com/tochemey/goflow/log"
	"github.com/tochemey/goflow/port"
	"github.com/tochemey/goflow/token"
)

const testNode = "node-1"

func newFactory(t *testing.T) *actor.Factory {
	t.Helper()
	cfg, err := config.New(testNode, config.WithLogger(log.DiscardLogger))
	require.NoError(t, err)
	registry := actor.NewRegistry()
	require.NoError(t, Register(registry))
	return actor.NewFactory(registry, actor.NewRuntimeContext(cfg))
}

// settle fires the actors in turn until none of them fires anymore
func settle(t *testing.T, actors ...actor.Actor) {
	t.Helper()
	for progress := true; progress; {
		progress = false
		for _, a := range actors {
			for _, out := range a.OutPorts() {
				out.Communicate()
			}
			if !a.Enabled() {
				continue
			}
			result, err := a.Fire()
			require.NoError(t, err)
			if result.DidFire {
				progress = true
			}
			for _, out := range a.OutPorts() {
				out.Communicate()
			}
		}
	}
}

// source connects a free standing out port to the named in port of the actor
func source(t *testing.T, a actor.Actor, name string) *port.OutPort {
	t.Helper()
	out, err := port.NewOutPort("src", port.WithQueueCapacity(16))
	require.NoError(t, err)
	in, err := a.InPort(name)
	require.NoError(t, err)
	out.Attach(port.NewLocalOutEndpoint(out, in, testNode))
	in.Attach(port.NewLocalInEndpoint(in, out, testNode))
	a.DidConnect(in.Port)
	return out
}

// target connects the named out port of the actor to a free standing in port
func target(t *testing.T, a actor.Actor, name string) *port.InPort {
	t.Helper()
	in, err := port.NewInPort("dst", port.WithQueueCapacity(16))
	require.NoError(t, err)
	out, err := a.OutPort(name)
	require.NoError(t, err)
	out.Attach(port.NewLocalOutEndpoint(out, in, testNode))
	in.Attach(port.NewLocalInEndpoint(in, out, testNode))
	a.DidConnect(out.Port)
	return in
}

func values(t *testing.T, in *port.InPort) []any {
	t.Helper()
	var got []any
	for in.TokensAvailable(1) {
		tok, _, err := in.Peek()
		require.NoError(t, err)
		got = append(got, tok.Value())
	}
	in.Commit()
	return got
}

func TestRegister(t *testing.T) {
	defer goleak.VerifyNone(t)

	registry := actor.NewRegistry()
	require.NoError(t, Register(registry))
	assert.Equal(t, []string{SinkTag, CounterTag, IdentityTag, SumTag}, registry.Types())
	require.ErrorIs(t, Register(registry), gerrors.ErrTypeAlreadyRegistered)
}

func TestLibrary(t *testing.T) {
	defer goleak.VerifyNone(t)

	t.Run("counter to identity to sink", func(t *testing.T) {
		factory := newFactory(t)
		counter, err := factory.Create(CounterTag, actor.Args{"limit": 5})
		require.NoError(t, err)
		identity, err := factory.Create(IdentityTag, actor.Args{"dump": true})
		require.NoError(t, err)
		sink, err := factory.Create(SinkTag, nil)
		require.NoError(t, err)

		require.NoError(t, actor.Connect(counter, "integer", identity, "token", testNode))
		require.NoError(t, actor.Connect(identity, "token", sink, "token", testNode))
		require.True(t, counter.Enabled())
		require.True(t, identity.Enabled())
		require.True(t, sink.Enabled())

		settle(t, counter, identity, sink)

		assert.Equal(t, 5, counter.Behavior().(*Counter).Count())
		s := sink.Behavior().(*Sink)
		assert.Equal(t, 5, s.Received())
		assert.NotZero(t, s.Digest())

		capabilities := factory.Runtime().Capabilities()
		var got []any
		for capabilities.CanRead(s.Handle()) {
			v, err := capabilities.Read(s.Handle())
			require.NoError(t, err)
			got = append(got, v)
		}
		assert.Equal(t, []any{1, 2, 3, 4, 5}, got)
	})
	t.Run("counter honours start", func(t *testing.T) {
		factory := newFactory(t)
		counter, err := factory.Create(CounterTag, actor.Args{"start": 10, "limit": 12})
		require.NoError(t, err)
		out := target(t, counter, "integer")
		settle(t, counter)
		assert.Equal(t, []any{11, 12}, values(t, out))
	})
	t.Run("counter rejects bad arguments", func(t *testing.T) {
		factory := newFactory(t)
		_, err := factory.Create(CounterTag, actor.Args{"limit": "ten"})
		require.ErrorIs(t, err, gerrors.ErrInitFailure)
		_, err = factory.Create(CounterTag, actor.Args{"start": 1.5})
		require.ErrorIs(t, err, gerrors.ErrInitFailure)
	})
	t.Run("sum adds pairs", func(t *testing.T) {
		factory := newFactory(t)
		sum, err := factory.Create(SumTag, nil)
		require.NoError(t, err)
		a := source(t, sum, "a")
		b := source(t, sum, "b")
		out := target(t, sum, "sum")
		require.True(t, sum.Enabled())

		for _, v := range []any{1, 2.5} {
			require.NoError(t, a.Write(token.New(v)))
		}
		for _, v := range []any{10, 0.5} {
			require.NoError(t, b.Write(token.New(v)))
		}
		a.Communicate()
		b.Communicate()

		settle(t, sum)
		assert.Equal(t, []any{11, 3.0}, values(t, out))
	})
	t.Run("sum fails on non numbers", func(t *testing.T) {
		factory := newFactory(t)
		sum, err := factory.Create(SumTag, nil)
		require.NoError(t, err)
		a := source(t, sum, "a")
		b := source(t, sum, "b")
		target(t, sum, "sum")

		require.NoError(t, a.Write(token.New("x")))
		require.NoError(t, b.Write(token.New(1)))
		a.Communicate()
		b.Communicate()

		_, err = sum.Fire()
		var panicErr *gerrors.PanicError
		require.True(t, errors.As(err, &panicErr))
		assert.True(t, gerrors.IsFatal(err))
	})
	t.Run("identity forwards exceptions", func(t *testing.T) {
		factory := newFactory(t)
		identity, err := factory.Create(IdentityTag, nil)
		require.NoError(t, err)
		in := source(t, identity, "token")
		out := target(t, identity, "token")

		require.NoError(t, in.Write(token.New("v")))
		require.NoError(t, in.Write(token.NewException("boom")))
		in.Communicate()
		settle(t, identity)

		tok, _, err := out.Peek()
		require.NoError(t, err)
		assert.Equal(t, "v", tok.Value())
		tok, _, err = out.Peek()
		require.NoError(t, err)
		assert.True(t, tok.IsException())
		assert.Equal(t, "boom", tok.Value())
	})
	t.Run("sink records end of stream", func(t *testing.T) {
		factory := newFactory(t)
		sink, err := factory.Create(SinkTag, nil)
		require.NoError(t, err)
		in := source(t, sink, "token")

		require.NoError(t, in.Write(token.New("a")))
		require.NoError(t, in.Write(token.NewEOS()))
		in.Communicate()
		settle(t, sink)

		s := sink.Behavior().(*Sink)
		assert.Equal(t, 1, s.Received())
		assert.True(t, s.Ended())
	})
	t.Run("bounded sink waits for room", func(t *testing.T) {
		factory := newFactory(t)
		sink, err := factory.Create(SinkTag, actor.Args{"capacity": 1})
		require.NoError(t, err)
		in := source(t, sink, "token")

		require.NoError(t, in.Write(token.New("a")))
		require.NoError(t, in.Write(token.New("b")))
		in.Communicate()
		settle(t, sink)

		s := sink.Behavior().(*Sink)
		assert.Equal(t, 1, s.Received())

		capabilities := factory.Runtime().Capabilities()
		v, err := capabilities.Read(s.Handle())
		require.NoError(t, err)
		assert.Equal(t, "a", v)

		settle(t, sink)
		assert.Equal(t, 2, s.Received())
	})
	t.Run("sink survives migration", func(t *testing.T) {
		factory := newFactory(t)
		sink, err := factory.Create(SinkTag, nil)
		require.NoError(t, err)
		in := source(t, sink, "token")
		require.NoError(t, in.Write(token.New("a")))
		in.Communicate()
		settle(t, sink)
		before := sink.Behavior().(*Sink)

		state, err := sink.Serialize()
		require.NoError(t, err)
		require.NoError(t, sink.WillEnd())

		restored, err := newFactory(t).Restore(state)
		require.NoError(t, err)
		after := restored.(*actor.Concrete).Behavior().(*Sink)
		assert.Equal(t, before.Handle(), after.Handle())
		assert.Equal(t, before.Received(), after.Received())
		assert.Equal(t, before.Digest(), after.Digest())
	})
}
