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
	"math/rand/v2"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tochemey/goflow/config"
	gerrors "github.com/tochemey/goflow/errors"
	"github.com/tochemey/goflow/port"
	"github.com/tochemey/goflow/security"
)

type portless struct{ starts int }

func (*portless) Init(*Context, Args) error { return nil }
func (p *portless) WillStart(*Context)       { p.starts++ }

func TestStatus(t *testing.T) {
	assert.Equal(t, "LOADED", StatusLoaded.String())
	assert.Equal(t, "MIGRATABLE", StatusMigratable.String())
	assert.Equal(t, "UNKNOWN", Status(42).String())

	assert.True(t, StatusLoaded.CanTransitionTo(StatusReady))
	assert.False(t, StatusLoaded.CanTransitionTo(StatusEnabled))
	assert.True(t, StatusPending.CanTransitionTo(StatusPending))
	assert.True(t, StatusDenied.CanTransitionTo(StatusMigratable))
	assert.False(t, StatusMigratable.CanTransitionTo(StatusEnabled))
	for _, s := range []Status{StatusReady, StatusPending, StatusEnabled, StatusDenied, StatusMigratable} {
		assert.False(t, s.CanTransitionTo(StatusLoaded), s.String())
	}
}

func TestLifecycle(t *testing.T) {
	defer goleak.VerifyNone(t)

	t.Run("connecting every port enables the actor once", func(t *testing.T) {
		f := newFixture(t)
		a, err := f.factory.Create("test.Counter", nil)
		require.NoError(t, err)
		c := a.Behavior().(*counter)
		assert.Equal(t, StatusReady, a.Status())

		src := feed(t, a, "in")
		assert.Equal(t, StatusPending, a.Status())
		drain(t, a, "out")
		assert.Equal(t, StatusEnabled, a.Status())
		assert.Equal(t, 1, c.starts)

		in, err := a.InPort("in")
		require.NoError(t, err)
		a.DidConnect(in.Port)
		assert.Equal(t, StatusEnabled, a.Status())
		assert.Equal(t, 1, c.starts)

		// losing a connection stops the actor, regaining it does not start it again
		_, ok := in.Detach(src.ID())
		require.True(t, ok)
		a.DidDisconnect(in.Port)
		assert.Equal(t, StatusPending, a.Status())
		assert.Equal(t, 1, c.stops)

		feed(t, a, "in")
		assert.Equal(t, StatusEnabled, a.Status())
		assert.Equal(t, 1, c.starts)
	})
	t.Run("disconnecting every port makes the actor ready", func(t *testing.T) {
		f := newFixture(t)
		src, err := f.factory.Create("test.Counter", nil)
		require.NoError(t, err)
		dst, err := f.factory.Create("test.Counter", nil)
		require.NoError(t, err)

		require.NoError(t, Connect(src, "out", dst, "in", testNode))
		assert.Equal(t, StatusPending, src.Status())
		assert.Equal(t, StatusPending, dst.Status())

		conns := src.Connections("other")
		out, err := src.OutPort("out")
		require.NoError(t, err)
		in, err := dst.InPort("in")
		require.NoError(t, err)
		assert.Equal(t, src.ID(), conns.ActorID)
		assert.Equal(t, testNode, conns.OutPorts[out.ID()][0].NodeID)
		assert.Equal(t, in.ID(), conns.OutPorts[out.ID()][0].PortID)
		srcIn, err := src.InPort("in")
		require.NoError(t, err)
		assert.Empty(t, conns.InPorts[srcIn.ID()])

		require.NoError(t, Disconnect(src, "out", dst, "in"))
		assert.Equal(t, StatusReady, src.Status())
		assert.Equal(t, StatusReady, dst.Status())

		require.ErrorIs(t, Connect(src, "missing", dst, "in", testNode), gerrors.ErrPortNotFound)
	})
	t.Run("enabling the actor wakes the scheduler", func(t *testing.T) {
		f := newFixture(t)
		a, err := f.factory.Create("test.Counter", nil)
		require.NoError(t, err)
		feed(t, a, "in")
		assert.NotContains(t, f.waker.wakeups, a.ID())
		drain(t, a, "out")
		require.True(t, a.Enabled())
		assert.Equal(t, []string{a.ID()}, f.waker.wakeups)
	})
	t.Run("actors without ports are enabled on setup", func(t *testing.T) {
		typ, err := NewType("test.Portless", func() *portless { return new(portless) }, nil, nil, nil)
		require.NoError(t, err)
		f := newFixture(t)
		require.NoError(t, f.registry.Register(typ))

		a, err := f.factory.Create("test.Portless", nil)
		require.NoError(t, err)
		assert.True(t, a.Enabled())
		assert.Equal(t, 1, a.Behavior().(*portless).starts)

		result, err := a.Fire()
		require.NoError(t, err)
		assert.False(t, result.DidFire)
	})
	t.Run("setup runs once", func(t *testing.T) {
		f := newFixture(t)
		a, err := f.factory.Create("test.Counter", nil)
		require.NoError(t, err)
		require.ErrorIs(t, a.SetupComplete(), gerrors.ErrInvalidActorState)
	})
	t.Run("invalid transitions are logged by default", func(t *testing.T) {
		f := newFixture(t)
		a, err := f.factory.Create("test.Counter", nil)
		require.NoError(t, err)
		a.mu.Lock()
		err = a.transition(StatusMigratable)
		a.mu.Unlock()
		require.NoError(t, err)
		assert.Equal(t, StatusMigratable, a.Status())
	})
	t.Run("invalid transitions fail in strict mode", func(t *testing.T) {
		f := newFixture(t, config.WithStrictTransitions())
		a, err := f.factory.Create("test.Counter", nil)
		require.NoError(t, err)
		a.mu.Lock()
		err = a.transition(StatusMigratable)
		a.mu.Unlock()
		require.ErrorIs(t, err, gerrors.ErrInvalidTransition)
		assert.True(t, gerrors.IsFatal(err))
		assert.Equal(t, StatusReady, a.Status())
	})
	t.Run("init failures", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.factory.Create("test.Counter", Args{"fail": true})
		require.ErrorIs(t, err, gerrors.ErrInitFailure)

		_, err = f.factory.Create("test.Counter", Args{"panic": true})
		require.ErrorIs(t, err, gerrors.ErrInitFailure)
		var pe *gerrors.PanicError
		assert.ErrorAs(t, err, &pe)

		_, err = f.factory.Create("test.Unknown", nil)
		require.ErrorIs(t, err, gerrors.ErrTypeNotRegistered)
	})
	t.Run("init receives the arguments", func(t *testing.T) {
		f := newFixture(t)
		a, err := f.factory.Create("test.Counter", Args{"start": 40}, WithActorID("counter-1"), WithName("counter"))
		require.NoError(t, err)
		assert.Equal(t, "counter-1", a.ID())
		assert.Equal(t, "counter", a.Name())
		assert.Equal(t, "test.Counter", a.Type())
		c := a.Behavior().(*counter)
		assert.Equal(t, 40, c.state.Count)
		assert.Equal(t, 40, c.initArgs["start"])
	})
	t.Run("will end closes the capabilities", func(t *testing.T) {
		f := newFixture(t)
		a, err := f.factory.Create("test.Counter", nil)
		require.NoError(t, err)
		handle, err := a.ctx.Open("io.buffer", nil)
		require.NoError(t, err)
		require.NoError(t, a.ctx.Write(handle, 1))

		require.NoError(t, a.WillEnd())
		assert.Equal(t, 1, a.Behavior().(*counter).ends)
		assert.Empty(t, f.factory.Runtime().Capabilities().Handles(a.ID()))
	})
}

func TestAuthorization(t *testing.T) {
	defer goleak.VerifyNone(t)

	t.Run("revoked actor migrates when a target is found", func(t *testing.T) {
		f := newFixture(t)
		f.authorizer.SetTarget("node-2")
		a, err := f.factory.Create("test.Counter", nil)
		require.NoError(t, err)
		feed(t, a, "in")
		drain(t, a, "out")
		require.True(t, a.Enabled())

		a.CheckAuthorization()
		assert.True(t, a.Enabled())

		f.authorizer.Deny(a.ID(), true)
		a.CheckAuthorization()
		assert.True(t, a.Migratable())
		assert.Equal(t, "node-2", a.MigrationInfo().NodeID)
		assert.Equal(t, 1, f.authorizer.Searches())
		assert.Contains(t, f.waker.wakeups, a.ID())

		// a migratable actor ignores disconnections
		in, err := a.InPort("in")
		require.NoError(t, err)
		a.DidDisconnect(in.Port)
		assert.True(t, a.Migratable())

		require.NoError(t, a.AbortMigration())
		assert.True(t, a.Denied())
		assert.Nil(t, a.MigrationInfo())
	})
	t.Run("failed searches are retried until the actor is allowed again", func(t *testing.T) {
		f := newFixture(t)
		a, err := f.factory.Create("test.Counter", nil)
		require.NoError(t, err)
		feed(t, a, "in")
		drain(t, a, "out")

		f.authorizer.Deny(a.ID(), true)
		a.CheckAuthorization()
		assert.True(t, a.Denied())
		assert.Equal(t, 1, f.authorizer.Searches())

		key := "migration-search:" + a.ID()
		require.True(t, f.waker.retry(key))
		assert.True(t, a.Denied())
		assert.Equal(t, 2, f.authorizer.Searches())

		f.authorizer.Deny(a.ID(), false)
		require.True(t, f.waker.retry(key))
		assert.True(t, a.Enabled())
		assert.Equal(t, 1, a.Behavior().(*counter).starts)
	})
	t.Run("a denied actor is re-enabled by the next check", func(t *testing.T) {
		f := newFixture(t)
		a, err := f.factory.Create("test.Counter", nil)
		require.NoError(t, err)
		feed(t, a, "in")

		f.authorizer.SetDecision(false)
		a.CheckAuthorization()
		assert.True(t, a.Denied())

		// connections do not move a denied actor
		drain(t, a, "out")
		assert.True(t, a.Denied())

		f.authorizer.SetDecision(true)
		a.CheckAuthorization()
		assert.True(t, a.Enabled())
	})
	t.Run("strict mode denies a pending actor", func(t *testing.T) {
		f := newFixture(t, config.WithStrictTransitions())
		a, err := f.factory.Create("test.Counter", nil)
		require.NoError(t, err)
		feed(t, a, "in")
		require.Equal(t, StatusPending, a.Status())

		f.authorizer.SetDecision(false)
		a.CheckAuthorization()
		assert.True(t, a.Denied())
		assert.Equal(t, 1, f.authorizer.Searches())

		drain(t, a, "out")
		assert.True(t, a.Denied())
		assert.Zero(t, a.Behavior().(*counter).starts)
	})
	t.Run("strict mode denies an enabled actor", func(t *testing.T) {
		f := newFixture(t, config.WithStrictTransitions())
		a, err := f.factory.Create("test.Counter", nil)
		require.NoError(t, err)
		feed(t, a, "in")
		drain(t, a, "out")
		require.True(t, a.Enabled())

		f.authorizer.SetDecision(false)
		a.CheckAuthorization()
		assert.True(t, a.Denied())
		assert.Equal(t, 1, f.authorizer.Searches())
		_, err = a.Fire()
		require.ErrorIs(t, err, gerrors.ErrActorNotEnabled)
	})
	t.Run("a denied actor that loses its connections becomes ready", func(t *testing.T) {
		f := newFixture(t, config.WithStrictTransitions())
		a, err := f.factory.Create("test.Counter", nil)
		require.NoError(t, err)
		src := feed(t, a, "in")
		sink := drain(t, a, "out")
		require.True(t, a.Enabled())

		f.authorizer.SetDecision(false)
		a.CheckAuthorization()
		require.True(t, a.Denied())

		in, err := a.InPort("in")
		require.NoError(t, err)
		_, ok := in.Detach(src.ID())
		require.True(t, ok)
		a.DidDisconnect(in.Port)
		assert.Equal(t, StatusPending, a.Status())

		out, err := a.OutPort("out")
		require.NoError(t, err)
		_, ok = out.Detach(sink.ID())
		require.True(t, ok)
		a.DidDisconnect(out.Port)
		assert.Equal(t, StatusReady, a.Status())
		assert.Nil(t, a.MigrationInfo())
	})
	t.Run("re-enabling a denied actor wakes the scheduler", func(t *testing.T) {
		f := newFixture(t)
		a, err := f.factory.Create("test.Counter", nil)
		require.NoError(t, err)
		feed(t, a, "in")
		drain(t, a, "out")

		f.authorizer.SetDecision(false)
		a.CheckAuthorization()
		require.True(t, a.Denied())
		f.waker.wakeups = nil

		f.authorizer.SetDecision(true)
		a.CheckAuthorization()
		assert.True(t, a.Enabled())
		assert.Equal(t, []string{a.ID()}, f.waker.wakeups)
	})
	t.Run("migration info is only accepted while denied", func(t *testing.T) {
		f := newFixture(t)
		a, err := f.factory.Create("test.Counter", nil)
		require.NoError(t, err)
		err = a.SetMigrationInfo(security.SearchReply{Status: http.StatusOK, NodeID: "node-2"})
		require.ErrorIs(t, err, gerrors.ErrInvalidActorState)
	})
}

func TestLifecycleEvents(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFixture(t, config.WithStrictTransitions())
	a, err := f.factory.Create("test.Counter", nil)
	require.NoError(t, err)
	require.Equal(t, StatusReady, a.Status())

	in, err := a.InPort("in")
	require.NoError(t, err)
	out, err := a.OutPort("out")
	require.NoError(t, err)

	var sources []*port.OutPort
	var sinks []*port.InPort
	allowed := true
	key := "migration-search:" + a.ID()
	rng := rand.New(rand.NewPCG(7, 11))

	for step := range 500 {
		before := a.Status()
		event := rng.IntN(7)
		switch event {
		case 0:
			sources = append(sources, feed(t, a, "in"))
		case 1:
			sinks = append(sinks, drain(t, a, "out"))
		case 2:
			if len(sources) > 0 {
				_, ok := in.Detach(sources[0].ID())
				require.True(t, ok)
				sources = sources[1:]
				a.DidDisconnect(in.Port)
			}
		case 3:
			if len(sinks) > 0 {
				_, ok := out.Detach(sinks[0].ID())
				require.True(t, ok)
				sinks = sinks[1:]
				a.DidDisconnect(out.Port)
			}
		case 4:
			allowed = false
			f.authorizer.SetDecision(false)
			a.CheckAuthorization()
		case 5:
			allowed = true
			f.authorizer.SetDecision(true)
			a.CheckAuthorization()
		case 6:
			f.waker.retry(key)
		}

		after := a.Status()
		require.NotEqual(t, StatusLoaded, after, "step %d", step)
		require.NotEqual(t, StatusMigratable, after, "step %d", step)
		if after == StatusEnabled {
			require.True(t, len(sources) > 0 && len(sinks) > 0, "step %d: enabled without connections", step)
			if before == StatusDenied {
				require.True(t, allowed, "step %d: enabled while unauthorized", step)
			}
		}
		if event == 4 && (before == StatusEnabled || before == StatusPending) {
			require.Equal(t, StatusDenied, after, "step %d", step)
		}
		if len(sources) == 0 && len(sinks) == 0 && before != StatusDenied {
			require.Equal(t, StatusReady, after, "step %d", step)
		}
		require.LessOrEqual(t, a.Behavior().(*counter).starts, 1)
	}
}
