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

package snapshot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tochemey/goflow/actor"
	"github.com/tochemey/goflow/config"
	gerrors "github.com/tochemey/goflow/errors"
	"github.com/tochemey/goflow/library"
	"github.com/tochemey/goflow/log"
	"github.com/tochemey/goflow/port"
	"github.com/tochemey/goflow/token"
)

// drainInto connects the named out port of the actor to a free standing in port
func drainInto(t *testing.T, a actor.Actor, name string) *port.InPort {
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

func fireAll(t *testing.T, a actor.Actor) {
	t.Helper()
	for {
		result, err := a.Fire()
		require.NoError(t, err)
		for _, out := range a.OutPorts() {
			out.Communicate()
		}
		if !result.DidFire {
			return
		}
	}
}

func readAll(t *testing.T, in *port.InPort) []any {
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

func TestCheckpoint(t *testing.T) {
	ctx := context.Background()

	t.Run("restored counter resumes counting", func(t *testing.T) {
		store := NewMemoryStore()
		codec := newCodec(t, WithCompression(CompressionZstd))

		counter, err := newFactory(t).Create(library.CounterTag, actor.Args{"limit": 5}, actor.WithActorID("counter-1"))
		require.NoError(t, err)
		out := drainInto(t, counter, "integer")
		require.True(t, counter.Enabled())

		for range 2 {
			_, err := counter.Fire()
			require.NoError(t, err)
		}
		mustOutPort(t, counter, "integer").Communicate()
		assert.Equal(t, []any{1, 2}, readAll(t, out))

		require.NoError(t, Checkpoint(ctx, store, codec, counter))

		restored, err := Restore(ctx, store, codec, newFactory(t), "counter-1")
		require.NoError(t, err)
		assert.Equal(t, "counter-1", restored.ID())
		assert.Equal(t, library.CounterTag, restored.Type())

		target := drainInto(t, restored, "integer")
		require.True(t, restored.Enabled())
		fireAll(t, restored)
		assert.Equal(t, []any{3, 4, 5}, readAll(t, target))
	})
	t.Run("migration releases the source capabilities", func(t *testing.T) {
		store := NewMemoryStore()
		codec := newCodec(t)
		factory := newFactory(t)

		sink, err := factory.Create(library.SinkTag, nil, actor.WithActorID("sink-1"))
		require.NoError(t, err)
		handle := sink.Behavior().(*library.Sink).Handle()
		capabilities := factory.Runtime().Capabilities()
		require.NoError(t, capabilities.Write(handle, "kept"))
		require.Len(t, capabilities.Handles("sink-1"), 1)

		require.NoError(t, Migrate(ctx, store, codec, sink))
		assert.Empty(t, capabilities.Handles("sink-1"))

		target := newFactory(t)
		restored, err := Restore(ctx, store, codec, target, "sink-1")
		require.NoError(t, err)
		assert.Equal(t, handle, restored.(*actor.Concrete).Behavior().(*library.Sink).Handle())
		value, err := target.Runtime().Capabilities().Read(handle)
		require.NoError(t, err)
		assert.Equal(t, "kept", value)
	})
	t.Run("unknown types come back as shadows", func(t *testing.T) {
		store := NewMemoryStore()
		codec := newCodec(t)

		identity, err := newFactory(t).Create(library.IdentityTag, nil, actor.WithActorID("identity-1"))
		require.NoError(t, err)
		require.NoError(t, Checkpoint(ctx, store, codec, identity))

		cfg, err := config.New(testNode, config.WithLogger(log.DiscardLogger))
		require.NoError(t, err)
		empty := actor.NewFactory(actor.NewRegistry(), actor.NewRuntimeContext(cfg))

		restored, err := Restore(ctx, store, codec, empty, "identity-1")
		require.NoError(t, err)
		shadow, ok := restored.(*actor.Shadow)
		require.True(t, ok)
		assert.Equal(t, library.IdentityTag, shadow.Type())
		_, err = shadow.InPort("token")
		require.NoError(t, err)
	})
	t.Run("missing snapshot", func(t *testing.T) {
		_, err := Restore(ctx, NewMemoryStore(), newCodec(t), newFactory(t), "nobody")
		require.ErrorIs(t, err, gerrors.ErrSnapshotNotFound)
	})
	t.Run("batch checkpoint and restore", func(t *testing.T) {
		store := NewMemoryStore()
		codec := newCodec(t, WithCompression(CompressionBrotli))
		factory := newFactory(t)

		var actors []actor.Actor
		for _, id := range []string{"c-1", "c-2", "c-3"} {
			a, err := factory.Create(library.CounterTag, actor.Args{"start": 1}, actor.WithActorID(id))
			require.NoError(t, err)
			actors = append(actors, a)
		}
		require.NoError(t, CheckpointAll(ctx, store, codec, actors...))
		require.NoError(t, store.Save(ctx, "c-4", []byte("garbage")))

		restored, err := RestoreAll(ctx, store, codec, newFactory(t))
		require.ErrorIs(t, err, gerrors.ErrCorruptSnapshot)
		ids := make([]string, 0, len(restored))
		for _, a := range restored {
			ids = append(ids, a.ID())
		}
		assert.ElementsMatch(t, []string{"c-1", "c-2", "c-3"}, ids)
	})
	t.Run("closed store", func(t *testing.T) {
		store := NewMemoryStore()
		require.NoError(t, store.Close())
		a, err := newFactory(t).Create(library.SumTag, nil)
		require.NoError(t, err)
		require.ErrorIs(t, Checkpoint(ctx, store, newCodec(t), a), gerrors.ErrStoreClosed)
		_, err = RestoreAll(ctx, store, newCodec(t), newFactory(t))
		require.ErrorIs(t, err, gerrors.ErrStoreClosed)
	})
	t.Run("tokens in flight travel with the snapshot", func(t *testing.T) {
		store := NewMemoryStore()
		codec := newCodec(t)
		factory := newFactory(t)

		identity, err := factory.Create(library.IdentityTag, nil, actor.WithActorID("identity-2"))
		require.NoError(t, err)
		src, err := port.NewOutPort("src", port.WithQueueCapacity(8))
		require.NoError(t, err)
		in, err := identity.InPort("token")
		require.NoError(t, err)
		src.Attach(port.NewLocalOutEndpoint(src, in, testNode))
		in.Attach(port.NewLocalInEndpoint(in, src, testNode))
		identity.DidConnect(in.Port)
		require.NoError(t, src.Write(token.New("a")))
		require.NoError(t, src.Write(token.New("b")))
		src.Communicate()

		require.NoError(t, Checkpoint(ctx, store, codec, identity))
		restored, err := Restore(ctx, store, codec, newFactory(t), "identity-2")
		require.NoError(t, err)

		restoredIn, err := restored.InPort("token")
		require.NoError(t, err)
		assert.True(t, restoredIn.TokensAvailable(2))
	})
}

func mustOutPort(t *testing.T, a actor.Actor, name string) *port.OutPort {
	t.Helper()
	out, err := a.OutPort(name)
	require.NoError(t, err)
	return out
}
