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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	gerrors "github.com/tochemey/goflow/errors"
	"github.com/tochemey/goflow/port"
	"github.com/tochemey/goflow/replication"
	"github.com/tochemey/goflow/security"
)

func roundTrip(t *testing.T, state *SerializedState) *SerializedState {
	t.Helper()
	b, err := json.Marshal(state)
	require.NoError(t, err)
	decoded := new(SerializedState)
	require.NoError(t, json.Unmarshal(b, decoded))
	return decoded
}

func requireSameState(t *testing.T, expected, actual Actor) {
	t.Helper()
	want, err := expected.State()
	require.NoError(t, err)
	got, err := actual.State()
	require.NoError(t, err)
	wantJSON, err := json.Marshal(want)
	require.NoError(t, err)
	gotJSON, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, string(wantJSON), string(gotJSON))
}

func TestSerialization(t *testing.T) {
	defer goleak.VerifyNone(t)

	t.Run("migrated actor resumes where it stopped", func(t *testing.T) {
		source := newFixture(t)
		a, err := source.factory.Create("test.Counter", nil,
			WithActorID("counter-1"),
			WithName("counter"),
			WithSubject(security.Subject{"user": "alice"}),
			WithDeploymentRequirements(Requirement{Op: "node_attr_match", Kwargs: map[string]any{"zone": "eu"}, Type: Intersect}),
		)
		require.NoError(t, err)
		c := a.Behavior().(*counter)
		c.state.Count = 42
		c.note = "hello"
		handle, err := a.ctx.Open("io.buffer", nil)
		require.NoError(t, err)
		require.NoError(t, a.ctx.Write(handle, "x"))

		src := feed(t, a, "in")
		send(t, src, "a", "b")
		require.Equal(t, StatusPending, a.Status())

		a.WillMigrate()
		state, err := a.Serialize()
		require.NoError(t, err)
		assert.Nil(t, state.Replication)
		assert.JSONEq(t, `{"count":42,"label":""}`, string(state.Managed))
		assert.JSONEq(t, `{"note":"hello"}`, string(state.Custom))

		destination := newFixture(t)
		restored, err := destination.factory.Restore(roundTrip(t, state))
		require.NoError(t, err)
		r, ok := restored.(*Concrete)
		require.True(t, ok)

		rc := r.Behavior().(*counter)
		assert.Nil(t, rc.initArgs)
		assert.Equal(t, 1, rc.migrated)
		assert.Equal(t, 42, rc.state.Count)
		assert.Equal(t, "hello", rc.note)
		assert.Equal(t, StatusReady, r.Status())
		assert.Equal(t, "counter-1", r.ID())
		assert.Equal(t, "counter", r.Name())
		assert.Equal(t, a.Signature(), r.Signature())
		assert.Equal(t, security.Subject{"user": "alice"}, r.Subject())
		assert.Equal(t, a.Connections(testNode), r.Connections(testNode))
		assert.Equal(t, []string{handle}, destination.factory.Runtime().Capabilities().Handles("counter-1"))
		requireSameState(t, a, r)

		in, err := r.InPort("in")
		require.NoError(t, err)
		require.True(t, in.TokensAvailable(2))
		var buffered []any
		for i := 0; i < 2; i++ {
			tok, _, err := in.Peek()
			require.NoError(t, err)
			buffered = append(buffered, tok.Value())
		}
		in.Cancel()
		assert.Equal(t, []any{"a", "b"}, buffered)

		// identical firing sequences on both sides
		sink := drain(t, a, "out")
		feed(t, r, "in", port.WithID(src.ID()))
		rsink := drain(t, r, "out")
		require.True(t, a.Enabled())
		require.True(t, r.Enabled())

		var want, got []any
		for i := 0; i < 2; i++ {
			_, err := a.Fire()
			require.NoError(t, err)
			_, err = r.Fire()
			require.NoError(t, err)
			want = append(want, collect(t, a, "out", sink)...)
			got = append(got, collect(t, r, "out", rsink)...)
		}
		assert.Equal(t, []any{"a#43", "b#44"}, want)
		assert.Equal(t, want, got)
	})
	t.Run("replication partition", func(t *testing.T) {
		f := newFixture(t)
		data := &replication.Data{ID: "rep-1", OriginalActorID: "a-0", Index: 2, Instances: []string{"a-0", "a-1"}}
		a, err := f.factory.Create("test.Counter", nil, WithReplication(data))
		require.NoError(t, err)

		state, err := a.Serialize()
		require.NoError(t, err)
		require.NotNil(t, state.Replication)
		assert.Equal(t, "rep-1", state.Private.ReplicationID)

		restored, err := newFixture(t).factory.Restore(roundTrip(t, state))
		require.NoError(t, err)
		assert.Equal(t, data, restored.(*Concrete).Replication())
	})
	t.Run("missing private keys are fatal", func(t *testing.T) {
		f := newFixture(t)
		a, err := f.factory.Create("test.Counter", nil)
		require.NoError(t, err)

		for _, state := range []*SerializedState{
			nil,
			{},
			{Private: &PrivateState{InPorts: map[string]port.State{}, OutPorts: map[string]port.State{}}},
			{Private: &PrivateState{ID: "x", OutPorts: map[string]port.State{}}},
			{Private: &PrivateState{ID: "x", InPorts: map[string]port.State{}}},
		} {
			err := a.Deserialize(state)
			require.ErrorIs(t, err, gerrors.ErrMalformedSnapshot)
			assert.True(t, gerrors.IsFatal(err))
		}

		_, err = f.factory.Restore(&SerializedState{})
		require.ErrorIs(t, err, gerrors.ErrMalformedSnapshot)
	})
	t.Run("unknown ports are rejected", func(t *testing.T) {
		f := newFixture(t)
		a, err := f.factory.Create("test.Counter", nil)
		require.NoError(t, err)
		state, err := a.Serialize()
		require.NoError(t, err)
		state.Private.InPorts["extra"] = state.Private.InPorts["in"]
		require.ErrorIs(t, a.Deserialize(state), gerrors.ErrMalformedSnapshot)
	})
	t.Run("managed keys", func(t *testing.T) {
		f := newFixture(t)
		a, err := f.factory.Create("test.Counter", nil)
		require.NoError(t, err)
		keys, err := a.ManagedKeys()
		require.NoError(t, err)
		assert.Equal(t, []string{"count", "label"}, keys)

		b, err := f.factory.Create("std.Sum", nil)
		require.NoError(t, err)
		keys, err = b.ManagedKeys()
		require.NoError(t, err)
		assert.Empty(t, keys)
	})
}

func TestShadow(t *testing.T) {
	defer goleak.VerifyNone(t)

	t.Run("unknown types are restored as shadows", func(t *testing.T) {
		source := newFixture(t)
		a, err := source.factory.Create("test.Counter", nil)
		require.NoError(t, err)
		a.Behavior().(*counter).state.Count = 7
		send(t, feed(t, a, "in"), "a")
		state, err := a.Serialize()
		require.NoError(t, err)

		// a runtime that does not know the type
		destination := newFixture(t)
		destination.registry = NewRegistry()
		destination.factory = NewFactory(destination.registry, destination.factory.Runtime())

		restored, err := destination.factory.Restore(roundTrip(t, state))
		require.NoError(t, err)
		s, ok := restored.(*Shadow)
		require.True(t, ok)
		assert.Equal(t, "test.Counter", s.Type())
		assert.Equal(t, StatusReady, s.Status())
		assert.Equal(t, a.Connections(testNode), s.Connections(testNode))
		requireSameState(t, a, s)

		feed(t, s, "in")
		drain(t, s, "out")
		assert.False(t, s.Enabled())
		_, err = s.Fire()
		require.ErrorIs(t, err, gerrors.ErrActorNotEnabled)

		reqs := s.Requirements()
		require.Len(t, reqs, 1)
		assert.Equal(t, RequirementShadowActor, reqs[0].Op)
		assert.Equal(t, a.Signature(), reqs[0].Kwargs["signature"])

		// moving it back to a runtime that knows the type
		back, err := source.factory.Restore(roundTrip(t, mustState(t, s)))
		require.NoError(t, err)
		assert.Equal(t, 7, back.(*Concrete).Behavior().(*counter).state.Count)
	})
	t.Run("ports are created on demand", func(t *testing.T) {
		f := newFixture(t)
		s, err := f.factory.CreateShadow("remote.Type", Args{"b": 1, "a": 2}, WithActorID("shadow-1"))
		require.NoError(t, err)
		assert.Equal(t, StatusReady, s.Status())
		assert.Equal(t, Args{"a": 2, "b": 1}, s.Args())

		in, err := s.InPort("x")
		require.NoError(t, err)
		again, err := s.InPort("x")
		require.NoError(t, err)
		assert.Same(t, in, again)
		_, err = s.OutPort("y")
		require.NoError(t, err)
		assert.Len(t, s.InPorts(), 1)
		assert.Len(t, s.OutPorts(), 1)

		reqs := s.Requirements()
		require.Len(t, reqs, 1)
		assert.Equal(t, []string{"a", "b"}, reqs[0].Kwargs["shadow_params"])
	})
}

func mustState(t *testing.T, a Actor) *SerializedState {
	t.Helper()
	state, err := a.State()
	require.NoError(t, err)
	return state
}

func TestRequirements(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFixture(t)
	a, err := f.factory.Create("test.Counter", nil,
		WithDeploymentRequirements(Requirement{Op: "node_attr_match", Kwargs: map[string]any{"zone": "eu"}, Type: Intersect}),
		WithReplication(&replication.Data{ID: "rep-1", Index: 1}),
	)
	require.NoError(t, err)

	reqs := a.Requirements()
	require.Len(t, reqs, 4)
	assert.Equal(t, "node_attr_match", reqs[0].Op)
	assert.Equal(t, RequirementActorReqs, reqs[1].Op)
	assert.Equal(t, []string{"sys.timer"}, reqs[1].Kwargs["requires"])
	assert.Equal(t, RequirementPortProperty, reqs[2].Op)
	before := reqs[2].Kwargs["port_property"]
	assert.Equal(t, replication.RequirementOp, reqs[3].Op)
	assert.Equal(t, Exclude, reqs[3].Type)
	assert.Equal(t, map[string]any{"replication_id": "rep-1", "index": 1}, reqs[3].Kwargs)

	// changing a port property invalidates the cached capabilities
	require.NoError(t, a.ctx.SetPortProperties(port.In, "in", port.Properties{Routing: port.RoutingCollectTagged}))
	after := a.Requirements()[2].Kwargs["port_property"]
	assert.NotEqual(t, before, after)
	assert.Equal(t, after, a.Requirements()[2].Kwargs["port_property"])

	require.ErrorIs(t, a.ctx.SetPortProperties(port.In, "missing", port.Properties{}), gerrors.ErrPortNotFound)
}
