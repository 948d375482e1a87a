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

	gerrors "github.com/tochemey/goflow/errors"
	"github.com/tochemey/goflow/port"
)

// Shadow stands in for an actor whose type is not registered on this
// runtime. It creates its ports on demand, keeps the partitions it cannot
// interpret as they are and is never enabled, so it only waits to be
// migrated to a runtime that knows its type.
type Shadow struct {
	*core
	args             Args
	managed          json.RawMessage
	custom           json.RawMessage
	replicationState json.RawMessage
}

// enforce compilation error
var _ Actor = (*Shadow)(nil)

// Args returns the constructor arguments the shadow was created with
func (s *Shadow) Args() Args {
	s.mu.Lock()
	defer s.mu.Unlock()
	args := make(Args, len(s.args))
	for k, v := range s.args {
		args[k] = v
	}
	return args
}

// InPort returns the named in port, creating it when missing
func (s *Shadow) InPort(name string) (*port.InPort, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.inports[name]; ok {
		return p, nil
	}
	return s.addInPort(name, port.Properties{})
}

// OutPort returns the named out port, creating it when missing
func (s *Shadow) OutPort(name string) (*port.OutPort, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.outports[name]; ok {
		return p, nil
	}
	return s.addOutPort(name, port.Properties{})
}

// Fire always fails: a shadow actor has no action table
func (s *Shadow) Fire() (FireResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return FireResult{OutputOK: true}, gerrors.NewErrActorNotEnabled(s.id, s.status.String())
}

// Serialize returns the state of the shadow with the partitions it holds
func (s *Shadow) Serialize() (*SerializedState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	private, err := s.private()
	if err != nil {
		return nil, err
	}
	state := &SerializedState{
		Private:  private,
		Managed:  cloneRaw(s.managed),
		Security: s.subject.Clone(),
		Custom:   cloneRaw(s.custom),
	}
	if s.replication != nil || s.replicationState != nil {
		state.Replication = &ReplicationState{
			Data:  copyReplication(s.replication),
			State: cloneRaw(s.replicationState),
		}
	}
	return state, nil
}

// State returns the state of the shadow
func (s *Shadow) State() (*SerializedState, error) {
	return s.Serialize()
}

// Deserialize restores the shadow from a snapshot of an actor of any type
func (s *Shadow) Deserialize(state *SerializedState) error {
	if err := checkSnapshot(state); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.restorePrivate(state.Private); err != nil {
		return err
	}
	if state.Private.Type != "" {
		s.typeTag = state.Private.Type
	}
	s.replication, s.replicationState = nil, nil
	if state.Replication != nil {
		s.replication = copyReplication(state.Replication.Data)
		s.replicationState = cloneRaw(state.Replication.State)
	}
	s.subject = state.Security.Clone()
	s.managed = cloneRaw(state.Managed)
	s.custom = cloneRaw(state.Custom)
	return nil
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	return append(json.RawMessage(nil), raw...)
}
