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
	"sort"

	goset "github.com/deckarep/golang-set/v2"

	"github.com/tochemey/goflow/capability"
	gerrors "github.com/tochemey/goflow/errors"
	"github.com/tochemey/goflow/port"
	"github.com/tochemey/goflow/replication"
	"github.com/tochemey/goflow/security"
)

// SerializedState is the partitioned snapshot of an actor. Partitions are
// restored in field order.
type SerializedState struct {
	Private     *PrivateState     `json:"private"`
	Replication *ReplicationState `json:"replication,omitempty"`
	Managed     json.RawMessage   `json:"managed,omitempty"`
	Security    security.Subject  `json:"security,omitempty"`
	Custom      json.RawMessage   `json:"custom,omitempty"`
}

// PrivateState holds the port states and the framework fields of an actor
type PrivateState struct {
	ID                       string                             `json:"id"`
	Name                     string                             `json:"name"`
	Type                     string                             `json:"type"`
	HasStarted               bool                               `json:"has_started"`
	DeploymentRequirements   []Requirement                      `json:"deployment_requirements,omitempty"`
	Signature                string                             `json:"signature"`
	MigrationInfo            *security.SearchReply              `json:"migration_info,omitempty"`
	PortPropertyCapabilities []string                           `json:"port_property_capabilities,omitempty"`
	ReplicationID            string                             `json:"replication_id,omitempty"`
	Requires                 []string                           `json:"requires,omitempty"`
	ComponentMembers         []string                           `json:"component_members,omitempty"`
	ShadowParams             []string                           `json:"shadow_params,omitempty"`
	InPorts                  map[string]port.State              `json:"inports"`
	OutPorts                 map[string]port.State              `json:"outports"`
	Capabilities             map[string]capability.ObjectState `json:"capabilities,omitempty"`
}

// ReplicationState is the replication partition of a snapshot
type ReplicationState struct {
	Data  *replication.Data `json:"data,omitempty"`
	State json.RawMessage   `json:"state,omitempty"`
}

// Serialize returns the full state of the actor
func (a *Concrete) Serialize() (*SerializedState, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	private, err := a.private()
	if err != nil {
		return nil, err
	}
	state := &SerializedState{
		Private:  private,
		Security: a.subject.Clone(),
	}

	var replicationState json.RawMessage
	if replicator, ok := a.behavior.(Replicator); ok {
		if raw, ok := replicator.ReplicationState(); ok {
			replicationState = raw
		}
	}
	if a.replication != nil || replicationState != nil {
		state.Replication = &ReplicationState{Data: copyReplication(a.replication), State: replicationState}
	}

	if managed, ok := a.behavior.(ManagedStater); ok {
		if state.Managed, err = json.Marshal(managed.Managed()); err != nil {
			return nil, err
		}
	}
	if custom, ok := a.behavior.(CustomStater); ok {
		if state.Custom, err = custom.CustomState(); err != nil {
			return nil, err
		}
	}
	return state, nil
}

// State returns the full state of the actor
func (a *Concrete) State() (*SerializedState, error) {
	return a.Serialize()
}

// Deserialize restores the actor from a snapshot. The private partition is
// required, every other partition is optional.
func (a *Concrete) Deserialize(state *SerializedState) error {
	if err := checkSnapshot(state); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.restorePrivate(state.Private); err != nil {
		return err
	}

	if state.Replication != nil {
		a.replication = copyReplication(state.Replication.Data)
		if replicator, ok := a.behavior.(Replicator); ok && len(state.Replication.State) > 0 {
			if err := replicator.SetReplicationState(state.Replication.State); err != nil {
				return err
			}
		}
	}

	a.subject = state.Security.Clone()

	if managed, ok := a.behavior.(ManagedStater); ok && len(state.Managed) > 0 {
		if err := json.Unmarshal(state.Managed, managed.Managed()); err != nil {
			return err
		}
	}
	if custom, ok := a.behavior.(CustomStater); ok && len(state.Custom) > 0 {
		if err := custom.SetCustomState(state.Custom); err != nil {
			return err
		}
	}
	return nil
}

// ManagedKeys returns the sorted keys of the managed state
func (a *Concrete) ManagedKeys() ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	managed, ok := a.behavior.(ManagedStater)
	if !ok {
		return nil, nil
	}
	b, err := json.Marshal(managed.Managed())
	if err != nil {
		return nil, err
	}
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, err
	}
	keys := goset.NewThreadUnsafeSet[string]()
	for key := range fields {
		keys.Add(key)
	}
	return sortedSet(keys), nil
}

// private builds the private partition. It must be called with the lock held.
func (c *core) private() (*PrivateState, error) {
	caps, err := c.rt.capabilities.Serialize(c.id)
	if err != nil {
		return nil, err
	}
	state := &PrivateState{
		ID:                       c.id,
		Name:                     c.name,
		Type:                     c.typeTag,
		HasStarted:               c.hasStarted,
		DeploymentRequirements:   copyRequirements(c.deployReqs),
		Signature:                c.signature,
		PortPropertyCapabilities: c.portCapabilities(),
		Requires:                 append([]string(nil), c.requires...),
		ComponentMembers:         sortedSet(c.members),
		ShadowParams:             append([]string(nil), c.shadowParams...),
		InPorts:                  make(map[string]port.State, len(c.inports)),
		OutPorts:                 make(map[string]port.State, len(c.outports)),
		Capabilities:             caps,
	}
	if c.migrationInfo != nil {
		info := *c.migrationInfo
		state.MigrationInfo = &info
	}
	if c.replication.IsReplicated() {
		state.ReplicationID = c.replication.ID
	}
	for name, p := range c.inports {
		state.InPorts[name] = p.State()
	}
	for name, p := range c.outports {
		state.OutPorts[name] = p.State()
	}
	return state, nil
}

// restorePrivate applies the private partition. Shadow actors create the
// ports they do not know yet. It must be called with the lock held.
func (c *core) restorePrivate(state *PrivateState) error {
	for _, name := range sortedKeys(state.InPorts) {
		p, ok := c.inports[name]
		if !ok {
			if !c.shadow {
				return gerrors.NewErrMalformedSnapshot("inports." + name)
			}
			var err error
			if p, err = c.addInPort(name, port.Properties{}); err != nil {
				return err
			}
		}
		if err := p.SetState(state.InPorts[name]); err != nil {
			return err
		}
	}
	for _, name := range sortedKeys(state.OutPorts) {
		p, ok := c.outports[name]
		if !ok {
			if !c.shadow {
				return gerrors.NewErrMalformedSnapshot("outports." + name)
			}
			var err error
			if p, err = c.addOutPort(name, port.Properties{}); err != nil {
				return err
			}
		}
		if err := p.SetState(state.OutPorts[name]); err != nil {
			return err
		}
	}

	c.id = state.ID
	c.name = state.Name
	c.logger = c.rt.logger.With("actor", c.id)
	c.hasStarted = state.HasStarted
	c.deployReqs = copyRequirements(state.DeploymentRequirements)
	if state.Signature != "" {
		c.signature = state.Signature
	}
	c.migrationInfo = nil
	if state.MigrationInfo != nil {
		info := *state.MigrationInfo
		c.migrationInfo = &info
	}
	if len(state.Requires) > 0 {
		c.requires = append([]string(nil), state.Requires...)
	}
	c.members = goset.NewThreadUnsafeSet(state.ComponentMembers...)
	if c.members.Cardinality() == 0 {
		c.members.Add(c.id)
	}
	if len(state.ShadowParams) > 0 {
		c.shadowParams = append([]string(nil), state.ShadowParams...)
	}
	c.portCaps = append([]string(nil), state.PortPropertyCapabilities...)
	c.portCapsDirty.Store(len(c.portCaps) == 0)

	return c.rt.capabilities.Deserialize(c.id, state.Capabilities)
}

func checkSnapshot(state *SerializedState) error {
	switch {
	case state == nil || state.Private == nil:
		return gerrors.NewErrMalformedSnapshot("private")
	case state.Private.ID == "":
		return gerrors.NewErrMalformedSnapshot("private.id")
	case state.Private.InPorts == nil:
		return gerrors.NewErrMalformedSnapshot("private.inports")
	case state.Private.OutPorts == nil:
		return gerrors.NewErrMalformedSnapshot("private.outports")
	}
	return nil
}

func copyReplication(data *replication.Data) *replication.Data {
	if data == nil {
		return nil
	}
	copied := *data
	copied.Instances = append([]string(nil), data.Instances...)
	return &copied
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
