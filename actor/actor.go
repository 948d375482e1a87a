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
	"sort"
	"sync"

	goset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"github.com/zeebo/xxh3"
	"go.uber.org/atomic"

	gerrors "github.com/tochemey/goflow/errors"
	"github.com/tochemey/goflow/log"
	"github.com/tochemey/goflow/port"
	"github.com/tochemey/goflow/replication"
	"github.com/tochemey/goflow/security"
)

// Actor is a dataflow process hosted by a runtime
type Actor interface {
	// ID returns the actor id
	ID() string
	// Name returns the actor name
	Name() string
	// Type returns the actor type tag
	Type() string
	// Status returns the lifecycle status
	Status() Status
	// Enabled reports whether the actor can fire
	Enabled() bool
	// Denied reports whether the actor authorization was revoked
	Denied() bool
	// Migratable reports whether a migration target was found
	Migratable() bool
	// Signature returns the actor signature used by runtime searches
	Signature() string

	// InPort returns the named in port
	InPort(name string) (*port.InPort, error)
	// OutPort returns the named out port
	OutPort(name string) (*port.OutPort, error)
	// InPorts returns the in ports in declaration order
	InPorts() []*port.InPort
	// OutPorts returns the out ports in declaration order
	OutPorts() []*port.OutPort

	// SetupComplete moves a loaded actor to READY
	SetupComplete() error
	// DidConnect is called whenever an endpoint is added to one of the ports
	DidConnect(p *port.Port)
	// DidDisconnect is called whenever an endpoint is removed from one of the ports
	DidDisconnect(p *port.Port)
	// CheckAuthorization re-evaluates the authorization decision
	CheckAuthorization()
	// SetMigrationInfo records the outcome of a migration target search
	SetMigrationInfo(reply security.SearchReply) error

	// Fire runs the action selection engine once
	Fire() (FireResult, error)
	// Exhaust starts the exhaustion protocol
	Exhaust(callback func(ok bool))
	// ExhaustPeer marks a peer of an in port as exhausting
	ExhaustPeer(inport, peerID string) error
	// IsExhausting reports whether an exhaustion callback is pending
	IsExhausting() bool

	// WillMigrate prepares the actor for serialization on the source node
	WillMigrate()
	// DidMigrate is called once the actor is restored on the destination node
	DidMigrate()
	// WillEnd is called before the actor is destroyed
	WillEnd() error

	// Serialize returns the full state of the actor
	Serialize() (*SerializedState, error)
	// State returns the full state of the actor
	State() (*SerializedState, error)
	// Deserialize restores the actor from a serialized state
	Deserialize(state *SerializedState) error

	// Requirements returns the placement requirements of the actor
	Requirements() []Requirement
	// Connections returns the peers of every port
	Connections(nodeID string) Connections
}

// FireResult is the outcome of a firing
type FireResult struct {
	// DidFire is true when an action fired
	DidFire bool
	// OutputOK is true when an action fired. Otherwise it is false when an
	// evaluated action was blocked on output.
	OutputOK bool
	// Action is the name of the action that fired
	Action string
	// Exhausted lists the drained peers detached during the firing
	Exhausted []port.Peer
}

// Connections lists the peers of every port of an actor, keyed by port id
type Connections struct {
	ActorID   string                 `json:"actor_id"`
	ActorName string                 `json:"actor_name"`
	InPorts   map[string][]port.Peer `json:"inports"`
	OutPorts  map[string][]port.Peer `json:"outports"`
}

// core holds what concrete and shadow actors share: identity, ports,
// lifecycle, security, replication and the exhaustion protocol
type core struct {
	mu sync.Mutex

	rt     *RuntimeContext
	logger log.Logger
	ctx    *Context

	id         string
	name       string
	typeTag    string
	signature  string
	status     Status
	hasStarted bool

	inports      map[string]*port.InPort
	inportOrder  []string
	outports     map[string]*port.OutPort
	outportOrder []string

	deployReqs    []Requirement
	requires      []string
	migrationInfo *security.SearchReply
	subject       security.Subject
	replication   *replication.Data
	members       goset.Set[string]

	portCaps      []string
	portCapsDirty *atomic.Bool

	exhaustCB func(ok bool)

	// lifecycle hooks, nil for shadow actors
	hooks        Behavior
	shadow       bool
	shadowParams []string
}

func newCore(rt *RuntimeContext, id, name, typeTag string) *core {
	if id == "" {
		id = uuid.NewString()
	}
	c := &core{
		rt:            rt,
		id:            id,
		name:          name,
		typeTag:       typeTag,
		status:        StatusLoaded,
		inports:       make(map[string]*port.InPort),
		outports:      make(map[string]*port.OutPort),
		members:       goset.NewThreadUnsafeSet(id),
		portCapsDirty: atomic.NewBool(true),
	}
	c.logger = rt.logger.With("actor", id)
	c.ctx = &Context{rt: rt, actor: c}
	return c
}

func (c *core) portOptions(props port.Properties) []port.Option {
	cfg := c.rt.config
	return []port.Option{
		port.WithProperties(props),
		port.WithQueueCapacity(cfg.QueueCapacity),
		port.WithPressureSamples(cfg.PressureSamples),
		port.WithChangeListener(c.invalidatePortCaps),
	}
}

func (c *core) addInPort(name string, props port.Properties) (*port.InPort, error) {
	p, err := port.NewInPort(name, c.portOptions(props)...)
	if err != nil {
		return nil, err
	}
	c.inports[name] = p
	c.inportOrder = append(c.inportOrder, name)
	c.portCapsDirty.Store(true)
	return p, nil
}

func (c *core) addOutPort(name string, props port.Properties) (*port.OutPort, error) {
	p, err := port.NewOutPort(name, c.portOptions(props)...)
	if err != nil {
		return nil, err
	}
	c.outports[name] = p
	c.outportOrder = append(c.outportOrder, name)
	c.portCapsDirty.Store(true)
	return p, nil
}

// ID returns the actor id
func (c *core) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// Name returns the actor name
func (c *core) Name() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.name
}

// Type returns the actor type tag
func (c *core) Type() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.typeTag
}

// Status returns the lifecycle status
func (c *core) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Enabled reports whether the actor is ENABLED
func (c *core) Enabled() bool {
	return c.Status() == StatusEnabled
}

// Denied reports whether the actor is DENIED
func (c *core) Denied() bool {
	return c.Status() == StatusDenied
}

// Migratable reports whether the actor is MIGRATABLE
func (c *core) Migratable() bool {
	return c.Status() == StatusMigratable
}

// Signature returns the actor signature
func (c *core) Signature() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.signature
}

// MigrationInfo returns the last successful migration target search
func (c *core) MigrationInfo() *security.SearchReply {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.migrationInfo == nil {
		return nil
	}
	info := *c.migrationInfo
	return &info
}

// Subject returns the subject attributes of the actor
func (c *core) Subject() security.Subject {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subject.Clone()
}

// SetSubject sets the subject attributes of the actor
func (c *core) SetSubject(subject security.Subject) {
	c.mu.Lock()
	c.subject = subject.Clone()
	c.mu.Unlock()
}

// Replication returns the replication data of the actor
func (c *core) Replication() *replication.Data {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyReplication(c.replication)
}

// SetReplication sets the replication data of the actor
func (c *core) SetReplication(data *replication.Data) {
	c.mu.Lock()
	c.replication = copyReplication(data)
	c.mu.Unlock()
}

// ComponentMembers returns the sorted ids of the component the actor belongs to
func (c *core) ComponentMembers() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return sortedSet(c.members)
}

// SetComponentMembers sets the component the actor belongs to
func (c *core) SetComponentMembers(ids ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.members = goset.NewThreadUnsafeSet(ids...)
	if c.members.Cardinality() == 0 {
		c.members.Add(c.id)
	}
}

// InPort returns the named in port
func (c *core) InPort(name string) (*port.InPort, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.inports[name]
	if !ok {
		return nil, gerrors.NewErrPortNotFound(name)
	}
	return p, nil
}

// OutPort returns the named out port
func (c *core) OutPort(name string) (*port.OutPort, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.outports[name]
	if !ok {
		return nil, gerrors.NewErrPortNotFound(name)
	}
	return p, nil
}

// InPorts returns the in ports in declaration order
func (c *core) InPorts() []*port.InPort {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*port.InPort, 0, len(c.inportOrder))
	for _, name := range c.inportOrder {
		out = append(out, c.inports[name])
	}
	return out
}

// OutPorts returns the out ports in declaration order
func (c *core) OutPorts() []*port.OutPort {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*port.OutPort, 0, len(c.outportOrder))
	for _, name := range c.outportOrder {
		out = append(out, c.outports[name])
	}
	return out
}

// port returns the base port of the given direction. It does not lock the
// actor so behaviors can call it from action bodies.
func (c *core) port(dir port.Direction, name string) (*port.Port, error) {
	if dir == port.In {
		if p, ok := c.inports[name]; ok {
			return p.Port, nil
		}
	} else if p, ok := c.outports[name]; ok {
		return p.Port, nil
	}
	return nil, gerrors.NewErrPortNotFound(name)
}

// Connections returns the peers of every port keyed by port id. Peers
// without a node id are reported on nodeID.
func (c *core) Connections(nodeID string) Connections {
	c.mu.Lock()
	defer c.mu.Unlock()
	conns := Connections{
		ActorID:   c.id,
		ActorName: c.name,
		InPorts:   make(map[string][]port.Peer, len(c.inports)),
		OutPorts:  make(map[string][]port.Peer, len(c.outports)),
	}
	for _, p := range c.inports {
		conns.InPorts[p.ID()] = withNode(p.Peers(), nodeID)
	}
	for _, p := range c.outports {
		conns.OutPorts[p.ID()] = withNode(p.Peers(), nodeID)
	}
	return conns
}

// Exhaust starts the exhaustion protocol. Every peer of every in port is
// marked as exhausting and the actor keeps firing, even when not enabled,
// until they are drained. The callback is then invoked exactly once.
func (c *core) Exhaust(callback func(ok bool)) {
	c.mu.Lock()
	c.exhaustCB = callback
	for _, name := range c.inportOrder {
		p := c.inports[name]
		for _, ep := range p.Endpoints() {
			if !p.ExhaustPeer(ep.PeerID()) {
				continue
			}
			if _, detached := p.Detach(ep.PeerID()); detached {
				c.didDisconnect()
			}
		}
	}
	done := c.exhaustionDone()
	c.mu.Unlock()

	if done != nil {
		done(true)
	}
}

// ExhaustPeer marks a peer of an in port as exhausting. A peer with nothing
// left to read is detached right away.
func (c *core) ExhaustPeer(inport, peerID string) error {
	c.mu.Lock()
	p, ok := c.inports[inport]
	if !ok {
		c.mu.Unlock()
		return gerrors.NewErrPortNotFound(inport)
	}
	if p.ExhaustPeer(peerID) {
		if _, detached := p.Detach(peerID); detached {
			c.didDisconnect()
		}
	}
	done := c.exhaustionDone()
	c.mu.Unlock()

	if done != nil {
		done(true)
	}
	return nil
}

// IsExhausting reports whether an exhaustion callback is pending
func (c *core) IsExhausting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exhaustCB != nil
}

// exhaustionDone clears and returns the exhaustion callback once no in port
// has exhausting peers left. It must be called with the lock held.
func (c *core) exhaustionDone() func(bool) {
	if c.exhaustCB == nil {
		return nil
	}
	for _, p := range c.inports {
		if len(p.Exhausting()) > 0 {
			return nil
		}
	}
	cb := c.exhaustCB
	c.exhaustCB = nil
	return cb
}

// WillEnd releases the capabilities of the actor
func (c *core) WillEnd() error {
	c.mu.Lock()
	if ender, ok := c.hooks.(Ender); ok {
		ender.WillEnd(c.ctx)
	}
	id := c.id
	c.mu.Unlock()
	return c.rt.capabilities.CloseAll(id)
}

// WillMigrate calls the migration hook of the behavior
func (c *core) WillMigrate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if aware, ok := c.hooks.(MigrationAware); ok {
		aware.WillMigrate(c.ctx)
	}
}

// DidMigrate calls the migration hook of the behavior
func (c *core) DidMigrate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if aware, ok := c.hooks.(MigrationAware); ok {
		aware.DidMigrate(c.ctx)
	}
}

func (c *core) invalidatePortCaps() {
	c.portCapsDirty.Store(true)
}

func (c *core) allConnected() bool {
	for _, p := range c.inports {
		if !p.IsConnected() {
			return false
		}
	}
	for _, p := range c.outports {
		if !p.IsConnected() {
			return false
		}
	}
	return true
}

func (c *core) allDisconnected() bool {
	for _, p := range c.inports {
		if !p.IsDisconnected() {
			return false
		}
	}
	for _, p := range c.outports {
		if !p.IsDisconnected() {
			return false
		}
	}
	return true
}

func (c *core) anyConnected() bool {
	return len(c.inports)+len(c.outports) > 0 && !c.allDisconnected()
}

// signatureOf hashes the type tag and the port names of an actor
func signatureOf(typeTag string, inports, outports []string) string {
	in := append([]string(nil), inports...)
	out := append([]string(nil), outports...)
	sort.Strings(in)
	sort.Strings(out)
	b, _ := json.Marshal(map[string]any{
		"actor_type": typeTag,
		"inports":    in,
		"outports":   out,
	})
	return fmt.Sprintf("%016x", xxh3.Hash(b))
}

func withNode(peers []port.Peer, nodeID string) []port.Peer {
	for i := range peers {
		if peers[i].NodeID == "" {
			peers[i].NodeID = nodeID
		}
	}
	return peers
}

func sortedSet(set goset.Set[string]) []string {
	out := set.ToSlice()
	sort.Strings(out)
	return out
}
