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

package port

import (
	"sync"

	"github.com/google/uuid"

	gerrors "github.com/tochemey/goflow/errors"
	"github.com/tochemey/goflow/token"
)

const (
	// DefaultQueueCapacity is the queue capacity used when none is configured
	DefaultQueueCapacity = 4
	// DefaultPressureSamples is the pressure ring size used when none is configured
	DefaultPressureSamples = 20
)

// Option is the interface that applies a port option.
type Option interface {
	// Apply sets the Option value of a port.
	Apply(p *Port)
}

// enforce compilation error
var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(*Port)

func (f OptionFunc) Apply(p *Port) {
	f(p)
}

// WithID sets the port id
func WithID(id string) Option {
	return OptionFunc(func(p *Port) {
		p.id = id
	})
}

// WithProperties sets the port properties
func WithProperties(props Properties) Option {
	return OptionFunc(func(p *Port) {
		p.properties = props
	})
}

// WithQueueCapacity sets the default queue capacity
func WithQueueCapacity(capacity int) Option {
	return OptionFunc(func(p *Port) {
		p.capacity = capacity
	})
}

// WithPressureSamples sets the size of the pressure ring
func WithPressureSamples(samples int) Option {
	return OptionFunc(func(p *Port) {
		p.samples = samples
	})
}

// WithChangeListener sets the function called whenever the port properties change
func WithChangeListener(fn func()) Option {
	return OptionFunc(func(p *Port) {
		p.onChange = fn
	})
}

// State is the serializable form of a port
type State struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Direction  Direction   `json:"direction"`
	Properties Properties  `json:"properties"`
	Queue      *QueueState `json:"queue"`
	Peers      []Peer      `json:"peers"`
}

// Port is the part shared by in and out ports: identity, properties,
// endpoints and the token queue
type Port struct {
	mu         sync.RWMutex
	id         string
	name       string
	direction  Direction
	properties Properties
	endpoints  []Endpoint
	q          Queue
	capacity   int
	samples    int
	onChange   func()
}

func newPort(name string, dir Direction, opts ...Option) (*Port, error) {
	p := &Port{
		id:        uuid.NewString(),
		name:      name,
		direction: dir,
		capacity:  DefaultQueueCapacity,
		samples:   DefaultPressureSamples,
	}
	for _, opt := range opts {
		opt.Apply(p)
	}
	if err := p.properties.Validate(dir); err != nil {
		return nil, err
	}
	p.q = p.newQueue()
	return p, nil
}

// ID returns the port id
func (p *Port) ID() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.id
}

// Name returns the port name
func (p *Port) Name() string {
	return p.name
}

// Direction returns the port direction
func (p *Port) Direction() Direction {
	return p.direction
}

// Properties returns the port properties
func (p *Port) Properties() Properties {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.properties
}

// Queue returns the port queue
func (p *Port) Queue() Queue {
	return p.queue()
}

// SetProperties replaces the port properties. The queue is rebuilt to match
// the new routing only while the port has no endpoints.
func (p *Port) SetProperties(props Properties) error {
	if err := props.Validate(p.direction); err != nil {
		return err
	}
	p.mu.Lock()
	p.properties = props
	if len(p.endpoints) == 0 {
		p.q = p.newQueue()
	}
	onChange := p.onChange
	p.mu.Unlock()

	if onChange != nil {
		onChange()
	}
	return nil
}

// SetChangeListener sets the function called whenever the port properties change
func (p *Port) SetChangeListener(fn func()) {
	p.mu.Lock()
	p.onChange = fn
	p.mu.Unlock()
}

// Attach adds an endpoint. An endpoint to the same peer is replaced.
func (p *Port) Attach(endpoint Endpoint) {
	p.mu.Lock()
	defer p.mu.Unlock()
	peerID := endpoint.PeerID()
	replaced := false
	for i, ep := range p.endpoints {
		if ep.PeerID() == peerID {
			p.endpoints[i] = endpoint
			replaced = true
			break
		}
	}
	if !replaced {
		p.endpoints = append(p.endpoints, endpoint)
	}

	if p.direction == In {
		p.q.AddWriter(peerID, endpoint.PeerTag())
		return
	}
	p.q.AddReader(peerID)
}

// Detach removes the endpoint to the given peer and returns it
func (p *Port) Detach(peerID string) (Endpoint, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, ep := range p.endpoints {
		if ep.PeerID() != peerID {
			continue
		}
		p.endpoints = append(p.endpoints[:i:i], p.endpoints[i+1:]...)
		if p.direction == In {
			p.q.RemoveWriter(peerID)
		} else {
			p.q.RemoveReader(peerID)
		}
		return ep, true
	}
	return nil, false
}

// Endpoints returns the port endpoints
func (p *Port) Endpoints() []Endpoint {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Endpoint, len(p.endpoints))
	copy(out, p.endpoints)
	return out
}

// Peers returns the peers of the port in connection order
func (p *Port) Peers() []Peer {
	p.mu.RLock()
	defer p.mu.RUnlock()
	peers := make([]Peer, 0, len(p.endpoints))
	for _, ep := range p.endpoints {
		peers = append(peers, Peer{NodeID: ep.PeerNodeID(), PortID: ep.PeerID()})
	}
	return peers
}

// IsConnected reports whether the port has enough live peers. A port expects
// one peer unless its NbrPeers property says otherwise.
func (p *Port) IsConnected() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	want := p.properties.NbrPeers
	if want < 1 {
		want = 1
	}
	return p.liveEndpoints() >= want
}

// IsDisconnected reports whether the port has no live peer
func (p *Port) IsDisconnected() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.liveEndpoints() == 0
}

// Pressure returns the depth history of the port queue
func (p *Port) Pressure() []Sample {
	return p.queue().Pressure()
}

// State returns the serializable state of the port
func (p *Port) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	peers := make([]Peer, 0, len(p.endpoints))
	for _, ep := range p.endpoints {
		peers = append(peers, Peer{NodeID: ep.PeerNodeID(), PortID: ep.PeerID()})
	}
	return State{
		ID:         p.id,
		Name:       p.name,
		Direction:  p.direction,
		Properties: p.properties,
		Queue:      p.q.State(),
		Peers:      peers,
	}
}

// SetState restores the port from a serialized state. Peers are restored as
// disconnected tunnel endpoints until they reconnect.
func (p *Port) SetState(state State) error {
	if state.Direction != "" && state.Direction != p.direction {
		return gerrors.ErrInvalidQueueState
	}
	if err := state.Properties.Validate(p.direction); err != nil {
		return err
	}
	queue, err := NewQueueFromState(state.Queue, p.samples)
	if err != nil {
		return err
	}

	endpoints := make([]Endpoint, 0, len(state.Peers))
	for _, peer := range state.Peers {
		tag := ""
		if state.Queue != nil {
			tag = state.Queue.Tags[peer.PortID]
		}
		endpoints = append(endpoints, NewTunnelEndpoint(peer, tag, false, nil))
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if state.ID != "" {
		p.id = state.ID
	}
	if state.Name != "" {
		p.name = state.Name
	}
	p.properties = state.Properties
	p.q = queue
	p.endpoints = endpoints
	return nil
}

func (p *Port) queue() Queue {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.q
}

func (p *Port) newQueue() Queue {
	q := NewQueue(p.direction, p.properties, p.capacity, p.samples)
	if p.direction == In {
		q.AddReader(p.id)
	} else {
		q.AddWriter(p.id, p.properties.Tag)
	}
	return q
}

func (p *Port) liveEndpoints() int {
	live := 0
	for _, ep := range p.endpoints {
		if ep.IsConnected() {
			live++
		}
	}
	return live
}

// InPort is a port actions read tokens from
type InPort struct {
	*Port
}

// NewInPort creates an InPort
func NewInPort(name string, opts ...Option) (*InPort, error) {
	p, err := newPort(name, In, opts...)
	if err != nil {
		return nil, err
	}
	return &InPort{Port: p}, nil
}

// TokensAvailable reports whether n tokens can be read
func (p *InPort) TokensAvailable(n int) bool {
	return p.queue().TokensAvailable(n, p.ID())
}

// Peek tentatively reads the next token. The boolean reports whether this
// read drains a peer that signalled end-of-stream.
func (p *InPort) Peek() (*token.Token, bool, error) {
	return p.queue().Peek(p.ID())
}

// Commit makes the tentative reads final and returns the peers now drained
func (p *InPort) Commit() []string {
	return p.queue().Commit(p.ID())
}

// Cancel rolls back the tentative reads
func (p *InPort) Cancel() {
	p.queue().Cancel(p.ID())
}

// ExhaustPeer marks the peer as exhausting. It returns true when the peer
// had nothing left to read.
func (p *InPort) ExhaustPeer(peerID string) bool {
	return p.queue().Exhaust(peerID)
}

// Exhausting returns the peers still being drained
func (p *InPort) Exhausting() []string {
	return p.queue().Exhausting()
}

// OutPort is a port actions write tokens to
type OutPort struct {
	*Port
}

// NewOutPort creates an OutPort
func NewOutPort(name string, opts ...Option) (*OutPort, error) {
	p, err := newPort(name, Out, opts...)
	if err != nil {
		return nil, err
	}
	return &OutPort{Port: p}, nil
}

// SlotsAvailable reports whether n tokens can be written
func (p *OutPort) SlotsAvailable(n int) bool {
	return p.queue().SlotsAvailable(n, p.ID())
}

// Write appends a token to the port queue
func (p *OutPort) Write(tok *token.Token) error {
	return p.queue().Write(tok, p.ID())
}

// Communicate pushes pending tokens through every endpoint. It reports
// whether any token moved.
func (p *OutPort) Communicate() bool {
	moved := false
	for _, ep := range p.Endpoints() {
		if ep.Communicate() {
			moved = true
		}
	}
	return moved
}
