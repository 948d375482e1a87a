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

	"go.uber.org/atomic"
)

// Peer identifies the port at the other end of a connection
type Peer struct {
	NodeID string `json:"node_id"`
	PortID string `json:"port_id"`
}

// Endpoint is one connection of a port to exactly one peer port
type Endpoint interface {
	// PeerID returns the peer port id
	PeerID() string
	// PeerNodeID returns the id of the node hosting the peer port
	PeerNodeID() string
	// PeerTag returns the tag the peer is known by in collect-tagged queues
	PeerTag() string
	// IsConnected reports whether the peer is live
	IsConnected() bool
	// Communicate moves the tokens that can be moved. It reports whether
	// any token moved.
	Communicate() bool
}

// LocalOutEndpoint connects an out port to an in port hosted by the same node.
// It moves tokens from the out port queue into the in port queue.
type LocalOutEndpoint struct {
	out    *OutPort
	in     *InPort
	nodeID string
}

var _ Endpoint = (*LocalOutEndpoint)(nil)

// NewLocalOutEndpoint creates a LocalOutEndpoint
func NewLocalOutEndpoint(out *OutPort, in *InPort, nodeID string) *LocalOutEndpoint {
	return &LocalOutEndpoint{out: out, in: in, nodeID: nodeID}
}

// PeerID returns the in port id
func (e *LocalOutEndpoint) PeerID() string { return e.in.ID() }

// PeerNodeID returns the node id
func (e *LocalOutEndpoint) PeerNodeID() string { return e.nodeID }

// PeerTag returns the in port id
func (e *LocalOutEndpoint) PeerTag() string { return e.in.ID() }

// IsConnected always returns true
func (e *LocalOutEndpoint) IsConnected() bool { return true }

// Communicate moves tokens until the out queue is empty for this peer or the
// in queue is full
func (e *LocalOutEndpoint) Communicate() bool {
	src := e.out.queue()
	dst := e.in.queue()
	reader := e.in.ID()
	writer := e.out.ID()

	moved := false
	for src.TokensAvailable(1, reader) && dst.SlotsAvailable(1, writer) {
		tok, _, err := src.Peek(reader)
		if err != nil {
			src.Cancel(reader)
			break
		}
		if err := dst.Write(tok, writer); err != nil {
			src.Cancel(reader)
			break
		}
		src.Commit(reader)
		moved = true
	}
	return moved
}

// LocalInEndpoint is the in port side of a local connection
type LocalInEndpoint struct {
	in     *InPort
	out    *OutPort
	nodeID string
}

var _ Endpoint = (*LocalInEndpoint)(nil)

// NewLocalInEndpoint creates a LocalInEndpoint
func NewLocalInEndpoint(in *InPort, out *OutPort, nodeID string) *LocalInEndpoint {
	return &LocalInEndpoint{in: in, out: out, nodeID: nodeID}
}

// PeerID returns the out port id
func (e *LocalInEndpoint) PeerID() string { return e.out.ID() }

// PeerNodeID returns the node id
func (e *LocalInEndpoint) PeerNodeID() string { return e.nodeID }

// PeerTag returns the out port tag property, or the out port id when unset
func (e *LocalInEndpoint) PeerTag() string {
	if tag := e.out.Properties().Tag; tag != "" {
		return tag
	}
	return e.out.ID()
}

// IsConnected always returns true
func (e *LocalInEndpoint) IsConnected() bool { return true }

// Communicate is a no-op. Tokens are pushed by the out side.
func (e *LocalInEndpoint) Communicate() bool { return false }

// TunnelEndpoint is a connection to a peer reached through an external
// transport. Restored ports hold disconnected tunnel endpoints until their
// peers reconnect.
type TunnelEndpoint struct {
	peer      Peer
	tag       string
	connected *atomic.Bool
	mu        sync.Mutex
	transfer  func() bool
}

var _ Endpoint = (*TunnelEndpoint)(nil)

// NewTunnelEndpoint creates a TunnelEndpoint. The transfer function, when
// set, is invoked by Communicate while the tunnel is connected.
func NewTunnelEndpoint(peer Peer, tag string, connected bool, transfer func() bool) *TunnelEndpoint {
	if tag == "" {
		tag = peer.PortID
	}
	return &TunnelEndpoint{
		peer:      peer,
		tag:       tag,
		connected: atomic.NewBool(connected),
		transfer:  transfer,
	}
}

// PeerID returns the peer port id
func (e *TunnelEndpoint) PeerID() string { return e.peer.PortID }

// PeerNodeID returns the peer node id
func (e *TunnelEndpoint) PeerNodeID() string { return e.peer.NodeID }

// PeerTag returns the peer tag
func (e *TunnelEndpoint) PeerTag() string { return e.tag }

// IsConnected reports whether the tunnel is up
func (e *TunnelEndpoint) IsConnected() bool { return e.connected.Load() }

// SetConnected marks the tunnel as up or down
func (e *TunnelEndpoint) SetConnected(connected bool) { e.connected.Store(connected) }

// Communicate runs the transfer function when the tunnel is up
func (e *TunnelEndpoint) Communicate() bool {
	if !e.connected.Load() {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.transfer == nil {
		return false
	}
	return e.transfer()
}
