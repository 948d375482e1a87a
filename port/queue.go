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
	"fmt"

	gerrors "github.com/tochemey/goflow/errors"
	"github.com/tochemey/goflow/token"
)

// Queue types
const (
	FanoutFIFOType       = "fanout_fifo"
	RoundRobinFIFOType   = "round_robin_fifo"
	CollectUnorderedType = "collect_unordered"
	CollectTaggedType    = "collect_tagged"
)

// Queue is a bounded token FIFO shared between the writers and readers of a port.
//
// Reads are tentative: Peek advances a per reader tentative cursor, Commit makes
// the reads final and Cancel rolls them back. TokensAvailable and SlotsAvailable
// never change the queue.
type Queue interface {
	// Type returns the queue type
	Type() string
	// AddWriter registers a writer. The tag is used by tagged queues.
	AddWriter(writer, tag string)
	// RemoveWriter unregisters a writer
	RemoveWriter(writer string)
	// AddReader registers a reader
	AddReader(reader string)
	// RemoveReader unregisters a reader and drops the tokens only it could read
	RemoveReader(reader string)
	// Write appends a token on behalf of the writer
	Write(tok *token.Token, writer string) error
	// SlotsAvailable reports whether the writer can write n tokens
	SlotsAvailable(n int, writer string) bool
	// TokensAvailable reports whether the reader can read n tokens
	TokensAvailable(n int, reader string) bool
	// Peek tentatively reads the next token for the reader. The boolean reports
	// whether this read drains a writer that signalled end-of-stream.
	Peek(reader string) (*token.Token, bool, error)
	// Commit makes the tentative reads of the reader final and returns the
	// exhausting writers that are now fully drained
	Commit(reader string) []string
	// Cancel rolls back the tentative reads of the reader
	Cancel(reader string)
	// Exhaust marks the writer as exhausting. It returns true when the writer
	// has no pending tokens and has been removed.
	Exhaust(writer string) bool
	// Exhausting returns the writers still being drained
	Exhausting() []string
	// Pressure returns the depth history of the queue
	Pressure() []Sample
	// FullCount returns the number of writes rejected because the queue was full
	FullCount() uint64
	// State returns the serializable state of the queue
	State() *QueueState
	// SetState restores the queue from a serialized state
	SetState(state *QueueState) error
}

// Slot is a queue entry
type Slot struct {
	Writer string       `json:"writer,omitempty"`
	Token  *token.Token `json:"token,omitempty"`
}

// QueueState is the serializable form of a Queue
type QueueState struct {
	Type             string                 `json:"queuetype"`
	Capacity         int                    `json:"N"`
	Slots            []Slot                 `json:"fifo,omitempty"`
	WritePos         uint64                 `json:"write_pos"`
	ReadPos          map[string]uint64      `json:"read_pos,omitempty"`
	TentativeReadPos map[string]uint64      `json:"tentative_read_pos,omitempty"`
	Readers          []string               `json:"readers,omitempty"`
	Writers          []string               `json:"writers,omitempty"`
	Exhausting       []string               `json:"exhausting,omitempty"`
	Retired          []string               `json:"retired,omitempty"`
	Tags             map[string]string      `json:"tags,omitempty"`
	Turn             int                    `json:"turn,omitempty"`
	Subqueues        map[string]*QueueState `json:"subqueues,omitempty"`
}

// NewQueue creates the queue matching the port direction and routing properties
func NewQueue(dir Direction, props Properties, capacity, samples int) Queue {
	if props.QueueLength > 0 {
		capacity = props.QueueLength
	}

	switch props.routing(dir) {
	case RoutingRoundRobin:
		return NewRoundRobinFIFO(capacity, samples)
	case RoutingCollectUnordered:
		return NewCollectFIFO(capacity, samples, false)
	case RoutingCollectTagged:
		return NewCollectFIFO(capacity, samples, true)
	default:
		return NewFanoutFIFO(capacity, samples)
	}
}

// NewQueueFromState creates a queue of the serialized type and restores its state
func NewQueueFromState(state *QueueState, samples int) (Queue, error) {
	if state == nil {
		return nil, fmt.Errorf("port: nil queue state: %w", gerrors.ErrInvalidQueueState)
	}

	var queue Queue
	switch state.Type {
	case FanoutFIFOType:
		queue = NewFanoutFIFO(state.Capacity, samples)
	case RoundRobinFIFOType:
		queue = NewRoundRobinFIFO(state.Capacity, samples)
	case CollectUnorderedType:
		queue = NewCollectFIFO(state.Capacity, samples, false)
	case CollectTaggedType:
		queue = NewCollectFIFO(state.Capacity, samples, true)
	default:
		return nil, fmt.Errorf("port: unknown queue type %q: %w", state.Type, gerrors.ErrInvalidQueueState)
	}

	if err := queue.SetState(state); err != nil {
		return nil, err
	}
	return queue, nil
}

func checkState(state *QueueState, queueType string) error {
	switch {
	case state == nil:
		return fmt.Errorf("port: nil queue state: %w", gerrors.ErrInvalidQueueState)
	case state.Type != queueType:
		return fmt.Errorf("port: queue type %q, expected %q: %w", state.Type, queueType, gerrors.ErrInvalidQueueState)
	case state.Capacity <= 0:
		return fmt.Errorf("port: queue capacity %d: %w", state.Capacity, gerrors.ErrInvalidQueueState)
	}
	return nil
}

func removeString(list []string, s string) []string {
	for i, v := range list {
		if v == s {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return list
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
