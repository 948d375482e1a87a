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
	"errors"
	"sync"

	goset "github.com/deckarep/golang-set/v2"

	gerrors "github.com/tochemey/goflow/errors"
	"github.com/tochemey/goflow/token"
)

// RoundRobinFIFO dispatches each written token to exactly one reader,
// rotating over the readers in connection order. Every reader owns a
// sub-queue so a slow peer only blocks the writes that land on it.
type RoundRobinFIFO struct {
	mu       sync.Mutex
	capacity int
	samples  int
	readers  []string
	writers  goset.Set[string]
	subs     map[string]*FanoutFIFO
	turn     int
	pressure *pressure
}

var _ Queue = (*RoundRobinFIFO)(nil)

// NewRoundRobinFIFO creates a RoundRobinFIFO. Each reader sub-queue holds at
// most capacity tokens.
func NewRoundRobinFIFO(capacity, samples int) *RoundRobinFIFO {
	if capacity <= 0 {
		capacity = 1
	}
	return &RoundRobinFIFO{
		capacity: capacity,
		samples:  samples,
		writers:  goset.NewThreadUnsafeSet[string](),
		subs:     make(map[string]*FanoutFIFO),
		pressure: newPressure(samples),
	}
}

// Type returns the queue type
func (q *RoundRobinFIFO) Type() string {
	return RoundRobinFIFOType
}

// AddWriter registers a writer on every sub-queue
func (q *RoundRobinFIFO) AddWriter(writer, tag string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.writers.Add(writer)
	for _, sub := range q.subs {
		sub.AddWriter(writer, tag)
	}
}

// RemoveWriter unregisters a writer
func (q *RoundRobinFIFO) RemoveWriter(writer string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.writers.Remove(writer)
	for _, sub := range q.subs {
		sub.RemoveWriter(writer)
	}
}

// AddReader registers a reader and gives it a sub-queue
func (q *RoundRobinFIFO) AddReader(reader string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !containsString(q.readers, reader) {
		q.readers = append(q.readers, reader)
	}
	if _, ok := q.subs[reader]; ok {
		return
	}
	sub := NewFanoutFIFO(q.capacity, q.samples)
	sub.AddReader(reader)
	q.writers.Each(func(writer string) bool {
		sub.AddWriter(writer, "")
		return false
	})
	q.subs[reader] = sub
}

// RemoveReader unregisters a reader and drops its sub-queue
func (q *RoundRobinFIFO) RemoveReader(reader string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, r := range q.readers {
		if r != reader {
			continue
		}
		q.readers = removeString(q.readers, reader)
		if i < q.turn {
			q.turn--
		}
		break
	}
	if len(q.readers) == 0 {
		q.turn = 0
	} else {
		q.turn %= len(q.readers)
	}
	delete(q.subs, reader)
}

// Write sends the token to the reader whose turn it is
func (q *RoundRobinFIFO) Write(tok *token.Token, writer string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.readers) == 0 || !q.writers.Contains(writer) {
		return gerrors.ErrPortNotConnected
	}
	sub := q.subs[q.readers[q.turn]]
	if err := sub.Write(tok, writer); err != nil {
		if errors.Is(err, gerrors.ErrQueueFull) {
			q.pressure.fullCount++
		}
		return err
	}
	q.turn = (q.turn + 1) % len(q.readers)
	q.pressure.record(q.depth())
	return nil
}

// SlotsAvailable reports whether n tokens can be written following the
// current rotation
func (q *RoundRobinFIFO) SlotsAvailable(n int, writer string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.readers) == 0 || !q.writers.Contains(writer) {
		return false
	}
	need := make(map[string]int, len(q.readers))
	for i := 0; i < n; i++ {
		need[q.readers[(q.turn+i)%len(q.readers)]]++
	}
	for reader, count := range need {
		if !q.subs[reader].SlotsAvailable(count, writer) {
			return false
		}
	}
	return true
}

// TokensAvailable reports whether the reader sub-queue holds n tokens
func (q *RoundRobinFIFO) TokensAvailable(n int, reader string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	sub, ok := q.subs[reader]
	return ok && sub.TokensAvailable(n, reader)
}

// Peek tentatively reads the next token of the reader
func (q *RoundRobinFIFO) Peek(reader string) (*token.Token, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	sub, ok := q.subs[reader]
	if !ok {
		return nil, false, gerrors.ErrPortNotConnected
	}
	return sub.Peek(reader)
}

// Commit makes the tentative reads of the reader final
func (q *RoundRobinFIFO) Commit(reader string) []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	sub, ok := q.subs[reader]
	if !ok {
		return nil
	}
	drained := sub.Commit(reader)
	q.pressure.record(q.depth())
	return drained
}

// Cancel rolls back the tentative reads of the reader
func (q *RoundRobinFIFO) Cancel(reader string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if sub, ok := q.subs[reader]; ok {
		sub.Cancel(reader)
	}
}

// Exhaust marks the writer as exhausting on every sub-queue
func (q *RoundRobinFIFO) Exhaust(writer string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	done := true
	for _, sub := range q.subs {
		if !sub.Exhaust(writer) {
			done = false
		}
	}
	if done {
		q.writers.Remove(writer)
	}
	return done
}

// Exhausting returns the writers still being drained on any sub-queue
func (q *RoundRobinFIFO) Exhausting() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	set := goset.NewThreadUnsafeSet[string]()
	for _, sub := range q.subs {
		set.Append(sub.Exhausting()...)
	}
	return sorted(set)
}

// Pressure returns the total depth history of the queue
func (q *RoundRobinFIFO) Pressure() []Sample {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pressure.history()
}

// FullCount returns the number of writes rejected because the target
// sub-queue was full
func (q *RoundRobinFIFO) FullCount() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pressure.fullCount
}

// State returns the serializable state of the queue
func (q *RoundRobinFIFO) State() *QueueState {
	q.mu.Lock()
	defer q.mu.Unlock()
	state := &QueueState{
		Type:      RoundRobinFIFOType,
		Capacity:  q.capacity,
		Readers:   append([]string(nil), q.readers...),
		Writers:   sorted(q.writers),
		Turn:      q.turn,
		Subqueues: make(map[string]*QueueState, len(q.subs)),
	}
	for reader, sub := range q.subs {
		state.Subqueues[reader] = sub.State()
	}
	return state
}

// SetState restores the queue from a serialized state
func (q *RoundRobinFIFO) SetState(state *QueueState) error {
	if err := checkState(state, RoundRobinFIFOType); err != nil {
		return err
	}

	subs := make(map[string]*FanoutFIFO, len(state.Subqueues))
	for reader, subState := range state.Subqueues {
		sub := NewFanoutFIFO(state.Capacity, q.samples)
		if err := sub.SetState(subState); err != nil {
			return err
		}
		subs[reader] = sub
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	q.capacity = state.Capacity
	q.readers = append([]string(nil), state.Readers...)
	q.writers = goset.NewThreadUnsafeSet(state.Writers...)
	q.subs = subs
	q.turn = 0
	if len(q.readers) > 0 {
		q.turn = state.Turn % len(q.readers)
	}
	return nil
}

func (q *RoundRobinFIFO) depth() int {
	total := 0
	for _, sub := range q.subs {
		total += sub.Len()
	}
	return total
}
