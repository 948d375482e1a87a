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

// CollectFIFO merges the tokens of several writers into a single in port.
// Every writer owns a sub-queue and reads rotate over the writers that have
// tokens. In tagged mode value tokens are delivered as map[tag]value so the
// reader can tell the producers apart.
type CollectFIFO struct {
	mu       sync.Mutex
	capacity int
	samples  int
	tagged   bool
	readers  []string
	writers  []string
	tags     map[string]string
	retired  goset.Set[string]
	subs     map[string]*FanoutFIFO
	turn     int
	// tentative rotation and the sub-queues read since the last commit
	tentativeTurn int
	touched       []string
	pressure      *pressure
}

var _ Queue = (*CollectFIFO)(nil)

// NewCollectFIFO creates a CollectFIFO. Each writer sub-queue holds at most
// capacity tokens.
func NewCollectFIFO(capacity, samples int, tagged bool) *CollectFIFO {
	if capacity <= 0 {
		capacity = 1
	}
	return &CollectFIFO{
		capacity: capacity,
		samples:  samples,
		tagged:   tagged,
		tags:     make(map[string]string),
		retired:  goset.NewThreadUnsafeSet[string](),
		subs:     make(map[string]*FanoutFIFO),
		pressure: newPressure(samples),
	}
}

// Type returns the queue type
func (q *CollectFIFO) Type() string {
	if q.tagged {
		return CollectTaggedType
	}
	return CollectUnorderedType
}

// AddWriter registers a writer under the given tag. The writer id is used
// when the tag is empty.
func (q *CollectFIFO) AddWriter(writer, tag string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if tag == "" {
		tag = writer
	}
	q.tags[writer] = tag
	q.retired.Remove(writer)

	sub, ok := q.subs[writer]
	if !ok {
		sub = NewFanoutFIFO(q.capacity, q.samples)
		for _, reader := range q.readers {
			sub.AddReader(reader)
		}
		q.subs[writer] = sub
		q.writers = append(q.writers, writer)
	}
	sub.AddWriter(writer, tag)
}

// RemoveWriter unregisters a writer. Its pending tokens stay readable and
// its sub-queue is dropped once drained.
func (q *CollectFIFO) RemoveWriter(writer string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	sub, ok := q.subs[writer]
	if !ok {
		return
	}
	sub.RemoveWriter(writer)
	q.retired.Add(writer)
	q.prune()
}

// AddReader registers a reader on every sub-queue
func (q *CollectFIFO) AddReader(reader string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !containsString(q.readers, reader) {
		q.readers = append(q.readers, reader)
	}
	for _, sub := range q.subs {
		sub.AddReader(reader)
	}
}

// RemoveReader unregisters a reader
func (q *CollectFIFO) RemoveReader(reader string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.readers = removeString(q.readers, reader)
	for _, sub := range q.subs {
		sub.RemoveReader(reader)
	}
}

// Write appends a token to the writer sub-queue
func (q *CollectFIFO) Write(tok *token.Token, writer string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	sub, ok := q.subs[writer]
	if !ok || q.retired.Contains(writer) {
		return gerrors.ErrPortNotConnected
	}
	if err := sub.Write(tok, writer); err != nil {
		if errors.Is(err, gerrors.ErrQueueFull) {
			q.pressure.fullCount++
		}
		return err
	}
	q.pressure.record(q.depth())
	return nil
}

// SlotsAvailable reports whether the writer sub-queue has n free slots
func (q *CollectFIFO) SlotsAvailable(n int, writer string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	sub, ok := q.subs[writer]
	return ok && !q.retired.Contains(writer) && sub.SlotsAvailable(n, writer)
}

// TokensAvailable reports whether n tokens can be read across all writers
func (q *CollectFIFO) TokensAvailable(n int, reader string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	total := 0
	for _, sub := range q.subs {
		total += sub.readable(reader)
		if total >= n {
			return true
		}
	}
	return total >= n
}

// Peek tentatively reads the next token, rotating over the writers
func (q *CollectFIFO) Peek(reader string) (*token.Token, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !containsString(q.readers, reader) {
		return nil, false, gerrors.ErrPortNotConnected
	}
	count := len(q.writers)
	for i := 0; i < count; i++ {
		idx := (q.tentativeTurn + i) % count
		writer := q.writers[idx]
		sub := q.subs[writer]
		if sub.readable(reader) == 0 {
			continue
		}

		tok, exhausted, err := sub.Peek(reader)
		if err != nil {
			return nil, false, err
		}
		if !containsString(q.touched, writer) {
			q.touched = append(q.touched, writer)
		}
		q.tentativeTurn = (idx + 1) % count
		if q.tagged && !tok.IsException() {
			tok = token.New(map[string]any{q.tags[writer]: tok.Value()})
		}
		return tok, exhausted, nil
	}
	return nil, false, gerrors.ErrQueueEmpty
}

// Commit makes the tentative reads final on every sub-queue read since the
// last commit
func (q *CollectFIFO) Commit(reader string) []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	var drained []string
	for _, writer := range q.touched {
		drained = append(drained, q.subs[writer].Commit(reader)...)
	}
	q.touched = nil
	q.turn = q.tentativeTurn
	for _, writer := range drained {
		q.retired.Add(writer)
	}
	if q.retired.Cardinality() > 0 {
		q.prune()
	}
	q.pressure.record(q.depth())
	return drained
}

// Cancel rolls back the tentative reads
func (q *CollectFIFO) Cancel(reader string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, writer := range q.touched {
		q.subs[writer].Cancel(reader)
	}
	q.touched = nil
	q.tentativeTurn = q.turn
}

// Exhaust marks the writer as exhausting
func (q *CollectFIFO) Exhaust(writer string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	sub, ok := q.subs[writer]
	if !ok {
		return true
	}
	if sub.Exhaust(writer) {
		q.retired.Add(writer)
		q.prune()
		return true
	}
	return false
}

// Exhausting returns the writers still being drained
func (q *CollectFIFO) Exhausting() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	set := goset.NewThreadUnsafeSet[string]()
	for _, sub := range q.subs {
		set.Append(sub.Exhausting()...)
	}
	return sorted(set)
}

// Pressure returns the total depth history of the queue
func (q *CollectFIFO) Pressure() []Sample {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pressure.history()
}

// FullCount returns the number of writes rejected because a writer
// sub-queue was full
func (q *CollectFIFO) FullCount() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pressure.fullCount
}

// State returns the serializable state of the queue
func (q *CollectFIFO) State() *QueueState {
	q.mu.Lock()
	defer q.mu.Unlock()
	state := &QueueState{
		Type:      q.Type(),
		Capacity:  q.capacity,
		Readers:   append([]string(nil), q.readers...),
		Writers:   append([]string(nil), q.writers...),
		Retired:   sorted(q.retired),
		Tags:      make(map[string]string, len(q.tags)),
		Turn:      q.turn,
		Subqueues: make(map[string]*QueueState, len(q.subs)),
	}
	for writer, tag := range q.tags {
		state.Tags[writer] = tag
	}
	for writer, sub := range q.subs {
		state.Subqueues[writer] = sub.State()
	}
	return state
}

// SetState restores the queue from a serialized state
func (q *CollectFIFO) SetState(state *QueueState) error {
	if err := checkState(state, q.Type()); err != nil {
		return err
	}

	subs := make(map[string]*FanoutFIFO, len(state.Subqueues))
	for _, writer := range state.Writers {
		subState, ok := state.Subqueues[writer]
		if !ok {
			return gerrors.ErrInvalidQueueState
		}
		sub := NewFanoutFIFO(state.Capacity, q.samples)
		if err := sub.SetState(subState); err != nil {
			return err
		}
		subs[writer] = sub
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	q.capacity = state.Capacity
	q.readers = append([]string(nil), state.Readers...)
	q.writers = append([]string(nil), state.Writers...)
	q.retired = goset.NewThreadUnsafeSet(state.Retired...)
	q.tags = make(map[string]string, len(state.Tags))
	for writer, tag := range state.Tags {
		q.tags[writer] = tag
	}
	q.subs = subs
	q.turn = 0
	if len(q.writers) > 0 {
		q.turn = state.Turn % len(q.writers)
	}
	q.tentativeTurn = q.turn
	q.touched = nil
	return nil
}

// prune drops the sub-queues of retired writers once they are empty.
// It must not run while tentative reads are pending on those sub-queues.
func (q *CollectFIFO) prune() {
	if len(q.touched) > 0 {
		return
	}
	for _, writer := range q.retired.ToSlice() {
		sub, ok := q.subs[writer]
		if ok && sub.Len() > 0 {
			continue
		}
		q.dropWriter(writer)
	}
}

func (q *CollectFIFO) dropWriter(writer string) {
	for i, w := range q.writers {
		if w != writer {
			continue
		}
		q.writers = removeString(q.writers, writer)
		if i < q.turn {
			q.turn--
		}
		break
	}
	if len(q.writers) == 0 {
		q.turn = 0
	} else {
		q.turn %= len(q.writers)
	}
	q.tentativeTurn = q.turn
	delete(q.subs, writer)
	delete(q.tags, writer)
	q.retired.Remove(writer)
}

func (q *CollectFIFO) depth() int {
	total := 0
	for _, sub := range q.subs {
		total += sub.Len()
	}
	return total
}
