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
	"sort"
	"sync"

	goset "github.com/deckarep/golang-set/v2"

	gerrors "github.com/tochemey/goflow/errors"
	"github.com/tochemey/goflow/token"
)

// FanoutFIFO is a bounded ring of tokens where every reader sees every token.
// It backs default in ports (one reader, any number of writers) and fanout
// out ports (one writer, one reader per peer).
//
// Cursors are absolute positions; slot i lives at index i % capacity. The
// queue is full when the slowest reader is capacity tokens behind the writer.
type FanoutFIFO struct {
	mu         sync.Mutex
	capacity   int
	slots      []Slot
	writePos   uint64
	released   uint64
	readPos    map[string]uint64
	tentative  map[string]uint64
	readers    []string
	writers    goset.Set[string]
	exhausting goset.Set[string]
	pressure   *pressure
}

// enforce compilation error
var _ Queue = (*FanoutFIFO)(nil)

// NewFanoutFIFO creates a FanoutFIFO holding at most capacity tokens
func NewFanoutFIFO(capacity, samples int) *FanoutFIFO {
	if capacity <= 0 {
		capacity = 1
	}
	return &FanoutFIFO{
		capacity:   capacity,
		slots:      make([]Slot, capacity),
		readPos:    make(map[string]uint64),
		tentative:  make(map[string]uint64),
		writers:    goset.NewThreadUnsafeSet[string](),
		exhausting: goset.NewThreadUnsafeSet[string](),
		pressure:   newPressure(samples),
	}
}

// Type returns the queue type
func (q *FanoutFIFO) Type() string {
	return FanoutFIFOType
}

// AddWriter registers a writer
func (q *FanoutFIFO) AddWriter(writer, _ string) {
	q.mu.Lock()
	q.writers.Add(writer)
	q.mu.Unlock()
}

// RemoveWriter unregisters a writer. Tokens already written stay readable.
func (q *FanoutFIFO) RemoveWriter(writer string) {
	q.mu.Lock()
	q.writers.Remove(writer)
	q.exhausting.Remove(writer)
	q.mu.Unlock()
}

// AddReader registers a reader. A reader already known keeps its cursors,
// which lets a peer reconnect to a restored queue and resume where it stopped.
func (q *FanoutFIFO) AddReader(reader string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.readPos[reader]; ok {
		if !containsString(q.readers, reader) {
			q.readers = append(q.readers, reader)
		}
		return
	}
	start := q.minRead()
	q.readPos[reader] = start
	q.tentative[reader] = start
	q.readers = append(q.readers, reader)
}

// RemoveReader unregisters a reader
func (q *FanoutFIFO) RemoveReader(reader string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.readPos, reader)
	delete(q.tentative, reader)
	q.readers = removeString(q.readers, reader)
	q.release()
}

// Write appends a token on behalf of the writer
func (q *FanoutFIFO) Write(tok *token.Token, writer string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.readers) == 0 || !q.writers.Contains(writer) {
		return gerrors.ErrPortNotConnected
	}
	if q.free() < 1 {
		q.pressure.fullCount++
		return gerrors.ErrQueueFull
	}
	q.slots[q.writePos%uint64(q.capacity)] = Slot{Writer: writer, Token: tok}
	q.writePos++
	q.pressure.record(q.depth())
	return nil
}

// SlotsAvailable reports whether the writer can write n tokens
func (q *FanoutFIFO) SlotsAvailable(n int, writer string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.readers) > 0 && q.writers.Contains(writer) && q.free() >= n
}

// TokensAvailable reports whether the reader can read n tokens
func (q *FanoutFIFO) TokensAvailable(n int, reader string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.available(reader) >= n
}

// Peek tentatively reads the next token for the reader
func (q *FanoutFIFO) Peek(reader string) (*token.Token, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	pos, ok := q.tentative[reader]
	if !ok {
		return nil, false, gerrors.ErrPortNotConnected
	}
	if pos >= q.writePos {
		return nil, false, gerrors.ErrQueueEmpty
	}
	slot := q.slots[pos%uint64(q.capacity)]
	q.tentative[reader] = pos + 1
	exhausted := q.exhausting.Contains(slot.Writer) && q.pending(slot.Writer, pos+1) == 0
	return slot.Token, exhausted, nil
}

// Commit makes the tentative reads final
func (q *FanoutFIFO) Commit(reader string) []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	pos, ok := q.tentative[reader]
	if !ok {
		return nil
	}
	if pos != q.readPos[reader] {
		q.readPos[reader] = pos
		q.release()
		q.pressure.record(q.depth())
	}
	return q.drained()
}

// Cancel rolls back the tentative reads of the reader
func (q *FanoutFIFO) Cancel(reader string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if pos, ok := q.readPos[reader]; ok {
		q.tentative[reader] = pos
	}
}

// Exhaust marks the writer as exhausting
func (q *FanoutFIFO) Exhaust(writer string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.writers.Contains(writer) {
		return true
	}
	if q.pending(writer, q.minRead()) == 0 {
		q.writers.Remove(writer)
		q.exhausting.Remove(writer)
		return true
	}
	q.exhausting.Add(writer)
	return false
}

// Exhausting returns the writers still being drained
func (q *FanoutFIFO) Exhausting() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return sorted(q.exhausting)
}

// Pressure returns the depth history of the queue
func (q *FanoutFIFO) Pressure() []Sample {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pressure.history()
}

// FullCount returns the number of writes rejected because the queue was full
func (q *FanoutFIFO) FullCount() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pressure.fullCount
}

// Len returns the number of tokens not yet committed by the slowest reader
func (q *FanoutFIFO) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.depth()
}

// State returns the serializable state of the queue
func (q *FanoutFIFO) State() *QueueState {
	q.mu.Lock()
	defer q.mu.Unlock()
	state := &QueueState{
		Type:             FanoutFIFOType,
		Capacity:         q.capacity,
		Slots:            make([]Slot, len(q.slots)),
		WritePos:         q.writePos,
		ReadPos:          make(map[string]uint64, len(q.readPos)),
		TentativeReadPos: make(map[string]uint64, len(q.tentative)),
		Readers:          append([]string(nil), q.readers...),
		Writers:          sorted(q.writers),
		Exhausting:       sorted(q.exhausting),
	}
	copy(state.Slots, q.slots)
	for k, v := range q.readPos {
		state.ReadPos[k] = v
	}
	for k, v := range q.tentative {
		state.TentativeReadPos[k] = v
	}
	return state
}

// SetState restores the queue from a serialized state
func (q *FanoutFIFO) SetState(state *QueueState) error {
	if err := checkState(state, FanoutFIFOType); err != nil {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	q.capacity = state.Capacity
	q.slots = make([]Slot, state.Capacity)
	copy(q.slots, state.Slots)
	q.writePos = state.WritePos
	q.readPos = make(map[string]uint64, len(state.ReadPos))
	q.tentative = make(map[string]uint64, len(state.ReadPos))
	for k, v := range state.ReadPos {
		q.readPos[k] = v
		q.tentative[k] = v
	}
	for k, v := range state.TentativeReadPos {
		q.tentative[k] = v
	}
	q.readers = append([]string(nil), state.Readers...)
	q.writers = goset.NewThreadUnsafeSet(state.Writers...)
	q.exhausting = goset.NewThreadUnsafeSet(state.Exhausting...)
	q.released = q.minRead()
	return nil
}

// minRead returns the position of the slowest reader
func (q *FanoutFIFO) minRead() uint64 {
	if len(q.readers) == 0 {
		return q.writePos
	}
	low := q.writePos
	for _, reader := range q.readers {
		if pos := q.readPos[reader]; pos < low {
			low = pos
		}
	}
	return low
}

// readable returns the number of tokens the reader has not tentatively read
func (q *FanoutFIFO) readable(reader string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.available(reader)
}

func (q *FanoutFIFO) depth() int {
	return int(q.writePos - q.minRead())
}

func (q *FanoutFIFO) free() int {
	return q.capacity - q.depth()
}

func (q *FanoutFIFO) available(reader string) int {
	pos, ok := q.tentative[reader]
	if !ok || pos >= q.writePos {
		return 0
	}
	return int(q.writePos - pos)
}

// pending counts the tokens of the writer in [from, writePos)
func (q *FanoutFIFO) pending(writer string, from uint64) int {
	count := 0
	for pos := from; pos < q.writePos; pos++ {
		if q.slots[pos%uint64(q.capacity)].Writer == writer {
			count++
		}
	}
	return count
}

// release clears the slots every reader has consumed
func (q *FanoutFIFO) release() {
	low := q.minRead()
	for pos := q.released; pos < low; pos++ {
		q.slots[pos%uint64(q.capacity)] = Slot{}
	}
	if low > q.released {
		q.released = low
	}
}

// drained removes and returns the exhausting writers without pending tokens
func (q *FanoutFIFO) drained() []string {
	if q.exhausting.Cardinality() == 0 {
		return nil
	}
	low := q.minRead()
	var out []string
	for _, writer := range sorted(q.exhausting) {
		if q.pending(writer, low) == 0 {
			q.exhausting.Remove(writer)
			q.writers.Remove(writer)
			out = append(out, writer)
		}
	}
	return out
}

func sorted(set goset.Set[string]) []string {
	out := set.ToSlice()
	sort.Strings(out)
	return out
}
