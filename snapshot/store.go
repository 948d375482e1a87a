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

package snapshot

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/atomic"

	gerrors "github.com/tochemey/goflow/errors"
)

// Store keeps encoded snapshot frames by actor id.
//
// Implementations must be safe for concurrent use. Load returns
// ErrSnapshotNotFound for an unknown actor id and every operation returns
// ErrStoreClosed once the store is closed.
type Store interface {
	// Save stores or replaces the frame of the given actor
	Save(ctx context.Context, actorID string, frame []byte) error
	// Load returns the frame of the given actor
	Load(ctx context.Context, actorID string) ([]byte, error)
	// Delete removes the frame of the given actor. Deleting an unknown
	// actor is not an error.
	Delete(ctx context.Context, actorID string) error
	// List returns the ids of the stored actors in ascending order
	List(ctx context.Context) ([]string, error)
	// Close releases the store resources
	Close() error
}

// MemoryStore is an in-process Store
type MemoryStore struct {
	mu     sync.RWMutex
	frames map[string][]byte
	closed *atomic.Bool
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		frames: make(map[string][]byte),
		closed: atomic.NewBool(false),
	}
}

// Save stores a copy of the frame
func (s *MemoryStore) Save(ctx context.Context, actorID string, frame []byte) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	s.frames[actorID] = append([]byte(nil), frame...)
	s.mu.Unlock()
	return nil
}

// Load returns a copy of the stored frame
func (s *MemoryStore) Load(ctx context.Context, actorID string) ([]byte, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	frame, ok := s.frames[actorID]
	s.mu.RUnlock()
	if !ok {
		return nil, gerrors.NewErrSnapshotNotFound(actorID)
	}
	return append([]byte(nil), frame...), nil
}

// Delete removes the frame
func (s *MemoryStore) Delete(ctx context.Context, actorID string) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.frames, actorID)
	s.mu.Unlock()
	return nil
}

// List returns the stored actor ids
func (s *MemoryStore) List(ctx context.Context) ([]string, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	ids := make([]string, 0, len(s.frames))
	for id := range s.frames {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Strings(ids)
	return ids, nil
}

// Close drops every frame
func (s *MemoryStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.mu.Lock()
	s.frames = make(map[string][]byte)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) check(ctx context.Context) error {
	if s.closed.Load() {
		return gerrors.ErrStoreClosed
	}
	return contextErr(ctx)
}

func contextErr(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
