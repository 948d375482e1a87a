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

package capability

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	gerrors "github.com/tochemey/goflow/errors"
	"github.com/tochemey/goflow/log"
)

type entry struct {
	name   string
	owner  string
	config map[string]any
	object Capability
}

// System is the registry of capability factories and the handle table of the
// open capabilities
type System struct {
	mu        sync.RWMutex
	factories map[string]Factory
	handles   map[string]*entry
	wakeup    func(owner string)
	logger    log.Logger
}

// Option is the interface that applies a System option.
type Option interface {
	// Apply sets the Option value of a System.
	Apply(s *System)
}

// enforce compilation error
var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(*System)

func (f OptionFunc) Apply(s *System) {
	f(s)
}

// WithLogger sets the logger
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(s *System) {
		s.logger = logger
	})
}

// WithWakeup sets the function used to wake an owner up
func WithWakeup(fn func(owner string)) Option {
	return OptionFunc(func(s *System) {
		s.wakeup = fn
	})
}

// NewSystem creates a System with the built-in capabilities registered
func NewSystem(opts ...Option) *System {
	s := &System{
		factories: make(map[string]Factory),
		handles:   make(map[string]*entry),
		logger:    log.DiscardLogger,
	}
	for _, opt := range opts {
		opt.Apply(s)
	}
	s.Register(BufferName, NewBuffer)
	s.Register(TimerName, NewTimer)
	return s
}

// Register adds or replaces the factory of a named capability
func (s *System) Register(name string, factory Factory) {
	s.mu.Lock()
	s.factories[name] = factory
	s.mu.Unlock()
}

// SetWakeup sets the function used to wake an owner up
func (s *System) SetWakeup(fn func(owner string)) {
	s.mu.Lock()
	s.wakeup = fn
	s.mu.Unlock()
}

// Open creates a capability for the owner and returns its handle
func (s *System) Open(name, owner string, config map[string]any) (string, error) {
	handle := uuid.NewString()
	if err := s.open(handle, name, owner, config); err != nil {
		return "", err
	}
	s.logger.Debugf("capability %s opened for %s (handle=%s)", name, owner, handle)
	return handle, nil
}

// CanRead reports whether the capability has a value to read
func (s *System) CanRead(handle string) bool {
	e, err := s.lookup(handle)
	return err == nil && e.object.CanRead()
}

// Read reads the next value of the capability
func (s *System) Read(handle string) (any, error) {
	e, err := s.lookup(handle)
	if err != nil {
		return nil, err
	}
	if !e.object.CanRead() {
		return nil, gerrors.ErrCapabilityNotReady
	}
	return e.object.Read()
}

// CanWrite reports whether the capability accepts a value
func (s *System) CanWrite(handle string) bool {
	e, err := s.lookup(handle)
	return err == nil && e.object.CanWrite()
}

// Write writes a value to the capability
func (s *System) Write(handle string, value any) error {
	e, err := s.lookup(handle)
	if err != nil {
		return err
	}
	if !e.object.CanWrite() {
		return gerrors.ErrCapabilityNotReady
	}
	return e.object.Write(value)
}

// Close closes the capability and releases its handle
func (s *System) Close(handle string) error {
	s.mu.Lock()
	e, ok := s.handles[handle]
	delete(s.handles, handle)
	s.mu.Unlock()
	if !ok {
		return gerrors.ErrCapabilityNotFound
	}
	return e.object.Close()
}

// CloseAll closes every capability of the owner
func (s *System) CloseAll(owner string) error {
	var err error
	for _, handle := range s.Handles(owner) {
		err = multierr.Append(err, s.Close(handle))
	}
	return err
}

// Handles returns the sorted handles of the owner
func (s *System) Handles(owner string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for handle, e := range s.handles {
		if e.owner == owner {
			out = append(out, handle)
		}
	}
	sort.Strings(out)
	return out
}

// Serialize returns the state of every capability of the owner keyed by handle
func (s *System) Serialize(owner string) (map[string]ObjectState, error) {
	out := make(map[string]ObjectState)
	for _, handle := range s.Handles(owner) {
		e, err := s.lookup(handle)
		if err != nil {
			continue
		}
		state := ObjectState{Name: e.name, Config: e.config}
		if serializer, ok := e.object.(Serializer); ok {
			raw, err := serializer.Serialize()
			if err != nil {
				return nil, fmt.Errorf("capability %s: %w", e.name, err)
			}
			state.State = raw
		}
		out[handle] = state
	}
	return out, nil
}

// Deserialize reopens the capabilities of the owner under their original
// handles
func (s *System) Deserialize(owner string, objects map[string]ObjectState) error {
	handles := make([]string, 0, len(objects))
	for handle := range objects {
		handles = append(handles, handle)
	}
	sort.Strings(handles)

	for _, handle := range handles {
		object := objects[handle]
		if err := s.open(handle, object.Name, owner, object.Config); err != nil {
			return err
		}
		if len(object.State) == 0 {
			continue
		}
		e, err := s.lookup(handle)
		if err != nil {
			return err
		}
		if restorer, ok := e.object.(Restorer); ok {
			if err := restorer.Restore(object.State); err != nil {
				return fmt.Errorf("capability %s: %w", object.Name, err)
			}
		}
	}
	return nil
}

func (s *System) open(handle, name, owner string, config map[string]any) error {
	s.mu.RLock()
	factory, ok := s.factories[name]
	s.mu.RUnlock()
	if !ok {
		return gerrors.NewErrCapabilityNotRegistered(name)
	}

	object, err := factory(owner, config, func() { s.wake(owner) })
	if err != nil {
		return fmt.Errorf("capability %s: %w", name, err)
	}

	s.mu.Lock()
	if previous, ok := s.handles[handle]; ok {
		// a handle reopened on restore replaces the stale object
		_ = previous.object.Close()
	}
	s.handles[handle] = &entry{name: name, owner: owner, config: config, object: object}
	s.mu.Unlock()
	return nil
}

func (s *System) lookup(handle string) (*entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.handles[handle]
	if !ok {
		return nil, gerrors.ErrCapabilityNotFound
	}
	return e, nil
}

func (s *System) wake(owner string) {
	s.mu.RLock()
	wakeup := s.wakeup
	s.mu.RUnlock()
	if wakeup != nil {
		wakeup(owner)
	}
}
