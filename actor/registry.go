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
	"fmt"
	"sort"
	"sync"

	goset "github.com/deckarep/golang-set/v2"

	gerrors "github.com/tochemey/goflow/errors"
	"github.com/tochemey/goflow/replication"
	"github.com/tochemey/goflow/security"
)

// Registry maps type tags to actor types
type Registry struct {
	mu    sync.RWMutex
	types map[string]*Type
}

// NewRegistry creates an empty Registry
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]*Type)}
}

// Register adds the given types to the registry
func (r *Registry) Register(types ...*Type) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range types {
		if _, ok := r.types[t.tag]; ok {
			return fmt.Errorf("type=(%s) %w", t.tag, gerrors.ErrTypeAlreadyRegistered)
		}
		r.types[t.tag] = t
	}
	return nil
}

// Lookup returns the type registered under the given tag
func (r *Registry) Lookup(tag string) (*Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[tag]
	return t, ok
}

// Types returns the registered type tags, sorted
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tags := make([]string, 0, len(r.types))
	for tag := range r.types {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// CreateOption configures an actor created by the Factory
type CreateOption func(*createConfig)

type createConfig struct {
	id      string
	name    string
	reqs    []Requirement
	subject security.Subject
	data    *replication.Data
	members []string
}

// WithActorID sets the actor id. A random id is used otherwise.
func WithActorID(id string) CreateOption {
	return func(c *createConfig) {
		c.id = id
	}
}

// WithName sets the actor name
func WithName(name string) CreateOption {
	return func(c *createConfig) {
		c.name = name
	}
}

// WithDeploymentRequirements sets the explicit placement requirements
func WithDeploymentRequirements(reqs ...Requirement) CreateOption {
	return func(c *createConfig) {
		c.reqs = append([]Requirement(nil), reqs...)
	}
}

// WithSubject sets the subject attributes used by authorization
func WithSubject(subject security.Subject) CreateOption {
	return func(c *createConfig) {
		c.subject = subject.Clone()
	}
}

// WithReplication sets the replication data of the actor
func WithReplication(data *replication.Data) CreateOption {
	return func(c *createConfig) {
		c.data = copyReplication(data)
	}
}

// WithComponentMembers sets the ids of the component the actor belongs to
func WithComponentMembers(ids ...string) CreateOption {
	return func(c *createConfig) {
		c.members = append([]string(nil), ids...)
	}
}

// Factory builds actors from the types of a registry
type Factory struct {
	registry *Registry
	rt       *RuntimeContext
}

// NewFactory creates a Factory
func NewFactory(registry *Registry, rt *RuntimeContext) *Factory {
	return &Factory{registry: registry, rt: rt}
}

// Runtime returns the runtime context actors are created with
func (f *Factory) Runtime() *RuntimeContext {
	return f.rt
}

// Create builds an actor of the given type, calls Init exactly once and
// completes its setup. The returned actor is READY, or ENABLED when it has
// no ports.
func (f *Factory) Create(tag string, args Args, opts ...CreateOption) (*Concrete, error) {
	a, err := f.build(tag, opts...)
	if err != nil {
		return nil, err
	}
	if err := a.initialize(args); err != nil {
		_ = f.rt.capabilities.CloseAll(a.id)
		return nil, gerrors.NewErrInitFailure(err)
	}
	if err := a.SetupComplete(); err != nil {
		return nil, err
	}
	return a, nil
}

// CreateShadow builds a shadow actor for a type this runtime does not know
func (f *Factory) CreateShadow(tag string, args Args, opts ...CreateOption) (*Shadow, error) {
	s := f.buildShadow(tag, args, opts...)
	if err := s.SetupComplete(); err != nil {
		return nil, err
	}
	return s, nil
}

// Restore rebuilds an actor from a snapshot taken on another runtime. Init
// is not called again. A snapshot of an unknown type yields a shadow actor.
func (f *Factory) Restore(state *SerializedState) (Actor, error) {
	if err := checkSnapshot(state); err != nil {
		return nil, err
	}

	if _, ok := f.registry.Lookup(state.Private.Type); !ok {
		s := f.buildShadow(state.Private.Type, nil, WithActorID(state.Private.ID))
		if err := s.Deserialize(state); err != nil {
			return nil, err
		}
		if err := s.SetupComplete(); err != nil {
			return nil, err
		}
		return s, nil
	}

	a, err := f.build(state.Private.Type, WithActorID(state.Private.ID))
	if err != nil {
		return nil, err
	}
	if err := a.Deserialize(state); err != nil {
		return nil, err
	}
	a.DidMigrate()
	if err := a.SetupComplete(); err != nil {
		return nil, err
	}
	return a, nil
}

func (f *Factory) build(tag string, opts ...CreateOption) (*Concrete, error) {
	typ, ok := f.registry.Lookup(tag)
	if !ok {
		return nil, gerrors.NewErrTypeNotRegistered(tag)
	}
	cfg := newCreateConfig(opts...)

	c := newCore(f.rt, cfg.id, cfg.name, tag)
	c.apply(cfg)
	c.requires = typ.Requires()
	for _, decl := range typ.inports {
		if _, err := c.addInPort(decl.Name, decl.Properties); err != nil {
			return nil, err
		}
	}
	for _, decl := range typ.outports {
		if _, err := c.addOutPort(decl.Name, decl.Properties); err != nil {
			return nil, err
		}
	}
	c.signature = signatureOf(tag, c.inportOrder, c.outportOrder)

	behavior := typ.newBehavior()
	c.hooks = behavior
	return &Concrete{core: c, typ: typ, behavior: behavior}, nil
}

func (f *Factory) buildShadow(tag string, args Args, opts ...CreateOption) *Shadow {
	cfg := newCreateConfig(opts...)
	c := newCore(f.rt, cfg.id, cfg.name, tag)
	c.apply(cfg)
	c.shadow = true
	c.shadowParams = sortedKeys(args)
	c.signature = signatureOf(tag, nil, nil)

	copied := make(Args, len(args))
	for k, v := range args {
		copied[k] = v
	}
	return &Shadow{core: c, args: copied}
}

func (c *core) apply(cfg *createConfig) {
	c.deployReqs = cfg.reqs
	c.subject = cfg.subject
	c.replication = cfg.data
	if len(cfg.members) > 0 {
		c.members = goset.NewThreadUnsafeSet(cfg.members...)
	}
}

func (a *Concrete) initialize(args Args) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recovered(r)
		}
	}()
	if args == nil {
		args = Args{}
	}
	return a.behavior.Init(a.ctx, args)
}

func newCreateConfig(opts ...CreateOption) *createConfig {
	cfg := new(createConfig)
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
