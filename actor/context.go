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
	"time"

	"github.com/tochemey/goflow/capability"
	"github.com/tochemey/goflow/config"
	"github.com/tochemey/goflow/log"
	"github.com/tochemey/goflow/port"
	"github.com/tochemey/goflow/security"
)

// Waker is the part of the scheduler actors talk to
type Waker interface {
	// Wakeup asks the scheduler to consider the actor again
	Wakeup(actorID string)
	// ScheduleRetry runs fn once after delay. A pending retry with the same
	// key is replaced.
	ScheduleRetry(key string, delay time.Duration, fn func()) error
}

type noopWaker struct{}

func (noopWaker) Wakeup(string) {}

func (noopWaker) ScheduleRetry(string, time.Duration, func()) error { return nil }

// RuntimeContext holds the collaborators shared by every actor of a runtime
type RuntimeContext struct {
	config       *config.Config
	logger       log.Logger
	capabilities *capability.System
	authorizer   security.Authorizer
	waker        Waker
}

// RuntimeOption configures a RuntimeContext
type RuntimeOption func(*RuntimeContext)

// WithCapabilities sets the capability system
func WithCapabilities(system *capability.System) RuntimeOption {
	return func(rt *RuntimeContext) {
		rt.capabilities = system
	}
}

// WithAuthorizer sets the authorizer
func WithAuthorizer(authorizer security.Authorizer) RuntimeOption {
	return func(rt *RuntimeContext) {
		rt.authorizer = authorizer
	}
}

// WithWaker sets the scheduler the actors wake up
func WithWaker(waker Waker) RuntimeOption {
	return func(rt *RuntimeContext) {
		rt.waker = waker
	}
}

// NewRuntimeContext creates a RuntimeContext. A nil config means the default
// configuration.
func NewRuntimeContext(cfg *config.Config, opts ...RuntimeOption) *RuntimeContext {
	if cfg == nil {
		cfg = config.Default()
	}
	rt := &RuntimeContext{
		config:     cfg,
		logger:     cfg.Logger,
		authorizer: security.AllowAll{},
		waker:      noopWaker{},
	}
	for _, opt := range opts {
		opt(rt)
	}
	if rt.capabilities == nil {
		rt.capabilities = capability.NewSystem(capability.WithLogger(rt.logger))
	}
	rt.capabilities.SetWakeup(func(owner string) {
		rt.waker.Wakeup(owner)
	})
	return rt
}

// NodeID returns the id of the node
func (rt *RuntimeContext) NodeID() string {
	return rt.config.NodeID
}

// Config returns the runtime configuration
func (rt *RuntimeContext) Config() *config.Config {
	return rt.config
}

// Logger returns the runtime logger
func (rt *RuntimeContext) Logger() log.Logger {
	return rt.logger
}

// Capabilities returns the capability system
func (rt *RuntimeContext) Capabilities() *capability.System {
	return rt.capabilities
}

// Authorizer returns the authorizer
func (rt *RuntimeContext) Authorizer() security.Authorizer {
	return rt.authorizer
}

// SetWaker replaces the scheduler the actors wake up
func (rt *RuntimeContext) SetWaker(waker Waker) {
	rt.waker = waker
}

// Waker returns the scheduler the actors wake up
func (rt *RuntimeContext) Waker() Waker {
	return rt.waker
}

// Context is handed to behaviors in Init, in the lifecycle hooks and in
// every action body. Capabilities opened through it are owned by the actor.
type Context struct {
	rt    *RuntimeContext
	actor *core
}

// ActorID returns the id of the actor
func (c *Context) ActorID() string {
	return c.actor.id
}

// ActorName returns the name of the actor
func (c *Context) ActorName() string {
	return c.actor.name
}

// NodeID returns the id of the node hosting the actor
func (c *Context) NodeID() string {
	return c.rt.NodeID()
}

// Logger returns the actor logger
func (c *Context) Logger() log.Logger {
	return c.actor.logger
}

// Open opens a capability owned by the actor and returns its handle
func (c *Context) Open(name string, config map[string]any) (string, error) {
	return c.rt.capabilities.Open(name, c.actor.id, config)
}

// CanRead reports whether the capability has a value to read
func (c *Context) CanRead(handle string) bool {
	return c.rt.capabilities.CanRead(handle)
}

// Read reads the next value of the capability
func (c *Context) Read(handle string) (any, error) {
	return c.rt.capabilities.Read(handle)
}

// CanWrite reports whether the capability accepts a value
func (c *Context) CanWrite(handle string) bool {
	return c.rt.capabilities.CanWrite(handle)
}

// Write writes a value to the capability
func (c *Context) Write(handle string, value any) error {
	return c.rt.capabilities.Write(handle, value)
}

// Close closes the capability
func (c *Context) Close(handle string) error {
	return c.rt.capabilities.Close(handle)
}

// Wakeup asks the scheduler to consider the actor again
func (c *Context) Wakeup() {
	c.rt.waker.Wakeup(c.actor.id)
}

// SetPortProperties replaces the properties of one of the actor ports
func (c *Context) SetPortProperties(dir port.Direction, name string, props port.Properties) error {
	p, err := c.actor.port(dir, name)
	if err != nil {
		return err
	}
	return p.SetProperties(props)
}
