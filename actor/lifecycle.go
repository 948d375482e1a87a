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
	gerrors "github.com/tochemey/goflow/errors"
	"github.com/tochemey/goflow/port"
	"github.com/tochemey/goflow/security"
)

// transition moves the actor to the given status. Transitions outside the
// lifecycle graph are logged and applied, or rejected in strict mode. It
// must be called with the lock held.
func (c *core) transition(to Status) error {
	from := c.status
	if !from.CanTransitionTo(to) {
		if !c.rt.config.AllowInvalidTransitions {
			return gerrors.NewErrInvalidTransition(from.String(), to.String())
		}
		c.logger.Warnf("invalid lifecycle transition %s -> %s", from, to)
	}
	c.logger.Debugf("lifecycle transition %s -> %s", from, to)
	c.status = to
	return nil
}

// force moves the actor to the given status without consulting the
// lifecycle graph. It must be called with the lock held.
func (c *core) force(to Status) {
	if !c.status.CanTransitionTo(to) {
		c.logger.Debugf("forced lifecycle transition %s -> %s", c.status, to)
	} else {
		c.logger.Debugf("lifecycle transition %s -> %s", c.status, to)
	}
	c.status = to
}

// move is transition for the callers that cannot return the error
func (c *core) move(to Status) bool {
	if err := c.transition(to); err != nil {
		c.logger.Error(err)
		return false
	}
	return true
}

// SetupComplete moves a loaded actor to READY and then re-evaluates its
// connections. An actor without ports is enabled right away.
func (c *core) SetupComplete() error {
	c.mu.Lock()
	enabled, err := c.setupComplete()
	id := c.id
	c.mu.Unlock()

	if enabled {
		c.rt.waker.Wakeup(id)
	}
	return err
}

func (c *core) setupComplete() (bool, error) {
	if c.status != StatusLoaded {
		return false, gerrors.NewErrInvalidActorState("setup", c.status.String())
	}
	if err := c.transition(StatusReady); err != nil {
		return false, err
	}
	if c.shadow {
		return false, nil
	}
	if len(c.inports)+len(c.outports) == 0 {
		if err := c.transition(StatusEnabled); err != nil {
			return false, err
		}
		c.willStart()
		return true, nil
	}
	if c.anyConnected() {
		return c.didConnect(), nil
	}
	return false, nil
}

// DidConnect is called whenever an endpoint is added to one of the ports.
// The scheduler is woken up when the actor becomes ENABLED.
func (c *core) DidConnect(*port.Port) {
	c.mu.Lock()
	enabled := c.didConnect()
	id := c.id
	c.mu.Unlock()

	if enabled {
		c.rt.waker.Wakeup(id)
	}
}

// didConnect reports whether the actor became ENABLED
func (c *core) didConnect() bool {
	if c.shadow {
		return false
	}
	switch c.status {
	case StatusLoaded, StatusDenied, StatusMigratable, StatusEnabled:
		return false
	case StatusReady:
		if !c.move(StatusPending) {
			return false
		}
	}
	if c.allConnected() && c.move(StatusEnabled) {
		c.willStart()
		return true
	}
	return false
}

// DidDisconnect is called whenever an endpoint is removed from one of the ports
func (c *core) DidDisconnect(*port.Port) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.didDisconnect()
}

func (c *core) didDisconnect() {
	if c.shadow {
		return
	}
	switch c.status {
	case StatusLoaded, StatusMigratable:
		return
	case StatusDenied:
		c.migrationInfo = nil
		if !c.move(StatusPending) {
			return
		}
	case StatusEnabled:
		if !c.move(StatusPending) {
			return
		}
		if stopper, ok := c.hooks.(Stopper); ok {
			stopper.WillStop(c.ctx)
		}
	case StatusReady:
		if c.allDisconnected() {
			return
		}
		if !c.move(StatusPending) {
			return
		}
	}
	if c.allDisconnected() {
		c.move(StatusReady)
	}
}

func (c *core) willStart() {
	if c.hasStarted {
		return
	}
	c.hasStarted = true
	if starter, ok := c.hooks.(Starter); ok {
		starter.WillStart(c.ctx)
	}
}

// CheckAuthorization re-evaluates the authorization decision. An enabled or
// pending actor that is no longer authorized is forced to DENIED, whatever
// the transition mode, and a search for a runtime that would accept it is
// started. A denied actor that is authorized again is re-enabled.
func (c *core) CheckAuthorization() {
	c.mu.Lock()
	if c.shadow {
		c.mu.Unlock()
		return
	}
	status := c.status
	id, subject := c.id, c.subject.Clone()
	c.mu.Unlock()

	if status != StatusEnabled && status != StatusPending && status != StatusDenied {
		return
	}
	allowed := c.rt.authorizer.CheckAuthorizationDecision(id, subject)

	c.mu.Lock()
	switch {
	case !allowed && (c.status == StatusEnabled || c.status == StatusPending):
		c.force(StatusDenied)
		c.logger.Infof("actor %s is no longer authorized", id)
		c.mu.Unlock()
		c.searchRuntime()
		return
	case allowed && c.status == StatusDenied:
		enabled := c.reenable()
		c.mu.Unlock()
		if enabled {
			c.rt.waker.Wakeup(id)
		}
		return
	}
	c.mu.Unlock()
}

// reenable moves a denied actor back into the connected part of the
// lifecycle and reports whether it became ENABLED. It must be called with
// the lock held.
func (c *core) reenable() bool {
	c.migrationInfo = nil
	if c.allConnected() {
		if c.move(StatusEnabled) {
			c.willStart()
			return true
		}
		return false
	}
	c.move(StatusPending)
	if c.allDisconnected() {
		c.move(StatusReady)
	}
	return false
}

func (c *core) searchRuntime() {
	c.mu.Lock()
	id, signature := c.id, c.signature
	c.mu.Unlock()
	c.rt.authorizer.AuthorizationRuntimeSearch(id, signature, func(reply security.SearchReply) {
		if err := c.SetMigrationInfo(reply); err != nil {
			c.logger.Debug(err)
		}
	})
}

// SetMigrationInfo records the outcome of a migration target search. It is
// only accepted while the actor is DENIED. A successful search makes the
// actor MIGRATABLE, a failed one schedules a new attempt.
func (c *core) SetMigrationInfo(reply security.SearchReply) error {
	c.mu.Lock()
	if c.status != StatusDenied {
		status := c.status
		c.mu.Unlock()
		return gerrors.NewErrInvalidActorState("set migration info", status.String())
	}
	id := c.id
	if reply.OK() {
		info := reply
		c.migrationInfo = &info
		ok := c.move(StatusMigratable)
		c.mu.Unlock()
		if ok {
			c.logger.Infof("actor %s can migrate to %s", id, reply.NodeID)
			c.rt.waker.Wakeup(id)
		}
		return nil
	}
	c.mu.Unlock()

	c.logger.Debugf("no runtime found for actor %s (status=%d)", id, reply.Status)
	key := "migration-search:" + id
	if err := c.rt.waker.ScheduleRetry(key, c.rt.config.MigrationRetryDelay, c.recheckDenied); err != nil {
		c.logger.Error(err)
		return gerrors.ErrAuthorizationSearchFailed
	}
	return nil
}

// recheckDenied runs after a failed runtime search: the actor is re-enabled
// when it is authorized again, otherwise a new search starts
func (c *core) recheckDenied() {
	c.mu.Lock()
	if c.status != StatusDenied {
		c.mu.Unlock()
		return
	}
	id, subject := c.id, c.subject.Clone()
	c.mu.Unlock()

	if c.rt.authorizer.CheckAuthorizationDecision(id, subject) {
		c.mu.Lock()
		if c.status == StatusDenied {
			c.reenable()
		}
		c.mu.Unlock()
		c.rt.waker.Wakeup(id)
		return
	}
	c.searchRuntime()
}

// AbortMigration moves a MIGRATABLE actor back to DENIED
func (c *core) AbortMigration() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != StatusMigratable {
		return gerrors.NewErrInvalidActorState("abort migration", c.status.String())
	}
	c.migrationInfo = nil
	return c.transition(StatusDenied)
}
