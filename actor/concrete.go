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
	"errors"
	"fmt"
	"runtime"

	gerrors "github.com/tochemey/goflow/errors"
	"github.com/tochemey/goflow/port"
	"github.com/tochemey/goflow/token"
)

// Concrete is an actor backed by a registered type and its action table
type Concrete struct {
	*core
	typ      *Type
	behavior Behavior
}

// enforce compilation error
var _ Actor = (*Concrete)(nil)

// Behavior returns the user defined part of the actor
func (a *Concrete) Behavior() Behavior {
	return a.behavior
}

// Fire runs the action selection engine once. Actions are tried in priority
// order and at most one fires. An arity mismatch or a panic in an action body
// aborts the firing with a fatal error and leaves the queues untouched.
func (a *Concrete) Fire() (FireResult, error) {
	a.mu.Lock()
	result, err := a.fire()
	done := a.exhaustionDone()
	a.mu.Unlock()

	if done != nil {
		done(true)
	}
	return result, err
}

func (a *Concrete) fire() (FireResult, error) {
	result := FireResult{OutputOK: true}
	if a.status != StatusEnabled && a.exhaustCB == nil {
		return result, gerrors.NewErrActorNotEnabled(a.id, a.status.String())
	}

	for _, act := range a.typ.actions {
		if act.guard != nil && !act.guard(a.behavior) {
			continue
		}

		inputsReady := a.inputsReady(act)
		if !a.outputsReady(act) {
			result.OutputOK = false
			continue
		}
		if !inputsReady {
			continue
		}

		if err := a.fireAction(act, &result); err != nil {
			return result, err
		}
		result.DidFire = true
		result.OutputOK = true
		result.Action = act.name
		break
	}
	return result, nil
}

func (a *Concrete) inputsReady(act action) bool {
	for _, name := range act.inputs {
		if !a.inports[name].TokensAvailable(1) {
			return false
		}
	}
	return true
}

func (a *Concrete) outputsReady(act action) bool {
	for _, name := range act.outputs {
		if !a.outports[name].SlotsAvailable(1) {
			return false
		}
	}
	return true
}

func (a *Concrete) fireAction(act action, result *FireResult) error {
	inports := make([]*port.InPort, len(act.inputs))
	tokens := make([]*token.Token, len(act.inputs))
	exception := false
	for i, name := range act.inputs {
		p := a.inports[name]
		inports[i] = p
		tok, _, err := p.Peek()
		if err != nil {
			cancelAll(inports[:i+1])
			return err
		}
		tokens[i] = tok
		if tok.IsException() {
			exception = true
		}
	}

	production, err := a.produce(act, tokens, exception)
	if err == nil && len(production) != len(act.outputs) {
		err = gerrors.NewErrInvalidProduction(act.name, len(production), len(act.outputs))
	}
	if err != nil {
		cancelAll(inports)
		a.logger.Errorf("action=(%s) failed: %v", act.name, err)
		return err
	}

	for i, name := range act.outputs {
		if err := a.outports[name].Write(token.Wrap(production[i])); err != nil {
			// readiness was checked under the actor lock
			return fmt.Errorf("action=(%s) write to port=(%s): %w", act.name, name, err)
		}
	}

	for _, p := range inports {
		for _, peerID := range p.Commit() {
			a.exhausted(p, peerID, result)
		}
	}
	return nil
}

func (a *Concrete) produce(act action, tokens []*token.Token, exception bool) (production Production, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recovered(r)
		}
	}()

	if exception {
		if handler, ok := a.behavior.(ExceptionHandler); ok {
			return handler.HandleException(a.ctx, act.name, tokens), nil
		}
		return a.forwardException(act, tokens), nil
	}

	values := make([]any, len(tokens))
	for i, tok := range tokens {
		values[i] = tok.Value()
	}
	return act.body(a.behavior, a.ctx, values), nil
}

// forwardException is the default exception handler: the first exception
// token is written to every output of the action
func (a *Concrete) forwardException(act action, tokens []*token.Token) Production {
	var exc *token.Token
	for _, tok := range tokens {
		if tok.IsException() {
			exc = tok
			break
		}
	}
	a.logger.Warnf("action=(%s) received %s, forwarding it downstream", act.name, exc)
	production := make(Production, len(act.outputs))
	for i := range production {
		production[i] = exc
	}
	return production
}

// exhausted detaches a drained peer from an in port. It must be called with
// the lock held.
func (a *Concrete) exhausted(p *port.InPort, peerID string, result *FireResult) {
	ep, ok := p.Detach(peerID)
	if !ok {
		return
	}
	result.Exhausted = append(result.Exhausted, port.Peer{NodeID: ep.PeerNodeID(), PortID: peerID})
	a.logger.Debugf("peer=(%s) of port=(%s) is exhausted", peerID, p.Name())
	a.didDisconnect()
}

func cancelAll(ports []*port.InPort) {
	for _, p := range ports {
		p.Cancel()
	}
}

// recovered turns a recovered panic into a PanicError enriched with the
// location of the panic
func recovered(r any) error {
	pc, fn, line, _ := runtime.Caller(3)
	switch err, ok := r.(error); {
	case ok:
		var pe *gerrors.PanicError
		if errors.As(err, &pe) {
			return pe
		}
		return gerrors.NewPanicError(fmt.Errorf("%w at %s[%s:%d]", err, runtime.FuncForPC(pc).Name(), fn, line))
	default:
		return gerrors.NewPanicError(fmt.Errorf("%#v at %s[%s:%d]", r, runtime.FuncForPC(pc).Name(), fn, line))
	}
}
