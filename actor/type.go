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

	goset "github.com/deckarep/golang-set/v2"

	gerrors "github.com/tochemey/goflow/errors"
	"github.com/tochemey/goflow/internal/validation"
	"github.com/tochemey/goflow/port"
)

// Action is one entry of an actor action table.
//
// Guard is a predicate over the behavior state only; a nil guard always
// passes. Inputs and Outputs name the declared ports. Body receives one value
// per input, in declaration order, and returns one value per output.
type Action[B Behavior] struct {
	Name    string
	Guard   func(b B) bool
	Inputs  []string
	Outputs []string
	Body    func(b B, ctx *Context, values []any) Production
}

// PortDecl declares a port of an actor type
type PortDecl struct {
	Name       string
	Properties port.Properties
}

// action is the type erased form of Action
type action struct {
	name    string
	guard   func(b Behavior) bool
	inputs  []string
	outputs []string
	body    func(b Behavior, ctx *Context, values []any) Production
}

// Type is an actor type: a tag, its declared ports and its immutable,
// priority ordered action table
type Type struct {
	tag         string
	inports     []PortDecl
	outports    []PortDecl
	actions     []action
	requires    []string
	newBehavior func() Behavior
}

// TypeOption configures a Type
type TypeOption func(*Type)

// WithRequires sets the capabilities a runtime must offer to host the type
func WithRequires(requires ...string) TypeOption {
	return func(t *Type) {
		t.requires = append([]string(nil), requires...)
	}
}

// NewType builds an actor type. The order of actions is the firing priority.
func NewType[B Behavior](tag string, newFn func() B, inports, outports []PortDecl, actions []Action[B], opts ...TypeOption) (*Type, error) {
	if err := validation.New(validation.FailFast()).
		AddValidator(validation.Identifier("type tag", tag)).
		AddAssertion(newFn != nil, "nil behavior constructor").
		Validate(); err != nil {
		return nil, gerrors.NewErrInvalidType(tag, err)
	}

	inNames, err := portNames(inports, port.In)
	if err != nil {
		return nil, gerrors.NewErrInvalidType(tag, err)
	}
	outNames, err := portNames(outports, port.Out)
	if err != nil {
		return nil, gerrors.NewErrInvalidType(tag, err)
	}

	t := &Type{
		tag:         tag,
		inports:     append([]PortDecl(nil), inports...),
		outports:    append([]PortDecl(nil), outports...),
		actions:     make([]action, 0, len(actions)),
		newBehavior: func() Behavior { return newFn() },
	}

	seen := goset.NewThreadUnsafeSet[string]()
	for _, a := range actions {
		if a.Name == "" || !seen.Add(a.Name) {
			return nil, gerrors.NewErrInvalidType(tag, fmt.Errorf("empty or duplicate action name %q", a.Name))
		}
		if a.Body == nil {
			return nil, gerrors.NewErrInvalidType(tag, fmt.Errorf("action %q has no body", a.Name))
		}
		if err := checkPorts(a.Name, a.Inputs, inNames); err != nil {
			return nil, gerrors.NewErrInvalidType(tag, err)
		}
		if err := checkPorts(a.Name, a.Outputs, outNames); err != nil {
			return nil, gerrors.NewErrInvalidType(tag, err)
		}
		t.actions = append(t.actions, erase(a))
	}

	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Tag returns the type tag
func (t *Type) Tag() string {
	return t.tag
}

// Actions returns the action names in priority order
func (t *Type) Actions() []string {
	names := make([]string, len(t.actions))
	for i, a := range t.actions {
		names[i] = a.name
	}
	return names
}

// Requires returns the capabilities required by the type
func (t *Type) Requires() []string {
	return append([]string(nil), t.requires...)
}

func erase[B Behavior](a Action[B]) action {
	erased := action{
		name:    a.Name,
		inputs:  append([]string(nil), a.Inputs...),
		outputs: append([]string(nil), a.Outputs...),
		body: func(b Behavior, ctx *Context, values []any) Production {
			return a.Body(b.(B), ctx, values)
		},
	}
	if a.Guard != nil {
		erased.guard = func(b Behavior) bool {
			return a.Guard(b.(B))
		}
	}
	return erased
}

func portNames(decls []PortDecl, dir port.Direction) (goset.Set[string], error) {
	names := goset.NewThreadUnsafeSet[string]()
	for _, decl := range decls {
		if err := validation.Identifier(string(dir)+" port name", decl.Name).Validate(); err != nil {
			return nil, err
		}
		if !names.Add(decl.Name) {
			return nil, fmt.Errorf("duplicate %s port name %q", dir, decl.Name)
		}
		if err := decl.Properties.Validate(dir); err != nil {
			return nil, fmt.Errorf("port %q: %w", decl.Name, err)
		}
	}
	return names, nil
}

func checkPorts(action string, names []string, declared goset.Set[string]) error {
	used := goset.NewThreadUnsafeSet[string]()
	for _, name := range names {
		if !declared.Contains(name) {
			return fmt.Errorf("action %q uses undeclared port %q", action, name)
		}
		if !used.Add(name) {
			return fmt.Errorf("action %q uses port %q twice", action, name)
		}
	}
	return nil
}
