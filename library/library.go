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

// Package library holds ready made actor types built on the actor package.
package library

import (
	"github.com/tochemey/goflow/actor"
)

// Types returns the library actor types
func Types() ([]*actor.Type, error) {
	constructors := []func() (*actor.Type, error){
		IdentityType,
		CounterType,
		SumType,
		SinkType,
	}
	types := make([]*actor.Type, 0, len(constructors))
	for _, newType := range constructors {
		typ, err := newType()
		if err != nil {
			return nil, err
		}
		types = append(types, typ)
	}
	return types, nil
}

// Register adds the library actor types to the registry
func Register(registry *actor.Registry) error {
	types, err := Types()
	if err != nil {
		return err
	}
	return registry.Register(types...)
}
