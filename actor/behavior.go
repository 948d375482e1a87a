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
	"encoding/json"

	"github.com/tochemey/goflow/token"
)

// Args are the constructor arguments of an actor
type Args map[string]any

// Production is the tuple of values an action produces, one per declared
// output port
type Production []any

// Behavior is the user defined part of an actor. Init is called exactly once,
// when the actor is created; a migrated actor is not initialized again.
type Behavior interface {
	Init(ctx *Context, args Args) error
}

// Starter is implemented by behaviors that want to know when the actor is
// enabled for the first time
type Starter interface {
	WillStart(ctx *Context)
}

// Stopper is implemented by behaviors that want to know when an enabled
// actor loses a connection
type Stopper interface {
	WillStop(ctx *Context)
}

// Ender is implemented by behaviors that release resources when the actor is
// destroyed
type Ender interface {
	WillEnd(ctx *Context)
}

// MigrationAware is implemented by behaviors that take part in migration
type MigrationAware interface {
	// WillMigrate is called on the source node before the actor is serialized
	WillMigrate(ctx *Context)
	// DidMigrate is called on the destination node after the actor is restored
	DidMigrate(ctx *Context)
}

// ExceptionHandler is implemented by behaviors that handle exception tokens.
// The returned production follows the arity of the action outputs.
type ExceptionHandler interface {
	HandleException(ctx *Context, action string, tokens []*token.Token) Production
}

// ManagedStater is implemented by behaviors with managed state. Managed
// returns a pointer to a JSON serializable struct persisted across migration.
type ManagedStater interface {
	Managed() any
}

// CustomStater is implemented by behaviors with state the managed struct
// cannot express
type CustomStater interface {
	CustomState() (json.RawMessage, error)
	SetCustomState(state json.RawMessage) error
}

// Replicator is implemented by behaviors with replication specific state
type Replicator interface {
	// ReplicationState returns the replication state and whether there is any
	ReplicationState() (json.RawMessage, bool)
	// SetReplicationState restores the replication state
	SetReplicationState(state json.RawMessage) error
}
