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

// Package security reduces the authorization subsystem to what the actor
// runtime needs: a decision oracle and an asynchronous search for a runtime
// allowed to host an actor.
package security

import (
	"net/http"
	"sync"
)

// Subject holds the subject attributes of an actor. Values must be JSON
// serializable.
type Subject map[string]any

// Clone returns a copy of the subject
func (s Subject) Clone() Subject {
	if s == nil {
		return nil
	}
	out := make(Subject, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// SearchReply is the outcome of a runtime search
type SearchReply struct {
	// Status follows HTTP semantics; 200 means a target was found
	Status int `json:"status"`
	// NodeID is the runtime allowed to host the actor
	NodeID string `json:"node_id,omitempty"`
}

// OK reports whether the search found a target
func (r SearchReply) OK() bool {
	return r.Status == http.StatusOK && r.NodeID != ""
}

// Authorizer decides whether an actor may keep running on this runtime
type Authorizer interface {
	// CheckAuthorizationDecision returns the current decision for the actor
	CheckAuthorizationDecision(actorID string, subject Subject) bool
	// AuthorizationRuntimeSearch looks for a runtime the actor is allowed to
	// run on. The callback is invoked once, possibly from another goroutine.
	AuthorizationRuntimeSearch(actorID string, signature string, callback func(SearchReply))
}

// AllowAll is an Authorizer that always allows
type AllowAll struct{}

var _ Authorizer = AllowAll{}

// CheckAuthorizationDecision always returns true
func (AllowAll) CheckAuthorizationDecision(string, Subject) bool {
	return true
}

// AuthorizationRuntimeSearch replies that no target exists
func (AllowAll) AuthorizationRuntimeSearch(_ string, _ string, callback func(SearchReply)) {
	callback(SearchReply{Status: http.StatusNotFound})
}

// StaticAuthorizer is an Authorizer with a settable decision and search
// target. It is meant for tests and single node deployments.
type StaticAuthorizer struct {
	mu       sync.RWMutex
	allowed  bool
	target   string
	searches int
	denied   map[string]bool
}

var _ Authorizer = (*StaticAuthorizer)(nil)

// NewStaticAuthorizer creates a StaticAuthorizer with the given decision
func NewStaticAuthorizer(allowed bool) *StaticAuthorizer {
	return &StaticAuthorizer{allowed: allowed, denied: make(map[string]bool)}
}

// SetDecision sets the decision returned for every actor
func (a *StaticAuthorizer) SetDecision(allowed bool) {
	a.mu.Lock()
	a.allowed = allowed
	a.mu.Unlock()
}

// Deny denies a single actor regardless of the global decision
func (a *StaticAuthorizer) Deny(actorID string, denied bool) {
	a.mu.Lock()
	a.denied[actorID] = denied
	a.mu.Unlock()
}

// SetTarget sets the node returned by runtime searches. An empty node makes
// searches fail.
func (a *StaticAuthorizer) SetTarget(nodeID string) {
	a.mu.Lock()
	a.target = nodeID
	a.mu.Unlock()
}

// Searches returns the number of runtime searches performed
func (a *StaticAuthorizer) Searches() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.searches
}

// CheckAuthorizationDecision returns the configured decision
func (a *StaticAuthorizer) CheckAuthorizationDecision(actorID string, _ Subject) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.allowed && !a.denied[actorID]
}

// AuthorizationRuntimeSearch replies with the configured target
func (a *StaticAuthorizer) AuthorizationRuntimeSearch(_ string, _ string, callback func(SearchReply)) {
	a.mu.Lock()
	a.searches++
	target := a.target
	a.mu.Unlock()

	if target == "" {
		callback(SearchReply{Status: http.StatusNotFound})
		return
	}
	callback(SearchReply{Status: http.StatusOK, NodeID: target})
}
