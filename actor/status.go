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

// Status is the lifecycle state of an actor
type Status int

const (
	// StatusLoaded is the state of an actor right after construction
	StatusLoaded Status = iota
	// StatusReady is the state of an initialized actor without connections
	StatusReady
	// StatusPending is the state of a partially connected actor
	StatusPending
	// StatusEnabled is the state of a fully connected actor that can fire
	StatusEnabled
	// StatusDenied is the state of an actor whose authorization was revoked
	StatusDenied
	// StatusMigratable is the state of a denied actor with a migration target
	StatusMigratable
)

// String returns the string representation of the status
func (s Status) String() string {
	switch s {
	case StatusLoaded:
		return "LOADED"
	case StatusReady:
		return "READY"
	case StatusPending:
		return "PENDING"
	case StatusEnabled:
		return "ENABLED"
	case StatusDenied:
		return "DENIED"
	case StatusMigratable:
		return "MIGRATABLE"
	default:
		return "UNKNOWN"
	}
}

var transitions = map[Status][]Status{
	StatusLoaded:     {StatusReady},
	StatusReady:      {StatusPending, StatusEnabled, StatusDenied},
	StatusPending:    {StatusReady, StatusPending, StatusEnabled},
	StatusEnabled:    {StatusReady, StatusPending, StatusDenied},
	StatusDenied:     {StatusEnabled, StatusMigratable, StatusPending},
	StatusMigratable: {StatusReady, StatusDenied},
}

// CanTransitionTo reports whether the lifecycle allows moving to the given status
func (s Status) CanTransitionTo(to Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}
