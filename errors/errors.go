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

package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidProduction is returned when an action body or an exception handler returns a
	// production whose length differs from the number of declared output ports.
	ErrInvalidProduction = errors.New("invalid production")

	// ErrActorNotEnabled is returned when firing an actor that is neither enabled nor exhausting.
	ErrActorNotEnabled = errors.New("actor is not enabled")

	// ErrMalformedSnapshot is returned when a serialized actor state misses required private keys.
	ErrMalformedSnapshot = errors.New("malformed actor snapshot")

	// ErrInvalidTransition is returned when a lifecycle transition is not allowed in strict mode.
	ErrInvalidTransition = errors.New("invalid lifecycle transition")

	// ErrInvalidActorState is returned when an operation is called in a lifecycle state that does not accept it.
	ErrInvalidActorState = errors.New("operation not allowed in the current actor state")

	// ErrQueueFull is returned when writing a token to a queue without any free slot.
	ErrQueueFull = errors.New("queue is full")

	// ErrQueueEmpty is returned when reading from a queue without any available token.
	ErrQueueEmpty = errors.New("queue is empty")

	// ErrPortNotFound is returned when a port name is not declared by the actor.
	ErrPortNotFound = errors.New("port not found")

	// ErrPortNotConnected is returned when reading from or writing to a port without any peer.
	ErrPortNotConnected = errors.New("port is not connected")

	// ErrInvalidQueueState is returned when restoring a queue from an incompatible state.
	ErrInvalidQueueState = errors.New("invalid queue state")

	// ErrTypeNotRegistered is returned when creating an actor of an unknown type.
	ErrTypeNotRegistered = errors.New("actor type is not registered")

	// ErrTypeAlreadyRegistered is returned when registering the same actor type twice.
	ErrTypeAlreadyRegistered = errors.New("actor type is already registered")

	// ErrInvalidType is returned when an actor type definition is inconsistent.
	ErrInvalidType = errors.New("invalid actor type definition")

	// ErrInitFailure is returned when the actor Init hook fails.
	ErrInitFailure = errors.New("actor init failed")

	// ErrCapabilityNotRegistered is returned when opening an unknown capability.
	ErrCapabilityNotRegistered = errors.New("capability is not registered")

	// ErrCapabilityNotFound is returned when a capability handle is unknown.
	ErrCapabilityNotFound = errors.New("capability handle not found")

	// ErrCapabilityNotReady is returned when reading or writing a capability that is not ready.
	ErrCapabilityNotReady = errors.New("capability is not ready")

	// ErrMigrationTargetNotFound is returned when no runtime accepts a denied actor.
	ErrMigrationTargetNotFound = errors.New("migration target not found")

	// ErrAuthorizationSearchFailed is returned when the authorization runtime search fails.
	ErrAuthorizationSearchFailed = errors.New("authorization runtime search failed")

	// ErrSchedulerNotStarted is returned when using the scheduler before it has started.
	ErrSchedulerNotStarted = errors.New("scheduler has not started")

	// ErrActorAlreadyRegistered is returned when registering the same actor twice with the scheduler.
	ErrActorAlreadyRegistered = errors.New("actor is already registered")

	// ErrSnapshotNotFound is returned when a snapshot store has no entry for an actor.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrCorruptSnapshot is returned when an encoded snapshot fails its integrity check.
	ErrCorruptSnapshot = errors.New("corrupt snapshot")

	// ErrStoreClosed is returned when using a snapshot store after Close.
	ErrStoreClosed = errors.New("snapshot store is closed")

	// ErrNodeIDRequired is returned when the runtime configuration has no node id.
	ErrNodeIDRequired = errors.New("node id is required")

	// ErrInvalidConfig is returned when a runtime configuration value is out of range.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Kind classifies runtime errors by how the caller is expected to react.
type Kind int

const (
	// KindUnknown is any error not produced by the runtime.
	KindUnknown Kind = iota
	// KindFatal marks invariant violations. The operation is aborted and the
	// actor must not be fired again.
	KindFatal
	// KindRecoverable marks conditions the caller can handle inline.
	KindRecoverable
	// KindRelaxed marks policy violations that are logged instead of raised.
	KindRelaxed
	// KindRetryable marks external conditions retried after a delay.
	KindRetryable
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindFatal:
		return "fatal"
	case KindRecoverable:
		return "recoverable"
	case KindRelaxed:
		return "relaxed"
	case KindRetryable:
		return "retryable"
	default:
		return "unknown"
	}
}

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrInvalidProduction, KindFatal},
	{ErrActorNotEnabled, KindFatal},
	{ErrMalformedSnapshot, KindFatal},
	{ErrInvalidTransition, KindFatal},
	{ErrInvalidActorState, KindFatal},
	{ErrInvalidQueueState, KindFatal},
	{ErrCorruptSnapshot, KindFatal},
	{ErrMigrationTargetNotFound, KindRetryable},
	{ErrAuthorizationSearchFailed, KindRetryable},
	{ErrQueueFull, KindRecoverable},
	{ErrQueueEmpty, KindRecoverable},
	{ErrPortNotFound, KindRecoverable},
	{ErrPortNotConnected, KindRecoverable},
	{ErrCapabilityNotReady, KindRecoverable},
	{ErrCapabilityNotFound, KindRecoverable},
	{ErrSnapshotNotFound, KindRecoverable},
}

// KindOf returns the kind of the given error. Panics recovered from action
// bodies are always fatal.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var pe *PanicError
	if errors.As(err, &pe) {
		return KindFatal
	}

	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindUnknown
}

// IsFatal reports whether the error is an invariant violation
func IsFatal(err error) bool {
	return KindOf(err) == KindFatal
}

// NewErrInvalidProduction formats an ErrInvalidProduction for the given action.
func NewErrInvalidProduction(action string, got, want int) error {
	return fmt.Errorf("action=(%s) produced %d values, expected %d: %w", action, got, want, ErrInvalidProduction)
}

// NewErrActorNotEnabled formats an ErrActorNotEnabled with the actor id and its status.
func NewErrActorNotEnabled(actorID, status string) error {
	return fmt.Errorf("(actor=%s, status=%s) %w", actorID, status, ErrActorNotEnabled)
}

// NewErrMalformedSnapshot formats an ErrMalformedSnapshot with the missing key.
func NewErrMalformedSnapshot(key string) error {
	return fmt.Errorf("missing key=(%s): %w", key, ErrMalformedSnapshot)
}

// NewErrInvalidTransition formats an ErrInvalidTransition.
func NewErrInvalidTransition(from, to string) error {
	return fmt.Errorf("%s -> %s: %w", from, to, ErrInvalidTransition)
}

// NewErrInvalidActorState formats an ErrInvalidActorState for the given operation.
func NewErrInvalidActorState(op, status string) error {
	return fmt.Errorf("op=(%s) status=(%s): %w", op, status, ErrInvalidActorState)
}

// NewErrPortNotFound formats an ErrPortNotFound with the given port name.
func NewErrPortNotFound(name string) error {
	return fmt.Errorf("port=(%s) %w", name, ErrPortNotFound)
}

// NewErrTypeNotRegistered formats an ErrTypeNotRegistered with the given type tag.
func NewErrTypeNotRegistered(tag string) error {
	return fmt.Errorf("type=(%s) %w", tag, ErrTypeNotRegistered)
}

// NewErrInvalidType wraps a type definition failure.
func NewErrInvalidType(tag string, err error) error {
	return fmt.Errorf("type=(%s): %w", tag, errors.Join(ErrInvalidType, err))
}

// NewErrInitFailure wraps a base error with ErrInitFailure to indicate an Init failure.
func NewErrInitFailure(err error) error {
	return errors.Join(ErrInitFailure, err)
}

// NewErrCapabilityNotRegistered formats an ErrCapabilityNotRegistered.
func NewErrCapabilityNotRegistered(name string) error {
	return fmt.Errorf("capability=(%s) %w", name, ErrCapabilityNotRegistered)
}

// NewErrSnapshotNotFound formats an ErrSnapshotNotFound with the actor id.
func NewErrSnapshotNotFound(actorID string) error {
	return fmt.Errorf("(actor=%s) %w", actorID, ErrSnapshotNotFound)
}

// PanicError wraps a panic recovered while firing an action
type PanicError struct {
	err error
}

// enforce compilation error
var _ error = (*PanicError)(nil)

// NewPanicError creates an instance of PanicError
func NewPanicError(err error) *PanicError {
	return &PanicError{err}
}

// Error implements the standard error interface
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.err)
}

func (e *PanicError) Unwrap() error {
	return e.err
}
