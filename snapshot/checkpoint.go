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

package snapshot

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/tochemey/goflow/actor"
)

// DefaultBatchConcurrency bounds the concurrent store calls of batch helpers
const DefaultBatchConcurrency = 8

// Checkpoint serializes the actor and saves its frame under the actor id.
// The actor keeps running.
func Checkpoint(ctx context.Context, store Store, codec *Codec, a actor.Actor) error {
	state, err := a.Serialize()
	if err != nil {
		return fmt.Errorf("snapshot: serializing actor=(%s): %w", a.ID(), err)
	}
	frame, err := codec.Encode(state)
	if err != nil {
		return fmt.Errorf("snapshot: encoding actor=(%s): %w", a.ID(), err)
	}
	return store.Save(ctx, a.ID(), frame)
}

// CheckpointAll checkpoints the given actors concurrently and returns the
// first error met
func CheckpointAll(ctx context.Context, store Store, codec *Codec, actors ...actor.Actor) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(DefaultBatchConcurrency)
	for _, a := range actors {
		eg.Go(func() error {
			return Checkpoint(ctx, store, codec, a)
		})
	}
	return eg.Wait()
}

// Migrate hands the actor over to another runtime: the migration hook runs,
// the snapshot is saved and the actor capabilities are released. The caller
// drops the actor afterwards.
func Migrate(ctx context.Context, store Store, codec *Codec, a actor.Actor) error {
	a.WillMigrate()
	if err := Checkpoint(ctx, store, codec, a); err != nil {
		return err
	}
	return a.WillEnd()
}

// Restore loads the frame of the given actor and rebuilds the actor with
// the factory. Unknown actor types come back as shadow actors.
func Restore(ctx context.Context, store Store, codec *Codec, factory *actor.Factory, actorID string) (actor.Actor, error) {
	frame, err := store.Load(ctx, actorID)
	if err != nil {
		return nil, err
	}
	state, err := codec.Decode(frame)
	if err != nil {
		return nil, fmt.Errorf("snapshot: decoding actor=(%s): %w", actorID, err)
	}
	return factory.Restore(state)
}

// RestoreAll restores every actor held by the store. The actors restored
// successfully are returned together with the combined restore errors.
func RestoreAll(ctx context.Context, store Store, codec *Codec, factory *actor.Factory) ([]actor.Actor, error) {
	ids, err := store.List(ctx)
	if err != nil {
		return nil, err
	}

	restored := make([]actor.Actor, len(ids))
	errs := make([]error, len(ids))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(DefaultBatchConcurrency)
	for i, id := range ids {
		eg.Go(func() error {
			restored[i], errs[i] = Restore(ctx, store, codec, factory, id)
			return nil
		})
	}
	_ = eg.Wait()

	actors := make([]actor.Actor, 0, len(ids))
	for _, a := range restored {
		if a != nil {
			actors = append(actors, a)
		}
	}
	return actors, multierr.Combine(errs...)
}
