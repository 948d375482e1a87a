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
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/flowchartsman/retry"
	"github.com/redis/go-redis/v9"
	"go.uber.org/atomic"

	gerrors "github.com/tochemey/goflow/errors"
)

const (
	// DefaultKeyPrefix namespaces the snapshot keys in redis
	DefaultKeyPrefix = "goflow:snapshot:"

	pingAttempts     = 5
	pingInitialDelay = 100 * time.Millisecond
	pingMaxDelay     = time.Second
	scanCount        = 100
)

// RedisOption configures a RedisStore
type RedisOption interface {
	// Apply sets the option value of a redis store.
	Apply(s *RedisStore)
}

// enforce compilation error
var _ RedisOption = RedisOptionFunc(nil)

// RedisOptionFunc implements the RedisOption interface.
type RedisOptionFunc func(*RedisStore)

func (f RedisOptionFunc) Apply(s *RedisStore) {
	f(s)
}

// WithKeyPrefix sets the prefix of the snapshot keys
func WithKeyPrefix(prefix string) RedisOption {
	return RedisOptionFunc(func(s *RedisStore) {
		s.prefix = prefix
	})
}

// WithTTL expires stored frames after the given duration. Zero keeps them
// until deleted.
func WithTTL(ttl time.Duration) RedisOption {
	return RedisOptionFunc(func(s *RedisStore) {
		s.ttl = ttl
	})
}

// RedisStore is a Store backed by redis. Runtimes on different nodes
// sharing the same redis hand snapshots over through it.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	closed *atomic.Bool
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a RedisStore over the given client. The server is
// pinged with an exponential backoff before the store is returned.
func NewRedisStore(ctx context.Context, client redis.UniversalClient, opts ...RedisOption) (*RedisStore, error) {
	s := &RedisStore{
		client: client,
		prefix: DefaultKeyPrefix,
		closed: atomic.NewBool(false),
	}
	for _, opt := range opts {
		opt.Apply(s)
	}

	retrier := retry.NewRetrier(pingAttempts, pingInitialDelay, pingMaxDelay)
	if err := retrier.RunContext(ctx, func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}); err != nil {
		return nil, fmt.Errorf("snapshot: unable to reach redis: %w", err)
	}
	return s, nil
}

// Save stores or replaces the frame of the given actor
func (s *RedisStore) Save(ctx context.Context, actorID string, frame []byte) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(actorID), frame, s.ttl).Err()
}

// Load returns the frame of the given actor
func (s *RedisStore) Load(ctx context.Context, actorID string) ([]byte, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	frame, err := s.client.Get(ctx, s.key(actorID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, gerrors.NewErrSnapshotNotFound(actorID)
		}
		return nil, err
	}
	return frame, nil
}

// Delete removes the frame of the given actor
func (s *RedisStore) Delete(ctx context.Context, actorID string) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	return s.client.Del(ctx, s.key(actorID)).Err()
}

// List returns the stored actor ids
func (s *RedisStore) List(ctx context.Context) ([]string, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	var ids []string
	iter := s.client.Scan(ctx, 0, s.prefix+"*", scanCount).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, strings.TrimPrefix(iter.Val(), s.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}

// Close closes the redis client
func (s *RedisStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.client.Close()
}

func (s *RedisStore) check(ctx context.Context) error {
	if s.closed.Load() {
		return gerrors.ErrStoreClosed
	}
	return contextErr(ctx)
}

func (s *RedisStore) key(actorID string) string {
	return s.prefix + actorID
}
