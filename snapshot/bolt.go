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
	"os"
	"time"

	"go.etcd.io/bbolt"
	"go.uber.org/atomic"

	gerrors "github.com/tochemey/goflow/errors"
)

const (
	boltFileMode   os.FileMode = 0o600
	boltBucketName             = "snapshots"
)

var boltTimeout = 5 * time.Second

// BoltStore is a Store persisted in a BoltDB file.
//
// bbolt provides single-writer/multi-reader semantics. The store only guards
// its close state. Unlike the memory store the file outlives Close, so a
// restarted runtime can restore the actors it checkpointed.
type BoltStore struct {
	db     *bbolt.DB
	bucket []byte
	path   string
	closed *atomic.Bool
}

var _ Store = (*BoltStore)(nil)

// NewBoltStore opens or creates the BoltDB file at path
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, boltFileMode, &bbolt.Options{Timeout: boltTimeout, NoGrowSync: true})
	if err != nil {
		return nil, fmt.Errorf("snapshot: opening boltdb: %w", err)
	}

	bucket := []byte(boltBucketName)
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, e := tx.CreateBucketIfNotExists(bucket)
		return e
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("snapshot: initializing boltdb bucket: %w", err)
	}

	return &BoltStore{
		db:     db,
		bucket: bucket,
		path:   path,
		closed: atomic.NewBool(false),
	}, nil
}

// Path returns the database file path
func (s *BoltStore) Path() string {
	return s.path
}

// Save stores or replaces the frame of the given actor
func (s *BoltStore) Save(ctx context.Context, actorID string, frame []byte) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := s.lookup(tx)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(actorID), frame)
	})
}

// Load returns the frame of the given actor
func (s *BoltStore) Load(ctx context.Context, actorID string) ([]byte, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	var frame []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket, err := s.lookup(tx)
		if err != nil {
			return err
		}
		raw := bucket.Get([]byte(actorID))
		if raw == nil {
			return gerrors.NewErrSnapshotNotFound(actorID)
		}
		// the slice is only valid for the lifetime of the transaction
		frame = append([]byte(nil), raw...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return frame, nil
}

// Delete removes the frame of the given actor
func (s *BoltStore) Delete(ctx context.Context, actorID string) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := s.lookup(tx)
		if err != nil {
			return err
		}
		return bucket.Delete([]byte(actorID))
	})
}

// List returns the stored actor ids. Bolt keeps keys sorted.
func (s *BoltStore) List(ctx context.Context) ([]string, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	var ids []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket, err := s.lookup(tx)
		if err != nil {
			return err
		}
		return bucket.ForEach(func(k, _ []byte) error {
			ids = append(ids, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Close releases the BoltDB handle
func (s *BoltStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

func (s *BoltStore) check(ctx context.Context) error {
	if s.closed.Load() {
		return gerrors.ErrStoreClosed
	}
	return contextErr(ctx)
}

func (s *BoltStore) lookup(tx *bbolt.Tx) (*bbolt.Bucket, error) {
	bucket := tx.Bucket(s.bucket)
	if bucket == nil {
		return nil, fmt.Errorf("snapshot: bucket %q missing", s.bucket)
	}
	return bucket, nil
}
