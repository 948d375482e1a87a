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

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/tochemey/goflow/errors"
	"github.com/tochemey/goflow/log"
)

func TestConfig(t *testing.T) {
	t.Run("With defaults", func(t *testing.T) {
		cfg, err := New("node-1")
		require.NoError(t, err)
		assert.Equal(t, "node-1", cfg.NodeID)
		assert.True(t, cfg.AllowInvalidTransitions)
		assert.Equal(t, DefaultQueueCapacity, cfg.QueueCapacity)
		assert.Equal(t, DefaultPressureSamples, cfg.PressureSamples)
		assert.Equal(t, DefaultMigrationRetryDelay, cfg.MigrationRetryDelay)
		assert.Equal(t, DefaultAuthorizationCheckInterval, cfg.AuthorizationCheckInterval)
		assert.Equal(t, DefaultMaxFiringsPerRound, cfg.MaxFiringsPerRound)
		assert.False(t, cfg.MetricEnabled)
		assert.Equal(t, log.DefaultLogger, cfg.Logger)
	})
	t.Run("With options", func(t *testing.T) {
		cfg, err := New("node-1",
			WithLogger(log.DiscardLogger),
			WithStrictTransitions(),
			WithQueueCapacity(8),
			WithPressureSamples(5),
			WithMigrationRetryDelay(10*time.Millisecond),
			WithAuthorizationCheckInterval(time.Minute),
			WithMaxFiringsPerRound(2),
			WithMetric())
		require.NoError(t, err)
		assert.False(t, cfg.AllowInvalidTransitions)
		assert.Equal(t, 8, cfg.QueueCapacity)
		assert.Equal(t, 5, cfg.PressureSamples)
		assert.Equal(t, 10*time.Millisecond, cfg.MigrationRetryDelay)
		assert.Equal(t, time.Minute, cfg.AuthorizationCheckInterval)
		assert.Equal(t, 2, cfg.MaxFiringsPerRound)
		assert.True(t, cfg.MetricEnabled)
		assert.Equal(t, log.DiscardLogger, cfg.Logger)
	})
	t.Run("With missing node id", func(t *testing.T) {
		cfg, err := New("")
		require.ErrorIs(t, err, gerrors.ErrNodeIDRequired)
		assert.Nil(t, cfg)
	})
	t.Run("With invalid values", func(t *testing.T) {
		_, err := New("node-1", WithQueueCapacity(0))
		require.ErrorIs(t, err, gerrors.ErrInvalidConfig)
		_, err = New("node-1", WithPressureSamples(-1))
		require.ErrorIs(t, err, gerrors.ErrInvalidConfig)
		_, err = New("node-1", WithMaxFiringsPerRound(0))
		require.ErrorIs(t, err, gerrors.ErrInvalidConfig)
		_, err = New("node-1", WithMigrationRetryDelay(-time.Second))
		require.ErrorIs(t, err, gerrors.ErrInvalidConfig)
	})
	t.Run("With nil logger", func(t *testing.T) {
		cfg, err := New("node-1", WithLogger(nil))
		require.NoError(t, err)
		assert.Equal(t, log.DiscardLogger, cfg.Logger)
	})
	t.Run("Default", func(t *testing.T) {
		cfg := Default()
		require.NotNil(t, cfg)
		assert.Equal(t, "local", cfg.NodeID)
	})
}
