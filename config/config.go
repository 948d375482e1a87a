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
	"fmt"
	"time"

	gerrors "github.com/tochemey/goflow/errors"
	"github.com/tochemey/goflow/internal/validation"
	"github.com/tochemey/goflow/log"
)

const (
	// DefaultQueueCapacity is the number of tokens a port queue holds when the
	// port properties do not set a queue length.
	DefaultQueueCapacity = 4
	// DefaultPressureSamples is the size of the per queue pressure history.
	DefaultPressureSamples = 20
	// DefaultMigrationRetryDelay is the delay before a denied actor searches again for a migration target.
	DefaultMigrationRetryDelay = time.Second
	// DefaultAuthorizationCheckInterval is how often the scheduler re-checks authorization decisions.
	DefaultAuthorizationCheckInterval = 5 * time.Second
	// DefaultMaxFiringsPerRound bounds the consecutive firings of one actor within a scheduler round.
	DefaultMaxFiringsPerRound = 64
)

// Config defines the runtime configuration shared by actors, ports and the scheduler
type Config struct {
	// Specifies the identifier of the runtime node
	NodeID string
	// Specifies the logger to use in the runtime
	Logger log.Logger
	// Specifies whether lifecycle transitions missing from the transition table
	// are allowed with a warning. When false such transitions fail. The default value is true
	AllowInvalidTransitions bool
	// Specifies the default port queue capacity. The default value is 4
	QueueCapacity int
	// Specifies the number of pressure samples kept per queue. The default value is 20
	PressureSamples int
	// Specifies the delay between two migration target searches. The default value is 1s
	MigrationRetryDelay time.Duration
	// Specifies how often authorization decisions are re-checked. The default value is 5s
	AuthorizationCheckInterval time.Duration
	// Specifies the maximum consecutive firings of a single actor per scheduler round.
	// The default value is 64
	MaxFiringsPerRound int
	// Specifies whether firing metrics are recorded
	MetricEnabled bool
}

// New creates an instance of Config
func New(nodeID string, options ...Option) (*Config, error) {
	if nodeID == "" {
		return nil, gerrors.ErrNodeIDRequired
	}

	config := &Config{
		NodeID:                     nodeID,
		Logger:                     log.DefaultLogger,
		AllowInvalidTransitions:    true,
		QueueCapacity:              DefaultQueueCapacity,
		PressureSamples:            DefaultPressureSamples,
		MigrationRetryDelay:        DefaultMigrationRetryDelay,
		AuthorizationCheckInterval: DefaultAuthorizationCheckInterval,
		MaxFiringsPerRound:         DefaultMaxFiringsPerRound,
	}

	for _, opt := range options {
		opt.Apply(config)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Default returns a configuration with default values that logs nothing.
// It is mainly meant for tests and embedded usage.
func Default() *Config {
	config, _ := New("local", WithLogger(log.DiscardLogger))
	return config
}

// Validate checks the configuration values. Every invalid value is reported.
func (c *Config) Validate() error {
	if c.NodeID == "" {
		return gerrors.ErrNodeIDRequired
	}
	if err := validation.New().
		AddValidator(validation.Positive("queue capacity", c.QueueCapacity)).
		AddValidator(validation.Positive("pressure samples", c.PressureSamples)).
		AddValidator(validation.Positive("max firings per round", c.MaxFiringsPerRound)).
		AddAssertion(c.MigrationRetryDelay >= 0, "migration retry delay=(%s) must not be negative", c.MigrationRetryDelay).
		AddAssertion(c.AuthorizationCheckInterval >= 0, "authorization check interval=(%s) must not be negative", c.AuthorizationCheckInterval).
		Validate(); err != nil {
		return fmt.Errorf("%w: %w", gerrors.ErrInvalidConfig, err)
	}
	if c.Logger == nil {
		c.Logger = log.DiscardLogger
	}
	return nil
}
