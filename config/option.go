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
	"time"

	"github.com/tochemey/goflow/log"
)

// Option is the interface that applies a configuration option.
type Option interface {
	// Apply sets the Option value of a config.
	Apply(config *Config)
}

// enforce compilation error
var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(*Config)

// Apply applies the option
func (f OptionFunc) Apply(c *Config) {
	f(c)
}

// WithLogger sets the runtime logger
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(c *Config) {
		c.Logger = logger
	})
}

// WithStrictTransitions makes lifecycle transitions missing from the
// transition table fail instead of being logged.
func WithStrictTransitions() Option {
	return OptionFunc(func(c *Config) {
		c.AllowInvalidTransitions = false
	})
}

// WithQueueCapacity sets the default port queue capacity
func WithQueueCapacity(capacity int) Option {
	return OptionFunc(func(c *Config) {
		c.QueueCapacity = capacity
	})
}

// WithPressureSamples sets the pressure history size of every queue
func WithPressureSamples(samples int) Option {
	return OptionFunc(func(c *Config) {
		c.PressureSamples = samples
	})
}

// WithMigrationRetryDelay sets the delay between migration target searches
func WithMigrationRetryDelay(delay time.Duration) Option {
	return OptionFunc(func(c *Config) {
		c.MigrationRetryDelay = delay
	})
}

// WithAuthorizationCheckInterval sets how often authorization decisions are re-checked.
// Zero disables the periodic check.
func WithAuthorizationCheckInterval(interval time.Duration) Option {
	return OptionFunc(func(c *Config) {
		c.AuthorizationCheckInterval = interval
	})
}

// WithMaxFiringsPerRound sets the maximum consecutive firings of one actor per scheduler round
func WithMaxFiringsPerRound(max int) Option {
	return OptionFunc(func(c *Config) {
		c.MaxFiringsPerRound = max
	})
}

// WithMetric enables firing metrics
func WithMetric() Option {
	return OptionFunc(func(c *Config) {
		c.MetricEnabled = true
	})
}
