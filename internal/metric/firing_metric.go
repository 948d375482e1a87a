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

package metric

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// FiringMetric groups the instruments recorded by the scheduler each time
// it fires an actor.
//
// Instruments:
//   - actor.firings.count         (Int64Counter)
//   - actor.blocked_output.count  (Int64Counter)
//   - actor.failures.count        (Int64Counter)
//   - actor.firing.duration       (Float64Histogram, unit: ms)
type FiringMetric struct {
	firingsCount       metric.Int64Counter
	blockedOutputCount metric.Int64Counter
	failuresCount      metric.Int64Counter
	firingDuration     metric.Float64Histogram
}

// NewFiringMetric creates the firing instruments using the provided Meter
func NewFiringMetric(meter metric.Meter) (*FiringMetric, error) {
	var instruments FiringMetric
	var err error

	if instruments.firingsCount, err = meter.Int64Counter(
		"actor.firings.count",
		metric.WithDescription("Total number of actions fired"),
	); err != nil {
		return nil, fmt.Errorf("failed to create firingsCount instrument, %w", err)
	}

	if instruments.blockedOutputCount, err = meter.Int64Counter(
		"actor.blocked_output.count",
		metric.WithDescription("Total number of firings skipped because an output port was full"),
	); err != nil {
		return nil, fmt.Errorf("failed to create blockedOutputCount instrument, %w", err)
	}

	if instruments.failuresCount, err = meter.Int64Counter(
		"actor.failures.count",
		metric.WithDescription("Total number of firings aborted with an error"),
	); err != nil {
		return nil, fmt.Errorf("failed to create failuresCount instrument, %w", err)
	}

	if instruments.firingDuration, err = meter.Float64Histogram(
		"actor.firing.duration",
		metric.WithDescription("The latency of a firing in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, fmt.Errorf("failed to create firingDuration instrument, %w", err)
	}

	return &instruments, nil
}

// FiringsCount returns the counter of actions fired
func (x *FiringMetric) FiringsCount() metric.Int64Counter {
	return x.firingsCount
}

// BlockedOutputCount returns the counter of firings blocked on output
func (x *FiringMetric) BlockedOutputCount() metric.Int64Counter {
	return x.blockedOutputCount
}

// FailuresCount returns the counter of failed firings
func (x *FiringMetric) FailuresCount() metric.Int64Counter {
	return x.failuresCount
}

// FiringDuration returns the firing latency histogram
func (x *FiringMetric) FiringDuration() metric.Float64Histogram {
	return x.firingDuration
}
