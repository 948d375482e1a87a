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

import "go.opentelemetry.io/otel/metric"

// RuntimeMetric groups the observable instruments describing the scheduler
// at a coarse level. Observe them with Meter.RegisterCallback.
type RuntimeMetric struct {
	actorsCount metric.Int64ObservableGauge
	brokenCount metric.Int64ObservableGauge
}

// NewRuntimeMetric creates the runtime instruments using the provided Meter
func NewRuntimeMetric(meter metric.Meter) (*RuntimeMetric, error) {
	var instruments RuntimeMetric
	var err error

	if instruments.actorsCount, err = meter.Int64ObservableGauge(
		"runtime.actors.count",
		metric.WithDescription("Number of actors registered with the scheduler"),
	); err != nil {
		return nil, err
	}

	if instruments.brokenCount, err = meter.Int64ObservableGauge(
		"runtime.broken_actors.count",
		metric.WithDescription("Number of actors quarantined after a fatal error"),
	); err != nil {
		return nil, err
	}

	return &instruments, nil
}

// ActorsCount returns the gauge of registered actors
func (x *RuntimeMetric) ActorsCount() metric.Int64ObservableGauge {
	return x.actorsCount
}

// BrokenCount returns the gauge of quarantined actors
func (x *RuntimeMetric) BrokenCount() metric.Int64ObservableGauge {
	return x.brokenCount
}
