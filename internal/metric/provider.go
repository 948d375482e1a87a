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
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	instrumentationName    = "github.com/tochemey/goflow"
	instrumentationVersion = "v0.1.0"
)

// Provider hands out the Meter the firing and runtime instruments are
// created from
type Provider struct {
	meter metric.Meter
}

// NewProvider creates a Provider over the given meter provider. A nil
// meter provider means the otel global one.
func NewProvider(mp metric.MeterProvider) *Provider {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	return &Provider{
		meter: mp.Meter(instrumentationName, metric.WithInstrumentationVersion(instrumentationVersion)),
	}
}

// NewProviderWithMeter creates a Provider backed by the given meter
func NewProviderWithMeter(meter metric.Meter) *Provider {
	return &Provider{meter: meter}
}

// Meter returns the meter
func (p *Provider) Meter() metric.Meter {
	return p.meter
}
