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

package port

import (
	"time"
)

// Sample is a queue depth observation
type Sample struct {
	At    time.Time
	Depth int
}

// pressure keeps the last N depth samples of a queue. It is not
// synchronized; callers record samples while holding the queue lock.
type pressure struct {
	samples []Sample
	next    int
	full    bool
	// number of writes rejected because the queue was full
	fullCount uint64
}

func newPressure(size int) *pressure {
	if size <= 0 {
		size = 1
	}
	return &pressure{samples: make([]Sample, size)}
}

func (p *pressure) record(depth int) {
	p.samples[p.next] = Sample{At: time.Now(), Depth: depth}
	p.next = (p.next + 1) % len(p.samples)
	if p.next == 0 {
		p.full = true
	}
}

// history returns the samples in chronological order
func (p *pressure) history() []Sample {
	if !p.full {
		out := make([]Sample, p.next)
		copy(out, p.samples[:p.next])
		return out
	}
	out := make([]Sample, 0, len(p.samples))
	out = append(out, p.samples[p.next:]...)
	return append(out, p.samples[:p.next]...)
}
