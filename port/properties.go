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
	"fmt"
	"sort"
	"strconv"

	goset "github.com/deckarep/golang-set/v2"
)

// Direction is the port direction
type Direction string

const (
	// In is an input port direction
	In Direction = "in"
	// Out is an output port direction
	Out Direction = "out"
)

// Routing policies understood by the queues
const (
	RoutingDefault          = "default"
	RoutingFanout           = "fanout"
	RoutingRoundRobin       = "round-robin"
	RoutingCollectUnordered = "collect-unordered"
	RoutingCollectTagged    = "collect-tagged"
)

const (
	runtimeBase    = "runtime.base.1"
	runtimeRouting = "runtime.routing.1"
)

// Properties holds the port properties
type Properties struct {
	// Routing selects the queue policy of the port
	Routing string `json:"routing,omitempty"`
	// QueueLength overrides the default queue capacity when positive
	QueueLength int `json:"queue_length,omitempty"`
	// NbrPeers is the expected number of peers
	NbrPeers int `json:"nbr_peers,omitempty"`
	// Tag identifies the port in the peer collect-tagged queue
	Tag string `json:"tag,omitempty"`
}

// Validate checks the properties against the port direction
func (p Properties) Validate(dir Direction) error {
	if p.QueueLength < 0 {
		return fmt.Errorf("port: negative queue length %d", p.QueueLength)
	}
	if p.NbrPeers < 0 {
		return fmt.Errorf("port: negative number of peers %d", p.NbrPeers)
	}

	switch p.Routing {
	case "", RoutingDefault:
		return nil
	case RoutingFanout, RoutingRoundRobin:
		if dir != Out {
			return fmt.Errorf("port: routing %q is only valid on out ports", p.Routing)
		}
	case RoutingCollectUnordered, RoutingCollectTagged:
		if dir != In {
			return fmt.Errorf("port: routing %q is only valid on in ports", p.Routing)
		}
	default:
		return fmt.Errorf("port: unknown routing %q", p.Routing)
	}
	return nil
}

// routing returns the effective routing policy for the given direction
func (p Properties) routing(dir Direction) string {
	if p.Routing == "" || p.Routing == RoutingDefault {
		if dir == Out {
			return RoutingFanout
		}
		return RoutingDefault
	}
	return p.Routing
}

// PropertyCapabilities returns the capabilities a runtime must offer to
// host a port with the given properties
func PropertyCapabilities(p Properties, dir Direction) []string {
	caps := []string{"routing." + p.routing(dir)}
	if p.NbrPeers > 1 {
		caps = append(caps, "nbr_peers.many")
	}
	if p.QueueLength > 0 {
		caps = append(caps, "queue_length."+strconv.Itoa(p.QueueLength))
	}
	return caps
}

// RuntimeCapabilities maps port property capabilities onto the runtime
// capability names consumed by the placement solver. The result is sorted.
func RuntimeCapabilities(caps goset.Set[string]) []string {
	runtime := goset.NewThreadUnsafeSet(runtimeBase)
	caps.Each(func(c string) bool {
		switch c {
		case "routing." + RoutingRoundRobin,
			"routing." + RoutingCollectUnordered,
			"routing." + RoutingCollectTagged:
			runtime.Add(runtimeRouting)
		}
		return false
	})

	out := runtime.ToSlice()
	sort.Strings(out)
	return out
}
