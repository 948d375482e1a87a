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

package actor

import (
	goset "github.com/deckarep/golang-set/v2"

	"github.com/tochemey/goflow/port"
	"github.com/tochemey/goflow/replication"
)

const (
	// RequirementActorReqs matches the capabilities an actor type requires
	RequirementActorReqs = "actor_reqs_match"
	// RequirementPortProperty matches the capabilities derived from port properties
	RequirementPortProperty = "port_property_match"
	// RequirementShadowActor matches runtimes that know the type of a shadow actor
	RequirementShadowActor = "shadow_actor_reqs_match"

	// Intersect marks a requirement narrowing the set of candidate runtimes
	Intersect = "+"
	// Exclude marks a requirement removing runtimes from the candidates
	Exclude = "-"
)

// Requirement is one entry of the placement requirement list handed to the
// placement solver
type Requirement struct {
	Op     string         `json:"op"`
	Kwargs map[string]any `json:"kwargs"`
	Type   string         `json:"type"`
}

// Requirements returns, in order, the deployment requirements, the type
// requirements, the port property requirement and the replication
// constraint. The list is rebuilt on every call.
func (c *core) Requirements() []Requirement {
	c.mu.Lock()
	defer c.mu.Unlock()

	reqs := make([]Requirement, 0, len(c.deployReqs)+3)
	reqs = append(reqs, c.deployReqs...)

	if c.shadow {
		if c.signature != "" {
			reqs = append(reqs, Requirement{
				Op: RequirementShadowActor,
				Kwargs: map[string]any{
					"signature":     c.signature,
					"shadow_params": append([]string(nil), c.shadowParams...),
				},
				Type: Intersect,
			})
		}
		return reqs
	}

	if len(c.requires) > 0 {
		reqs = append(reqs, Requirement{
			Op:     RequirementActorReqs,
			Kwargs: map[string]any{"requires": append([]string(nil), c.requires...)},
			Type:   Intersect,
		})
	}

	reqs = append(reqs, Requirement{
		Op:     RequirementPortProperty,
		Kwargs: map[string]any{"port_property": c.portCapabilities()},
		Type:   Intersect,
	})

	if constraint := c.replication.Constraint(); constraint != nil {
		reqs = append(reqs, Requirement{
			Op:     replication.RequirementOp,
			Kwargs: constraint,
			Type:   Exclude,
		})
	}
	return reqs
}

// portCapabilities returns the runtime capabilities derived from the port
// properties, recomputing the cached list after a property change. It must
// be called with the lock held.
func (c *core) portCapabilities() []string {
	if c.portCapsDirty.CompareAndSwap(true, false) || c.portCaps == nil {
		caps := goset.NewThreadUnsafeSet[string]()
		for _, p := range c.inports {
			caps.Append(port.PropertyCapabilities(p.Properties(), port.In)...)
		}
		for _, p := range c.outports {
			caps.Append(port.PropertyCapabilities(p.Properties(), port.Out)...)
		}
		c.portCaps = port.RuntimeCapabilities(caps)
	}
	return append([]string(nil), c.portCaps...)
}

func copyRequirements(reqs []Requirement) []Requirement {
	if len(reqs) == 0 {
		return nil
	}
	return append([]Requirement(nil), reqs...)
}
