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

// Package replication holds the replication metadata of an actor
package replication

// Data describes the replica an actor instance is
type Data struct {
	// ID identifies the replication set
	ID string `json:"id"`
	// OriginalActorID is the id of the actor the set was created from
	OriginalActorID string `json:"original_actor_id"`
	// Index is the replica number, 0 for the original
	Index int `json:"index"`
	// Instances lists the actor ids of the set
	Instances []string `json:"instances,omitempty"`
}

// IsReplicated reports whether the data belongs to a replication set
func (d *Data) IsReplicated() bool {
	return d != nil && d.ID != ""
}

// RequirementOp is the placement operation keeping replicas apart
const RequirementOp = "replication"

// Constraint returns the arguments of the placement constraint keeping the
// replicas of a set on distinct runtimes. It returns nil when the actor is
// not replicated.
func (d *Data) Constraint() map[string]any {
	if !d.IsReplicated() {
		return nil
	}
	return map[string]any{
		"replication_id": d.ID,
		"index":          d.Index,
	}
}
