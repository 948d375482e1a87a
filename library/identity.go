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

package library

import (
	"github.com/tochemey/goflow/actor"
)

// IdentityTag is the type tag of Identity
const IdentityTag = "std.Identity"

// Identity forwards every token unchanged. Exception tokens, end of stream
// included, are forwarded by the default exception handling.
type Identity struct {
	dump bool
}

// Init reads the optional "dump" argument. When set every forwarded value
// is logged at debug level.
func (i *Identity) Init(_ *actor.Context, args actor.Args) error {
	i.dump, _ = args["dump"].(bool)
	return nil
}

// IdentityType returns the Identity actor type
func IdentityType() (*actor.Type, error) {
	return actor.NewType(IdentityTag, func() *Identity { return new(Identity) },
		[]actor.PortDecl{{Name: "token"}},
		[]actor.PortDecl{{Name: "token"}},
		[]actor.Action[*Identity]{{
			Name:    "identity",
			Inputs:  []string{"token"},
			Outputs: []string{"token"},
			Body: func(i *Identity, ctx *actor.Context, values []any) actor.Production {
				if i.dump {
					ctx.Logger().Debugf("%s: %v", ctx.ActorName(), values[0])
				}
				return actor.Production{values[0]}
			},
		}},
	)
}
