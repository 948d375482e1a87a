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
	"fmt"

	"github.com/tochemey/goflow/actor"
)

// SumTag is the type tag of Sum
const SumTag = "std.Sum"

// Sum adds one token of "a" to one token of "b"
type Sum struct{}

// Init does nothing
func (*Sum) Init(*actor.Context, actor.Args) error { return nil }

// SumType returns the Sum actor type
func SumType() (*actor.Type, error) {
	return actor.NewType(SumTag, func() *Sum { return new(Sum) },
		[]actor.PortDecl{{Name: "a"}, {Name: "b"}},
		[]actor.PortDecl{{Name: "sum"}},
		[]actor.Action[*Sum]{{
			Name:    "sum",
			Inputs:  []string{"a", "b"},
			Outputs: []string{"sum"},
			Body: func(_ *Sum, _ *actor.Context, values []any) actor.Production {
				result, err := add(values[0], values[1])
				if err != nil {
					panic(err)
				}
				return actor.Production{result}
			},
		}},
	)
}

// add sums two numbers. Integers stay integers; restored snapshots carry
// float64 values, which promote the result.
func add(a, b any) (any, error) {
	x, xInt, err := number(a)
	if err != nil {
		return nil, err
	}
	y, yInt, err := number(b)
	if err != nil {
		return nil, err
	}
	if xInt && yInt {
		return int(x) + int(y), nil
	}
	return x + y, nil
}

func number(v any) (float64, bool, error) {
	switch n := v.(type) {
	case int:
		return float64(n), true, nil
	case int32:
		return float64(n), true, nil
	case int64:
		return float64(n), true, nil
	case float32:
		return float64(n), false, nil
	case float64:
		return n, false, nil
	default:
		return 0, false, fmt.Errorf("cannot add a value of type %T", v)
	}
}

func intArg(args actor.Args, key string) (int, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return 0, nil
	}
	n, isInt, err := number(raw)
	if err != nil {
		return 0, fmt.Errorf("argument %q: %w", key, err)
	}
	if !isInt && n != float64(int(n)) {
		return 0, fmt.Errorf("argument %q: %v is not an integer", key, raw)
	}
	return int(n), nil
}
