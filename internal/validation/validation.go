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

// Package validation accumulates checks on user supplied definitions and
// configuration values.
package validation

import (
	"fmt"
	"regexp"

	"go.uber.org/multierr"
)

// identifierPattern matches type tags, port names and action names:
// a letter followed by letters, digits, dots, dashes or underscores.
var identifierPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9._-]*$`)

// Validator checks a single value
type Validator interface {
	Validate() error
}

// ValidatorFunc implements Validator
type ValidatorFunc func() error

// Validate calls f
func (f ValidatorFunc) Validate() error {
	return f()
}

// Chain runs validators in order and gathers their violations
type Chain struct {
	failFast   bool
	validators []Validator
}

// ChainOption configures a Chain
type ChainOption func(*Chain)

// FailFast stops the chain at the first violation
func FailFast() ChainOption {
	return func(c *Chain) { c.failFast = true }
}

// New creates a Chain. By default every violation is reported.
func New(opts ...ChainOption) *Chain {
	c := new(Chain)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddValidator appends a validator
func (c *Chain) AddValidator(v Validator) *Chain {
	c.validators = append(c.validators, v)
	return c
}

// AddAssertion appends a check failing with the given message when ok is false
func (c *Chain) AddAssertion(ok bool, format string, args ...any) *Chain {
	return c.AddValidator(ValidatorFunc(func() error {
		if ok {
			return nil
		}
		return fmt.Errorf(format, args...)
	}))
}

// Validate runs the chain. Violations are combined with multierr unless
// the chain fails fast.
func (c *Chain) Validate() error {
	var violations error
	for _, v := range c.validators {
		err := v.Validate()
		if err == nil {
			continue
		}
		if c.failFast {
			return err
		}
		violations = multierr.Append(violations, err)
	}
	return violations
}

// Identifier returns a validator for tags and names
func Identifier(kind, value string) Validator {
	return ValidatorFunc(func() error {
		if !identifierPattern.MatchString(value) {
			return fmt.Errorf("invalid %s %q", kind, value)
		}
		return nil
	})
}

// Positive returns a validator failing when value is not strictly positive
func Positive(name string, value int) Validator {
	return ValidatorFunc(func() error {
		if value <= 0 {
			return fmt.Errorf("%s=(%d) must be positive", name, value)
		}
		return nil
	})
}
