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

package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestChain(t *testing.T) {
	t.Run("no violation", func(t *testing.T) {
		err := New().
			AddValidator(Identifier("tag", "std.Sum")).
			AddValidator(Positive("capacity", 4)).
			AddAssertion(true, "never").
			Validate()
		require.NoError(t, err)
	})
	t.Run("all violations are reported", func(t *testing.T) {
		err := New().
			AddValidator(Identifier("tag", "9lives")).
			AddValidator(Positive("capacity", 0)).
			AddAssertion(false, "bad %s", "thing").
			Validate()
		require.Error(t, err)
		assert.Len(t, multierr.Errors(err), 3)
		assert.Contains(t, err.Error(), `invalid tag "9lives"`)
		assert.Contains(t, err.Error(), "capacity=(0) must be positive")
		assert.Contains(t, err.Error(), "bad thing")
	})
	t.Run("fail fast", func(t *testing.T) {
		first := errors.New("first")
		err := New(FailFast()).
			AddValidator(ValidatorFunc(func() error { return first })).
			AddValidator(Positive("capacity", -1)).
			Validate()
		require.ErrorIs(t, err, first)
		assert.Len(t, multierr.Errors(err), 1)
	})
	t.Run("identifiers", func(t *testing.T) {
		for _, valid := range []string{"a", "io.Sink", "std.Sum", "my_actor-2"} {
			assert.NoError(t, Identifier("tag", valid).Validate(), valid)
		}
		for _, invalid := range []string{"", "1st", ".hidden", "with space", "a/b"} {
			assert.Error(t, Identifier("tag", invalid).Validate(), invalid)
		}
	})
}
