// Package kvtest provides a conformance suite shared by kv.Substrate implementations.
package kvtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thebtf/devconsole/internal/kv"
)

// Run exercises the Substrate contract against a fresh substrate returned by newSubstrate.
func Run(t *testing.T, newSubstrate func(t *testing.T) kv.Substrate) {
	t.Helper()

	t.Run("missing key", func(t *testing.T) {
		s := newSubstrate(t)
		v, ok, err := s.Get(context.Background(), "portfolio-easter-eggs")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, v)
	})

	t.Run("set then get", func(t *testing.T) {
		s := newSubstrate(t)
		ctx := context.Background()
		require.NoError(t, s.Set(ctx, "k", `[{"id":"a","points":1,"timestamp":2}]`))

		v, ok, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, `[{"id":"a","points":1,"timestamp":2}]`, v)
	})

	t.Run("overwrite", func(t *testing.T) {
		s := newSubstrate(t)
		ctx := context.Background()
		require.NoError(t, s.Set(ctx, "k", "first"))
		require.NoError(t, s.Set(ctx, "k", "second"))

		v, ok, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "second", v)
	})

	t.Run("empty value is present", func(t *testing.T) {
		s := newSubstrate(t)
		ctx := context.Background()
		require.NoError(t, s.Set(ctx, "k", ""))

		_, ok, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("remove", func(t *testing.T) {
		s := newSubstrate(t)
		ctx := context.Background()
		require.NoError(t, s.Set(ctx, "k", "v"))
		require.NoError(t, s.Remove(ctx, "k"))
		require.NoError(t, s.Remove(ctx, "k"))

		_, ok, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("keys are independent", func(t *testing.T) {
		s := newSubstrate(t)
		ctx := context.Background()
		require.NoError(t, s.Set(ctx, "portfolio-easter-eggs", "eggs"))
		require.NoError(t, s.Set(ctx, "portfolio-terminal-history", "history"))
		require.NoError(t, s.Remove(ctx, "portfolio-easter-eggs"))

		v, ok, err := s.Get(ctx, "portfolio-terminal-history")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "history", v)
	})
}
