package reservation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomSource(t *testing.T) {
	t.Parallel()

	t.Run("same seed gives the same map", func(t *testing.T) {
		a, err := NewRandomSource(0.3, 42).Fetch(context.Background(), 80)
		require.NoError(t, err)
		b, err := NewRandomSource(0.3, 42).Fetch(context.Background(), 80)
		require.NoError(t, err)
		assert.Equal(t, a, b)
		assert.Len(t, a, 80)
	})

	t.Run("probability bounds", func(t *testing.T) {
		none, _ := NewRandomSource(0, 1).Fetch(context.Background(), 50)
		all, _ := NewRandomSource(1, 1).Fetch(context.Background(), 50)
		clamped, _ := NewRandomSource(7, 1).Fetch(context.Background(), 50)
		for i := range none {
			assert.False(t, none[i])
			assert.True(t, all[i])
			assert.True(t, clamped[i])
		}
	})
}

func TestFixedSource(t *testing.T) {
	t.Parallel()

	flags, err := FixedSource{Booked: []int{1, 3, 0, 99}}.Fetch(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true, false}, flags)
}
