package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantLen int
	}{
		{"128-bit token", TokenSize128, 22},
		{"256-bit token", TokenSize256, 43},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := GenerateToken(tt.size)
			require.NoError(t, err)
			require.Len(t, token, tt.wantLen)

			token2, err := GenerateToken(tt.size)
			require.NoError(t, err)
			require.NotEqual(t, token, token2, "tokens should be unique")
		})
	}
}

func TestGenerateToken_InvalidSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		token, err := GenerateToken(size)
		require.Error(t, err)
		require.Empty(t, token)
	}
}

func TestRandomIntInRange(t *testing.T) {
	t.Run("stays inside the inclusive range", func(t *testing.T) {
		for range 1000 {
			n, err := RandomIntInRange(1000, 9999)
			require.NoError(t, err)
			require.GreaterOrEqual(t, n, 1000)
			require.LessOrEqual(t, n, 9999)
		}
	})

	t.Run("reaches both bounds", func(t *testing.T) {
		// A range of two values makes both ends show up quickly.
		seen := map[int]bool{}
		for range 200 {
			n, err := RandomIntInRange(7, 8)
			require.NoError(t, err)
			seen[n] = true
		}
		require.True(t, seen[7])
		require.True(t, seen[8])
	})

	t.Run("single value range", func(t *testing.T) {
		n, err := RandomIntInRange(42, 42)
		require.NoError(t, err)
		require.Equal(t, 42, n)
	})

	t.Run("inverted range", func(t *testing.T) {
		_, err := RandomIntInRange(10, 9)
		require.Error(t, err)
	})
}
