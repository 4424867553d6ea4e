package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSealer(t *testing.T) {
	s, err := NewSealer([]byte("correct horse"), []byte("salt-0123456789"))
	require.NoError(t, err)

	t.Run("round trip", func(t *testing.T) {
		sealed, err := s.Seal([]byte("bearer-token"), []byte("auth_token"))
		require.NoError(t, err)
		require.NotContains(t, sealed, "bearer-token")

		plain, err := s.Open(sealed, []byte("auth_token"))
		require.NoError(t, err)
		require.Equal(t, "bearer-token", string(plain))
	})

	t.Run("nonces differ", func(t *testing.T) {
		a, err := s.Seal([]byte("x"), nil)
		require.NoError(t, err)
		b, err := s.Seal([]byte("x"), nil)
		require.NoError(t, err)
		require.NotEqual(t, a, b)
	})

	t.Run("bound to associated data", func(t *testing.T) {
		sealed, err := s.Seal([]byte("bearer-token"), []byte("auth_token"))
		require.NoError(t, err)

		_, err = s.Open(sealed, []byte("temp_token"))
		require.ErrorIs(t, err, ErrSealed)
	})

	t.Run("wrong key", func(t *testing.T) {
		sealed, err := s.Seal([]byte("bearer-token"), nil)
		require.NoError(t, err)

		other, err := NewSealer([]byte("battery staple"), []byte("salt-0123456789"))
		require.NoError(t, err)
		_, err = other.Open(sealed, nil)
		require.ErrorIs(t, err, ErrSealed)
	})

	t.Run("malformed input", func(t *testing.T) {
		for _, in := range []string{"", "plain", "v1.", "v1.!!!", "v1.AAAA"} {
			_, err := s.Open(in, nil)
			require.ErrorIs(t, err, ErrSealed, in)
		}
	})

	t.Run("empty secret", func(t *testing.T) {
		_, err := NewSealer(nil, []byte("salt"))
		require.ErrorIs(t, err, ErrEmptySecret)
	})
}
