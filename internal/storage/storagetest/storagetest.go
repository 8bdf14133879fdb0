// Package storagetest holds the behaviour every storage.Store backend must share.
package storagetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/cv-matcher/internal/storage"
)

// Run exercises a fresh, empty store.
func Run(t *testing.T, s storage.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		_, err := s.Read(ctx, "absent")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("write then read", func(t *testing.T) {
		require.NoError(t, s.Write(ctx, "settings", []byte(`{"threshold":50}`)))

		got, err := s.Read(ctx, "settings")
		require.NoError(t, err)
		assert.JSONEq(t, `{"threshold":50}`, string(got))
	})

	t.Run("last write wins", func(t *testing.T) {
		require.NoError(t, s.Write(ctx, "matchResults", []byte(`[1]`)))
		require.NoError(t, s.Write(ctx, "matchResults", []byte(`[1,2]`)))

		got, err := s.Read(ctx, "matchResults")
		require.NoError(t, err)
		assert.Equal(t, `[1,2]`, string(got))
	})

	t.Run("keys are independent", func(t *testing.T) {
		require.NoError(t, s.Write(ctx, "candidateDocuments", []byte(`["a"]`)))
		require.NoError(t, s.Write(ctx, "jobDocuments", []byte(`["b"]`)))

		a, err := s.Read(ctx, "candidateDocuments")
		require.NoError(t, err)
		b, err := s.Read(ctx, "jobDocuments")
		require.NoError(t, err)
		assert.Equal(t, `["a"]`, string(a))
		assert.Equal(t, `["b"]`, string(b))
	})
}
