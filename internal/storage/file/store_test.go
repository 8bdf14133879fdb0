package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/cv-matcher/internal/storage"
	"github.com/spigell/cv-matcher/internal/storage/storagetest"
)

func TestStore(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	storagetest.Run(t, s)
}

func TestStoreLayout(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	s, err := New(dir)
	require.NoError(t, err)

	require.NoError(t, s.Write(context.Background(), "settings", []byte(`{}`)))

	data, err := os.ReadFile(filepath.Join(dir, "settings.json"))
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestStoreRejectsPathKeys(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	err = s.Write(context.Background(), "../escape", []byte(`{}`))
	assert.Error(t, err)

	_, err = s.Read(context.Background(), "../escape")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrNotFound)
}
