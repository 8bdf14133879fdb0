package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/cv-matcher/internal/storage/storagetest"
)

func TestStore(t *testing.T) {
	storagetest.Run(t, New())
}

func TestStoreCopiesValues(t *testing.T) {
	s := New()
	value := []byte("abc")
	require.NoError(t, s.Write(context.Background(), "k", value))
	value[0] = 'x'

	got, err := s.Read(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}
