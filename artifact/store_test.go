package artifact

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T, s Store) {
	t.Helper()

	ctx := context.Background()
	data := []byte("hello")

	require.NoError(t, s.Save(ctx, "notes/a.txt", data))
	data[0] = 'H'

	out, err := s.Get(ctx, "notes/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(out))

	require.NoError(t, s.Save(ctx, "b.txt", []byte("2")))

	names, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b.txt", "notes/a.txt"}, names)

	require.NoError(t, s.Delete(ctx, "b.txt"))
	assert.ErrorIs(t, s.Delete(ctx, "b.txt"), ErrNotFound)

	_, err = s.Get(ctx, "missing.txt")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.Save(ctx, "", nil), ErrInvalidName)
	assert.ErrorIs(t, s.Save(ctx, "../escape.txt", nil), ErrInvalidName)
}

func TestInMemoryStore(t *testing.T) {
	testStore(t, NewInMemoryStore())
}

func TestInMemoryStore_Isolation(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "a", []byte("hello")))

	out, err := s.Get(ctx, "a")
	require.NoError(t, err)
	out[0] = 'x'

	out2, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(out2))
}

func TestDirStore(t *testing.T) {
	s, err := NewDirStore(t.TempDir())
	require.NoError(t, err)

	testStore(t, s)
}

func TestCleanName(t *testing.T) {
	n, err := CleanName(` dir\doc.txt `)
	require.NoError(t, err)
	assert.Equal(t, "dir/doc.txt", n)

	n, err = CleanName("/abs/./doc.txt")
	require.NoError(t, err)
	assert.Equal(t, "abs/doc.txt", n)
}
