package blob

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/krado/pkg/errs"
)

func stores(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory": NewMemoryStore(),
		"local":  NewLocalStore(t.TempDir()),
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Put(ctx, "meshes/a.kmsh", []byte("alpha")))
			require.NoError(t, s.Put(ctx, "meshes/b.kmsh", []byte("beta")))
			require.NoError(t, s.Put(ctx, "other.txt", []byte("x")))

			got, err := s.Get(ctx, "meshes/a.kmsh")
			require.NoError(t, err)
			assert.Equal(t, "alpha", string(got))

			require.NoError(t, s.Put(ctx, "meshes/a.kmsh", []byte("again")))
			got, err = s.Get(ctx, "meshes/a.kmsh")
			require.NoError(t, err)
			assert.Equal(t, "again", string(got))

			names, err := s.List(ctx, "meshes/")
			require.NoError(t, err)
			assert.Equal(t, []string{"meshes/a.kmsh", "meshes/b.kmsh"}, names)

			all, err := s.List(ctx, "")
			require.NoError(t, err)
			assert.Len(t, all, 3)

			require.NoError(t, s.Delete(ctx, "meshes/a.kmsh"))
			require.NoError(t, s.Delete(ctx, "meshes/a.kmsh"))
			_, err = s.Get(ctx, "meshes/a.kmsh")
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, err, errs.ErrNotFound)
		})
	}
}

func TestStoreCopiesData(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	data := []byte("abc")
	require.NoError(t, s.Put(ctx, "k", data))
	data[0] = 'z'
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestLocalStoreRejectsEscapingNames(t *testing.T) {
	s := NewLocalStore(t.TempDir())
	ctx := context.Background()
	assert.Error(t, s.Put(ctx, "../escape", []byte("x")))
	_, err := s.Get(ctx, "/etc/passwd")
	assert.Error(t, err)
}

func TestLocalStoreListMissingRoot(t *testing.T) {
	s := NewLocalStore(t.TempDir() + "/absent")
	names, err := s.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestStoreHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, s.Put(ctx, "k", nil), context.Canceled)
		})
	}
}
