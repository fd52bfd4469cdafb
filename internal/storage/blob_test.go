package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlobStores(t *testing.T) {
	local, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	stores := map[string]BlobStore{
		"local":  local,
		"memory": NewMemoryStore(),
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			ref, size, err := store.Put(ctx, "enrollment/../x", "ID Card.PDF", strings.NewReader("payload"))
			require.NoError(t, err)
			assert.EqualValues(t, 7, size)
			assert.True(t, strings.HasSuffix(ref, ".pdf"))
			assert.NotContains(t, ref, "..")

			rc, err := store.Open(ctx, ref)
			require.NoError(t, err)
			defer rc.Close()
			data, err := io.ReadAll(rc)
			require.NoError(t, err)
			assert.Equal(t, "payload", string(data))

			_, err = store.Open(ctx, "missing/file")
			assert.Error(t, err)
		})
	}
}
