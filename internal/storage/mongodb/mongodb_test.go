package mongodb

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/namedfork/mfsfuse-go/internal/storage/types"
)

// Requires MFSFUSE_TEST_MONGODB_URI pointing at a scratch server
func TestMongoBackend(t *testing.T) {
	uri := os.Getenv("MFSFUSE_TEST_MONGODB_URI")
	if uri == "" {
		t.Skip("MFSFUSE_TEST_MONGODB_URI not set")
	}
	ctx := context.Background()
	b, err := NewMongoBackend(ctx, uri, "mfsfuse_test", "images", "default")
	require.NoError(t, err)
	defer b.Close()
	defer b.collection.Drop(ctx)

	_, err = b.collection.InsertOne(ctx, ImageDocument{Path: "disk.image", Bucket: "default", Data: []byte("0123456789")})
	require.NoError(t, err)

	size, err := b.Size(ctx, "disk.image")
	require.NoError(t, err)
	assert.Equal(t, int64(10), size)

	data, err := b.ReadRange(ctx, "disk.image", 3, 7)
	require.NoError(t, err)
	assert.Equal(t, "3456", string(data))

	_, err = b.ReadRange(ctx, "missing", 0, 1)
	assert.True(t, types.IsNotFound(err))
}
