package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/namedfork/mfsfuse-go/internal/storage/types"
)

func TestQueries(t *testing.T) {
	assert.Equal(t, "SELECT substring(data from $3 for $4) FROM images WHERE path = $1 AND bucket = $2", rangeQuery("images"))
	assert.Contains(t, sizeQuery("archive.images"), "octet_length(data)")
}

func TestRejectsBadTableName(t *testing.T) {
	_, err := NewPostgresBackend(context.Background(), "postgres://localhost/none", "images; DROP TABLE x", "default")
	assert.ErrorContains(t, err, "invalid table name")
}

// Requires MFSFUSE_TEST_POSTGRES_DSN pointing at a scratch database
func TestPostgresBackend(t *testing.T) {
	dsn := os.Getenv("MFSFUSE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("MFSFUSE_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	b, err := NewPostgresBackend(ctx, dsn, "mfsfuse_test_images", "default")
	require.NoError(t, err)
	defer b.Close()

	_, err = b.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS mfsfuse_test_images (
		path VARCHAR(4096) NOT NULL, bucket VARCHAR(255) NOT NULL, data BYTEA,
		PRIMARY KEY (path, bucket))`)
	require.NoError(t, err)
	defer b.db.ExecContext(ctx, "DROP TABLE mfsfuse_test_images")

	_, err = b.db.ExecContext(ctx, "INSERT INTO mfsfuse_test_images (path, bucket, data) VALUES ($1, $2, $3)",
		"disk.image", "default", []byte("0123456789"))
	require.NoError(t, err)

	size, err := b.Size(ctx, "disk.image")
	require.NoError(t, err)
	assert.Equal(t, int64(10), size)

	data, err := b.ReadRange(ctx, "disk.image", 3, 7)
	require.NoError(t, err)
	assert.Equal(t, "3456", string(data))

	data, err = b.ReadRange(ctx, "disk.image", 8, 20)
	require.NoError(t, err)
	assert.Equal(t, "89", string(data))

	_, err = b.Size(ctx, "missing")
	assert.True(t, types.IsNotFound(err))
}
