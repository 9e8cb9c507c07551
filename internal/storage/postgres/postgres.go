package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	_ "github.com/lib/pq"
	"github.com/namedfork/mfsfuse-go/internal/storage/types"
)

// PostgresBackend reads images stored in a BYTEA column. The table is
// expected to have path, bucket and data columns:
//
//	CREATE TABLE images (
//		path   VARCHAR(4096) NOT NULL,
//		bucket VARCHAR(255)  NOT NULL,
//		data   BYTEA,
//		PRIMARY KEY (path, bucket)
//	);
type PostgresBackend struct {
	db     *sql.DB
	table  string // Table name for storing images
	bucket string // "Bucket" name (namespace)
}

var _ types.Backend = (*PostgresBackend)(nil)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// NewPostgresBackend creates a new PostgreSQL backend
func NewPostgresBackend(ctx context.Context, connStr, table, bucket string) (*PostgresBackend, error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	return &PostgresBackend{
		db:     db,
		table:  table,
		bucket: bucket,
	}, nil
}

func rangeQuery(table string) string {
	return fmt.Sprintf("SELECT substring(data from $3 for $4) FROM %s WHERE path = $1 AND bucket = $2", table)
}

func sizeQuery(table string) string {
	return fmt.Sprintf("SELECT COALESCE(octet_length(data), 0) FROM %s WHERE path = $1 AND bucket = $2", table)
}

// ReadRange reads a range of image data. substring() positions are 1-based.
func (p *PostgresBackend) ReadRange(ctx context.Context, name string, start, end int64) ([]byte, error) {
	if start < 0 {
		start = 0
	}
	if end <= start {
		return []byte{}, nil
	}
	var data []byte
	err := p.db.QueryRowContext(ctx, rangeQuery(p.table), name, p.bucket, start+1, end-start).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("image not found: %w", types.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if data == nil {
		data = []byte{}
	}
	return data, nil
}

// Size returns the image length
func (p *PostgresBackend) Size(ctx context.Context, name string) (int64, error) {
	var size int64
	err := p.db.QueryRowContext(ctx, sizeQuery(p.table), name, p.bucket).Scan(&size)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("image not found: %w", types.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get image size: %w", err)
	}
	return size, nil
}

// Close closes the database connection
func (p *PostgresBackend) Close() error {
	return p.db.Close()
}
