package storage

import (
	"context"
	"fmt"

	"github.com/namedfork/mfsfuse-go/internal/credentials"
	"github.com/namedfork/mfsfuse-go/internal/s3client"
	"github.com/namedfork/mfsfuse-go/internal/storage/mongodb"
	"github.com/namedfork/mfsfuse-go/internal/storage/postgres"
	"github.com/namedfork/mfsfuse-go/internal/storage/types"
)

// BackendType represents the type of storage backend
type BackendType string

const (
	BackendTypeFile     BackendType = "file"
	BackendTypeS3       BackendType = "s3"
	BackendTypePostgres BackendType = "postgres"
	BackendTypeMongoDB  BackendType = "mongodb"
)

// Config holds configuration for creating a backend
type Config struct {
	Type BackendType

	// File config
	FileRoot string

	// S3 config
	S3Bucket      string
	S3Region      string
	S3Endpoint    string
	S3Credentials *credentials.Credentials
	S3Client      s3client.API // Pre-created client, used instead of the fields above

	// Postgres config
	PostgresConnStr string
	PostgresTable   string
	PostgresBucket  string

	// MongoDB config
	MongoURI        string
	MongoDatabase   string
	MongoCollection string
	MongoBucket     string
}

// NewBackend creates a new storage backend based on the config
func NewBackend(ctx context.Context, config Config) (types.Backend, error) {
	switch config.Type {
	case BackendTypeFile, "":
		return NewFileBackend(config.FileRoot), nil

	case BackendTypeS3:
		if config.S3Client != nil {
			return NewS3Backend(config.S3Client), nil
		}
		if config.S3Bucket == "" {
			return nil, fmt.Errorf("S3 bucket is required for S3 backend type")
		}
		region := config.S3Region
		if region == "" {
			region = "us-east-1"
		}
		client, err := s3client.NewClientWithEndpoint(ctx, config.S3Bucket, region, config.S3Endpoint, config.S3Credentials)
		if err != nil {
			return nil, err
		}
		return NewS3Backend(client), nil

	case BackendTypePostgres:
		if config.PostgresConnStr == "" {
			return nil, fmt.Errorf("PostgreSQL connection string is required")
		}
		table := config.PostgresTable
		if table == "" {
			table = "images"
		}
		bucket := config.PostgresBucket
		if bucket == "" {
			bucket = "default"
		}
		return postgres.NewPostgresBackend(ctx, config.PostgresConnStr, table, bucket)

	case BackendTypeMongoDB:
		if config.MongoURI == "" {
			return nil, fmt.Errorf("MongoDB URI is required")
		}
		database := config.MongoDatabase
		if database == "" {
			database = "mfsfuse"
		}
		collection := config.MongoCollection
		if collection == "" {
			collection = "images"
		}
		bucket := config.MongoBucket
		if bucket == "" {
			bucket = "default"
		}
		return mongodb.NewMongoBackend(ctx, config.MongoURI, database, collection, bucket)

	default:
		return nil, fmt.Errorf("unknown backend type: %s", config.Type)
	}
}
