package mongodb

import (
	"context"
	"fmt"
	"sync"

	"github.com/namedfork/mfsfuse-go/internal/storage/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ImageDocument represents a disk image document in MongoDB
type ImageDocument struct {
	Path   string `bson:"_id"`
	Bucket string `bson:"bucket"`
	Data   []byte `bson:"data"`
}

// MongoBackend reads images stored as binary document fields. MFS volumes
// are small, so each image is fetched once and served from memory.
type MongoBackend struct {
	client     *mongo.Client
	collection *mongo.Collection
	bucket     string

	mu     sync.Mutex
	images map[string][]byte
}

var _ types.Backend = (*MongoBackend)(nil)

// NewMongoBackend creates a new MongoDB backend
func NewMongoBackend(ctx context.Context, uri, database, collection, bucket string) (*MongoBackend, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Verify connection
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &MongoBackend{
		client:     client,
		collection: client.Database(database).Collection(collection),
		bucket:     bucket,
		images:     make(map[string][]byte),
	}, nil
}

func (m *MongoBackend) load(ctx context.Context, name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if data, ok := m.images[name]; ok {
		return data, nil
	}

	filter := bson.M{"_id": name, "bucket": m.bucket}
	opts := options.FindOne().SetProjection(bson.M{"data": 1, "bucket": 1})
	var doc ImageDocument
	err := m.collection.FindOne(ctx, filter, opts).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("image not found: %w", types.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	m.images[name] = doc.Data
	return doc.Data, nil
}

// ReadRange reads a range of image data
func (m *MongoBackend) ReadRange(ctx context.Context, name string, start, end int64) ([]byte, error) {
	data, err := m.load(ctx, name)
	if err != nil {
		return nil, err
	}
	return types.SliceRange(data, start, end), nil
}

// Size returns the image length
func (m *MongoBackend) Size(ctx context.Context, name string) (int64, error) {
	data, err := m.load(ctx, name)
	if err != nil {
		return 0, err
	}
	return int64(len(data)), nil
}

// Close closes the MongoDB connection
func (m *MongoBackend) Close() error {
	return m.client.Disconnect(context.Background())
}
