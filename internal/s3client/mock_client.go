package s3client

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
)

// MockClient is an in-memory mock implementation of the S3 client for unit tests
type MockClient struct {
	bucket  string
	region  string
	objects map[string][]byte
	mu      sync.RWMutex

	// RangeRequests counts GetObjectRange calls
	RangeRequests atomic.Int64
}

var _ API = (*MockClient)(nil)

// NewMockClient creates a new mock S3 client
func NewMockClient(bucket, region string) *MockClient {
	return &MockClient{
		bucket:  bucket,
		region:  region,
		objects: make(map[string][]byte),
	}
}

// PutObject stores an object
func (m *MockClient) PutObject(ctx context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), data...)
	return nil
}

// GetObjectRange retrieves the inclusive byte range [start, end] of an object
func (m *MockClient) GetObjectRange(ctx context.Context, key string, start, end int64) ([]byte, error) {
	m.RangeRequests.Add(1)
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, exists := m.objects[key]
	if !exists {
		return nil, fmt.Errorf("object not found: %s: %w", key, os.ErrNotExist)
	}
	if start < 0 || end < start || start >= int64(len(data)) {
		return nil, fmt.Errorf("invalid range %d-%d for %d bytes", start, end, len(data))
	}
	if end >= int64(len(data)) {
		end = int64(len(data)) - 1
	}
	return append([]byte(nil), data[start:end+1]...), nil
}

// HeadObjectSize returns the object size
func (m *MockClient) HeadObjectSize(ctx context.Context, key string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, exists := m.objects[key]
	if !exists {
		return 0, fmt.Errorf("object not found: %s: %w", key, os.ErrNotExist)
	}
	return int64(len(data)), nil
}
