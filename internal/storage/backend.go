package storage

import "github.com/namedfork/mfsfuse-go/internal/storage/types"

// Backend is a read-only store of disk images
type Backend = types.Backend

// ErrNotFound is returned when an image does not exist
var ErrNotFound = types.ErrNotFound
