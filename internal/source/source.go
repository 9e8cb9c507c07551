// Package source opens an MFS volume from the configured image backend.
package source

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/namedfork/mfsfuse-go/internal/config"
	"github.com/namedfork/mfsfuse-go/internal/mfs"
	"github.com/namedfork/mfsfuse-go/internal/storage"
	"github.com/namedfork/mfsfuse-go/internal/storage/types"
)

// Source is an opened image and its backend
type Source struct {
	Backend types.Backend
	Image   *storage.Image
}

// Open connects to the configured backend and opens the named image
func Open(ctx context.Context, cfg *config.Config, device string, log *zap.Logger) (*Source, error) {
	sc, err := cfg.StorageConfig()
	if err != nil {
		return nil, err
	}
	backend, err := storage.NewBackend(ctx, sc)
	if err != nil {
		return nil, fmt.Errorf("opening %s source: %w", cfg.Source.Type, err)
	}
	img, err := storage.OpenImage(ctx, backend, device, cfg.CacheConfig(), log)
	if err != nil {
		backend.Close()
		return nil, err
	}
	return &Source{Backend: backend, Image: img}, nil
}

// Volume parses the image as an MFS volume. Closing the volume closes the image.
func (s *Source) Volume(flags mfs.Flags) (*mfs.Volume, error) {
	vol, err := mfs.Open(s.Image, flags)
	if err != nil {
		return nil, err
	}
	return vol, nil
}

// Close releases the image and the backend
func (s *Source) Close() error {
	s.Image.Close()
	return s.Backend.Close()
}
