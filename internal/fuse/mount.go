package fuse

import (
	"context"
	"fmt"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"
	"go.uber.org/zap"
)

// Mount mounts filesystem read-only at mountpoint and serves requests until
// the kernel unmounts it or ctx is cancelled. The volume is closed on return.
func Mount(ctx context.Context, mountpoint string, filesystem *Filesystem, opts MountOptions) error {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	defer func() {
		if err := filesystem.Close(); err != nil {
			log.Warn("closing volume", zap.Error(err))
		}
	}()
	for _, opt := range opts.Ignored {
		log.Warn("ignoring unsupported mount option", zap.String("option", opt))
	}

	mountOpts := []fuse.MountOption{
		fuse.FSName(opts.FSName),
		fuse.Subtype(opts.Subtype),
		fuse.ReadOnly(),
	}
	if opts.AllowOther {
		mountOpts = append(mountOpts, fuse.AllowOther())
	}
	if opts.DefaultPermissions {
		mountOpts = append(mountOpts, fuse.DefaultPermissions())
	}
	if opts.MaxReadahead > 0 {
		mountOpts = append(mountOpts, fuse.MaxReadahead(opts.MaxReadahead))
	}

	c, err := fuse.Mount(mountpoint, mountOpts...)
	if err != nil {
		return fmt.Errorf("mounting at %s: %w", mountpoint, err)
	}
	defer c.Close()

	log.Info("mounted volume",
		zap.String("volume", filesystem.VolumeName()),
		zap.String("mountpoint", mountpoint),
		zap.Bool("folders", filesystem.Folders()))

	config := &fs.Config{}
	if opts.Debug {
		config.Debug = func(msg interface{}) {
			log.Debug("fuse", zap.Any("msg", msg))
		}
	}
	srv := fs.New(c, config)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			if err := fuse.Unmount(mountpoint); err != nil {
				log.Warn("unmount", zap.String("mountpoint", mountpoint), zap.Error(err))
			}
		case <-done:
		}
	}()

	if err := srv.Serve(NewFuseFS(filesystem)); err != nil {
		return fmt.Errorf("serving %s: %w", mountpoint, err)
	}
	log.Info("unmounted", zap.String("mountpoint", mountpoint))
	return nil
}
