package fuse

import (
	"time"

	"github.com/namedfork/mfsfuse-go/internal/mfs"
)

// volumeTime is the root's modification time: the volume creation date
func volumeTime(mdb mfs.MDB) time.Time {
	return mfs.Time(mdb.CreateDate)
}

func folderTime(f *mfs.Folder) time.Time {
	return mfs.Time(f.ModDate)
}

// recordTime is shared by a record's data file and its companion
func recordTime(rec *mfs.Record) time.Time {
	return mfs.Time(rec.ModDate)
}
