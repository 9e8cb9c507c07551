package mfs

import "time"

// macEpochOffset is the number of seconds between 1904-01-01 and 1970-01-01
const macEpochOffset = 2082844800

// Time converts a volume timestamp (seconds since 1904-01-01) to a time.Time.
// A zero timestamp maps to the Macintosh epoch itself.
func Time(t uint32) time.Time {
	return time.Unix(int64(t)-macEpochOffset, 0).UTC()
}

// Timestamp converts t back to the volume's native representation.
// Times outside the 32-bit range are clamped.
func Timestamp(t time.Time) uint32 {
	secs := t.Unix() + macEpochOffset
	switch {
	case secs < 0:
		return 0
	case secs > 0xFFFFFFFF:
		return 0xFFFFFFFF
	}
	return uint32(secs)
}
