//go:build !linux && !darwin && !windows

package watchkit

import (
	"io/fs"
	"time"
)

// platformTimes on platforms without a dedicated extractor. Inode and birth
// time stay zero; replacement detection degrades to stat comparison alone.
func platformTimes(info fs.FileInfo, path string, followLinks bool) (ino uint64, atime, ctime, birth time.Time) {
	return 0, time.Time{}, time.Time{}, time.Time{}
}
