//go:build windows

package watchkit

import (
	"io/fs"
	"syscall"
	"time"
)

// platformTimes extracts timestamps on Windows.
// Windows has creation time natively via Win32FileAttributeData. Change
// time and inode numbers are not exposed there; retrieving a file index
// would need an open handle plus GetFileInformationByHandle, so we leave
// the inode zero and rely on birth time for identity checks.
func platformTimes(info fs.FileInfo, path string, followLinks bool) (ino uint64, atime, ctime, birth time.Time) {
	data, ok := info.Sys().(*syscall.Win32FileAttributeData)
	if !ok {
		return 0, time.Time{}, time.Time{}, time.Time{}
	}
	atime = time.Unix(0, data.LastAccessTime.Nanoseconds())
	birth = time.Unix(0, data.CreationTime.Nanoseconds())
	if birth.Unix() <= 0 {
		birth = time.Time{}
	}
	return 0, atime, ctime, birth
}
