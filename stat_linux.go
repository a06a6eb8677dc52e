//go:build linux

package watchkit

import (
	"io/fs"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// platformTimes extracts inode, access/change times and birth time on Linux.
// Standard syscall.Stat_t carries no birth time; statx() does, on kernel
// 4.11+ with filesystem support. A zero birth time means unavailable and
// callers fall back to inode identity.
func platformTimes(info fs.FileInfo, path string, followLinks bool) (ino uint64, atime, ctime, birth time.Time) {
	if stat, ok := info.Sys().(*syscall.Stat_t); ok {
		ino = stat.Ino
		atime = time.Unix(stat.Atim.Sec, stat.Atim.Nsec)
		ctime = time.Unix(stat.Ctim.Sec, stat.Ctim.Nsec)
	}

	flags := unix.AT_STATX_SYNC_AS_STAT
	if !followLinks {
		flags |= unix.AT_SYMLINK_NOFOLLOW
	}
	var stx unix.Statx_t
	if err := unix.Statx(unix.AT_FDCWD, path, flags, unix.STATX_BTIME, &stx); err == nil {
		if stx.Mask&unix.STATX_BTIME != 0 {
			birth = time.Unix(stx.Btime.Sec, int64(stx.Btime.Nsec))
		}
	}
	return ino, atime, ctime, birth
}
