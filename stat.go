package watchkit

import (
	"io/fs"
	"time"
)

// PathKind classifies a filesystem entry.
type PathKind int

const (
	// KindFile is a regular file
	KindFile PathKind = iota
	// KindDir is a directory
	KindDir
	// KindSymlink is a symbolic link (only observed when links are not followed)
	KindSymlink
	// KindOther is anything else (device, socket, fifo, ...)
	KindOther
)

// String returns the string representation of the path kind
func (k PathKind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "directory"
	case KindSymlink:
		return "symlink"
	case KindOther:
		return "other"
	default:
		return "unknown"
	}
}

// Stat is an immutable snapshot of a path's metadata at an instant.
//
// ATime and CTime are recorded for callers that want them, but they are
// excluded from change comparison: access and change time jitter is
// pervasive and not a semantic content change.
type Stat struct {
	Kind      PathKind
	Size      int64
	Mode      fs.FileMode
	ModTime   time.Time
	BirthTime time.Time // zero on platforms/filesystems without birth time
	Ino       uint64
	ATime     time.Time // excluded from comparison
	CTime     time.Time // excluded from comparison
}

// Changed reports whether two stat snapshots represent a meaningful change.
//
// Exactly one snapshot being nil means a creation or deletion, which is
// always a change. Both nil is no change. Otherwise the snapshots are
// compared field by field with ATime and CTime excluded.
func Changed(old, current *Stat) bool {
	if old == nil && current == nil {
		return false
	}
	if old == nil || current == nil {
		return true
	}
	return old.Kind != current.Kind ||
		old.Size != current.Size ||
		old.Mode != current.Mode ||
		!old.ModTime.Equal(current.ModTime) ||
		!old.BirthTime.Equal(current.BirthTime) ||
		old.Ino != current.Ino
}

// replaced reports whether current describes a different underlying inode
// than old, meaning the path was swapped for a new file (editor save via
// rename, for example). Birth time identity is used where the platform
// provides it; otherwise inode identity.
func replaced(old, current *Stat) bool {
	if old == nil || current == nil {
		return false
	}
	if !old.BirthTime.IsZero() || !current.BirthTime.IsZero() {
		return !old.BirthTime.Equal(current.BirthTime)
	}
	return old.Ino != current.Ino
}

// kindOf maps a file mode to a path kind.
func kindOf(mode fs.FileMode) PathKind {
	switch {
	case mode.IsRegular():
		return KindFile
	case mode.IsDir():
		return KindDir
	case mode&fs.ModeSymlink != 0:
		return KindSymlink
	default:
		return KindOther
	}
}
