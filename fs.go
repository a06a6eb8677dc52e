package watchkit

import (
	"io"
	"os"
	"path/filepath"
	"sort"
)

// DirEntry is one child of a scanned directory.
type DirEntry struct {
	// Path is the absolute path of the entry
	Path string
	// Name is the entry name relative to its directory
	Name string
}

// ============================================================================
// Filesystem Collaborator
// ============================================================================

// Filesystem is the filesystem access surface the watcher consumes.
// The default implementation wraps the os package; tests and embedders can
// substitute their own.
type Filesystem interface {
	// Stat returns a snapshot of the path, following symlinks.
	Stat(path string) (*Stat, error)

	// Lstat returns a snapshot of the path without following symlinks.
	Lstat(path string) (*Stat, error)

	// Exists reports whether the path exists.
	Exists(path string) (bool, error)

	// ReadDir lists the immediate children of a directory.
	ReadDir(path string) ([]DirEntry, error)

	// RealPath resolves symlinks to the canonical path.
	RealPath(path string) (string, error)

	// Open opens the file for reading.
	Open(path string) (io.ReadCloser, error)
}

// osFS implements Filesystem over the os package.
type osFS struct{}

// OSFilesystem returns the default Filesystem backed by the os package.
func OSFilesystem() Filesystem {
	return osFS{}
}

func (osFS) Stat(path string) (*Stat, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	return snapshotFromInfo(info, path, true), nil
}

func (osFS) Lstat(path string) (*Stat, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return nil, err
	}
	return snapshotFromInfo(info, path, false), nil
}

func (osFS) Exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (osFS) ReadDir(path string) ([]DirEntry, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	out := make([]DirEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, DirEntry{
			Path: filepath.Join(path, e.Name()),
			Name: e.Name(),
		})
	}
	return out, nil
}

func (osFS) RealPath(path string) (string, error) {
	return filepath.EvalSymlinks(path)
}

func (osFS) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// snapshotFromInfo builds a Stat from os metadata plus the platform extras.
func snapshotFromInfo(info os.FileInfo, path string, followLinks bool) *Stat {
	ino, atime, ctime, birth := platformTimes(info, path, followLinks)
	return &Stat{
		Kind:      kindOf(info.Mode()),
		Size:      info.Size(),
		Mode:      info.Mode(),
		ModTime:   info.ModTime(),
		BirthTime: birth,
		Ino:       ino,
		ATime:     atime,
		CTime:     ctime,
	}
}

// takeStat refreshes a snapshot honoring the follow-links setting.
func takeStat(fsys Filesystem, path string, followLinks bool) (*Stat, error) {
	if followLinks {
		return fsys.Stat(path)
	}
	return fsys.Lstat(path)
}

// listDir scans the immediate children of a directory and filters them
// through the ignore oracle. Results are sorted by name so callers see a
// deterministic order.
func listDir(fsys Filesystem, path string, ign Ignorer) ([]DirEntry, error) {
	entries, err := fsys.ReadDir(path)
	if err != nil {
		return nil, err
	}
	out := entries[:0]
	for _, e := range entries {
		if ign != nil && ign.Ignored(e.Path) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
