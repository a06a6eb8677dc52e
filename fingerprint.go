package watchkit

import (
	"io"

	"github.com/cespare/xxhash/v2"
)

// fingerprintFile hashes a file's content with xxhash-64. The fingerprint
// backs the ContentFingerprint option: on filesystems with coarse mtime
// resolution two writes inside the same second produce equal stat
// snapshots, and the fingerprint is what tells them apart.
func fingerprintFile(fsys Filesystem, path string) (uint64, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}
