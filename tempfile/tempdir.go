package tempfile

import (
	"os"
	"sync"
)

var (
	diskDir     string
	diskDirOnce sync.Once
)

// TempDir returns the directory overflow files are created in. A non-empty dir is
// returned unchanged, usable or not; New reports any problem with it.
//
// An empty dir resolves to os.TempDir(), unless preferDiskBacked is set. In that case
// the first existing directory that is not memory-backed (tmpfs, ramfs) wins. The
// choice is made once.
func TempDir(dir string, preferDiskBacked bool) string {
	if dir != "" {
		return dir
	}
	if !preferDiskBacked {
		return os.TempDir()
	}
	diskDirOnce.Do(func() {
		diskDir = findDiskBacked(diskCandidates())
	})
	return diskDir
}

// diskCandidates lists where to look for a disk-backed directory, best first.
func diskCandidates() []string {
	candidates := []string{os.TempDir(), "/var/tmp"}
	if cache, err := os.UserCacheDir(); err == nil {
		candidates = append(candidates, cache)
	}
	return candidates
}

// findDiskBacked returns the first candidate that is an existing directory on a
// disk-backed filesystem, or os.TempDir() when there is none.
func findDiskBacked(candidates []string) string {
	for _, dir := range candidates {
		stat, err := os.Stat(dir)
		if err != nil || !stat.IsDir() {
			continue
		}
		if memoryBacked(dir) {
			continue
		}
		return dir
	}
	return os.TempDir()
}
