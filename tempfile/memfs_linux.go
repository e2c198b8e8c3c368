//go:build linux

package tempfile

import "golang.org/x/sys/unix"

// memoryBacked reports whether dir lives on tmpfs or ramfs.
func memoryBacked(dir string) bool {
	var st unix.Statfs_t
	if err := unix.Statfs(dir, &st); err != nil {
		return false
	}
	switch int64(st.Type) {
	case unix.TMPFS_MAGIC, unix.RAMFS_MAGIC:
		return true
	}
	return false
}
