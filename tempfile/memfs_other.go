//go:build !linux

package tempfile

// memoryBacked is only known on Linux; elsewhere every directory counts as disk-backed.
func memoryBacked(string) bool {
	return false
}
