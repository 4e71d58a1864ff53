//go:build unix

package capability

import "syscall"

// freeBytes estimates the space available to the data directory. Zero
// means the estimate is unavailable; callers treat that as unknown, not
// constrained.
func freeBytes(dir string) uint64 {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(dir, &stat); err != nil {
		return 0
	}
	return stat.Bavail * uint64(stat.Bsize)
}
