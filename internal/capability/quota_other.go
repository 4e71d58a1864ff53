//go:build !unix

package capability

// freeBytes has no portable implementation here; zero means unknown.
func freeBytes(dir string) uint64 {
	return 0
}
