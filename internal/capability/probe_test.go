package capability

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestProbeHealthyDirectory(t *testing.T) {
	c := Probe(context.Background(), t.TempDir(), zerolog.Nop())

	assert.True(t, c.Database)
	assert.True(t, c.KeyValue)
	assert.True(t, c.BlobCache)
	assert.False(t, c.Degraded)
	assert.Greater(t, c.FreeBytes, uint64(minFreeBytes))
}

func TestProbeCreatesMissingDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	c := Probe(context.Background(), dir, zerolog.Nop())

	assert.False(t, c.Degraded)
	_, err := os.Stat(dir)
	assert.NoError(t, err)
}

func TestProbeUnwritableDirectoryDegrades(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root bypasses permission checks")
	}
	dir := t.TempDir()
	if err := os.Chmod(dir, 0o555); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chmod(dir, 0o755) })

	c := Probe(context.Background(), dir, zerolog.Nop())

	assert.False(t, c.Database)
	assert.False(t, c.BlobCache)
	assert.True(t, c.Degraded)
}

func TestProbeLeavesNoArtifacts(t *testing.T) {
	dir := t.TempDir()
	Probe(context.Background(), dir, zerolog.Nop())

	entries, err := os.ReadDir(dir)
	assert.NoError(t, err)
	assert.Empty(t, entries)
}
