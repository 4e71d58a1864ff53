// Package capability detects environments where the durable store's
// primitives are nonfunctional or severely space-limited (read-only
// mounts, full disks, sandboxed homes), so the agent can degrade to a
// session-scoped in-memory queue instead of failing opaquely.
package capability

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/bitesync/bitesync/internal/store"
)

// minFreeBytes below which storage is treated as too constrained for
// durable queueing (10MB).
const minFreeBytes = 10 * 1024 * 1024

// Capability summarizes which local storage primitives work.
type Capability struct {
	Database  bool   `json:"database"`
	KeyValue  bool   `json:"key_value"`
	BlobCache bool   `json:"blob_cache"`
	FreeBytes uint64 `json:"free_bytes"`
	// Degraded is true when any primitive is unavailable or free space
	// is below the minimum; callers must not rely on durable persistence.
	Degraded bool `json:"degraded"`
}

const probeTimeout = 5 * time.Second

// Probe exercises each storage primitive under dataDir with throwaway
// artifacts. It is meant to run once at startup.
func Probe(ctx context.Context, dataDir string, log zerolog.Logger) Capability {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	c := Capability{}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Warn().Err(err).Str("dir", dataDir).Msg("data directory unavailable")
		c.Degraded = true
		return c
	}

	c.Database, c.KeyValue = probeDatabase(ctx, dataDir, log)
	c.BlobCache = probeBlob(dataDir, log)
	c.FreeBytes = freeBytes(dataDir)

	c.Degraded = !c.Database || !c.KeyValue || !c.BlobCache ||
		(c.FreeBytes > 0 && c.FreeBytes < minFreeBytes)
	if c.Degraded {
		log.Warn().
			Bool("database", c.Database).
			Bool("key_value", c.KeyValue).
			Bool("blob_cache", c.BlobCache).
			Uint64("free_bytes", c.FreeBytes).
			Msg("degraded storage environment; offline durability not guaranteed")
	}
	return c
}

// probeDatabase opens a throwaway database, runs a settings round-trip
// and deletes the file.
func probeDatabase(ctx context.Context, dataDir string, log zerolog.Logger) (database, keyValue bool) {
	path := filepath.Join(dataDir, ".capability-probe.db")
	defer os.Remove(path)
	defer os.Remove(path + "-wal")
	defer os.Remove(path + "-shm")

	st, err := store.Open(path, log)
	if err != nil {
		log.Debug().Err(err).Msg("database probe failed to open")
		return false, false
	}
	defer st.Close()
	database = true

	if err := st.KVPut(ctx, "probe", "ok"); err != nil {
		log.Debug().Err(err).Msg("key-value probe write failed")
		return database, false
	}
	value, err := st.KVGet(ctx, "probe")
	if err != nil || value != "ok" {
		log.Debug().Err(err).Msg("key-value probe read failed")
		return database, false
	}
	return database, true
}

// probeBlob writes, reads back and removes a small binary file.
func probeBlob(dataDir string, log zerolog.Logger) bool {
	path := filepath.Join(dataDir, ".capability-probe.bin")
	defer os.Remove(path)

	payload := []byte{0x42, 0x49, 0x54, 0x45}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		log.Debug().Err(err).Msg("blob probe write failed")
		return false
	}
	read, err := os.ReadFile(path)
	if err != nil || !bytes.Equal(read, payload) {
		log.Debug().Err(err).Msg("blob probe read failed")
		return false
	}
	return true
}
