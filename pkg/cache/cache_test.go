package cache

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, dir string, ramCap, diskCap int) *MapCache[string] {
	t.Helper()
	store, err := NewFileBlobStore[string](dir,
		func(v string) ([]byte, error) { return json.Marshal(v) },
		func(b []byte) (string, error) { var v string; err := json.Unmarshal(b, &v); return v, err },
	)
	require.NoError(t, err)
	c, err := New[string](dir, ramCap, diskCap, store)
	require.NoError(t, err)
	return c
}

func TestPutThenTryGetRoundTrips(t *testing.T) {
	c := newTestCache(t, t.TempDir(), 2, 2)
	c.Put("k1", "v1")
	v, ok := c.TryGet("k1")
	require.True(t, ok)
	require.Equal(t, "v1", v)
}

func TestRAMEvictedKeyIsServedFromDisk(t *testing.T) {
	dir := t.TempDir()
	c := newTestCache(t, dir, 2, 3)

	c.Put("k1", "v1") // Put also persists k1 to disk
	c.Put("k2", "v2")
	c.Put("k3", "v3") // evicts k1 from RAM (LRU); its disk entry remains

	v, ok := c.TryGet("k1")
	require.True(t, ok, "k1 should still be retrievable from disk")
	require.Equal(t, "v1", v)

	matches, err := filepath.Glob(filepath.Join(dir, "cache.entry_*.json"))
	require.NoError(t, err)
	require.NotEmpty(t, matches)
}

func TestCacheSurvivesCloseAndReconstruction(t *testing.T) {
	dir := t.TempDir()
	c := newTestCache(t, dir, 2, 4)

	c.Put("k1", "v1")
	c.Put("k2", "v2")
	c.Put("k3", "v3")
	c.CloseAndPersist()

	c2 := newTestCache(t, dir, 2, 4)
	v, ok := c2.TryGet("k2")
	require.True(t, ok)
	require.Equal(t, "v2", v)
}

func TestTurnOffDisablesOperations(t *testing.T) {
	c := newTestCache(t, t.TempDir(), 2, 2)
	c.Put("k1", "v1")
	c.TurnOff()

	c.Put("k2", "v2")
	_, ok := c.TryGet("k2")
	require.False(t, ok, "put while off should be a no-op")

	c.TurnOn()
	_, ok = c.TryGet("k1")
	require.True(t, ok, "state from before TurnOff should survive")
}

func TestTryGetEmptyKeyIsMiss(t *testing.T) {
	c := newTestCache(t, t.TempDir(), 2, 2)
	_, ok := c.TryGet("")
	require.False(t, ok)
}
