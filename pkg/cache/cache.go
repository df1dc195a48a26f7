// Package cache implements a two-level LRU cache over RAM and a
// disk-backed BlobStore, with a shutdown manifest that lets surviving
// disk entries outlive process restarts.
package cache

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"roadmap/pkg/errs"
)

const manifestName = "cached.map"

// BlobStore persists and loads the value behind a disk entry number. The
// map core treats it as an external collaborator; a filesystem-backed
// implementation is provided by FileBlobStore.
type BlobStore[V any] interface {
	Save(entry int, v V) error
	Load(entry int) (V, error)
	Remove(entry int) error
}

// FileBlobStore stores one JSON-less blob per entry under
// dir/cache.entry_{n}.json, via caller-supplied encode/decode functions (the
// core makes no assumption about the document's wire format).
type FileBlobStore[V any] struct {
	dir    string
	encode func(V) ([]byte, error)
	decode func([]byte) (V, error)
}

// NewFileBlobStore returns a BlobStore rooted at dir, creating it if needed.
func NewFileBlobStore[V any](dir string, encode func(V) ([]byte, error), decode func([]byte) (V, error)) (*FileBlobStore[V], error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.Wrap(errs.CacheIOError, err, "cache: creating cache directory")
	}
	return &FileBlobStore[V]{dir: dir, encode: encode, decode: decode}, nil
}

func (fs *FileBlobStore[V]) path(entry int) string {
	return filepath.Join(fs.dir, fmt.Sprintf("cache.entry_%d.json", entry))
}

func (fs *FileBlobStore[V]) Save(entry int, v V) error {
	data, err := fs.encode(v)
	if err != nil {
		return errs.Wrap(errs.CacheIOError, err, "cache: encoding blob")
	}
	if err := os.WriteFile(fs.path(entry), data, 0o644); err != nil {
		return errs.Wrap(errs.CacheIOError, err, "cache: writing blob")
	}
	return nil
}

func (fs *FileBlobStore[V]) Load(entry int) (V, error) {
	var zero V
	data, err := os.ReadFile(fs.path(entry))
	if err != nil {
		return zero, errs.Wrap(errs.CacheIOError, err, "cache: reading blob")
	}
	v, err := fs.decode(data)
	if err != nil {
		return zero, errs.Wrap(errs.CacheIOError, err, "cache: decoding blob")
	}
	return v, nil
}

func (fs *FileBlobStore[V]) Remove(entry int) error {
	if err := os.Remove(fs.path(entry)); err != nil && !os.IsNotExist(err) {
		return errs.Wrap(errs.CacheIOError, err, "cache: removing blob")
	}
	return nil
}

// MapCache is a two-level LRU: RAM holds deserialized values, Disk holds
// entry numbers backed by a BlobStore. All operations serialize under one
// mutex; eviction callbacks run while it is held.
type MapCache[V any] struct {
	mu sync.Mutex

	path  string
	store BlobStore[V]

	ramCap  int
	diskCap int

	ram  *lru.Cache[string, V]
	disk *lru.Cache[string, int]

	nextEntry  int
	onFinal    bool
	active     bool
	ioErr      func(error) // optional out-of-band error reporting hook
}

// New constructs a MapCache rooted at dir with the given RAM/Disk
// capacities. If a cached.map manifest is present from a prior
// close-and-persist, it is replayed into Disk (up to diskCap entries) and
// then removed.
func New[V any](dir string, ramCap, diskCap int, store BlobStore[V]) (*MapCache[V], error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.Wrap(errs.CacheIOError, err, "cache: creating cache directory")
	}

	c := &MapCache[V]{path: dir, store: store, ramCap: ramCap, diskCap: diskCap, active: true}

	disk, err := lru.NewWithEvict[string, int](diskCap, c.onDiskEvict)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidInput, err, "cache: constructing disk LRU")
	}
	c.disk = disk

	ram, err := lru.NewWithEvict[string, V](ramCap, c.onRAMEvict)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidInput, err, "cache: constructing ram LRU")
	}
	c.ram = ram

	c.replayManifest()
	return c, nil
}

// OnIOError registers a hook invoked whenever a blob save/load/remove or a
// manifest write fails, per the error-handling design's "log + typed error"
// propagation for cache I/O failures. The hook runs synchronously while the
// cache mutex is held.
func (c *MapCache[V]) OnIOError(fn func(error)) {
	c.ioErr = fn
}

func (c *MapCache[V]) reportIOErr(err error) {
	if err != nil && c.ioErr != nil {
		c.ioErr(err)
	}
}

func (c *MapCache[V]) replayManifest() {
	manifestPath := filepath.Join(c.path, manifestName)
	f, err := os.Open(manifestPath)
	if err != nil {
		return // no manifest: fresh cache directory, nothing to replay
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	maxEntry := -1
	for scanner.Scan() && c.disk.Len() < c.diskCap {
		fields := strings.SplitN(scanner.Text(), " ", 2)
		if len(fields) != 2 {
			continue
		}
		entry, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}
		c.disk.Add(fields[0], entry)
		if entry > maxEntry {
			maxEntry = entry
		}
	}
	c.nextEntry = maxEntry + 1
	os.Remove(manifestPath)
}

// Put inserts value under key: always into RAM; into Disk (with a freshly
// persisted blob) only if key isn't already on Disk. A no-op while turned
// off.
func (c *MapCache[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return
	}

	c.ram.Add(key, value)

	if _, onDisk := c.disk.Peek(key); onDisk {
		return
	}
	entry := c.nextEntry
	c.nextEntry++
	if err := c.store.Save(entry, value); err != nil {
		c.reportIOErr(err)
		return
	}
	c.disk.Add(key, entry)
}

// TryGet looks up key. A miss returns the zero value and false: when
// inactive, when key is empty, or when neither level has it (or the disk
// blob can't be read).
func (c *MapCache[V]) TryGet(key string) (V, bool) {
	var zero V
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active || key == "" {
		return zero, false
	}

	if v, ok := c.ram.Get(key); ok {
		return v, true
	}

	entry, ok := c.disk.Get(key) // Get() refreshes disk recency on hit
	if !ok {
		return zero, false
	}
	v, err := c.store.Load(entry)
	if err != nil {
		c.reportIOErr(err)
		return zero, false
	}
	c.ram.Add(key, v)
	return v, true
}

// onRAMEvict runs while c.mu is held (golang-lru's eviction callback fires
// synchronously from within Add). If key is absent from Disk and Disk has
// spare capacity, write it through; otherwise the value is dropped.
func (c *MapCache[V]) onRAMEvict(key string, value V) {
	if _, onDisk := c.disk.Peek(key); onDisk {
		return
	}
	if c.disk.Len() >= c.diskCap {
		return
	}
	entry := c.nextEntry
	c.nextEntry++
	if err := c.store.Save(entry, value); err != nil {
		c.reportIOErr(err)
		return
	}
	c.disk.Add(key, entry)
}

// onDiskEvict runs while c.mu is held. During ordinary operation the blob
// is removed and forgotten; during close-and-persist (onFinal) the mapping
// is instead appended to the manifest so it survives the process.
func (c *MapCache[V]) onDiskEvict(key string, entry int) {
	if c.onFinal {
		c.appendManifest(key, entry)
		return
	}
	if err := c.store.Remove(entry); err != nil {
		c.reportIOErr(err)
	}
}

func (c *MapCache[V]) appendManifest(key string, entry int) {
	f, err := os.OpenFile(filepath.Join(c.path, manifestName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		c.reportIOErr(errs.Wrap(errs.CacheIOError, err, "cache: opening manifest"))
		return
	}
	defer f.Close()
	fmt.Fprintf(f, "%s %d\n", key, entry)
}

// TurnOff disables Put/TryGet without discarding state.
func (c *MapCache[V]) TurnOff() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = false
}

// TurnOn re-enables the cache.
func (c *MapCache[V]) TurnOn() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = true
}

// CloseAndPersist flags subsequent Disk evictions to append to the
// manifest rather than delete, then evicts every remaining Disk entry so
// they're all recorded. After this call the MapCache must not be reused.
func (c *MapCache[V]) CloseAndPersist() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onFinal = true
	for _, key := range c.disk.Keys() {
		c.disk.Remove(key)
	}
}
