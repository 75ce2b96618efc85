// Package swrcache keeps the roster lists on disk with stale-while-revalidate
// semantics. The service invalidates the lists a mutation touches.
package swrcache

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	defaultFreshTTL = 5 * time.Minute
	defaultMaxStale = time.Hour
	refreshTimeout  = 30 * time.Second
)

// dirOverride, when non-empty, replaces the default cache root.
var dirOverride string

// SetDir overrides the default cache root. Intended for testing.
func SetDir(dir string) { dirOverride = dir }

// ResetDir clears the override. Intended for testing.
func ResetDir() { dirOverride = "" }

// Cache stores one file per list under dir.
type Cache struct {
	dir      string
	freshTTL time.Duration
	maxStale time.Duration

	mu sync.Mutex
	// gen counts invalidations per list so a revalidation started before
	// a mutation cannot write the pre-mutation list back.
	gen        map[List]uint64
	refreshing map[List]bool
}

// New returns a cache rooted at dir with default TTLs.
func New(dir string) *Cache {
	return WithTTLs(dir, defaultFreshTTL, defaultMaxStale)
}

// NewDefault returns a cache rooted at the OS user cache dir, scoped to
// profile so that two accounts never see each other's lists.
func NewDefault(profile string) *Cache {
	return New(filepath.Join(defaultDir(), profileDir(profile)))
}

// WithTTLs returns a cache rooted at dir. Entries younger than freshTTL
// are served as is; older ones up to maxStale are served while a
// background fetch replaces them.
func WithTTLs(dir string, freshTTL, maxStale time.Duration) *Cache {
	return &Cache{
		dir:        dir,
		freshTTL:   freshTTL,
		maxStale:   maxStale,
		gen:        make(map[List]uint64),
		refreshing: make(map[List]bool),
	}
}

// Load returns list from the cache, or from fetch on a miss or when the
// cached copy is too old. A nil cache always fetches.
func Load[T any](c *Cache, ctx context.Context, list List, fetch func(context.Context) (T, error)) (T, error) {
	if c == nil || c.dir == "" {
		return fetch(ctx)
	}

	e, ok := read[T](c, list)
	if !ok {
		return fetchAndStore(c, ctx, list, fetch)
	}

	switch age := time.Since(e.FetchedAt); {
	case age < 0:
		return fetchAndStore(c, ctx, list, fetch)
	case age <= c.freshTTL:
		return e.Items, nil
	case c.maxStale <= 0 || age <= c.maxStale:
		revalidate(c, list, fetch)
		return e.Items, nil
	}
	return fetchAndStore(c, ctx, list, fetch)
}

// Invalidate drops the cached copies of lists.
func (c *Cache) Invalidate(lists ...List) error {
	if c == nil || c.dir == "" {
		return nil
	}

	c.mu.Lock()
	for _, l := range lists {
		c.gen[l]++
	}
	c.mu.Unlock()

	var errs []error
	for _, l := range lists {
		if err := os.Remove(c.path(l)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Clear removes every list, used when the session ends.
func (c *Cache) Clear() error {
	if c == nil || c.dir == "" {
		return nil
	}
	if err := c.Invalidate(Lists...); err != nil {
		return err
	}
	err := os.RemoveAll(c.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (c *Cache) generation(list List) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen[list]
}

func fetchAndStore[T any](c *Cache, ctx context.Context, list List, fetch func(context.Context) (T, error)) (T, error) {
	gen := c.generation(list)
	items, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	_ = c.store(list, gen, items, time.Now())
	return items, nil
}

// revalidate refreshes list in the background. At most one refresh per
// list runs at a time.
func revalidate[T any](c *Cache, list List, fetch func(context.Context) (T, error)) {
	c.mu.Lock()
	if c.refreshing[list] {
		c.mu.Unlock()
		return
	}
	c.refreshing[list] = true
	gen := c.gen[list]
	c.mu.Unlock()

	go func() {
		defer func() {
			c.mu.Lock()
			delete(c.refreshing, list)
			c.mu.Unlock()
		}()

		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		items, err := fetch(ctx)
		if err != nil {
			return
		}
		_ = c.store(list, gen, items, time.Now())
	}()
}

func read[T any](c *Cache, list List) (entry[T], bool) {
	var e entry[T]
	data, err := os.ReadFile(c.path(list))
	if err != nil {
		return e, false
	}
	if err := json.Unmarshal(data, &e); err != nil || !e.usable(list) {
		return e, false
	}
	return e, true
}

// store writes items unless list was invalidated after gen was taken.
func (c *Cache) store(list List, gen uint64, items any, fetchedAt time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen[list] != gen {
		return nil
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	payload, err := json.Marshal(entry[any]{Version: formatVersion, List: list, Items: items, FetchedAt: fetchedAt})
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(c.dir, string(list)+".tmp-*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		_ = os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return err
	}
	return os.Rename(name, c.path(list))
}

func (c *Cache) path(list List) string {
	return filepath.Join(c.dir, string(list)+".json")
}

func defaultDir() string {
	if dirOverride != "" {
		return dirOverride
	}
	base, err := os.UserCacheDir()
	if err != nil || base == "" {
		base = os.TempDir()
	}
	return filepath.Join(base, "roster", "lists")
}

// profileDir maps a profile name to a directory name. Profiles are
// already normalized, so only path separators and dots need replacing.
func profileDir(profile string) string {
	profile = strings.TrimSpace(profile)
	if profile == "" {
		return "default"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '.', ':':
			return '_'
		}
		return r
	}, profile)
}
