package shard

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/immutable"
	"github.com/cespare/xxhash"
	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"

	"github.com/robert-malhotra/h5shard/ndarray"
)

// stringHasher implements immutable.Hasher for dataset identifiers.
type stringHasher struct{}

// Hash returns the low 32 bits of the xxhash of key.
func (stringHasher) Hash(key string) uint32 { return uint32(xxhash.Sum64String(key)) }

// Equal returns true if a and b are the same identifier.
func (stringHasher) Equal(a, b string) bool { return a == b }

// cache maps identifiers to merged arrays. Readers load the current
// snapshot without locking; writers publish a new snapshot under mu. Each
// key is inserted at most once.
type cache struct {
	snapshot atomic.Pointer[immutable.Map[string, *ndarray.Array]]
	mu       sync.Mutex
	flight   singleflight.Group
}

func newCache() *cache {
	c := &cache{}
	c.reset()
	return c
}

func (c *cache) get(key string) (*ndarray.Array, bool) {
	return c.snapshot.Load().Get(key)
}

// put stores a under key unless key is already present, and returns the
// stored value.
func (c *cache) put(key string, a *ndarray.Array) *ndarray.Array {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := c.snapshot.Load()
	if prev, ok := m.Get(key); ok {
		return prev
	}
	c.snapshot.Store(m.Set(key, a))
	return a
}

func (c *cache) len() int { return c.snapshot.Load().Len() }

func (c *cache) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot.Store(immutable.NewMap[string, *ndarray.Array](stringHasher{}))
}

// load returns the cached value for key or runs fn once, however many
// callers ask for key at the same time. Each caller waits only as long as
// its own ctx allows. When the caller leading a load gives up, a waiter
// whose ctx is still live starts the load again under its own ctx. hit
// reports whether the value came from the cache. Errors are not cached.
func (c *cache) load(ctx context.Context, key string, fn func(context.Context) (*ndarray.Array, error)) (a *ndarray.Array, hit bool, err error) {
	for {
		if a, ok := c.get(key); ok {
			return a, true, nil
		}
		ch := c.flight.DoChan(key, func() (interface{}, error) {
			// A load that finished between the lookup above and DoChan has
			// already published its result.
			if a, ok := c.get(key); ok {
				return a, nil
			}
			a, err := fn(ctx)
			if err != nil {
				return nil, err
			}
			return c.put(key, a), nil
		})
		select {
		case <-ctx.Done():
			return nil, false, ctx.Err()
		case res := <-ch:
			if res.Err == nil {
				return res.Val.(*ndarray.Array), false, nil
			}
			if ctx.Err() == nil && canceled(res.Err) {
				continue
			}
			return nil, false, res.Err
		}
	}
}

func canceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
