// SPDX-License-Identifier: GPL-2.0-only
// Source: other_examples alxayo-rtmp-go internal/rtmp/server/registry.go
// (arena-keyed registry shape: small id keys to entries, a single guarding
// mutex, entries never removed during normal operation), adapted from an
// integer connection arena to spec.md §9's "global cache registry" keyed
// by UUID.

package pipe

import (
	"sync"

	"github.com/DaEun2Lee/wanops/internal/xcodec"
)

// Registry is the process-wide UUID→Cache mapping (spec.md §3, §5, §9).
// Entries are created lazily on first peer contact and are never removed
// during normal operation; teardown is the whole process exiting.
type Registry struct {
	mu     sync.Mutex
	caches map[[16]byte]xcodec.Cache
	newFn  func() (xcodec.Cache, error)
}

// NewRegistry returns an empty Registry. newFn constructs a fresh Cache
// the first time a UUID is seen; a typical newFn is a closure over a
// configured capacity, e.g. func() (xcodec.Cache, error) { return
// xcodec.NewCache(4096) }.
func NewRegistry(newFn func() (xcodec.Cache, error)) *Registry {
	return &Registry{
		caches: make(map[[16]byte]xcodec.Cache),
		newFn:  newFn,
	}
}

// Lookup returns the cache for uuid, creating it via newFn on first use.
func (r *Registry) Lookup(uuid [16]byte) (xcodec.Cache, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.caches[uuid]; ok {
		return c, nil
	}
	c, err := r.newFn()
	if err != nil {
		return nil, err
	}
	r.caches[uuid] = c
	return c, nil
}

// Len reports how many distinct cache namespaces have been created.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.caches)
}
