// SPDX-License-Identifier: GPL-2.0-only

package pipe

import (
	"sync"
	"testing"

	"github.com/DaEun2Lee/wanops/internal/xcodec"
	"github.com/stretchr/testify/require"
)

func TestRegistryLazyCreateAndReuse(t *testing.T) {
	var created int
	reg := NewRegistry(func() (xcodec.Cache, error) {
		created++
		return xcodec.NewCache(16)
	})

	var uuid [16]byte
	copy(uuid[:], "0123456789abcdef")

	c1, err := reg.Lookup(uuid)
	require.NoError(t, err)
	c2, err := reg.Lookup(uuid)
	require.NoError(t, err)

	require.Same(t, c1, c2)
	require.Equal(t, 1, created)
	require.Equal(t, 1, reg.Len())
}

func TestRegistryDistinctUUIDsGetDistinctCaches(t *testing.T) {
	reg := NewRegistry(func() (xcodec.Cache, error) { return xcodec.NewCache(16) })
	var a, b [16]byte
	a[0] = 1
	b[0] = 2

	ca, _ := reg.Lookup(a)
	cb, _ := reg.Lookup(b)
	require.NotSame(t, ca, cb)
	require.Equal(t, 2, reg.Len())
}

func TestRegistryConcurrentLookupIsSafe(t *testing.T) {
	reg := NewRegistry(func() (xcodec.Cache, error) { return xcodec.NewCache(16) })
	var uuid [16]byte
	uuid[0] = 7

	var wg sync.WaitGroup
	results := make([]xcodec.Cache, 50)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := reg.Lookup(uuid)
			require.NoError(t, err)
			results[i] = c
		}(i)
	}
	wg.Wait()
	for i := 1; i < len(results); i++ {
		require.Same(t, results[0], results[i])
	}
}
