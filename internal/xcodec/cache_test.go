// SPDX-License-Identifier: GPL-2.0-only

package xcodec

import (
	"errors"
	"testing"
)

func TestCacheEnterLookup(t *testing.T) {
	c, err := NewCache(4)
	if err != nil {
		t.Fatal(err)
	}
	seg := NewSegment(fill('a'))
	if err := c.Enter(Tag(1), seg); err != nil {
		t.Fatal(err)
	}
	got, ok := c.Lookup(Tag(1))
	if !ok || !got.Equal(fill('a')) {
		t.Fatalf("Lookup(1) = %v, %v; want matching segment", got, ok)
	}
}

func TestCacheEnterDuplicateFails(t *testing.T) {
	c, _ := NewCache(4)
	seg := NewSegment(fill('a'))
	if err := c.Enter(Tag(1), seg); err != nil {
		t.Fatal(err)
	}
	if err := c.Enter(Tag(1), seg); !errors.Is(err, ErrTagPresent) {
		t.Fatalf("Enter duplicate err = %v, want ErrTagPresent", err)
	}
}

func TestCacheReplaceAbsentFails(t *testing.T) {
	c, _ := NewCache(4)
	if err := c.Replace(Tag(1), NewSegment(fill('a'))); !errors.Is(err, ErrTagAbsent) {
		t.Fatalf("Replace absent err = %v, want ErrTagAbsent", err)
	}
}

func TestCacheNegativeCapacityFails(t *testing.T) {
	if _, err := NewCache(-1); !errors.Is(err, ErrCacheFull) {
		t.Fatalf("NewCache(-1) err = %v, want ErrCacheFull", err)
	}
}

func TestCacheLRUEviction(t *testing.T) {
	c, _ := NewCache(2)
	c.Enter(Tag(1), NewSegment(fill('a')))
	c.Enter(Tag(2), NewSegment(fill('b')))
	// touch 1 so 2 becomes the least-recently-used entry
	c.Lookup(Tag(1))
	c.Enter(Tag(3), NewSegment(fill('c')))

	if _, ok := c.Lookup(Tag(2)); ok {
		t.Fatal("expected tag 2 to have been evicted")
	}
	if _, ok := c.Lookup(Tag(1)); !ok {
		t.Fatal("expected tag 1 to survive eviction")
	}
	if _, ok := c.Lookup(Tag(3)); !ok {
		t.Fatal("expected freshly entered tag 3 to be present")
	}
	stats := c.Stats()
	if stats.Len != 2 || stats.Evicted != 1 {
		t.Fatalf("Stats() = %+v, want Len=2 Evicted=1", stats)
	}
}

func TestCacheUnboundedNeverEvicts(t *testing.T) {
	c, _ := NewCache(0)
	for i := 0; i < 1000; i++ {
		b := fill(byte(i))
		if err := c.Enter(Tag(i), NewSegment(b)); err != nil {
			t.Fatal(err)
		}
	}
	if c.Stats().Evicted != 0 {
		t.Fatalf("unbounded cache evicted %d entries, want 0", c.Stats().Evicted)
	}
	if _, ok := c.Lookup(Tag(0)); !ok {
		t.Fatal("expected earliest entry to survive in an unbounded cache")
	}
}

func TestCachePeekDoesNotDisturbOrder(t *testing.T) {
	c, _ := NewCache(2)
	c.Enter(Tag(1), NewSegment(fill('a')))
	c.Enter(Tag(2), NewSegment(fill('b')))
	c.Peek(Tag(1)) // must not promote tag 1
	c.Enter(Tag(3), NewSegment(fill('c')))
	if _, ok := c.Lookup(Tag(1)); ok {
		t.Fatal("Peek must not affect LRU order; tag 1 should have been evicted")
	}
}

func TestCacheOutOfBand(t *testing.T) {
	c, _ := NewCache(4)
	if c.OutOfBand() {
		t.Fatal("in-memory cache must report OutOfBand() == false")
	}
	oob, _ := NewOutOfBandCache(4)
	if !oob.OutOfBand() {
		t.Fatal("NewOutOfBandCache must report OutOfBand() == true")
	}
}

func TestPairPromotesOnSecondaryHit(t *testing.T) {
	primary, _ := NewCache(4)
	secondary, _ := NewCache(4)
	pair := NewPair(primary, secondary)

	seg := NewSegment(fill('a'))
	if err := secondary.Enter(Tag(1), seg); err != nil {
		t.Fatal(err)
	}
	if _, ok := pair.Lookup(Tag(1)); !ok {
		t.Fatal("expected Pair.Lookup to hit via secondary")
	}
	if _, ok := primary.Lookup(Tag(1)); !ok {
		t.Fatal("expected secondary hit to be promoted into primary")
	}
	if pair.Promotes() != 1 {
		t.Fatalf("Promotes() = %d, want 1", pair.Promotes())
	}
}

func TestPairPrimaryHitTouchesSecondary(t *testing.T) {
	primary, _ := NewCache(4)
	secondary, _ := NewCache(2)
	pair := NewPair(primary, secondary)

	if err := pair.Enter(Tag(1), NewSegment(fill('a'))); err != nil {
		t.Fatal(err)
	}
	if err := pair.Enter(Tag(2), NewSegment(fill('b'))); err != nil {
		t.Fatal(err)
	}

	// Repeated hits land entirely in primary, but must still refresh tag 1's
	// recency in secondary so it isn't the one evicted below.
	for i := 0; i < 3; i++ {
		if _, ok := pair.Lookup(Tag(1)); !ok {
			t.Fatal("expected primary hit on tag 1")
		}
	}

	if err := secondary.Enter(Tag(3), NewSegment(fill('c'))); err != nil {
		t.Fatal(err)
	}

	if _, ok := secondary.Peek(Tag(1)); !ok {
		t.Fatal("expected tag 1 to survive secondary eviction via primary-hit touch")
	}
	if _, ok := secondary.Peek(Tag(2)); ok {
		t.Fatal("expected tag 2, never touched, to be evicted from secondary instead")
	}
}

func TestPairOutOfBandRequiresBothTiers(t *testing.T) {
	a, _ := NewOutOfBandCache(4)
	b, _ := NewCache(4)
	pair := NewPair(a, b)
	if pair.OutOfBand() {
		t.Fatal("Pair.OutOfBand() must require both tiers to agree")
	}
}
