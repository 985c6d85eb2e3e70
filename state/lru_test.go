package state

import "testing"

func TestLRUCacheEvictsByWeightNotCount(t *testing.T) {
	c := newLRU[string, []byte](10, func(v []byte) int64 { return int64(len(v)) })

	c.put("a", make([]byte, 6))
	c.put("b", make([]byte, 3))
	if _, ok := c.get("a"); !ok {
		t.Fatal("a should still be cached")
	}
	if _, ok := c.get("b"); !ok {
		t.Fatal("b should still be cached")
	}

	// "a" was just touched by get, so it's most-recently-used; adding
	// "c" (weight 4) must evict "b" (now least-recently-used) to stay
	// within the budget of 10, not "a" (6 + 4 fits exactly).
	c.put("c", make([]byte, 4))
	if _, ok := c.get("b"); ok {
		t.Fatal("b should have been evicted to make room for c")
	}
	if _, ok := c.get("a"); !ok {
		t.Fatal("a should still be cached")
	}
	if _, ok := c.get("c"); !ok {
		t.Fatal("c should be cached")
	}
}

func TestLRUCacheRejectsOversizedEntry(t *testing.T) {
	c := newLRU[string, []byte](4, func(v []byte) int64 { return int64(len(v)) })
	c.put("big", make([]byte, 100))
	if _, ok := c.get("big"); ok {
		t.Fatal("an entry heavier than the whole budget must never be cached")
	}
}

func TestLRUCacheRemove(t *testing.T) {
	c := newLRU[string, []byte](10, func(v []byte) int64 { return int64(len(v)) })
	c.put("a", make([]byte, 4))
	c.remove("a")
	if _, ok := c.get("a"); ok {
		t.Fatal("removed entry should not be cached")
	}
	// budget should be fully reclaimed
	c.put("b", make([]byte, 10))
	if _, ok := c.get("b"); !ok {
		t.Fatal("b should fit after a's weight was reclaimed by remove")
	}
}
