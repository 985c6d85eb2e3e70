package kv

import (
	"bytes"
	"testing"
)

func TestMemoryEngineGetPutHas(t *testing.T) {
	e := NewMemoryEngine()
	if _, err := e.Get(ColumnByHash, []byte("a")); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	b := e.Batch()
	b.Insert(ColumnByHash, []byte("a"), []byte("1"))
	if err := b.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	ok, err := e.Has(ColumnByHash, []byte("a"))
	if err != nil || !ok {
		t.Fatalf("expected Has true, got %v %v", ok, err)
	}
	v, err := e.Get(ColumnByHash, []byte("a"))
	if err != nil || string(v) != "1" {
		t.Fatalf("expected value 1, got %q %v", v, err)
	}
}

func TestMemoryEngineBatchAtomicity(t *testing.T) {
	e := NewMemoryEngine()
	b := e.Batch()
	b.Insert(ColumnByHeight, []byte{0, 0, 0, 1}, []byte("block1"))
	b.Insert(ColumnByHash, []byte("h1"), []byte("block1"))
	if err := b.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	if ok, _ := e.Has(ColumnByHeight, []byte{0, 0, 0, 1}); !ok {
		t.Fatal("by_height missing after commit")
	}
	if ok, _ := e.Has(ColumnByHash, []byte("h1")); !ok {
		t.Fatal("by_hash missing after commit")
	}
}

func TestMemoryEngineLastAndPrevKeyValue(t *testing.T) {
	e := NewMemoryEngine()
	b := e.Batch()
	b.Insert(ColumnSaplingNoteCommitmentTree, []byte{0, 0, 0, 0}, []byte("tree0"))
	b.Insert(ColumnSaplingNoteCommitmentTree, []byte{0, 0, 0, 2}, []byte("tree2"))
	if err := b.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	k, v, err := e.LastKeyValue(ColumnSaplingNoteCommitmentTree)
	if err != nil {
		t.Fatalf("last: %v", err)
	}
	if !bytes.Equal(k, []byte{0, 0, 0, 2}) || string(v) != "tree2" {
		t.Fatalf("unexpected last entry: %v %q", k, v)
	}

	// height 1 has no direct entry; prev-back-from should return height 0's tree.
	_, v, err = e.PrevKeyValueBackFrom(ColumnSaplingNoteCommitmentTree, []byte{0, 0, 0, 1})
	if err != nil {
		t.Fatalf("prev: %v", err)
	}
	if string(v) != "tree0" {
		t.Fatalf("expected dedup fallback to tree0, got %q", v)
	}

	// height 2 has a direct entry.
	_, v, err = e.PrevKeyValueBackFrom(ColumnSaplingNoteCommitmentTree, []byte{0, 0, 0, 2})
	if err != nil {
		t.Fatalf("prev: %v", err)
	}
	if string(v) != "tree2" {
		t.Fatalf("expected exact match tree2, got %q", v)
	}
}

func TestMemoryEngineRangeIterators(t *testing.T) {
	e := NewMemoryEngine()
	b := e.Batch()
	for i := byte(0); i < 5; i++ {
		b.Insert(ColumnSaplingNoteCommitmentSubtree, []byte{0, i}, []byte{i})
	}
	if err := b.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	it, err := e.RangeIter(ColumnSaplingNoteCommitmentSubtree, []byte{0, 1}, []byte{0, 4})
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	var got []byte
	for it.Next() {
		got = append(got, it.Value()[0])
	}
	it.Release()
	if !bytes.Equal(got, []byte{1, 2, 3}) {
		t.Fatalf("expected [1 2 3], got %v", got)
	}

	rit, err := e.ReverseRangeIter(ColumnSaplingNoteCommitmentSubtree, []byte{0, 1}, []byte{0, 4})
	if err != nil {
		t.Fatalf("reverse range: %v", err)
	}
	var rgot []byte
	for rit.Next() {
		rgot = append(rgot, rit.Value()[0])
	}
	rit.Release()
	if !bytes.Equal(rgot, []byte{3, 2, 1}) {
		t.Fatalf("expected [3 2 1], got %v", rgot)
	}
}

func TestMemoryEngineItemsInRangeUnordered(t *testing.T) {
	e := NewMemoryEngine()
	b := e.Batch()
	b.Insert(ColumnSaplingNoteCommitmentSubtree, []byte{0, 3}, []byte("three"))
	b.Insert(ColumnSaplingNoteCommitmentSubtree, []byte{0, 4}, []byte("four"))
	b.Insert(ColumnSaplingNoteCommitmentSubtree, []byte{0, 5}, []byte("five"))
	if err := b.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	items, err := e.ItemsInRangeUnordered(ColumnSaplingNoteCommitmentSubtree, []byte{0, 3}, nil)
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
}

func TestMemoryEngineDeleteRange(t *testing.T) {
	e := NewMemoryEngine()
	b := e.Batch()
	for i := byte(0); i < 5; i++ {
		b.Insert(ColumnSaplingNoteCommitmentTree, []byte{0, 0, 0, i}, []byte{i})
	}
	if err := b.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	b2 := e.Batch()
	b2.DeleteRange(ColumnSaplingNoteCommitmentTree, []byte{0, 0, 0, 1}, []byte{0, 0, 0, 4})
	if err := b2.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	for i := byte(1); i < 4; i++ {
		if ok, _ := e.Has(ColumnSaplingNoteCommitmentTree, []byte{0, 0, 0, i}); ok {
			t.Fatalf("height %d should have been deleted", i)
		}
	}
	for _, i := range []byte{0, 4} {
		if ok, _ := e.Has(ColumnSaplingNoteCommitmentTree, []byte{0, 0, 0, i}); !ok {
			t.Fatalf("height %d should still exist", i)
		}
	}
}

// TestMemoryEngineDeleteRangeUnboundedEnd exercises DeleteRange(cf,
// start, nil), the "delete everything from start onward" form Rollback
// relies on. A nil end must not be treated as an exclusive upper bound
// of the zero-length key.
func TestMemoryEngineDeleteRangeUnboundedEnd(t *testing.T) {
	e := NewMemoryEngine()
	b := e.Batch()
	for i := byte(0); i < 5; i++ {
		b.Insert(ColumnByHeight, []byte{0, 0, 0, i}, []byte{i})
	}
	if err := b.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	b2 := e.Batch()
	b2.DeleteRange(ColumnByHeight, []byte{0, 0, 0, 2}, nil)
	if err := b2.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	for _, i := range []byte{0, 1} {
		if ok, _ := e.Has(ColumnByHeight, []byte{0, 0, 0, i}); !ok {
			t.Fatalf("height %d should still exist", i)
		}
	}
	for _, i := range []byte{2, 3, 4} {
		if ok, _ := e.Has(ColumnByHeight, []byte{0, 0, 0, i}); ok {
			t.Fatalf("height %d should have been deleted by an unbounded DeleteRange", i)
		}
	}
}
