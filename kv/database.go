// Package kv provides a thin typed wrapper over an embedded ordered
// key-value store (cockroachdb/pebble), with named column families,
// typed get/put/delete/contains, range and reverse-range iteration,
// and atomic write batches.
//
// A physical engine hosts many logical column families sharing one
// ordered keyspace, following go-ethereum's prefix-based schema: each
// column family is a fixed byte prefix prepended to every key it
// stores, so lexicographic key order within a prefix matches the
// column's own ordering.
package kv

import "errors"

// ErrNotFound is returned by Get, LastKeyValue and PrevKeyValueBackFrom
// when no matching entry exists. It is never returned by Has, which
// reports absence as a plain false.
var ErrNotFound = errors.New("kv: not found")

// ColumnFamily names a logical keyspace sharing the engine's single
// physical keyspace. Names are part of the on-disk format and must
// not change without bumping the database format version.
type ColumnFamily string

// Column families used by the finalized state store. Names are fixed
// for on-disk compatibility.
const (
	ColumnByHash  ColumnFamily = "by_hash"
	ColumnByHeight ColumnFamily = "by_height"

	ColumnSproutNullifiers  ColumnFamily = "sprout_nullifiers"
	ColumnSaplingNullifiers ColumnFamily = "sapling_nullifiers"
	ColumnOrchardNullifiers ColumnFamily = "orchard_nullifiers"

	ColumnSproutAnchors  ColumnFamily = "sprout_anchors"
	ColumnSaplingAnchors ColumnFamily = "sapling_anchors"
	ColumnOrchardAnchors ColumnFamily = "orchard_anchors"

	ColumnSproutNoteCommitmentTree  ColumnFamily = "sprout_note_commitment_tree"
	ColumnSaplingNoteCommitmentTree ColumnFamily = "sapling_note_commitment_tree"
	ColumnOrchardNoteCommitmentTree ColumnFamily = "orchard_note_commitment_tree"

	ColumnSaplingNoteCommitmentSubtree ColumnFamily = "sapling_note_commitment_subtree"
	ColumnOrchardNoteCommitmentSubtree ColumnFamily = "orchard_note_commitment_subtree"

	// ColumnMeta holds out-of-band sidecar records, such as the
	// persisted database format version. It is not part of spec's
	// enumerated shielded-state columns, but is required to open a
	// database safely across format changes.
	ColumnMeta ColumnFamily = "meta"

	// ColumnHeightByHash and ColumnHashByHeight are the block index's
	// reverse lookups, keyed by hash and by height respectively. The
	// store never parses consensus block bytes to recover a height or
	// hash, so these small fixed-width mappings stand in for that
	// parse: by_hash/by_height hold only the opaque block payload, and
	// these two columns are what Depth and BlockLocator walk.
	ColumnHeightByHash ColumnFamily = "height_by_hash"
	ColumnHashByHeight ColumnFamily = "hash_by_height"
)

// allColumns lists every column family an Engine must be able to
// open. NewMemoryEngine pre-creates each of them.
var allColumns = []ColumnFamily{
	ColumnByHash, ColumnByHeight,
	ColumnSproutNullifiers, ColumnSaplingNullifiers, ColumnOrchardNullifiers,
	ColumnSproutAnchors, ColumnSaplingAnchors, ColumnOrchardAnchors,
	ColumnSproutNoteCommitmentTree, ColumnSaplingNoteCommitmentTree, ColumnOrchardNoteCommitmentTree,
	ColumnSaplingNoteCommitmentSubtree, ColumnOrchardNoteCommitmentSubtree,
	ColumnMeta,
	ColumnHeightByHash, ColumnHashByHeight,
}

// Reader is the read side of a column family.
type Reader interface {
	// Get returns the raw value stored at key, or ErrNotFound.
	Get(cf ColumnFamily, key []byte) ([]byte, error)
	// Has reports whether key exists in cf.
	Has(cf ColumnFamily, key []byte) (bool, error)
	// LastKeyValue returns the entry with the greatest key in cf, or
	// ErrNotFound if cf is empty.
	LastKeyValue(cf ColumnFamily) (key, value []byte, err error)
	// PrevKeyValueBackFrom returns the entry with the greatest key
	// less than or equal to key, or ErrNotFound if none exists.
	PrevKeyValueBackFrom(cf ColumnFamily, key []byte) (foundKey, value []byte, err error)
	// RangeIter returns an ascending iterator over [start, end) in cf.
	// A nil end means unbounded.
	RangeIter(cf ColumnFamily, start, end []byte) (Iterator, error)
	// ReverseRangeIter returns a descending iterator over [start, end)
	// in cf, yielding end-exclusive down to start-inclusive.
	ReverseRangeIter(cf ColumnFamily, start, end []byte) (Iterator, error)
	// ItemsInRangeUnordered materializes every entry in [start, end)
	// into a map, in no particular order.
	ItemsInRangeUnordered(cf ColumnFamily, start, end []byte) (map[string][]byte, error)
}

// Iterator walks key/value pairs within one column family.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Release()
}

// Batch accumulates column-family writes for atomic application.
// A Batch commits all-or-nothing: either every accumulated Insert,
// Delete and DeleteRange becomes visible to subsequent reads, or
// none does.
type Batch interface {
	Insert(cf ColumnFamily, key, value []byte)
	Delete(cf ColumnFamily, key []byte)
	DeleteRange(cf ColumnFamily, start, end []byte)
	// Commit applies the batch atomically. A Batch must not be reused
	// after Commit.
	Commit() error
}

// Engine is the full typed surface over the embedded ordered store.
// It is safe for concurrent use by multiple goroutines; a single
// Engine handle may be shared across readers and the one writer.
type Engine interface {
	Reader
	// Batch returns a new, empty write batch targeting this engine.
	Batch() Batch
	// Close flushes and releases the underlying store.
	Close() error
}
