package state

import (
	"github.com/str4d/zebra/encoding"
	"github.com/str4d/zebra/kv"
)

// Key layouts for the finalized state store. Column families carry
// the namespace (see kv.ColumnFamily); within a column, keys are the
// narrowest encoding that gives the ordering the column needs, the
// same discipline the block index schema this package is modeled on
// applies to its own prefix+number+hash keys.

// heightKey is the key used in every height-ordered column: by_height,
// hash_by_height, and the Sapling and Orchard note-commitment-tree
// columns.
func heightKey(h encoding.Height) []byte { return h.Bytes() }

// hashKey is the key used in by_hash and height_by_hash.
func hashKey(h encoding.BlockHash) []byte { return h.Bytes() }

// subtreeKey is the key used in the two subtree columns.
func subtreeKey(i encoding.SubtreeIndex) []byte { return i.Bytes() }

// sproutTreeUnitKey is the single slot the Sprout note commitment tree
// lives under: unlike Sapling/Orchard, Sprout keeps no per-height
// history, so its column is written through this one key, overwritten
// at every commit, instead of heightKey.
var sproutTreeUnitKey = []byte{}

// pool identifies one of the three shielded pools.
type pool int

const (
	poolSprout pool = iota
	poolSapling
	poolOrchard
)

// nullifierColumn returns the column family a pool's nullifier set
// lives in.
func nullifierColumn(p pool) kv.ColumnFamily {
	switch p {
	case poolSprout:
		return kv.ColumnSproutNullifiers
	case poolSapling:
		return kv.ColumnSaplingNullifiers
	default:
		return kv.ColumnOrchardNullifiers
	}
}

func anchorColumn(p pool) kv.ColumnFamily {
	switch p {
	case poolSprout:
		return kv.ColumnSproutAnchors
	case poolSapling:
		return kv.ColumnSaplingAnchors
	default:
		return kv.ColumnOrchardAnchors
	}
}

// treeColumn returns the height-keyed tree column for a pool that
// keeps per-height tree history. Sprout does not: it has a single
// unit-keyed slot instead (see sproutTreeUnitKey and SproutTree), so
// it is deliberately absent here, the same way subtreeColumn panics
// for the pool that has no subtree column.
func treeColumn(p pool) kv.ColumnFamily {
	switch p {
	case poolSapling:
		return kv.ColumnSaplingNoteCommitmentTree
	case poolOrchard:
		return kv.ColumnOrchardNoteCommitmentTree
	default:
		panic("state: pool has no height-keyed tree column")
	}
}

func subtreeColumn(p pool) kv.ColumnFamily {
	switch p {
	case poolSapling:
		return kv.ColumnSaplingNoteCommitmentSubtree
	case poolOrchard:
		return kv.ColumnOrchardNoteCommitmentSubtree
	default:
		panic("state: pool has no subtree column")
	}
}
