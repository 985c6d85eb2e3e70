// Package state implements the finalized shielded state store: the
// nullifier sets, note commitment trees, anchor history, and subtree
// snapshots for the Sprout, Sapling and Orchard pools, combined with
// the block index (by-hash and by-height block lookup, tip tracking,
// and block-locator construction) in one atomically-committed store.
//
// Both halves share a single underlying kv.Engine and a single write
// batch per committed block, mirroring the teacher's ChainDB: one
// high-level type wrapping a low-level Database, adding caching and
// the richer accessors callers actually want.
package state

import "github.com/str4d/zebra/encoding"

// SubtreeCompletion describes a just-completed 2^16-leaf segment of a
// Sapling or Orchard note commitment tree: the root node of the
// completed subtree, and the height of the block that completed it.
type SubtreeCompletion struct {
	Node      [32]byte
	EndHeight encoding.Height
}

// Bytes encodes a SubtreeCompletion as the 36-byte value stored under
// its subtree index: 32-byte node followed by the 4-byte big-endian
// end height.
func (s SubtreeCompletion) Bytes() []byte {
	buf := make([]byte, 36)
	copy(buf[:32], s.Node[:])
	copy(buf[32:], encoding.Height(s.EndHeight).Bytes())
	return buf
}

// ParseSubtreeCompletion decodes a stored subtree value.
func ParseSubtreeCompletion(b []byte) (SubtreeCompletion, error) {
	if len(b) != 36 {
		return SubtreeCompletion{}, encoding.ErrMalformedKey
	}
	h, err := encoding.ParseHeight(b[32:])
	if err != nil {
		return SubtreeCompletion{}, err
	}
	var sc SubtreeCompletion
	copy(sc.Node[:], b[:32])
	sc.EndHeight = h
	return sc, nil
}

// NoteCommitmentTrees bundles the opaque, pre-serialized note
// commitment tree state of all three pools as of a single height.
// Sprout never produces subtree snapshots (it predates the subtree
// scheme); Sapling and Orchard do, tracked separately.
type NoteCommitmentTrees struct {
	Sprout  []byte
	Sapling []byte
	Orchard []byte
}

// Anchors bundles the anchor (historical tree root) bytes each pool's
// tree commits to as of a single height. Distinct from
// NoteCommitmentTrees because the anchor is a fixed-size root, not
// the tree's full opaque serialization.
type Anchors struct {
	Sprout  []byte
	Sapling []byte
	Orchard []byte
}

// PreparedBlock is the atomic unit of work CommitBlock accepts: a
// fully-validated block plus every shielded side effect it produces,
// already serialized by the caller. The store performs no consensus
// decoding; it only persists what it is given and enforces the
// storage-level height ordering (each block extends the tip by one,
// so the indexed chain has no holes). It does not check that anchors
// match the trees they are supplied with.
type PreparedBlock struct {
	// Height and Hash identify the block; Height must be exactly one
	// greater than the current tip height (or zero for the first
	// block committed to an empty store).
	Height encoding.Height
	Hash   encoding.BlockHash

	// Block is the canonically serialized block, stored unmodified
	// under both the by-hash and by-height columns.
	Block []byte

	// Nullifiers revealed by this block, per pool. Order does not
	// matter; the store only needs set membership.
	SproutNullifiers  [][]byte
	SaplingNullifiers [][]byte
	OrchardNullifiers [][]byte

	// Trees holds the pool's note commitment tree state as of this
	// block, and Anchors the root bytes each tree commits to. A nil
	// tree field means that pool's tree was unchanged by this block;
	// the store will look it up via the previous height.
	Trees   NoteCommitmentTrees
	Anchors Anchors

	// SaplingSubtree and OrchardSubtree are populated only on the
	// block that completes a pool's next 2^16-leaf segment.
	SaplingSubtree *SubtreeCompletion
	OrchardSubtree *SubtreeCompletion
}
