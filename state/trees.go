package state

import (
	"github.com/str4d/zebra/encoding"
	"github.com/str4d/zebra/errs"
	"github.com/str4d/zebra/kv"
)

// treeAtHeight reconstructs a pool's note commitment tree as of
// height using the dedup-by-unchanged-value scheme: the tree is only
// ever written at heights where it changed, so the entry with the
// greatest key less than or equal to height is the tree's state at
// height. A height above the finalized tip (or any height in an empty
// store) is NotFound.
func (fs *FinalizedState) treeAtHeight(p pool, height encoding.Height) ([]byte, error) {
	if tip, ok := fs.TipHeight(); !ok || height > tip {
		return nil, errs.Newf(errs.NotFound, "state: height %d is above the finalized tip", height)
	}
	_, value, err := fs.engine.PrevKeyValueBackFrom(treeColumn(p), heightKey(height))
	if err == kv.ErrNotFound {
		return nil, errs.Newf(errs.NotFound, "state: no %s tree recorded at or before height %d", treeColumn(p), height)
	}
	if err != nil {
		return nil, errs.Wrapf(errs.IoError, err, "state: reading %s tree", treeColumn(p))
	}
	return value, nil
}

// SproutTree returns the current Sprout note commitment tree. Sprout
// keeps no per-height history -- spec's Commitment Tree (Sprout)
// column has exactly one slot, overwritten at every commit, so this
// reads that unit-keyed slot directly rather than reconstructing a
// value from a height-keyed range the way Sapling/Orchard trees are.
// Returns the empty tree (nil, nil) if the store has never recorded
// one, matching spec's "return the empty tree if the store is empty".
func (fs *FinalizedState) SproutTree() ([]byte, error) {
	value, err := fs.engine.Get(kv.ColumnSproutNoteCommitmentTree, sproutTreeUnitKey)
	if err == kv.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Wrap(errs.IoError, err, "state: reading sprout tree")
	}
	return value, nil
}

// SaplingTreeByHeight returns the Sapling note commitment tree as of height.
func (fs *FinalizedState) SaplingTreeByHeight(height encoding.Height) ([]byte, error) {
	return fs.treeAtHeight(poolSapling, height)
}

// OrchardTreeByHeight returns the Orchard note commitment tree as of height.
func (fs *FinalizedState) OrchardTreeByHeight(height encoding.Height) ([]byte, error) {
	return fs.treeAtHeight(poolOrchard, height)
}

// NoteCommitmentTrees returns all three pools' note commitment trees
// in one call: the Sapling and Orchard trees as of height, and the
// current Sprout tree (Sprout keeps no per-height history, so height
// does not apply to it). It performs three separate reads, so a commit
// that lands between them is not excluded.
func (fs *FinalizedState) NoteCommitmentTrees(height encoding.Height) (NoteCommitmentTrees, error) {
	sprout, err := fs.SproutTree()
	if err != nil {
		return NoteCommitmentTrees{}, err
	}
	sapling, err := fs.SaplingTreeByHeight(height)
	if err != nil {
		return NoteCommitmentTrees{}, err
	}
	orchard, err := fs.OrchardTreeByHeight(height)
	if err != nil {
		return NoteCommitmentTrees{}, err
	}
	return NoteCommitmentTrees{Sprout: sprout, Sapling: sapling, Orchard: orchard}, nil
}

func (fs *FinalizedState) subtreeAt(cf kv.ColumnFamily, index encoding.SubtreeIndex) (SubtreeCompletion, error) {
	raw, err := fs.engine.Get(cf, subtreeKey(index))
	if err == kv.ErrNotFound {
		return SubtreeCompletion{}, errs.Newf(errs.NotFound, "state: no subtree %d in %s", index, cf)
	}
	if err != nil {
		return SubtreeCompletion{}, errs.Wrapf(errs.IoError, err, "state: reading subtree %d in %s", index, cf)
	}
	sc, err := ParseSubtreeCompletion(raw)
	if err != nil {
		return SubtreeCompletion{}, errs.Wrapf(errs.FormatError, err, "state: decoding subtree %d in %s", index, cf)
	}
	return sc, nil
}

// SaplingSubtree returns the completed Sapling subtree at index.
func (fs *FinalizedState) SaplingSubtree(index encoding.SubtreeIndex) (SubtreeCompletion, error) {
	return fs.subtreeAt(kv.ColumnSaplingNoteCommitmentSubtree, index)
}

// OrchardSubtree returns the completed Orchard subtree at index.
func (fs *FinalizedState) OrchardSubtree(index encoding.SubtreeIndex) (SubtreeCompletion, error) {
	return fs.subtreeAt(kv.ColumnOrchardNoteCommitmentSubtree, index)
}

// SubtreeEntry pairs a subtree's index with its completion record, the
// shape the z_getsubtreesbyindex-style RPC list wants.
type SubtreeEntry struct {
	Index      encoding.SubtreeIndex
	Completion SubtreeCompletion
}

func (fs *FinalizedState) subtreeListForRPC(cf kv.ColumnFamily, start encoding.SubtreeIndex, limit int) ([]SubtreeEntry, error) {
	if limit <= 0 {
		return nil, nil
	}
	has, err := fs.engine.Has(cf, subtreeKey(start))
	if err != nil {
		return nil, errs.Wrapf(errs.IoError, err, "state: checking subtree %d in %s", start, cf)
	}
	if !has {
		return nil, nil
	}
	it, err := fs.engine.RangeIter(cf, subtreeKey(start), nil)
	if err != nil {
		return nil, errs.Wrapf(errs.IoError, err, "state: listing subtrees in %s", cf)
	}
	defer it.Release()
	var out []SubtreeEntry
	for it.Next() && len(out) < limit {
		idx, err := encoding.ParseSubtreeIndex(it.Key())
		if err != nil {
			return nil, errs.Wrapf(errs.FormatError, err, "state: decoding subtree index in %s", cf)
		}
		sc, err := ParseSubtreeCompletion(it.Value())
		if err != nil {
			return nil, errs.Wrapf(errs.FormatError, err, "state: decoding subtree %d in %s", idx, cf)
		}
		out = append(out, SubtreeEntry{Index: idx, Completion: sc})
	}
	return out, nil
}

// SaplingSubtreeListForRPC returns up to limit completed Sapling
// subtrees starting at start, in ascending index order.
func (fs *FinalizedState) SaplingSubtreeListForRPC(start encoding.SubtreeIndex, limit int) ([]SubtreeEntry, error) {
	return fs.subtreeListForRPC(kv.ColumnSaplingNoteCommitmentSubtree, start, limit)
}

// OrchardSubtreeListForRPC returns up to limit completed Orchard
// subtrees starting at start, in ascending index order.
func (fs *FinalizedState) OrchardSubtreeListForRPC(start encoding.SubtreeIndex, limit int) ([]SubtreeEntry, error) {
	return fs.subtreeListForRPC(kv.ColumnOrchardNoteCommitmentSubtree, start, limit)
}
