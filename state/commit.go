package state

import (
	"github.com/str4d/zebra/encoding"
	"github.com/str4d/zebra/errs"
	"github.com/str4d/zebra/kv"
)

// CommitBlock atomically appends pb to the finalized state store and
// the block index: the block itself, its revealed nullifiers, its
// pool anchors, any changed note commitment trees, and any just-
// completed subtree. Either all of it becomes visible to subsequent
// reads or none of it does.
//
// pb.Height must be exactly one past the current tip (or zero, for
// the first block committed to an empty store); any other height is
// an Invariant error; a hole in the indexed chain is never written.
func (fs *FinalizedState) CommitBlock(pb *PreparedBlock) error {
	tipHeight, ok := fs.TipHeight()
	switch {
	case !ok && pb.Height != 0:
		return errs.Newf(errs.Invariant, "state: first committed block must be height 0, got %d", pb.Height)
	case ok && pb.Height != tipHeight+1:
		return errs.Newf(errs.Invariant, "state: block height %d does not extend tip height %d by one", pb.Height, tipHeight)
	}

	batch := fs.engine.Batch()

	hk, hgk := hashKey(pb.Hash), heightKey(pb.Height)
	batch.Insert(kv.ColumnByHash, hk, pb.Block)
	batch.Insert(kv.ColumnByHeight, hgk, pb.Block)
	batch.Insert(kv.ColumnHeightByHash, hk, hgk)
	batch.Insert(kv.ColumnHashByHeight, hgk, hk)

	insertNullifiers(batch, poolSprout, pb.Height, pb.SproutNullifiers)
	insertNullifiers(batch, poolSapling, pb.Height, pb.SaplingNullifiers)
	insertNullifiers(batch, poolOrchard, pb.Height, pb.OrchardNullifiers)

	insertAnchor(batch, poolSprout, pb.Height, pb.Anchors.Sprout)
	insertAnchor(batch, poolSapling, pb.Height, pb.Anchors.Sapling)
	insertAnchor(batch, poolOrchard, pb.Height, pb.Anchors.Orchard)

	// Sapling/Orchard trees are stored only at heights where they
	// changed: the dedup-by-unchanged-value scheme PrevKeyValueBackFrom
	// reconstructs a tree at any height from its most recent prior
	// entry. Sprout has no per-height history at all -- it is a single
	// unit-keyed slot, overwritten in place at every commit.
	insertSproutTree(batch, pb.Trees.Sprout)
	fs.insertTreeIfChanged(batch, poolSapling, pb.Height, pb.Trees.Sapling)
	fs.insertTreeIfChanged(batch, poolOrchard, pb.Height, pb.Trees.Orchard)

	if pb.SaplingSubtree != nil {
		batch.Insert(kv.ColumnSaplingNoteCommitmentSubtree, subtreeKey(nextSubtreeIndex(fs, kv.ColumnSaplingNoteCommitmentSubtree)), pb.SaplingSubtree.Bytes())
	}
	if pb.OrchardSubtree != nil {
		batch.Insert(kv.ColumnOrchardNoteCommitmentSubtree, subtreeKey(nextSubtreeIndex(fs, kv.ColumnOrchardNoteCommitmentSubtree)), pb.OrchardSubtree.Bytes())
	}

	if err := batch.Commit(); err != nil {
		return errs.Wrapf(errs.IoError, err, "state: committing block at height %d", pb.Height)
	}
	fs.blockByHash.put(pb.Hash, pb.Block)
	fs.log.Debug("committed block", "height", pb.Height, "hash", pb.Hash.Bytes())
	return nil
}

func insertNullifiers(batch kv.Batch, p pool, height encoding.Height, nullifiers [][]byte) {
	cf := nullifierColumn(p)
	for _, n := range nullifiers {
		batch.Insert(cf, n, height.Bytes())
	}
}

func insertAnchor(batch kv.Batch, p pool, height encoding.Height, anchor []byte) {
	if anchor == nil {
		return
	}
	batch.Insert(anchorColumn(p), anchor, height.Bytes())
}

// insertTreeIfChanged writes tree at height unless it is nil or, above
// genesis, byte-identical to the tree in effect at the previous height.
func (fs *FinalizedState) insertTreeIfChanged(batch kv.Batch, p pool, height encoding.Height, tree []byte) {
	if tree == nil {
		return
	}
	if height > 0 {
		_, prev, err := fs.engine.PrevKeyValueBackFrom(treeColumn(p), heightKey(height-1))
		if err == nil && string(prev) == string(tree) {
			return
		}
	}
	batch.Insert(treeColumn(p), heightKey(height), tree)
}

// insertSproutTree overwrites the Sprout tree's single unit-keyed
// slot. Unlike insertTreeIfChanged, there is no height-keyed history
// to dedup against: the column holds exactly one value, the current
// tree, and every commit that carries one replaces it in place.
func insertSproutTree(batch kv.Batch, tree []byte) {
	if tree == nil {
		return
	}
	batch.Insert(kv.ColumnSproutNoteCommitmentTree, sproutTreeUnitKey, tree)
}

// nextSubtreeIndex returns the index the next completed subtree in cf
// should be stored under: one past the greatest index currently
// present, or zero if the column is empty.
func nextSubtreeIndex(fs *FinalizedState, cf kv.ColumnFamily) encoding.SubtreeIndex {
	key, _, err := fs.engine.LastKeyValue(cf)
	if err != nil {
		return 0
	}
	idx, err := encoding.ParseSubtreeIndex(key)
	if err != nil {
		return 0
	}
	return idx + 1
}

// Rollback truncates the store back to target height, removing every
// block above it from the block index and every note-commitment-tree
// or subtree entry recorded above it. Grounded on the reference
// store's delete_range_sapling_tree/delete_range_sapling_subtree pair
// (and their Orchard equivalents): those are the only range-delete
// accessors the reference implementation exposes for the shielded
// state, so nullifier and anchor history is intentionally left
// untouched by rollback -- finalized blocks are, by construction,
// behind the reorg limit, and this path exists for recovering a store
// left inconsistent by an interrupted write, not for handling chain
// reorganizations.
func (fs *FinalizedState) Rollback(target encoding.Height) error {
	tipHeight, ok := fs.TipHeight()
	if !ok {
		return errs.New(errs.NotFound, "state: cannot roll back an empty store")
	}
	if target >= tipHeight {
		return errs.Newf(errs.Invariant, "state: rollback target height %d must be below tip height %d", target, tipHeight)
	}

	start := encoding.Height(target + 1).Bytes()

	removedHashes, err := fs.collectHashesAbove(start)
	if err != nil {
		return err
	}

	batch := fs.engine.Batch()
	for _, h := range removedHashes {
		batch.Delete(kv.ColumnByHash, h)
		batch.Delete(kv.ColumnHeightByHash, h)
	}
	batch.DeleteRange(kv.ColumnByHeight, start, nil)
	batch.DeleteRange(kv.ColumnHashByHeight, start, nil)
	// ColumnSproutNoteCommitmentTree is not ranged over: it holds a
	// single unit-keyed slot, not height-keyed history, so there is
	// nothing in [start, ∞) to delete.
	batch.DeleteRange(kv.ColumnSaplingNoteCommitmentTree, start, nil)
	batch.DeleteRange(kv.ColumnOrchardNoteCommitmentTree, start, nil)
	if err := fs.rollbackSubtrees(batch, kv.ColumnSaplingNoteCommitmentSubtree, target); err != nil {
		return err
	}
	if err := fs.rollbackSubtrees(batch, kv.ColumnOrchardNoteCommitmentSubtree, target); err != nil {
		return err
	}

	if err := batch.Commit(); err != nil {
		return errs.Wrapf(errs.IoError, err, "state: rolling back to height %d", target)
	}
	for _, h := range removedHashes {
		if hash, err := encoding.BytesToBlockHash(h); err == nil {
			fs.blockByHash.remove(hash)
		}
	}
	fs.log.Info("rolled back", "target_height", target, "removed_blocks", len(removedHashes))
	return nil
}

func (fs *FinalizedState) collectHashesAbove(start []byte) ([][]byte, error) {
	it, err := fs.engine.RangeIter(kv.ColumnHashByHeight, start, nil)
	if err != nil {
		return nil, errs.Wrap(errs.IoError, err, "state: rollback scanning hash_by_height")
	}
	defer it.Release()
	var hashes [][]byte
	for it.Next() {
		hashes = append(hashes, append([]byte(nil), it.Value()...))
	}
	return hashes, nil
}

// rollbackSubtrees removes every entry in a subtree column whose
// recorded end height is above target. Subtree columns are keyed by
// subtree index, not height, so unlike the tree columns this can't be
// expressed as a single DeleteRange and instead scans the (small)
// column, consulting each entry's encoded end height.
func (fs *FinalizedState) rollbackSubtrees(batch kv.Batch, cf kv.ColumnFamily, target encoding.Height) error {
	it, err := fs.engine.RangeIter(cf, nil, nil)
	if err != nil {
		return errs.Wrapf(errs.IoError, err, "state: rollback scanning %s", cf)
	}
	defer it.Release()
	for it.Next() {
		sc, err := ParseSubtreeCompletion(it.Value())
		if err != nil {
			return errs.Wrapf(errs.FormatError, err, "state: decoding subtree entry in %s", cf)
		}
		if sc.EndHeight > target {
			batch.Delete(cf, append([]byte(nil), it.Key()...))
		}
	}
	return nil
}
