package state

import "github.com/str4d/zebra/errs"

func (fs *FinalizedState) containsNullifier(p pool, nullifier []byte) (bool, error) {
	ok, err := fs.engine.Has(nullifierColumn(p), nullifier)
	if err != nil {
		return false, errs.Wrapf(errs.IoError, err, "state: checking %s nullifier membership", nullifierColumn(p))
	}
	return ok, nil
}

// ContainsSproutNullifier reports whether nullifier has already been
// revealed in a committed Sprout JoinSplit.
func (fs *FinalizedState) ContainsSproutNullifier(nullifier []byte) (bool, error) {
	return fs.containsNullifier(poolSprout, nullifier)
}

// ContainsSaplingNullifier reports whether nullifier has already been
// revealed in a committed Sapling Spend.
func (fs *FinalizedState) ContainsSaplingNullifier(nullifier []byte) (bool, error) {
	return fs.containsNullifier(poolSapling, nullifier)
}

// ContainsOrchardNullifier reports whether nullifier has already been
// revealed in a committed Orchard Action.
func (fs *FinalizedState) ContainsOrchardNullifier(nullifier []byte) (bool, error) {
	return fs.containsNullifier(poolOrchard, nullifier)
}

func (fs *FinalizedState) containsAnchor(p pool, anchor []byte) (bool, error) {
	ok, err := fs.engine.Has(anchorColumn(p), anchor)
	if err != nil {
		return false, errs.Wrapf(errs.IoError, err, "state: checking %s anchor membership", anchorColumn(p))
	}
	return ok, nil
}

// ContainsSproutAnchor reports whether anchor is a historical Sprout
// tree root any committed block has produced.
func (fs *FinalizedState) ContainsSproutAnchor(anchor []byte) (bool, error) {
	return fs.containsAnchor(poolSprout, anchor)
}

// ContainsSaplingAnchor reports whether anchor is a historical
// Sapling tree root any committed block has produced.
func (fs *FinalizedState) ContainsSaplingAnchor(anchor []byte) (bool, error) {
	return fs.containsAnchor(poolSapling, anchor)
}

// ContainsOrchardAnchor reports whether anchor is a historical
// Orchard tree root any committed block has produced.
func (fs *FinalizedState) ContainsOrchardAnchor(anchor []byte) (bool, error) {
	return fs.containsAnchor(poolOrchard, anchor)
}
