package state

import (
	"github.com/str4d/zebra/encoding"
	"github.com/str4d/zebra/errs"
	"github.com/str4d/zebra/kv"
)

// BlockByHash returns the canonically serialized block stored under
// hash, or a NotFound error if hash is not indexed.
func (fs *FinalizedState) BlockByHash(hash encoding.BlockHash) ([]byte, error) {
	if cached, ok := fs.blockByHash.get(hash); ok {
		return cached, nil
	}
	b, err := fs.engine.Get(kv.ColumnByHash, hashKey(hash))
	if err == kv.ErrNotFound {
		return nil, errs.Newf(errs.NotFound, "state: no block with hash %x", hash.Bytes())
	}
	if err != nil {
		return nil, errs.Wrap(errs.IoError, err, "state: reading block by hash")
	}
	fs.blockByHash.put(hash, b)
	return b, nil
}

// BlockByHeight returns the canonically serialized block at height,
// or a NotFound error if height is not indexed.
func (fs *FinalizedState) BlockByHeight(height encoding.Height) ([]byte, error) {
	b, err := fs.engine.Get(kv.ColumnByHeight, heightKey(height))
	if err == kv.ErrNotFound {
		return nil, errs.Newf(errs.NotFound, "state: no block at height %d", height)
	}
	if err != nil {
		return nil, errs.Wrap(errs.IoError, err, "state: reading block by height")
	}
	return b, nil
}

// Contains reports whether hash is an indexed block.
func (fs *FinalizedState) Contains(hash encoding.BlockHash) bool {
	ok, _ := fs.engine.Has(kv.ColumnByHash, hashKey(hash))
	return ok
}

// TipHeight returns the height of the highest indexed block, and
// false if the store is empty.
func (fs *FinalizedState) TipHeight() (encoding.Height, bool) {
	key, _, err := fs.engine.LastKeyValue(kv.ColumnByHeight)
	if err != nil {
		return 0, false
	}
	h, err := encoding.ParseHeight(key)
	if err != nil {
		return 0, false
	}
	return h, true
}

// Tip returns the hash of the highest indexed block. Returns NotFound
// if the store is empty.
func (fs *FinalizedState) Tip() (encoding.BlockHash, error) {
	height, ok := fs.TipHeight()
	if !ok {
		return encoding.BlockHash{}, errs.New(errs.NotFound, "state: store is empty, no tip")
	}
	hash, ok := fs.hashAtHeight(height)
	if !ok {
		return encoding.BlockHash{}, errs.Newf(errs.Invariant, "state: tip height %d has no hash_by_height entry", height)
	}
	return hash, nil
}

// heightForHash looks up the height of an indexed block by hash,
// using the hash->height reverse index rather than parsing the
// opaque block bytes.
func (fs *FinalizedState) heightForHash(hash encoding.BlockHash) (encoding.Height, bool) {
	raw, err := fs.engine.Get(kv.ColumnHeightByHash, hashKey(hash))
	if err != nil {
		return 0, false
	}
	h, err := encoding.ParseHeight(raw)
	if err != nil {
		return 0, false
	}
	return h, true
}

// Depth returns tip_height - block_height for an indexed block, and
// false if hash is not indexed or the store is empty.
func (fs *FinalizedState) Depth(hash encoding.BlockHash) (uint32, bool) {
	height, ok := fs.heightForHash(hash)
	if !ok {
		return 0, false
	}
	tipHeight, ok := fs.TipHeight()
	if !ok {
		return 0, false
	}
	return uint32(tipHeight) - uint32(height), true
}

// BlockLocator returns the exponential-backoff sequence of indexed
// block hashes used to summarize this chain's tip for a peer: the
// most recent heights close together, widening gaps further back, and
// always ending at genesis. If the store is empty, it returns a
// single-element locator containing genesis unchanged.
func (fs *FinalizedState) BlockLocator(genesis encoding.BlockHash) ([]encoding.BlockHash, error) {
	tipHeight, ok := fs.TipHeight()
	if !ok {
		return []encoding.BlockHash{genesis}, nil
	}
	heights := blockLocatorHeights(tipHeight)
	hashes := make([]encoding.BlockHash, 0, len(heights))
	for _, h := range heights {
		hash, ok := fs.hashAtHeight(h)
		if !ok {
			return nil, errs.Newf(errs.Invariant, "state: block locator height %d is not indexed below tip %d", h, tipHeight)
		}
		hashes = append(hashes, hash)
	}
	return hashes, nil
}

// blockLocatorHeights computes the heights a block locator samples
// for a chain of the given tip height: starting at step 1, emit
// tip-step whenever step does not exceed tip, then double step;
// stop once step has passed the largest uint32 power of two, 2^31
// (step beyond 2^31 never arises for any real height, but the
// doubling sequence must still terminate rather than loop forever at
// a frozen step), and always finish with height 0.
//
// Grounded directly on the reference implementation's locator
// function: the step sequence is generated independently of which
// heights are actually emitted, so a step larger than the tip is
// simply skipped rather than ending the sequence early.
func blockLocatorHeights(tip encoding.Height) []encoding.Height {
	h := uint64(tip)
	heights := make([]encoding.Height, 0, 34)
	for step := uint64(1); ; step *= 2 {
		if step <= h {
			heights = append(heights, encoding.Height(h-step))
		}
		if step > (1 << 31) {
			break
		}
	}
	heights = append(heights, 0)
	return heights
}
