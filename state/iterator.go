// iterator.go walks the indexed chain forward or backward over a
// bounded height range, the primitive range-scan RPCs (and internal
// maintenance code) build on instead of repeating BlockByHeight calls
// one at a time.
package state

import (
	"github.com/str4d/zebra/encoding"
	"github.com/str4d/zebra/errs"
	"github.com/str4d/zebra/kv"
)

// BlockIterator walks indexed blocks in either height direction,
// yielding height, hash and block bytes. The underlying store has no
// holes between genesis and the tip, so unlike a reorg-prone chain an
// iterator here never needs to skip a missing height -- reaching the
// end of the requested range is the only way it stops.
type BlockIterator struct {
	fs      *FinalizedState
	current int64
	end     int64
	forward bool
	started bool

	height encoding.Height
	hash   encoding.BlockHash
	block  []byte
	err    error
}

// NewForwardIterator walks from start to end (inclusive) in ascending
// height order.
func NewForwardIterator(fs *FinalizedState, start, end encoding.Height) (*BlockIterator, error) {
	if start > end {
		return nil, errs.Newf(errs.Invariant, "state: forward iterator start %d > end %d", start, end)
	}
	return &BlockIterator{fs: fs, current: int64(start), end: int64(end), forward: true}, nil
}

// NewBackwardIterator walks from start down to end (inclusive) in
// descending height order.
func NewBackwardIterator(fs *FinalizedState, start, end encoding.Height) (*BlockIterator, error) {
	if end > start {
		return nil, errs.Newf(errs.Invariant, "state: backward iterator end %d > start %d", end, start)
	}
	return &BlockIterator{fs: fs, current: int64(start), end: int64(end), forward: false}, nil
}

// Next advances the iterator and reports whether a block was loaded.
// It stops (without error) at the end of the requested range, and
// stops with Err() set if a height within the range turns out not to
// be indexed -- which would mean the no-holes invariant was violated.
func (it *BlockIterator) Next() bool {
	if it.err != nil {
		return false
	}
	if !it.started {
		it.started = true
	} else if it.forward {
		it.current++
	} else {
		it.current--
	}

	if it.forward && it.current > it.end {
		return false
	}
	if !it.forward && it.current < it.end {
		return false
	}

	height := encoding.Height(it.current)
	block, err := it.fs.BlockByHeight(height)
	if err != nil {
		it.err = err
		return false
	}
	hash, ok := it.fs.hashAtHeight(height)
	if !ok {
		it.err = errs.Newf(errs.Invariant, "state: indexed height %d has no hash_by_height entry", height)
		return false
	}
	it.height, it.hash, it.block = height, hash, block
	return true
}

// Height returns the current iteration position's height.
func (it *BlockIterator) Height() encoding.Height { return it.height }

// Hash returns the current iteration position's block hash.
func (it *BlockIterator) Hash() encoding.BlockHash { return it.hash }

// Block returns the current iteration position's canonical block bytes.
func (it *BlockIterator) Block() []byte { return it.block }

// Err returns the error that stopped iteration early, if any.
func (it *BlockIterator) Err() error { return it.err }

// hashAtHeight looks up the hash of an indexed height via the
// height->hash reverse index.
func (fs *FinalizedState) hashAtHeight(height encoding.Height) (encoding.BlockHash, bool) {
	raw, err := fs.engine.Get(kv.ColumnHashByHeight, heightKey(height))
	if err != nil {
		return encoding.BlockHash{}, false
	}
	hash, err := encoding.BytesToBlockHash(raw)
	if err != nil {
		return encoding.BlockHash{}, false
	}
	return hash, true
}
