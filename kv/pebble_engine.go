package kv

import (
	"github.com/cockroachdb/pebble"
)

// PebbleEngine is the on-disk Engine, backed by a single *pebble.DB.
// Column families have no native representation in Pebble (unlike
// RocksDB); each is modeled as a single-byte-prefixed keyspace over
// the one physical store, following the same prefix-namespacing
// approach go-ethereum style stores use to share one LevelDB/Pebble
// instance across logical tables.
type PebbleEngine struct {
	db *pebble.DB
}

// cfPrefixes assigns each column family a fixed one-byte prefix. The
// mapping is part of the on-disk format: changing it requires bumping
// the database format version.
var cfPrefixes = map[ColumnFamily]byte{
	ColumnByHash:                       0x01,
	ColumnByHeight:                     0x02,
	ColumnSproutNullifiers:             0x03,
	ColumnSaplingNullifiers:            0x04,
	ColumnOrchardNullifiers:            0x05,
	ColumnSproutAnchors:                0x06,
	ColumnSaplingAnchors:               0x07,
	ColumnOrchardAnchors:               0x08,
	ColumnSproutNoteCommitmentTree:     0x09,
	ColumnSaplingNoteCommitmentTree:    0x0a,
	ColumnOrchardNoteCommitmentTree:    0x0b,
	ColumnSaplingNoteCommitmentSubtree: 0x0c,
	ColumnOrchardNoteCommitmentSubtree: 0x0d,
	ColumnMeta:                         0x0e,
	ColumnHeightByHash:                 0x0f,
	ColumnHashByHeight:                 0x10,
}

// OpenPebble opens (creating if necessary) a Pebble store at dir and
// wraps it as an Engine.
func OpenPebble(dir string) (*PebbleEngine, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &PebbleEngine{db: db}, nil
}

func prefixedKey(cf ColumnFamily, key []byte) []byte {
	p, ok := cfPrefixes[cf]
	if !ok {
		panic("kv: unknown column family " + string(cf))
	}
	out := make([]byte, 1+len(key))
	out[0] = p
	copy(out[1:], key)
	return out
}

// prefixUpperBound returns the smallest key that sorts after every
// key sharing the given one-byte prefix, for bounding prefix scans.
func prefixUpperBound(prefix byte) []byte {
	if prefix == 0xff {
		return nil
	}
	return []byte{prefix + 1}
}

func (e *PebbleEngine) Get(cf ColumnFamily, key []byte) ([]byte, error) {
	v, closer, err := e.db.Get(prefixedKey(cf, key))
	if err != nil {
		if err == pebble.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer closer.Close()
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, nil
}

func (e *PebbleEngine) Has(cf ColumnFamily, key []byte) (bool, error) {
	_, err := e.Get(cf, key)
	if err == nil {
		return true, nil
	}
	if err == ErrNotFound {
		return false, nil
	}
	return false, err
}

func (e *PebbleEngine) bounds(cf ColumnFamily, start, end []byte) (lower, upper []byte) {
	p := cfPrefixes[cf]
	if start != nil {
		lower = prefixedKey(cf, start)
	} else {
		lower = []byte{p}
	}
	if end != nil {
		upper = prefixedKey(cf, end)
	} else {
		upper = prefixUpperBound(p)
	}
	return lower, upper
}

func (e *PebbleEngine) LastKeyValue(cf ColumnFamily) (key, value []byte, err error) {
	lower, upper := e.bounds(cf, nil, nil)
	it, err := e.db.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return nil, nil, err
	}
	defer it.Close()
	if !it.Last() {
		return nil, nil, ErrNotFound
	}
	return stripPrefix(it.Key()), cloneBytes(it.Value()), nil
}

func (e *PebbleEngine) PrevKeyValueBackFrom(cf ColumnFamily, key []byte) (foundKey, value []byte, err error) {
	p := cfPrefixes[cf]
	lower := []byte{p}
	// Bound the iterator just past `key` (exclusive upper bound of
	// key||0x00) and take its last entry, so an exact match on `key`
	// itself is included.
	upper := append(prefixedKey(cf, key), 0x00)
	it, err := e.db.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return nil, nil, err
	}
	defer it.Close()
	if !it.Last() {
		return nil, nil, ErrNotFound
	}
	return stripPrefix(it.Key()), cloneBytes(it.Value()), nil
}

func (e *PebbleEngine) RangeIter(cf ColumnFamily, start, end []byte) (Iterator, error) {
	lower, upper := e.bounds(cf, start, end)
	it, err := e.db.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return nil, err
	}
	return &pebbleIterator{it: it, forward: true, started: false}, nil
}

func (e *PebbleEngine) ReverseRangeIter(cf ColumnFamily, start, end []byte) (Iterator, error) {
	lower, upper := e.bounds(cf, start, end)
	it, err := e.db.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return nil, err
	}
	return &pebbleIterator{it: it, forward: false, started: false}, nil
}

func (e *PebbleEngine) ItemsInRangeUnordered(cf ColumnFamily, start, end []byte) (map[string][]byte, error) {
	it, err := e.RangeIter(cf, start, end)
	if err != nil {
		return nil, err
	}
	defer it.Release()
	out := make(map[string][]byte)
	for it.Next() {
		out[string(it.Key())] = append([]byte(nil), it.Value()...)
	}
	return out, nil
}

func (e *PebbleEngine) Batch() Batch {
	return &pebbleBatch{batch: e.db.NewBatch()}
}

func (e *PebbleEngine) Close() error {
	return e.db.Close()
}

func stripPrefix(key []byte) []byte {
	if len(key) == 0 {
		return key
	}
	return append([]byte(nil), key[1:]...)
}

func cloneBytes(b []byte) []byte {
	return append([]byte(nil), b...)
}

// --- iterator ---

type pebbleIterator struct {
	it      *pebble.Iterator
	forward bool
	started bool
}

func (p *pebbleIterator) Next() bool {
	if !p.started {
		p.started = true
		if p.forward {
			return p.it.First()
		}
		return p.it.Last()
	}
	if p.forward {
		return p.it.Next()
	}
	return p.it.Prev()
}

func (p *pebbleIterator) Key() []byte   { return stripPrefix(p.it.Key()) }
func (p *pebbleIterator) Value() []byte { return cloneBytes(p.it.Value()) }
func (p *pebbleIterator) Release()      { _ = p.it.Close() }

// --- batch ---

type pebbleBatch struct {
	batch *pebble.Batch
}

func (b *pebbleBatch) Insert(cf ColumnFamily, key, value []byte) {
	_ = b.batch.Set(prefixedKey(cf, key), value, nil)
}

func (b *pebbleBatch) Delete(cf ColumnFamily, key []byte) {
	_ = b.batch.Delete(prefixedKey(cf, key), nil)
}

func (b *pebbleBatch) DeleteRange(cf ColumnFamily, start, end []byte) {
	p := cfPrefixes[cf]
	lower := prefixedKey(cf, start)
	var upper []byte
	if end != nil {
		upper = prefixedKey(cf, end)
	} else {
		upper = prefixUpperBound(p)
	}
	_ = b.batch.DeleteRange(lower, upper, nil)
}

func (b *pebbleBatch) Commit() error {
	return b.batch.Commit(pebble.Sync)
}
