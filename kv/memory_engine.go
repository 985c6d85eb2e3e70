package kv

import (
	"bytes"
	"sort"
	"sync"
)

// MemoryEngine is an in-memory Engine, safe for concurrent use. It
// backs the finalized state store's tests so they don't need a real
// Pebble instance on disk.
type MemoryEngine struct {
	mu   sync.RWMutex
	data map[ColumnFamily]map[string][]byte
}

// NewMemoryEngine creates an empty in-memory engine with every
// column family pre-created.
func NewMemoryEngine() *MemoryEngine {
	m := &MemoryEngine{data: make(map[ColumnFamily]map[string][]byte, len(allColumns))}
	for _, cf := range allColumns {
		m.data[cf] = make(map[string][]byte)
	}
	return m
}

func (m *MemoryEngine) cf(name ColumnFamily) map[string][]byte {
	b, ok := m.data[name]
	if !ok {
		b = make(map[string][]byte)
		m.data[name] = b
	}
	return b
}

func (m *MemoryEngine) Get(cf ColumnFamily, key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	val, ok := m.cf(cf)[string(key)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(val))
	copy(cp, val)
	return cp, nil
}

func (m *MemoryEngine) Has(cf ColumnFamily, key []byte) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.cf(cf)[string(key)]
	return ok, nil
}

func (m *MemoryEngine) sortedKeys(cf ColumnFamily, start, end []byte) []string {
	bucket := m.cf(cf)
	keys := make([]string, 0, len(bucket))
	for k := range bucket {
		kb := []byte(k)
		if start != nil && bytes.Compare(kb, start) < 0 {
			continue
		}
		if end != nil && bytes.Compare(kb, end) >= 0 {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m *MemoryEngine) LastKeyValue(cfName ColumnFamily) (key, value []byte, err error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := m.sortedKeys(cfName, nil, nil)
	if len(keys) == 0 {
		return nil, nil, ErrNotFound
	}
	last := keys[len(keys)-1]
	return []byte(last), append([]byte(nil), m.cf(cfName)[last]...), nil
}

func (m *MemoryEngine) PrevKeyValueBackFrom(cfName ColumnFamily, key []byte) (foundKey, value []byte, err error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	bucket := m.cf(cfName)
	keys := make([]string, 0, len(bucket))
	for k := range bucket {
		if bytes.Compare([]byte(k), key) <= 0 {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil, nil, ErrNotFound
	}
	sort.Strings(keys)
	last := keys[len(keys)-1]
	return []byte(last), append([]byte(nil), bucket[last]...), nil
}

func (m *MemoryEngine) RangeIter(cfName ColumnFamily, start, end []byte) (Iterator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := m.sortedKeys(cfName, start, end)
	return newMemoryIterator(m.cf(cfName), keys, false), nil
}

func (m *MemoryEngine) ReverseRangeIter(cfName ColumnFamily, start, end []byte) (Iterator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := m.sortedKeys(cfName, start, end)
	return newMemoryIterator(m.cf(cfName), keys, true), nil
}

func (m *MemoryEngine) ItemsInRangeUnordered(cfName ColumnFamily, start, end []byte) (map[string][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	bucket := m.cf(cfName)
	out := make(map[string][]byte)
	for _, k := range m.sortedKeys(cfName, start, end) {
		out[k] = append([]byte(nil), bucket[k]...)
	}
	return out, nil
}

func (m *MemoryEngine) Batch() Batch {
	return &memoryBatch{engine: m}
}

func (m *MemoryEngine) Close() error { return nil }

// --- iterator ---

type memoryIterator struct {
	bucket  map[string][]byte
	keys    []string
	pos     int
	reverse bool
}

func newMemoryIterator(bucket map[string][]byte, keys []string, reverse bool) *memoryIterator {
	if reverse {
		for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
			keys[i], keys[j] = keys[j], keys[i]
		}
	}
	// Snapshot the entries now, while the caller holds the read lock, so
	// iteration never reads the live map a later Commit may be writing.
	snap := make(map[string][]byte, len(keys))
	for _, k := range keys {
		snap[k] = bucket[k]
	}
	return &memoryIterator{bucket: snap, keys: keys, pos: -1, reverse: reverse}
}

func (it *memoryIterator) Next() bool {
	it.pos++
	return it.pos < len(it.keys)
}

func (it *memoryIterator) Key() []byte {
	if it.pos < 0 || it.pos >= len(it.keys) {
		return nil
	}
	return []byte(it.keys[it.pos])
}

func (it *memoryIterator) Value() []byte {
	if it.pos < 0 || it.pos >= len(it.keys) {
		return nil
	}
	return it.bucket[it.keys[it.pos]]
}

func (it *memoryIterator) Release() {}

// --- batch ---

type memoryBatchOp struct {
	cf          ColumnFamily
	key         []byte
	value       []byte
	deleteRange bool
	rangeEnd    []byte
	delete      bool
}

// memoryBatch buffers Insert/Delete/DeleteRange operations and applies
// them atomically under the engine's write lock on Commit.
type memoryBatch struct {
	engine *MemoryEngine
	ops    []memoryBatchOp
}

func (b *memoryBatch) Insert(cf ColumnFamily, key, value []byte) {
	b.ops = append(b.ops, memoryBatchOp{
		cf:    cf,
		key:   append([]byte(nil), key...),
		value: append([]byte(nil), value...),
	})
}

func (b *memoryBatch) Delete(cf ColumnFamily, key []byte) {
	b.ops = append(b.ops, memoryBatchOp{cf: cf, key: append([]byte(nil), key...), delete: true})
}

func (b *memoryBatch) DeleteRange(cf ColumnFamily, start, end []byte) {
	b.ops = append(b.ops, memoryBatchOp{
		cf:          cf,
		key:         append([]byte(nil), start...),
		rangeEnd:    append([]byte(nil), end...),
		deleteRange: true,
	})
}

func (b *memoryBatch) Commit() error {
	b.engine.mu.Lock()
	defer b.engine.mu.Unlock()

	for _, op := range b.ops {
		bucket := b.engine.cf(op.cf)
		switch {
		case op.deleteRange:
			for k := range bucket {
				kb := []byte(k)
				if bytes.Compare(kb, op.key) < 0 {
					continue
				}
				// A nil/empty rangeEnd means "no upper bound", mirroring
				// sortedKeys' own end != nil guard above: DeleteRange(cf,
				// start, nil) must delete everything from start onward.
				if len(op.rangeEnd) > 0 && bytes.Compare(kb, op.rangeEnd) >= 0 {
					continue
				}
				delete(bucket, k)
			}
		case op.delete:
			delete(bucket, string(op.key))
		default:
			bucket[string(op.key)] = op.value
		}
	}
	return nil
}
