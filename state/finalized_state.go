package state

import (
	"os"

	"github.com/str4d/zebra/config"
	"github.com/str4d/zebra/encoding"
	"github.com/str4d/zebra/errs"
	"github.com/str4d/zebra/kv"
	"github.com/str4d/zebra/log"
)

// blockCacheBytes bounds the recently-committed-block cache by total
// cached block size rather than by entry count, since blocks vary
// widely in size and a count-based cap would let a run of large blocks
// use far more memory than a run of small ones.
const blockCacheBytes = 8 << 20 // 8 MiB

// FinalizedState is the combined finalized shielded state store and
// block index. It wraps a single kv.Engine: every committed block
// updates both halves in one atomic batch, so a reader never observes
// the block index and the shielded state disagreeing about the tip.
//
// Safe for concurrent use: many goroutines may read concurrently; the
// service package above this one is responsible for serializing
// writers (spec's single-slot write mailbox), not this type.
type FinalizedState struct {
	engine kv.Engine
	log    *log.Logger

	blockByHash *lruCache[encoding.BlockHash, []byte]
}

// Open opens (creating if necessary) the on-disk store described by
// cfg, validating cfg and the on-disk format version along the way.
func Open(cfg config.Config) (*FinalizedState, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.StateDir(), 0o755); err != nil {
		return nil, errs.Wrapf(errs.IoError, err, "state: creating state directory %s", cfg.StateDir())
	}
	engine, err := kv.OpenPebble(cfg.StateDir())
	if err != nil {
		return nil, errs.Wrapf(errs.IoError, err, "state: opening database at %s", cfg.StateDir())
	}
	return open(engine)
}

// OpenWithEngine wraps an already-open kv.Engine, most commonly a
// kv.MemoryEngine in tests that don't need a real on-disk database.
func OpenWithEngine(engine kv.Engine) (*FinalizedState, error) {
	return open(engine)
}

func open(engine kv.Engine) (*FinalizedState, error) {
	if err := checkFormatVersion(engine); err != nil {
		_ = engine.Close()
		return nil, err
	}
	return &FinalizedState{
		engine:      engine,
		log:         log.Default().Module("state"),
		blockByHash: newLRU[encoding.BlockHash, []byte](blockCacheBytes, func(block []byte) int64 { return int64(len(block)) }),
	}, nil
}

// checkFormatVersion reads the persisted format version sidecar. A
// fresh database has none yet and is stamped with the current
// version; an existing database with a different version is a fatal
// FormatError -- this store never attempts an in-place migration.
func checkFormatVersion(engine kv.Engine) error {
	raw, err := engine.Get(kv.ColumnMeta, encoding.FormatVersionKey)
	if err == kv.ErrNotFound {
		b := engine.Batch()
		b.Insert(kv.ColumnMeta, encoding.FormatVersionKey, encoding.EncodeFormatVersion(encoding.DatabaseFormatVersion))
		if err := b.Commit(); err != nil {
			return errs.Wrap(errs.IoError, err, "state: stamping format version")
		}
		return nil
	}
	if err != nil {
		return errs.Wrap(errs.IoError, err, "state: reading format version")
	}
	version, err := encoding.DecodeFormatVersion(raw)
	if err != nil {
		return errs.Wrap(errs.FormatError, err, "state: decoding format version")
	}
	if version != encoding.DatabaseFormatVersion {
		return errs.Newf(errs.FormatError,
			"state: on-disk format version %d does not match binary's version %d; no in-place migration is supported",
			version, encoding.DatabaseFormatVersion)
	}
	return nil
}

// Close releases the underlying engine.
func (fs *FinalizedState) Close() error {
	return fs.engine.Close()
}
