package state

import (
	"testing"

	"github.com/str4d/zebra/encoding"
	"github.com/str4d/zebra/errs"
	"github.com/str4d/zebra/kv"
)

func TestEmptyStoreHasNoTip(t *testing.T) {
	fs := newTestState(t)
	if _, ok := fs.TipHeight(); ok {
		t.Fatal("expected no tip height in an empty store")
	}
	if _, err := fs.Tip(); !errs.Is(err, errs.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestEmptyStoreBlockLocatorIsGenesis(t *testing.T) {
	fs := newTestState(t)
	genesis := testHash(0xaa)
	locator, err := fs.BlockLocator(genesis)
	if err != nil {
		t.Fatalf("BlockLocator: %v", err)
	}
	if len(locator) != 1 || locator[0] != genesis {
		t.Fatalf("expected [genesis], got %v", locator)
	}
}

func TestReopenPreservesFormatVersion(t *testing.T) {
	fs := newTestState(t)
	// Re-running the format check against the same engine must be a
	// no-op, not a re-stamp that could race a concurrent reader.
	if err := checkFormatVersion(fs.engine); err != nil {
		t.Fatalf("second checkFormatVersion: %v", err)
	}
}

func TestFormatVersionMismatchIsFormatError(t *testing.T) {
	engine := kv.NewMemoryEngine()
	b := engine.Batch()
	b.Insert(kv.ColumnMeta, encoding.FormatVersionKey, encoding.EncodeFormatVersion(encoding.DatabaseFormatVersion+1))
	if err := b.Commit(); err != nil {
		t.Fatalf("stamping stale version: %v", err)
	}
	if _, err := OpenWithEngine(engine); !errs.Is(err, errs.FormatError) {
		t.Fatalf("expected FormatError, got %v", err)
	}
}
