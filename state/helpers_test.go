package state

import (
	"testing"

	"github.com/str4d/zebra/encoding"
	"github.com/str4d/zebra/kv"
)

func newTestState(t *testing.T) *FinalizedState {
	t.Helper()
	fs, err := OpenWithEngine(kv.NewMemoryEngine())
	if err != nil {
		t.Fatalf("OpenWithEngine: %v", err)
	}
	t.Cleanup(func() { _ = fs.Close() })
	return fs
}

func testHash(seed byte) encoding.BlockHash {
	var h encoding.BlockHash
	h[0] = seed
	h[31] = seed
	return h
}

func trivialBlock(seed byte, height encoding.Height) *PreparedBlock {
	return &PreparedBlock{
		Height: height,
		Hash:   testHash(seed),
		Block:  []byte{seed, seed, seed},
	}
}
