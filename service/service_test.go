package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/str4d/zebra/encoding"
	"github.com/str4d/zebra/errs"
	"github.com/str4d/zebra/kv"
	"github.com/str4d/zebra/state"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	fs, err := state.OpenWithEngine(kv.NewMemoryEngine())
	if err != nil {
		t.Fatalf("OpenWithEngine: %v", err)
	}
	t.Cleanup(func() { _ = fs.Close() })
	return New(fs)
}

func commitBlock(t *testing.T, s *Service, height encoding.Height, seed byte) encoding.BlockHash {
	t.Helper()
	var hash encoding.BlockHash
	hash[0] = seed
	ctx := context.Background()
	ticket, err := s.ReadyWrite(ctx)
	if err != nil {
		t.Fatalf("ReadyWrite: %v", err)
	}
	resp, err := ticket.Call(AddBlock{Block: &state.PreparedBlock{
		Height: height,
		Hash:   hash,
		Block:  []byte{seed},
	}})
	if err != nil {
		t.Fatalf("Call(AddBlock): %v", err)
	}
	if _, ok := resp.(Committed); !ok {
		t.Fatalf("expected Committed response, got %T", resp)
	}
	return hash
}

func TestAddBlockThenReadBack(t *testing.T) {
	s := newTestService(t)
	hash := commitBlock(t, s, 0, 1)

	resp, err := s.Call(GetBlockByHash{Hash: hash})
	if err != nil {
		t.Fatalf("Call(GetBlockByHash): %v", err)
	}
	if br, ok := resp.(BlockResponse); !ok || len(br.Block) != 1 || br.Block[0] != 1 {
		t.Fatalf("unexpected response %#v", resp)
	}

	tipResp, err := s.Call(GetTip{})
	if err != nil {
		t.Fatalf("Call(GetTip): %v", err)
	}
	tr := tipResp.(TipResponse)
	if tr.Height != 0 || tr.Hash != hash {
		t.Fatalf("unexpected tip %#v", tr)
	}
}

func TestGetBlockByHashNotFound(t *testing.T) {
	s := newTestService(t)
	var missing encoding.BlockHash
	missing[0] = 0xff
	_, err := s.Call(GetBlockByHash{Hash: missing})
	if !errs.Is(err, errs.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestGetDepthNotFoundReturnsFoundFalse(t *testing.T) {
	s := newTestService(t)

	var missing encoding.BlockHash
	missing[0] = 0xff
	resp, err := s.Call(GetDepth{Hash: missing})
	if err != nil {
		t.Fatalf("Call(GetDepth) on empty store: %v", err)
	}
	if dr, ok := resp.(DepthResponse); !ok || dr.Found {
		t.Fatalf("unexpected response %#v, want Found=false", resp)
	}

	hash := commitBlock(t, s, 0, 1)
	resp, err = s.Call(GetDepth{Hash: missing})
	if err != nil {
		t.Fatalf("Call(GetDepth) for unindexed hash: %v", err)
	}
	if dr, ok := resp.(DepthResponse); !ok || dr.Found {
		t.Fatalf("unexpected response %#v, want Found=false", resp)
	}

	resp, err = s.Call(GetDepth{Hash: hash})
	if err != nil {
		t.Fatalf("Call(GetDepth) for indexed hash: %v", err)
	}
	if dr, ok := resp.(DepthResponse); !ok || !dr.Found || dr.Depth != 0 {
		t.Fatalf("unexpected response %#v, want Found=true, Depth=0", resp)
	}
}

func TestWriteSlotSerializesWriters(t *testing.T) {
	s := newTestService(t)
	commitBlock(t, s, 0, 1)

	ctx := context.Background()
	ticket, err := s.ReadyWrite(ctx)
	if err != nil {
		t.Fatalf("ReadyWrite: %v", err)
	}

	second := make(chan error, 1)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		t2, err := s.ReadyWrite(ctx)
		if err != nil {
			second <- err
			return
		}
		_, err = t2.Call(AddBlock{Block: &state.PreparedBlock{Height: 2, Block: []byte{3}}})
		second <- err
	}()

	// Give the goroutine a chance to block on the held slot.
	time.Sleep(20 * time.Millisecond)
	select {
	case err := <-second:
		t.Fatalf("second writer completed before the first released the slot: %v", err)
	default:
	}

	if _, err := ticket.Call(AddBlock{Block: &state.PreparedBlock{Height: 1, Block: []byte{2}}}); err != nil {
		t.Fatalf("first writer Call: %v", err)
	}
	wg.Wait()
}

func TestRollbackThroughService(t *testing.T) {
	s := newTestService(t)
	commitBlock(t, s, 0, 1)
	commitBlock(t, s, 1, 2)

	ctx := context.Background()
	ticket, err := s.ReadyWrite(ctx)
	if err != nil {
		t.Fatalf("ReadyWrite: %v", err)
	}
	resp, err := ticket.Call(RollbackTo{Target: 0})
	if err != nil {
		t.Fatalf("Call(RollbackTo): %v", err)
	}
	if rb, ok := resp.(RolledBack); !ok || rb.Target != 0 {
		t.Fatalf("unexpected response %#v", resp)
	}

	tipResp, err := s.Call(GetTip{})
	if err != nil {
		t.Fatalf("Call(GetTip): %v", err)
	}
	if tipResp.(TipResponse).Height != 0 {
		t.Fatalf("expected tip height 0 after rollback, got %#v", tipResp)
	}
}
