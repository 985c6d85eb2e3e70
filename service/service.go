package service

import (
	"context"

	"golang.org/x/sync/semaphore"

	"github.com/str4d/zebra/errs"
	"github.com/str4d/zebra/log"
	"github.com/str4d/zebra/state"
)

// Service is the request/response port in front of a FinalizedState.
// It holds exactly one write slot: at most one AddBlock or RollbackTo
// may be in flight at a time, enforced by writeSem rather than by an
// internal unbounded queue, so a caller that floods writes blocks in
// ReadyWrite instead of exhausting memory.
type Service struct {
	fs       *state.FinalizedState
	writeSem *semaphore.Weighted
	log      *log.Logger
}

// New wraps fs behind a Service.
func New(fs *state.FinalizedState) *Service {
	return &Service{
		fs:       fs,
		writeSem: semaphore.NewWeighted(1),
		log:      log.Default().Module("service"),
	}
}

// WriteTicket is acquired from ReadyWrite and redeemed exactly once
// via Call. It must not be retained past that call.
type WriteTicket struct {
	s *Service
}

// ReadyWrite blocks until the single write slot is free, or ctx is
// done. The returned ticket must be used for exactly one Call.
func (s *Service) ReadyWrite(ctx context.Context) (*WriteTicket, error) {
	if err := s.writeSem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return &WriteTicket{s: s}, nil
}

// Call submits one write Request, releasing the write slot when it
// returns regardless of outcome.
func (t *WriteTicket) Call(req Request) (Response, error) {
	defer t.s.writeSem.Release(1)
	switch r := req.(type) {
	case AddBlock:
		if err := t.s.fs.CommitBlock(r.Block); err != nil {
			return nil, err
		}
		return Committed{Height: r.Block.Height, Hash: r.Block.Hash}, nil
	case RollbackTo:
		if err := t.s.fs.Rollback(r.Target); err != nil {
			return nil, err
		}
		return RolledBack{Target: r.Target}, nil
	default:
		return nil, errs.Newf(errs.Invariant, "service: %T is not a write request", req)
	}
}

// Call answers one read Request. Reads never touch the write slot and
// may run concurrently with each other and with an in-flight write.
func (s *Service) Call(req Request) (Response, error) {
	switch r := req.(type) {
	case GetBlockByHash:
		b, err := s.fs.BlockByHash(r.Hash)
		if err != nil {
			return nil, err
		}
		return BlockResponse{Block: b}, nil

	case GetBlockByHeight:
		b, err := s.fs.BlockByHeight(r.Height)
		if err != nil {
			return nil, err
		}
		return BlockResponse{Block: b}, nil

	case GetTip:
		height, ok := s.fs.TipHeight()
		if !ok {
			return nil, errs.New(errs.NotFound, "service: store is empty, no tip")
		}
		hash, err := s.fs.Tip()
		if err != nil {
			return nil, err
		}
		return TipResponse{Height: height, Hash: hash}, nil

	case GetDepth:
		depth, ok := s.fs.Depth(r.Hash)
		return DepthResponse{Depth: depth, Found: ok}, nil

	case GetBlockLocator:
		hashes, err := s.fs.BlockLocator(r.Genesis)
		if err != nil {
			return nil, err
		}
		return BlockLocatorResponse{Hashes: hashes}, nil

	case GetSproutNullifier:
		found, err := s.fs.ContainsSproutNullifier(r.Nullifier)
		if err != nil {
			return nil, err
		}
		return NullifierResponse{Found: found}, nil

	case GetSaplingNullifier:
		found, err := s.fs.ContainsSaplingNullifier(r.Nullifier)
		if err != nil {
			return nil, err
		}
		return NullifierResponse{Found: found}, nil

	case GetOrchardNullifier:
		found, err := s.fs.ContainsOrchardNullifier(r.Nullifier)
		if err != nil {
			return nil, err
		}
		return NullifierResponse{Found: found}, nil

	case GetSaplingTree:
		tree, err := s.fs.SaplingTreeByHeight(r.Height)
		if err != nil {
			return nil, err
		}
		return TreeResponse{Tree: tree}, nil

	case GetOrchardTree:
		tree, err := s.fs.OrchardTreeByHeight(r.Height)
		if err != nil {
			return nil, err
		}
		return TreeResponse{Tree: tree}, nil

	case GetSubtreeListForRPC:
		var (
			entries []state.SubtreeEntry
			err     error
		)
		switch r.Pool {
		case PoolSapling:
			entries, err = s.fs.SaplingSubtreeListForRPC(r.Start, r.Limit)
		case PoolOrchard:
			entries, err = s.fs.OrchardSubtreeListForRPC(r.Start, r.Limit)
		default:
			err = errs.Newf(errs.Invariant, "service: unknown pool %d", r.Pool)
		}
		if err != nil {
			return nil, err
		}
		return SubtreeListResponse{Entries: entries}, nil

	default:
		return nil, errs.Newf(errs.Invariant, "service: %T is not a read request", req)
	}
}
