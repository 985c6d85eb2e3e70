// Package service exposes the finalized state store behind a
// request/response port: a tagged-union Request goes in, a matching
// Response or error comes out. Writes are serialized through a
// single-slot mailbox (ReadyWrite/Call), mirroring the reference
// implementation's tower::Service poll_ready/call split -- a caller
// must observe the write slot is free before it may submit a write,
// which is what makes the backpressure externally observable instead
// of an internal queue growing without bound. Reads carry no such
// restriction and may run concurrently with each other and with the
// in-flight write.
package service

import (
	"github.com/str4d/zebra/encoding"
	"github.com/str4d/zebra/state"
)

// Request is the sealed set of operations the port accepts. Each
// concrete type below implements it.
type Request interface{ isRequest() }

// Response is the sealed set of results the port returns.
type Response interface{ isResponse() }

// --- Write requests ---

// AddBlock submits a fully prepared block for atomic commit.
type AddBlock struct {
	Block *state.PreparedBlock
}

func (AddBlock) isRequest() {}

// RollbackTo submits a rollback to the given target height.
type RollbackTo struct {
	Target encoding.Height
}

func (RollbackTo) isRequest() {}

// Committed is returned after a successful AddBlock.
type Committed struct {
	Height encoding.Height
	Hash   encoding.BlockHash
}

func (Committed) isResponse() {}

// RolledBack is returned after a successful RollbackTo.
type RolledBack struct {
	Target encoding.Height
}

func (RolledBack) isResponse() {}

// --- Read requests ---

type GetBlockByHash struct{ Hash encoding.BlockHash }

func (GetBlockByHash) isRequest() {}

type GetBlockByHeight struct{ Height encoding.Height }

func (GetBlockByHeight) isRequest() {}

type GetTip struct{}

func (GetTip) isRequest() {}

type GetDepth struct{ Hash encoding.BlockHash }

func (GetDepth) isRequest() {}

type GetBlockLocator struct{ Genesis encoding.BlockHash }

func (GetBlockLocator) isRequest() {}

type GetSproutNullifier struct{ Nullifier []byte }

func (GetSproutNullifier) isRequest() {}

type GetSaplingNullifier struct{ Nullifier []byte }

func (GetSaplingNullifier) isRequest() {}

type GetOrchardNullifier struct{ Nullifier []byte }

func (GetOrchardNullifier) isRequest() {}

// GetSaplingTree retrieves the Sapling note commitment tree as of a height.
type GetSaplingTree struct{ Height encoding.Height }

func (GetSaplingTree) isRequest() {}

// GetOrchardTree retrieves the Orchard note commitment tree as of a height.
type GetOrchardTree struct{ Height encoding.Height }

func (GetOrchardTree) isRequest() {}

// GetSubtreeListForRPC serves z_getsubtreesbyindex-style RPCs: up to
// Limit completed subtrees for Pool starting at Start.
type GetSubtreeListForRPC struct {
	Pool  Pool
	Start encoding.SubtreeIndex
	Limit int
}

func (GetSubtreeListForRPC) isRequest() {}

// Pool names a shielded pool that produces subtree snapshots. Sprout
// is deliberately absent: it never produces subtree snapshots.
type Pool int

const (
	PoolSapling Pool = iota
	PoolOrchard
)

// --- Read responses ---

type BlockResponse struct{ Block []byte }

func (BlockResponse) isResponse() {}

type TipResponse struct {
	Height encoding.Height
	Hash   encoding.BlockHash
}

func (TipResponse) isResponse() {}

// DepthResponse answers GetDepth. Found is false when hash is not
// indexed or the store is empty, matching the reference service's
// Depth(Option<u32>) response -- unlike GetBlock/GetTip, an unknown
// depth is not an error.
type DepthResponse struct {
	Depth uint32
	Found bool
}

func (DepthResponse) isResponse() {}

type BlockLocatorResponse struct{ Hashes []encoding.BlockHash }

func (BlockLocatorResponse) isResponse() {}

type NullifierResponse struct{ Found bool }

func (NullifierResponse) isResponse() {}

type TreeResponse struct{ Tree []byte }

func (TreeResponse) isResponse() {}

type SubtreeListResponse struct{ Entries []state.SubtreeEntry }

func (SubtreeListResponse) isResponse() {}
