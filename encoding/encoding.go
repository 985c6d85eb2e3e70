// Package encoding defines the canonical, on-disk-stable byte
// encodings for every key and value persisted by the finalized state
// store: block heights, subtree indexes, block hashes, and the
// database format version sidecar.
//
// Numeric keys are always big-endian, so lexicographic byte order
// over the key-value engine matches numeric order, the property the
// Finalized State Store relies on for tip lookup, dedup-by-prev-key,
// and range iteration.
package encoding

import (
	"encoding/binary"
	"errors"
)

// ErrMalformedKey is returned when a stored key does not decode to
// the expected fixed width. It indicates database corruption or a
// format-version mismatch and should be surfaced as a FormatError by
// callers.
var ErrMalformedKey = errors.New("encoding: malformed key")

// Height is a block height, encoded as 4 bytes big-endian so that
// byte order over the by_height and the Sapling/Orchard note
// commitment tree columns matches numeric order.
type Height uint32

// Bytes returns the 4-byte big-endian encoding of h.
func (h Height) Bytes() []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(h))
	return buf
}

// ParseHeight decodes a 4-byte big-endian height.
func ParseHeight(b []byte) (Height, error) {
	if len(b) != 4 {
		return 0, ErrMalformedKey
	}
	return Height(binary.BigEndian.Uint32(b)), nil
}

// SubtreeIndex identifies a completed 2^16-leaf segment of a note
// commitment tree, encoded as 2 bytes big-endian.
type SubtreeIndex uint16

// Bytes returns the 2-byte big-endian encoding of i.
func (i SubtreeIndex) Bytes() []byte {
	buf := make([]byte, 2)
	binary.BigEndian.PutUint16(buf, uint16(i))
	return buf
}

// ParseSubtreeIndex decodes a 2-byte big-endian subtree index.
func ParseSubtreeIndex(b []byte) (SubtreeIndex, error) {
	if len(b) != 2 {
		return 0, ErrMalformedKey
	}
	return SubtreeIndex(binary.BigEndian.Uint16(b)), nil
}

// HashLength is the width, in bytes, of a block hash.
const HashLength = 32

// BlockHash is a 32-byte block hash, stored unmodified as a key.
type BlockHash [HashLength]byte

// Bytes returns the raw 32 bytes of h.
func (h BlockHash) Bytes() []byte { return h[:] }

// BytesToBlockHash copies b (which must be exactly HashLength bytes)
// into a BlockHash.
func BytesToBlockHash(b []byte) (BlockHash, error) {
	var h BlockHash
	if len(b) != HashLength {
		return h, ErrMalformedKey
	}
	copy(h[:], b)
	return h, nil
}

// IsZero reports whether h is the all-zero hash.
func (h BlockHash) IsZero() bool { return h == BlockHash{} }

// DatabaseFormatVersion is the current on-disk schema version. It
// MUST be incremented whenever any column's key or value encoding
// changes, including additions of new columns that change the
// layout meaning of existing data.
const DatabaseFormatVersion uint32 = 1

// FormatVersionKey is the key under which the format version sidecar
// record is stored in the meta column family.
var FormatVersionKey = []byte("format_version")

// EncodeFormatVersion encodes the format version for storage.
func EncodeFormatVersion(v uint32) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, v)
	return buf
}

// DecodeFormatVersion decodes a stored format version.
func DecodeFormatVersion(b []byte) (uint32, error) {
	if len(b) != 4 {
		return 0, ErrMalformedKey
	}
	return binary.BigEndian.Uint32(b), nil
}
