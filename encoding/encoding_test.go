package encoding

import "testing"

func TestHeightRoundTrip(t *testing.T) {
	for _, h := range []Height{0, 1, 488, 1000, 0xffffffff} {
		got, err := ParseHeight(h.Bytes())
		if err != nil {
			t.Fatalf("ParseHeight(%d): %v", h, err)
		}
		if got != h {
			t.Fatalf("round trip mismatch: want %d got %d", h, got)
		}
	}
}

func TestHeightOrderingMatchesByteOrdering(t *testing.T) {
	lo, hi := Height(5).Bytes(), Height(6).Bytes()
	if !lessBytes(lo, hi) {
		t.Fatalf("expected height 5 bytes < height 6 bytes lexicographically")
	}
}

func lessBytes(a, b []byte) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

func TestSubtreeIndexRoundTrip(t *testing.T) {
	for _, i := range []SubtreeIndex{0, 1, 3, 65535} {
		got, err := ParseSubtreeIndex(i.Bytes())
		if err != nil {
			t.Fatalf("ParseSubtreeIndex(%d): %v", i, err)
		}
		if got != i {
			t.Fatalf("round trip mismatch: want %d got %d", i, got)
		}
	}
}

func TestBlockHashRoundTrip(t *testing.T) {
	raw := make([]byte, HashLength)
	for i := range raw {
		raw[i] = byte(i)
	}
	h, err := BytesToBlockHash(raw)
	if err != nil {
		t.Fatalf("BytesToBlockHash: %v", err)
	}
	if string(h.Bytes()) != string(raw) {
		t.Fatalf("round trip mismatch")
	}
}

func TestBlockHashWrongLength(t *testing.T) {
	if _, err := BytesToBlockHash([]byte{1, 2, 3}); err != ErrMalformedKey {
		t.Fatalf("expected ErrMalformedKey, got %v", err)
	}
}

func TestFormatVersionRoundTrip(t *testing.T) {
	v, err := DecodeFormatVersion(EncodeFormatVersion(DatabaseFormatVersion))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v != DatabaseFormatVersion {
		t.Fatalf("want %d got %d", DatabaseFormatVersion, v)
	}
}
