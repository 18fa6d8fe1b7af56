// Package ident derives deterministic 128-bit identifiers for entities
// from their identity-relevant content.
//
// The same logical content, scraped independently by different sources,
// hashes to the same HashID before any merge pass runs. Identifiers are
// UUID v5 values, so recomputing the hash for the same content yields the
// same id on any machine and in any process.
//
// The most significant bit of byte 0 is the mutability tag: set (1) for a
// fresh, content-derived row; cleared (0) once the row's identity has been
// assigned by the merge engine. The two row populations are therefore
// distinguishable by a single fixed bit.
package ident

import (
	"bytes"

	"github.com/google/uuid"
)

// tagBit marks content-derived identifiers. It occupies the most
// significant bit of the first byte, so tagged ids always sort after
// untagged ones.
const tagBit = 0x80

// HashID is a 128-bit entity identifier stored as a fixed-width binary
// value (UUID column) in the database.
type HashID [16]byte

// FromUUID converts a UUID into a HashID without touching the tag bit.
func FromUUID(u uuid.UUID) HashID {
	return HashID(u)
}

// Parse reads a HashID from its canonical UUID text form.
func Parse(s string) (HashID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return HashID{}, err
	}
	return HashID(u), nil
}

// String returns the canonical UUID text form.
func (h HashID) String() string {
	return uuid.UUID(h).String()
}

// UUID returns the identifier as a uuid.UUID.
func (h HashID) UUID() uuid.UUID {
	return uuid.UUID(h)
}

// Bytes returns the identifier as a 16-byte slice.
func (h HashID) Bytes() []byte {
	b := make([]byte, 16)
	copy(b, h[:])
	return b
}

// IsZero reports whether the identifier is the zero value.
func (h HashID) IsZero() bool {
	return h == HashID{}
}

// ContentDerived reports whether the mutability tag is set, meaning the
// identifier was computed from entity content and has not yet been
// reassigned by a merge.
func (h HashID) ContentDerived() bool {
	return h[0]&tagBit != 0
}

// Tagged returns a copy with the mutability tag set.
func (h HashID) Tagged() HashID {
	h[0] |= tagBit
	return h
}

// Untagged returns a copy with the mutability tag cleared. The merge
// engine uses it to mark surviving rows as merge-assigned.
func (h HashID) Untagged() HashID {
	h[0] &^= tagBit
	return h
}

// Compare orders identifiers by their big-endian numeric value. It is the
// deterministic tie-break for merge ordering and the basis for
// surviving-id selection.
func (h HashID) Compare(other HashID) int {
	return bytes.Compare(h[:], other[:])
}

// Less reports whether h sorts before other.
func (h HashID) Less(other HashID) bool {
	return h.Compare(other) < 0
}

// Min returns the numerically smallest of the given identifiers.
// It panics on an empty slice.
func Min(ids []HashID) HashID {
	res := ids[0]
	for _, id := range ids[1:] {
		if id.Less(res) {
			res = id
		}
	}
	return res
}

// LockKey folds the identifier into an int64 advisory-lock key. Only the
// first 8 bytes participate; a truncation collision costs extra
// serialization on an unrelated id, never correctness.
func (h HashID) LockKey() int64 {
	var key int64
	for i := range 8 {
		key = key<<8 | int64(h[i])
	}
	return key
}
