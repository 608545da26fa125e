package entity

import "fmt"

// Key identifies a logical slot in the arena. It encodes the slot's
// generation (upper 32 bits) and physical slot index (lower 32 bits), so a
// Key held across reuse of the same physical slot compares unequal to the
// slot's new occupant.
type Key uint64

// NewKey creates a Key from a slot index and generation.
func NewKey(index uint32, generation uint32) Key {
	return Key(uint64(generation)<<32 | uint64(index))
}

// KeyFromRaw reinterprets a raw integer (as produced by Raw) as a Key.
func KeyFromRaw(raw uint64) Key {
	return Key(raw)
}

// Index extracts the physical slot index from the key.
func (k Key) Index() uint32 {
	return uint32(k & 0xFFFFFFFF)
}

// Generation extracts the generation counter from the key.
func (k Key) Generation() uint32 {
	return uint32(k >> 32)
}

// Raw returns the packed integer form for interop with external indices.
func (k Key) Raw() uint64 {
	return uint64(k)
}

// IsZero reports whether the key is the zero value. Generations start at 1,
// so a zero Key never denotes a live allocation.
func (k Key) IsZero() bool {
	return k == 0
}

// String renders the key for debugging purposes.
func (k Key) String() string {
	return fmt.Sprintf("Key(%d:%d)", k.Index(), k.Generation())
}
