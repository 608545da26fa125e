package entity

import "fmt"

// Slot is a two-phase creation token: the key exists, the value does not
// yet. The slot holds the initial strong handle from Reserve, so the key
// cannot reach a zero count before Insert runs.
type Slot[T any] struct {
	handle   Handle[T]
	consumed bool
}

// Key returns the key reserved for this slot.
func (slot *Slot[T]) Key() Key {
	return slot.handle.any.key
}

// Handle returns the strong handle held by the reservation. It is useful for
// wiring a value's own identity (or a weak handle to it) into the value
// before Insert runs. Releasing it abandons the reservation.
func (slot *Slot[T]) Handle() Handle[T] {
	return slot.handle
}

// Insert moves value into the store at the slot's key, marks the key
// touched, and returns the owning handle held since Reserve. A Slot is
// consumed exactly once; a second Insert panics.
func (slot *Slot[T]) Insert(s *Store, value T) Handle[T] {
	if slot.consumed {
		panic(fmt.Sprintf("entity: slot for %v inserted twice", slot.handle.any.entityType))
	}
	slot.consumed = true

	h := slot.handle
	s.checkStore(h.any)
	s.entities.Put(h.any.key, &value)
	s.markTouched(h.any.key)
	return h
}
