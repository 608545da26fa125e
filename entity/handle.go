package entity

import "reflect"

// AnyHandle is a type-erased owning reference to a stored value. While at
// least one strong handle for a key exists, the key's count stays positive
// and its slot cannot be reclaimed.
//
// Go has no destructors, so ownership is explicit: every handle produced by
// Insert, Clone, or a successful Upgrade must be ended with exactly one
// Release call. Copying the struct by assignment does not create ownership.
// After the owning Store is closed, Clone and Release become no-ops.
type AnyHandle struct {
	key        Key
	entityType reflect.Type
	counts     *refCounts
}

// Key returns the generational key this handle refers to.
func (h AnyHandle) Key() Key {
	return h.key
}

// Type returns the concrete type of the referenced value.
func (h AnyHandle) Type() reflect.Type {
	return h.entityType
}

// Clone returns a new owning handle for the same key, incrementing its count.
func (h AnyHandle) Clone() AnyHandle {
	h.counts.increment(h.key)
	return h
}

// Release ends this handle's ownership. When the count reaches zero the key
// is queued for reclamation, but the value stays in place until the host
// calls Store.TakeDropped.
func (h AnyHandle) Release() {
	h.counts.decrement(h.key)
}

// Downgrade returns a weak handle for the same key without contributing
// ownership.
func (h AnyHandle) Downgrade() AnyWeakHandle {
	return AnyWeakHandle{key: h.key, entityType: h.entityType, counts: h.counts}
}

// Handle is the typed strong handle. It narrows the erased type tag to T
// once at construction, so value access needs no further checks.
type Handle[T any] struct {
	any AnyHandle
}

// Key returns the generational key this handle refers to.
func (h Handle[T]) Key() Key {
	return h.any.key
}

// Any widens the handle back to its type-erased form. The result shares
// ownership semantics with h; it is not an additional handle.
func (h Handle[T]) Any() AnyHandle {
	return h.any
}

// Clone returns a new owning handle for the same key.
func (h Handle[T]) Clone() Handle[T] {
	return Handle[T]{any: h.any.Clone()}
}

// Release ends this handle's ownership.
func (h Handle[T]) Release() {
	h.any.Release()
}

// Downgrade returns a weak handle for the same key.
func (h Handle[T]) Downgrade() WeakHandle[T] {
	return WeakHandle[T]{any: h.any.Downgrade()}
}

// Downcast narrows a type-erased handle back to Handle[T]. It fails when the
// handle's type tag is not exactly T.
func Downcast[T any](h AnyHandle) (Handle[T], bool) {
	if h.entityType != reflect.TypeOf((*T)(nil)).Elem() {
		return Handle[T]{}, false
	}
	return Handle[T]{any: h}, true
}

// AnyWeakHandle is a type-erased non-owning reference. It may outlive the
// value it refers to; Upgrade reports whether the value is still alive.
type AnyWeakHandle struct {
	key        Key
	entityType reflect.Type
	counts     *refCounts
}

// Key returns the generational key this handle refers to.
func (w AnyWeakHandle) Key() Key {
	return w.key
}

// Type returns the concrete type of the referenced value.
func (w AnyWeakHandle) Type() reflect.Type {
	return w.entityType
}

// Upgrade attempts to mint a strong handle. It fails, without panicking,
// once the count has reached zero, even if the sweep that physically
// reclaims the value has not run yet. A handle obtained this way is
// indistinguishable from any other strong handle.
func (w AnyWeakHandle) Upgrade() (AnyHandle, bool) {
	if !w.counts.tryIncrementIfPositive(w.key) {
		return AnyHandle{}, false
	}
	return AnyHandle{key: w.key, entityType: w.entityType, counts: w.counts}, true
}

// WeakHandle is the typed weak handle.
type WeakHandle[T any] struct {
	any AnyWeakHandle
}

// Key returns the generational key this handle refers to.
func (w WeakHandle[T]) Key() Key {
	return w.any.key
}

// Any widens the weak handle back to its type-erased form.
func (w WeakHandle[T]) Any() AnyWeakHandle {
	return w.any
}

// Upgrade attempts to mint a typed strong handle.
func (w WeakHandle[T]) Upgrade() (Handle[T], bool) {
	strong, ok := w.any.Upgrade()
	if !ok {
		return Handle[T]{}, false
	}
	return Handle[T]{any: strong}, true
}

// DowncastWeak narrows a type-erased weak handle to WeakHandle[T].
func DowncastWeak[T any](w AnyWeakHandle) (WeakHandle[T], bool) {
	if w.entityType != reflect.TypeOf((*T)(nil)).Elem() {
		return WeakHandle[T]{}, false
	}
	return WeakHandle[T]{any: w}, true
}
