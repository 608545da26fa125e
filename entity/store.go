package entity

import (
	"fmt"
	"reflect"

	"github.com/kamstrup/intmap"
)

// Store is the arena proper: it owns the type-erased values, keyed by
// generational Key, and brokers access to them.
//
// Two access patterns are supported concurrently. Handle lifecycle
// (Clone/Release/Downgrade/Upgrade) is safe from any goroutine; correctness
// comes from the count table's atomics and lock. Value access (Insert, Read,
// Lease, TakeDropped, TakeTouched) must be driven from a single owner
// context; the value map is not locked.
//
// Reclamation is never automatic: a key whose count reaches zero is only
// queued. Values are extracted, and their slots retired, when the host calls
// TakeDropped (typically once per processed batch or frame), so teardown
// side effects run at a point the host chooses.
type Store struct {
	counts       *refCounts
	entities     *intmap.Map[Key, any]
	touched      *intmap.Map[Key, struct{}]
	leased       *intmap.Map[Key, reflect.Type]
	touchedOrder []Key
	leases       int
}

// NewStore creates an empty arena.
func NewStore() *Store {
	return &Store{
		counts:   newRefCounts(),
		entities: intmap.New[Key, any](256),
		touched:  intmap.New[Key, struct{}](64),
		leased:   intmap.New[Key, reflect.Type](16),
	}
}

// Reserve allocates a key for a value of type T without storing anything.
// The returned Slot must be consumed by Insert exactly once. Reserving
// before inserting gives constructors a stable identity to wire into the
// value they are still building.
func Reserve[T any](s *Store) (Slot[T], Key) {
	key := s.counts.reserve()
	handle := Handle[T]{any: AnyHandle{
		key:        key,
		entityType: reflect.TypeOf((*T)(nil)).Elem(),
		counts:     s.counts,
	}}
	return Slot[T]{handle: handle}, key
}

// Read returns the stored value for h. It panics when the key holds no
// value, which happens exactly when the value is checked out by an
// outstanding lease or was never inserted: reading mid-lease would alias the
// lease holder's mutation, so the misuse is surfaced here rather than later.
func (h Handle[T]) Read(s *Store) *T {
	s.checkStore(h.any)
	boxed, ok := s.entities.Get(h.any.key)
	if !ok {
		panic(fmt.Sprintf("entity: cannot read %v for %v: value is leased out or not yet inserted",
			h.any.entityType, h.any.key))
	}
	s.markTouched(h.any.key)
	return boxed.(*T)
}

// Lease checks the value out of the store for exclusive in-place mutation.
// While the lease is outstanding the store holds no value for the key, so a
// second Lease (or a Read) before End panics instead of blocking: contested
// access to a leased value is a caller bug, not a condition to wait out.
func (h Handle[T]) Lease(s *Store) *Lease[T] {
	s.checkStore(h.any)
	boxed, ok := s.entities.Get(h.any.key)
	if !ok {
		panic(fmt.Sprintf("entity: cannot lease %v for %v: already leased or not yet inserted",
			h.any.entityType, h.any.key))
	}
	s.entities.Del(h.any.key)
	s.leased.Put(h.any.key, h.any.entityType)
	s.markTouched(h.any.key)
	s.leases++
	return &Lease[T]{value: boxed.(*T), handle: h}
}

// Dropped is one reclaimed entry: the key and the extracted value, handed to
// the host for application-defined teardown. Value is a *T boxed as any; it
// is nil when the key was dropped before a value was ever inserted.
type Dropped struct {
	Key   Key
	Value any
}

// TakeDropped drains the keys whose count reached zero since the last sweep.
// Each drained key's value and touched-set entry are removed and its slot is
// retired, bumping the slot generation so stale keys cannot address the
// slot's next occupant. A second call with no intervening drops returns nil.
func (s *Store) TakeDropped() []Dropped {
	keys := s.counts.drainDropped()
	if len(keys) == 0 {
		return nil
	}
	dropped := make([]Dropped, 0, len(keys))
	for _, key := range keys {
		// A drained key must not be checked out: sweeping it would hand the
		// host a nil value and retire the slot underneath the lease. The
		// misuse is the drop of the last handle mid-lease, surfaced here at
		// the first operation that would act on it.
		if leasedType, ok := s.leased.Get(key); ok {
			panic(fmt.Sprintf("entity: cannot sweep %v: %v value is still leased out", key, leasedType))
		}
		value, _ := s.entities.Get(key)
		s.entities.Del(key)
		s.touched.Del(key)
		s.counts.release(key)
		dropped = append(dropped, Dropped{Key: key, Value: value})
	}
	return dropped
}

// TakeTouched returns the keys inserted, read, or leased since the last call
// and resets the set. Keys are returned in first-touch order. The arena only
// records membership; the host's change-detection layer decides what it
// means.
func (s *Store) TakeTouched() []Key {
	if len(s.touchedOrder) == 0 {
		return nil
	}
	keys := make([]Key, 0, len(s.touchedOrder))
	for _, key := range s.touchedOrder {
		// Skip keys swept out of the set since they were touched.
		if _, ok := s.touched.Get(key); ok {
			keys = append(keys, key)
		}
	}
	s.touchedOrder = s.touchedOrder[:0]
	s.touched.Clear()
	return keys
}

// RefCount returns the current strong-handle count for key, or 0 when the
// key is stale or already reclaimed.
func (s *Store) RefCount(key Key) int64 {
	return s.counts.load(key)
}

// Close tears the arena down. Outstanding handles become inert, meaning
// their Clone and Release calls stop adjusting counts, so shutdown order
// does not matter. Close runs no teardown for remaining values; call TakeDropped
// first if that matters.
func (s *Store) Close() {
	s.counts.close()
}

func (s *Store) markTouched(key Key) {
	if _, ok := s.touched.Get(key); ok {
		return
	}
	s.touched.Put(key, struct{}{})
	s.touchedOrder = append(s.touchedOrder, key)
}

// checkStore flags a handle minted by a different Store. The check is always
// on: it costs a pointer compare, and cross-store misuse would otherwise
// surface as a confusing missing-value panic far from the mistake.
func (s *Store) checkStore(h AnyHandle) {
	if h.counts != s.counts {
		panic(fmt.Sprintf("entity: %v handle used with a store it does not belong to", h.entityType))
	}
}
