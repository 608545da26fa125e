package entity

import "fmt"

// Lease wraps a value checked out of the store for exclusive mutation, plus
// the key it was removed from. While the lease is outstanding the store
// holds no value for that key; exactly one caller is mutating it.
//
// Every lease must be returned with End. A lease that is abandoned instead
// surfaces as an "already leased" panic at the key's next Read or Lease.
type Lease[T any] struct {
	value  *T
	handle Handle[T]
	ended  bool
}

// Key returns the key the value was checked out from.
func (l *Lease[T]) Key() Key {
	return l.handle.any.key
}

// Value returns the checked-out value for in-place mutation.
func (l *Lease[T]) Value() *T {
	if l.ended {
		panic(fmt.Sprintf("entity: %v lease used after End", l.handle.any.entityType))
	}
	return l.value
}

// End reinserts the value into the store at its key. Ending a lease twice
// panics, as does ending a lease whose slot was already retired (the key was
// swept while the value was checked out).
func (l *Lease[T]) End(s *Store) {
	if l.ended {
		panic(fmt.Sprintf("entity: %v lease ended twice", l.handle.any.entityType))
	}
	s.checkStore(l.handle.any)
	if _, ok := s.leased.Get(l.handle.any.key); !ok {
		panic(fmt.Sprintf("entity: cannot end %v lease for %v: slot already reclaimed",
			l.handle.any.entityType, l.handle.any.key))
	}
	l.ended = true
	s.leased.Del(l.handle.any.key)
	s.entities.Put(l.handle.any.key, l.value)
	s.leases--
}
