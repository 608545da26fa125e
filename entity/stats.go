package entity

// Stats provides a point-in-time snapshot of arena occupancy.
type Stats struct {
	// Live is the number of slots whose count is still positive.
	Live int
	// PendingDrop is the number of keys queued for the next sweep.
	PendingDrop int
	// Leases is the number of outstanding leases.
	Leases int
	// Touched is the number of keys in the touched set.
	Touched int
	// TotalReserved is the number of keys ever reserved.
	TotalReserved int64
}

// CollectStats gathers current statistics for the store. Like value access,
// the lease and touched figures are only meaningful from the owner context.
func (s *Store) CollectStats() Stats {
	live, pending, total := s.counts.stats()
	touched := 0
	for _, key := range s.touchedOrder {
		if _, ok := s.touched.Get(key); ok {
			touched++
		}
	}
	return Stats{
		Live:          live,
		PendingDrop:   pending,
		Leases:        s.leases,
		Touched:       touched,
		TotalReserved: total,
	}
}
