package entity

import "testing"

func TestStoreStats(t *testing.T) {
	store := NewStore()

	stats := store.CollectStats()
	if stats.Live != 0 || stats.PendingDrop != 0 || stats.Leases != 0 {
		t.Errorf("expected empty stats, got %+v", stats)
	}

	slotA, _ := Reserve[int](store)
	handleA := slotA.Insert(store, 1)
	slotB, _ := Reserve[string](store)
	handleB := slotB.Insert(store, "two")

	stats = store.CollectStats()
	if stats.Live != 2 {
		t.Errorf("expected 2 live, got %d", stats.Live)
	}
	if stats.TotalReserved != 2 {
		t.Errorf("expected 2 reserved, got %d", stats.TotalReserved)
	}
	if stats.Touched != 2 {
		t.Errorf("expected 2 touched, got %d", stats.Touched)
	}

	lease := handleA.Lease(store)
	stats = store.CollectStats()
	if stats.Leases != 1 {
		t.Errorf("expected 1 outstanding lease, got %d", stats.Leases)
	}
	lease.End(store)

	handleB.Release()
	stats = store.CollectStats()
	if stats.Live != 1 {
		t.Errorf("expected 1 live after drop, got %d", stats.Live)
	}
	if stats.PendingDrop != 1 {
		t.Errorf("expected 1 pending drop, got %d", stats.PendingDrop)
	}

	store.TakeDropped()
	stats = store.CollectStats()
	if stats.PendingDrop != 0 {
		t.Errorf("expected 0 pending after sweep, got %d", stats.PendingDrop)
	}
	if stats.Touched != 1 {
		t.Errorf("expected 1 touched after sweep, got %d", stats.Touched)
	}

	handleA.Release()
}
