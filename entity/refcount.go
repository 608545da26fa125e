package entity

import (
	"fmt"
	"sync"
	"sync/atomic"
)

const refBlockSize = 64

// refSlot is one physical slot in the count table. generation is only
// written while holding the table's write lock; count is shared with
// concurrent handle clones and drops.
type refSlot struct {
	count      atomic.Int64
	generation uint32
}

// refCounts is the single source of truth for how many strong handles exist
// per key and which keys are awaiting reclamation.
//
// Slots are stored in fixed-size blocks behind pointers, so a cell's address
// stays stable while the block list grows. Counts themselves are adjusted
// with atomics; the lock protects the slab layout (blocks, free list) and
// the dropped queue. Increment and decrement only need the read lock to
// locate a cell, escalating to the write lock when a decrement reaches zero
// and the key has to be queued.
type refCounts struct {
	mu            sync.RWMutex
	blocks        []*[refBlockSize]refSlot
	freeSlots     []uint32
	nextIndex     uint32
	droppedKeys   []Key
	totalReserved int64
	closed        atomic.Bool
}

func newRefCounts() *refCounts {
	return &refCounts{}
}

// reserve allocates a new logical slot with a count of 1, recycling swept
// slots when possible.
func (rc *refCounts) reserve() Key {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	var index uint32
	if n := len(rc.freeSlots); n > 0 {
		index = rc.freeSlots[n-1]
		rc.freeSlots = rc.freeSlots[:n-1]
	} else {
		index = rc.nextIndex
		rc.nextIndex++
		if int(index)/refBlockSize >= len(rc.blocks) {
			rc.blocks = append(rc.blocks, &[refBlockSize]refSlot{})
		}
	}

	slot := &rc.blocks[index/refBlockSize][index%refBlockSize]
	if slot.generation == 0 {
		slot.generation = 1
	}
	slot.count.Store(1)
	rc.totalReserved++
	return NewKey(index, slot.generation)
}

// cell returns the count cell for key, or nil when the key's generation no
// longer matches the slot (the key is stale). Caller holds rc.mu.
func (rc *refCounts) cell(key Key) *atomic.Int64 {
	index := key.Index()
	if index >= rc.nextIndex {
		return nil
	}
	slot := &rc.blocks[index/refBlockSize][index%refBlockSize]
	if slot.generation != key.Generation() {
		return nil
	}
	return &slot.count
}

// increment records a new strong handle for key. Incrementing a count that
// already reached zero means a handle was over-released somewhere; that is a
// caller bug, not a recoverable condition.
func (rc *refCounts) increment(key Key) {
	if rc.closed.Load() {
		return
	}
	rc.mu.RLock()
	cell := rc.cell(key)
	if cell == nil {
		rc.mu.RUnlock()
		panic(fmt.Sprintf("entity: cannot clone handle for %v: slot already reclaimed", key))
	}
	prev := cell.Add(1) - 1
	rc.mu.RUnlock()
	if prev <= 0 {
		panic(fmt.Sprintf("entity: cannot clone handle for %v: count was already 0", key))
	}
}

// decrement records a released strong handle for key. When the count reaches
// zero the key is queued for the next sweep; nothing is reclaimed here.
func (rc *refCounts) decrement(key Key) {
	if rc.closed.Load() {
		return
	}
	rc.mu.RLock()
	cell := rc.cell(key)
	if cell == nil {
		rc.mu.RUnlock()
		panic(fmt.Sprintf("entity: cannot release handle for %v: slot already reclaimed", key))
	}
	remaining := cell.Add(-1)
	rc.mu.RUnlock()

	switch {
	case remaining < 0:
		panic(fmt.Sprintf("entity: cannot release handle for %v: count was already 0", key))
	case remaining == 0:
		rc.mu.Lock()
		rc.droppedKeys = append(rc.droppedKeys, key)
		rc.mu.Unlock()
	}
}

// tryIncrementIfPositive is the weak-upgrade path: it increments the count
// only if it is still positive, retrying on contention. A zero count is
// reported as failure, never bumped, so a key queued for drop cannot be
// resurrected.
func (rc *refCounts) tryIncrementIfPositive(key Key) bool {
	if rc.closed.Load() {
		return false
	}
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	cell := rc.cell(key)
	if cell == nil {
		return false
	}
	for {
		current := cell.Load()
		if current <= 0 {
			return false
		}
		if cell.CompareAndSwap(current, current+1) {
			return true
		}
	}
}

// drainDropped atomically takes the queue of keys whose count reached zero,
// leaving it empty.
func (rc *refCounts) drainDropped() []Key {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	dropped := rc.droppedKeys
	rc.droppedKeys = nil
	return dropped
}

// release retires a drained key's slot: the generation is bumped so any
// remaining keys for this slot become stale, and the index is recycled.
// The count must still be exactly zero; a positive count here means a handle
// was minted for the key after it was queued for drop.
func (rc *refCounts) release(key Key) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	index := key.Index()
	if index >= rc.nextIndex {
		panic(fmt.Sprintf("entity: cannot sweep %v: slot was never reserved", key))
	}
	slot := &rc.blocks[index/refBlockSize][index%refBlockSize]
	if slot.generation != key.Generation() {
		panic(fmt.Sprintf("entity: cannot sweep %v: slot already reclaimed", key))
	}
	if n := slot.count.Load(); n != 0 {
		panic(fmt.Sprintf("entity: cannot sweep %v: count is %d, want 0", key, n))
	}
	slot.generation++
	rc.freeSlots = append(rc.freeSlots, index)
}

// load returns the current count for key, or 0 when the key is stale.
func (rc *refCounts) load(key Key) int64 {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	cell := rc.cell(key)
	if cell == nil {
		return 0
	}
	return cell.Load()
}

// close makes all future count adjustments inert. Used during whole-arena
// shutdown so outstanding handles can be released in any order.
func (rc *refCounts) close() {
	rc.closed.Store(true)
}

func (rc *refCounts) stats() (live, pending int, total int64) {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	allocated := int(rc.nextIndex) - len(rc.freeSlots)
	pending = len(rc.droppedKeys)
	return allocated - pending, pending, rc.totalReserved
}
