package entity_test

import (
	"fmt"

	"github.com/plus3/entarena/entity"
)

// ExampleStore demonstrates the arena's lifecycle: a key is reserved before
// the value exists, the value is inserted, mutated through an exclusive
// lease, and finally reclaimed by an explicit sweep once the last owning
// handle is released.
func ExampleStore() {
	store := entity.NewStore()

	slot, key := entity.Reserve[Counter](store)
	handle := slot.Insert(store, Counter{Count: 41})
	fmt.Printf("inserted %v with count %d\n", key, store.RefCount(key))

	lease := handle.Lease(store)
	lease.Value().Count++
	lease.End(store)
	fmt.Printf("after lease: %d\n", handle.Read(store).Count)

	handle.Release()
	for _, dropped := range store.TakeDropped() {
		fmt.Printf("reclaimed %v holding %d\n", dropped.Key, dropped.Value.(*Counter).Count)
	}

	// Output:
	// inserted Key(0:1) with count 1
	// after lease: 42
	// reclaimed Key(0:1) holding 42
}

// ExampleWeakHandle shows that a weak handle never keeps a value alive: once
// the last strong handle is released, Upgrade fails even before the sweep
// physically reclaims the value.
func ExampleWeakHandle() {
	store := entity.NewStore()

	slot, _ := entity.Reserve[Label](store)
	handle := slot.Insert(store, Label{Text: "observed"})
	weak := handle.Downgrade()

	if strong, ok := weak.Upgrade(); ok {
		fmt.Println("alive:", strong.Read(store).Text)
		strong.Release()
	}

	handle.Release()

	if _, ok := weak.Upgrade(); !ok {
		fmt.Println("gone before the sweep")
	}

	// Output:
	// alive: observed
	// gone before the sweep
}

// ExampleStore_TakeTouched shows how a change-detection layer drains the set
// of keys accessed during a unit of work.
func ExampleStore_TakeTouched() {
	store := entity.NewStore()

	slotA, keyA := entity.Reserve[Counter](store)
	a := slotA.Insert(store, Counter{Count: 1})
	slotB, keyB := entity.Reserve[Counter](store)
	b := slotB.Insert(store, Counter{Count: 2})
	store.TakeTouched() // discard insert-time touches

	lease := b.Lease(store)
	lease.Value().Count++
	lease.End(store)

	for _, key := range store.TakeTouched() {
		switch key {
		case keyA:
			fmt.Println("A changed")
		case keyB:
			fmt.Println("B changed")
		}
	}

	a.Release()
	b.Release()

	// Output:
	// B changed
}
