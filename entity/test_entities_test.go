package entity_test

import "github.com/plus3/entarena/entity"

// Common test entity types
type Counter struct {
	Count int
}

type Label struct {
	Text string
}

type Profile struct {
	Name    string
	Age     int
	Friends []string
}

type Node struct {
	Value int
	Next  entity.WeakHandle[Node]
}

func insertCounter(store *entity.Store, count int) (entity.Handle[Counter], entity.Key) {
	slot, key := entity.Reserve[Counter](store)
	return slot.Insert(store, Counter{Count: count}), key
}
