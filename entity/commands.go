package entity

// Commands provides a buffer for deferred arena operations that are executed
// at the end of the host's unit of work. Releasing handles through Commands
// instead of directly keeps count changes out of the middle of an update
// pass; Flush runs the buffer and sweeps the store in one step.
type Commands struct {
	releases []AnyHandle
	defers   []func()
}

// NewCommands creates an empty command buffer.
func NewCommands() *Commands {
	return &Commands{}
}

// Release queues a handle release operation.
func (c *Commands) Release(h AnyHandle) {
	c.releases = append(c.releases, h)
}

// Defer queues a function execution operation, run during Flush before the
// sweep.
func (c *Commands) Defer(fn func()) {
	c.defers = append(c.defers, fn)
}

// Flush runs all queued operations against the store, then sweeps it,
// returning the reclaimed entries. The buffer is reset for reuse.
func (c *Commands) Flush(s *Store) []Dropped {
	for _, h := range c.releases {
		h.Release()
	}
	for _, fn := range c.defers {
		fn()
	}

	c.releases = c.releases[:0]
	c.defers = c.defers[:0]

	return s.TakeDropped()
}
