package entity_test

import (
	"testing"

	"github.com/plus3/entarena/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandsReleaseIsDeferred(t *testing.T) {
	store := entity.NewStore()
	commands := entity.NewCommands()

	handle, key := insertCounter(store, 1)

	commands.Release(handle.Any())

	// Nothing happens until Flush.
	assert.Equal(t, int64(1), store.RefCount(key))
	assert.Equal(t, 1, handle.Read(store).Count)

	dropped := commands.Flush(store)
	require.Len(t, dropped, 1)
	assert.Equal(t, key, dropped[0].Key)
	assert.Equal(t, int64(0), store.RefCount(key))
}

func TestCommandsDeferRunsBeforeSweep(t *testing.T) {
	store := entity.NewStore()
	commands := entity.NewCommands()

	handle, key := insertCounter(store, 1)

	var order []string
	commands.Release(handle.Any())
	commands.Defer(func() {
		order = append(order, "defer")
		// The release already ran, but the sweep has not.
		assert.Equal(t, int64(0), store.RefCount(key))
	})

	dropped := commands.Flush(store)
	order = append(order, "sweep")

	assert.Equal(t, []string{"defer", "sweep"}, order)
	assert.Len(t, dropped, 1)
}

func TestCommandsBufferResetsAfterFlush(t *testing.T) {
	store := entity.NewStore()
	commands := entity.NewCommands()

	handleA, _ := insertCounter(store, 1)
	commands.Release(handleA.Any())
	assert.Len(t, commands.Flush(store), 1)

	// A second flush re-runs nothing.
	handleB, keyB := insertCounter(store, 2)
	assert.Empty(t, commands.Flush(store))
	assert.Equal(t, int64(1), store.RefCount(keyB))
	handleB.Release()
}

func TestCommandsKeepSurvivorsIntact(t *testing.T) {
	store := entity.NewStore()
	commands := entity.NewCommands()

	doomed, _ := insertCounter(store, 1)
	survivor, keyS := insertCounter(store, 2)

	commands.Release(doomed.Any())
	dropped := commands.Flush(store)

	require.Len(t, dropped, 1)
	assert.Equal(t, int64(1), store.RefCount(keyS))
	assert.Equal(t, 2, survivor.Read(store).Count)
	survivor.Release()
}
