package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/docmap/pkg/core"
)

func TestBackend_SaveGetList(t *testing.T) {
	ctx := context.Background()
	b := NewBackend()

	stored, err := b.Save(ctx, core.Record{ID: "b", Fields: core.Fields{"name": "bobo"}})
	require.NoError(t, err)
	assert.Equal(t, "bobo", stored.Fields["name"])

	_, err = b.Save(ctx, core.Record{ID: "a", Fields: core.Fields{"name": "alice"}})
	require.NoError(t, err)

	got, err := b.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "bobo", got.Fields["name"])

	list, err := b.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "b", list[1].ID)

	_, err = b.Get(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestBackend_StoresCopies(t *testing.T) {
	ctx := context.Background()
	b := NewBackend()

	rec := core.Record{ID: "a", Fields: core.Fields{"tags": []any{"x"}}}
	out, err := b.Save(ctx, rec)
	require.NoError(t, err)

	rec.Fields["tags"].([]any)[0] = "mutated-input"
	out.Fields["tags"].([]any)[0] = "mutated-output"

	got, err := b.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []any{"x"}, got.Fields["tags"])
}

func TestBackend_ReadOnly(t *testing.T) {
	b := NewBackend(WithReadOnly(true))

	_, err := b.Save(context.Background(), core.Record{ID: "a"})
	assert.ErrorIs(t, err, core.ErrPersistence)
	assert.ErrorIs(t, err, core.ErrReadOnly)
	assert.Equal(t, 0, b.Len())
}

func TestBackend_CreateOnly(t *testing.T) {
	b := NewBackend(WithCreateOnly(true), WithRecords(core.Record{ID: "a"}))

	_, err := b.Save(context.Background(), core.Record{ID: "a"})
	assert.ErrorIs(t, err, core.ErrConflict)

	_, err = b.Save(context.Background(), core.Record{ID: "b"})
	assert.NoError(t, err)
}

func TestBackend_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewBackend().Save(ctx, core.Record{ID: "a"})
	assert.ErrorIs(t, err, core.ErrPersistence)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBackend_ConcurrentSaves(t *testing.T) {
	b := NewBackend()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := b.Save(ctx, core.Record{ID: fmt.Sprintf("r-%d", i)})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, b.Len())
	state := b.State().(BackendState)
	assert.Equal(t, 50, state.Saves)
	assert.Equal(t, "memory-backend", b.ComponentType())
}
