package selection_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kramstore/delivery/internal/selection"
)

func TestMemoryStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := selection.NewMemoryStore(0)
	sel := validWarehouseSelection()

	require.NoError(t, store.Put(ctx, "sess-1", sel))

	got, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, *sel, *got)
}

func TestMemoryStore_AbsentSession(t *testing.T) {
	store := selection.NewMemoryStore(0)

	got, err := store.Get(context.Background(), "never-seen")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStore_MalformedReadsAsAbsent(t *testing.T) {
	ctx := context.Background()
	store := selection.NewMemoryStore(0)
	store.PutRaw("sess-1", []byte(`{"cityRef": truncated`))

	got, err := store.Get(ctx, "sess-1")
	assert.NoError(t, err)
	assert.Nil(t, got)

	// The corrupted record is dropped, not retried.
	got, err = store.Get(ctx, "sess-1")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStore_Clear(t *testing.T) {
	ctx := context.Background()
	store := selection.NewMemoryStore(0)
	require.NoError(t, store.Put(ctx, "sess-1", validWarehouseSelection()))

	require.NoError(t, store.Clear(ctx, "sess-1"))

	got, err := store.Get(ctx, "sess-1")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStore_ClearAbsentIsNoop(t *testing.T) {
	store := selection.NewMemoryStore(0)
	assert.NoError(t, store.Clear(context.Background(), "never-seen"))
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	store := selection.NewMemoryStore(20 * time.Millisecond)
	require.NoError(t, store.Put(ctx, "sess-1", validWarehouseSelection()))

	time.Sleep(50 * time.Millisecond)

	got, err := store.Get(ctx, "sess-1")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStore_OverwriteReplaces(t *testing.T) {
	ctx := context.Background()
	store := selection.NewMemoryStore(0)

	first := validWarehouseSelection()
	require.NoError(t, store.Put(ctx, "sess-1", first))

	second := validWarehouseSelection()
	second.WarehouseRef = "another-ref"
	second.WarehouseAddress = "Відділення №7"
	require.NoError(t, store.Put(ctx, "sess-1", second))

	got, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "another-ref", got.WarehouseRef)
}
