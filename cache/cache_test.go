package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

func TestMemorySetGet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0)
	defer m.Close()

	require.NoError(t, m.Set(ctx, "catalog:discounts", map[string]entry{"p1": {Name: "Rosas", Price: 9.5}}, time.Minute))

	var got map[string]entry
	found, err := m.Get(ctx, "catalog:discounts", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 9.5, got["p1"].Price)

	found, err = m.Get(ctx, "missing", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0)
	defer m.Close()
	clock := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	require.NoError(t, m.Set(ctx, "short", entry{Name: "a"}, time.Second))
	require.NoError(t, m.Set(ctx, "forever", entry{Name: "b"}, 0))

	clock = clock.Add(2 * time.Second)

	var got entry
	found, err := m.Get(ctx, "short", &got)
	require.NoError(t, err)
	assert.False(t, found)

	found, err = m.Get(ctx, "forever", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "b", got.Name)

	assert.Equal(t, 2, m.Size())
	m.sweep()
	assert.Equal(t, 1, m.Size())
}

func TestMemoryDeleteByPrefix(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0)
	defer m.Close()

	require.NoError(t, m.Set(ctx, "catalog:discounts", 1, 0))
	require.NoError(t, m.Set(ctx, "catalog:on-sale", 2, 0))
	require.NoError(t, m.Set(ctx, "users:1", 3, 0))

	require.NoError(t, m.DeleteByPrefix(ctx, "catalog:"))
	assert.Equal(t, 1, m.Size())

	var n int
	found, _ := m.Get(ctx, "users:1", &n)
	assert.True(t, found)
	assert.Equal(t, 3, n)
}

func TestMemoryCloseTwice(t *testing.T) {
	m := NewMemory(time.Millisecond)
	m.Close()
	assert.NotPanics(t, m.Close)
}
