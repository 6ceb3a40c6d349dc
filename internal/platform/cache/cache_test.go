package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_TTLExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemory(func() time.Time { return now })
	ctx := context.Background()

	store.Set(ctx, "k", []byte("v"), 30*time.Second)

	got, ok := store.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	// Exactly at the deadline the entry is still fresh.
	now = now.Add(30 * time.Second)
	_, ok = store.Get(ctx, "k")
	assert.True(t, ok)

	now = now.Add(time.Nanosecond)
	_, ok = store.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemory_Delete(t *testing.T) {
	store := NewMemory(nil)
	ctx := context.Background()

	store.Set(ctx, "k", []byte("v"), time.Minute)
	store.Delete(ctx, "k")

	_, ok := store.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemory_InvalidateDropsPrefixOnly(t *testing.T) {
	store := NewMemory(nil)
	ctx := context.Background()

	store.Set(ctx, "problems:list:a", []byte("1"), time.Minute)
	store.Set(ctx, "problems:list:b", []byte("2"), time.Minute)
	store.Set(ctx, "solutions:list:a", []byte("3"), time.Minute)

	store.Invalidate(ctx, "problems:list:")

	_, ok := store.Get(ctx, "problems:list:a")
	assert.False(t, ok)
	_, ok = store.Get(ctx, "problems:list:b")
	assert.False(t, ok)
	_, ok = store.Get(ctx, "solutions:list:a")
	assert.True(t, ok)
}

func TestMemory_OverwriteResetsTTL(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemory(func() time.Time { return now })
	ctx := context.Background()

	store.Set(ctx, "k", []byte("old"), 10*time.Second)
	now = now.Add(8 * time.Second)
	store.Set(ctx, "k", []byte("new"), 10*time.Second)

	now = now.Add(5 * time.Second) // 13s after the first write
	got, ok := store.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("new"), got)
}
