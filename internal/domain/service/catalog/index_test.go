package catalog

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slothsintel/AutoVisuals/internal/application/ports"
	"github.com/slothsintel/AutoVisuals/internal/infrastructure/storage"
	"github.com/slothsintel/AutoVisuals/internal/observability/logger"
)

func putObject(t *testing.T, store ports.ObjectStorage, key, body string) {
	t.Helper()
	err := store.Put(context.Background(), key, strings.NewReader(body), ports.ObjectMetadata{})
	require.NoError(t, err)
}

func TestCache_IndexFor(t *testing.T) {
	store := storage.NewMemory()
	putObject(t, store, "2024-01-01/nature/meta.json",
		`[{"id": "ab12", "category": "nature"}, {"id": "CD34", "category": "nature"}]`)
	putObject(t, store, "2024-01-01/business/meta.json",
		`[{"id": "ef56", "category": "business"}]`)
	putObject(t, store, "2024-01-01/nature/prompt.txt", "/imagine prompt:x [av:ab12]")

	cache := NewCache(store, logger.NewNop())
	idx := cache.IndexFor(context.Background(), "2024-01-01")

	require.Equal(t, 3, idx.Len())

	slug, ok := idx.Lookup("ab12")
	assert.True(t, ok)
	assert.Equal(t, "nature", slug)

	// lookup normalizes case
	slug, ok = idx.Lookup("CD34")
	assert.True(t, ok)
	assert.Equal(t, "nature", slug)

	slug, ok = idx.Lookup("ef56")
	assert.True(t, ok)
	assert.Equal(t, "business", slug)

	_, ok = idx.Lookup("9999")
	assert.False(t, ok)
}

func TestCache_BuildsOncePerDate(t *testing.T) {
	store := storage.NewMemory()
	putObject(t, store, "2024-01-01/nature/meta.json", `[{"id": "ab12"}]`)

	cache := NewCache(store, logger.NewNop())
	first := cache.IndexFor(context.Background(), "2024-01-01")

	// Metadata arriving after the build is invisible for this session.
	putObject(t, store, "2024-01-01/city/meta.json", `[{"id": "ff00"}]`)

	second := cache.IndexFor(context.Background(), "2024-01-01")
	assert.Same(t, first, second)
	_, ok := second.Lookup("ff00")
	assert.False(t, ok)

	// A different date builds its own index and sees everything current.
	putObject(t, store, "2024-01-02/city/meta.json", `[{"id": "ff00"}]`)
	other := cache.IndexFor(context.Background(), "2024-01-02")
	assert.NotSame(t, first, other)
	_, ok = other.Lookup("ff00")
	assert.True(t, ok)
}

func TestCache_SkipsMalformedMetadata(t *testing.T) {
	store := storage.NewMemory()
	putObject(t, store, "2024-01-01/broken/meta.json", `{not json`)
	putObject(t, store, "2024-01-01/notalist/meta.json", `{"id": "aa11"}`)
	putObject(t, store, "2024-01-01/nature/meta.json",
		`[{"id": 42}, {"id": "ab12"}, {"id": ""}, "junk"]`)

	cache := NewCache(store, logger.NewNop())
	idx := cache.IndexFor(context.Background(), "2024-01-01")

	// Only the one well-formed record with a non-empty string id survives.
	require.Equal(t, 1, idx.Len())
	slug, ok := idx.Lookup("ab12")
	assert.True(t, ok)
	assert.Equal(t, "nature", slug)
}

func TestCache_DuplicateIdKeepsFirst(t *testing.T) {
	store := storage.NewMemory()
	// "business" sorts before "nature", so its mapping is inserted first.
	putObject(t, store, "2024-01-01/business/meta.json", `[{"id": "ab12"}]`)
	putObject(t, store, "2024-01-01/nature/meta.json", `[{"id": "AB12"}]`)

	cache := NewCache(store, logger.NewNop())
	idx := cache.IndexFor(context.Background(), "2024-01-01")

	require.Equal(t, 1, idx.Len())
	slug, _ := idx.Lookup("ab12")
	assert.Equal(t, "business", slug)
}

func TestCache_EmptyDate(t *testing.T) {
	cache := NewCache(storage.NewMemory(), logger.NewNop())
	idx := cache.IndexFor(context.Background(), "2024-01-01")

	assert.Equal(t, 0, idx.Len())
	assert.Equal(t, "2024-01-01", idx.Date())
}
