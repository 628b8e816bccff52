package catalog

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/slothsintel/AutoVisuals/internal/application/ports"
	"github.com/slothsintel/AutoVisuals/internal/observability/types"
)

const metaFileName = "meta.json"

// Index maps lowercased correlation ids to the category partition that
// minted them, for exactly one processing date.
type Index struct {
	date string
	byID map[string]string
}

func (i *Index) Lookup(id string) (string, bool) {
	slug, ok := i.byID[strings.ToLower(strings.TrimSpace(id))]
	return slug, ok
}

func (i *Index) Date() string {
	return i.date
}

func (i *Index) Len() int {
	return len(i.byID)
}

// IDs returns every correlation id the index knows, in no particular order.
// The producer seeds its id set with these so a re-run on the same date
// cannot mint a duplicate.
func (i *Index) IDs() []string {
	ids := make([]string, 0, len(i.byID))
	for id := range i.byID {
		ids = append(ids, id)
	}
	return ids
}

// Cache builds the index for a date at most once per session and hands the
// same instance back for every later event bearing that date. Metadata
// written after a date's index was built is not picked up for the rest of
// the session. Safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	store   ports.ObjectStorage
	logger  types.Logger
	indexes map[string]*Index
}

func NewCache(store ports.ObjectStorage, logger types.Logger) *Cache {
	return &Cache{
		store:   store,
		logger:  logger,
		indexes: make(map[string]*Index),
	}
}

// IndexFor returns the index for date, building it on first use.
func (c *Cache) IndexFor(ctx context.Context, date string) *Index {
	c.mu.Lock()
	defer c.mu.Unlock()

	if idx, ok := c.indexes[date]; ok {
		return idx
	}
	idx := c.build(ctx, date)
	c.indexes[date] = idx
	return idx
}

// build scans every <date>/<category>/meta.json under the prompt store.
// A category whose metadata is missing or malformed contributes nothing;
// the rest of the index is still built.
func (c *Cache) build(ctx context.Context, date string) *Index {
	idx := &Index{date: date, byID: make(map[string]string)}
	prefix := date + "/"

	objects, err := c.store.List(ctx, prefix)
	if err != nil {
		c.logger.Warn(ctx, "category index listing failed", types.Fields{
			"date":  date,
			"error": err.Error(),
		})
		return idx
	}

	for _, obj := range objects {
		rel := strings.TrimPrefix(obj.Key, prefix)
		parts := strings.Split(rel, "/")
		if len(parts) != 2 || parts[1] != metaFileName {
			continue
		}
		c.addCategory(ctx, idx, obj.Key, parts[0])
	}

	c.logger.Info(ctx, "category index built", types.Fields{
		"date":    date,
		"entries": idx.Len(),
	})
	return idx
}

func (c *Cache) addCategory(ctx context.Context, idx *Index, key, category string) {
	reader, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn(ctx, "could not read category metadata", types.Fields{
			"date":     idx.date,
			"category": category,
			"error":    err.Error(),
		})
		return
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		c.logger.Warn(ctx, "could not read category metadata", types.Fields{
			"date":     idx.date,
			"category": category,
			"error":    err.Error(),
		})
		return
	}

	records, err := DecodeRecords(data)
	if err != nil {
		c.logger.Warn(ctx, "malformed category metadata", types.Fields{
			"date":     idx.date,
			"category": category,
			"error":    err.Error(),
		})
		return
	}

	for _, rec := range records {
		id := strings.ToLower(strings.TrimSpace(rec.ID))
		if id == "" {
			continue
		}
		if existing, dup := idx.byID[id]; dup {
			// Ids are unique per date by contract; keep the first mapping.
			c.logger.Warn(ctx, "duplicate correlation id in metadata", types.Fields{
				"date":    idx.date,
				"id":      id,
				"kept":    existing,
				"ignored": category,
			})
			continue
		}
		idx.byID[id] = category
	}
}
