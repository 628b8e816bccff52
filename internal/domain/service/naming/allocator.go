// Package naming owns the stored-asset filename grammar:
// <slug>_<NNNN><ext> for composites and <slug>_<NNNN>_<TT><ext> for grid
// tiles, allocated per date/category partition.
package naming

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/slothsintel/AutoVisuals/internal/application/ports"
)

// Allocator hands out the next filename in a partition by counting what is
// already there. The count is recomputed from a listing on every call, so
// it is only valid while a single writer appends to the partition, which is
// how the ingest session operates.
type Allocator struct {
	store ports.ObjectStorage
}

func NewAllocator(store ports.ObjectStorage) *Allocator {
	return &Allocator{store: store}
}

// NextIndex returns 1 for a missing or empty partition, otherwise the
// number of existing objects plus one.
func (a *Allocator) NextIndex(ctx context.Context, partition string) (int, error) {
	objects, err := a.store.List(ctx, partition+"/")
	if err != nil {
		return 0, fmt.Errorf("listing partition %s: %w", partition, err)
	}
	return len(objects) + 1, nil
}

// Allocate composes the key for the next asset in the partition:
// <partition>/<slug>_<NNNN><ext> with a zero-padded 4-digit counter.
func (a *Allocator) Allocate(ctx context.Context, partition, slug, ext string) (string, error) {
	idx, err := a.NextIndex(ctx, partition)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s_%04d%s", partition, slug, idx, ext), nil
}

// ExtensionFor returns the lowercased extension of a source filename.
// Attachments without one default to .png, which is what the image
// generator emits.
func ExtensionFor(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" || ext == "." {
		return ".png"
	}
	return ext
}
