// Package grid splits composite images, the N-up contact sheets the image
// generator posts, into individually stored tiles.
package grid

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"path"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"

	"github.com/slothsintel/AutoVisuals/internal/application/ports"
	"github.com/slothsintel/AutoVisuals/internal/observability/types"
)

type Decomposer struct {
	store  ports.ObjectStorage
	logger types.Logger
}

func NewDecomposer(store ports.ObjectStorage, logger types.Logger) *Decomposer {
	return &Decomposer{store: store, logger: logger}
}

// Split reads the composite at key, crops rows*cols tiles in row-major
// order, writes each beside the original as <stem>_<TT><ext> with a 1-based
// zero-padded 2-digit tile index, and finally deletes the original when
// deleteOriginal is set. Tile sizes are width/cols by height/rows with
// integer division; remainder pixels are dropped.
//
// A failed delete of the original is logged and not an error: the tiles are
// already persisted. Any earlier failure returns an error with the original
// untouched, and tiles written before the failure are removed again so the
// partition's file count stays consistent.
func (d *Decomposer) Split(ctx context.Context, key string, rows, cols int, deleteOriginal bool) ([]string, error) {
	if rows < 1 || cols < 1 {
		return nil, ErrBadLayout
	}

	reader, err := d.store.Get(ctx, key)
	if err != nil {
		return nil, ErrDecode(key, err)
	}
	img, err := imaging.Decode(reader)
	reader.Close()
	if err != nil {
		return nil, ErrDecode(key, err)
	}

	ext := path.Ext(key)
	format, err := imaging.FormatFromExtension(ext)
	if err != nil {
		return nil, ErrEncode(key, err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	tileW, tileH := width/cols, height/rows
	if tileW == 0 || tileH == 0 {
		return nil, ErrTooSmall(key, width, height, rows, cols)
	}

	stem := strings.TrimSuffix(key, ext)
	tiles := make([]string, 0, rows*cols)

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			rect := image.Rect(
				bounds.Min.X+c*tileW,
				bounds.Min.Y+r*tileH,
				bounds.Min.X+(c+1)*tileW,
				bounds.Min.Y+(r+1)*tileH,
			)
			tile := imaging.Crop(img, rect)

			var buf bytes.Buffer
			if err := imaging.Encode(&buf, tile, format); err != nil {
				d.removeTiles(ctx, tiles)
				return nil, ErrEncode(key, err)
			}

			tileKey := fmt.Sprintf("%s_%02d%s", stem, r*cols+c+1, ext)
			metadata := ports.ObjectMetadata{
				ContentType:   mimetype.Detect(buf.Bytes()).String(),
				ContentLength: int64(buf.Len()),
			}
			if err := d.store.Put(ctx, tileKey, &buf, metadata); err != nil {
				d.removeTiles(ctx, tiles)
				return nil, fmt.Errorf("storing tile %s: %w", tileKey, err)
			}
			tiles = append(tiles, tileKey)
		}
	}

	if deleteOriginal {
		if err := d.store.Delete(ctx, key); err != nil {
			d.logger.Warn(ctx, "could not delete composite after split", types.Fields{
				"key":   key,
				"error": err.Error(),
			})
		}
	}
	return tiles, nil
}

// removeTiles undoes a partial split so the count-based allocator never
// sees half a grid.
func (d *Decomposer) removeTiles(ctx context.Context, tiles []string) {
	for _, tileKey := range tiles {
		if err := d.store.Delete(ctx, tileKey); err != nil {
			d.logger.Warn(ctx, "could not remove partial tile", types.Fields{
				"key":   tileKey,
				"error": err.Error(),
			})
		}
	}
}
