package naming

import (
	"path"
	"regexp"
	"strconv"
	"strings"
)

var (
	tileNamePattern  = regexp.MustCompile(`^(.+)_(\d{4})_(\d{2})$`)
	assetNamePattern = regexp.MustCompile(`^(.+)_(\d{4})$`)
)

// AssetName is a parsed stored-asset filename.
type AssetName struct {
	Slug    string
	Counter int
	// Tile is the 1-based tile index, 0 for an unsplit composite.
	Tile int
}

// ParseAssetName inverts the allocator grammar. Leading directories and the
// extension are ignored. It returns false for names this package never
// produced.
func ParseAssetName(name string) (AssetName, bool) {
	stem := strings.TrimSuffix(path.Base(name), path.Ext(name))

	if m := tileNamePattern.FindStringSubmatch(stem); m != nil {
		counter, _ := strconv.Atoi(m[2])
		tile, _ := strconv.Atoi(m[3])
		return AssetName{Slug: m[1], Counter: counter, Tile: tile}, true
	}
	if m := assetNamePattern.FindStringSubmatch(stem); m != nil {
		counter, _ := strconv.Atoi(m[2])
		return AssetName{Slug: m[1], Counter: counter}, true
	}
	return AssetName{}, false
}
