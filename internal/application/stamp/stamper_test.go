package stamp

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slothsintel/AutoVisuals/internal/application/ports"
	"github.com/slothsintel/AutoVisuals/internal/domain/service/catalog"
	"github.com/slothsintel/AutoVisuals/internal/infrastructure/storage"
	"github.com/slothsintel/AutoVisuals/internal/observability/logger"
	"github.com/slothsintel/AutoVisuals/internal/observability/metrics"
)

var idPattern = regexp.MustCompile(`^[0-9a-f]{4}$`)

func newStamper(t *testing.T) (*Stamper, *storage.Memory) {
	t.Helper()
	store := storage.NewMemory()
	return NewStamper(store, logger.NewNop(), metrics.NewNoop()), store
}

func readKey(t *testing.T, store ports.ObjectStorage, key string) []byte {
	t.Helper()
	reader, err := store.Get(context.Background(), key)
	require.NoError(t, err, key)
	defer reader.Close()
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	return data
}

func readMeta(t *testing.T, store ports.ObjectStorage, key string) []catalog.Record {
	t.Helper()
	records, err := catalog.DecodeRecords(readKey(t, store, key))
	require.NoError(t, err)
	return records
}

func seedPartition(t *testing.T, store ports.ObjectStorage, key string, records []catalog.Record) {
	t.Helper()
	data, err := catalog.EncodeRecords(records)
	require.NoError(t, err)
	err = store.Put(context.Background(), key, bytes.NewReader(data), ports.ObjectMetadata{})
	require.NoError(t, err)
}

func TestStamperStampsAndPartitions(t *testing.T) {
	stamper, store := newStamper(t)

	records := []catalog.Record{
		{
			Category: "Nature",
			Theme:    "lakes",
			Prompt:   "calm lake at dawn --ar 16:9",
			Title:    "Calm Lake",
			Keywords: []string{"lake", "dawn"},
		},
		{Category: "nature", Prompt: "imagine prompt misty forest"},
		{Prompt: "city skyline"},
	}

	result, err := stamper.Run(context.Background(), "2024-01-01", records)
	require.NoError(t, err)

	assert.Equal(t, "2024-01-01", result.Date)
	assert.Equal(t, 3, result.Stamped)
	assert.Equal(t, map[string]int{"nature": 2, "uncategorized": 1}, result.Categories)

	nature := readMeta(t, store, "2024-01-01/nature/meta.json")
	require.Len(t, nature, 2)

	// Tag lands before the parameter block, prefix is canonical.
	assert.Regexp(t,
		`^/imagine prompt:calm lake at dawn \[av:`+nature[0].ID+`\] --ar 16:9$`,
		nature[0].Prompt)
	assert.Equal(t, "/imagine prompt:misty forest [av:"+nature[1].ID+"]", nature[1].Prompt)
	assert.Equal(t, "Nature", nature[0].Category)

	other := readMeta(t, store, "2024-01-01/uncategorized/meta.json")
	require.Len(t, other, 1)
	assert.Equal(t, "uncategorized", other[0].Category)

	seen := map[string]bool{}
	for _, rec := range append(nature, other...) {
		assert.Regexp(t, idPattern, rec.ID)
		assert.False(t, seen[rec.ID], "duplicate id %s", rec.ID)
		seen[rec.ID] = true
	}
}

func TestStamperWritesPromptAndCSVFiles(t *testing.T) {
	stamper, store := newStamper(t)

	records := []catalog.Record{
		{
			Category:    "Nature",
			Theme:       "lakes",
			Prompt:      "calm lake at dawn --ar 16:9",
			Title:       "Calm Lake",
			Description: "A still lake.",
			Keywords:    []string{"lake", "dawn"},
		},
	}
	_, err := stamper.Run(context.Background(), "2024-01-01", records)
	require.NoError(t, err)

	meta := readMeta(t, store, "2024-01-01/nature/meta.json")
	require.Len(t, meta, 1)

	prompts := string(readKey(t, store, "2024-01-01/nature/prompt.txt"))
	assert.Equal(t, meta[0].Prompt, prompts)

	rows, err := csv.NewReader(bytes.NewReader(readKey(t, store, "2024-01-01/nature/meta.csv"))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t,
		[]string{"id", "category", "theme", "prompt", "title", "description", "keywords"},
		rows[0])
	assert.Equal(t,
		[]string{meta[0].ID, "Nature", "lakes", meta[0].Prompt, "Calm Lake", "A still lake.", "lake, dawn"},
		rows[1])
}

func TestStamperSeedsExistingIDs(t *testing.T) {
	stamper, store := newStamper(t)
	seedPartition(t, store, "2024-01-01/nature/meta.json", []catalog.Record{
		{ID: "ab12", Category: "nature", Prompt: "/imagine prompt:old one [av:ab12]"},
	})

	result, err := stamper.Run(context.Background(), "2024-01-01",
		[]catalog.Record{{Category: "nature", Prompt: "new one"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"nature": 1}, result.Categories)

	merged := readMeta(t, store, "2024-01-01/nature/meta.json")
	require.Len(t, merged, 2)
	assert.Equal(t, "ab12", merged[0].ID)
	assert.NotEqual(t, "ab12", merged[1].ID)
	assert.Regexp(t, idPattern, merged[1].ID)
}

func TestStamperMergesRerunPartition(t *testing.T) {
	stamper, store := newStamper(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := stamper.Run(ctx, "2024-01-01",
			[]catalog.Record{{Category: "nature", Prompt: fmt.Sprintf("run %d", i)}})
		require.NoError(t, err)
	}

	merged := readMeta(t, store, "2024-01-01/nature/meta.json")
	require.Len(t, merged, 2)
	assert.NotEqual(t, merged[0].ID, merged[1].ID)

	prompts := strings.Split(string(readKey(t, store, "2024-01-01/nature/prompt.txt")), "\n")
	assert.Len(t, prompts, 2)
}

func TestStamperRejectsEmptyInput(t *testing.T) {
	stamper, _ := newStamper(t)

	_, err := stamper.Run(context.Background(), "2024-01-01", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no records")
}

func TestStamperRejectsMalformedDate(t *testing.T) {
	stamper, _ := newStamper(t)

	_, err := stamper.Run(context.Background(), "yesterday",
		[]catalog.Record{{Category: "nature", Prompt: "calm lake"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid partition date")
}

func TestStamperDefaultsDateToToday(t *testing.T) {
	stamper, _ := newStamper(t)

	result, err := stamper.Run(context.Background(), "",
		[]catalog.Record{{Category: "nature", Prompt: "calm lake"}})
	require.NoError(t, err)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}$`, result.Date)
}
