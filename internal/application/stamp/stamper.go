// Package stamp is the producer half of the correlation contract. It takes
// the records an external generation stage emitted, normalizes their
// prompts, stamps each with a fresh correlation id, and lays the partition
// files out under the prompt store for the ingest session to correlate
// against.
package stamp

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/slothsintel/AutoVisuals/internal/application/ports"
	"github.com/slothsintel/AutoVisuals/internal/domain/service/catalog"
	"github.com/slothsintel/AutoVisuals/internal/domain/service/correlation"
	"github.com/slothsintel/AutoVisuals/internal/observability/types"
)

// fallbackCategory receives records the generation stage left uncategorized.
const fallbackCategory = "uncategorized"

// Stamper stamps generated records and writes them into the prompt store
// partition layout the category index reads: <date>/<category_slug>/ with
// meta.json, meta.csv, and prompt.txt.
type Stamper struct {
	store   ports.ObjectStorage
	tagger  *correlation.Tagger
	slugger *catalog.Slugger
	logger  types.Logger
	metrics types.Metrics
}

func NewStamper(store ports.ObjectStorage, logger types.Logger, metrics types.Metrics) *Stamper {
	return &Stamper{
		store:   store,
		tagger:  correlation.NewTagger(),
		slugger: catalog.NewSlugger(),
		logger:  logger.WithFields(types.Fields{"component": "stamper"}),
		metrics: metrics,
	}
}

// Result reports what one stamping run did.
type Result struct {
	Date    string
	Stamped int
	// Categories counts this run's records per category slug; a partition
	// may hold more from earlier runs.
	Categories map[string]int
}

// Run stamps records for one partition date (YYYY-MM-DD, empty means today
// UTC) and writes the category partitions. Ids already minted under that
// date are seeded first, and stamped records are merged into existing
// partitions, so a re-run extends the date instead of clobbering it.
func (s *Stamper) Run(ctx context.Context, date string, records []catalog.Record) (Result, error) {
	if len(records) == 0 {
		return Result{}, errors.New("no records to stamp")
	}
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		return Result{}, fmt.Errorf("invalid partition date %q, want YYYY-MM-DD", date)
	}

	start := time.Now()
	s.metrics.StartOperation("stamp_run")
	defer s.metrics.EndOperation("stamp_run")

	ids := s.seedIDs(ctx, date)

	groups := make(map[string][]catalog.Record)
	for _, rec := range records {
		if strings.TrimSpace(rec.Category) == "" {
			rec.Category = fallbackCategory
		}
		id := ids.Generate()
		rec.ID = id
		rec.Prompt = s.tagger.Attach(catalog.NormalizePrompt(rec.Prompt), id)

		slug := s.slugger.CategorySlug(rec.Category)
		groups[slug] = append(groups[slug], rec)
	}

	result := Result{
		Date:       date,
		Stamped:    len(records),
		Categories: make(map[string]int, len(groups)),
	}
	for slug, recs := range groups {
		if err := s.writePartition(ctx, date, slug, recs); err != nil {
			s.metrics.RecordError("stamp_run", "write")
			return Result{}, err
		}
		result.Categories[slug] = len(recs)
	}

	s.logger.Info(ctx, "records stamped", types.Fields{
		"date":       date,
		"records":    len(records),
		"categories": len(groups),
	})
	s.metrics.RecordSuccess("stamp_run")
	s.metrics.RecordDuration("stamp_run", time.Since(start).Seconds())
	return result, nil
}

// seedIDs collects every id already minted under date so Generate cannot
// repeat one on a re-run. The index is rebuilt on every call; a cached one
// would miss ids this process wrote since.
func (s *Stamper) seedIDs(ctx context.Context, date string) *correlation.IDSet {
	ids := correlation.NewIDSet()
	idx := catalog.NewCache(s.store, s.logger).IndexFor(ctx, date)
	for _, id := range idx.IDs() {
		ids.Add(id)
	}
	if idx.Len() > 0 {
		s.logger.Info(ctx, "seeded existing correlation ids", types.Fields{
			"date": date,
			"ids":  idx.Len(),
		})
	}
	return ids
}

// writePartition merges records into the partition's existing meta.json and
// rewrites the three partition files from the combined set.
func (s *Stamper) writePartition(ctx context.Context, date, slug string, records []catalog.Record) error {
	prefix := path.Join(date, slug)
	combined := append(s.existingRecords(ctx, prefix), records...)

	metaJSON, err := catalog.EncodeRecords(combined)
	if err != nil {
		return fmt.Errorf("encoding %s/meta.json: %w", prefix, err)
	}
	metaCSV, err := encodeCSV(combined)
	if err != nil {
		return fmt.Errorf("encoding %s/meta.csv: %w", prefix, err)
	}

	files := []struct {
		name        string
		data        []byte
		contentType string
	}{
		{"meta.json", metaJSON, "application/json"},
		{"meta.csv", metaCSV, "text/csv"},
		{"prompt.txt", encodePrompts(combined), "text/plain"},
	}
	for _, file := range files {
		key := prefix + "/" + file.name
		err := s.store.Put(ctx, key, bytes.NewReader(file.data), ports.ObjectMetadata{
			ContentType:   file.contentType,
			ContentLength: int64(len(file.data)),
		})
		if err != nil {
			return fmt.Errorf("writing %s: %w", key, err)
		}
	}

	s.logger.Debug(ctx, "partition written", types.Fields{
		"partition": prefix,
		"records":   len(combined),
		"new":       len(records),
	})
	return nil
}

// existingRecords loads the partition's current meta.json. A missing file is
// a fresh partition; an unreadable one is logged and treated as empty, which
// trades the old records for a clean rewrite.
func (s *Stamper) existingRecords(ctx context.Context, prefix string) []catalog.Record {
	key := prefix + "/meta.json"
	reader, err := s.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ports.ErrObjectNotFound) {
			s.logger.Warn(ctx, "could not read existing partition metadata", types.Fields{
				"key":   key,
				"error": err.Error(),
			})
		}
		return nil
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		s.logger.Warn(ctx, "could not read existing partition metadata", types.Fields{
			"key":   key,
			"error": err.Error(),
		})
		return nil
	}
	records, err := catalog.DecodeRecords(data)
	if err != nil {
		s.logger.Warn(ctx, "malformed existing partition metadata", types.Fields{
			"key":   key,
			"error": err.Error(),
		})
		return nil
	}
	return records
}

// encodeCSV renders the flat spreadsheet view of a partition, keywords
// joined into one cell.
func encodeCSV(records []catalog.Record) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	rows := [][]string{{"id", "category", "theme", "prompt", "title", "description", "keywords"}}
	for _, rec := range records {
		rows = append(rows, []string{
			rec.ID,
			rec.Category,
			rec.Theme,
			rec.Prompt,
			rec.Title,
			rec.Description,
			strings.Join(rec.Keywords, ", "),
		})
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// encodePrompts renders prompt.txt, one send-ready prompt per line.
func encodePrompts(records []catalog.Record) []byte {
	lines := make([]string, 0, len(records))
	for _, rec := range records {
		if rec.Prompt == "" {
			continue
		}
		lines = append(lines, rec.Prompt)
	}
	return []byte(strings.Join(lines, "\n"))
}
