package ingest

import (
	"bytes"
	"context"
	"path"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/slothsintel/AutoVisuals/internal/application/ports"
	"github.com/slothsintel/AutoVisuals/internal/config"
	"github.com/slothsintel/AutoVisuals/internal/domain/entity/asset"
	"github.com/slothsintel/AutoVisuals/internal/domain/entity/event"
	"github.com/slothsintel/AutoVisuals/internal/domain/service/catalog"
	"github.com/slothsintel/AutoVisuals/internal/domain/service/correlation"
	"github.com/slothsintel/AutoVisuals/internal/domain/service/grid"
	"github.com/slothsintel/AutoVisuals/internal/domain/service/naming"
	"github.com/slothsintel/AutoVisuals/internal/observability/types"
)

const (
	minWatchdogPeriod = 50 * time.Millisecond
	maxWatchdogPeriod = 5 * time.Second
)

// Deps are the collaborators a session is wired with. Assets receives the
// downloaded bytes, Prompts holds the category indexes the stamping side
// wrote, and Journal may be a noop when no database is configured.
type Deps struct {
	Source  ports.EventSource
	Assets  ports.ObjectStorage
	Prompts ports.ObjectStorage
	Fetcher ports.Fetcher
	Journal ports.Recorder
	Logger  types.Logger
	Metrics types.Metrics
}

// Session consumes gateway events for one channel and persists their
// attachments until a termination condition closes it. A session runs once;
// create a new one to listen again.
type Session struct {
	channelID   string
	limit       int
	idleTimeout time.Duration
	grid        config.GridConfig

	source  ports.EventSource
	assets  ports.ObjectStorage
	fetcher ports.Fetcher
	journal ports.Recorder

	tagger    *correlation.Tagger
	slugger   *catalog.Slugger
	indexes   *catalog.Cache
	allocator *naming.Allocator
	grids     *grid.Decomposer

	logger  types.Logger
	metrics types.Metrics

	mu           sync.Mutex
	state        State
	count        int
	lastActivity time.Time
	categories   map[string]int
	closeReason  string

	closeOnce sync.Once
	cancel    context.CancelFunc
}

// Summary is a snapshot of what a session has stored so far.
type Summary struct {
	State      State
	Downloaded int
	Categories map[string]int
	// Reason is empty until a termination condition fires.
	Reason string
}

// NewSession wires a session from its config and collaborators.
func NewSession(cfg config.IngestConfig, deps Deps) *Session {
	logger := deps.Logger.WithFields(types.Fields{
		"component":  "ingest_session",
		"channel_id": cfg.ChannelID,
	})

	return &Session{
		channelID:   cfg.ChannelID,
		limit:       cfg.Limit,
		idleTimeout: cfg.IdleTimeout,
		grid:        cfg.Grid,
		source:      deps.Source,
		assets:      deps.Assets,
		fetcher:     deps.Fetcher,
		journal:     deps.Journal,
		tagger:      correlation.NewTagger(),
		slugger:     catalog.NewSlugger(),
		indexes:     catalog.NewCache(deps.Prompts, logger),
		allocator:   naming.NewAllocator(deps.Assets),
		grids:       grid.NewDecomposer(deps.Assets, logger),
		logger:      logger,
		metrics:     deps.Metrics,
		state:       StateStarting,
		categories:  make(map[string]int),
	}
}

// Run subscribes to the event source and blocks until the session is closed,
// by the download limit, by the idle watchdog, by ctx, or by the source
// itself going away. It returns the subscription error, nil on a clean close.
func (s *Session) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if err := s.toState(StateListening); err != nil {
		s.mu.Unlock()
		return err
	}
	s.cancel = cancel
	s.lastActivity = time.Now()
	s.mu.Unlock()

	s.logger.Info(ctx, "session listening", types.Fields{
		"limit":        s.limit,
		"idle_timeout": s.idleTimeout.String(),
	})

	if s.idleTimeout > 0 {
		go s.watchdog(runCtx)
	}

	err := s.source.Subscribe(runCtx, s.handleEvent)

	reason := "event source closed"
	switch {
	case err != nil:
		reason = "event source failed"
	case ctx.Err() != nil:
		reason = "shutdown requested"
	}
	s.close(reason)

	// The subscription has drained, so the source can go away without
	// racing a final ack.
	if cerr := s.source.Close(); cerr != nil {
		s.logger.Warn(ctx, "event source close failed", types.Fields{"error": cerr.Error()})
	}

	s.mu.Lock()
	_ = s.toState(StateClosed)
	summary := s.summaryLocked()
	s.mu.Unlock()

	s.logger.Info(ctx, "session closed", types.Fields{
		"downloaded": summary.Downloaded,
		"categories": summary.Categories,
		"reason":     summary.Reason,
	})
	return err
}

// State returns the current lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Summary snapshots the session's progress. The categories map is a copy.
func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summaryLocked()
}

func (s *Session) summaryLocked() Summary {
	categories := make(map[string]int, len(s.categories))
	for category, n := range s.categories {
		categories[category] = n
	}
	return Summary{
		State:      s.state,
		Downloaded: s.count,
		Categories: categories,
		Reason:     s.closeReason,
	}
}

// Close terminates the session from outside. Idempotent.
func (s *Session) Close() {
	s.close("close requested")
}

// handleEvent is the subscription callback. It never returns an error:
// per-attachment failures are logged and skipped so one bad download does
// not push the whole event back onto the queue.
func (s *Session) handleEvent(ctx context.Context, msg *event.Message) error {
	if !s.beginEvent(msg) {
		s.logger.Debug(ctx, "event not admitted", types.Fields{
			"event_id":   msg.ID(),
			"channel_id": msg.ChannelID(),
		})
		return nil
	}
	defer s.endEvent()

	start := time.Now()
	s.metrics.StartOperation("event_handle")
	defer s.metrics.EndOperation("event_handle")

	date := msg.PartitionDate()
	fallback := s.slugger.Slugify(s.tagger.StripTags(msg.Content()))
	category, correlationID := s.resolveCategory(ctx, date, msg.Content(), fallback)
	partition := path.Join(date, category)

	logger := s.logger.WithFields(types.Fields{
		"event_id": msg.ID(),
		"date":     date,
		"category": category,
	})

	for i, attachment := range msg.Attachments() {
		if s.storeAttachment(ctx, logger, msg, i, attachment, partition, category, correlationID) {
			total := s.recordDownload(category)
			if s.limit > 0 && total >= s.limit {
				logger.Info(ctx, "download limit reached", types.Fields{"limit": s.limit})
				s.close("limit reached")
				break
			}
		}
	}

	s.metrics.RecordSuccess("event_handle")
	s.metrics.RecordDuration("event_handle", time.Since(start).Seconds())
	return nil
}

// resolveCategory maps the message to its category slug, which is both the
// partition directory and the stored filename stem. A tagged correlation id
// that the date's index knows wins, anything else falls back to the slug of
// the message content.
func (s *Session) resolveCategory(ctx context.Context, date, content, fallback string) (category, correlationID string) {
	id, ok := s.tagger.Extract(content)
	if !ok {
		return fallback, ""
	}
	if dir, found := s.indexes.IndexFor(ctx, date).Lookup(id); found {
		return dir, id
	}
	s.logger.Debug(ctx, "correlation id not indexed, using content slug", types.Fields{
		"correlation_id": id,
		"date":           date,
	})
	return fallback, id
}

// storeAttachment runs one attachment through the pipeline and reports
// whether bytes were stored. Failures and duplicates return false.
func (s *Session) storeAttachment(
	ctx context.Context,
	logger types.Logger,
	msg *event.Message,
	index int,
	attachment event.Attachment,
	partition, category, correlationID string,
) bool {
	seen, err := s.journal.Seen(ctx, msg.ID(), index)
	if err != nil {
		logger.Warn(ctx, "journal lookup failed", types.Fields{
			"attachment": index,
			"error":      err.Error(),
		})
	}
	if seen {
		logger.Debug(ctx, "attachment already ingested", types.Fields{"attachment": index})
		return false
	}

	payload, err := s.payloadFor(ctx, attachment)
	if err != nil {
		logger.Error(ctx, "attachment fetch failed", err, types.Fields{
			"attachment": index,
			"filename":   attachment.Filename(),
		})
		s.metrics.RecordError("attachment_store", "fetch")
		return false
	}

	key, err := s.allocator.Allocate(ctx, partition, category, naming.ExtensionFor(attachment.Filename()))
	if err != nil {
		logger.Error(ctx, "asset name allocation failed", err, types.Fields{"attachment": index})
		s.metrics.RecordError("attachment_store", "allocate")
		return false
	}

	err = s.assets.Put(ctx, key, bytes.NewReader(payload.Content()), ports.ObjectMetadata{
		ContentType:   payload.ContentType(),
		ContentLength: payload.Size(),
	})
	if err != nil {
		logger.Error(ctx, "attachment write failed", err, types.Fields{
			"attachment": index,
			"path":       key,
		})
		s.metrics.RecordError("attachment_store", "write")
		return false
	}

	tiles := 0
	if s.grid.Enabled && payload.IsImage() {
		written, err := s.grids.Split(ctx, key, s.grid.Rows, s.grid.Cols, s.grid.DeleteOriginal)
		if err != nil {
			logger.Warn(ctx, "grid split failed, keeping original", types.Fields{
				"path":  key,
				"error": err.Error(),
			})
		} else {
			tiles = len(written)
		}
	}

	s.journalStore(ctx, logger, msg.ID(), index, correlationID, category, key, payload)

	logger.Info(ctx, "attachment stored", types.Fields{
		"path":  key,
		"bytes": payload.Size(),
		"tiles": tiles,
	})
	s.metrics.RecordSuccess("attachment_store")
	s.metrics.RecordPayloadSize("attachment", payload.Size())
	return true
}

// payloadFor materializes the attachment bytes: inline data is used as is,
// anything else goes through the fetcher.
func (s *Session) payloadFor(ctx context.Context, attachment event.Attachment) (*asset.Payload, error) {
	if !attachment.HasInlineData() {
		return s.fetcher.Fetch(ctx, attachment.URL())
	}
	contentType := attachment.ContentType()
	if contentType == "" {
		contentType = mimetype.Detect(attachment.Data()).String()
	}
	return asset.NewPayload(attachment.Data(), "inline:"+attachment.Filename(), contentType)
}

// journalStore records the stored attachment. The journal is best effort: a
// failed write costs redelivery dedup, not the asset.
func (s *Session) journalStore(
	ctx context.Context,
	logger types.Logger,
	eventID string,
	index int,
	correlationID, category, key string,
	payload *asset.Payload,
) {
	counter := 0
	if parsed, ok := naming.ParseAssetName(path.Base(key)); ok {
		counter = parsed.Counter
	}
	rec := ports.IngestRecord{
		EventID:         eventID,
		AttachmentIndex: index,
		CorrelationID:   correlationID,
		Category:        category,
		StoragePath:     key,
		Counter:         counter,
		ContentHash:     payload.Hash(),
		SizeBytes:       payload.Size(),
		StoredAt:        time.Now().UTC(),
	}
	if err := s.journal.Record(ctx, rec); err != nil {
		logger.Warn(ctx, "journal record failed", types.Fields{
			"attachment": index,
			"error":      err.Error(),
		})
	}
}

// beginEvent decides admission and moves the session to downloading in one
// critical section. Events for other channels, without attachments, past the
// limit, or arriving during teardown are refused.
func (s *Session) beginEvent(msg *event.Message) bool {
	if !msg.InChannel(s.channelID) || len(msg.Attachments()) == 0 {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateListening {
		return false
	}
	if s.limit > 0 && s.count >= s.limit {
		return false
	}
	return s.toState(StateDownloading) == nil
}

// endEvent returns the session to listening unless teardown started while
// the event was being processed.
func (s *Session) endEvent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateDownloading {
		_ = s.toState(StateListening)
	}
}

// recordDownload bumps the stored count, tallies the category, and refreshes
// the idle clock. It returns the new total.
func (s *Session) recordDownload(category string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count++
	s.categories[category]++
	s.lastActivity = time.Now()
	return s.count
}

// toState applies a transition. Callers hold s.mu.
func (s *Session) toState(to State) error {
	if err := transition(s.state, to); err != nil {
		return err
	}
	s.state = to
	return nil
}

// close starts teardown exactly once: mark the session closing and cancel
// the subscription. Run observes the subscription ending, closes the source,
// and finishes the move to closed.
func (s *Session) close(reason string) {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		_ = s.toState(StateClosing)
		s.closeReason = reason
		cancel := s.cancel
		s.mu.Unlock()

		s.logger.Info(context.Background(), "session closing", types.Fields{"reason": reason})
		if cancel != nil {
			cancel()
			return
		}
		// Closed before Run: there is no subscription, so release the
		// source here.
		if err := s.source.Close(); err != nil {
			s.logger.Warn(context.Background(), "event source close failed", types.Fields{
				"error": err.Error(),
			})
		}
	})
}

// watchdog closes the session once no attachment has been stored for the
// idle timeout. It polls at a tenth of the timeout, clamped so short
// timeouts stay responsive and long ones stay cheap.
func (s *Session) watchdog(ctx context.Context) {
	period := s.idleTimeout / 10
	if period < minWatchdogPeriod {
		period = minWatchdogPeriod
	}
	if period > maxWatchdogPeriod {
		period = maxWatchdogPeriod
	}

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			idle := time.Since(s.lastActivity)
			state := s.state
			s.mu.Unlock()

			if state == StateClosing || state == StateClosed {
				return
			}
			if idle >= s.idleTimeout {
				s.logger.Info(ctx, "idle timeout reached", types.Fields{
					"idle": idle.String(),
				})
				s.close("idle timeout")
				return
			}
		}
	}
}
