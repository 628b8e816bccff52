// Package journal persists a row per ingested attachment, giving the
// pipeline a dedup check for redelivered events and an audit trail of what
// was stored where.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/slothsintel/AutoVisuals/internal/application/ports"
	"github.com/slothsintel/AutoVisuals/internal/config"
	"github.com/slothsintel/AutoVisuals/internal/observability/types"
)

const ingestTable = "ingested_assets"

// schema is applied at startup. The unique pair (event_id, attachment_index)
// is what makes redelivered gateway events idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS ingested_assets (
	id               BIGSERIAL PRIMARY KEY,
	event_id         TEXT        NOT NULL,
	attachment_index INTEGER     NOT NULL,
	correlation_id   TEXT        NOT NULL DEFAULT '',
	category         TEXT        NOT NULL,
	storage_path     TEXT        NOT NULL,
	counter          INTEGER     NOT NULL,
	content_hash     TEXT        NOT NULL,
	size_bytes       BIGINT      NOT NULL,
	stored_at        TIMESTAMPTZ NOT NULL,
	UNIQUE (event_id, attachment_index)
)`

// Postgres records ingested attachments in a PostgreSQL table.
type Postgres struct {
	db      *sqlx.DB
	qb      squirrel.StatementBuilderType
	logger  types.Logger
	metrics types.Metrics
}

// NewPostgres connects, verifies the connection and ensures the journal
// table exists.
func NewPostgres(ctx context.Context, cfg config.JournalConfig, logger types.Logger, metrics types.Metrics) (*Postgres, error) {
	db, err := sqlx.Connect("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("connecting to journal database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging journal database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensuring journal schema: %w", err)
	}

	logger.Info(ctx, "journal connected", types.Fields{
		"max_open_conns": cfg.MaxOpenConns,
	})

	return &Postgres{
		db:      db,
		qb:      squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		logger:  logger.WithFields(types.Fields{"component": "postgres_journal"}),
		metrics: metrics,
	}, nil
}

// Record journals one stored attachment. Re-recording the same pair updates
// the row in place, so a redelivered event that was stored again under a new
// path leaves the journal pointing at the latest copy.
func (p *Postgres) Record(ctx context.Context, rec ports.IngestRecord) error {
	start := time.Now()

	query := p.qb.Insert(ingestTable).
		Columns("event_id", "attachment_index", "correlation_id", "category",
			"storage_path", "counter", "content_hash", "size_bytes", "stored_at").
		Values(rec.EventID, rec.AttachmentIndex, rec.CorrelationID, rec.Category,
			rec.StoragePath, rec.Counter, rec.ContentHash, rec.SizeBytes, rec.StoredAt).
		Suffix(`ON CONFLICT (event_id, attachment_index) DO UPDATE SET
			correlation_id = EXCLUDED.correlation_id,
			category       = EXCLUDED.category,
			storage_path   = EXCLUDED.storage_path,
			counter        = EXCLUDED.counter,
			content_hash   = EXCLUDED.content_hash,
			size_bytes     = EXCLUDED.size_bytes,
			stored_at      = EXCLUDED.stored_at`)

	sqlQuery, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("building journal insert: %w", err)
	}

	if _, err := p.db.ExecContext(ctx, sqlQuery, args...); err != nil {
		p.logger.Error(ctx, "failed to journal attachment", err, types.Fields{
			"event_id": rec.EventID,
			"path":     rec.StoragePath,
		})
		p.metrics.RecordError("journal_record", "exec")
		return fmt.Errorf("recording %s: %w", rec.StoragePath, err)
	}

	p.metrics.RecordSuccess("journal_record")
	p.metrics.RecordDuration("journal_record", time.Since(start).Seconds())
	return nil
}

// Seen reports whether the attachment was journaled before.
func (p *Postgres) Seen(ctx context.Context, eventID string, attachmentIndex int) (bool, error) {
	query := p.qb.Select("1").
		From(ingestTable).
		Where(squirrel.Eq{"event_id": eventID, "attachment_index": attachmentIndex}).
		Limit(1)

	sqlQuery, args, err := query.ToSql()
	if err != nil {
		return false, fmt.Errorf("building journal lookup: %w", err)
	}

	var one int
	err = p.db.GetContext(ctx, &one, sqlQuery, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		p.metrics.RecordError("journal_seen", "query")
		return false, fmt.Errorf("checking journal for event %s: %w", eventID, err)
	}
	return true, nil
}

func (p *Postgres) Close() error {
	return p.db.Close()
}
