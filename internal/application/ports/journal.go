package ports

import (
	"context"
	"time"
)

// IngestRecord is one stored attachment as the journal sees it.
type IngestRecord struct {
	EventID         string
	AttachmentIndex int
	CorrelationID   string
	Category        string
	StoragePath     string

	// Counter is the per-partition sequence number carried in the stored
	// filename.
	Counter int

	ContentHash string
	SizeBytes   int64
	StoredAt    time.Time
}

// Recorder journals every stored attachment and answers whether a given
// (event, attachment) pair was already ingested, which is how redelivered
// gateway messages avoid storing duplicates.
type Recorder interface {
	Record(ctx context.Context, rec IngestRecord) error
	Seen(ctx context.Context, eventID string, attachmentIndex int) (bool, error)
	Close() error
}
