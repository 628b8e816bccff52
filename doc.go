/*
Package autovisuals contains an attachment-ingestion pipeline for
generated imagery posted to a chat channel.

The pipeline has two halves joined by a correlation contract:

  - avstamp (the producer) takes the structured prompt records an external
    generation stage emits, normalizes every prompt to the canonical
    "/imagine prompt:" form, attaches a unique [av:<id>] tag, and lays the
    records out as dated category partitions in the prompt store.
  - ingestd (the consumer) listens to chat gateway events for one channel,
    extracts the [av:<id>] tag echoed back in each message, resolves it
    against the partitions avstamp wrote, and persists every attachment
    into the matching category directory of the asset store.

Architecture

The repository follows a hexagonal layout with explicit ports:

	├── cmd/
	│   ├── ingestd/           # listener daemon
	│   └── avstamp/           # record stamping CLI
	├── internal/
	│   ├── domain/
	│   │   ├── entity/        # event, attachment, payload entities
	│   │   └── service/       # correlation codec, category index,
	│   │                      # filename allocator, grid decomposer
	│   ├── application/
	│   │   ├── ports/         # ObjectStorage, EventSource, Fetcher, Recorder
	│   │   ├── ingest/        # the listening session state machine
	│   │   └── stamp/         # the record stamping use case
	│   ├── infrastructure/
	│   │   ├── storage/       # fs and s3 object stores
	│   │   ├── gateway/       # amqp and sqs event sources
	│   │   ├── fetch/         # http attachment fetcher
	│   │   └── journal/       # postgres ingest journal
	│   ├── config/            # env-based configuration
	│   └── observability/     # logging and metrics provider
	└── doc.go

Storage layout

Both stores share a partition grammar rooted at a date:

	<download_root>/<YYYY-MM-DD>/<category_slug>/<category_slug>_<NNNN>.<ext>
	<prompt_root>/<YYYY-MM-DD>/<category_slug>/{meta.json,meta.csv,prompt.txt}

NNNN is a 4-digit counter local to its partition, so assets in a partition
share the partition's stem. When grid decomposition is enabled, a composite
image becomes <category_slug>_<NNNN>_<TT>.<ext> tiles.

Session lifecycle

An ingest session moves through starting, listening, downloading, closing
and closed. It terminates when the configured download limit is reached,
when no attachment has been stored for the idle timeout, or when the
process receives a shutdown signal. Gateway redeliveries are deduplicated
through the journal when a database is configured.

Observability

All components log structured JSON through zerolog and record operation
metrics through Prometheus or CloudWatch adapters. ingestd optionally
serves /metrics and /healthz on a configured listen address.
*/
package autovisuals
