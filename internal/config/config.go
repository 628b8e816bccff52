// Package config loads and validates the ingest pipeline configuration from
// the environment, with optional .env files for local development.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Adapter names accepted by the factories.
const (
	StorageAdapterFS = "fs"
	StorageAdapterS3 = "s3"

	GatewayAdapterAMQP = "amqp"
	GatewayAdapterSQS  = "sqs"
)

// Config holds the full configuration for one ingest process.
type Config struct {
	ServiceName string
	Environment string
	LogLevel    string

	Ingest  IngestConfig
	Gateway GatewayConfig
	Storage StorageConfig
	Fetch   FetchConfig
	Journal JournalConfig
	Metrics MetricsConfig
}

// IngestConfig drives the listening session itself.
type IngestConfig struct {
	// ChannelID is the chat channel the session accepts events from,
	// directly or through threads parented there.
	ChannelID string

	// DownloadRoot and PromptRoot are the asset and prompt store roots:
	// directories for the fs adapter, key prefixes for s3.
	DownloadRoot string
	PromptRoot   string

	// Limit stops the session after this many stored attachments.
	// Zero means unbounded.
	Limit int

	// IdleTimeout stops the session after this long without a download.
	// Zero disables the watchdog.
	IdleTimeout time.Duration

	Grid GridConfig
}

// GridConfig controls composite-image decomposition.
type GridConfig struct {
	Enabled        bool
	Rows           int
	Cols           int
	DeleteOriginal bool
}

// GatewayConfig selects and configures the event source.
type GatewayConfig struct {
	Adapter string

	AMQP AMQPConfig
	SQS  SQSConfig
}

type AMQPConfig struct {
	URL      string
	Queue    string
	Prefetch int
}

type SQSConfig struct {
	QueueURL    string
	Region      string
	WaitTime    time.Duration
	MaxMessages int
}

// StorageConfig selects the object store backing both the asset and the
// prompt roots.
type StorageConfig struct {
	Adapter string

	S3 S3Config
}

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// FetchConfig bounds attachment downloads.
type FetchConfig struct {
	Timeout time.Duration

	// MaxBytes caps the size of a single attachment.
	MaxBytes int64

	// MaxRetries is how many times a failed request is retried on
	// transport errors and 5xx responses.
	MaxRetries int

	UserAgent string
}

// JournalConfig enables the Postgres ingest journal. An empty DSN disables
// the journal entirely.
type JournalConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// MetricsConfig selects the metrics backend and exposition endpoint.
type MetricsConfig struct {
	Adapter             string
	ListenAddr          string
	CloudWatchNamespace string
	CloudWatchRegion    string
}

// Validate reports every configuration error at once so a broken deployment
// surfaces the full list instead of one field per restart.
func (c *Config) Validate() error {
	var problems []string

	if c.Ingest.ChannelID == "" {
		problems = append(problems, "AV_CHANNEL_ID is required")
	}
	if c.Ingest.Limit < 0 {
		problems = append(problems, "AV_LIMIT must not be negative")
	}
	if c.Ingest.IdleTimeout < 0 {
		problems = append(problems, "AV_IDLE_SECONDS must not be negative")
	}
	if c.Ingest.Grid.Enabled && (c.Ingest.Grid.Rows < 1 || c.Ingest.Grid.Cols < 1) {
		problems = append(problems, "grid rows and cols must be at least 1")
	}

	problems = append(problems, c.storageProblems()...)

	switch c.Gateway.Adapter {
	case GatewayAdapterAMQP:
		if c.Gateway.AMQP.URL == "" {
			problems = append(problems, "AMQP_URL is required for the amqp gateway adapter")
		}
		if c.Gateway.AMQP.Queue == "" {
			problems = append(problems, "AMQP_QUEUE is required for the amqp gateway adapter")
		}
	case GatewayAdapterSQS:
		if c.Gateway.SQS.QueueURL == "" {
			problems = append(problems, "SQS_QUEUE_URL is required for the sqs gateway adapter")
		}
		if c.Gateway.SQS.Region == "" {
			problems = append(problems, "SQS_REGION is required for the sqs gateway adapter")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown gateway adapter %q", c.Gateway.Adapter))
	}

	if c.Fetch.MaxBytes <= 0 {
		problems = append(problems, "FETCH_MAX_BYTES must be positive")
	}
	if c.Fetch.Timeout <= 0 {
		problems = append(problems, "FETCH_TIMEOUT must be positive")
	}
	if c.Fetch.MaxRetries < 0 {
		problems = append(problems, "FETCH_MAX_RETRIES must not be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// ValidateStamp checks only the subset the stamping producer touches: the
// storage adapter and the prompt root. The gateway, fetcher, and session
// settings stay unchecked because avstamp never uses them.
func (c *Config) ValidateStamp() error {
	problems := c.storageProblems()

	if c.Ingest.PromptRoot == "" {
		problems = append(problems, "AV_PROMPT_ROOT must not be empty")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) storageProblems() []string {
	var problems []string

	switch c.Storage.Adapter {
	case StorageAdapterFS:
	case StorageAdapterS3:
		if c.Storage.S3.Bucket == "" {
			problems = append(problems, "S3_BUCKET is required for the s3 storage adapter")
		}
		if c.Storage.S3.Region == "" && c.Storage.S3.Endpoint == "" {
			problems = append(problems, "S3_REGION or S3_ENDPOINT is required for the s3 storage adapter")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown storage adapter %q", c.Storage.Adapter))
	}

	return problems
}
