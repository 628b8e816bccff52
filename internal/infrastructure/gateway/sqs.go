package gateway

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/slothsintel/AutoVisuals/internal/application/ports"
	"github.com/slothsintel/AutoVisuals/internal/config"
	"github.com/slothsintel/AutoVisuals/internal/observability/types"
)

// receiveBackoff is how long the SQS loop pauses after a failed receive
// before polling again.
const receiveBackoff = time.Second

// SQS consumes gateway events by long-polling an SQS queue. A handled event
// is deleted from the queue; a failed one is left to reappear after the
// visibility timeout, which is the SQS equivalent of a requeue.
type SQS struct {
	client      *sqs.Client
	queueURL    string
	waitTime    time.Duration
	maxMessages int32
	logger      types.Logger
	metrics     types.Metrics

	closeOnce sync.Once
	closed    chan struct{}
}

func NewSQS(ctx context.Context, cfg config.SQSConfig, logger types.Logger, metrics types.Metrics) (*SQS, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("building aws config: %w", err)
	}

	// SQS caps a single receive at 10 messages.
	maxMessages := cfg.MaxMessages
	if maxMessages < 1 {
		maxMessages = 1
	}
	if maxMessages > 10 {
		maxMessages = 10
	}

	logger.Info(ctx, "sqs gateway initialized", types.Fields{
		"queue_url": cfg.QueueURL,
		"region":    cfg.Region,
	})

	return &SQS{
		client:      sqs.NewFromConfig(awsCfg),
		queueURL:    cfg.QueueURL,
		waitTime:    cfg.WaitTime,
		maxMessages: int32(maxMessages),
		logger:      logger.WithFields(types.Fields{"component": "sqs_gateway"}),
		metrics:     metrics,
		closed:      make(chan struct{}),
	}, nil
}

// Subscribe polls for events until the context is cancelled or Close is
// called. Receive failures are logged and retried after a short pause, so a
// broker hiccup does not kill the session.
func (g *SQS) Subscribe(ctx context.Context, handler ports.EventHandler) error {
	g.logger.Info(ctx, "consuming gateway events", types.Fields{"queue_url": g.queueURL})

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-g.closed:
			return nil
		default:
		}

		out, err := g.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(g.queueURL),
			MaxNumberOfMessages: g.maxMessages,
			WaitTimeSeconds:     int32(g.waitTime / time.Second),
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			g.logger.Error(ctx, "receive failed", err, types.Fields{"queue_url": g.queueURL})
			g.metrics.RecordError("event_consume", "receive")
			select {
			case <-time.After(receiveBackoff):
			case <-ctx.Done():
				return nil
			case <-g.closed:
				return nil
			}
			continue
		}

		for _, message := range out.Messages {
			g.handleMessage(ctx, message, handler)
		}
	}
}

func (g *SQS) handleMessage(ctx context.Context, message sqstypes.Message, handler ports.EventHandler) {
	start := time.Now()

	msg, dropped, err := decodeEvent([]byte(aws.ToString(message.Body)))
	if err != nil {
		// Undecodable payloads would reappear forever, delete them and leave
		// the audit trail to the log.
		g.logger.Warn(ctx, "discarding undecodable event", types.Fields{"error": err.Error()})
		g.metrics.RecordError("event_consume", "decode")
		g.deleteMessage(ctx, message)
		return
	}
	if dropped > 0 {
		g.logger.Warn(ctx, "dropped invalid attachments", types.Fields{
			"event_id": msg.ID(),
			"dropped":  dropped,
		})
	}

	if err := handler(ctx, msg); err != nil {
		g.logger.Error(ctx, "event handling failed", err, types.Fields{"event_id": msg.ID()})
		g.metrics.RecordError("event_consume", "handle")
		return
	}

	g.deleteMessage(ctx, message)
	g.metrics.RecordSuccess("event_consume")
	g.metrics.RecordDuration("event_consume", time.Since(start).Seconds())
}

func (g *SQS) deleteMessage(ctx context.Context, message sqstypes.Message) {
	// A message that reached this point was consumed. The delete must
	// outlive ctx, or a handler that closes the session would leave its
	// own message to reappear after the visibility timeout.
	_, err := g.client.DeleteMessage(context.WithoutCancel(ctx), &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(g.queueURL),
		ReceiptHandle: message.ReceiptHandle,
	})
	if err != nil {
		g.logger.Error(ctx, "failed to delete message", err, types.Fields{"queue_url": g.queueURL})
	}
}

// Close stops the polling loop. The current long poll finishes first, so
// shutdown can take up to the configured wait time.
func (g *SQS) Close() error {
	g.closeOnce.Do(func() {
		close(g.closed)
	})
	return nil
}
