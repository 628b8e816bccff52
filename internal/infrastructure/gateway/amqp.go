package gateway

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/slothsintel/AutoVisuals/internal/application/ports"
	"github.com/slothsintel/AutoVisuals/internal/config"
	"github.com/slothsintel/AutoVisuals/internal/observability/types"
)

// AMQP consumes gateway events from a RabbitMQ queue with manual
// acknowledgements: an event is acked only after the handler returns, and a
// failed event is requeued once before being dropped to the broker's
// dead-letter handling.
type AMQP struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
	queue   string
	logger  types.Logger
	metrics types.Metrics

	closeOnce sync.Once
	closed    chan struct{}
	closeErr  error
}

// NewAMQP connects and opens a channel immediately, so a bad broker URL
// fails at startup.
func NewAMQP(cfg config.AMQPConfig, logger types.Logger, metrics types.Metrics) (*AMQP, error) {
	conn, err := amqp091.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connecting to broker: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening channel: %w", err)
	}

	if cfg.Prefetch > 0 {
		if err := channel.Qos(cfg.Prefetch, 0, false); err != nil {
			channel.Close()
			conn.Close()
			return nil, fmt.Errorf("setting qos: %w", err)
		}
	}

	logger.Info(context.Background(), "amqp gateway connected", types.Fields{
		"queue":    cfg.Queue,
		"prefetch": cfg.Prefetch,
	})

	return &AMQP{
		conn:    conn,
		channel: channel,
		queue:   cfg.Queue,
		logger:  logger.WithFields(types.Fields{"component": "amqp_gateway"}),
		metrics: metrics,
		closed:  make(chan struct{}),
	}, nil
}

// Subscribe declares the queue and processes deliveries one at a time until
// the context is cancelled or Close is called.
func (g *AMQP) Subscribe(ctx context.Context, handler ports.EventHandler) error {
	q, err := g.channel.QueueDeclare(
		g.queue, // name
		true,    // durable
		false,   // delete when unused
		false,   // exclusive
		false,   // no-wait
		nil,     // arguments
	)
	if err != nil {
		return fmt.Errorf("declaring queue %s: %w", g.queue, err)
	}

	deliveries, err := g.channel.Consume(
		q.Name, // queue
		"",     // consumer tag (auto-generated)
		false,  // auto-ack off, we ack after handling
		false,  // exclusive
		false,  // no-local
		false,  // no-wait
		nil,    // args
	)
	if err != nil {
		return fmt.Errorf("starting consumer on %s: %w", g.queue, err)
	}

	g.logger.Info(ctx, "consuming gateway events", types.Fields{"queue": q.Name})

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-g.closed:
			return nil
		case delivery, ok := <-deliveries:
			if !ok {
				select {
				case <-g.closed:
					return nil
				default:
					return fmt.Errorf("delivery channel for %s closed unexpectedly", g.queue)
				}
			}
			g.handleDelivery(ctx, delivery, handler)
		}
	}
}

func (g *AMQP) handleDelivery(ctx context.Context, delivery amqp091.Delivery, handler ports.EventHandler) {
	start := time.Now()

	msg, dropped, err := decodeEvent(delivery.Body)
	if err != nil {
		// Undecodable payloads never heal, drop without requeue.
		g.logger.Warn(ctx, "discarding undecodable event", types.Fields{"error": err.Error()})
		g.metrics.RecordError("event_consume", "decode")
		if err := delivery.Nack(false, false); err != nil {
			g.logger.Error(ctx, "failed to nack event", err, nil)
		}
		return
	}
	if dropped > 0 {
		g.logger.Warn(ctx, "dropped invalid attachments", types.Fields{
			"event_id": msg.ID(),
			"dropped":  dropped,
		})
	}

	if err := handler(ctx, msg); err != nil {
		requeue := !delivery.Redelivered
		g.logger.Error(ctx, "event handling failed", err, types.Fields{
			"event_id": msg.ID(),
			"requeued": requeue,
		})
		g.metrics.RecordError("event_consume", "handle")
		if err := delivery.Nack(false, requeue); err != nil {
			g.logger.Error(ctx, "failed to nack event", err, types.Fields{"event_id": msg.ID()})
		}
		return
	}

	if err := delivery.Ack(false); err != nil {
		g.logger.Error(ctx, "failed to ack event", err, types.Fields{"event_id": msg.ID()})
		return
	}

	g.metrics.RecordSuccess("event_consume")
	g.metrics.RecordDuration("event_consume", time.Since(start).Seconds())
}

// Close shuts the channel and connection down. Safe to call more than once
// and concurrently with Subscribe.
func (g *AMQP) Close() error {
	g.closeOnce.Do(func() {
		close(g.closed)
		if g.channel != nil {
			g.channel.Close()
		}
		if g.conn != nil {
			g.closeErr = g.conn.Close()
		}
	})
	return g.closeErr
}
