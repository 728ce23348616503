package broker

import (
	"context"
	"log/slog"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/pkg/errors"
)

var (
	publishConnectErrorCounter = metrics.GetOrCreateCounter(`broker_publish_total{result="connect_error"}`)
	publishErrorCounter        = metrics.GetOrCreateCounter(`broker_publish_total{result="publish_error"}`)
	publishSuccessCounter      = metrics.GetOrCreateCounter(`broker_publish_total{result="success"}`)

	publishDurationHistogram = metrics.GetOrCreateHistogram(`broker_publish_duration_milliseconds`)
)

// Publisher delivers one persistent message per call. Each call opens a
// fresh connection and closes it after the publish; nothing is pooled or
// reused across requests.
type Publisher struct {
	cfg    Config
	logger *slog.Logger
}

func NewPublisher(cfg Config, logger *slog.Logger) *Publisher {
	return &Publisher{cfg: cfg.withDefaults(), logger: logger}
}

// Publish routes the body directly to the durable queue with no exchange
// and the persistent delivery flag set. The publish is bounded by the
// blocked-connection timeout so broker backpressure fails the request
// instead of hanging it.
func (p *Publisher) Publish(ctx context.Context, body []byte) error {
	startTime := time.Now()
	defer func() {
		publishDurationHistogram.Update(float64(time.Since(startTime).Milliseconds()))
	}()

	ch, conn, err := Connect(p.cfg, p.logger)
	if err != nil {
		publishConnectErrorCounter.Inc()
		return err
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(ctx, p.cfg.BlockedTimeout)
	defer cancel()

	err = ch.PublishWithContext(
		ctx,
		"", // no exchange, direct-to-queue routing
		p.cfg.Queue,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			MessageId:    uuid.New().String(),
			Timestamp:    time.Now(),
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		p.logger.ErrorContext(ctx, "Failed to publish message", "queue", p.cfg.Queue, "error", err)
		publishErrorCounter.Inc()
		return errors.Wrapf(err, "publishing to queue %s", p.cfg.Queue)
	}

	publishSuccessCounter.Inc()
	return nil
}
