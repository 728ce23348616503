package broker

import (
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/pkg/errors"
)

const (
	DefaultQueue = "generate_contract"

	defaultHeartbeat      = 600 * time.Second
	defaultBlockedTimeout = 300 * time.Second
)

// Config locates the broker and names the durable queue contract messages
// land on.
type Config struct {
	Host           string
	Port           int
	Queue          string
	Heartbeat      time.Duration
	BlockedTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Queue == "" {
		c.Queue = DefaultQueue
	}
	if c.Heartbeat == 0 {
		c.Heartbeat = defaultHeartbeat
	}
	if c.BlockedTimeout == 0 {
		c.BlockedTimeout = defaultBlockedTimeout
	}
	return c
}

func (c Config) url() string {
	return fmt.Sprintf("amqp://guest:guest@%s:%d/", c.Host, c.Port)
}

// Connect dials the broker, opens a channel and declares the durable queue.
// Declaring an existing durable queue with the same properties is a no-op;
// the broker rejects a declaration with conflicting properties and that
// error is surfaced as-is. No retry, no backoff: the caller decides how a
// failure is reported.
func Connect(cfg Config, logger *slog.Logger) (*amqp.Channel, *amqp.Connection, error) {
	cfg = cfg.withDefaults()

	conn, err := amqp.DialConfig(cfg.url(), amqp.Config{
		Heartbeat:  cfg.Heartbeat,
		Properties: amqp.NewConnectionProperties(),
	})
	if err != nil {
		logger.Error("Failed to connect to broker", "host", cfg.Host, "port", cfg.Port, "error", err)
		return nil, nil, errors.Wrap(err, "dialing broker")
	}

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("Failed to open broker channel", "error", err)
		conn.Close()
		return nil, nil, errors.Wrap(err, "opening channel")
	}

	_, err = ch.QueueDeclare(
		cfg.Queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		logger.Error("Failed to declare queue", "queue", cfg.Queue, "error", err)
		conn.Close()
		return nil, nil, errors.Wrapf(err, "declaring queue %s", cfg.Queue)
	}

	return ch, conn, nil
}
