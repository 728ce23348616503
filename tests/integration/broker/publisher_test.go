package broker

import (
	"context"
	"log"
	"log/slog"
	"testing"
	"time"

	"payments-service/internal/broker"
	"payments-service/tests/testhelpers"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type PublisherTestSuite struct {
	suite.Suite
	container *testhelpers.RabbitMQContainer
	cfg       broker.Config
	ctx       context.Context
}

func (s *PublisherTestSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := testhelpers.CreateRabbitMQContainer(s.ctx)
	if err != nil {
		log.Fatal(err)
	}
	s.container = container

	s.cfg = broker.Config{
		Host:           container.Host,
		Port:           container.Port,
		Queue:          broker.DefaultQueue,
		Heartbeat:      600 * time.Second,
		BlockedTimeout: 30 * time.Second,
	}
}

func (s *PublisherTestSuite) TearDownSuite() {
	if err := s.container.Terminate(s.ctx); err != nil {
		log.Fatalf("error terminating rabbitmq container: %s", err)
	}
}

func (s *PublisherTestSuite) TestPublish_LandsOnDurableQueue() {
	t := s.T()

	publisher := broker.NewPublisher(s.cfg, slog.Default())
	body := []byte(`{"client":"client-42","equipment":"eq-1","rental":"rental-9","total_price":"30500","start_date":"2026-09-01","end_date":"2026-09-08","status":"pending"}`)

	err := publisher.Publish(s.ctx, body)
	assert.NoError(t, err)

	ch, conn, err := broker.Connect(s.cfg, slog.Default())
	assert.NoError(t, err)
	defer conn.Close()

	var delivery amqp.Delivery
	var ok bool
	for i := 0; i < 50; i++ {
		delivery, ok, err = ch.Get(s.cfg.Queue, true)
		assert.NoError(t, err)
		if ok {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	assert.True(t, ok, "expected a message on the queue")
	assert.JSONEq(t, string(body), string(delivery.Body))
	assert.Equal(t, uint8(amqp.Persistent), delivery.DeliveryMode)
	assert.Equal(t, "application/json", delivery.ContentType)
	assert.NotEmpty(t, delivery.MessageId)
}

func (s *PublisherTestSuite) TestPublish_BrokerUnreachable() {
	t := s.T()

	cfg := s.cfg
	cfg.Port = 1 // nothing listens there

	publisher := broker.NewPublisher(cfg, slog.Default())
	err := publisher.Publish(s.ctx, []byte(`{"status":"pending"}`))

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "dialing broker")
}

func (s *PublisherTestSuite) TestConnect_QueueDeclareIsIdempotent() {
	t := s.T()

	for i := 0; i < 2; i++ {
		ch, conn, err := broker.Connect(s.cfg, slog.Default())
		assert.NoError(t, err)
		assert.NotNil(t, ch)
		conn.Close()
	}
}

func TestPublisherTestSuite(t *testing.T) {
	suite.Run(t, new(PublisherTestSuite))
}
