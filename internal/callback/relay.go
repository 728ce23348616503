package callback

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"payments-service/internal/fault"
	"payments-service/internal/message"

	"github.com/VictoriaMetrics/metrics"
)

// RequiredFields are the keys a callback body must carry, by exact name.
var RequiredFields = []string{
	"requestId", "equipmentId", "rentalId",
	"amount", "startDate", "endDate",
}

var (
	relayInvalidJSONCounter   = metrics.GetOrCreateCounter(`callback_relay_total{result="invalid_json"}`)
	relayMissingFieldsCounter = metrics.GetOrCreateCounter(`callback_relay_total{result="missing_fields"}`)
	relayPublishErrorCounter  = metrics.GetOrCreateCounter(`callback_relay_total{result="publish_error"}`)
	relaySuccessCounter       = metrics.GetOrCreateCounter(`callback_relay_total{result="success"}`)

	relayDurationHistogram = metrics.GetOrCreateHistogram(`callback_relay_duration_milliseconds`)
)

// Publisher is the durable delivery the relay hands a serialized contract
// message to.
type Publisher interface {
	Publish(ctx context.Context, body []byte) error
}

// Relay turns a gateway callback into exactly one contract message on the
// queue, or into a classified failure. It holds no state between calls.
type Relay struct {
	publisher Publisher
	logger    *slog.Logger
}

func NewRelay(publisher Publisher, logger *slog.Logger) *Relay {
	return &Relay{publisher: publisher, logger: logger}
}

// Process validates the raw callback body, maps it to a contract message and
// publishes it. A message is published if and only if the body is valid JSON
// and all required fields are present; values pass through untyped, exactly
// as received.
func (r *Relay) Process(ctx context.Context, body []byte) (*message.Contract, error) {
	startTime := time.Now()
	defer func() {
		relayDurationHistogram.Update(float64(time.Since(startTime).Milliseconds()))
	}()

	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		r.logger.WarnContext(ctx, "Callback body is not valid JSON", "error", err)
		relayInvalidJSONCounter.Inc()
		return nil, fault.Wrap(err, fault.Validation, "Invalid JSON")
	}

	for _, field := range RequiredFields {
		if _, ok := data[field]; !ok {
			r.logger.WarnContext(ctx, "Callback is missing required fields", "payload", data)
			relayMissingFieldsCounter.Inc()
			return nil, fault.New(fault.Validation, "Missing required fields").
				WithDetails("received", data)
		}
	}

	msg := &message.Contract{
		Client:     data["requestId"],
		Equipment:  data["equipmentId"],
		Rental:     data["rentalId"],
		TotalPrice: data["amount"],
		StartDate:  data["startDate"],
		EndDate:    data["endDate"],
		Status:     message.StatusPending,
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		relayPublishErrorCounter.Inc()
		return nil, fault.Wrap(err, fault.Unexpected, err.Error())
	}

	if err := r.publisher.Publish(ctx, payload); err != nil {
		relayPublishErrorCounter.Inc()
		return nil, fault.Wrap(err, fault.Transport, err.Error())
	}

	r.logger.InfoContext(ctx, "Published contract message", "message", msg)
	relaySuccessCounter.Inc()

	return msg, nil
}
