package callback_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"payments-service/internal/callback"
	"payments-service/internal/fault"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPublisher struct {
	err       error
	published [][]byte
}

func (s *stubPublisher) Publish(_ context.Context, body []byte) error {
	if s.err != nil {
		return s.err
	}
	s.published = append(s.published, body)
	return nil
}

func validBody() []byte {
	return []byte(`{
		"requestId": "client-42",
		"equipmentId": 7,
		"rentalId": "rental-9",
		"amount": "30500",
		"startDate": "2026-09-01",
		"endDate": "2026-09-08"
	}`)
}

func faultOf(t *testing.T, err error) *fault.Fault {
	t.Helper()
	var f *fault.Fault
	require.True(t, errors.As(err, &f), "expected a classified fault, got %v", err)
	return f
}

func TestProcess_PublishesMappedMessage(t *testing.T) {
	publisher := &stubPublisher{}
	relay := callback.NewRelay(publisher, slog.Default())

	msg, err := relay.Process(context.Background(), validBody())

	require.NoError(t, err)
	require.Len(t, publisher.published, 1)

	var sent map[string]any
	require.NoError(t, json.Unmarshal(publisher.published[0], &sent))

	assert.Equal(t, map[string]any{
		"client":      "client-42",
		"equipment":   float64(7),
		"rental":      "rental-9",
		"total_price": "30500",
		"start_date":  "2026-09-01",
		"end_date":    "2026-09-08",
		"status":      "pending",
	}, sent)

	assert.Equal(t, "pending", msg.Status)
	assert.Equal(t, "client-42", msg.Client)
}

func TestProcess_MissingField(t *testing.T) {
	for _, field := range callback.RequiredFields {
		t.Run(field, func(t *testing.T) {
			var data map[string]any
			require.NoError(t, json.Unmarshal(validBody(), &data))
			delete(data, field)
			body, err := json.Marshal(data)
			require.NoError(t, err)

			publisher := &stubPublisher{}
			relay := callback.NewRelay(publisher, slog.Default())

			msg, err := relay.Process(context.Background(), body)

			assert.Nil(t, msg)
			assert.Empty(t, publisher.published)

			f := faultOf(t, err)
			assert.Equal(t, fault.Validation, f.Kind)
			assert.Equal(t, "Missing required fields", f.Message)
			assert.Equal(t, data, f.Details["received"])
		})
	}
}

func TestProcess_InvalidJSON(t *testing.T) {
	publisher := &stubPublisher{}
	relay := callback.NewRelay(publisher, slog.Default())

	msg, err := relay.Process(context.Background(), []byte("not json at all"))

	assert.Nil(t, msg)
	assert.Empty(t, publisher.published)

	f := faultOf(t, err)
	assert.Equal(t, fault.Validation, f.Kind)
	assert.Equal(t, "Invalid JSON", f.Message)
}

func TestProcess_PublishFailure(t *testing.T) {
	publisher := &stubPublisher{err: errors.New("dialing broker: connection refused")}
	relay := callback.NewRelay(publisher, slog.Default())

	msg, err := relay.Process(context.Background(), validBody())

	assert.Nil(t, msg)
	assert.Empty(t, publisher.published)

	f := faultOf(t, err)
	assert.Equal(t, fault.Transport, f.Kind)
	assert.Contains(t, f.Message, "connection refused")
}
