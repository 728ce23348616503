package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"payments-service/internal/fault"
	"payments-service/internal/gateway"
	"payments-service/internal/logcontext"
	"payments-service/internal/message"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// SessionCreator opens a payment session with the gateway.
type SessionCreator interface {
	CreateSession(ctx context.Context) (*gateway.Session, error)
}

// ContractRelay validates a callback body and publishes the contract message.
type ContractRelay interface {
	Process(ctx context.Context, body []byte) (*message.Contract, error)
}

type Handler struct {
	gateway SessionCreator
	relay   ContractRelay
	logger  *slog.Logger
}

func New(gateway SessionCreator, relay ContractRelay, logger *slog.Logger) *Handler {
	return &Handler{gateway: gateway, relay: relay, logger: logger}
}

// Register mounts the payment routes. Both operations are POST-only; the
// callers are external services, not browser sessions.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /liveness", h.Liveness)
	mux.HandleFunc("POST /api/payments/start", h.StartPayment)
	mux.HandleFunc("POST /api/payments/callback", h.PaymentCallback)
}

func (h *Handler) Liveness(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) StartPayment(w http.ResponseWriter, r *http.Request) {
	ctx := logcontext.AppendCtx(r.Context(), slog.String("requestId", uuid.New().String()))

	session, err := h.gateway.CreateSession(ctx)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	h.writeJSON(ctx, w, http.StatusOK, map[string]any{
		"status":      "success",
		"payment_url": session.PaymentURL,
		"details":     session.Details,
	})
}

func (h *Handler) PaymentCallback(w http.ResponseWriter, r *http.Request) {
	ctx := logcontext.AppendCtx(r.Context(), slog.String("requestId", uuid.New().String()))

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(ctx, w, fault.Wrap(err, fault.Unexpected, "Failed to read request body"))
		return
	}

	msg, err := h.relay.Process(ctx, body)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	h.writeJSON(ctx, w, http.StatusOK, map[string]any{
		"status":       "received",
		"published":    true,
		"sent_message": msg,
	})
}

// writeError maps a classified failure to its HTTP status and JSON body.
// Caller faults get 400, everything else 500; no error escapes unhandled.
func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var f *fault.Fault
	if !errors.As(err, &f) {
		f = fault.Wrap(err, fault.Unexpected, err.Error())
	}

	status := http.StatusInternalServerError
	if f.Kind == fault.Validation {
		status = http.StatusBadRequest
	}

	h.logger.ErrorContext(ctx, "Request failed", "kind", f.Kind.String(), "error", f.Error())

	body := map[string]any{"error": f.Message}
	for k, v := range f.Details {
		body[k] = v
	}

	h.writeJSON(ctx, w, status, body)
}

func (h *Handler) writeJSON(ctx context.Context, w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.ErrorContext(ctx, "Error writing response", "error", err)
	}
}
