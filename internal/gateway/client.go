package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"payments-service/internal/config"
	"payments-service/internal/fault"

	"github.com/VictoriaMetrics/metrics"
	"github.com/pkg/errors"
)

const (
	defaultAPIURL    = "https://developers.flouci.com/api/generate_payment"
	defaultTimeoutMs = 10_000

	fixedAmount        = "30500"
	sessionTimeoutSecs = 1200
	trackingID         = "tracking_001"
)

var (
	initiationConfigErrorCounter    = metrics.GetOrCreateCounter(`payment_initiation_total{result="config_error"}`)
	initiationTransportErrorCounter = metrics.GetOrCreateCounter(`payment_initiation_total{result="transport_error"}`)
	initiationDecodeErrorCounter    = metrics.GetOrCreateCounter(`payment_initiation_total{result="decode_error"}`)
	initiationMissingLinkCounter    = metrics.GetOrCreateCounter(`payment_initiation_total{result="missing_link"}`)
	initiationSuccessCounter        = metrics.GetOrCreateCounter(`payment_initiation_total{result="success"}`)

	initiationDurationHistogram = metrics.GetOrCreateHistogram(`payment_initiation_duration_milliseconds`)
)

// Config holds the gateway credentials and the base URL the payer is sent
// back to after the hosted session. All three are required.
type Config struct {
	AppToken    string
	AppSecret   string
	RedirectURL string
}

func (c Config) Valid() bool {
	return c.AppToken != "" && c.AppSecret != "" && c.RedirectURL != ""
}

type sessionRequest struct {
	AppToken            string `json:"app_token"`
	AppSecret           string `json:"app_secret"`
	Amount              string `json:"amount"`
	AcceptCard          string `json:"accept_card"`
	SessionTimeoutSecs  int    `json:"session_timeout_secs"`
	SuccessLink         string `json:"success_link"`
	FailLink            string `json:"fail_link"`
	DeveloperTrackingID string `json:"developer_tracking_id"`
}

// Session is the outcome of a successful gateway call: the URL the browser
// is redirected to, plus the full decoded gateway response for the caller.
type Session struct {
	PaymentURL string
	Details    map[string]any
}

type Client struct {
	client *http.Client
	cfg    Config
	apiURL string
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	timeout := time.Duration(config.GetInt("GATEWAY_TIMEOUT_MS", defaultTimeoutMs)) * time.Millisecond
	return &Client{
		client: &http.Client{Timeout: timeout},
		cfg:    cfg,
		apiURL: config.GetEnv("GATEWAY_API_URL", defaultAPIURL),
		logger: logger,
	}
}

// CreateSession opens a payment session with the gateway and returns the
// redirect link. No outbound call is made when the configuration is
// incomplete. Credentials are never logged.
func (c *Client) CreateSession(ctx context.Context) (*Session, error) {
	startTime := time.Now()
	defer func() {
		initiationDurationHistogram.Update(float64(time.Since(startTime).Milliseconds()))
	}()

	if !c.cfg.Valid() {
		c.logger.ErrorContext(ctx, "Payment gateway configuration missing")
		initiationConfigErrorCounter.Inc()
		return nil, fault.New(fault.Configuration, "Payment gateway configuration error")
	}

	payload := sessionRequest{
		AppToken:            c.cfg.AppToken,
		AppSecret:           c.cfg.AppSecret,
		Amount:              fixedAmount,
		AcceptCard:          "true",
		SessionTimeoutSecs:  sessionTimeoutSecs,
		SuccessLink:         c.cfg.RedirectURL + "?status=success",
		FailLink:            c.cfg.RedirectURL + "?status=fail",
		DeveloperTrackingID: trackingID,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		initiationTransportErrorCounter.Inc()
		return nil, fault.Wrap(err, fault.Unexpected, "Payment gateway communication error")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		initiationTransportErrorCounter.Inc()
		return nil, fault.Wrap(err, fault.Unexpected, "Payment gateway communication error")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.ErrorContext(ctx, "Gateway request failed", "error", err)
		initiationTransportErrorCounter.Inc()
		return nil, fault.Wrap(err, fault.Transport, "Payment gateway communication error").
			WithDetails("details", err.Error())
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.ErrorContext(ctx, "Error reading gateway response", "error", err)
		initiationTransportErrorCounter.Inc()
		return nil, fault.Wrap(err, fault.Transport, "Payment gateway communication error").
			WithDetails("details", err.Error())
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.ErrorContext(ctx, "Gateway returned error status", "status", resp.Status)
		initiationTransportErrorCounter.Inc()
		return nil, fault.Wrap(errors.Errorf("error response: %s", resp.Status), fault.Transport,
			"Payment gateway communication error").
			WithDetails("details", resp.Status)
	}

	var decoded map[string]any
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		c.logger.ErrorContext(ctx, "Invalid JSON response from gateway", "error", err)
		initiationDecodeErrorCounter.Inc()
		return nil, fault.Wrap(err, fault.Protocol, "Invalid response from payment gateway").
			WithDetails("raw_response", string(respBody))
	}

	link := extractLink(decoded)
	if link == "" {
		// The gateway answered 2xx but broke its own contract. Logged
		// separately from transport and decode failures.
		c.logger.ErrorContext(ctx, "No payment URL in gateway response", "response", decoded)
		initiationMissingLinkCounter.Inc()
		return nil, fault.New(fault.Protocol, "No payment URL returned by the gateway").
			WithDetails("details", decoded)
	}

	c.logger.InfoContext(ctx, "Payment session initiated successfully")
	initiationSuccessCounter.Inc()

	return &Session{PaymentURL: link, Details: decoded}, nil
}

func extractLink(decoded map[string]any) string {
	result, ok := decoded["result"].(map[string]any)
	if !ok {
		return ""
	}
	link, _ := result["link"].(string)
	return link
}
