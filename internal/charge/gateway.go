package charge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"

	"github.com/mmynk/splitcharge/internal/middleware"
)

const (
	defaultGatewayTimeout = 15 * time.Second
	defaultRetryAttempts  = 3
	defaultRetryDelay     = 500 * time.Millisecond
	maxErrorBody          = 512
)

// ErrGateway is returned when the gateway rejects a charge or cannot be reached.
var ErrGateway = errors.New("charge gateway error")

// GatewayConfig configures a GatewaySink.
type GatewayConfig struct {
	URL           string
	Timeout       time.Duration
	RetryAttempts uint
	RetryDelay    time.Duration
}

// GatewaySink submits charge requests to a payment gateway over HTTP.
//
// Each charge is POSTed as JSON with a bearer token and an idempotency key.
// Transport errors and 5xx/429 responses are retried with exponential backoff
// using the same idempotency key; other 4xx responses fail immediately.
type GatewaySink struct {
	client   *http.Client
	url      string
	attempts uint
	delay    time.Duration
}

type chargeRequest struct {
	Handle         string `json:"handle"`
	Amount         string `json:"amount"`
	Note           string `json:"note"`
	IdempotencyKey string `json:"idempotency_key"`
}

// NewGatewaySink creates a sink posting to cfg.URL, authenticated by tokens.
func NewGatewaySink(cfg GatewayConfig, tokens middleware.TokenProvider) *GatewaySink {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultGatewayTimeout
	}
	if cfg.RetryAttempts == 0 {
		cfg.RetryAttempts = defaultRetryAttempts
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}

	return &GatewaySink{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: middleware.LoggingTransport(middleware.BearerTransport(tokens, nil)),
		},
		url:      cfg.URL,
		attempts: cfg.RetryAttempts,
		delay:    cfg.RetryDelay,
	}
}

// Charge submits c, retrying transient failures.
func (s *GatewaySink) Charge(ctx context.Context, c Charge) error {
	body, err := json.Marshal(chargeRequest{
		Handle:         c.Handle,
		Amount:         c.Amount.StringFixed(2),
		Note:           c.Note,
		IdempotencyKey: uuid.NewString(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode charge: %w", err)
	}

	err = retry.Do(
		func() error {
			return s.post(ctx, body)
		},
		retry.Context(ctx),
		retry.Attempts(s.attempts),
		retry.Delay(s.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			slog.Debug("Retrying charge",
				"handle", c.Handle,
				"attempt", n+1,
				"max_attempts", s.attempts,
				"error", err,
			)
		}),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrGateway, err)
	}

	slog.Info("Charge submitted", "handle", c.Handle, "amount", c.Amount.StringFixed(2))
	return nil
}

func (s *GatewaySink) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return retry.Unrecoverable(fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	statusErr := fmt.Errorf("gateway returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
		return statusErr
	}
	return retry.Unrecoverable(statusErr)
}
