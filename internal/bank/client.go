package bank

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/exp/slog"
)

const maxBodySize = 1 << 20

// Config locates the acquiring bank.
type Config struct {
	BaseURL string
	// Timeout bounds a single attempt. Retries run inside Timeout plus the
	// total backoff of the retry policy.
	Timeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:8080",
		Timeout: 15 * time.Second,
	}
}

// Observer receives per-attempt telemetry. Outcome is "ok" or a Kind name.
type Observer interface {
	ObserveBankAttempt(outcome string, elapsed time.Duration)
	ObserveBankRetry(attempt int, backoff time.Duration)
}

// Client charges cards at the acquiring bank. It holds no per-call state and is
// safe for concurrent use.
type Client struct {
	cfg      Config
	policy   RetryPolicy
	http     *http.Client
	logger   *slog.Logger
	observer Observer
	sleep    func(ctx context.Context, d time.Duration) error
}

type Option func(*Client)

// WithHTTPClient replaces the default transport. Per-attempt timeouts still come
// from Config.Timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

func NewClient(cfg Config, policy RetryPolicy, logger *slog.Logger, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	c := &Client{
		cfg:    cfg,
		policy: policy,
		http: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 50,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: logger.With(slog.String("component", "bank-client")),
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Charge submits the payment to the bank, retrying transient failures according
// to the retry policy. Any returned error is a *Error.
func (c *Client) Charge(ctx context.Context, req PaymentRequest) (*PaymentResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Budget())
	defer cancel()

	var lastErr *Error
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			backoff := c.policy.Delay(attempt)
			c.logger.Warn("retrying bank request",
				slog.Int("attempt", attempt),
				slog.Duration("backoff", backoff),
				slog.String("kind", lastErr.Kind.String()),
			)
			if c.observer != nil {
				c.observer.ObserveBankRetry(attempt, backoff)
			}
			if err := c.sleep(ctx, backoff); err != nil {
				c.logger.Warn("bank retry budget exhausted", slog.Int("attempt", attempt), slog.Any("err", err))
				return nil, lastErr
			}
		}

		resp, err := c.attempt(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if attempt >= c.policy.retries() || !c.policy.ShouldRetry(err) {
			return nil, lastErr
		}
	}
}

// Budget is the worst-case duration of Charge: one timeout plus every backoff
// waited in full. Attempts share it, so a retry never outlives the call.
func (c *Client) Budget() time.Duration {
	return c.cfg.Timeout + c.policy.TotalBackoff()
}

func (c *Client) attempt(parent context.Context, req PaymentRequest) (*PaymentResponse, *Error) {
	ctx, cancel := context.WithTimeout(parent, c.cfg.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.post(ctx, req)

	if c.observer != nil {
		outcome := "ok"
		if err != nil {
			outcome = err.Kind.String()
		}
		c.observer.ObserveBankAttempt(outcome, time.Since(start))
	}
	return resp, err
}

func (c *Client) post(ctx context.Context, req PaymentRequest) (*PaymentResponse, *Error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, newError(KindProtocol, 0, err, "Error encoding bank request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/payments", bytes.NewReader(body))
	if err != nil {
		return nil, newError(KindTransport, 0, err, "Error communicating with bank")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, classifyTransport(err)
	}
	defer resp.Body.Close()

	status := resp.StatusCode
	switch {
	case status/100 == 2:
		var out PaymentResponse
		if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&out); err != nil {
			if ctx.Err() != nil {
				return nil, newError(KindTimeout, status, err, "Bank request timed out")
			}
			c.logger.Error("decoding bank response", slog.Int("status", status), slog.Any("err", err))
			return nil, newError(KindProtocol, status, err, "Error parsing bank response")
		}
		return &out, nil

	case status == http.StatusRequestTimeout:
		return nil, newError(KindTimeout, status, nil, "Bank request timed out")

	case status == http.StatusTooManyRequests || status/100 == 5:
		c.logger.Warn("bank service unavailable", slog.Int("status", status))
		return nil, newError(KindUnavailable, status, nil, "Bank service is currently unavailable")

	case status/100 == 4:
		var bankErr ErrorResponse
		// the bank may reject without a body
		_ = json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&bankErr)
		msg := strings.TrimSpace(bankErr.ErrorMessage)
		if msg == "" {
			msg = http.StatusText(status)
		}
		c.logger.Warn("bank returned client error", slog.Int("status", status), slog.String("error_message", msg))
		return nil, newError(KindRejected, status, nil, "Bank validation failed: %s", msg)

	default:
		c.logger.Error("unexpected response from bank", slog.Int("status", status))
		return nil, newError(KindProtocol, status, nil, "Unexpected response from bank: %d", status)
	}
}

func classifyTransport(err error) *Error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return newError(KindTimeout, 0, err, "Bank request timed out")
	}
	return newError(KindTransport, 0, err, "Error communicating with bank")
}
