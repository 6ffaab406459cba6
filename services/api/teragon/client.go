package teragon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/3rww/rainfall-api/services/api/metrics"
)

// defaultMaxBody bounds how much of a response is buffered.
const defaultMaxBody = 64 << 20

const userAgent = "3rww-rainfall-api"

// ClientConfig tunes the outbound call.
type ClientConfig struct {
	Timeout time.Duration
	// RPS caps outbound requests per second. Zero disables the limiter.
	RPS float64
	// MaxBody is the largest response accepted, 64 MiB when zero. Larger
	// bodies fail instead of being cut short.
	MaxBody int64
}

// Client posts payloads built by an Adapter. Each Fetch makes at most one
// request; there are no retries.
type Client struct {
	adapter Adapter
	http    *http.Client
	cb      *gobreaker.CircuitBreaker[[]byte]
	limiter *rate.Limiter
	maxBody int64
	logger  *slog.Logger
}

// NewClient wires an adapter to an HTTP client guarded by a circuit breaker.
// The breaker opens once at least 10 calls in a minute saw 60% failures and
// probes again after 30 seconds.
func NewClient(adapter Adapter, cfg ClientConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		adapter: adapter,
		http:    &http.Client{Timeout: cfg.Timeout},
		maxBody: cfg.MaxBody,
		logger:  logger.With("component", "teragon", "adapter", adapter.Name()),
	}
	if c.maxBody <= 0 {
		c.maxBody = defaultMaxBody
	}
	if cfg.RPS > 0 {
		burst := int(cfg.RPS)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RPS), burst)
	}

	metrics.UpstreamBreakerState.Set(0)
	c.cb = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "teragon",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state change", "from", from.String(), "to", to.String())
			metrics.UpstreamBreakerState.Set(stateToFloat(to))
		},
	})
	return c
}

// Adapter returns the adapter the client posts through.
func (c *Client) Adapter() Adapter {
	return c.adapter
}

// Fetch posts req to the provider and returns the full response body.
func (c *Client) Fetch(ctx context.Context, req Request) ([]byte, error) {
	payload, err := c.adapter.Payload(req)
	if err != nil {
		return nil, err
	}
	endpoint := c.adapter.Endpoint(req.Kind)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			if ctx.Err() == nil {
				// the limiter refuses waits that would overrun the deadline
				err = fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
			}
			return nil, c.classify(err)
		}
	}

	start := time.Now()
	body, err := c.cb.Execute(func() ([]byte, error) {
		return c.post(ctx, endpoint, payload.Encode())
	})
	elapsed := time.Since(start)

	if err != nil {
		err = c.classify(err)
		metrics.RecordUpstream(string(req.Kind), outcome(err), elapsed, 0)
		c.logger.Warn("upstream request failed", "kind", req.Kind, "endpoint", endpoint, "elapsed", elapsed, "err", err)
		return nil, err
	}

	metrics.RecordUpstream(string(req.Kind), "ok", elapsed, len(body))
	c.logger.Debug("upstream request", "kind", req.Kind, "ids", len(req.IDs), "bytes", len(body), "elapsed", elapsed)
	return body, nil
}

func (c *Client) post(ctx context.Context, endpoint, form string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: unexpected status %s", ErrUpstreamUnavailable, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > c.maxBody {
		return nil, fmt.Errorf("%w: response too large, exceeds %d bytes", ErrUpstreamUnavailable, c.maxBody)
	}
	return body, nil
}

// classify maps transport errors onto ErrUpstreamTimeout or
// ErrUpstreamUnavailable.
func (c *Client) classify(err error) error {
	switch {
	case errors.Is(err, ErrUpstreamUnavailable), errors.Is(err, ErrUpstreamTimeout):
		return err
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrUpstreamTimeout, err)
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return fmt.Errorf("%w: %w", ErrUpstreamTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
}

func outcome(err error) string {
	switch {
	case errors.Is(err, ErrUpstreamTimeout):
		return "timeout"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "rejected"
	default:
		return "unavailable"
	}
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
