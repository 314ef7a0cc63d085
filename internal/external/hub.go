// Package external is the anti-corruption layer between the decision engine
// and the automation hub's REST API. All outbound calls go through one
// client that enforces consistent resilience patterns: circuit breaking,
// bounded retries with exponential backoff, and error mapping into
// types.AppError codes.
package external

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"rainguard/internal/types"
)

// RetryPolicy configures the retry behavior of the hub client.
type RetryPolicy struct {
	MaxRetries int
	MinWait    time.Duration
	MaxWait    time.Duration
}

// DefaultRetryPolicy returns sensible defaults for hub API calls. The hub is
// on the local network, so waits stay short: an evaluation cycle must finish
// well before the next tick.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 2,
		MinWait:    250 * time.Millisecond,
		MaxWait:    2 * time.Second,
	}
}

// HubClient talks to the automation hub's REST API. It implements both
// types.StateSource and types.NotificationService.
type HubClient struct {
	baseURL     string
	token       string
	client      *http.Client
	breaker     *gobreaker.CircuitBreaker[*http.Response]
	retryPolicy RetryPolicy
	logger      *slog.Logger
	sleepFn     func(time.Duration) // for testability; defaults to time.Sleep
}

// Compile-time assertions that HubClient satisfies the boundary contracts.
var (
	_ types.StateSource         = (*HubClient)(nil)
	_ types.NotificationService = (*HubClient)(nil)
)

// HubClientConfig holds the configuration for creating a HubClient.
type HubClientConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	Logger  *slog.Logger
}

// HubClientOption is a functional option for configuring a HubClient.
type HubClientOption func(*HubClient)

// WithSleepFunc overrides the sleep function used between retries.
// Intended for tests to avoid real delays.
func WithSleepFunc(fn func(time.Duration)) HubClientOption {
	return func(c *HubClient) {
		c.sleepFn = fn
	}
}

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(p RetryPolicy) HubClientOption {
	return func(c *HubClient) {
		c.retryPolicy = p
	}
}

// NewHubClient creates a HubClient with a circuit breaker that opens after
// five consecutive failures, matching the hub's behavior of going fully
// unreachable (rather than degrading) when it restarts.
func NewHubClient(cfg HubClientConfig, opts ...HubClientOption) *HubClient {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        "automation-hub",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})

	hc := &HubClient{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		token:       cfg.Token,
		client:      &http.Client{Timeout: cfg.Timeout},
		breaker:     cb,
		retryPolicy: DefaultRetryPolicy(),
		logger:      logger,
		sleepFn:     time.Sleep,
	}

	for _, opt := range opts {
		opt(hc)
	}

	return hc
}

// entityState mirrors the hub's GET /api/states/<entity_id> response.
type entityState struct {
	EntityID   string                     `json:"entity_id"`
	State      string                     `json:"state"`
	Attributes map[string]json.RawMessage `json:"attributes"`
}

// GetState returns the current state string of an entity. A 404 from the hub
// maps to ErrCodeSensorUnavailable so callers can apply the closed-by-default
// rule without inspecting transport details.
func (c *HubClient) GetState(ctx context.Context, entityID string) (string, error) {
	st, err := c.fetchEntity(ctx, entityID)
	if err != nil {
		return "", err
	}
	return st.State, nil
}

// GetAttribute returns one attribute of an entity as its raw string value.
// String attributes are unquoted; any other JSON shape is returned verbatim.
// A missing attribute maps to ErrCodeSensorUnavailable.
func (c *HubClient) GetAttribute(ctx context.Context, entityID string, attribute string) (string, error) {
	st, err := c.fetchEntity(ctx, entityID)
	if err != nil {
		return "", err
	}

	raw, ok := st.Attributes[attribute]
	if !ok {
		return "", types.NewAppError(types.ErrCodeSensorUnavailable,
			fmt.Sprintf("entity %s has no attribute %q", entityID, attribute), nil)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	return string(raw), nil
}

// Notify posts a message to the hub's notify service for the given target.
func (c *HubClient) Notify(ctx context.Context, target string, message string) error {
	body, err := json.Marshal(map[string]string{"message": message})
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalUnexpected,
			"failed to encode notify payload", err)
	}

	endpoint := fmt.Sprintf("%s/api/services/notify/%s", c.baseURL, url.PathEscape(target))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalUnexpected,
			"failed to build notify request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return types.NewAppError(types.ErrCodeNotifyDeliveryFailed,
			fmt.Sprintf("hub notify service returned %d for %s", resp.StatusCode, target), nil)
	}

	return nil
}

// fetchEntity retrieves and decodes the state object of a single entity.
func (c *HubClient) fetchEntity(ctx context.Context, entityID string) (*entityState, error) {
	endpoint := fmt.Sprintf("%s/api/states/%s", c.baseURL, url.PathEscape(entityID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected,
			"failed to build state request", err)
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, types.NewAppError(types.ErrCodeSensorUnavailable,
			fmt.Sprintf("entity %s not known to the hub", entityID), nil)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, types.NewAppError(types.ErrCodeHubAuth,
			fmt.Sprintf("hub rejected credentials (%d)", resp.StatusCode), nil)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, types.NewAppError(types.ErrCodeHubUnavailable,
			fmt.Sprintf("hub returned %d for entity %s", resp.StatusCode, entityID), nil)
	}

	var st entityState
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return nil, types.NewAppError(types.ErrCodeHubUnavailable,
			fmt.Sprintf("failed to decode state of entity %s", entityID), err)
	}

	return &st, nil
}

// do executes the HTTP request with bearer auth, circuit breaking, and retry
// on 5xx or network error. On success (any non-5xx status) the response is
// returned as-is and the caller closes the body.
func (c *HubClient) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+c.token)

	// Snapshot the body so it can be replayed on retries.
	var bodyBytes []byte
	if req.Body != nil {
		var err error
		bodyBytes, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalUnexpected,
				"failed to read request body for retry support", err)
		}
		req.Body.Close()
	}

	var lastErr error

	maxAttempts := 1 + c.retryPolicy.MaxRetries
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if bodyBytes != nil {
			req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
			req.ContentLength = int64(len(bodyBytes))
		}

		resp, err := c.breaker.Execute(func() (*http.Response, error) {
			r, doErr := c.client.Do(req)
			if doErr != nil {
				return nil, doErr
			}
			// 5xx counts as a failure for the circuit breaker.
			if r.StatusCode >= 500 {
				r.Body.Close()
				return nil, fmt.Errorf("hub returned %d", r.StatusCode)
			}
			return r, nil
		})

		if err == nil {
			return resp, nil
		}
		lastErr = err

		// An open breaker will not recover within this evaluation cycle.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			break
		}

		if attempt < maxAttempts-1 {
			wait := c.computeBackoff(attempt)
			c.logger.WarnContext(req.Context(), "hub request failed, retrying",
				"url", req.URL.Path,
				"attempt", attempt+1,
				"wait", wait,
				"error", err,
			)
			c.sleepFn(wait)
		}
	}

	return nil, types.NewAppError(types.ErrCodeHubUnavailable,
		fmt.Sprintf("hub request %s %s failed", req.Method, req.URL.Path), lastErr)
}

// computeBackoff returns the wait before the next retry: exponential backoff
// with full jitter, clamped to [0, min(MaxWait, MinWait * 2^attempt)].
func (c *HubClient) computeBackoff(attempt int) time.Duration {
	base := float64(c.retryPolicy.MinWait) * math.Pow(2, float64(attempt))
	maxWait := float64(c.retryPolicy.MaxWait)
	if base > maxWait {
		base = maxWait
	}
	return time.Duration(rand.Float64() * base)
}
