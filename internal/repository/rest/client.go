package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"

	"bookborrow-funnel/internal/logger"
	"bookborrow-funnel/internal/repository"
)

const serviceName = "cart-service"

// maxErrorBody caps how much of a failed response is kept in the error
const maxErrorBody = 512

type BreakerSettings struct {
	MaxConsecutiveFailures uint32
	OpenTimeout            time.Duration
	HalfOpenMaxRequests    uint32
}

// Client talks to the remote cart and catalog REST service. All calls go
// through one circuit breaker; 4xx answers do not count as failures.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
}

func NewClient(baseURL string, httpClient *http.Client, bs BreakerSettings) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	st := gobreaker.Settings{
		Name:        serviceName,
		MaxRequests: bs.HalfOpenMaxRequests,
		Timeout:     bs.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return bs.MaxConsecutiveFailures > 0 && counts.ConsecutiveFailures >= bs.MaxConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: isBreakerSuccess,
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		breaker:    gobreaker.NewCircuitBreaker[[]byte](st),
	}
}

func isBreakerSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var rce *repository.RemoteCallError
	if errors.As(err, &rce) {
		return rce.StatusCode >= 400 && rce.StatusCode < 500
	}
	return false
}

// do performs one request and returns the raw response body of a 2xx answer.
func (c *Client) do(ctx context.Context, op, method, path, credential string, body any) ([]byte, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to encode request: %w", op, err)
		}
	}

	requestID := uuid.NewString()
	logger.ExternalServiceCall(serviceName, op, "method", method, "path", path, "request_id", requestID)

	data, err := c.breaker.Execute(func() ([]byte, error) {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return nil, &repository.RemoteCallError{Op: op, Err: err}
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Request-ID", requestID)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if credential != "" {
			req.Header.Set("Authorization", "Bearer "+credential)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, &repository.RemoteCallError{Op: op, Err: err}
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, &repository.RemoteCallError{Op: op, StatusCode: resp.StatusCode, Err: err}
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			if len(raw) > maxErrorBody {
				raw = raw[:maxErrorBody]
			}
			return nil, &repository.RemoteCallError{
				Op:         op,
				StatusCode: resp.StatusCode,
				Err:        fmt.Errorf("unexpected response: %s", strings.TrimSpace(string(raw))),
			}
		}
		return raw, nil
	})
	if err != nil {
		var rce *repository.RemoteCallError
		if !errors.As(err, &rce) {
			// breaker open or half-open quota exhausted
			err = &repository.RemoteCallError{Op: op, Err: err}
		}
	}

	logger.ExternalServiceResult(serviceName, op, err, "request_id", requestID)
	return data, err
}

func decode(op string, data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return &repository.RemoteCallError{Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}
