package offline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/countsync/internal/core/domain"
)

// Client replays operations against the countsync API. It implements both
// Dispatcher and Prober.
type Client struct {
	baseURL    *url.URL
	businessID uuid.UUID
	userID     string
	deviceID   string
	http       *http.Client
	logger     *slog.Logger
}

var (
	_ Dispatcher = (*Client)(nil)
	_ Prober     = (*Client)(nil)
)

// ClientConfig holds what the client needs to reach the API
type ClientConfig struct {
	BaseURL    string
	BusinessID uuid.UUID
	UserID     string
	DeviceID   string
	Timeout    time.Duration
}

// NewClient creates an API client. A nil httpClient gets one with cfg.Timeout.
func NewClient(cfg ClientConfig, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid API URL %q", cfg.BaseURL)
	}
	if cfg.BusinessID == uuid.Nil {
		return nil, fmt.Errorf("business id is required")
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:    base,
		businessID: cfg.BusinessID,
		userID:     cfg.UserID,
		deviceID:   cfg.DeviceID,
		http:       httpClient,
		logger:     logger.With(slog.String("component", "client")),
	}, nil
}

// Probe succeeds when GET /health answers with a 2xx status
func (c *Client) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/health"), nil)
	if err != nil {
		return fmt.Errorf("failed to build health request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("health check returned %d", resp.StatusCode)
	}
	return nil
}

// Dispatch sends op and classifies the response
func (c *Client) Dispatch(ctx context.Context, op Operation) Outcome {
	method, path, body, err := c.route(op)
	if err != nil {
		return Terminal(0, err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), body)
	if err != nil {
		return Terminal(0, fmt.Sprintf("failed to build request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Business-ID", c.businessID.String())
	req.Header.Set("X-Request-ID", op.ID)
	if c.userID != "" {
		req.Header.Set("X-User-ID", c.userID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Transient(0, fmt.Sprintf("request failed: %v", err))
	}
	defer resp.Body.Close()

	outcome := classify(op, resp)
	c.logger.DebugContext(ctx, "operation dispatched",
		slog.String("operation_id", op.ID),
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.String("outcome", string(outcome.Kind)))
	return outcome
}

func (c *Client) route(op Operation) (method, path string, body io.Reader, err error) {
	switch op.Kind {
	case KindCount:
		payload, err := c.withDevice(op.Payload)
		if err != nil {
			return "", "", nil, err
		}
		return http.MethodPost, "/api/v1/inventory/counts", bytes.NewReader(payload), nil
	case KindProductCreate:
		return http.MethodPost, "/api/v1/products", bytes.NewReader(op.Payload), nil
	case KindProductUpdate:
		id := op.ProductID()
		if id == uuid.Nil {
			return "", "", nil, fmt.Errorf("product_update without id")
		}
		return http.MethodPut, "/api/v1/products/" + id.String(), bytes.NewReader(op.Payload), nil
	case KindProductDelete:
		id := op.ProductID()
		if id == uuid.Nil {
			return "", "", nil, fmt.Errorf("product_delete without id")
		}
		return http.MethodDelete, "/api/v1/products/" + id.String(), nil, nil
	}
	return "", "", nil, fmt.Errorf("%w: %q", ErrUnknownKind, op.Kind)
}

// withDevice stamps the device id into device_info unless the payload has one
func (c *Client) withDevice(payload json.RawMessage) (json.RawMessage, error) {
	if c.deviceID == "" {
		return payload, nil
	}

	var sub domain.CountSubmission
	if err := json.Unmarshal(payload, &sub); err != nil {
		return nil, fmt.Errorf("invalid count payload: %w", err)
	}
	if _, ok := sub.DeviceInfo["device_id"]; ok {
		return payload, nil
	}
	if sub.DeviceInfo == nil {
		sub.DeviceInfo = map[string]any{}
	}
	sub.DeviceInfo["device_id"] = c.deviceID
	return json.Marshal(sub)
}

func (c *Client) endpoint(path string) string {
	return c.baseURL.String() + path
}

// classify maps an HTTP response to an outcome. Deleting a product that is
// already gone counts as success so a replayed delete does not dead-letter.
func classify(op Operation, resp *http.Response) Outcome {
	status := resp.StatusCode
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	switch {
	case status >= 200 && status <= 299:
		return Accepted(status)

	case status == http.StatusConflict:
		var conflict struct {
			ConflictData domain.ConflictData `json:"conflict_data"`
		}
		if err := json.Unmarshal(body, &conflict); err != nil {
			return Terminal(status, "conflict with unreadable details")
		}
		return Conflicted(conflict.ConflictData)

	case status == http.StatusNotFound && op.Kind == KindProductDelete:
		return Accepted(status)

	case status == http.StatusRequestTimeout,
		status == http.StatusTooManyRequests,
		status >= 500:
		return Transient(status, errorMessage(status, body))

	default:
		// 400, 401, 403, 404, 422 and anything else the client cannot fix by waiting
		return Terminal(status, errorMessage(status, body))
	}
}

func errorMessage(status int, body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return fmt.Sprintf("%d %s", status, e.Error)
	}
	return fmt.Sprintf("%d %s", status, http.StatusText(status))
}
