// Package api is the dashboard's data fetch layer for the helpdesk backend.
//
// Every failed request raises exactly one error toast through the client's
// Notifier and returns an error; successful requests stay silent.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/opsboard/opsboard/internal/metrics"
	"github.com/opsboard/opsboard/internal/models"
	"github.com/opsboard/opsboard/internal/notify"
)

const (
	maxErrorBodySize = 1 << 20 // 1 MiB
	userAgent        = "opsboard"
	fallbackMessage  = "Request failed"
)

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Message    string
	Path       string
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %d %s", e.Path, e.StatusCode, e.Message)
}

// RequestOptions carries per-call request configuration.
type RequestOptions struct {
	Query  url.Values
	Header http.Header
	Body   io.Reader
}

type Client struct {
	BaseURL       string
	HTTP          *http.Client
	Header        http.Header
	Notifier      notify.Notifier
	ToastDuration time.Duration
}

// New creates a client for the backend at baseURL. A zero timeout leaves
// requests bounded only by their context.
func New(baseURL string, timeout time.Duration, notifier notify.Notifier) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return nil, errors.New("api base URL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("api base URL: %w", err)
	}
	if notifier == nil {
		notifier = notify.Discard{}
	}
	return &Client{
		BaseURL:  base,
		HTTP:     &http.Client{Timeout: timeout},
		Notifier: notifier,
	}, nil
}

// WithNotifier returns a shallow copy that reports failures to n.
func (c *Client) WithNotifier(n notify.Notifier) *Client {
	clone := *c
	if n == nil {
		n = notify.Discard{}
	}
	clone.Notifier = n
	return &clone
}

// Do performs the request and decodes a successful JSON body into out.
// A nil out discards the body.
func (c *Client) Do(ctx context.Context, method, path string, opts RequestOptions, out any) error {
	err := c.do(ctx, method, path, opts, out)
	if err != nil {
		c.notify(err)
	}
	return err
}

func (c *Client) do(ctx context.Context, method, path string, opts RequestOptions, out any) error {
	endpoint := metricEndpoint(path)
	start := time.Now()
	defer func() {
		metrics.APIRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	target, err := c.resolve(path, opts.Query)
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues(endpoint, "invalid").Inc()
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, target, opts.Body)
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues(endpoint, "invalid").Inc()
		return err
	}
	c.applyHeaders(req, opts.Header)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues(endpoint, "transport_error").Inc()
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.APIRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp, body),
			Path:       path,
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		metrics.APIRequestsTotal.WithLabelValues(endpoint, "ok").Inc()
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		metrics.APIRequestsTotal.WithLabelValues(endpoint, "decode_error").Inc()
		return fmt.Errorf("decode %s: %w", path, err)
	}
	metrics.APIRequestsTotal.WithLabelValues(endpoint, "ok").Inc()
	return nil
}

func (c *Client) notify(err error) {
	if c.Notifier == nil || err == nil {
		return
	}
	message := err.Error()
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		message = apiErr.Message
	}
	c.Notifier.Notify(message, notify.KindError, c.ToastDuration)
}

func (c *Client) resolve(path string, query url.Values) (string, error) {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return "", fmt.Errorf("build request url: %w", err)
	}
	if len(query) > 0 {
		q := u.Query()
		for key, values := range query {
			for _, v := range values {
				q.Add(key, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// applyHeaders layers defaults, client headers and per-call headers; later
// layers replace earlier values for the same key.
func (c *Client) applyHeaders(req *http.Request, extra http.Header) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	for _, layer := range []http.Header{c.Header, extra} {
		for key, values := range layer {
			req.Header.Del(key)
			for _, v := range values {
				req.Header.Add(key, v)
			}
		}
	}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP == nil {
		return http.DefaultClient
	}
	return c.HTTP
}

// errorMessage prefers the backend's {"detail": "..."} body. A body that is
// not JSON at all falls back to the response status text; any other JSON
// value without a usable detail string yields the generic message.
func errorMessage(resp *http.Response, body []byte) string {
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		if text := statusText(resp); text != "" {
			return text
		}
		return fallbackMessage
	}
	obj, ok := payload.(map[string]any)
	if !ok {
		return fallbackMessage
	}
	if detail, ok := obj["detail"].(string); ok {
		if detail = strings.TrimSpace(detail); detail != "" {
			return detail
		}
	}
	return fallbackMessage
}

func statusText(resp *http.Response) string {
	status := strings.TrimSpace(resp.Status)
	code := strconv.Itoa(resp.StatusCode)
	if text := strings.TrimSpace(strings.TrimPrefix(status, code)); text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

func metricEndpoint(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "/"
	}
	return path
}

// ServiceStats calls GET /api/services/stats.
func (c *Client) ServiceStats(ctx context.Context) (models.ServiceStats, error) {
	var out models.ServiceStats
	err := c.Do(ctx, http.MethodGet, "/api/services/stats", RequestOptions{}, &out)
	return out, err
}

// TicketStats calls GET /api/tickets/stats.
func (c *Client) TicketStats(ctx context.Context) (models.TicketStats, error) {
	var out models.TicketStats
	err := c.Do(ctx, http.MethodGet, "/api/tickets/stats", RequestOptions{}, &out)
	return out, err
}

// Services calls GET /api/services.
func (c *Client) Services(ctx context.Context) ([]models.Service, error) {
	var out []models.Service
	err := c.Do(ctx, http.MethodGet, "/api/services", RequestOptions{}, &out)
	return out, err
}

// Logs calls GET /api/logs?limit=N.
func (c *Client) Logs(ctx context.Context, limit int) ([]models.LogEntry, error) {
	var out []models.LogEntry
	opts := RequestOptions{}
	if limit > 0 {
		opts.Query = url.Values{"limit": {strconv.Itoa(limit)}}
	}
	err := c.Do(ctx, http.MethodGet, "/api/logs", opts, &out)
	return out, err
}

type TicketQuery struct {
	SortBy string
	Order  string
}

// Tickets calls GET /api/tickets with the given ordering.
func (c *Client) Tickets(ctx context.Context, q TicketQuery) ([]models.Ticket, error) {
	values := url.Values{}
	if s := strings.TrimSpace(q.SortBy); s != "" {
		values.Set("sort_by", s)
	}
	if o := strings.TrimSpace(q.Order); o != "" {
		values.Set("order", o)
	}
	var out []models.Ticket
	err := c.Do(ctx, http.MethodGet, "/api/tickets", RequestOptions{Query: values}, &out)
	return out, err
}
