// Package maxapi is a client for the MAX Bot API.
//
// Every method maps onto one REST endpoint and takes a context. Non-2xx
// responses are returned as *APIError. Long polling is provided by Poller,
// reachable through Client.RunPolling.
package maxapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/m3rciful/maxbot/core/logger"
	"github.com/m3rciful/maxbot/core/metrics"
)

const (
	// DefaultBaseURL is the production MAX Bot API endpoint.
	DefaultBaseURL = "https://platform-api.max.ru"
	// DefaultTimeout bounds a regular (non long-poll) API call.
	DefaultTimeout = 30 * time.Second

	maxErrorBody = 4 << 10
)

// ErrEmptyToken is returned by NewClient when no token is supplied.
var ErrEmptyToken = errors.New("maxapi: empty token")

// APIError is returned for any non-2xx response.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
	// Populated when the body is a MAX {code, message} error document.
	ErrCode string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("maxapi: %s: HTTP %d: %s", e.Op, e.StatusCode, e.Body)
}

// Code returns a stable identifier for logs.
func (e *APIError) Code() string {
	if e.ErrCode != "" {
		return "MAX_" + strings.ToUpper(e.ErrCode)
	}
	return "HTTP_" + strconv.Itoa(e.StatusCode)
}

// Retryable reports whether the call may succeed when repeated.
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient replaces the default retrying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithTimeout sets the per-call deadline applied when the context has none.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// Client talks to the MAX Bot API. It is safe for concurrent use.
type Client struct {
	token   string
	baseURL string
	http    *http.Client
	timeout time.Duration

	pollerOnce sync.Once
	poller     *Poller
}

// NewClient builds a client authenticated with token.
func NewClient(token string, opts ...Option) (*Client, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrEmptyToken
	}
	c := &Client{
		token:   token,
		baseURL: DefaultBaseURL,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = BuildHTTPClient()
	}
	return c, nil
}

// BaseURL returns the configured endpoint.
func (c *Client) BaseURL() string { return c.baseURL }

type call struct {
	op      string
	method  string
	path    string
	query   url.Values
	body    any
	out     any
	timeout time.Duration
}

func (c *Client) resolve(path string, query url.Values) string {
	target := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		target = c.baseURL + path
	}
	if len(query) == 0 {
		return target
	}
	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}
	return target + sep + query.Encode()
}

func (c *Client) do(ctx context.Context, cl call) error {
	var body io.Reader
	contentType := ""
	if cl.body != nil {
		data, err := json.Marshal(cl.body)
		if err != nil {
			return fmt.Errorf("maxapi: %s: encode body: %w", cl.op, err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.send(ctx, cl, body, contentType)
}

func (c *Client) send(ctx context.Context, cl call, body io.Reader, contentType string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	timeout := cl.timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	if _, ok := ctx.Deadline(); !ok && timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.resolve(cl.path, cl.query), body)
	if err != nil {
		return fmt.Errorf("maxapi: %s: build request: %w", cl.op, err)
	}
	req.Header.Set("Authorization", c.token)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	took := time.Since(start)
	if err != nil {
		metrics.ObserveAPICall(cl.op, 0, took)
		return fmt.Errorf("maxapi: %s: %w", cl.op, err)
	}
	defer resp.Body.Close()
	metrics.ObserveAPICall(cl.op, resp.StatusCode, took)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := &APIError{Op: cl.op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
		var doc struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &doc) == nil {
			apiErr.ErrCode, apiErr.Message = doc.Code, doc.Message
		}
		logger.Debug(ctx, logger.CompAPI, "api.call",
			slog.String("op", cl.op),
			slog.String("status", "fail"),
			slog.Int("http_code", resp.StatusCode),
			slog.Duration("duration", took),
		)
		return apiErr
	}

	if logger.ShouldSampleDebug() {
		logger.Debug(ctx, logger.CompAPI, "api.call",
			slog.String("op", cl.op),
			slog.String("status", "ok"),
			slog.Int("http_code", resp.StatusCode),
			slog.Duration("duration", took),
		)
	}

	if cl.out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(cl.out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("maxapi: %s: decode response: %w", cl.op, err)
	}
	return nil
}

func (c *Client) sendMultipart(ctx context.Context, cl call, fileName string, r io.Reader) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("data", fileName)
	if err != nil {
		return fmt.Errorf("maxapi: %s: multipart: %w", cl.op, err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return fmt.Errorf("maxapi: %s: read file: %w", cl.op, err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("maxapi: %s: multipart: %w", cl.op, err)
	}
	return c.send(ctx, cl, &buf, mw.FormDataContentType())
}

func setInt64(q url.Values, key string, v int64) {
	if v != 0 {
		q.Set(key, strconv.FormatInt(v, 10))
	}
}

func setInt(q url.Values, key string, v int) {
	if v != 0 {
		q.Set(key, strconv.Itoa(v))
	}
}

func joinInt64(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

func boolPtr(b bool) *bool { return &b }
