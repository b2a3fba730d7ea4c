package maxapi

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/m3rciful/maxbot/core/logger"
	"github.com/m3rciful/maxbot/core/maxapi/netutil"
)

// BuildHTTPClient returns an HTTP client tuned for MAX API calls. It sets no
// overall timeout: long-poll requests hold the connection open, so deadlines
// come from the request context.
func BuildHTTPClient() *http.Client {
	return &http.Client{
		Transport: &retryTransport{
			base: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				ForceAttemptHTTP2:     true,
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   10,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   5 * time.Second,
				ExpectContinueTimeout: time.Second,
			},
			policy: retryPolicy{retries: 3, step: 2 * time.Second},
		},
	}
}

// retryPolicy repeats transport failures with linear backoff (step, 2*step, ...).
type retryPolicy struct {
	retries int
	step    time.Duration
}

// allows reports whether a failed attempt may be repeated. Requests that
// are not idempotent are only replayed when they never left the client.
func (p retryPolicy) allows(req *http.Request, attempt int, err error) bool {
	if attempt > p.retries || !netutil.ShouldRetry(err) {
		return false
	}
	switch req.Method {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete, http.MethodOptions:
		return true
	}
	return netutil.IsDialError(err)
}

type retryTransport struct {
	base   http.RoundTripper
	policy retryPolicy
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	ctx := req.Context()
	for attempt := 1; ; attempt++ {
		resp, err := base.RoundTrip(req)
		if err == nil || !t.policy.allows(req, attempt, err) {
			return resp, err
		}
		next, ok := rewind(req)
		if !ok {
			return nil, err
		}
		delay := t.policy.step * time.Duration(attempt)
		logger.Debug(ctx, logger.CompAPI, "http.retry",
			slog.String("method", req.Method),
			slog.String("path", req.URL.Path),
			slog.Int("attempt", attempt),
			slog.Duration("backoff", delay),
			slog.String("err", err.Error()),
		)
		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}
		req = next
	}
}

// rewind clones req with a fresh body. It fails when the body cannot be
// replayed.
func rewind(req *http.Request) (*http.Request, bool) {
	next := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return next, true
	}
	if req.GetBody == nil {
		return nil, false
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, false
	}
	next.Body = body
	return next, true
}
