package maxapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// UpdateBatch is one response of GET /updates.
type UpdateBatch struct {
	Updates []Update `json:"updates"`
	Marker  *int64   `json:"marker,omitempty"`
}

// GetUpdates long-polls for pending updates. The request deadline covers the
// server-side wait plus the regular call timeout.
func (c *Client) GetUpdates(ctx context.Context, p GetUpdatesParams) (*UpdateBatch, error) {
	q := url.Values{}
	setInt(q, "limit", p.Limit)
	setInt(q, "timeout", p.Timeout)
	if p.Marker != nil {
		q.Set("marker", strconv.FormatInt(*p.Marker, 10))
	}
	if len(p.Types) > 0 {
		types := make([]string, len(p.Types))
		for i, t := range p.Types {
			types[i] = string(t)
		}
		q.Set("types", strings.Join(types, ","))
	}
	var out UpdateBatch
	err := c.do(ctx, call{
		op:      "getUpdates",
		method:  http.MethodGet,
		path:    "/updates",
		query:   q,
		out:     &out,
		timeout: time.Duration(p.Timeout)*time.Second + c.timeout,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RunPolling runs the client's Poller. See Poller.Run.
func (c *Client) RunPolling(ctx context.Context, handler UpdateHandler, onError ErrorHandler, opts PollOptions) error {
	return c.Poller().Run(ctx, handler, onError, opts)
}

// StopPolling cancels an in-progress RunPolling. It is a no-op when idle.
func (c *Client) StopPolling() {
	c.Poller().Stop()
}

// Poller returns the single poller bound to this client.
func (c *Client) Poller() *Poller {
	c.pollerOnce.Do(func() {
		c.poller = NewPoller(c)
	})
	return c.poller
}
