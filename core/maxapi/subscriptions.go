package maxapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// GetSubscriptions lists registered webhooks.
func (c *Client) GetSubscriptions(ctx context.Context) ([]Subscription, error) {
	var out struct {
		Subscriptions []Subscription `json:"subscriptions"`
	}
	if err := c.do(ctx, call{op: "getSubscriptions", method: http.MethodGet, path: "/subscriptions", out: &out}); err != nil {
		return nil, err
	}
	return out.Subscriptions, nil
}

// Subscribe registers a webhook. While one is active, GET /updates returns nothing.
func (c *Client) Subscribe(ctx context.Context, p SubscribeParams) (*SimpleResult, error) {
	if p.URL == "" {
		return nil, fmt.Errorf("maxapi: subscribe: empty url")
	}
	return c.simple(ctx, "subscribe", http.MethodPost, "/subscriptions", nil, p)
}

// Unsubscribe removes the webhook registered for webhookURL.
func (c *Client) Unsubscribe(ctx context.Context, webhookURL string) (*SimpleResult, error) {
	q := url.Values{"url": {webhookURL}}
	return c.simple(ctx, "unsubscribe", http.MethodDelete, "/subscriptions", q, nil)
}

// ParseUpdate decodes one webhook delivery.
func ParseUpdate(data []byte) (Update, error) {
	var u Update
	if err := json.Unmarshal(data, &u); err != nil {
		return Update{}, fmt.Errorf("maxapi: parse update: %w", err)
	}
	if u.UpdateType == "" {
		return Update{}, fmt.Errorf("maxapi: parse update: missing update_type")
	}
	return u, nil
}
