package bot

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/maxbot/core/maxapi"
)

const deliveryJSON = `{"update_type":"message_created","timestamp":1,"message":{"sender":{"user_id":7},"recipient":{"chat_id":42},"body":{"mid":"m1","text":"hi"}}}`

func post(t *testing.T, h http.Handler, path, secret, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	if secret != "" {
		req.Header.Set(SecretHeader, secret)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestWebhookDeliversUpdate(t *testing.T) {
	var got []maxapi.Update
	r := NewWebhookRouter(WebhookOptions{Path: "/hook", Secret: "s3"}, func(_ context.Context, u maxapi.Update) error {
		got = append(got, u)
		return nil
	}, nil)

	rec := post(t, r, "/hook", "s3", deliveryJSON)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, got, 1)
	assert.Equal(t, "hi", got[0].Message.Text())
	assert.Equal(t, int64(42), got[0].ChatIDHint())
}

func TestWebhookRejectsBadSecret(t *testing.T) {
	called := false
	r := NewWebhookRouter(WebhookOptions{Path: "/hook", Secret: "s3"}, func(context.Context, maxapi.Update) error {
		called = true
		return nil
	}, nil)

	assert.Equal(t, http.StatusUnauthorized, post(t, r, "/hook", "", deliveryJSON).Code)
	assert.Equal(t, http.StatusUnauthorized, post(t, r, "/hook", "wrong", deliveryJSON).Code)
	assert.False(t, called)
}

func TestWebhookRejectsBadPayload(t *testing.T) {
	r := NewWebhookRouter(WebhookOptions{}, func(context.Context, maxapi.Update) error { return nil }, nil)
	assert.Equal(t, http.StatusBadRequest, post(t, r, "/webhook", "", `{"timestamp":1}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(t, r, "/webhook", "", `not json`).Code)
}

func TestWebhookReportsHandlerErrors(t *testing.T) {
	boom := errors.New("boom")
	var reported []error
	onError := func(_ context.Context, err error, u *maxapi.Update) {
		require.NotNil(t, u)
		reported = append(reported, err)
	}
	r := NewWebhookRouter(WebhookOptions{}, func(_ context.Context, u maxapi.Update) error {
		if u.Message.Text() == "panic" {
			panic("kaboom")
		}
		return boom
	}, onError)

	assert.Equal(t, http.StatusOK, post(t, r, "/webhook", "", deliveryJSON).Code)
	panicking := strings.Replace(deliveryJSON, `"text":"hi"`, `"text":"panic"`, 1)
	assert.Equal(t, http.StatusOK, post(t, r, "/webhook", "", panicking).Code)

	require.Len(t, reported, 2)
	assert.ErrorIs(t, reported[0], boom)
	assert.Contains(t, reported[1].Error(), "kaboom")
}

func TestWebhookHealthz(t *testing.T) {
	r := NewWebhookRouter(WebhookOptions{}, nil, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestUpdateTypes(t *testing.T) {
	assert.Nil(t, updateTypes(nil))
	assert.Equal(t, []maxapi.UpdateType{maxapi.UpdateMessageCreated, maxapi.UpdateBotStarted},
		updateTypes([]string{" message_created", "", "bot_started"}))
}
