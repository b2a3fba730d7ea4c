package sender

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/maxbot/core/maxapi"
)

func TestDispatcherRetriesRetryableAPIErrors(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 2, RetryBackoff: time.Millisecond, MaxDuration: time.Second})
	var calls atomic.Int32
	require.NoError(t, d.Enqueue(context.Background(), "send.text", func(context.Context) error {
		if calls.Add(1) < 3 {
			return &maxapi.APIError{Op: "sendMessage", StatusCode: 429}
		}
		return nil
	}))
	d.Close()
	assert.Equal(t, int32(3), calls.Load())
	assert.Zero(t, d.ErrorCount())
}

func TestDispatcherDoesNotRetryClientErrors(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 3, RetryBackoff: time.Millisecond})
	var calls atomic.Int32
	require.NoError(t, d.Enqueue(context.Background(), "send.text", func(context.Context) error {
		calls.Add(1)
		return &maxapi.APIError{Op: "sendMessage", StatusCode: 403}
	}))
	d.Close()
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, uint64(1), d.ErrorCount())
}

func TestDispatcherRejectsAfterClose(t *testing.T) {
	d := NewDispatcher(Options{})
	d.Close()
	d.Close()
	err := d.Enqueue(context.Background(), "send.text", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestDispatcherQueueFull(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 1})
	block := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, d.Enqueue(context.Background(), "a", func(context.Context) error {
		close(started)
		<-block
		return nil
	}))
	<-started
	require.NoError(t, d.Enqueue(context.Background(), "b", func(context.Context) error { return nil }))
	err := d.Enqueue(context.Background(), "c", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrQueueFull)
	close(block)
	d.Close()
}

func TestDispatcherJobSurvivesCallerCancel(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1})
	ctx, cancel := context.WithCancel(context.Background())
	var ran atomic.Bool
	require.NoError(t, d.Enqueue(ctx, "send.text", func(jobCtx context.Context) error {
		ran.Store(jobCtx.Err() == nil)
		return nil
	}))
	cancel()
	d.Close()
	assert.True(t, ran.Load())
}

func TestShouldRetry(t *testing.T) {
	assert.True(t, ShouldRetry(&maxapi.APIError{StatusCode: 502}))
	assert.False(t, ShouldRetry(&maxapi.APIError{StatusCode: 400}))
	assert.True(t, ShouldRetry(&net.OpError{Op: "dial", Err: errors.New("refused")}))
	assert.False(t, ShouldRetry(context.Canceled))
}

func TestClassifyError(t *testing.T) {
	assert.Equal(t, "rate_limited", ClassifyError(&maxapi.APIError{StatusCode: 429}))
	assert.Equal(t, "http_5xx", ClassifyError(&maxapi.APIError{StatusCode: 500}))
	assert.Equal(t, "http_4xx", ClassifyError(&maxapi.APIError{StatusCode: 404}))
	assert.Equal(t, "timeout", ClassifyError(context.DeadlineExceeded))
	assert.Equal(t, "dial", ClassifyError(&net.OpError{Op: "dial", Err: errors.New("refused")}))
	assert.Equal(t, "unknown", ClassifyError(errors.New("x")))
}

func TestSanitizeError(t *testing.T) {
	msg := SanitizeError(errors.New(`GET https://host/x?access_token=abc123&chat_id=1 failed`))
	assert.NotContains(t, msg, "abc123")
	assert.Contains(t, msg, "access_token=<redacted>")
	assert.Contains(t, msg, "chat_id=1")
}
