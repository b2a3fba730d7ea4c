package maxapi

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fetchResult struct {
	batch *UpdateBatch
	err   error
}

// scriptedFetcher replays results in order and records the markers it was asked for.
// When the script runs out it cancels the run through onDrain.
type scriptedFetcher struct {
	mu      sync.Mutex
	script  []fetchResult
	markers []*int64
	onDrain func()
}

func (f *scriptedFetcher) GetUpdates(ctx context.Context, p GetUpdatesParams) (*UpdateBatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var m *int64
	if p.Marker != nil {
		v := *p.Marker
		m = &v
	}
	f.markers = append(f.markers, m)
	if len(f.script) == 0 {
		if f.onDrain != nil {
			f.onDrain()
		}
		return nil, ctx.Err()
	}
	next := f.script[0]
	f.script = f.script[1:]
	return next.batch, next.err
}

func marker(v int64) *int64 { return &v }

func msgUpdate(text string) Update {
	return Update{
		UpdateType: UpdateMessageCreated,
		Message:    &Message{Body: MessageBody{Text: text}},
	}
}

func newTestPoller(f UpdateFetcher, delays *[]time.Duration) *Poller {
	p := NewPoller(f)
	p.sleep = func(ctx context.Context, d time.Duration) error {
		if delays != nil {
			*delays = append(*delays, d)
		}
		return ctx.Err()
	}
	return p
}

func TestPollerAdvancesCursorAfterEachBatch(t *testing.T) {
	f := &scriptedFetcher{script: []fetchResult{
		{batch: &UpdateBatch{Updates: []Update{msgUpdate("a")}, Marker: marker(10)}},
		{batch: &UpdateBatch{Updates: []Update{msgUpdate("b"), msgUpdate("c")}, Marker: marker(12)}},
		{batch: &UpdateBatch{Marker: marker(12)}},
	}}
	p := newTestPoller(f, nil)
	f.onDrain = p.Stop

	var seen []string
	err := p.Run(context.Background(), func(_ context.Context, u Update) error {
		seen = append(seen, u.Message.Text())
		return nil
	}, nil, PollOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, seen)
	require.Len(t, f.markers, 4)
	assert.Nil(t, f.markers[0])
	assert.Equal(t, int64(10), *f.markers[1])
	assert.Equal(t, int64(12), *f.markers[2])
	assert.Equal(t, int64(12), *f.markers[3])

	m, ok := p.Marker()
	assert.True(t, ok)
	assert.Equal(t, int64(12), m)
}

func TestPollerIgnoresMarkerRegression(t *testing.T) {
	f := &scriptedFetcher{script: []fetchResult{
		{batch: &UpdateBatch{Updates: []Update{msgUpdate("a")}, Marker: marker(20)}},
		{batch: &UpdateBatch{Updates: []Update{msgUpdate("b")}, Marker: marker(7)}},
		{batch: &UpdateBatch{Marker: marker(21)}},
	}}
	p := newTestPoller(f, nil)
	f.onDrain = p.Stop

	var seen []string
	err := p.Run(context.Background(), func(_ context.Context, u Update) error {
		seen = append(seen, u.Message.Text())
		return nil
	}, nil, PollOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, seen)
	require.Len(t, f.markers, 4)
	assert.Equal(t, int64(20), *f.markers[1])
	assert.Equal(t, int64(20), *f.markers[2])
	assert.Equal(t, int64(21), *f.markers[3])

	m, ok := p.Marker()
	assert.True(t, ok)
	assert.Equal(t, int64(21), m)
}

func TestPollerFailedFetchKeepsCursor(t *testing.T) {
	boom := errors.New("502 bad gateway")
	f := &scriptedFetcher{script: []fetchResult{
		{batch: &UpdateBatch{Updates: []Update{msgUpdate("a")}, Marker: marker(5)}},
		{err: boom},
		{err: boom},
		{batch: &UpdateBatch{Updates: []Update{msgUpdate("b")}, Marker: marker(6)}},
	}}
	var delays []time.Duration
	p := NewPoller(f)
	p.sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	f.onDrain = p.Stop

	var fetchErrs int
	err := p.Run(context.Background(), func(context.Context, Update) error { return nil },
		func(_ context.Context, err error, u *Update) {
			assert.Nil(t, u)
			assert.ErrorIs(t, err, boom)
			fetchErrs++
		}, PollOptions{MaxRetries: 5})
	require.NoError(t, err)

	require.Len(t, f.markers, 5)
	for _, m := range f.markers[1:4] {
		require.NotNil(t, m)
		assert.Equal(t, int64(5), *m)
	}
	assert.Equal(t, int64(6), *f.markers[4])
	assert.Equal(t, 2, fetchErrs)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, delays)
}

func TestPollerRetryCeiling(t *testing.T) {
	boom := errors.New("connection refused")
	const k = 4
	script := make([]fetchResult, 10)
	for i := range script {
		script[i] = fetchResult{err: boom}
	}
	f := &scriptedFetcher{script: script}
	var delays []time.Duration
	p := NewPoller(f)
	p.sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	var reported int
	err := p.Run(context.Background(), func(context.Context, Update) error { return nil },
		func(context.Context, error, *Update) { reported++ }, PollOptions{MaxRetries: k})

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, f.markers, k)
	assert.Equal(t, k, reported)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}, delays)
	assert.False(t, p.Running())
}

func TestPollerBackoffIsCapped(t *testing.T) {
	assert.Equal(t, 2*time.Second, backoff(1, time.Minute))
	assert.Equal(t, 32*time.Second, backoff(5, time.Minute))
	assert.Equal(t, time.Minute, backoff(6, time.Minute))
	assert.Equal(t, time.Minute, backoff(64, time.Minute))
}

func TestPollerHandlerIsolation(t *testing.T) {
	f := &scriptedFetcher{script: []fetchResult{
		{batch: &UpdateBatch{Updates: []Update{msgUpdate("1"), msgUpdate("2"), msgUpdate("3")}, Marker: marker(3)}},
	}}
	p := newTestPoller(f, nil)
	f.onDrain = p.Stop

	var handled []string
	var failed []string
	err := p.Run(context.Background(), func(_ context.Context, u Update) error {
		handled = append(handled, u.Message.Text())
		if u.Message.Text() == "2" {
			return errors.New("handler failed")
		}
		return nil
	}, func(_ context.Context, err error, u *Update) {
		require.NotNil(t, u)
		failed = append(failed, u.Message.Text())
	}, PollOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2", "3"}, handled)
	assert.Equal(t, []string{"2"}, failed)
	require.Len(t, f.markers, 2)
	assert.Equal(t, int64(3), *f.markers[1])
}

func TestPollerRecoversHandlerPanic(t *testing.T) {
	f := &scriptedFetcher{script: []fetchResult{
		{batch: &UpdateBatch{Updates: []Update{msgUpdate("x"), msgUpdate("y")}, Marker: marker(2)}},
	}}
	p := newTestPoller(f, nil)
	f.onDrain = p.Stop

	var after bool
	var reported error
	err := p.Run(context.Background(), func(_ context.Context, u Update) error {
		if u.Message.Text() == "x" {
			panic("nil map")
		}
		after = true
		return nil
	}, func(_ context.Context, err error, _ *Update) { reported = err }, PollOptions{})
	require.NoError(t, err)
	assert.True(t, after)
	require.Error(t, reported)
	assert.Contains(t, reported.Error(), "panic")
}

type blockingFetcher struct {
	started chan struct{}
	once    sync.Once
}

func (f *blockingFetcher) GetUpdates(ctx context.Context, _ GetUpdatesParams) (*UpdateBatch, error) {
	f.once.Do(func() { close(f.started) })
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestPollerRejectsConcurrentRun(t *testing.T) {
	f := &blockingFetcher{started: make(chan struct{})}
	p := NewPoller(f)
	noop := func(context.Context, Update) error { return nil }

	done := make(chan error, 1)
	go func() { done <- p.Run(context.Background(), noop, nil, PollOptions{}) }()
	<-f.started

	err := p.Run(context.Background(), noop, nil, PollOptions{})
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	p.Stop()
	p.Stop()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop")
	}
	assert.False(t, p.Running())

	// A stopped poller can be started again.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, p.Run(ctx, noop, nil, PollOptions{}))
}

func TestPollerCancelDuringBackoff(t *testing.T) {
	f := &scriptedFetcher{script: []fetchResult{{err: errors.New("timeout")}}}
	p := NewPoller(f)
	ctx, cancel := context.WithCancel(context.Background())
	p.sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return sleepCtx(ctx, d)
	}
	err := p.Run(ctx, func(context.Context, Update) error { return nil }, nil, PollOptions{})
	assert.NoError(t, err)
	assert.Len(t, f.markers, 1)
}

func TestPollerStopWhenIdleIsNoop(t *testing.T) {
	p := NewPoller(&scriptedFetcher{})
	p.Stop()
	assert.False(t, p.Running())
}

func TestPollerRejectsNilHandler(t *testing.T) {
	p := NewPoller(&scriptedFetcher{})
	assert.Error(t, p.Run(context.Background(), nil, nil, PollOptions{}))
}
