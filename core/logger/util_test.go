package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/maxbot/core/config"
)

func TestParseSampleRatio(t *testing.T) {
	cases := map[string]sampleRatio{
		"":      defaultDebugRatio,
		"off":   {},
		"0":     {},
		"10":    {keep: 1, window: 10},
		"2/5":   {keep: 2, window: 5},
		" 9/3 ": {keep: 3, window: 3},
	}
	for in, want := range cases {
		got, err := parseSampleRatio(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, in := range []string{"x", "1/0", "a/4", "-1"} {
		_, err := parseSampleRatio(in)
		assert.Error(t, err, in)
	}
}

func TestCountingSampler(t *testing.T) {
	s := newCountingSampler(sampleRatio{keep: 2, window: 5})
	var got []bool
	for i := 0; i < 10; i++ {
		got = append(got, s.Allow())
	}
	assert.Equal(t, []bool{true, true, false, false, false, true, true, false, false, false}, got)

	s.Store(sampleRatio{})
	for i := 0; i < 3; i++ {
		assert.True(t, s.Allow())
	}
}

func TestStatus(t *testing.T) {
	assert.Equal(t, "ok", Status(nil))
	assert.Equal(t, "cancelled", Status(fmt.Errorf("poll: %w", context.Canceled)))
	assert.Equal(t, "timeout", Status(context.DeadlineExceeded))
	assert.Equal(t, "error", Status(errors.New("boom")))
}

func TestPreviewAndRoundMS(t *testing.T) {
	s, hidden := Preview([]string{"a", "b", "c"}, 2)
	assert.Equal(t, "a, b", s)
	assert.Equal(t, 1, hidden)

	s, hidden = Preview([]string{"a"}, 6)
	assert.Equal(t, "a", s)
	assert.Zero(t, hidden)

	assert.Equal(t, 2*time.Millisecond, RoundMS(1600*time.Microsecond))
	assert.Zero(t, RoundMS(-time.Second))
}

type failingSink struct{}

func (failingSink) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestAsyncWriter(t *testing.T) {
	var a, b strings.Builder
	w := newAsyncWriter([]io.Writer{&a, nil, &b}, 16)
	require.NoError(t, w.Write([]byte("one\n")))
	require.NoError(t, w.Write([]byte("two\n")))
	require.NoError(t, w.Flush())
	assert.Equal(t, "one\ntwo\n", a.String())
	assert.Equal(t, a.String(), b.String())

	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.Write([]byte("late\n")), errWriterClosed)
	assert.NoError(t, w.Flush())

	bad := newAsyncWriter([]io.Writer{failingSink{}}, 1)
	require.NoError(t, bad.Write([]byte("x\n")))
	assert.EqualError(t, bad.Flush(), "disk full")
	assert.EqualError(t, bad.Close(), "disk full")
}

func TestResolveSettings(t *testing.T) {
	t.Setenv("TRACE", "")
	t.Setenv("LOG_TRACE", "")

	s := resolve(nil)
	assert.Equal(t, formatJSON, s.format)
	assert.Equal(t, slog.LevelInfo, s.level)
	assert.Equal(t, defaultDebugRatio, s.sample)
	assert.Equal(t, "prod", s.profile)

	cfg := &coreconfig.Config{}
	cfg.Logging.Profile = "Dev"
	cfg.Logging.Level = "warning"
	cfg.Logging.KeysOrder = "event, ts ,,level"
	cfg.Logging.DebugSample = "off"
	s = resolve(cfg)
	assert.Equal(t, formatKV, s.format)
	assert.Equal(t, slog.LevelWarn, s.level)
	assert.Equal(t, []string{"event", "ts", "level"}, s.order)
	assert.Equal(t, sampleRatio{}, s.sample)
	assert.Equal(t, "dev", s.profile)

	cfg.Logging.Format = "json"
	cfg.Logging.DebugSample = "bogus"
	t.Setenv("LOG_TRACE", "yes")
	s = resolve(cfg)
	assert.Equal(t, formatJSON, s.format)
	assert.Equal(t, defaultDebugRatio, s.sample)
	assert.True(t, s.trace)
}
