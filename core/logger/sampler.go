package logger

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
)

// sampleRatio lets keep events out of every window events through.
// The zero value disables sampling.
type sampleRatio struct {
	keep, window uint64
}

var defaultDebugRatio = sampleRatio{keep: 1, window: 50}

func (r sampleRatio) off() bool { return r.keep == 0 || r.window == 0 }

// parseSampleRatio accepts "k/n", "n" (meaning 1/n), "0" or "off".
func parseSampleRatio(s string) (sampleRatio, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return defaultDebugRatio, nil
	case "0", "off", "none":
		return sampleRatio{}, nil
	}
	keepPart, windowPart, hasSlash := strings.Cut(s, "/")
	if !hasSlash {
		keepPart, windowPart = "1", s
	}
	keep, err := strconv.ParseUint(strings.TrimSpace(keepPart), 10, 32)
	if err != nil {
		return sampleRatio{}, fmt.Errorf("debug sample %q: %w", s, err)
	}
	window, err := strconv.ParseUint(strings.TrimSpace(windowPart), 10, 32)
	if err != nil || window == 0 {
		return sampleRatio{}, fmt.Errorf("debug sample %q: bad window", s)
	}
	if keep > window {
		keep = window
	}
	return sampleRatio{keep: keep, window: window}, nil
}

// countingSampler passes the first keep events of each window. It is safe
// for concurrent use without locks.
type countingSampler struct {
	ratio atomic.Pointer[sampleRatio]
	seen  atomic.Uint64
}

func newCountingSampler(r sampleRatio) *countingSampler {
	s := &countingSampler{}
	s.Store(r)
	return s
}

// Store replaces the ratio and restarts the window.
func (s *countingSampler) Store(r sampleRatio) {
	s.ratio.Store(&r)
	s.seen.Store(0)
}

// Allow reports whether the next event passes.
func (s *countingSampler) Allow() bool {
	r := s.ratio.Load()
	if r == nil || r.off() {
		return true
	}
	n := s.seen.Add(1) - 1
	return n%r.window < r.keep
}
