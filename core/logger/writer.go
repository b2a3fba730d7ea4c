package logger

import (
	"bufio"
	"errors"
	"io"
	"sync"
	"sync/atomic"
)

var errWriterClosed = errors.New("logger: writer closed")

// writeOp is either a line to write or, when ack is set, a flush barrier.
type writeOp struct {
	line []byte
	ack  chan error
}

// asyncWriter fans lines out to buffered sinks on a single goroutine. Sinks
// are flushed whenever the queue drains, on Flush and on Close.
type asyncWriter struct {
	mu     sync.RWMutex
	closed bool
	ops    chan writeOp
	done   chan struct{}

	sinks []*bufio.Writer
	err   atomic.Pointer[error]
}

func newAsyncWriter(writers []io.Writer, bufSize int) *asyncWriter {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	w := &asyncWriter{
		ops:  make(chan writeOp, 256),
		done: make(chan struct{}),
	}
	for _, out := range writers {
		if out != nil {
			w.sinks = append(w.sinks, bufio.NewWriterSize(out, bufSize))
		}
	}
	go w.run()
	return w
}

func (w *asyncWriter) run() {
	defer close(w.done)
	for op := range w.ops {
		if op.ack != nil {
			op.ack <- w.flush()
			continue
		}
		w.record(w.write(op.line))
		if len(w.ops) == 0 {
			w.record(w.flush())
		}
	}
	w.record(w.flush())
}

// Write queues a copy of p. It blocks while the queue is full and fails once
// a sink has failed or the writer is closed.
func (w *asyncWriter) Write(p []byte) error {
	if err := w.failure(); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return errWriterClosed
	}
	w.ops <- writeOp{line: append([]byte(nil), p...)}
	return nil
}

// Flush waits until every line queued before it reached the sinks.
func (w *asyncWriter) Flush() error {
	w.mu.RLock()
	if w.closed {
		w.mu.RUnlock()
		return w.failure()
	}
	ack := make(chan error, 1)
	w.ops <- writeOp{ack: ack}
	w.mu.RUnlock()
	if err := <-ack; err != nil {
		return err
	}
	return w.failure()
}

// Close drains the queue and returns the first sink error.
func (w *asyncWriter) Close() error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.ops)
	}
	w.mu.Unlock()
	<-w.done
	return w.failure()
}

func (w *asyncWriter) write(p []byte) error {
	for _, s := range w.sinks {
		if _, err := s.Write(p); err != nil {
			return err
		}
	}
	return nil
}

func (w *asyncWriter) flush() error {
	var errs []error
	for _, s := range w.sinks {
		if err := s.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// record keeps the first sink error.
func (w *asyncWriter) record(err error) {
	if err != nil {
		w.err.CompareAndSwap(nil, &err)
	}
}

func (w *asyncWriter) failure() error {
	if p := w.err.Load(); p != nil {
		return *p
	}
	return nil
}
