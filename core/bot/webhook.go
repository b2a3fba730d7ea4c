package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/m3rciful/maxbot/core/logger"
	"github.com/m3rciful/maxbot/core/maxapi"
	"github.com/m3rciful/maxbot/core/metrics"
)

// SecretHeader carries the secret registered with the webhook subscription.
const SecretHeader = "X-Max-Bot-Api-Secret"

const maxWebhookBody = 1 << 20

// WebhookOptions configures NewWebhookRouter.
type WebhookOptions struct {
	Path   string
	Secret string
	// Metrics mounts /metrics on the same router when true.
	Metrics bool
}

// NewWebhookRouter returns a chi router that accepts update deliveries on
// opts.Path and exposes GET /healthz. Deliveries are handled one at a time in
// arrival order; handler failures are reported to onError and still answered
// with 200 so the platform does not redeliver them.
func NewWebhookRouter(opts WebhookOptions, handle maxapi.UpdateHandler, onError maxapi.ErrorHandler) chi.Router {
	path := opts.Path
	if path == "" {
		path = "/webhook"
	}
	var mu sync.Mutex

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok")
	})
	if opts.Metrics {
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	}
	r.Post(path, func(w http.ResponseWriter, req *http.Request) {
		ctx := req.Context()
		if opts.Secret != "" && req.Header.Get(SecretHeader) != opts.Secret {
			metrics.IncWebhook("unauthorized")
			logger.Warn(ctx, logger.CompWebhook, "webhook.reject",
				slog.String("reason", "bad_secret"),
				slog.String("remote", req.RemoteAddr),
			)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, req.Body, maxWebhookBody))
		if err != nil {
			metrics.IncWebhook("bad_request")
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		u, err := maxapi.ParseUpdate(body)
		if err != nil {
			metrics.IncWebhook("bad_request")
			logger.Warn(ctx, logger.CompWebhook, "webhook.reject",
				slog.String("reason", "bad_payload"),
				slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			)
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		mu.Lock()
		herr := safeHandle(ctx, handle, u)
		mu.Unlock()
		if herr != nil && onError != nil {
			onError(ctx, herr, &u)
		}
		metrics.IncWebhook("ok")
		w.WriteHeader(http.StatusOK)
	})
	return r
}

func safeHandle(ctx context.Context, handle maxapi.UpdateHandler, u maxapi.Update) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("bot: webhook handler panic: %v", r)
		}
	}()
	if handle == nil {
		return nil
	}
	return handle(ctx, u)
}

// serveHTTP runs h on addr until ctx is done, then shuts the server down.
func serveHTTP(ctx context.Context, component, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, component, "http.listen", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn(ctx, component, "http.shutdown", slog.String("err", err.Error()))
		}
		<-errCh
		return nil
	}
}
