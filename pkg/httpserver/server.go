package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"orderverifier/pkg/logger"
)

type Options struct {
	Host string
	Port string
	// WriteTimeout покрывает весь обработчик, включая внешние вызовы.
	WriteTimeout time.Duration
}

func New(ctx context.Context, router http.Handler, opts Options) *http.Server {
	const (
		defaultReadTimeout       = time.Second * 30
		defaultReadHeaderTimeout = time.Second * 10
		defaultIdleTimeout       = time.Minute * 2
	)
	return &http.Server{
		Addr:    net.JoinHostPort(opts.Host, opts.Port),
		Handler: router,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
		ReadTimeout:       defaultReadTimeout,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		WriteTimeout:      opts.WriteTimeout,
		IdleTimeout:       defaultIdleTimeout,
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests for at
// most shutdownTimeout.
func Run(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration) error {
	log := logger.FromCtx(ctx)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", slog.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen and serve: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}
