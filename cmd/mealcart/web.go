package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mealcart/internal/app"
)

type ServeCommand struct {
	Addr string `long:"addr" description:"Address to listen on (defaults to ADDR or :8080)"`

	globals *GlobalFlags
}

func (c *ServeCommand) Execute(_ []string) error {
	s, err := c.globals.open()
	if err != nil {
		return err
	}
	defer s.Close()

	addr := c.Addr
	if addr == "" {
		addr = s.cfg.Addr
	}
	return runServer(s.ctx, s.app, addr)
}

func newMux(a *app.App, reg prometheus.Registerer, gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	a.Register(mux)

	ro := &readyOnce{}
	ro.Add(a)
	mux.Handle("GET /ready", ro)
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return WithMiddleware(mux, reg)
}

// runServer serves until ctx is cancelled by a signal, then drains.
func runServer(ctx context.Context, a *app.App, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           newMux(a, prometheus.DefaultRegisterer, prometheus.DefaultGatherer),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("Serving MealCart", "address", addr)
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
		return gracefulShutdown(server, a.Browser.Wait)
	}
}

func gracefulShutdown(svr *http.Server, wait func()) error {
	// kubernetes gives us 30 seconds
	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()

	if err := svr.Shutdown(ctx); err != nil {
		slog.Error("Server shutdown error", "error", err)
		if closeErr := svr.Close(); closeErr != nil {
			slog.Error("Server close error", "error", closeErr)
		}
		return err
	}

	done := make(chan struct{})
	go func() {
		wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("Background recipe writes completed")
	case <-ctx.Done():
		slog.Warn("Timeout waiting for background recipe writes")
		return ctx.Err()
	}
	return nil
}
