// Package app assembles the portal API from configuration and owns its
// lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/config"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/pkg/tracer"
)

type App struct {
	cfg        *config.Config
	log        *zap.Logger
	httpServer *http.Server
	infra      *Infra
	services   *services
	tracer     *sdktrace.TracerProvider
}

func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	tp, err := tracer.Init(ctx, cfg.Tracing, cfg.App.Version)
	if err != nil {
		return nil, fmt.Errorf("initialising tracer: %w", err)
	}

	infra, err := setupInfra(ctx, cfg, log)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}

	router, svcs, err := setupHTTP(ctx, cfg, infra, log)
	if err != nil {
		_ = infra.Close()
		_ = tp.Shutdown(ctx)
		return nil, err
	}

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		log:        log,
		httpServer: server,
		infra:      infra,
		services:   svcs,
		tracer:     tp,
	}, nil
}

// Run blocks until the server stops. A graceful Shutdown is not an error.
func (a *App) Run() error {
	a.log.Info("http server listening",
		zap.String("addr", a.httpServer.Addr),
		zap.String("env", a.cfg.App.Environment),
		zap.String("version", a.cfg.App.Version),
	)
	if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, then drains the audit buffer before
// the database it writes to is closed.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if err := a.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http server: %w", err))
	}
	a.services.audit.Shutdown()
	if err := a.infra.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := a.tracer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("tracer: %w", err))
	}
	return errors.Join(errs...)
}
