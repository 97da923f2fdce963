package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"idledger/internal/ledger/handler"
	ledgermetrics "idledger/internal/ledger/metrics"
	"idledger/internal/ledger/service"
	"idledger/internal/platform/auth"
	"idledger/internal/platform/config"
	"idledger/internal/platform/httpserver"
	"idledger/pkg/platform/middleware/admin"
	authmw "idledger/pkg/platform/middleware/auth"
	"idledger/pkg/platform/middleware/request"
	"idledger/pkg/platform/middleware/requesttime"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the ledger HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromContext(cmd.Context())
			if cfg == nil {
				return fmt.Errorf("no config found in context")
			}
			return serveRun(cmd.Context(), cfg)
		},
	}
}

func serveRun(parent context.Context, cfg *config.Config) error {
	logger, err := commonRun(cfg)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	mode, err := cfg.GuardMode()
	if err != nil {
		return err
	}
	if cfg.Auth.SigningKey == config.DefaultSigningKey {
		logger.WarnContext(ctx, "using the public development signing key with the memory store; set IDLEDGER_AUTH_SIGNING_KEY")
	}

	res, err := openResources(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.close(); err != nil {
			logger.Error("failed to release resources", "error", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	opts := []service.Option{
		service.WithLogger(logger),
		service.WithMetrics(ledgermetrics.New(reg)),
		service.WithGuardMode(mode),
	}
	if res.publisher != nil {
		opts = append(opts, service.WithAuditPublisher(res.publisher))
	}
	svc, err := service.New(res.ledger, opts...)
	if err != nil {
		return err
	}

	jwt := auth.NewJWTService(cfg.Auth.SigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Recovery(logger))
	r.Use(request.AccessLog(logger))
	r.Use(requesttime.Middleware)
	r.Get("/healthz", res.healthHandler)

	h := handler.New(svc, res.auditReader, logger)
	h.Register(r, authmw.RequireCaller(auth.NewJWTServiceAdapter(jwt), logger))
	h.RegisterAdmin(r, admin.RequireAdminToken(cfg.Auth.AdminToken, logger))

	api := httpserver.New(cfg.Server.Addr, r, cfg.Server.ReadHeaderTimeout)
	metricsSrv := httpserver.New(cfg.Metrics.Addr, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), cfg.Server.ReadHeaderTimeout)

	logger.InfoContext(ctx, "starting idledger",
		"addr", cfg.Server.Addr,
		"metrics_addr", cfg.Metrics.Addr,
		"store", cfg.Ledger.Store,
		"guard_mode", string(mode),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpserver.Run(gctx, api, cfg.Server.ShutdownTimeout, logger)
	})
	g.Go(func() error {
		return httpserver.Run(gctx, metricsSrv, cfg.Server.ShutdownTimeout, logger)
	})
	return g.Wait()
}
