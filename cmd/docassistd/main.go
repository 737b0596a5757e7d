package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/doc-assistant/internal/common"
	"github.com/joseph-ayodele/doc-assistant/internal/export"
	"github.com/joseph-ayodele/doc-assistant/internal/pipeline"
	"github.com/joseph-ayodele/doc-assistant/internal/server"
)

func main() {
	cfg, err := common.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Remove time, keep level, message and other variables
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dispatcher := pipeline.FromConfig(cfg, logger)
	health := server.NewHealth(logger)
	srv, err := server.New(dispatcher, export.NewService(logger), health, server.Options{
		Theme:       cfg.Server.Theme,
		MaxUploadMB: cfg.Server.MaxUploadMB,
	}, logger)
	if err != nil {
		logger.Error("failed to build http server", "error", err)
		os.Exit(1)
	}

	grpcLis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}
	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("doc-assistant listening",
		"http_addr", cfg.Server.HTTPAddr,
		"grpc_addr", cfg.Server.GRPCAddr,
		"theme", cfg.Server.Theme,
		"image_enabled", cfg.ImageEnabled(),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return health.Serve(grpcLis)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")
		health.Drain()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := httpServer.Shutdown(shutdownCtx)
		health.Stop()
		return err
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("stopped.")
}
