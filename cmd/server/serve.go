package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/xtding233/offwork-lock/internal/config"
	"github.com/xtding233/offwork-lock/internal/httpapi"
	"github.com/xtding233/offwork-lock/internal/logging"
	"github.com/xtding233/offwork-lock/internal/metrics"
	"github.com/xtding233/offwork-lock/internal/offwork"
	"github.com/xtding233/offwork-lock/internal/rpc"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd() *cobra.Command {
	s, envErr := loadSettings()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the engine behind HTTP and gRPC",
		Long: `Load the config (writing defaults on first start), open player
storage and serve the engine until SIGINT or SIGTERM. The config file
is polled and reloaded when it changes.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if envErr != nil {
				return envErr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, s)
		},
	}

	settingsFlags(cmd, &s)
	cmd.Flags().StringVar(&s.Store, "store", s.Store, "player storage: file or sqlite (env OFFWORK_STORE)")
	cmd.Flags().StringVar(&s.HTTPAddr, "http-addr", s.HTTPAddr, "HTTP listen address, empty disables (env OFFWORK_HTTP_ADDR)")
	cmd.Flags().StringVar(&s.GRPCAddr, "grpc-addr", s.GRPCAddr, "gRPC listen address, empty disables (env OFFWORK_GRPC_ADDR)")
	cmd.Flags().StringVar(&s.LogFormat, "log-format", s.LogFormat, "log format: json or text (env OFFWORK_LOG_FORMAT)")
	cmd.Flags().DurationVar(&s.WatchInterval, "watch-interval", s.WatchInterval, "config poll interval, 0 disables (env OFFWORK_WATCH_INTERVAL)")

	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, s config.Settings) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger := logging.SetDefault("offworkd", version, s.LogFormat)

	reg, m := metrics.NewRegistry()
	core, err := offwork.New(offwork.Options{
		Paths:   s.Paths(),
		Store:   s.Store,
		Logger:  logger,
		Metrics: m,
	})
	if err != nil {
		return fmt.Errorf("start engine: %w", err)
	}
	defer func() {
		if cerr := core.Close(); cerr != nil {
			logger.Warn("error closing player storage", "error", cerr)
		}
	}()

	if s.WatchInterval > 0 {
		w := config.WatchManager(core.Config(), s.WatchInterval, logger.With("component", "watcher"), core.ReloadConfig)
		w.Start()
		defer w.Stop()
	}

	errCh := make(chan error, 2)

	var httpSrv *http.Server
	if s.HTTPAddr != "" {
		lis, err := net.Listen("tcp", s.HTTPAddr)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", s.HTTPAddr, err)
		}
		httpSrv = &http.Server{
			Handler:           httpapi.New(core, logger.With("component", "http"), reg),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := httpSrv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("http: %w", err)
			}
		}()
		logger.Info("http server listening", "addr", lis.Addr().String())
	}

	var (
		grpcSrv *grpc.Server
		engine  *rpc.Server
	)
	if s.GRPCAddr != "" {
		lis, err := net.Listen("tcp", s.GRPCAddr)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", s.GRPCAddr, err)
		}
		engine = rpc.NewServer(core, logger.With("component", "grpc"))
		grpcSrv = engine.NewGRPCServer()
		go func() {
			if err := grpcSrv.Serve(lis); err != nil {
				errCh <- fmt.Errorf("grpc: %w", err)
			}
		}()
		logger.Info("grpc server listening", "addr", lis.Addr().String())
	}

	cmd.Println("offworkd started")

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case runErr = <-errCh:
		logger.Error("server error, shutting down", "error", runErr)
	}

	if grpcSrv != nil {
		engine.Shutdown()
		grpcSrv.GracefulStop()
	}
	if httpSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("error stopping http server", "error", err)
		}
	}
	logger.Info("shutdown complete")
	return runErr
}
