package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GoSim-25-26J-441/evolution-core/internal/evad"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/config"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/logger"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
)

type serveOptions struct {
	configPath   string
	grpcAddr     string
	httpAddr     string
	natsURL      string
	natsSubject  string
	natsProgress bool
}

func newServeCmd(root *rootOptions) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve evolution runs over gRPC and HTTP",
		Long: `Starts the evolution service. Runs are submitted as YAML configs, executed
asynchronously and kept in memory. The HTTP side also serves Prometheus
metrics on /metrics and live run events on /v1/runs/{id}/watch. With a NATS
URL, run events are published on <subject>.status and <subject>.progress.
SIGINT or SIGTERM cancels active runs and shuts the servers down gracefully.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := config.Server{
				GRPCAddr:    config.DefaultGRPCAddr,
				HTTPAddr:    config.DefaultHTTPAddr,
				NATSSubject: config.DefaultNATSSubject,
			}
			if opts.configPath != "" {
				cfg, err := config.LoadConfig(opts.configPath)
				if err != nil {
					return err
				}
				if err := root.applyLogLevel(cmd, cfg.LogLevel); err != nil {
					return err
				}
				settings = cfg.Server
			}

			fs := cmd.Flags()
			if fs.Changed("grpc-addr") {
				settings.GRPCAddr = opts.grpcAddr
			}
			if fs.Changed("http-addr") {
				settings.HTTPAddr = opts.httpAddr
			}
			if fs.Changed("nats-url") {
				settings.NATSURL = opts.natsURL
			}
			if fs.Changed("nats-subject") {
				settings.NATSSubject = opts.natsSubject
			}
			if fs.Changed("nats-progress") {
				settings.NATSProgress = opts.natsProgress
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, settings)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&opts.configPath, "config", "c", "", "config YAML whose server section sets the listen addresses")
	fs.StringVar(&opts.grpcAddr, "grpc-addr", config.DefaultGRPCAddr, "gRPC listen address")
	fs.StringVar(&opts.httpAddr, "http-addr", config.DefaultHTTPAddr, "HTTP listen address (empty disables HTTP)")
	fs.StringVar(&opts.natsURL, "nats-url", "", "NATS server to publish run events to (empty disables publishing)")
	fs.StringVar(&opts.natsSubject, "nats-subject", config.DefaultNATSSubject, "subject prefix for run events")
	fs.BoolVar(&opts.natsProgress, "nats-progress", false, "also publish per-generation progress events")

	return cmd
}

// serve runs the gRPC and HTTP servers until ctx is done or one of them
// fails.
func serve(ctx context.Context, settings config.Server) error {
	grpcAddr, httpAddr := settings.GRPCAddr, settings.HTTPAddr

	store := evad.NewRunStore()
	executor := evad.NewRunExecutor(store)

	if settings.NATSURL != "" {
		nc, err := evad.ConnectNATS(settings.NATSURL, "evolution-core", 5)
		if err != nil {
			return err
		}
		defer func() {
			if err := nc.Drain(); err != nil {
				logger.Warn("failed to drain NATS connection", "error", err)
			}
		}()
		forwarder := evad.NewNATSForwarder(nc, settings.NATSSubject, settings.NATSProgress)
		executor.Events().Forward(forwarder.Forward)
		logger.Info("publishing run events", "subject", forwarder.Subject("*"))
	}

	// TODO: Configure gRPC server security (TLS, authentication) before
	// exposing this service beyond localhost.
	grpcServer := grpc.NewServer()
	evad.RegisterEvolutionServiceServer(grpcServer, evad.NewEvolutionGRPCServer(store, executor))

	grpcLis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		return fmt.Errorf("failed to listen for gRPC on %s: %w", grpcAddr, err)
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("gRPC server listening", "addr", grpcLis.Addr().String())
		if err := grpcServer.Serve(grpcLis); err != nil {
			errCh <- fmt.Errorf("gRPC server: %w", err)
		}
	}()

	var httpSrv *http.Server
	if httpAddr != "" {
		httpSrv = &http.Server{
			Addr:              httpAddr,
			Handler:           evad.NewHTTPServer(store, executor).Handler(),
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       120 * time.Second,
			MaxHeaderBytes:    1 << 20,
		}
		go func() {
			logger.Info("HTTP server listening", "addr", httpAddr)
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("HTTP server: %w", err)
			}
		}()
	}

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case serveErr = <-errCh:
		logger.Error("server failed", "error", serveErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := executor.Shutdown(shutdownCtx); err != nil {
		logger.Warn("runs did not stop in time", "error", err)
	}
	grpcServer.GracefulStop()
	if httpSrv != nil {
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP shutdown error", "error", err)
		}
	}
	return serveErr
}
