package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"investment-dashboard/src/grpc_control"
	"investment-dashboard/src/interfaces"
	"investment-dashboard/src/logger"
	"investment-dashboard/src/server"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
)

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the gateway, websocket hub and gRPC control service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := setup(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			return serve(ctx, a)
		},
	}
}

// -----------------------------------------------------------------------------

func serve(ctx context.Context, a *app) error {
	var srv interfaces.IDataExchanger = server.NewDashboardServer(a.Config.MConfig, a.Logger.Named("Server"), a.Registry, a.API)

	errCh := make(chan error, 2)
	go func() {
		if err := srv.Start(); err != nil {
			errCh <- fmt.Errorf("server failed: %w", err)
		}
	}()

	grpcServer, err := startGRPC(a, errCh)
	if err != nil {
		srv.Stop()
		return err
	}

	// Initial load, then periodic refresh
	go refreshLoop(ctx, a)

	a.Logger.Info("Initialization complete.")

	select {
	case <-ctx.Done():
		a.Logger.Info("Shutting down...")
	case err = <-errCh:
		a.Logger.Error("%v", err)
	}

	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	if stopErr := srv.Stop(); stopErr != nil {
		a.Logger.Warning("Server stop: %v", stopErr)
	}
	a.Logger.Info("Shutdown complete.")
	return err
}

// -----------------------------------------------------------------------------

func startGRPC(a *app, errCh chan<- error) (*grpc.Server, error) {
	if a.Config.GrpcPort == 0 {
		a.Logger.Info("gRPC control disabled")
		return nil, nil
	}

	addr := fmt.Sprintf("%s:%d", a.Config.GrpcHost, a.Config.GrpcPort)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	grpcServer := grpc.NewServer()
	grpc_control.RegisterControlServer(grpcServer, grpc_control.NewControlService(a.Registry, a.API, a.Logger.Named("gRPC")))

	go func() {
		a.Logger.Info("gRPC control listening on %s", addr)
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc failed: %w", err)
		}
	}()
	return grpcServer, nil
}

// -----------------------------------------------------------------------------

func refreshLoop(ctx context.Context, a *app) {
	log := a.Logger.Named("Refresh")
	a.Registry.RefreshAll(ctx)

	interval := time.Duration(a.Config.Views.RefreshInterval) * time.Second
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			start := time.Now()
			a.Registry.RefreshAll(ctx)
			logRefresh(log, time.Since(start))
		}
	}
}

func logRefresh(log *logger.Logger, elapsed time.Duration) {
	log.Debug("Refreshed all views in %s", elapsed.Round(time.Millisecond))
}
