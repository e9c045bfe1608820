package main

import (
	"chat-hub/auth"
	"chat-hub/infrastructure/files"
	"chat-hub/infrastructure/grpc/api"
	"chat-hub/infrastructure/grpc/server"
	"chat-hub/infrastructure/storage"
	"chat-hub/infrastructure/ws"
	"chat-hub/internal"
	"chat-hub/runtime"
	"chat-hub/runtime/workers"
	"chat-hub/services"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	grpc3 "github.com/mama165/sdk-go/grpc"
	"github.com/mama165/sdk-go/logs"
	"google.golang.org/grpc"
)

// Exit codes to provide meaningful status to the service manager.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run wires every component, serves until a signal arrives and releases
// resources in reverse order through defers.
func run() (int, error) {
	// 1. Configuration & Logger
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	cipher, err := auth.NewCipherFromBase64(config.CipherKey)
	if err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	logger := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Database (BadgerDB), shared by every store
	db, err := badger.Open(buildBadgerOpts(ctx, config, logger))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()
	store := storage.NewStore(db, logger)

	fileStore, err := files.NewDiskStore(config.UploadDir, config.FilesBaseURL, config.MaxUploadSize, logger)
	if err != nil {
		return exitRuntime, err
	}

	// 3. Delivery fabric: one supervised fan-out worker per shard
	registry := runtime.NewRegistry()
	broadcaster := runtime.NewBroadcaster(logger, registry, config.NumberOfWorkers, config.BufferSize)
	supervisor := workers.NewSupervisor(logger, config.RestartInterval)
	var queues []workers.NamedChannel
	for i, shard := range broadcaster.Shards() {
		supervisor.Add(workers.NewEventFanout(logger, shard, config.SinkTimeout, i))
		queues = append(queues, workers.NamedChannel{Name: fmt.Sprintf("shard-%d", i), Channel: shard})
	}
	capacity := workers.NewChannelCapacityWorker(logger, queues, config.MetricInterval)
	supervisor.Add(capacity)
	supervisorDone := make(chan struct{})
	go func() {
		supervisor.Run(ctx)
		close(supervisorDone)
	}()

	// 4. Services
	authenticator := auth.NewAuthenticator(config.AuthSecret, config.AuthIssuer, config.AuthTokenDuration)
	userRepository := storage.NewUserRepository(db, cipher, logger)
	authService := services.NewAuthService(logger, userRepository, authenticator)
	conversationService := services.NewConversationService(logger, store, authService, broadcaster, fileStore, config.MaxPageSize,
		services.WithPresence(authService))

	if logger.Enabled(ctx, slog.LevelDebug) && config.DebugPort > 0 {
		internal.StartDebugServer(ctx, logger, store, config.DebugPort, func() map[string]any {
			return map[string]any{
				"live_topics":        registry.Topics(),
				"dropped_deliveries": broadcaster.Dropped(),
				"fanout_queues":      capacity.Snapshot(),
			}
		})
	}

	errChan := make(chan error, 2)

	// 5. gRPC Server Setup
	address := net.JoinHostPort(config.Host, fmt.Sprint(config.Port))
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	interceptor := auth.NewInterceptor(authenticator, api.PublicMethods...)
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			grpc3.UnaryLoggingInterceptor(logger),
			interceptor.Unary(),
		),
		grpc.ChainStreamInterceptor(interceptor.Stream()),
	)
	api.RegisterConversationServiceServer(s, server.NewConversationServer(logger, conversationService, config.ConnectionBufferSize))
	api.RegisterAuthServiceServer(s, server.NewAuthServer(authService))

	go func() {
		logger.Info("Starting gRPC server", "address", address, "at", time.Now().UTC())
		for serviceName := range s.GetServiceInfo() {
			logger.Debug("gRPC exposed service", "name", serviceName)
		}
		if err := s.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	// 6. HTTP Server Setup: websocket subscriptions and stored files
	mux := http.NewServeMux()
	mux.Handle("/ws", ws.NewHandler(logger, authenticator, conversationService, config.ConnectionBufferSize, config.Origins()))
	filesPrefix := strings.TrimRight(config.FilesBaseURL, "/") + "/"
	mux.Handle(filesPrefix, http.StripPrefix(filesPrefix, fileStore))
	httpServer := &http.Server{
		Addr:              net.JoinHostPort(config.Host, fmt.Sprint(config.HTTPPort)),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("Starting HTTP server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	code := exitOK
	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case runErr = <-errChan:
		code = exitRuntime
	}

	// 8. Final Cleanup
	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server shutdown", "error", err)
	}
	// Open subscriptions would hold GracefulStop forever
	stopped := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-shutdownCtx.Done():
		s.Stop()
	}
	stop()
	supervisor.Stop()
	<-supervisorDone
	logger.Info("Program stopped cleanly")

	return code, runErr
}

func buildBadgerOpts(ctx context.Context, config internal.Config, logger *slog.Logger) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)
	if logger.Enabled(ctx, slog.LevelDebug) {
		return options.WithLoggingLevel(badger.DEBUG)
	}
	return options.WithLoggingLevel(badger.WARNING)
}
