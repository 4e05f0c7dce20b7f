package cmd

import (
	"context"
	"io"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sajjad-MoBe/logkv/internal/api"
	"github.com/sajjad-MoBe/logkv/internal/config"
	"github.com/sajjad-MoBe/logkv/internal/logger"
	"github.com/sajjad-MoBe/logkv/internal/repl"
	"github.com/sajjad-MoBe/logkv/internal/rpc"
	"github.com/sajjad-MoBe/logkv/internal/shared"
	"github.com/sajjad-MoBe/logkv/internal/storage"
)

var (
	configPath  string
	serveConfig = config.Default()
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Open the store and serve it over HTTP, gRPC and the prompt",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVarP(&configPath, "config", "c", "", "Path to a TOML config file")
	f.StringVar(&serveConfig.LogFile, "log-file", serveConfig.LogFile, "Path of the append-only data log")
	f.StringVarP(&serveConfig.HTTPAddress, "address", "a", serveConfig.HTTPAddress, "Address for the HTTP API to listen on")
	f.StringVar(&serveConfig.GRPCAddress, "grpc-address", serveConfig.GRPCAddress, "Address for the gRPC API to listen on (disabled when empty)")
	f.BoolVar(&serveConfig.Interactive, "interactive", serveConfig.Interactive, "Run the command prompt on stdin")
	f.BoolVar(&serveConfig.SyncWrites, "sync-writes", serveConfig.SyncWrites, "Fsync the log after every write")
	f.StringVar(&serveConfig.LogLevel, "log-level", serveConfig.LogLevel, "Log level: debug, info, warn or error")
	f.StringVar(&serveConfig.LogDir, "log-dir", serveConfig.LogDir, "Also write diagnostic logs to this directory")
	f.StringVar(&serveConfig.TracingEndpoint, "tracing-endpoint", serveConfig.TracingEndpoint, "Jaeger collector endpoint")
}

// loadServeConfig reads the config file and applies the flags that were set
// explicitly on the command line on top of it.
func loadServeConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	overrides := []struct {
		name  string
		apply func()
	}{
		{"log-file", func() { cfg.LogFile = serveConfig.LogFile }},
		{"address", func() { cfg.HTTPAddress = serveConfig.HTTPAddress }},
		{"grpc-address", func() { cfg.GRPCAddress = serveConfig.GRPCAddress }},
		{"interactive", func() { cfg.Interactive = serveConfig.Interactive }},
		{"sync-writes", func() { cfg.SyncWrites = serveConfig.SyncWrites }},
		{"log-level", func() { cfg.LogLevel = serveConfig.LogLevel }},
		{"log-dir", func() { cfg.LogDir = serveConfig.LogDir }},
		{"tracing-endpoint", func() { cfg.TracingEndpoint = serveConfig.TracingEndpoint }},
	}
	for _, o := range overrides {
		if flags.Changed(o.name) {
			o.apply()
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the diagnostic logger. The returned func closes the log
// file, if any.
func newLogger(cfg *config.Config) (*logger.Logger, func() error, error) {
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	if cfg.LogDir == "" {
		return logger.New(level, os.Stdout), func() error { return nil }, nil
	}

	f, err := logger.OpenFile(cfg.LogDir)
	if err != nil {
		return nil, nil, err
	}
	return logger.New(level, io.MultiWriter(os.Stdout, f)), f.Close, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadServeConfig(cmd)
	if err != nil {
		return err
	}

	log, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	store, err := shared.Open(cfg.LogFile, storage.WithSyncWrites(cfg.SyncWrites))
	if err != nil {
		log.Error("failed to open %s: %v", cfg.LogFile, err)
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("failed to close store: %v", err)
		}
	}()
	m := store.Metrics()
	log.Info("opened %s: %d keys, %d records replayed", cfg.LogFile, m.TotalKeys, m.ReplayedRecords)

	tracer, err := api.NewTracer(cfg.ServiceName, cfg.TracingEndpoint)
	if err != nil {
		return err
	}
	defer tracer.Shutdown(context.Background())

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errCh := make(chan error, 2)

	httpServer := api.NewServer(store, log, api.NewMetrics(), tracer)
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := httpServer.Start(ctx, cfg.HTTPAddress); err != nil {
			errCh <- err
		}
	}()

	if cfg.GRPCAddress != "" {
		ln, err := net.Listen("tcp", cfg.GRPCAddress)
		if err != nil {
			cancel()
			wg.Wait()
			return err
		}
		grpcServer := rpc.NewGRPCServer(store, log)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := rpc.Serve(ctx, grpcServer, ln, log); err != nil {
				errCh <- err
			}
		}()
	}

	if cfg.Interactive {
		go func() {
			if err := repl.New(store, os.Stdin, os.Stdout).Run(ctx); err != nil && ctx.Err() == nil {
				log.Warn("prompt stopped: %v", err)
				return
			}
			log.Info("prompt closed, servers keep running")
		}()
	}

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err = <-errCh:
		log.Error("server error: %v", err)
	}

	cancel()
	wg.Wait()
	return err
}
