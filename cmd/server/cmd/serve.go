package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gatherpoint/server/internal/api"
	"github.com/gatherpoint/server/internal/auth"
	"github.com/gatherpoint/server/internal/config"
	"github.com/gatherpoint/server/internal/domain/accounts"
	"github.com/gatherpoint/server/internal/metrics"
	"github.com/gatherpoint/server/internal/storage/postgres"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	// Server flags (override config/env)
	serverHost string
	serverPort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Gatherpoint HTTP server",
	Long: `Start the Gatherpoint HTTP server and begin accepting API requests.

The server will:
- Load configuration from environment variables
- Bootstrap an admin account if ADMIN_* env vars are set
- Start the HTTP API with health and metrics endpoints
- Handle graceful shutdown on SIGINT/SIGTERM

Examples:
  # Start with default configuration (from env vars)
  server serve

  # Start on a specific host and port
  server serve --host 127.0.0.1 --port 9090

  # Start with debug logging
  server serve --log-level debug`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serverHost, "host", "", "server host address (default: 0.0.0.0)")
	serveCmd.Flags().IntVar(&serverPort, "port", 0, "server port (default: 8080)")
}

func runServer() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	if serverHost != "" {
		cfg.Server.Host = serverHost
	}
	if serverPort != 0 {
		cfg.Server.Port = serverPort
	}

	logger := config.NewLogger(cfg.Logging)
	logger.Info().Msg("starting gatherpoint server")

	metrics.Init(Version, GitCommit, BuildDate)

	poolCtx, poolCancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := postgres.NewPool(poolCtx, cfg.Database)
	poolCancel()
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer pool.Close()

	repo, err := postgres.NewRepository(pool)
	if err != nil {
		return fmt.Errorf("repository init failed: %w", err)
	}

	bootstrapCtx, bootstrapCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := bootstrapAdminAccount(bootstrapCtx, cfg, repo.Accounts(), logger); err != nil {
		logger.Error().Err(err).Msg("admin bootstrap failed")
	}
	bootstrapCancel()

	// Database pool metrics, collected every 15 seconds
	dbCollector := metrics.NewDBCollector(pool)
	collectorCtx, collectorCancel := context.WithCancel(context.Background())
	go dbCollector.Start(collectorCtx, 15*time.Second)
	defer collectorCancel()
	defer dbCollector.Stop()

	handler := api.NewRouter(cfg, logger, api.Deps{
		Pool:      pool,
		Accounts:  repo.Accounts(),
		Events:    repo.Events(),
		Version:   Version,
		GitCommit: GitCommit,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	return gracefulShutdown(server, logger)
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}

	// Override logging from flags if provided
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}

	return cfg, nil
}

// bootstrapAdminAccount creates the admin account named by the ADMIN_* env
// vars if it does not exist yet. Admin status is an explicit role on the
// account; no username is special on its own.
func bootstrapAdminAccount(ctx context.Context, cfg config.Config, repo accounts.Repository, logger zerolog.Logger) error {
	bootstrap := cfg.AdminBootstrap
	if bootstrap.Username == "" || bootstrap.Password == "" {
		logger.Warn().Msg("admin bootstrap env vars not fully set; skipping")
		return nil
	}

	hash, err := auth.HashPassword(bootstrap.Password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	_, err = repo.Create(ctx, accounts.CreateParams{
		Username:     bootstrap.Username,
		Email:        bootstrap.Email,
		PasswordHash: hash,
		Role:         string(auth.RoleAdmin),
	})
	if err != nil {
		if errors.Is(err, accounts.ErrUsernameTaken) {
			return nil
		}
		return fmt.Errorf("create admin account: %w", err)
	}

	logger.Info().Str("username", bootstrap.Username).Msg("bootstrapped admin account")
	return nil
}

func gracefulShutdown(server *http.Server, logger zerolog.Logger) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
		return err
	}

	logger.Info().Msg("server stopped")
	return nil
}
