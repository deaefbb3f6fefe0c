package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/scalpapaschal-dotcom/OuterCircle/internal/config"
	"github.com/scalpapaschal-dotcom/OuterCircle/internal/metrics"
	"github.com/scalpapaschal-dotcom/OuterCircle/internal/server/rest"
	"github.com/scalpapaschal-dotcom/OuterCircle/internal/service"
	"github.com/scalpapaschal-dotcom/OuterCircle/pkg/logger"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// Run loads the configuration from configPath and serves HTTP until SIGINT or SIGTERM.
func Run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return run(ctx, cfg)
}

// InitDB loads the configuration from configPath, creates the schema and exits.
func InitDB(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(cfg.LogLevel, cfg.LogFormat)

	st, err := openStore(context.Background(), cfg)
	if err != nil {
		return err
	}

	logger.Info("Database schema is ready", "driver", cfg.DatabaseDriver, "backend", cfg.StoreBackend)

	return st.close()
}

func run(ctx context.Context, cfg *config.Config) error {
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.close(); err != nil {
			logger.Error("Failed to close database", "error", err)
		}
	}()

	m := metrics.New()
	codeService := service.NewCodeService(st.repo, cfg.CodeAlphabet, cfg.CodeLength,
		service.WithMaxAttempts(cfg.CodeMaxAttempts),
		service.WithCodeMetrics(m),
	)
	messageService := service.NewMessageService(st.repo, m, service.WithCodeFormat(cfg.CodeAlphabet, cfg.CodeLength))

	server := rest.NewServer(codeService, messageService,
		rest.WithAddress(fmt.Sprintf("%s:%d", cfg.ServerAddress, cfg.ServerPort)),
		rest.WithReadTimeout(cfg.ServerReadTimeout),
		rest.WithWriteTimeout(cfg.ServerWriteTimeout),
		rest.WithPinger(st.pinger),
		rest.WithMetrics(m),
	)

	return serve(ctx, server)
}

func serve(ctx context.Context, server *rest.Server) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Server is listening", "address", server.Addr)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to run server on %s: %w", server.Addr, err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		return nil
	})

	return g.Wait()
}
