package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"backend-dogwalk/internal/config"
	"backend-dogwalk/internal/db"
	"backend-dogwalk/internal/events"
	"backend-dogwalk/internal/logging"
	"backend-dogwalk/internal/server"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var mainDepsProvider = defaultDeps
var mainRunner = realMain

func main() {
	mainRunner(mainDepsProvider())
}

type mainDeps struct {
	loadConfig      func() config.Config
	newLogger       func(level, format string) (*zap.Logger, error)
	connectPostgres func(config.Config) (*pgxpool.Pool, error)
	connectRedis    func(config.Config) *redis.Client
	newPublisher    func(config.Config) events.Publisher
	notify          func(chan<- os.Signal, ...os.Signal)
	run             func(context.Context, config.Config, Infra, <-chan os.Signal, ListenFunc) error
}

// Infra is everything Run needs that was opened outside of it. Run closes it
// on shutdown.
type Infra struct {
	Postgres  *pgxpool.Pool
	Redis     *redis.Client
	Publisher events.Publisher
	Log       *zap.Logger
}

func defaultDeps() mainDeps {
	return mainDeps{
		loadConfig:      config.Load,
		newLogger:       logging.New,
		connectPostgres: db.ConnectPostgres,
		connectRedis:    db.ConnectRedis,
		newPublisher:    newPublisher,
		notify:          signal.Notify,
		run:             Run,
	}
}

func newPublisher(cfg config.Config) events.Publisher {
	brokers := cfg.Brokers()
	if len(brokers) == 0 {
		return events.Nop{}
	}
	return events.NewKafkaPublisher(brokers, cfg.KafkaTopic)
}

func realMain(deps mainDeps) {
	cfg := deps.loadConfig()

	log, err := deps.newLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger setup failed: %v\n", err)
		log = zap.NewNop()
	}
	defer func() { _ = log.Sync() }()

	pg, err := deps.connectPostgres(cfg)
	if err != nil {
		log.Warn("postgres connection failed, running without persistence", zap.Error(err))
	}

	infra := Infra{
		Postgres:  pg,
		Redis:     deps.connectRedis(cfg),
		Publisher: deps.newPublisher(cfg),
		Log:       log,
	}

	signals := make(chan os.Signal, 1)
	deps.notify(signals, syscall.SIGINT, syscall.SIGTERM)

	if err := deps.run(context.Background(), cfg, infra, signals, nil); err != nil {
		log.Error("server exited with error", zap.Error(err))
	}
}

type ListenFunc func(app *fiber.App, addr string) error

var defaultListen ListenFunc = func(app *fiber.App, addr string) error {
	return app.Listen(addr)
}

var shutdownFn = func(app *fiber.App, ctx context.Context) error {
	return app.ShutdownWithContext(ctx)
}

// Run starts the HTTP server and waits for termination signals.
func Run(ctx context.Context, cfg config.Config, infra Infra, signals <-chan os.Signal, listen ListenFunc) error {
	if infra.Log == nil {
		infra.Log = zap.NewNop()
	}
	if infra.Publisher == nil {
		infra.Publisher = events.Nop{}
	}
	srv := server.NewServer(cfg, infra.Postgres, infra.Redis, infra.Publisher, infra.Log)
	if infra.Postgres != nil {
		if err := srv.Restore(ctx); err != nil {
			infra.Log.Warn("walker restore failed", zap.Error(err))
		}
	}

	if listen == nil {
		listen = defaultListen
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- listen(srv.App, cfg.ServerPort)
	}()
	infra.Log.Info("walk api listening", zap.String("addr", cfg.ServerPort))

	select {
	case <-signals:
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := shutdownFn(srv.App, shutdownCtx); err != nil {
		return err
	}
	srv.Stream.Close()
	if err := infra.Publisher.Close(); err != nil {
		infra.Log.Warn("event publisher close failed", zap.Error(err))
	}
	if infra.Postgres != nil {
		infra.Postgres.Close()
	}
	if infra.Redis != nil {
		_ = infra.Redis.Close()
	}
	infra.Log.Info("walk api stopped")
	return nil
}
