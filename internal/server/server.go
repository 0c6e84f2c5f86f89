package server

import (
	"context"

	"backend-dogwalk/internal/assignment"
	"backend-dogwalk/internal/auth"
	"backend-dogwalk/internal/config"
	"backend-dogwalk/internal/db"
	"backend-dogwalk/internal/events"
	"backend-dogwalk/internal/metrics"
	"backend-dogwalk/internal/storage"
	"backend-dogwalk/internal/stream"
	"backend-dogwalk/internal/tracking"
	"backend-dogwalk/internal/walk"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	App        *fiber.App
	Cfg        config.Config
	DB         *pgxpool.Pool
	Redis      *redis.Client
	Stream     *stream.Hub
	Metrics    *metrics.Collector
	Tracking   *tracking.Service
	Assignment *assignment.Service
	Storage    *storage.Service
	Log        *zap.Logger
}

func NewServer(cfg config.Config, pool *pgxpool.Pool, redisClient *redis.Client, publisher events.Publisher, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	var q db.Querier
	if pool != nil {
		q = pool
	}

	s := &Server{
		App:     app,
		Cfg:     cfg,
		DB:      pool,
		Redis:   redisClient,
		Stream:  stream.NewHub(redisClient, log.Named("stream")),
		Metrics: metrics.New(),
		Log:     log,
	}
	s.Tracking = tracking.NewService(tracking.Deps{
		DB:        q,
		Hub:       s.Stream,
		Publisher: publisher,
		Metrics:   s.Metrics,
		Logger:    log.Named("tracking"),
		Options: walk.Options{
			PhotoCapacity:            cfg.PhotoCapacity,
			MaxPhotoBytes:            cfg.MaxPhotoBytes,
			AllowAppendAfterTerminal: cfg.AllowAppendAfterTerminal,
		},
		GeofenceRadiusKm: cfg.GeofenceRadiusKm,
	})
	s.Assignment = assignment.NewService(assignment.Deps{
		DB:                     q,
		Walks:                  s.Tracking,
		Publisher:              publisher,
		Metrics:                s.Metrics,
		Logger:                 log.Named("assignment"),
		DefaultMaxSimultaneous: cfg.WalkerMaxSimultaneous,
	})
	s.Tracking.SetReleaser(s.Assignment)
	s.Storage = storage.NewService(q, s.Tracking, cfg.StorageBaseURL)

	registerRoutes(s)
	return s
}

// Restore reloads walker gates from Postgres.
func (s *Server) Restore(ctx context.Context) error {
	n, err := s.Assignment.Restore(ctx)
	if err != nil {
		return err
	}
	s.Log.Info("walkers restored", zap.Int("count", n))
	return nil
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	s.App.Get("/metrics", adaptor.HTTPHandler(s.Metrics.Handler()))

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	tracking.RegisterRoutes(s.App.Group("/walks"), s.Tracking, jwtMiddleware)
	assignment.RegisterRoutes(s.App, s.Assignment, jwtMiddleware)
	storage.RegisterRoutes(s.App.Group("/storage"), s.Storage, jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream, s.Tracking.Exists)
}
