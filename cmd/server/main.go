package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/student-task-portal/internal/config"
	"github.com/iliyamo/student-task-portal/internal/database"
	"github.com/iliyamo/student-task-portal/internal/handler"
	"github.com/iliyamo/student-task-portal/internal/middleware"
	"github.com/iliyamo/student-task-portal/internal/model"
	"github.com/iliyamo/student-task-portal/internal/queue"
	"github.com/iliyamo/student-task-portal/internal/repository"
	"github.com/iliyamo/student-task-portal/internal/router"
	"github.com/iliyamo/student-task-portal/internal/service"
	"github.com/iliyamo/student-task-portal/internal/validation"
)

func main() {
	cfg := config.Load()
	log := config.NewLogger(cfg.LogLevel, cfg.LogFormat)

	// ---- storage ----
	dsn := database.DSN(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if cfg.DBMigrate {
		if err := database.Migrate(dsn); err != nil {
			log.WithError(err).Fatal("apply migrations")
		}
	}
	db, err := database.Open(dsn)
	if err != nil {
		log.WithError(err).Fatal("open database")
	}

	// ---- optional infrastructure ----
	rl := config.LoadRateLimitConfig()
	var rdb *redis.Client
	if rl.Enabled {
		rc := config.LoadRedisConfig()
		if rdb = config.NewRedisClient(rc); rdb == nil {
			log.WithField("addr", rc.Addr).Warn("redis unreachable, rate limiting disabled")
		}
	}

	qc := config.LoadQueueConfig()
	var (
		events    service.EventPublisher = queue.Nop{}
		publisher *queue.Publisher
	)
	if qc.Enabled() {
		if publisher, err = queue.NewPublisher(qc.URL, qc.Queue); err != nil {
			log.WithError(err).Warn("broker unreachable, task events disabled")
		} else {
			events = publisher
		}
	}

	// ---- wiring ----
	users := repository.NewUserRepo(db)
	sessions := repository.NewSessionRepo(db)
	auth := service.NewAuthService(users, sessions, service.AuthConfig{
		Secret:     cfg.JWTSecret,
		TokenTTL:   cfg.JWTExpiresIn,
		SessionTTL: cfg.SessionTTL,
		BcryptCost: cfg.BcryptCost,
	}, log)
	homework := service.NewTaskService(model.KindHomework,
		repository.NewTaskRepo(db, model.KindHomework), users, events, log)
	assignments := service.NewTaskService(model.KindAssignment,
		repository.NewTaskRepo(db, model.KindAssignment), users, events, log)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.New()
	e.HTTPErrorHandler = handler.NewHTTPErrorHandler(log, cfg.IsProduction())

	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	e.Use(echomw.BodyLimit("1M"))

	limiter := middleware.NewTokenBucket(rl, rdb, log)
	api := router.RegisterRoutes(e, cfg.MetricsEnabled)
	router.RegisterAuth(api, handler.NewAuthHandler(auth), auth)
	router.RegisterTasks(api, handler.NewTaskHandler(homework), auth, limiter)
	router.RegisterTasks(api, handler.NewTaskHandler(assignments), auth, limiter)

	// ---- serve ----
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := ":" + cfg.Port
	go func() {
		log.WithField("addr", addr).WithField("env", cfg.Env).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("http shutdown")
	}
	if err := db.Close(); err != nil {
		log.WithError(err).Error("close database")
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.WithError(err).Error("close redis")
		}
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			log.WithError(err).Error("close broker")
		}
	}
}
