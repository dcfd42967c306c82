package main // Entry point package

import (
	"context"
	"errors"
	"log" // Logging library
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iliyamo/labyrinth/internal/config" // Internal config loader
	"github.com/iliyamo/labyrinth/internal/database"
	"github.com/iliyamo/labyrinth/internal/handler"
	"github.com/iliyamo/labyrinth/internal/logging"
	"github.com/iliyamo/labyrinth/internal/middleware"
	"github.com/iliyamo/labyrinth/internal/notify"
	"github.com/iliyamo/labyrinth/internal/repository"
	"github.com/iliyamo/labyrinth/internal/router" // Internal router setup
	"github.com/iliyamo/labyrinth/internal/service"
	"github.com/iliyamo/labyrinth/internal/utils"
)

func main() {
	cfg := config.Load() // Load environment config
	logger := logging.New(os.Stdout, cfg.LogFormat, cfg.LogLevel).With("app", cfg.Name, "env", cfg.Env)
	ctx := context.Background()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		logger.Warn(ctx, "redis unavailable; rate limiting and response cache disabled")
	} else {
		defer rdb.Close()
	}

	sender, closeSender, err := notify.New(cfg.Mail, logger)
	if err != nil {
		log.Fatalf("mail: %v", err)
	}
	defer closeSender()
	mailer := notify.Mailer{
		Sender:    sender,
		AppName:   cfg.Name,
		APIURL:    cfg.APIURL,
		ClientURL: cfg.ClientURL,
		ResetTTL:  cfg.ResetTTL,
	}

	tokens := utils.NewTokenIssuer(cfg.JWTSecret)
	users := repository.NewUserRepo(db)
	problems := repository.NewProblemRepo(db)
	auth := service.NewAuthService(cfg, users, tokens, mailer, logger)
	progress := service.NewProgressService(users, problems, logger)

	limit := middleware.NewTokenBucket(cfg.RateLimit, rdb, logger)
	cache := middleware.NewResponseCache(cfg.Cache, rdb, logger)

	e := router.New(logger)
	router.RegisterRoutes(e, &handler.HealthHandler{DB: db})
	api := e.Group("/api")
	router.RegisterAuth(api, handler.NewAuthHandler(cfg, auth, logger), limit)
	router.RegisterUser(api, handler.NewUserHandler(auth, logger))
	router.RegisterProblem(api, handler.NewProblemHandler(progress, cache, logger), router.ProblemOptions{
		Tokens:     tokens,
		Limit:      limit,
		Cache:      cache,
		AdminToken: cfg.AdminToken,
	})

	addr := ":" + cfg.Port // Address string with port
	go func() {
		logger.Info(ctx, "listening", "addr", addr, "mail_transport", cfg.Mail.Transport, "db", cfg.DBDriver)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err) // Log and exit if server fails
		}
	}()

	stop, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()
	<-stop.Done()

	shutdownCtx, cancelShutdown := context.WithTimeout(ctx, 10*time.Second)
	defer cancelShutdown()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "shutdown", "err", err)
	}
	logger.Info(ctx, "stopped")
}
