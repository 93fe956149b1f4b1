package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/guifei-live/room-server/internal/config"
	"github.com/guifei-live/room-server/internal/domain"
	"github.com/guifei-live/room-server/internal/handler"
	"github.com/guifei-live/room-server/internal/hub"
	"github.com/guifei-live/room-server/internal/registry"
	"github.com/guifei-live/room-server/internal/repository"
	"github.com/guifei-live/room-server/internal/room"
	"github.com/guifei-live/room-server/internal/service"
	"github.com/guifei-live/room-server/internal/store"
	"github.com/guifei-live/room-server/pkg/database"
	pkglog "github.com/guifei-live/room-server/pkg/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		pkglog.L().Fatal().Err(err).Msg("failed to load config")
	}

	// Initialize structured logger
	pkglog.Init(pkglog.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Level == "debug",
		ServiceName: "room-server",
	})
	logger := pkglog.L()

	// Connect to database using GORM
	db, err := database.New(&database.Config{
		Driver:          cfg.Database.Driver,
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		FilePath:        cfg.Database.FilePath,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := database.AutoMigrate(db, &domain.GiftRecordModel{}, &domain.UserRecordModel{}); err != nil {
		logger.Fatal().Err(err).Msg("failed to auto-migrate")
	}
	logger.Info().Msg("database migration completed")

	giftRepo := repository.NewGormGiftRepository(db)
	userRepo := repository.NewGormUserRepository(db)

	// Presence mirror is optional; enabled when a redis address is set.
	var presence store.PresenceMirror
	if cfg.Redis.Address != "" {
		mirror, err := store.NewRedisPresenceMirror(cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer mirror.Close()
		presence = mirror
		logger.Info().Str("addr", cfg.Redis.Address).Msg("presence mirror connected")
	}

	// Core components
	reg := registry.NewRegistry()
	rooms := room.NewTable()
	engine := hub.NewEngine(rooms)
	liveSvc := service.NewLiveService(reg, rooms, engine, presence, giftRepo, userRepo)

	var cleaner room.Cleaner
	if presence != nil {
		cleaner = presence
	}
	reaper := room.NewReaper(rooms, cfg.Room.SweepInterval, cfg.Room.GracePeriod, cleaner)

	// Handlers
	wsHandler := handler.NewWSHandler(engine, liveSvc, cfg.WebSocket)
	httpHandler := handler.NewHTTPHandler(rooms, reg, giftRepo, userRepo)

	// Setup Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(pkglog.GinMiddleware(logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	wsHandler.RegisterRoutes(r)
	httpHandler.RegisterRoutes(r)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", addr).Dur("grace", cfg.Room.GracePeriod).Msg("room server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return reaper.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal().Err(err).Msg("server exited with error")
	}
	logger.Info().Msg("server stopped")
}
