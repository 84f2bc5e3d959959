package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"reflexduel/backend/internal/api/handler"
	"reflexduel/backend/internal/config"
	"reflexduel/backend/internal/duel"
	"reflexduel/backend/internal/hub"
	"reflexduel/backend/internal/jobs"
	"reflexduel/backend/internal/logger"
	"reflexduel/backend/internal/models"
	"reflexduel/backend/internal/storage"
)

func setupDependencies(cfg *config.Config, log zerolog.Logger) (*gorm.DB, *redis.Client) {
	// TranslateError maps driver unique-violation errors to
	// gorm.ErrDuplicatedKey, which the global lobby find-or-create relies on.
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect PostgreSQL")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Fatal().Err(err).Msg("failed to connect Redis")
	}

	if err := db.AutoMigrate(&models.Lobby{}, &models.LobbyPlayer{}); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	log.Info().Msg("database and redis connections established, migrations complete")
	return db, rdb
}

func main() {
	log := logger.New(zerolog.InfoLevel)
	log.Info().Msg("starting Reflex Duel backend")

	cfg, err := config.Load(log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, rdb := setupDependencies(cfg, log)

	lobbies := storage.NewLobbyDirectory(db, log)
	sessions := storage.NewSessionStore(rdb, log)

	pushHub := hub.NewManager(rdb, log)
	hubCtx, stopHub := context.WithCancel(context.Background())
	go pushHub.Run(hubCtx)

	coord := duel.NewCoordinator(lobbies, sessions, pushHub, log)
	coord.SetGlobalLobby(cfg.GlobalLobbyName, cfg.GlobalLobbyCapacity)

	janitor := jobs.NewJanitor(lobbies, cfg.JanitorInterval, cfg.LobbyMaxIdle, log)
	if err := janitor.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start lobby janitor")
	}

	h := handler.NewHandler(coord, pushHub, []byte(cfg.JWTSecret), log)

	r := gin.Default()
	r.GET("/anonid", h.GetAnonID)
	r.GET("/ws", h.ServeWebSocket)

	authed := r.Group("/", h.RequirePlayer())
	authed.POST("/lobby/host", h.HostLobby)
	authed.POST("/lobby/join", h.JoinLobby)
	authed.POST("/lobby/quickmatch", h.QuickMatch)
	authed.POST("/lobby/global", h.JoinGlobalLobby)
	authed.POST("/lobby/leave", h.LeaveLobby)
	authed.POST("/duel/result", h.SubmitReflexResult)

	server := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	if err := janitor.Stop(); err != nil {
		log.Warn().Err(err).Msg("janitor shutdown failed")
	}
	stopHub()
	if err := rdb.Close(); err != nil {
		log.Warn().Err(err).Msg("error closing redis connection")
	}
	log.Info().Msg("server stopped gracefully")
}
