package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

type Config struct {
	DatabaseDSN string
	RedisAddr   string
	RedisDB     int
	ServerPort  string
	JWTSecret   string

	// Janitor policy for abandoned lobbies (the directory itself never
	// deletes on leave).
	JanitorInterval time.Duration
	LobbyMaxIdle    time.Duration

	GlobalLobbyName     string
	GlobalLobbyCapacity int
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		DatabaseDSN:         getEnv("DATABASE_DSN", "host=localhost user=user password=password dbname=reflexduel port=5432 sslmode=disable"),
		RedisAddr:           getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:             getEnvInt("REDIS_DB", 0),
		ServerPort:          getEnv("SERVER_PORT", "8080"),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		JanitorInterval:     getEnvDuration("JANITOR_INTERVAL", 5*time.Minute),
		LobbyMaxIdle:        getEnvDuration("LOBBY_MAX_IDLE", 30*time.Minute),
		GlobalLobbyName:     getEnv("GLOBAL_LOBBY_NAME", "Global Lobby"),
		GlobalLobbyCapacity: getEnvInt("GLOBAL_LOBBY_CAPACITY", 50),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	logger.Info().
		Str("redis_addr", cfg.RedisAddr).
		Str("server_port", cfg.ServerPort).
		Dur("janitor_interval", cfg.JanitorInterval).
		Dur("lobby_max_idle", cfg.LobbyMaxIdle).
		Int("global_lobby_capacity", cfg.GlobalLobbyCapacity).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
