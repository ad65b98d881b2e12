package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"kanban/internal/handlers"
	"kanban/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found, using process environment")
	}

	if getEnv("DEBUG", "") != "" {
		log.SetLevel(log.DebugLevel)
	}
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	// Configuration
	port := getEnv("PORT", "8080")
	dbPath := getEnv("DB_PATH", "./data/kanban.db")
	redisAddr := getEnv("REDIS_ADDR", "")

	cacheTTL, err := time.ParseDuration(getEnv("CACHE_TTL", "30s"))
	if err != nil {
		log.Fatalf("Invalid CACHE_TTL: %v", err)
	}

	// Ensure data directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	// Initialize store
	sqlite, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}

	var s store.Store = sqlite
	if redisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: redisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := client.Ping(ctx).Err(); err != nil {
			log.WithError(err).WithField("addr", redisAddr).Warn("redis unavailable, serving without cache")
			client.Close()
		} else {
			s = store.NewCache(sqlite, client, cacheTTL)
			log.WithFields(log.Fields{"addr": redisAddr, "ttl": cacheTTL}).Info("task list cache enabled")
		}
		cancel()
	}
	defer s.Close()

	h := handlers.New(s, log.StandardLogger())

	// Start server
	addr := fmt.Sprintf(":%s", port)
	log.Infof("Starting task service on http://localhost%s", addr)
	if err := http.ListenAndServe(addr, h.Router()); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
