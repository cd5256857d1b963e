package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/acmedental/booking-agent/internal/agent"
	"github.com/acmedental/booking-agent/internal/app/bootstrap"
	"github.com/acmedental/booking-agent/internal/chatapi"
	"github.com/acmedental/booking-agent/internal/config"
	"github.com/acmedental/booking-agent/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting booking-agent API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	// Conversation history: Redis when configured, otherwise in-process.
	var history agent.HistoryStore
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Error("redis unreachable", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		history = agent.NewRedisHistoryStore(redisClient)
		logger.Info("conversation history backed by redis", "addr", cfg.RedisAddr)
	} else {
		history = agent.NewMemoryHistoryStore()
		logger.Warn("REDIS_ADDR not set, conversation history is in-memory only")
	}

	rt, err := bootstrap.New(context.Background(), cfg, history, prometheus.DefaultRegisterer, logger)
	if err != nil {
		logger.Error("failed to build assistant runtime", "error", err)
		os.Exit(1)
	}
	defer rt.Close()

	chatHandler := chatapi.NewChatHandler(rt.Agent, logger)
	router := chatapi.NewRouter(chatapi.RouterConfig{
		Chat:   chatHandler,
		Logger: logger,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}
