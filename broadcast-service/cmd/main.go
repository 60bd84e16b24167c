package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	redisClient "github.com/aaronwang/stay-auction/broadcast-service/internal/redis"
	wsHandler "github.com/aaronwang/stay-auction/broadcast-service/internal/websocket"
	"github.com/aaronwang/stay-auction/shared/config"
	"github.com/aaronwang/stay-auction/shared/logging"
	"github.com/aaronwang/stay-auction/shared/mutex"
)

func main() {
	if err := config.Load(); err != nil {
		logging.New("info", "json").WithError(err).Fatal("failed to read .env")
	}
	cfg := loadConfig()
	log := logging.New(cfg.LogLevel, cfg.LogFormat).WithField("service", "broadcast-service")

	log.Info("connecting to Redis")
	rdb, err := mutex.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to Redis")
	}
	defer rdb.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	subscriber := redisClient.NewSubscriber(rdb, log)
	if err := subscriber.SubscribeAll(ctx); err != nil {
		log.WithError(err).Fatal("failed to subscribe to auction events")
	}
	defer subscriber.Close()

	wsManager := wsHandler.NewManager(log)
	go wsManager.Run(ctx.Done())

	messageChan := make(chan *redisClient.Message, 256)
	go func() {
		if err := subscriber.Listen(ctx, messageChan); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("redis listener stopped")
		}
	}()

	// Redis Pub/Sub -> WebSocket
	go func() {
		for {
			select {
			case msg := <-messageChan:
				wsManager.Broadcast(msg.AuctionID, []byte(msg.Payload))
			case <-ctx.Done():
				return
			}
		}
	}()

	handler := wsHandler.NewHandler(wsManager, cfg.ClientRate, cfg.ClientBurst)
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      handler.SetupRoutes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.ServerAddr).Info("broadcast service listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}
	cancel()

	log.Info("server stopped gracefully")
}

// Config holds application configuration
type Config struct {
	ServerAddr    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	LogLevel      string
	LogFormat     string
	ClientRate    float64
	ClientBurst   int
}

// loadConfig loads configuration from environment variables
func loadConfig() *Config {
	return &Config{
		ServerAddr:    config.GetEnv("SERVER_ADDR", ":8081"),
		RedisAddr:     config.GetEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: config.GetEnv("REDIS_PASSWORD", ""),
		RedisDB:       config.GetEnvInt("REDIS_DB", 0),
		LogLevel:      config.GetEnv("LOG_LEVEL", "info"),
		LogFormat:     config.GetEnv("LOG_FORMAT", "json"),
		ClientRate:    float64(config.GetEnvInt("WS_CLIENT_RATE", 1)),
		ClientBurst:   config.GetEnvInt("WS_CLIENT_BURST", 3),
	}
}
