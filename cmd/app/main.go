package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/medcare/api"
	"github.com/Domenick1991/medcare/config"
	"github.com/Domenick1991/medcare/internal/bootstrap"
	"github.com/Domenick1991/medcare/internal/cache"
	"github.com/Domenick1991/medcare/internal/kafka"
	"github.com/Domenick1991/medcare/internal/logger"
	"github.com/Domenick1991/medcare/internal/service/booking"
	"github.com/gin-gonic/gin"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logg := logger.New(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, release, err := bootstrap.OpenRepository(ctx, cfg, logg)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer release()

	opts := []booking.BookingServiceOption{booking.WithLogger(logg)}

	if cfg.Redis.Enabled() {
		redisCache := cache.NewRedisCache(cfg.Redis)
		defer redisCache.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisCache.Ping(pingCtx); err != nil {
			logg.Warn("redis unavailable, booking cache disabled", "addr", cfg.Redis.Addr, "error", err)
		} else {
			opts = append(opts, booking.WithCache(redisCache))
		}
		cancel()
	}

	if cfg.Kafka.Enabled() {
		producer := kafka.NewProducer(cfg.Kafka.Brokers)
		defer producer.Close()
		opts = append(opts, booking.WithEvents(producer, cfg.Kafka.BookingEventsTopic))
	}

	bookingService := booking.NewBookingService(repo, opts...)

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(api.NewBookingHandler(bookingService), logg, cfg.HTTP.CORSAllowedOrigins)

	return bootstrap.Run(ctx, cfg.HTTP.Address(), router, cfg.HTTP.ShutdownTimeout(), logg)
}
