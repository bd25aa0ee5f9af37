package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/medcare/config"
	"github.com/Domenick1991/medcare/internal/audit"
	"github.com/Domenick1991/medcare/internal/kafka"
	"github.com/Domenick1991/medcare/internal/logger"
	kafkaGo "github.com/segmentio/kafka-go"
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
	logg := logger.New(cfg.Log.Level).With("process", "worker")

	if !cfg.Kafka.Enabled() {
		return errors.New("kafka brokers and booking events topic are required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := kafka.NewConsumer(cfg.Kafka)
	defer consumer.Close()

	recorder := audit.NewRecorder(logg)

	logg.Info("consuming booking events", "topic", cfg.Kafka.BookingEventsTopic, "group", cfg.Kafka.GroupID)
	err = consumer.Consume(ctx, func(ctx context.Context, msg kafkaGo.Message) error {
		event, err := kafka.DecodeBookingEvent(msg)
		if err != nil {
			logg.Warn("decode event error", "offset", msg.Offset, "error", err)
			return nil
		}
		return recorder.Record(ctx, event)
	})
	if err != nil {
		return fmt.Errorf("consumer stopped: %w", err)
	}
	logg.Info("worker stopped")
	return nil
}
