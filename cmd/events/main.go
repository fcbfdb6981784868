// Command events tails the cafeteria domain event stream and logs each event.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"campus-cafeteria/internal/config"
	"campus-cafeteria/internal/kafka"
	"campus-cafeteria/internal/logger"
	"campus-cafeteria/internal/models"

	"github.com/joho/godotenv"
)

func main() {
	log := logger.NewLogger("cafeteria-events")
	defer log.Close()

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	}
	cfg := config.Load()

	groupID := os.Getenv("KAFKA_GROUP_ID")
	if groupID == "" {
		groupID = cfg.Kafka.TopicPrefix + "-events-tail"
	}

	topics := kafka.Topics(cfg.Kafka.TopicPrefix, models.AllEventTypes)
	if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, topics, log); err != nil {
		log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
	}

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, topics, groupID, log)
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := consumer.Start(ctx, func(event models.DomainEvent) {
		data, _ := json.Marshal(event.Data)
		log.LogKafka("RECEIVED", event.Type, fmt.Sprintf("entity=%s user=%s data=%s", event.EntityID, event.UserID, data))
	})
	if err != nil {
		log.Fatal("KAFKA", err.Error())
	}
	log.Info("APP", "Event tail stopped")
}
