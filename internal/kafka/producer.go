package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"campus-cafeteria/internal/logger"
	"campus-cafeteria/internal/models"

	"github.com/segmentio/kafka-go"
)

// Publisher streams domain events. Implementations must not block request handling for long.
type Publisher interface {
	Publish(ctx context.Context, event models.DomainEvent) error
	Close() error
}

// messageWriter is the part of *kafka.Writer the producer needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	Writer      messageWriter
	TopicPrefix string
	Logger      *logger.Logger

	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup
}

// NewProducer builds a producer that picks the topic per message.
func NewProducer(brokers []string, topicPrefix string, log *logger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}
	return &Producer{Writer: writer, TopicPrefix: topicPrefix, Logger: log}
}

// Topic maps an event type to its topic name.
func Topic(prefix, eventType string) string {
	if prefix == "" {
		return eventType
	}
	return prefix + "." + eventType
}

func (p *Producer) Publish(ctx context.Context, event models.DomainEvent) error {
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event.Type, err)
	}

	topic := Topic(p.TopicPrefix, event.Type)
	err = p.Writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(event.EntityID),
		Value: msgBytes,
	})
	if err != nil {
		p.Logger.LogKafka("PUBLISH_FAILED", topic, err.Error())
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}

	p.Logger.LogKafka("PUBLISHED", topic, event.EntityID)
	return nil
}

// Go runs a background publish that Close waits for. Once closed, fn is dropped.
func (p *Producer) Go(fn func()) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.Logger.Warn("KAFKA", "Producer closed, dropping background publish")
		return
	}
	p.inflight.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.inflight.Done()
		fn()
	}()
}

// Close waits for in-flight background publishes, then flushes and closes the writer.
func (p *Producer) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.inflight.Wait()
	return p.Writer.Close()
}

// NopPublisher drops every event; used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, event models.DomainEvent) error { return nil }

func (NopPublisher) Close() error { return nil }

// background is implemented by publishers that track their own goroutines.
type background interface {
	Go(fn func())
}

// PublishAsync sends the event in the background so a slow broker never delays the caller.
// Publishers with a Go method are drained by their Close.
func PublishAsync(p Publisher, log *logger.Logger, event models.DomainEvent) {
	if p == nil {
		return
	}
	send := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := p.Publish(ctx, event); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Dropped %s event for %s: %v", event.Type, event.EntityID, err))
		}
	}
	if bg, ok := p.(background); ok {
		bg.Go(send)
		return
	}
	go send()
}
