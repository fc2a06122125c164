package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storefront/notification-worker/internal/app/notification/entity"
	"storefront/notification-worker/internal/app/notification/service"
	"storefront/pkg/logger"
	"storefront/pkg/metrics"
	"storefront/pkg/tracing"

	"github.com/segmentio/kafka-go"
)

const serviceName = "notification-worker"

// KafkaConsumer читает события из топика storefront_events и отправляет письма
type KafkaConsumer struct {
	reader      *kafka.Reader
	topic       string
	groupID     string
	deliverySvc service.DeliveryServiceInterface
	stopChan    chan struct{}
	doneChan    chan struct{}
}

func NewKafkaConsumer(
	brokers []string,
	topic string,
	groupID string,
	minBytes int,
	maxBytes int,
	deliverySvc service.DeliveryServiceInterface,
) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       minBytes,
		MaxBytes:       maxBytes,
		StartOffset:    kafka.LastOffset,
		CommitInterval: time.Second,
		ReadBackoffMin: 100 * time.Millisecond,
		ReadBackoffMax: 1 * time.Second,
	})

	return &KafkaConsumer{
		reader:      reader,
		topic:       topic,
		groupID:     groupID,
		deliverySvc: deliverySvc,
		stopChan:    make(chan struct{}),
		doneChan:    make(chan struct{}),
	}
}

// Start запускает чтение в отдельной горутине
func (c *KafkaConsumer) Start(ctx context.Context) {
	logger.Info().Str("topic", c.topic).Str("group", c.groupID).Msg("Starting Kafka consumer")
	go c.consume(ctx)
}

func (c *KafkaConsumer) Stop() {
	logger.Info().Msg("Stopping Kafka consumer")
	close(c.stopChan)
	<-c.doneChan
	c.reader.Close()
	logger.Info().Msg("Kafka consumer stopped")
}

func (c *KafkaConsumer) consume(ctx context.Context) {
	defer close(c.doneChan)

	for {
		select {
		case <-c.stopChan:
			return
		default:
			readCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			message, err := c.reader.FetchMessage(readCtx)
			cancel()

			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if readCtx.Err() == context.DeadlineExceeded {
					continue
				}
				metrics.RecordKafkaError(serviceName, c.topic, "fetch")
				logger.Error().Err(err).Msg("Error fetching message")
				time.Sleep(time.Second)
				continue
			}

			// Письма не доставляются повторно: offset коммитится и при ошибке
			if err := c.processMessage(ctx, message); err != nil {
				metrics.RecordKafkaError(serviceName, c.topic, "process")
				logger.Error().Err(err).
					Int64("offset", message.Offset).
					Int("partition", message.Partition).
					Msg("Failed to deliver notification")
			}
			if err := c.reader.CommitMessages(ctx, message); err != nil {
				metrics.RecordKafkaError(serviceName, c.topic, "commit")
				logger.Error().Err(err).Msg("Error committing message")
			}
		}
	}
}

func (c *KafkaConsumer) processMessage(ctx context.Context, message kafka.Message) error {
	start := time.Now()
	ctx = tracing.ExtractKafka(ctx, &message)

	var event entity.NotificationEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal notification event: %w", err)
	}

	logger.Ctx(ctx).Debug().
		Str("event_type", event.EventType).
		Str("aggregate_id", event.AggregateID).
		Int64("offset", message.Offset).
		Msg("Received notification event")

	if err := c.deliverySvc.Deliver(ctx, &event); err != nil {
		return err
	}

	metrics.RecordKafkaMessageConsumed(serviceName, c.topic, c.groupID, time.Since(start))
	return nil
}

func (c *KafkaConsumer) GetStats() kafka.ReaderStats {
	return c.reader.Stats()
}
