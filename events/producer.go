package events

import (
	"context"
	"encoding/json"

	"cartflow/models"

	"github.com/segmentio/kafka-go"
)

// KafkaPublisher writes order events to a Kafka topic. Callers treat
// publishing as best-effort.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a publisher for the given brokers and topic.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
	return &KafkaPublisher{writer: writer}
}

func (p *KafkaPublisher) PublishOrderCompleted(ctx context.Context, event models.OrderCompletedEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(event.OrderID),
		Value: data,
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *KafkaPublisher) Close() {
	_ = p.writer.Close()
}
