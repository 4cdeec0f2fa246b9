package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"restaurant-service/models"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes order events keyed by order id, so all events of one
// order land on the same partition in order.
type KafkaPublisher struct {
	writer MessageWriter
	topic  string
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.Hash{},
	}
	log.Printf("[RestaurantService][KafkaPublisher] initialized topic=%s brokers=%v", topic, brokers)
	return NewKafkaPublisherWithWriter(w, topic)
}

func NewKafkaPublisherWithWriter(w MessageWriter, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: w, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, evt models.OrderEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", evt.EventType, err)
	}

	msg := kafka.Message{
		Key:   []byte(evt.OrderID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(evt.EventType)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		log.Printf("❌ [RestaurantService][KafkaPublisher] failed to publish %s order=%s topic=%s err=%v", evt.EventType, evt.OrderID, p.topic, err)
		return err
	}
	log.Printf("✅ [RestaurantService][KafkaPublisher] %s published order=%s topic=%s", evt.EventType, evt.OrderID, p.topic)
	return nil
}

func (p *KafkaPublisher) Close() error {
	log.Printf("[RestaurantService][KafkaPublisher] closing writer topic=%s", p.topic)
	return p.writer.Close()
}
