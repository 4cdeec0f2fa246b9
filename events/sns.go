package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"restaurant-service/models"

	aws_pkg "restaurant-service/pkg/aws"
)

// SNSPublisher publishes order events to an SNS topic with the event type as
// a message attribute for subscription filters.
type SNSPublisher struct {
	client   aws_pkg.SNSPublisher
	topicArn string
}

func NewSNSPublisher(client aws_pkg.SNSPublisher, topicArn string) *SNSPublisher {
	return &SNSPublisher{client: client, topicArn: topicArn}
}

func (p *SNSPublisher) Publish(ctx context.Context, evt models.OrderEvent) error {
	if p.client == nil || p.topicArn == "" {
		return nil
	}

	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", evt.EventType, err)
	}

	if err := p.client.Publish(ctx, p.topicArn, body, map[string]string{"event_type": evt.EventType}); err != nil {
		return err
	}
	log.Printf("[RestaurantService][SNSPublisher] %s order=%s published to %s", evt.EventType, evt.OrderID, p.topicArn)
	return nil
}

func (p *SNSPublisher) Close() error { return nil }
