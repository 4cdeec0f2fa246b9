package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"restaurant-service/models"

	aws_pkg "restaurant-service/pkg/aws"

	"github.com/google/uuid"
)

// StatusPoller is satisfied by *aws_pkg.SQSConsumer.
type StatusPoller interface {
	StartPolling(ctx context.Context, handler aws_pkg.MessageHandler) error
}

// KitchenStatusConsumer applies status updates sent by the kitchen display
// system through SQS.
type KitchenStatusConsumer struct {
	poller  StatusPoller
	orders  OrderService
	metrics *aws_pkg.MetricsClient
}

func NewKitchenStatusConsumer(poller StatusPoller, orders OrderService, metrics *aws_pkg.MetricsClient) *KitchenStatusConsumer {
	return &KitchenStatusConsumer{poller: poller, orders: orders, metrics: metrics}
}

// Start polls until ctx is cancelled.
func (c *KitchenStatusConsumer) Start(ctx context.Context) error {
	log.Println("[RestaurantService][KitchenStatusConsumer] Starting kitchen status consumer")

	err := c.poller.StartPolling(ctx, c.HandleMessage)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("❌ [RestaurantService][KitchenStatusConsumer] polling error: %v", err)
		return err
	}
	return nil
}

// HandleMessage applies one message. A nil return deletes the message, so
// only internal failures are returned.
func (c *KitchenStatusConsumer) HandleMessage(ctx context.Context, body string) error {
	var snsEnvelope struct {
		Message string `json:"Message"`
	}
	if err := json.Unmarshal([]byte(body), &snsEnvelope); err == nil && snsEnvelope.Message != "" {
		body = snsEnvelope.Message
	}

	var msg models.KitchenStatusMessage
	if err := json.Unmarshal([]byte(body), &msg); err != nil {
		log.Printf("❌ [RestaurantService][KitchenStatusConsumer] invalid JSON: %v payload=%s", err, body)
		return nil
	}
	if msg.OrderID == "" || msg.Status == "" {
		log.Printf("❌ [RestaurantService][KitchenStatusConsumer] missing order_id or status payload=%s", body)
		return nil
	}
	orderID, err := uuid.Parse(msg.OrderID)
	if err != nil {
		log.Printf("❌ [RestaurantService][KitchenStatusConsumer] invalid order_id=%s", msg.OrderID)
		return nil
	}

	if _, svcErr := c.orders.SetStatus(ctx, orderID, msg.Status); svcErr != nil {
		if svcErr.StatusCode >= 500 {
			return fmt.Errorf("set status order=%s: %w", orderID, svcErr)
		}
		log.Printf("⚠️ [RestaurantService][KitchenStatusConsumer] dropped status=%s order=%s: %s", msg.Status, orderID, svcErr.Message)
		return nil
	}

	log.Printf("✅ [RestaurantService][KitchenStatusConsumer] order=%s status=%s station=%s", orderID, msg.Status, msg.Station)
	recordCount(c.metrics, aws_pkg.MetricKitchenMessages, map[string]string{"Status": msg.Status})
	return nil
}
