package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/ventixe/invoice-service/internal/events"
)

// BookingNotifier publishes "booking updated with invoice id" messages. Each
// call opens its own connection, sends one message, and closes again, so
// concurrent orchestrations never share broker state. Retrying is the
// caller's concern.
type BookingNotifier struct {
	url   string
	queue string
}

// NewBookingNotifier returns a notifier for the given broker URL and queue.
func NewBookingNotifier(url, queue string) *BookingNotifier {
	return &BookingNotifier{url: url, queue: queue}
}

// Publish serializes the payload and sends it on a connection scoped to this
// call. The connection is released on every exit path.
func (n *BookingNotifier) Publish(ctx context.Context, payload events.UpdateBookingPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal booking update: %w", err)
	}

	client, err := NewClient(n.url)
	if err != nil {
		return fmt.Errorf("connect for booking update: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			log.Printf("booking notifier: close connection: %v", err)
		}
	}()

	if err := client.DeclareQueue(n.queue); err != nil {
		return err
	}
	return client.Publish(ctx, n.queue, body)
}
