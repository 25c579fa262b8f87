// Package worker runs the background sides of the invoice service: the
// booking-created queue consumer and the overdue sweep.
package worker

import (
	"context"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/ventixe/invoice-service/internal/events"
	"github.com/ventixe/invoice-service/internal/invoice"
	"github.com/ventixe/invoice-service/internal/mq"
)

// Consumer turns "booking created" messages into invoices. Every message
// ends in exactly one of three states:
//
//	completed    - invoice created, message removed from the queue
//	abandoned    - business-level failure, message requeued for redelivery
//	dead-letter  - undecodable or panicking message, quarantined
//
// Messages are never acknowledged before processing finishes.
type Consumer struct {
	client   *mq.Client
	invoices *invoice.Service
	queue    string
}

func NewConsumer(client *mq.Client, invoices *invoice.Service, queue string) *Consumer {
	return &Consumer{client: client, invoices: invoices, queue: queue}
}

// Run consumes until the context is cancelled. The in-flight message is
// finished before the loop exits; no new messages are dequeued afterwards.
func (c *Consumer) Run(ctx context.Context) error {
	msgs, err := c.client.Consume(c.queue)
	if err != nil {
		return fmt.Errorf("start consuming %s: %w", c.queue, err)
	}
	// Broker-level faults arrive here independent of message content. They
	// are logged and never touch in-flight message state.
	brokerErrs := c.client.NotifyClose()

	log.Printf("invoice consumer started on queue %s", c.queue)
	for {
		select {
		case <-ctx.Done():
			log.Println("invoice consumer: stop signal received, shutting down")
			return nil
		case amqpErr, ok := <-brokerErrs:
			if !ok {
				brokerErrs = nil
				continue
			}
			log.Printf("invoice consumer: broker error: %v", amqpErr)
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			c.handleDelivery(ctx, d)
		}
	}
}

// handleDelivery decides the single terminal outcome for one message.
func (c *Consumer) handleDelivery(ctx context.Context, d amqp.Delivery) {
	// A panic while processing quarantines the message instead of killing
	// the worker loop.
	defer func() {
		if r := recover(); r != nil {
			log.Printf("invoice consumer: panic while processing message: %v", r)
			c.deadLetter(d)
		}
	}()

	evt, err := events.Unmarshal[events.CreatedBookingEvent](d.Body)
	if err != nil {
		log.Printf("invoice consumer: undecodable message: %v", err)
		c.deadLetter(d)
		return
	}
	if evt.BookingID == "" || evt.UserID == "" || evt.EventID == "" {
		log.Printf("invoice consumer: message missing required ids, dead-lettering")
		c.deadLetter(d)
		return
	}

	form := &events.CreateInvoicePayload{
		BookingID:          evt.BookingID,
		UserID:             evt.UserID,
		EventID:            evt.EventID,
		TicketQuantity:     evt.TicketQuantity,
		TicketPrice:        evt.TicketPrice,
		TicketCategoryName: "Standard",
	}

	result := c.invoices.CreateInvoice(ctx, form)
	if result.Succeeded {
		if err := d.Ack(false); err != nil {
			log.Printf("invoice consumer: ack failed: %v", err)
		}
		return
	}

	// Business-level failure: give the message back to the broker and let
	// its retry policy redeliver it.
	log.Printf("invoice consumer: create invoice failed for booking %s: %s (status %d)",
		evt.BookingID, result.Error, result.StatusCode)
	if err := d.Nack(false, true); err != nil {
		log.Printf("invoice consumer: abandon failed: %v", err)
	}
}

// deadLetter rejects without requeue; the queue's dead-letter routing moves
// the message to the quarantine queue.
func (c *Consumer) deadLetter(d amqp.Delivery) {
	if err := d.Nack(false, false); err != nil {
		log.Printf("invoice consumer: dead-letter failed: %v", err)
	}
}
