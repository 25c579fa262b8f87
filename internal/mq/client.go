// Package mq wraps the RabbitMQ plumbing: a connection/channel pair, queue
// declaration with dead-letter routing, publishing, and manual-ack consuming.
package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Client holds one AMQP connection and channel.
type Client struct {
	conn *amqp.Connection
	chn  *amqp.Channel
}

// NewClient dials the broker and opens a channel.
func NewClient(url string) (*Client, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	chn, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	return &Client{conn: conn, chn: chn}, nil
}

// Close releases the channel and connection.
func (c *Client) Close() error {
	if err := c.chn.Close(); err != nil {
		return err
	}
	return c.conn.Close()
}

// DeadLetterName is the quarantine queue paired with a main queue.
func DeadLetterName(queue string) string {
	return queue + ".deadletter"
}

// DeclareQueue declares a durable queue together with its dead-letter queue.
// Messages nacked without requeue are routed to the dead-letter queue by the
// broker's default exchange.
func (c *Client) DeclareQueue(name string) error {
	dlq := DeadLetterName(name)
	if _, err := c.chn.QueueDeclare(dlq, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare dead-letter queue %s: %w", dlq, err)
	}
	args := amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": dlq,
	}
	if _, err := c.chn.QueueDeclare(name, true, false, false, false, args); err != nil {
		return fmt.Errorf("declare queue %s: %w", name, err)
	}
	return nil
}

// Publish sends one persistent JSON message to a queue.
func (c *Client) Publish(ctx context.Context, queue string, body []byte) error {
	return c.chn.PublishWithContext(ctx,
		"",    // default exchange
		queue, // routing key
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		})
}

// Consume starts delivering messages from a queue with manual acknowledgment
// and a prefetch of one, so a worker holds a single in-flight message.
func (c *Client) Consume(queue string) (<-chan amqp.Delivery, error) {
	if err := c.chn.Qos(1, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}
	msgs, err := c.chn.Consume(
		queue,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("consume %s: %w", queue, err)
	}
	return msgs, nil
}

// NotifyClose relays broker-level channel errors, independent of any message.
func (c *Client) NotifyClose() <-chan *amqp.Error {
	return c.chn.NotifyClose(make(chan *amqp.Error, 1))
}
