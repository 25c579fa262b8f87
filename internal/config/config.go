// Package config loads service configuration from environment variables.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds everything the invoice service needs to talk to its
// collaborators. All of it comes from the environment.
type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`
	APIKey   string `env:"API_KEY"`

	DatabaseURL string `env:"DATABASE_URL"`

	RabbitMQUser     string `env:"RABBITMQ_USER" envDefault:"guest"`
	RabbitMQPassword string `env:"RABBITMQ_PASSWORD" envDefault:"guest"`
	RabbitMQHost     string `env:"RABBITMQ_HOST" envDefault:"localhost"`
	RabbitMQPort     string `env:"RABBITMQ_PORT" envDefault:"5672"`

	KafkaBroker string `env:"KAFKA_BROKER"`
	KafkaTopic  string `env:"KAFKA_TOPIC" envDefault:"invoice-events"`

	BookingServiceURL string `env:"BOOKING_SERVICE_URL"`
	EventServiceURL   string `env:"EVENT_SERVICE_URL"`
	AccountServiceURL string `env:"ACCOUNT_SERVICE_URL"`
	AggregateAPIKey   string `env:"AGGREGATE_API_KEY"`

	OverdueSchedule string `env:"OVERDUE_SCHEDULE" envDefault:"@daily"`
}

// Load parses the environment into a Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// RabbitMQURL formats the AMQP connection string.
func (c *Config) RabbitMQURL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/",
		c.RabbitMQUser, c.RabbitMQPassword, c.RabbitMQHost, c.RabbitMQPort)
}
