package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ventixe/invoice-service/internal/aggregate"
	"github.com/ventixe/invoice-service/internal/config"
	"github.com/ventixe/invoice-service/internal/events"
	"github.com/ventixe/invoice-service/internal/invoice"
	"github.com/ventixe/invoice-service/internal/kafka"
	"github.com/ventixe/invoice-service/internal/mq"
	"github.com/ventixe/invoice-service/internal/store"
	transporthttp "github.com/ventixe/invoice-service/internal/transport/http"
	"github.com/ventixe/invoice-service/internal/worker"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Storage. Postgres when configured, the in-memory store otherwise so
	// the service still runs locally without infrastructure.
	var (
		invoices   store.InvoiceStore
		statuses   store.StatusStore
		closeStore func() error
	)
	if cfg.DatabaseURL != "" {
		pg, err := store.NewPostgresStore(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("connect postgres: %v", err)
		}
		if err := pg.Migrate(context.Background()); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		invoices, statuses, closeStore = pg, pg.Statuses(), pg.Close
	} else {
		log.Println("DATABASE_URL not set, using in-memory store")
		mem := store.NewMemoryStore()
		invoices, statuses, closeStore = mem, mem.Statuses(), func() error { return nil }
	}

	// RabbitMQ: the inbound booking-created queue and its dead-letter
	// queue are declared up front; the outbound queue is declared per
	// publish by the notifier.
	amqpURL := cfg.RabbitMQURL()
	log.Printf("connecting to RabbitMQ at %s", cfg.RabbitMQHost)
	rabbitClient, err := mq.NewClient(amqpURL)
	if err != nil {
		log.Fatalf("connect rabbitmq: %v", err)
	}
	if err := rabbitClient.DeclareQueue(events.BookingCreatedQueue); err != nil {
		log.Fatalf("declare queue: %v", err)
	}

	// Kafka lifecycle events are optional.
	var producer kafka.Publisher
	if cfg.KafkaBroker != "" {
		log.Printf("connecting to Kafka at %s, topic %s", cfg.KafkaBroker, cfg.KafkaTopic)
		producer = kafka.NewProducer(cfg.KafkaBroker, cfg.KafkaTopic)
	}

	clients := aggregate.NewClient(cfg.BookingServiceURL, cfg.EventServiceURL, cfg.AccountServiceURL, cfg.AggregateAPIKey)
	notifier := mq.NewBookingNotifier(amqpURL, events.BookingUpdatesQueue)
	svc := invoice.NewService(invoices, statuses, clients, notifier, producer)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	// Booking-created consumer.
	consumer := worker.NewConsumer(rabbitClient, svc, events.BookingCreatedQueue)
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := consumer.Run(ctx); err != nil {
			log.Printf("consumer stopped: %v", err)
		}
	}()

	// Overdue sweep.
	sweeper := worker.NewOverdueSweeper(svc, cfg.OverdueSchedule)
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := sweeper.Run(ctx); err != nil {
			log.Printf("overdue sweeper stopped: %v", err)
		}
	}()

	// REST API.
	router := gin.Default()
	transporthttp.NewInvoiceHandler(svc).Register(router, cfg.APIKey)
	server := &http.Server{Addr: cfg.HTTPAddr, Handler: router}
	go func() {
		log.Printf("invoice service listening on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server: %v", err)
		}
	}()

	// Wait for a stop signal, then drain: workers finish their in-flight
	// message before connections close.
	stopSignal := make(chan os.Signal, 1)
	signal.Notify(stopSignal, syscall.SIGINT, syscall.SIGTERM)
	received := <-stopSignal
	log.Printf("received signal %v, shutting down", received)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}

	cancel()
	wg.Wait()

	if err := rabbitClient.Close(); err != nil {
		log.Printf("close rabbitmq: %v", err)
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Printf("close kafka producer: %v", err)
		}
	}
	if err := closeStore(); err != nil {
		log.Printf("close store: %v", err)
	}
	log.Println("shutdown complete")
}
