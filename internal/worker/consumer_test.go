package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ventixe/invoice-service/internal/aggregate"
	"github.com/ventixe/invoice-service/internal/events"
	"github.com/ventixe/invoice-service/internal/invoice"
	"github.com/ventixe/invoice-service/internal/models"
	"github.com/ventixe/invoice-service/internal/store"
)

// --- MOCKS ---

// fakeAcker records which terminal outcome a delivery received.
type fakeAcker struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (f *fakeAcker) Ack(tag uint64, multiple bool) error {
	f.acked = true
	return nil
}

func (f *fakeAcker) Nack(tag uint64, multiple, requeue bool) error {
	f.nacked = true
	f.requeue = requeue
	return nil
}

func (f *fakeAcker) Reject(tag uint64, requeue bool) error {
	f.nacked = true
	f.requeue = requeue
	return nil
}

type noopClients struct{}

func (noopClients) FetchBooking(ctx context.Context, bookingID string) (*aggregate.Booking, error) {
	return nil, errors.New("unavailable")
}

func (noopClients) FetchEvent(ctx context.Context, eventID string) (*aggregate.Event, error) {
	return nil, errors.New("unavailable")
}

func (noopClients) FetchAccount(ctx context.Context, userID string) (*aggregate.Account, error) {
	return nil, errors.New("unavailable")
}

type noopNotifier struct{}

func (noopNotifier) Publish(ctx context.Context, payload events.UpdateBookingPayload) error {
	return nil
}

// failingStore fails every write so processing hits the 500 path.
type failingStore struct {
	store.InvoiceStore
}

func (failingStore) Add(ctx context.Context, inv *models.Invoice) error {
	return errors.New("database down")
}

func newConsumer(t *testing.T, invoices store.InvoiceStore, statuses store.StatusStore) (*Consumer, store.InvoiceStore) {
	t.Helper()
	svc := invoice.NewService(invoices, statuses, noopClients{}, noopNotifier{}, nil)
	return &Consumer{invoices: svc, queue: "booking-created"}, invoices
}

func delivery(t *testing.T, acker *fakeAcker, body []byte) amqp.Delivery {
	t.Helper()
	return amqp.Delivery{Acknowledger: acker, Body: body}
}

func eventBody(t *testing.T, evt events.CreatedBookingEvent) []byte {
	t.Helper()
	b, err := json.Marshal(evt)
	require.NoError(t, err)
	return b
}

func validEvent() events.CreatedBookingEvent {
	return events.CreatedBookingEvent{
		BookingID:      "booking-1",
		UserID:         "user-1",
		EventID:        "event-1",
		TicketQuantity: 2,
		TicketPrice:    150,
	}
}

func TestHandleDelivery(t *testing.T) {
	t.Run("valid message is completed and produces an invoice", func(t *testing.T) {
		mem := store.NewMemoryStore()
		consumer, _ := newConsumer(t, mem, mem.Statuses())
		acker := &fakeAcker{}

		consumer.handleDelivery(context.Background(), delivery(t, acker, eventBody(t, validEvent())))

		assert.True(t, acker.acked)
		assert.False(t, acker.nacked)

		all, err := mem.GetAll(context.Background())
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, "booking-1", all[0].BookingID)
		assert.Equal(t, "Standard", all[0].Items[0].TicketCategory)
	})

	t.Run("undecodable message is dead-lettered", func(t *testing.T) {
		mem := store.NewMemoryStore()
		consumer, _ := newConsumer(t, mem, mem.Statuses())
		acker := &fakeAcker{}

		consumer.handleDelivery(context.Background(), delivery(t, acker, []byte("{not json")))

		assert.False(t, acker.acked)
		assert.True(t, acker.nacked)
		assert.False(t, acker.requeue, "poison messages must not requeue")
	})

	t.Run("message missing required ids is dead-lettered", func(t *testing.T) {
		tests := []struct {
			name   string
			mutate func(e *events.CreatedBookingEvent)
		}{
			{"no booking id", func(e *events.CreatedBookingEvent) { e.BookingID = "" }},
			{"no user id", func(e *events.CreatedBookingEvent) { e.UserID = "" }},
			{"no event id", func(e *events.CreatedBookingEvent) { e.EventID = "" }},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				mem := store.NewMemoryStore()
				consumer, _ := newConsumer(t, mem, mem.Statuses())
				acker := &fakeAcker{}
				evt := validEvent()
				tt.mutate(&evt)

				consumer.handleDelivery(context.Background(), delivery(t, acker, eventBody(t, evt)))

				assert.True(t, acker.nacked)
				assert.False(t, acker.requeue)
			})
		}
	})

	t.Run("rejected form is abandoned for redelivery", func(t *testing.T) {
		mem := store.NewMemoryStore()
		consumer, _ := newConsumer(t, mem, mem.Statuses())
		acker := &fakeAcker{}
		evt := validEvent()
		evt.TicketQuantity = 0

		consumer.handleDelivery(context.Background(), delivery(t, acker, eventBody(t, evt)))

		assert.False(t, acker.acked)
		assert.True(t, acker.nacked)
		assert.True(t, acker.requeue)
	})

	t.Run("persistence failure is abandoned for redelivery", func(t *testing.T) {
		mem := store.NewMemoryStore()
		consumer, _ := newConsumer(t, failingStore{InvoiceStore: mem}, mem.Statuses())
		acker := &fakeAcker{}

		consumer.handleDelivery(context.Background(), delivery(t, acker, eventBody(t, validEvent())))

		assert.False(t, acker.acked)
		assert.True(t, acker.nacked)
		assert.True(t, acker.requeue)
	})
}

func TestOverdueSweep(t *testing.T) {
	mem := store.NewMemoryStore()
	svc := invoice.NewService(mem, mem.Statuses(), noopClients{}, noopNotifier{}, nil)
	sweeper := NewOverdueSweeper(svc, "@daily")

	seed := func(t *testing.T, id string, statusID int, dueOffsetDays int) {
		t.Helper()
		created := svc.CreateInvoice(context.Background(), &events.CreateInvoicePayload{
			BookingID:      "booking-" + id,
			UserID:         "user-1",
			EventID:        "event-1",
			TicketQuantity: 1,
			TicketPrice:    100,
		})
		require.True(t, created.Succeeded)
		inv, err := mem.GetByID(context.Background(), created.Result.ID)
		require.NoError(t, err)
		inv.StatusID = statusID
		inv.DueDate = inv.DueDate.AddDate(0, 0, dueOffsetDays)
		require.NoError(t, mem.Update(context.Background(), inv))
	}

	seed(t, "past-due", models.StatusUnpaid, -45)
	seed(t, "not-yet-due", models.StatusUnpaid, 0)
	seed(t, "already-paid", models.StatusPaid, -45)

	sweeper.Sweep(context.Background())

	overdue, err := mem.GetByStatus(context.Background(), models.StatusOverdue)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, "booking-past-due", overdue[0].BookingID)

	unpaid, err := mem.GetByStatus(context.Background(), models.StatusUnpaid)
	require.NoError(t, err)
	assert.Len(t, unpaid, 1)

	paid, err := mem.GetByStatus(context.Background(), models.StatusPaid)
	require.NoError(t, err)
	assert.Len(t, paid, 1)
}
