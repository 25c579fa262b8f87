package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ventixe/invoice-service/internal/models"
)

func invoiceFixture(id string, statusID int, issued time.Time) *models.Invoice {
	return &models.Invoice{
		ID:            id,
		InvoiceNumber: "INV-" + id,
		IssuedDate:    issued,
		DueDate:       issued.AddDate(0, 0, 30),
		StatusID:      statusID,
		BookingID:     "booking-" + id,
		UserID:        "user-1",
		EventID:       "event-1",
		Items: []models.InvoiceItem{
			{ID: "item-" + id, TicketCategory: "Standard", Price: 100, Quantity: 1},
		},
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Now().UTC()

	require.NoError(t, s.Add(ctx, invoiceFixture("a", models.StatusUnpaid, now)))

	got, err := s.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "INV-a", got.InvoiceNumber)
	assert.Equal(t, "Unpaid", got.Status, "status name resolved from the catalog")
	require.Len(t, got.Items, 1)

	exists, err := s.Exists(ctx, "a")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = s.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Add(ctx, invoiceFixture("a", models.StatusUnpaid, time.Now().UTC())))

	first, err := s.GetByID(ctx, "a")
	require.NoError(t, err)
	first.InvoiceNumber = "mutated"
	first.Items[0].Price = 999

	second, err := s.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "INV-a", second.InvoiceNumber)
	assert.Equal(t, 100.0, second.Items[0].Price)
}

func TestMemoryStoreListing(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Now().UTC()

	require.NoError(t, s.Add(ctx, invoiceFixture("old", models.StatusUnpaid, now.Add(-2*time.Hour))))
	require.NoError(t, s.Add(ctx, invoiceFixture("new", models.StatusPaid, now)))
	require.NoError(t, s.Add(ctx, invoiceFixture("mid", models.StatusUnpaid, now.Add(-time.Hour))))

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "new", all[0].ID, "newest issued first")
	assert.Equal(t, "mid", all[1].ID)
	assert.Equal(t, "old", all[2].ID)

	unpaid, err := s.GetByStatus(ctx, models.StatusUnpaid)
	require.NoError(t, err)
	assert.Len(t, unpaid, 2)

	held, err := s.GetByStatus(ctx, models.StatusHeld)
	require.NoError(t, err)
	assert.Empty(t, held)
}

func TestMemoryStoreUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Add(ctx, invoiceFixture("a", models.StatusUnpaid, time.Now().UTC())))

	inv, err := s.GetByID(ctx, "a")
	require.NoError(t, err)
	inv.StatusID = models.StatusPaid
	require.NoError(t, s.Update(ctx, inv))

	got, err := s.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, got.StatusID)
	assert.Equal(t, "Paid", got.Status)

	assert.ErrorIs(t, s.Update(ctx, invoiceFixture("missing", models.StatusUnpaid, time.Now())), ErrNotFound)

	require.NoError(t, s.Delete(ctx, "a"))
	assert.ErrorIs(t, s.Delete(ctx, "a"), ErrNotFound)
}

func TestMemoryStoreStatusCatalog(t *testing.T) {
	s := NewMemoryStore()

	statuses, err := s.Statuses().GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, statuses, 4)

	names := make(map[int]string, len(statuses))
	for _, st := range statuses {
		names[st.ID] = st.Name
	}
	assert.Equal(t, "Unpaid", names[models.StatusUnpaid])
	assert.Equal(t, "Paid", names[models.StatusPaid])
	assert.Equal(t, "Held", names[models.StatusHeld])
	assert.Equal(t, "Overdue", names[models.StatusOverdue])
}

func TestMemoryStoreHonorsContext(t *testing.T) {
	s := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, s.Add(ctx, invoiceFixture("a", models.StatusUnpaid, time.Now())))
	_, err := s.GetAll(ctx)
	assert.Error(t, err)
}
