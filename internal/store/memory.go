package store

import (
	"context"
	"sort"
	"sync"

	"github.com/ventixe/invoice-service/internal/models"
)

// MemoryStore is a mutex-guarded in-memory InvoiceStore and StatusStore,
// used in tests and for broker-less local runs. It seeds the same status
// catalog the Postgres migration does.
type MemoryStore struct {
	mu       sync.RWMutex
	invoices map[string]models.Invoice
	statuses []models.InvoiceStatus
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		invoices: make(map[string]models.Invoice),
		statuses: []models.InvoiceStatus{
			{ID: models.StatusUnpaid, Name: "Unpaid"},
			{ID: models.StatusPaid, Name: "Paid"},
			{ID: models.StatusHeld, Name: "Held"},
			{ID: models.StatusOverdue, Name: "Overdue"},
		},
	}
}

func (s *MemoryStore) Add(ctx context.Context, inv *models.Invoice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invoices[inv.ID] = cloneInvoice(*inv)
	return nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id string) (*models.Invoice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.invoices[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneInvoice(inv)
	out.Status = s.statusName(out.StatusID)
	return &out, nil
}

func (s *MemoryStore) GetByStatus(ctx context.Context, statusID int) ([]models.Invoice, error) {
	return s.list(ctx, func(inv models.Invoice) bool { return inv.StatusID == statusID })
}

func (s *MemoryStore) GetAll(ctx context.Context) ([]models.Invoice, error) {
	return s.list(ctx, func(models.Invoice) bool { return true })
}

func (s *MemoryStore) Update(ctx context.Context, inv *models.Invoice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.invoices[inv.ID]; !ok {
		return ErrNotFound
	}
	s.invoices[inv.ID] = cloneInvoice(*inv)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.invoices[id]; !ok {
		return ErrNotFound
	}
	delete(s.invoices, id)
	return nil
}

func (s *MemoryStore) Exists(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.invoices[id]
	return ok, nil
}

// GetAllStatuses returns the seeded catalog.
func (s *MemoryStore) GetAllStatuses(ctx context.Context) ([]models.InvoiceStatus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.InvoiceStatus, len(s.statuses))
	copy(out, s.statuses)
	return out, nil
}

// Statuses exposes the catalog side of the store as a StatusStore.
func (s *MemoryStore) Statuses() StatusStore {
	return statusStoreFunc(s.GetAllStatuses)
}

func (s *MemoryStore) list(ctx context.Context, match func(models.Invoice) bool) ([]models.Invoice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []models.Invoice
	for _, inv := range s.invoices {
		if match(inv) {
			out := cloneInvoice(inv)
			out.Status = s.statusName(out.StatusID)
			result = append(result, out)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].IssuedDate.After(result[j].IssuedDate)
	})
	return result, nil
}

func (s *MemoryStore) statusName(id int) string {
	for _, st := range s.statuses {
		if st.ID == id {
			return st.Name
		}
	}
	return ""
}

func cloneInvoice(inv models.Invoice) models.Invoice {
	items := make([]models.InvoiceItem, len(inv.Items))
	copy(items, inv.Items)
	inv.Items = items
	return inv
}
