// Package store is the persistence boundary for the invoice aggregate and the
// status catalog.
package store

import (
	"context"
	"errors"

	"github.com/ventixe/invoice-service/internal/models"
)

// ErrNotFound is returned when no invoice matches the given id.
var ErrNotFound = errors.New("invoice not found")

// InvoiceStore persists invoice aggregates. Add and Update write the invoice
// and its items as one atomic unit; reads return the aggregate with items and
// the resolved status name loaded.
type InvoiceStore interface {
	Add(ctx context.Context, inv *models.Invoice) error
	GetByID(ctx context.Context, id string) (*models.Invoice, error)
	GetByStatus(ctx context.Context, statusID int) ([]models.Invoice, error)
	GetAll(ctx context.Context) ([]models.Invoice, error)
	Update(ctx context.Context, inv *models.Invoice) error
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
}

// StatusStore reads the status catalog.
type StatusStore interface {
	GetAll(ctx context.Context) ([]models.InvoiceStatus, error)
}
