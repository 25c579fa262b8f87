package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/ventixe/invoice-service/internal/models"
)

// PostgresStore implements InvoiceStore and StatusStore on PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens and pings a PostgreSQL connection.
func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open postgres db: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres db: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Migrate creates the schema and seeds the status catalog. Both are
// idempotent so every instance can run it at startup.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS invoice_statuses (
			id          INT PRIMARY KEY,
			status_name TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS invoices (
			id                TEXT PRIMARY KEY,
			invoice_number    TEXT NOT NULL,
			issued_date       TIMESTAMPTZ NOT NULL,
			due_date          TIMESTAMPTZ NOT NULL,
			bill_from_name    TEXT NOT NULL DEFAULT '',
			bill_from_address TEXT NOT NULL DEFAULT '',
			bill_from_email   TEXT NOT NULL DEFAULT '',
			bill_from_phone   TEXT NOT NULL DEFAULT '',
			bill_to_name      TEXT NOT NULL DEFAULT '',
			bill_to_address   TEXT NOT NULL DEFAULT '',
			bill_to_email     TEXT NOT NULL DEFAULT '',
			bill_to_phone     TEXT NOT NULL DEFAULT '',
			status_id         INT NOT NULL REFERENCES invoice_statuses (id),
			user_id           TEXT NOT NULL,
			booking_id        TEXT NOT NULL,
			event_id          TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS invoice_items (
			id              TEXT PRIMARY KEY,
			invoice_id      TEXT NOT NULL REFERENCES invoices (id) ON DELETE CASCADE,
			ticket_category TEXT NOT NULL,
			price           NUMERIC(12,2) NOT NULL,
			quantity        INT NOT NULL
		)`,
		// Catalog rows match the original seed. "Sent" is deliberately not
		// seeded; resolving it requires a deployment to add the row.
		`INSERT INTO invoice_statuses (id, status_name) VALUES
			(1, 'Unpaid'), (2, 'Paid'), (3, 'Held'), (4, 'Overdue')
		 ON CONFLICT (id) DO NOTHING`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Add inserts the invoice and its items in one transaction.
func (s *PostgresStore) Add(ctx context.Context, inv *models.Invoice) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO invoices (
			id, invoice_number, issued_date, due_date,
			bill_from_name, bill_from_address, bill_from_email, bill_from_phone,
			bill_to_name, bill_to_address, bill_to_email, bill_to_phone,
			status_id, user_id, booking_id, event_id
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		inv.ID, inv.InvoiceNumber, inv.IssuedDate, inv.DueDate,
		inv.BillFromName, inv.BillFromAddress, inv.BillFromEmail, inv.BillFromPhone,
		inv.BillToName, inv.BillToAddress, inv.BillToEmail, inv.BillToPhone,
		inv.StatusID, inv.UserID, inv.BookingID, inv.EventID,
	)
	if err != nil {
		return fmt.Errorf("insert invoice: %w", err)
	}

	for _, item := range inv.Items {
		if err := insertItem(ctx, tx, inv.ID, item); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetByID loads one aggregate with its items and resolved status name.
func (s *PostgresStore) GetByID(ctx context.Context, id string) (*models.Invoice, error) {
	row := s.db.QueryRowContext(ctx, selectInvoice+` WHERE i.id = $1`, id)

	inv, err := scanInvoice(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query invoice: %w", err)
	}

	items, err := s.loadItems(ctx, []string{inv.ID})
	if err != nil {
		return nil, err
	}
	inv.Items = items[inv.ID]
	return inv, nil
}

// GetByStatus returns invoices in the given status, newest first.
func (s *PostgresStore) GetByStatus(ctx context.Context, statusID int) ([]models.Invoice, error) {
	return s.queryInvoices(ctx, selectInvoice+` WHERE i.status_id = $1 ORDER BY i.issued_date DESC`, statusID)
}

// GetAll returns every invoice, newest first.
func (s *PostgresStore) GetAll(ctx context.Context) ([]models.Invoice, error) {
	return s.queryInvoices(ctx, selectInvoice+` ORDER BY i.issued_date DESC`)
}

// Update rewrites the invoice row and reconciles the item rows against the
// aggregate in one transaction: items missing from inv.Items are deleted,
// the rest are upserted.
func (s *PostgresStore) Update(ctx context.Context, inv *models.Invoice) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE invoices SET
			invoice_number = $2, issued_date = $3, due_date = $4,
			bill_from_name = $5, bill_from_address = $6, bill_from_email = $7, bill_from_phone = $8,
			bill_to_name = $9, bill_to_address = $10, bill_to_email = $11, bill_to_phone = $12,
			status_id = $13, user_id = $14, booking_id = $15, event_id = $16
		WHERE id = $1`,
		inv.ID, inv.InvoiceNumber, inv.IssuedDate, inv.DueDate,
		inv.BillFromName, inv.BillFromAddress, inv.BillFromEmail, inv.BillFromPhone,
		inv.BillToName, inv.BillToAddress, inv.BillToEmail, inv.BillToPhone,
		inv.StatusID, inv.UserID, inv.BookingID, inv.EventID,
	)
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	keep := make([]string, 0, len(inv.Items))
	for _, item := range inv.Items {
		keep = append(keep, item.ID)
	}
	_, err = tx.ExecContext(ctx,
		`DELETE FROM invoice_items WHERE invoice_id = $1 AND id <> ALL($2)`,
		inv.ID, pq.Array(keep))
	if err != nil {
		return fmt.Errorf("delete removed items: %w", err)
	}

	for _, item := range inv.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO invoice_items (id, invoice_id, ticket_category, price, quantity)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET
				ticket_category = EXCLUDED.ticket_category,
				price = EXCLUDED.price,
				quantity = EXCLUDED.quantity`,
			item.ID, inv.ID, item.TicketCategory, item.Price, item.Quantity)
		if err != nil {
			return fmt.Errorf("upsert item: %w", err)
		}
	}
	return tx.Commit()
}

// Delete removes an invoice; items go with it via the cascade.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Exists reports whether an invoice row exists.
func (s *PostgresStore) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM invoices WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check invoice exists: %w", err)
	}
	return exists, nil
}

// GetAll implements StatusStore.
func (s *PostgresStore) GetAllStatuses(ctx context.Context) ([]models.InvoiceStatus, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, status_name FROM invoice_statuses ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query statuses: %w", err)
	}
	defer rows.Close()

	var statuses []models.InvoiceStatus
	for rows.Next() {
		var st models.InvoiceStatus
		if err := rows.Scan(&st.ID, &st.Name); err != nil {
			return nil, err
		}
		statuses = append(statuses, st)
	}
	return statuses, rows.Err()
}

// Statuses exposes the catalog side of the store as a StatusStore.
func (s *PostgresStore) Statuses() StatusStore {
	return statusStoreFunc(s.GetAllStatuses)
}

type statusStoreFunc func(ctx context.Context) ([]models.InvoiceStatus, error)

func (f statusStoreFunc) GetAll(ctx context.Context) ([]models.InvoiceStatus, error) {
	return f(ctx)
}

const selectInvoice = `
	SELECT i.id, i.invoice_number, i.issued_date, i.due_date,
		i.bill_from_name, i.bill_from_address, i.bill_from_email, i.bill_from_phone,
		i.bill_to_name, i.bill_to_address, i.bill_to_email, i.bill_to_phone,
		i.status_id, COALESCE(s.status_name, ''), i.user_id, i.booking_id, i.event_id
	FROM invoices i
	LEFT JOIN invoice_statuses s ON s.id = i.status_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(r rowScanner) (*models.Invoice, error) {
	var inv models.Invoice
	err := r.Scan(
		&inv.ID, &inv.InvoiceNumber, &inv.IssuedDate, &inv.DueDate,
		&inv.BillFromName, &inv.BillFromAddress, &inv.BillFromEmail, &inv.BillFromPhone,
		&inv.BillToName, &inv.BillToAddress, &inv.BillToEmail, &inv.BillToPhone,
		&inv.StatusID, &inv.Status, &inv.UserID, &inv.BookingID, &inv.EventID,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (s *PostgresStore) queryInvoices(ctx context.Context, query string, args ...any) ([]models.Invoice, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query invoices: %w", err)
	}
	defer rows.Close()

	var invoices []models.Invoice
	var ids []string
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *inv)
		ids = append(ids, inv.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(invoices) == 0 {
		return invoices, nil
	}

	items, err := s.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range invoices {
		invoices[i].Items = items[invoices[i].ID]
	}
	return invoices, nil
}

// loadItems fetches the items for a batch of invoices in one query.
func (s *PostgresStore) loadItems(ctx context.Context, invoiceIDs []string) (map[string][]models.InvoiceItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, invoice_id, ticket_category, price, quantity
		FROM invoice_items
		WHERE invoice_id = ANY($1)`, pq.Array(invoiceIDs))
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	items := make(map[string][]models.InvoiceItem)
	for rows.Next() {
		var item models.InvoiceItem
		var invoiceID string
		if err := rows.Scan(&item.ID, &invoiceID, &item.TicketCategory, &item.Price, &item.Quantity); err != nil {
			return nil, err
		}
		items[invoiceID] = append(items[invoiceID], item)
	}
	return items, rows.Err()
}

func insertItem(ctx context.Context, tx *sql.Tx, invoiceID string, item models.InvoiceItem) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO invoice_items (id, invoice_id, ticket_category, price, quantity)
		VALUES ($1, $2, $3, $4, $5)`,
		item.ID, invoiceID, item.TicketCategory, item.Price, item.Quantity)
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}
