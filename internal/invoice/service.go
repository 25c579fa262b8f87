// Package invoice holds the orchestration at the heart of the service:
// building an invoice from a booking plus cross-service lookups, persisting
// it, notifying the booking service, and driving status transitions.
package invoice

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ventixe/invoice-service/internal/aggregate"
	"github.com/ventixe/invoice-service/internal/events"
	"github.com/ventixe/invoice-service/internal/kafka"
	"github.com/ventixe/invoice-service/internal/models"
	"github.com/ventixe/invoice-service/internal/store"
)

// Biller identity stamped on every invoice. These are organizational
// constants, never caller input.
const (
	billFromName    = "Ventixe Events AB"
	billFromAddress = "Sveavägen 12, 111 57 Stockholm"
	billFromEmail   = "billing@ventixe.se"
	billFromPhone   = "+46 70 123 45 67"
)

// dueInDays is the fixed payment term: due date = issued date + 30 days.
const dueInDays = 30

// legacyNotificationInvoiceID is what the booking update payload has always
// carried in its invoiceId field instead of the newly persisted invoice's id.
// The booking service does not read the field today.
// TODO: send the real invoice id once the booking service consumes it.
const legacyNotificationInvoiceID = "234-45564"

// AggregateClient fetches the cross-service records an invoice is enriched
// from. Each lookup is independent and may fail without aborting creation.
type AggregateClient interface {
	FetchBooking(ctx context.Context, bookingID string) (*aggregate.Booking, error)
	FetchEvent(ctx context.Context, eventID string) (*aggregate.Event, error)
	FetchAccount(ctx context.Context, userID string) (*aggregate.Account, error)
}

// Notifier publishes the booking-update message after an invoice is created.
type Notifier interface {
	Publish(ctx context.Context, payload events.UpdateBookingPayload) error
}

// Service implements the invoice operations over the storage boundary, the
// aggregate client, and the outbound messaging.
type Service struct {
	invoices store.InvoiceStore
	statuses store.StatusStore
	clients  AggregateClient
	notifier Notifier
	producer kafka.Publisher // optional lifecycle event stream
}

// NewService wires a Service. producer may be nil when no event stream is
// configured.
func NewService(invoices store.InvoiceStore, statuses store.StatusStore, clients AggregateClient, notifier Notifier, producer kafka.Publisher) *Service {
	return &Service{
		invoices: invoices,
		statuses: statuses,
		clients:  clients,
		notifier: notifier,
		producer: producer,
	}
}

// CreateInvoice builds, persists, and announces a new invoice from a creation
// payload. Persistence is the single atomicity boundary: once Add succeeds
// the invoice exists, whatever happens to the notifications afterwards.
func (s *Service) CreateInvoice(ctx context.Context, form *events.CreateInvoicePayload) Result[*models.Invoice] {
	// 1. Validate the form.
	if form == nil {
		return fail[*models.Invoice](400, "Invalid invoice form.")
	}
	if form.BookingID == "" || form.UserID == "" || form.EventID == "" {
		return fail[*models.Invoice](400, "Invalid invoice form.")
	}
	if form.TicketQuantity < 1 || form.TicketPrice <= 0 {
		return fail[*models.Invoice](400, "Invalid invoice form.")
	}

	// 2. Fetch booking, event, and account concurrently. The lookups are
	// best-effort enrichment: a failure leaves fields blank, it never
	// aborts creation.
	booking, event, account := s.fetchAggregates(ctx, form.BookingID, form.EventID, form.UserID)
	if event != nil {
		log.Printf("create invoice: booking %s is for event %q", form.BookingID, event.EventName)
	}

	// 3. Build the aggregate.
	now := time.Now().UTC()
	category := form.TicketCategoryName
	if category == "" && booking != nil {
		category = booking.TicketCategory
	}
	if category == "" {
		category = "Standard"
	}

	inv := &models.Invoice{
		ID:            uuid.NewString(),
		InvoiceNumber: fmt.Sprintf("INV-%s", form.BookingID),
		IssuedDate:    now,
		DueDate:       now.AddDate(0, 0, dueInDays),

		BillFromName:    billFromName,
		BillFromAddress: billFromAddress,
		BillFromEmail:   billFromEmail,
		BillFromPhone:   billFromPhone,

		StatusID: models.StatusUnpaid,
		Status:   "Unpaid",

		Items: []models.InvoiceItem{{
			ID:             uuid.NewString(),
			TicketCategory: category,
			Price:          form.TicketPrice,
			Quantity:       form.TicketQuantity,
		}},

		UserID:    form.UserID,
		BookingID: form.BookingID,
		EventID:   form.EventID,
	}
	if account != nil {
		inv.BillToName = account.UserName
		inv.BillToAddress = account.Address
		inv.BillToEmail = account.Email
		inv.BillToPhone = account.PhoneNumber
	}

	// 4. Persist. Either the whole aggregate is written or nothing is.
	if err := s.invoices.Add(ctx, inv); err != nil {
		log.Printf("create invoice: persist failed for booking %s: %v", form.BookingID, err)
		return fail[*models.Invoice](500, "Unable to create invoice.")
	}

	// 5. Tell the booking service. Failure is logged, never rolled back:
	// creation succeeded the moment the write committed.
	if s.notifier != nil {
		payload := events.UpdateBookingPayload{
			BookingID: form.BookingID,
			InvoiceID: legacyNotificationInvoiceID,
		}
		if err := s.notifier.Publish(ctx, payload); err != nil {
			log.Printf("create invoice: booking update publish failed for booking %s: %v", form.BookingID, err)
		}
	}
	s.publishEvent(events.TopicInvoiceCreated, inv.ID, inv)

	return succeed(201, inv)
}

// GetAll returns every invoice, newest first.
func (s *Service) GetAll(ctx context.Context) Result[[]models.Invoice] {
	invoices, err := s.invoices.GetAll(ctx)
	if err != nil {
		log.Printf("get invoices: %v", err)
		return fail[[]models.Invoice](500, "Unable to load invoices.")
	}
	return succeed(200, invoices)
}

// GetByID returns one invoice or a 404.
func (s *Service) GetByID(ctx context.Context, id string) Result[*models.Invoice] {
	inv, err := s.invoices.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return fail[*models.Invoice](404, fmt.Sprintf("Invoice with id '%s' not found.", id))
	}
	if err != nil {
		log.Printf("get invoice %s: %v", id, err)
		return fail[*models.Invoice](500, "Unable to load invoice.")
	}
	return succeed(200, inv)
}

// GetByStatusID returns invoices in the given catalog status.
func (s *Service) GetByStatusID(ctx context.Context, statusID int) Result[[]models.Invoice] {
	invoices, err := s.invoices.GetByStatus(ctx, statusID)
	if err != nil {
		log.Printf("get invoices by status %d: %v", statusID, err)
		return fail[[]models.Invoice](500, "Unable to load invoices.")
	}
	return succeed(200, invoices)
}

// Update overwrites the invoice's scalar fields from the form and reconciles
// the item collection: items absent from the form are removed, items with a
// non-empty id are updated in place, items with an empty id get a freshly
// minted id. The merge persists in one Update call.
func (s *Service) Update(ctx context.Context, form *models.UpdateInvoiceForm) Result[*models.Invoice] {
	if form == nil {
		return fail[*models.Invoice](400, "Invalid invoice form.")
	}

	existing, err := s.invoices.GetByID(ctx, form.ID)
	if errors.Is(err, store.ErrNotFound) {
		return fail[*models.Invoice](404, fmt.Sprintf("Invoice with id '%s' not found.", form.ID))
	}
	if err != nil {
		log.Printf("update invoice %s: load failed: %v", form.ID, err)
		return fail[*models.Invoice](500, "Unable to update invoice.")
	}

	existing.InvoiceNumber = form.InvoiceNumber
	existing.IssuedDate = form.IssuedDate
	existing.DueDate = form.DueDate
	existing.BillFromName = form.BillFromName
	existing.BillFromAddress = form.BillFromAddress
	existing.BillFromEmail = form.BillFromEmail
	existing.BillFromPhone = form.BillFromPhone
	existing.BillToName = form.BillToName
	existing.BillToAddress = form.BillToAddress
	existing.BillToEmail = form.BillToEmail
	existing.BillToPhone = form.BillToPhone
	existing.UserID = form.UserID
	existing.BookingID = form.BookingID
	existing.EventID = form.EventID

	current := make(map[string]models.InvoiceItem, len(existing.Items))
	for _, item := range existing.Items {
		current[item.ID] = item
	}

	merged := make([]models.InvoiceItem, 0, len(form.Items))
	for _, itemForm := range form.Items {
		if itemForm.ID != "" {
			if _, ok := current[itemForm.ID]; !ok {
				return fail[*models.Invoice](400, fmt.Sprintf("Invoice item with id '%s' not found.", itemForm.ID))
			}
			merged = append(merged, models.InvoiceItem{
				ID:             itemForm.ID,
				TicketCategory: itemForm.TicketCategory,
				Price:          itemForm.Price,
				Quantity:       itemForm.Quantity,
			})
			continue
		}
		// New items always get a server-minted id.
		merged = append(merged, models.InvoiceItem{
			ID:             uuid.NewString(),
			TicketCategory: itemForm.TicketCategory,
			Price:          itemForm.Price,
			Quantity:       itemForm.Quantity,
		})
	}
	existing.Items = merged

	if err := s.invoices.Update(ctx, existing); err != nil {
		log.Printf("update invoice %s: persist failed: %v", form.ID, err)
		return fail[*models.Invoice](500, "Unable to update invoice.")
	}
	return succeed(200, existing)
}

// Named transitions are fixed mappings onto ChangeStatus. No other names are
// accepted through these entry points.

func (s *Service) Send(ctx context.Context, id string) Result[*models.Invoice] {
	return s.ChangeStatus(ctx, id, "Sent")
}

func (s *Service) Hold(ctx context.Context, id string) Result[*models.Invoice] {
	return s.ChangeStatus(ctx, id, "Held")
}

func (s *Service) MarkAsPaid(ctx context.Context, id string) Result[*models.Invoice] {
	return s.ChangeStatus(ctx, id, "Paid")
}

func (s *Service) MarkAsUnpaid(ctx context.Context, id string) Result[*models.Invoice] {
	return s.ChangeStatus(ctx, id, "Unpaid")
}

// ChangeStatus relabels an invoice with any status the catalog knows, matched
// case-insensitively. There is no transition graph: any status is reachable
// from any other.
func (s *Service) ChangeStatus(ctx context.Context, id, statusName string) Result[*models.Invoice] {
	inv, err := s.invoices.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return fail[*models.Invoice](404, fmt.Sprintf("Invoice with id '%s' not found.", id))
	}
	if err != nil {
		log.Printf("change status: load invoice %s: %v", id, err)
		return fail[*models.Invoice](500, "Unable to change invoice status.")
	}

	statuses, err := s.statuses.GetAll(ctx)
	if err != nil || len(statuses) == 0 {
		log.Printf("change status: load catalog: %v", err)
		return fail[*models.Invoice](500, "Invoice statuses not found.")
	}

	var target *models.InvoiceStatus
	for i := range statuses {
		if strings.EqualFold(statuses[i].Name, statusName) {
			target = &statuses[i]
			break
		}
	}
	if target == nil {
		return fail[*models.Invoice](404, fmt.Sprintf("Invoice status '%s' not found.", statusName))
	}

	inv.StatusID = target.ID
	inv.Status = target.Name

	if err := s.invoices.Update(ctx, inv); err != nil {
		log.Printf("change status: persist invoice %s: %v", id, err)
		return fail[*models.Invoice](500, "Unable to change invoice status.")
	}
	s.publishEvent(events.TopicInvoiceStatusChanged, inv.ID, map[string]string{
		"invoiceId": inv.ID,
		"status":    target.Name,
	})
	return succeed(200, inv)
}

// fetchAggregates issues the three lookups concurrently and waits for all of
// them. Failed lookups are logged and reported as nil.
func (s *Service) fetchAggregates(ctx context.Context, bookingID, eventID, userID string) (*aggregate.Booking, *aggregate.Event, *aggregate.Account) {
	var (
		booking *aggregate.Booking
		event   *aggregate.Event
		account *aggregate.Account
	)
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		b, err := s.clients.FetchBooking(ctx, bookingID)
		if err != nil {
			log.Printf("create invoice: booking lookup %s: %v", bookingID, err)
			return
		}
		booking = b
	}()
	go func() {
		defer wg.Done()
		e, err := s.clients.FetchEvent(ctx, eventID)
		if err != nil {
			log.Printf("create invoice: event lookup %s: %v", eventID, err)
			return
		}
		event = e
	}()
	go func() {
		defer wg.Done()
		a, err := s.clients.FetchAccount(ctx, userID)
		if err != nil {
			log.Printf("create invoice: account lookup %s: %v", userID, err)
			return
		}
		account = a
	}()
	wg.Wait()
	return booking, event, account
}

// publishEvent writes a lifecycle event to the stream, fire-and-forget.
func (s *Service) publishEvent(topic, key string, payload any) {
	if s.producer == nil {
		return
	}
	event := map[string]any{
		"event":   topic,
		"payload": payload,
	}
	go func() {
		if err := s.producer.Publish(context.Background(), key, event); err != nil {
			log.Printf("publish %s: %v", topic, err)
		}
	}()
}
