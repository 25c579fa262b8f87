// Package events holds the wire contracts shared with the booking service and
// the names of the queues and topics they travel on.
package events

import (
	"encoding/json"
	"fmt"
)

// Queue and topic names. The dead-letter queue name is derived from the main
// queue by the mq package, not listed here.
const (
	BookingCreatedQueue = "booking-created"
	BookingUpdatesQueue = "booking-invoice-updates"

	TopicInvoiceCreated       = "invoice.created"
	TopicInvoiceStatusChanged = "invoice.status.changed"
)

// CreatedBookingEvent is the inbound "booking created" message body.
type CreatedBookingEvent struct {
	BookingID      string  `json:"bookingId"`
	UserID         string  `json:"userId"`
	EventID        string  `json:"eventId"`
	TicketQuantity int     `json:"ticketQuantity"`
	TicketPrice    float64 `json:"ticketPrice"`
}

// CreateInvoicePayload is the creation request handed to the invoice service,
// either mapped from a CreatedBookingEvent or posted directly over HTTP.
type CreateInvoicePayload struct {
	BookingID          string  `json:"bookingId"`
	UserID             string  `json:"userId"`
	EventID            string  `json:"eventId"`
	TicketQuantity     int     `json:"ticketQuantity"`
	TicketPrice        float64 `json:"ticketPrice"`
	TicketCategoryName string  `json:"ticketCategoryName"`
}

// UpdateBookingPayload is the outbound notification telling the booking
// service which invoice now belongs to a booking.
type UpdateBookingPayload struct {
	BookingID string `json:"bookingId"`
	InvoiceID string `json:"invoiceId"`
}

// Unmarshal decodes a queue message body into the given payload type.
func Unmarshal[T any](b []byte) (T, error) {
	var t T
	if err := json.Unmarshal(b, &t); err != nil {
		var zero T
		return zero, fmt.Errorf("decode payload: %w", err)
	}
	return t, nil
}
