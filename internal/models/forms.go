package models

import "time"

// UpdateInvoiceForm carries a full invoice rewrite: every scalar field is
// overwritten and the item list is reconciled against the stored aggregate.
type UpdateInvoiceForm struct {
	ID            string    `json:"id" binding:"required"`
	InvoiceNumber string    `json:"invoiceNumber" binding:"required"`
	IssuedDate    time.Time `json:"issuedDate" binding:"required"`
	DueDate       time.Time `json:"dueDate" binding:"required"`

	BillFromName    string `json:"billFromName" binding:"required"`
	BillFromAddress string `json:"billFromAddress" binding:"required"`
	BillFromEmail   string `json:"billFromEmail" binding:"required"`
	BillFromPhone   string `json:"billFromPhone" binding:"required"`

	BillToName    string `json:"billToName" binding:"required"`
	BillToAddress string `json:"billToAddress"`
	BillToEmail   string `json:"billToEmail"`
	BillToPhone   string `json:"billToPhone"`

	Items []InvoiceItemForm `json:"items" binding:"required"`

	UserID    string `json:"userId" binding:"required"`
	BookingID string `json:"bookingId" binding:"required"`
	EventID   string `json:"eventId" binding:"required"`
}

// InvoiceItemForm is one item in an update form. An empty Id marks a new
// item; the service mints the id, callers never supply one.
type InvoiceItemForm struct {
	ID             string  `json:"id"`
	TicketCategory string  `json:"ticketCategory"`
	Price          float64 `json:"price"`
	Quantity       int     `json:"quantity"`
}
