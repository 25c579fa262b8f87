package models

import "time"

// Invoice is the aggregate root: the invoice header plus its owned items.
// Total is always derived from the items, never stored.
type Invoice struct {
	ID            string    `json:"id"`
	InvoiceNumber string    `json:"invoiceNumber"`
	IssuedDate    time.Time `json:"issuedDate"`
	DueDate       time.Time `json:"dueDate"`

	BillFromName    string `json:"billFromName"`
	BillFromAddress string `json:"billFromAddress"`
	BillFromEmail   string `json:"billFromEmail"`
	BillFromPhone   string `json:"billFromPhone"`

	BillToName    string `json:"billToName"`
	BillToAddress string `json:"billToAddress"`
	BillToEmail   string `json:"billToEmail"`
	BillToPhone   string `json:"billToPhone"`

	StatusID int    `json:"statusId"`
	Status   string `json:"status"`

	Items []InvoiceItem `json:"items"`

	UserID    string `json:"userId"`
	BookingID string `json:"bookingId"`
	EventID   string `json:"eventId"`
}

// Total sums the item amounts.
func (i *Invoice) Total() float64 {
	var total float64
	for _, item := range i.Items {
		total += item.Amount()
	}
	return total
}

// InvoiceItem is one billed line on an invoice.
type InvoiceItem struct {
	ID             string  `json:"id"`
	TicketCategory string  `json:"ticketCategory"`
	Price          float64 `json:"price"`
	Quantity       int     `json:"quantity"`
}

// Amount is price times quantity.
func (i InvoiceItem) Amount() float64 {
	return i.Price * float64(i.Quantity)
}

// InvoiceStatus is one row of the status catalog. The catalog is stored,
// not compiled in, so statuses can be added without a code change.
type InvoiceStatus struct {
	ID   int    `json:"id"`
	Name string `json:"statusName"`
}

// Seeded catalog ids. "Sent" is intentionally absent: it is resolvable only
// once a deployment adds the row.
const (
	StatusUnpaid  = 1
	StatusPaid    = 2
	StatusHeld    = 3
	StatusOverdue = 4
)
