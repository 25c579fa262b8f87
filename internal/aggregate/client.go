// Package aggregate fetches the cross-service data an invoice is built from:
// the originating booking, its event, and the billed account. Lookups are
// best-effort enrichment; callers decide whether a failure matters.
package aggregate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrNotFound is returned when the remote service has no record for the id.
var ErrNotFound = errors.New("record not found")

// Booking is the subset of the booking record the invoice consumes.
type Booking struct {
	ID             string  `json:"id"`
	TicketQuantity int     `json:"ticketQuantity"`
	TicketPrice    float64 `json:"ticketPrice"`
	TicketCategory string  `json:"ticketCategory"`
}

// Event is the subset of the event record the invoice consumes.
type Event struct {
	ID        string `json:"id"`
	EventName string `json:"eventName"`
	EventDate string `json:"eventDate"`
}

// Account is the subset of the account record the invoice consumes.
type Account struct {
	ID          string `json:"id"`
	UserName    string `json:"userName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Address     string `json:"address"`
}

// Client calls the booking, event, and account services over HTTP.
type Client struct {
	httpClient *http.Client
	bookingURL string
	eventURL   string
	accountURL string
	apiKey     string
}

// NewClient builds a Client for the three service base URLs. The shared
// http.Client timeout bounds every lookup.
func NewClient(bookingURL, eventURL, accountURL, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		bookingURL: bookingURL,
		eventURL:   eventURL,
		accountURL: accountURL,
		apiKey:     apiKey,
	}
}

// FetchBooking looks up one booking by id.
func (c *Client) FetchBooking(ctx context.Context, bookingID string) (*Booking, error) {
	var booking Booking
	if err := c.get(ctx, c.bookingURL+"/api/bookings/"+bookingID, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

// FetchEvent looks up one event by id.
func (c *Client) FetchEvent(ctx context.Context, eventID string) (*Event, error) {
	var event Event
	if err := c.get(ctx, c.eventURL+"/api/events/"+eventID, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// FetchAccount looks up one account by user id.
func (c *Client) FetchAccount(ctx context.Context, userID string) (*Account, error) {
	var account Account
	if err := c.get(ctx, c.accountURL+"/api/accounts/"+userID, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// envelope is the response wrapper the platform services share: a success
// flag plus the record itself.
type envelope struct {
	Succeeded bool            `json:"succeeded"`
	Result    json.RawMessage `json:"result"`
	Error     string          `json:"error"`
}

func (c *Client) get(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("call %s: status %s", url, resp.Status)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if !env.Succeeded {
		if env.Error != "" {
			return fmt.Errorf("lookup failed: %s", env.Error)
		}
		return ErrNotFound
	}
	return json.Unmarshal(env.Result, out)
}
