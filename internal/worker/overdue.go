package worker

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron"

	"github.com/ventixe/invoice-service/internal/invoice"
	"github.com/ventixe/invoice-service/internal/models"
)

// OverdueSweeper periodically relabels Unpaid invoices whose due date has
// passed as Overdue. The catalog has carried the Overdue row since the first
// seed; this job is what sets it.
type OverdueSweeper struct {
	invoices *invoice.Service
	schedule string
}

// NewOverdueSweeper builds a sweeper with a cron schedule such as "@daily".
func NewOverdueSweeper(invoices *invoice.Service, schedule string) *OverdueSweeper {
	return &OverdueSweeper{invoices: invoices, schedule: schedule}
}

// Run installs the cron job and blocks until the context is cancelled.
func (s *OverdueSweeper) Run(ctx context.Context) error {
	c := cron.New()
	if err := c.AddFunc(s.schedule, func() { s.Sweep(ctx) }); err != nil {
		return err
	}
	c.Start()
	<-ctx.Done()
	c.Stop()
	return nil
}

// Sweep performs one pass. Each overdue invoice goes through the normal
// status transition so lifecycle events still fire.
func (s *OverdueSweeper) Sweep(ctx context.Context) {
	result := s.invoices.GetByStatusID(ctx, models.StatusUnpaid)
	if !result.Succeeded {
		log.Printf("overdue sweep: load unpaid invoices: %s", result.Error)
		return
	}

	now := time.Now().UTC()
	var marked int
	for _, inv := range result.Result {
		if !inv.DueDate.Before(now) {
			continue
		}
		res := s.invoices.ChangeStatus(ctx, inv.ID, "Overdue")
		if !res.Succeeded {
			log.Printf("overdue sweep: mark invoice %s: %s", inv.ID, res.Error)
			continue
		}
		marked++
	}
	if marked > 0 {
		log.Printf("overdue sweep: marked %d invoice(s) overdue", marked)
	}
}
