// Package http exposes the invoice operations over REST.
package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ventixe/invoice-service/internal/events"
	"github.com/ventixe/invoice-service/internal/invoice"
	"github.com/ventixe/invoice-service/internal/models"
)

// InvoiceHandler adapts the invoice service to gin. Result status codes map
// one to one onto HTTP statuses.
type InvoiceHandler struct {
	invoices *invoice.Service
}

func NewInvoiceHandler(invoices *invoice.Service) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices}
}

// Register mounts the invoice routes. Mutating routes sit behind the API-key
// middleware when a key is configured.
func (h *InvoiceHandler) Register(r *gin.Engine, apiKey string) {
	api := r.Group("/api/invoices")
	api.GET("", h.GetAll)
	api.GET("/:id", h.GetByID)
	api.GET("/status/:statusId", h.GetByStatus)

	guarded := api.Group("")
	guarded.Use(RequireAPIKey(apiKey))
	guarded.POST("", h.Create)
	guarded.PUT("/:id", h.Update)
	guarded.PATCH("/:id/status", h.ChangeStatus)
	guarded.POST("/:id/send", h.transition((*invoice.Service).Send))
	guarded.POST("/:id/hold", h.transition((*invoice.Service).Hold))
	guarded.POST("/:id/paid", h.transition((*invoice.Service).MarkAsPaid))
	guarded.POST("/:id/unpaid", h.transition((*invoice.Service).MarkAsUnpaid))
}

// GET /api/invoices
func (h *InvoiceHandler) GetAll(c *gin.Context) {
	result := h.invoices.GetAll(c.Request.Context())
	c.JSON(result.StatusCode, result)
}

// GET /api/invoices/:id
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	result := h.invoices.GetByID(c.Request.Context(), c.Param("id"))
	c.JSON(result.StatusCode, result)
}

// GET /api/invoices/status/:statusId
func (h *InvoiceHandler) GetByStatus(c *gin.Context) {
	statusID, err := strconv.Atoi(c.Param("statusId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status id"})
		return
	}
	result := h.invoices.GetByStatusID(c.Request.Context(), statusID)
	c.JSON(result.StatusCode, result)
}

// POST /api/invoices
func (h *InvoiceHandler) Create(c *gin.Context) {
	var payload events.CreateInvoicePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result := h.invoices.CreateInvoice(c.Request.Context(), &payload)
	c.JSON(result.StatusCode, result)
}

// PUT /api/invoices/:id
func (h *InvoiceHandler) Update(c *gin.Context) {
	var form models.UpdateInvoiceForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	form.ID = c.Param("id")
	result := h.invoices.Update(c.Request.Context(), &form)
	c.JSON(result.StatusCode, result)
}

// PATCH /api/invoices/:id/status accepts any status name the catalog knows.
func (h *InvoiceHandler) ChangeStatus(c *gin.Context) {
	var in struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result := h.invoices.ChangeStatus(c.Request.Context(), c.Param("id"), in.Status)
	c.JSON(result.StatusCode, result)
}

// transition wraps the named status operations into one handler shape.
func (h *InvoiceHandler) transition(op func(*invoice.Service, context.Context, string) invoice.Result[*models.Invoice]) gin.HandlerFunc {
	return func(c *gin.Context) {
		result := op(h.invoices, c.Request.Context(), c.Param("id"))
		c.JSON(result.StatusCode, result)
	}
}
