package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"criadero/internal/logger"
	"criadero/internal/metrics"
	"criadero/internal/sales"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	msgSaleRecorded   = "sale recorded successfully"
	msgMissingFields  = "missing required fields"
	msgServerError    = "server error"
	reportErrorNotice = "could not connect to the database"

	healthTimeout = 2 * time.Second
)

// salesHandler holds the sales service and implements HTTP handlers for sales operations.
type salesHandler struct {
	salesService *sales.Service
	logger       *zap.Logger
	metrics      *metrics.HTTPMetrics
}

// NewSalesHandler creates a new sales handler.
func NewSalesHandler(salesService *sales.Service, logger *zap.Logger, m *metrics.HTTPMetrics) *salesHandler {
	return &salesHandler{
		salesService: salesService,
		logger:       logger,
		metrics:      m,
	}
}

// handleIndex renders the intake form.
func (h *salesHandler) handleIndex(ctx *gin.Context) {
	ctx.HTML(http.StatusOK, "index.html", nil)
}

// handleCreateSale handles the POST /agregar endpoint.
func (h *salesHandler) handleCreateSale(ctx *gin.Context) {
	log := logger.FromGin(ctx, h.logger)

	var payload map[string]any
	if err := ctx.ShouldBindJSON(&payload); err != nil || payload == nil {
		log.Error("failed to decode sale payload", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": msgServerError})
		return
	}

	sale, err := h.salesService.RecordSale(ctx.Request.Context(), payload)
	if err != nil {
		switch {
		case errors.Is(err, sales.ErrMissingFields):
			ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "error": msgMissingFields})
		case errors.Is(err, sales.ErrTotalMismatch):
			ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "error": sales.ErrTotalMismatch.Error()})
		default:
			// Coercion and store failures look the same to the caller.
			log.Error("failed to record sale", zap.Error(err), zap.Bool("coercion", errors.Is(err, sales.ErrCoercion)))
			ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": msgServerError})
		}
		return
	}

	h.metrics.SaleRecorded()
	log.Debug("sale accepted", zap.Int64("sale_id", sale.ID))
	ctx.JSON(http.StatusOK, gin.H{"success": true, "message": msgSaleRecorded})
}

// handleReport renders every sale. A store failure still renders the page, empty, with a notice.
func (h *salesHandler) handleReport(ctx *gin.Context) {
	log := logger.FromGin(ctx, h.logger)

	views, err := h.salesService.Report(ctx.Request.Context())
	if err != nil {
		log.Error("failed to build sales report", zap.Error(err))
		h.metrics.ReportFallback()
		ctx.HTML(http.StatusOK, "ventas.html", gin.H{
			"Sales": []sales.SaleView{},
			"Error": reportErrorNotice,
		})
		return
	}

	ctx.HTML(http.StatusOK, "ventas.html", gin.H{"Sales": views})
}

func (h *salesHandler) handleHealth(ctx *gin.Context) {
	c, cancel := context.WithTimeout(ctx.Request.Context(), healthTimeout)
	defer cancel()

	if err := h.salesService.Ping(c); err != nil {
		logger.FromGin(ctx, h.logger).Warn("health check failed", zap.Error(err))
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}
