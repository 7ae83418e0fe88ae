package admin

import (
	"errors"
	"strconv"

	"github.com/mercato-next/internal/http/response"
	"github.com/mercato-next/internal/logger"
	"github.com/mercato-next/internal/repository"
	"github.com/mercato-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ListAdminInvoices 发票列表
func (h *Handler) ListAdminInvoices(c *gin.Context) {
	page, pageSize := parsePageQuery(c)
	filter := repository.InvoiceListFilter{
		Page:        page,
		PageSize:    pageSize,
		Status:      c.Query("status"),
		InvoiceNo:   c.Query("invoice_no"),
		OrderNo:     c.Query("order_no"),
		CreatedFrom: parseTimeQuery(c, "created_from"),
		CreatedTo:   parseTimeQuery(c, "created_to"),
	}
	if raw := c.Query("user_id"); raw != "" {
		if userID, err := strconv.ParseUint(raw, 10, 64); err == nil {
			filter.UserID = uint(userID)
		}
	}
	invoices, total, err := h.InvoiceService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, gin.H{"invoices": invoices}, buildPagination(page, pageSize, total))
}

// GetAdminInvoice 发票详情
func (h *Handler) GetAdminInvoice(c *gin.Context) {
	invoiceID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	invoice, err := h.InvoiceService.Get(invoiceID)
	if err != nil {
		if errors.Is(err, service.ErrInvoiceNotFound) {
			respondError(c, response.CodeNotFound, "error.invoice_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, invoice)
}

// VoidAdminInvoice 作废发票（幂等）
func (h *Handler) VoidAdminInvoice(c *gin.Context) {
	invoiceID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.InvoiceService.Void(invoiceID); err != nil {
		if errors.Is(err, service.ErrInvoiceNotFound) {
			respondError(c, response.CodeNotFound, "error.invoice_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	logger.Infow("admin_invoice_voided",
		"operator_admin_id", currentAdminID(c),
		"invoice_id", invoiceID,
	)
	response.Success(c, gin.H{"invoice_id": invoiceID, "voided": true})
}
