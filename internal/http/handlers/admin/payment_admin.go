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

// ListAdminPayments 支付流水列表
func (h *Handler) ListAdminPayments(c *gin.Context) {
	page, pageSize := parsePageQuery(c)
	filter := repository.PaymentListFilter{
		Page:        page,
		PageSize:    pageSize,
		Provider:    c.Query("provider"),
		Status:      c.Query("status"),
		CreatedFrom: parseTimeQuery(c, "created_from"),
		CreatedTo:   parseTimeQuery(c, "created_to"),
	}
	if raw := c.Query("order_id"); raw != "" {
		if orderID, err := strconv.ParseUint(raw, 10, 64); err == nil {
			filter.OrderID = uint(orderID)
		}
	}
	if raw := c.Query("channel_id"); raw != "" {
		if channelID, err := strconv.ParseUint(raw, 10, 64); err == nil {
			filter.ChannelID = uint(channelID)
		}
	}
	payments, total, err := h.PaymentService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, gin.H{"payments": payments}, buildPagination(page, pageSize, total))
}

// GetAdminPayment 支付流水详情
func (h *Handler) GetAdminPayment(c *gin.Context) {
	paymentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	payment, err := h.PaymentRepo.GetByID(paymentID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	if payment == nil {
		respondError(c, response.CodeNotFound, "error.payment_not_found", nil)
		return
	}
	response.Success(c, payment)
}

// SyncAdminPayment 主动向网关对账，拉取支付最新状态
func (h *Handler) SyncAdminPayment(c *gin.Context) {
	paymentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	payment, err := h.PaymentRepo.GetByID(paymentID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	if payment == nil {
		respondError(c, response.CodeNotFound, "error.payment_not_found", nil)
		return
	}

	synced, err := h.PaymentService.SyncFromGateway(c.Request.Context(), payment.PaymentNo)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPaymentNotFound):
			respondError(c, response.CodeNotFound, "error.payment_not_found", nil)
		case errors.Is(err, service.ErrPaymentChannelDisabled):
			respondError(c, response.CodeBadRequest, "error.payment_channel_disabled", nil)
		default:
			respondError(c, response.CodeInternal, "error.internal", err)
		}
		return
	}

	logger.Infow("admin_payment_synced",
		"operator_admin_id", currentAdminID(c),
		"payment_no", synced.PaymentNo,
		"status", synced.Status,
	)
	response.Success(c, synced)
}
