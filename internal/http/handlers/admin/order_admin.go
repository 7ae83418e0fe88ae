package admin

import (
	"errors"
	"strconv"
	"time"

	"github.com/mercato-next/internal/constants"
	"github.com/mercato-next/internal/http/response"
	"github.com/mercato-next/internal/logger"
	"github.com/mercato-next/internal/repository"
	"github.com/mercato-next/internal/service"

	"github.com/gin-gonic/gin"
)

// parseTimeQuery 解析 RFC3339 时间查询参数，缺省或非法时返回 nil
func parseTimeQuery(c *gin.Context, name string) *time.Time {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	return &t
}

// UpdateOrderStatusRequest 订单状态流转请求
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ListAdminOrders 全量订单列表
func (h *Handler) ListAdminOrders(c *gin.Context) {
	page, pageSize := parsePageQuery(c)
	filter := repository.OrderListFilter{
		Page:        page,
		PageSize:    pageSize,
		Status:      c.Query("status"),
		OrderNo:     c.Query("order_no"),
		CreatedFrom: parseTimeQuery(c, "created_from"),
		CreatedTo:   parseTimeQuery(c, "created_to"),
	}
	if raw := c.Query("user_id"); raw != "" {
		if userID, err := strconv.ParseUint(raw, 10, 64); err == nil {
			filter.UserID = uint(userID)
		}
	}
	orders, total, err := h.OrderService.ListAdmin(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, gin.H{"orders": orders}, buildPagination(page, pageSize, total))
}

// GetAdminOrder 订单详情
func (h *Handler) GetAdminOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.GetByID(orderID)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "error.order_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, order)
}

// UpdateOrderStatus 订单状态流转，取消 / 退款时联动关闭拣货单
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	if err := h.OrderService.TransitionStatus(orderID, req.Status); err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, response.CodeNotFound, "error.order_not_found", nil)
		case errors.Is(err, service.ErrOrderStatusInvalid):
			respondError(c, response.CodeBadRequest, "error.order_status_invalid", nil)
		default:
			respondError(c, response.CodeInternal, "error.internal", err)
		}
		return
	}

	if req.Status == constants.OrderStatusCanceled || req.Status == constants.OrderStatusRefunded {
		if err := h.FulfillmentService.CancelByOrderID(orderID, "order "+req.Status); err != nil {
			logger.Warnw("admin_order_fulfillment_cancel_failed", "order_id", orderID, "status", req.Status, "error", err)
		}
	}
	if req.Status == constants.OrderStatusRefunded {
		if invoice, err := h.InvoiceService.GetByOrderID(orderID); err == nil && invoice != nil {
			if err := h.InvoiceService.Void(invoice.ID); err != nil && !errors.Is(err, service.ErrInvoiceNotFound) {
				logger.Warnw("admin_order_invoice_void_failed", "order_id", orderID, "invoice_id", invoice.ID, "error", err)
			}
		}
	}

	logger.Infow("admin_order_status_updated",
		"operator_admin_id", currentAdminID(c),
		"order_id", orderID,
		"status", req.Status,
	)
	response.Success(c, gin.H{"order_id": orderID, "status": req.Status})
}
