package public

import (
	"errors"
	"strconv"

	handlershared "github.com/mercato-next/internal/http/handlers/shared"
	"github.com/mercato-next/internal/http/response"
	"github.com/mercato-next/internal/repository"
	"github.com/mercato-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateOrderRequest 下单请求
type CreateOrderRequest struct {
	Items []CreateOrderItemRequest `json:"items"`
	Note  string                   `json:"note"`
	// FromCart 为 true 时以购物车内容下单并在成功后清空购物车
	FromCart bool `json:"from_cart"`
}

// CreateOrderItemRequest 下单商品行
type CreateOrderItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required"`
}

// CreateOrder 创建订单
func (h *Handler) CreateOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	items := make([]service.CreateOrderItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, service.CreateOrderItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	order, err := h.OrderService.Create(service.CreateOrderInput{
		UserID:   uid,
		Items:    items,
		Note:     req.Note,
		FromCart: req.FromCart,
	})
	if err != nil {
		respondOrderCreateError(c, err)
		return
	}
	response.Success(c, order)
}

// ListOrders 我的订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	orders, total, err := h.OrderService.ListByUser(repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   uid,
		Status:   c.Query("status"),
	})
	if err != nil {
		respondOrderLookupError(c, err)
		return
	}
	response.SuccessWithPage(c, gin.H{"orders": orders}, buildPagination(page, pageSize, total))
}

// GetOrder 我的订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, err := service.ParseOrderID(c.Param("id"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	order, err := h.OrderService.GetByIDAndUser(orderID, uid)
	if err != nil {
		respondOrderLookupError(c, err)
		return
	}
	response.Success(c, order)
}

// CancelOrder 取消待支付订单，拣货单随单取消
func (h *Handler) CancelOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, err := service.ParseOrderID(c.Param("id"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	if err := h.OrderService.CancelByUser(orderID, uid); err != nil {
		respondOrderLookupError(c, err)
		return
	}
	if err := h.FulfillmentService.CancelByOrderID(orderID, "order canceled by customer"); err != nil {
		requestLog(c).Warnw("order_cancel_fulfillment_failed", "order_id", orderID, "error", err)
	}
	response.Success(c, gin.H{"canceled": true})
}

// GetOrderInvoice 我的订单发票
func (h *Handler) GetOrderInvoice(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, err := service.ParseOrderID(c.Param("id"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	// 先校验归属，再取发票
	if _, err := h.OrderService.GetByIDAndUser(orderID, uid); err != nil {
		respondOrderLookupError(c, err)
		return
	}
	invoice, err := h.InvoiceService.GetByOrderID(orderID)
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
