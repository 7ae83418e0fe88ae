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

func respondFulfillmentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrFulfillmentNotFound):
		respondError(c, response.CodeNotFound, "error.fulfillment_not_found", nil)
	case errors.Is(err, service.ErrFulfillmentStatusInvalid):
		respondError(c, response.CodeBadRequest, "error.fulfillment_status_invalid", nil)
	case errors.Is(err, service.ErrFulfillmentItemNotFound):
		respondError(c, response.CodeNotFound, "error.fulfillment_item_not_found", nil)
	case errors.Is(err, service.ErrFulfillmentQuantityExceeded):
		respondError(c, response.CodeBadRequest, "error.fulfillment_quantity_exceeded", nil)
	case errors.Is(err, service.ErrFulfillmentInvalid), errors.Is(err, service.ErrInvalidInput):
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
	default:
		respondError(c, response.CodeInternal, "error.internal", err)
	}
}

// ListFulfillments 拣货单列表
func (h *Handler) ListFulfillments(c *gin.Context) {
	page, pageSize := parsePageQuery(c)
	filter := repository.FulfillmentListFilter{
		Page:        page,
		PageSize:    pageSize,
		Status:      c.Query("status"),
		OrderNo:     c.Query("order_no"),
		CreatedFrom: parseTimeQuery(c, "created_from"),
		CreatedTo:   parseTimeQuery(c, "created_to"),
	}
	if raw := c.Query("customer_id"); raw != "" {
		if customerID, err := strconv.ParseUint(raw, 10, 64); err == nil {
			filter.CustomerID = uint(customerID)
		}
	}
	sheets, total, err := h.FulfillmentService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, gin.H{"fulfillments": sheets}, buildPagination(page, pageSize, total))
}

// GetFulfillment 拣货单详情（含明细）
func (h *Handler) GetFulfillment(c *gin.Context) {
	fulfillmentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	detail, err := h.FulfillmentService.Get(fulfillmentID)
	if err != nil {
		respondFulfillmentError(c, err)
		return
	}
	response.Success(c, detail)
}

// StartFulfillment 开始拣货
func (h *Handler) StartFulfillment(c *gin.Context) {
	fulfillmentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	if err := h.FulfillmentService.Start(fulfillmentID, adminID); err != nil {
		respondFulfillmentError(c, err)
		return
	}
	logger.Infow("admin_fulfillment_started", "operator_admin_id", adminID, "fulfillment_id", fulfillmentID)
	response.Success(c, gin.H{"fulfillment_id": fulfillmentID, "started": true})
}

// CompleteFulfillment 完成拣货，联动订单转入已完成
func (h *Handler) CompleteFulfillment(c *gin.Context) {
	fulfillmentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	if err := h.FulfillmentService.Complete(fulfillmentID, adminID); err != nil {
		respondFulfillmentError(c, err)
		return
	}
	logger.Infow("admin_fulfillment_completed", "operator_admin_id", adminID, "fulfillment_id", fulfillmentID)
	response.Success(c, gin.H{"fulfillment_id": fulfillmentID, "completed": true})
}

// CancelFulfillmentRequest 取消拣货单请求
type CancelFulfillmentRequest struct {
	Note string `json:"note"`
}

// CancelFulfillment 取消拣货单
func (h *Handler) CancelFulfillment(c *gin.Context) {
	fulfillmentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	var req CancelFulfillmentRequest
	// 请求体可省略，note 为空即可
	_ = c.ShouldBindJSON(&req)
	if err := h.FulfillmentService.Cancel(fulfillmentID, adminID, req.Note); err != nil {
		respondFulfillmentError(c, err)
		return
	}
	logger.Infow("admin_fulfillment_cancelled", "operator_admin_id", adminID, "fulfillment_id", fulfillmentID)
	response.Success(c, gin.H{"fulfillment_id": fulfillmentID, "cancelled": true})
}

// UpdateFulfillmentItemRequest 拣货明细更新请求
type UpdateFulfillmentItemRequest struct {
	Status            string `json:"status" binding:"required"`
	QuantityFulfilled int    `json:"quantity_fulfilled"`
	Note              string `json:"note"`
}

// UpdateFulfillmentItem 更新单条拣货明细并返回重算后的拣货单
func (h *Handler) UpdateFulfillmentItem(c *gin.Context) {
	fulfillmentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "itemId")
	if !ok {
		return
	}
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	var req UpdateFulfillmentItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	detail, err := h.FulfillmentService.UpdateItemStatus(service.UpdateItemStatusInput{
		FulfillmentID:     fulfillmentID,
		ItemID:            itemID,
		Status:            req.Status,
		QuantityFulfilled: req.QuantityFulfilled,
		Note:              req.Note,
		AdminID:           adminID,
		AdminName:         getAdminName(c),
	})
	if err != nil {
		respondFulfillmentError(c, err)
		return
	}
	response.Success(c, detail)
}
