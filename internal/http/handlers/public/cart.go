package public

import (
	"strconv"

	"github.com/mercato-next/internal/http/response"
	"github.com/mercato-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CartItemRequest 购物车项请求
type CartItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity"`
	// Increment 为 true 时在现有数量上累加，否则覆盖
	Increment bool `json:"increment"`
}

// GetCart 获取购物车汇总
func (h *Handler) GetCart(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	summary, err := h.CartService.ListByUser(uid)
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, summary)
}

// UpsertCartItem 添加/更新购物车项。数量为 0 等价于删除。
func (h *Handler) UpsertCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	if err := h.CartService.UpsertItem(service.UpsertCartItemInput{
		UserID:    uid,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Increment: req.Increment,
	}); err != nil {
		respondCartError(c, err)
		return
	}

	summary, err := h.CartService.ListByUser(uid)
	if err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, summary)
}

// DeleteCartItem 删除购物车项（幂等）
func (h *Handler) DeleteCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	productID, err := strconv.ParseUint(c.Param("product_id"), 10, 64)
	if err != nil || productID == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	if err := h.CartService.RemoveItem(uid, uint(productID)); err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// ClearCart 清空购物车
func (h *Handler) ClearCart(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	if err := h.CartService.Clear(uid); err != nil {
		respondCartError(c, err)
		return
	}
	response.Success(c, gin.H{"cleared": true})
}
