package public

import (
	"strconv"

	"github.com/mercato-next/internal/http/response"
	"github.com/mercato-next/internal/service"

	"github.com/gin-gonic/gin"
)

// AddWishlistItemRequest 加入心愿单请求
type AddWishlistItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	// NotifyRestock 订阅到货提醒
	NotifyRestock bool `json:"notify_restock"`
}

// GetWishlist 我的心愿单
func (h *Handler) GetWishlist(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	items, err := h.WishlistService.ListByUser(uid)
	if err != nil {
		respondWishlistError(c, err)
		return
	}
	response.Success(c, gin.H{"items": items})
}

// AddWishlistItem 加入心愿单
func (h *Handler) AddWishlistItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req AddWishlistItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	item, err := h.WishlistService.AddItem(service.AddItemInput{
		UserID:        uid,
		ProductID:     req.ProductID,
		NotifyRestock: req.NotifyRestock,
	})
	if err != nil {
		respondWishlistError(c, err)
		return
	}
	response.Success(c, item)
}

// RemoveWishlistItem 移出心愿单（幂等）
func (h *Handler) RemoveWishlistItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	productID, err := strconv.ParseUint(c.Param("product_id"), 10, 64)
	if err != nil || productID == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	if err := h.WishlistService.RemoveItem(uid, uint(productID)); err != nil {
		respondWishlistError(c, err)
		return
	}
	response.Success(c, gin.H{"removed": true})
}
