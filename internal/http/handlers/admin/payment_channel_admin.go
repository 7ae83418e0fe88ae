package admin

import (
	"strings"

	"github.com/mercato-next/internal/http/response"
	"github.com/mercato-next/internal/logger"
	"github.com/mercato-next/internal/models"
	"github.com/mercato-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// SavePaymentChannelRequest 支付渠道创建 / 更新请求
type SavePaymentChannelRequest struct {
	Code      string      `json:"code" binding:"required"`
	Name      string      `json:"name" binding:"required"`
	Provider  string      `json:"provider" binding:"required"`
	Type      string      `json:"type"`
	Config    models.JSON `json:"config"`
	IsEnabled bool        `json:"is_enabled"`
	SortOrder int         `json:"sort_order"`
}

// ListPaymentChannels 支付渠道列表（含密钥以外的完整配置状态）
func (h *Handler) ListPaymentChannels(c *gin.Context) {
	page, pageSize := parsePageQuery(c)
	channels, total, err := h.PaymentChannelRepo.List(repository.PaymentChannelListFilter{
		Page:     page,
		PageSize: pageSize,
		Provider: c.Query("provider"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, gin.H{"channels": channels}, buildPagination(page, pageSize, total))
}

// GetPaymentChannel 支付渠道详情
func (h *Handler) GetPaymentChannel(c *gin.Context) {
	channelID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	channel, err := h.PaymentChannelRepo.GetByID(channelID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	if channel == nil {
		respondError(c, response.CodeNotFound, "error.not_found", nil)
		return
	}
	response.Success(c, channel)
}

// CreatePaymentChannel 创建支付渠道
func (h *Handler) CreatePaymentChannel(c *gin.Context) {
	var req SavePaymentChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	code := strings.TrimSpace(req.Code)
	existing, err := h.PaymentChannelRepo.GetByCode(code)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	if existing != nil {
		respondError(c, response.CodeBadRequest, "error.slug_exists", nil)
		return
	}

	channel := &models.PaymentChannel{
		Code:      code,
		Name:      strings.TrimSpace(req.Name),
		Provider:  strings.TrimSpace(req.Provider),
		Type:      req.Type,
		Config:    req.Config,
		IsEnabled: req.IsEnabled,
		SortOrder: req.SortOrder,
	}
	if err := h.PaymentChannelRepo.Create(channel); err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	logger.Infow("admin_payment_channel_created",
		"operator_admin_id", currentAdminID(c),
		"channel_code", channel.Code,
		"provider", channel.Provider,
	)
	response.Success(c, channel)
}

// UpdatePaymentChannel 更新支付渠道，config 省略时保留原密钥
func (h *Handler) UpdatePaymentChannel(c *gin.Context) {
	channelID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	channel, err := h.PaymentChannelRepo.GetByID(channelID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	if channel == nil {
		respondError(c, response.CodeNotFound, "error.not_found", nil)
		return
	}

	var req SavePaymentChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	code := strings.TrimSpace(req.Code)
	if code != channel.Code {
		existing, err := h.PaymentChannelRepo.GetByCode(code)
		if err != nil {
			respondError(c, response.CodeInternal, "error.internal", err)
			return
		}
		if existing != nil && existing.ID != channel.ID {
			respondError(c, response.CodeBadRequest, "error.slug_exists", nil)
			return
		}
		channel.Code = code
	}

	channel.Name = strings.TrimSpace(req.Name)
	channel.Provider = strings.TrimSpace(req.Provider)
	if req.Type != "" {
		channel.Type = req.Type
	}
	if req.Config != nil {
		channel.Config = req.Config
	}
	channel.IsEnabled = req.IsEnabled
	channel.SortOrder = req.SortOrder

	if err := h.PaymentChannelRepo.Update(channel); err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	logger.Infow("admin_payment_channel_updated",
		"operator_admin_id", currentAdminID(c),
		"channel_id", channel.ID,
		"channel_code", channel.Code,
		"is_enabled", channel.IsEnabled,
	)
	response.Success(c, channel)
}

// DeletePaymentChannel 删除支付渠道
func (h *Handler) DeletePaymentChannel(c *gin.Context) {
	channelID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	channel, err := h.PaymentChannelRepo.GetByID(channelID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	if channel == nil {
		respondError(c, response.CodeNotFound, "error.not_found", nil)
		return
	}
	if err := h.PaymentChannelRepo.Delete(channelID); err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	logger.Infow("admin_payment_channel_deleted",
		"operator_admin_id", currentAdminID(c),
		"channel_id", channelID,
		"channel_code", channel.Code,
	)
	response.Success(c, nil)
}
