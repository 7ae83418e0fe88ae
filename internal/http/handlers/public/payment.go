package public

import (
	"io"

	"github.com/mercato-next/internal/http/response"
	"github.com/mercato-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ListPaymentChannels 可用支付渠道（不含密钥配置）
func (h *Handler) ListPaymentChannels(c *gin.Context) {
	channels, err := h.PaymentService.ListEnabledChannels()
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	sanitized := make([]gin.H, 0, len(channels))
	for _, channel := range channels {
		sanitized = append(sanitized, gin.H{
			"code":     channel.Code,
			"name":     channel.Name,
			"provider": channel.Provider,
		})
	}
	response.Success(c, gin.H{"channels": sanitized})
}

// CreatePaymentRequest 发起支付请求
type CreatePaymentRequest struct {
	OrderID     uint   `json:"order_id" binding:"required"`
	ChannelCode string `json:"channel_code" binding:"required"`
}

// CreatePayment 为待支付订单发起 Stripe Checkout 支付
func (h *Handler) CreatePayment(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	payment, err := h.PaymentService.CreatePayment(service.CreatePaymentInput{
		Context:     c.Request.Context(),
		UserID:      uid,
		OrderID:     req.OrderID,
		ChannelCode: req.ChannelCode,
	})
	if err != nil {
		respondPaymentCreateError(c, err)
		return
	}
	response.Success(c, gin.H{
		"payment_no": payment.PaymentNo,
		"status":     payment.Status,
		"pay_url":    payment.PayURL,
	})
}

// GetPayment 查询支付状态（从收银台返回时轮询，会主动同步网关）
func (h *Handler) GetPayment(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	payment, err := h.PaymentService.SyncFromGateway(c.Request.Context(), c.Param("payment_no"))
	if err != nil {
		respondPaymentCreateError(c, err)
		return
	}
	// 校验支付记录归属
	if _, err := h.OrderService.GetByIDAndUser(payment.OrderID, uid); err != nil {
		respondOrderLookupError(c, err)
		return
	}
	response.Success(c, gin.H{
		"payment_no": payment.PaymentNo,
		"status":     payment.Status,
		"amount":     payment.Amount,
		"currency":   payment.Currency,
	})
}

// StripeWebhook Stripe 回调入口，按渠道验签后驱动支付状态
func (h *Handler) StripeWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	headers := map[string]string{
		"Stripe-Signature": c.GetHeader("Stripe-Signature"),
	}

	payment, err := h.PaymentService.HandleStripeWebhook(c.Param("channel"), headers, body)
	if err != nil {
		switch err {
		case service.ErrPaymentSignature:
			respondError(c, response.CodeBadRequest, "error.payment_signature", nil)
		case service.ErrPaymentNotFound:
			respondError(c, response.CodeNotFound, "error.payment_not_found", nil)
		case service.ErrPaymentChannelDisabled:
			respondError(c, response.CodeBadRequest, "error.payment_channel_disabled", nil)
		default:
			respondError(c, response.CodeInternal, "error.internal", err)
		}
		return
	}
	requestLog(c).Infow("stripe_webhook_handled", "payment_no", payment.PaymentNo, "status", payment.Status)
	response.Success(c, gin.H{"received": true})
}
