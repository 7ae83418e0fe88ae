package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/mercato-next/internal/constants"
	"github.com/mercato-next/internal/logger"
	"github.com/mercato-next/internal/models"
	"github.com/mercato-next/internal/payment/stripe"
	"github.com/mercato-next/internal/repository"
)

// PaymentService 支付服务（Stripe Checkout 跳转收银台）
type PaymentService struct {
	paymentRepo repository.PaymentRepository
	channelRepo repository.PaymentChannelRepository
	orderRepo   repository.OrderRepository
	orderSvc    *OrderService
	invoiceSvc  *InvoiceService
}

// NewPaymentService 创建支付服务
func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	channelRepo repository.PaymentChannelRepository,
	orderRepo repository.OrderRepository,
	orderSvc *OrderService,
	invoiceSvc *InvoiceService,
) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		channelRepo: channelRepo,
		orderRepo:   orderRepo,
		orderSvc:    orderSvc,
		invoiceSvc:  invoiceSvc,
	}
}

// generatePaymentNo 生成支付单号
func generatePaymentNo() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	suffix := int64(0)
	if err == nil {
		suffix = n.Int64()
	}
	return fmt.Sprintf("PAY%s%06d", time.Now().Format("20060102150405"), suffix)
}

// ListEnabledChannels 获取可用支付渠道（不含密钥配置）
func (s *PaymentService) ListEnabledChannels() ([]models.PaymentChannel, error) {
	return s.channelRepo.ListEnabled()
}

// stripeConfigFor 解析渠道的 Stripe 配置
func (s *PaymentService) stripeConfigFor(channel *models.PaymentChannel) (*stripe.Config, error) {
	if channel == nil || !channel.IsEnabled {
		return nil, ErrPaymentChannelDisabled
	}
	if !strings.EqualFold(channel.Provider, constants.PaymentProviderStripe) {
		return nil, ErrPaymentChannelDisabled
	}
	cfg, err := stripe.LoadConfig(channel.Config)
	if err != nil {
		logger.Errorw("payment_channel_config_invalid", "channel", channel.Code, "error", err)
		return nil, ErrPaymentCreateFailed
	}
	if err := cfg.Validate(); err != nil {
		logger.Errorw("payment_channel_config_invalid", "channel", channel.Code, "error", err)
		return nil, ErrPaymentCreateFailed
	}
	return cfg, nil
}

// CreatePaymentInput 发起支付输入
type CreatePaymentInput struct {
	Context     context.Context
	UserID      uint
	OrderID     uint
	ChannelCode string
}

// CreatePayment 为待支付订单创建 Stripe Checkout 支付，返回收银台跳转地址。
func (s *PaymentService) CreatePayment(input CreatePaymentInput) (*models.Payment, error) {
	if input.UserID == 0 || input.OrderID == 0 || strings.TrimSpace(input.ChannelCode) == "" {
		return nil, ErrInvalidInput
	}
	order, err := s.orderRepo.GetByIDAndUser(input.OrderID, input.UserID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status != constants.OrderStatusPendingPayment {
		return nil, ErrOrderStatusInvalid
	}

	channel, err := s.channelRepo.GetByCode(strings.TrimSpace(input.ChannelCode))
	if err != nil {
		return nil, err
	}
	cfg, err := s.stripeConfigFor(channel)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	payment := &models.Payment{
		PaymentNo: generatePaymentNo(),
		OrderID:   order.ID,
		ChannelID: channel.ID,
		Provider:  constants.PaymentProviderStripe,
		Status:    constants.PaymentStatusCreated,
		Amount:    order.TotalAmount,
		Currency:  order.Currency,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.paymentRepo.Create(payment); err != nil {
		logger.Errorw("payment_create_failed", "order_id", order.ID, "error", err)
		return nil, ErrPaymentCreateFailed
	}

	ctx := input.Context
	if ctx == nil {
		ctx = context.Background()
	}
	client, err := stripe.NewClient(cfg)
	if err != nil {
		logger.Errorw("payment_channel_config_invalid", "channel", channel.Code, "error", err)
		return nil, ErrPaymentCreateFailed
	}
	session, err := client.CreateCheckoutSession(ctx, stripe.CheckoutParams{
		OrderNo:     order.OrderNo,
		PaymentID:   payment.ID,
		Amount:      payment.Amount.String(),
		Currency:    payment.Currency,
		Description: fmt.Sprintf("Order %s", order.OrderNo),
	})
	if err != nil {
		logger.Errorw("payment_gateway_create_failed", "payment_no", payment.PaymentNo, "error", err)
		return nil, ErrPaymentCreateFailed
	}

	payment.ExternalTradeNo = session.ID
	if payment.ExternalTradeNo == "" {
		payment.ExternalTradeNo = session.IntentID
	}
	payment.PayURL = session.URL
	payment.UpdatedAt = time.Now()
	if err := s.paymentRepo.Update(payment); err != nil {
		logger.Errorw("payment_update_failed", "payment_no", payment.PaymentNo, "error", err)
		return nil, ErrPaymentCreateFailed
	}
	return payment, nil
}

// GetByPaymentNo 获取支付记录
func (s *PaymentService) GetByPaymentNo(paymentNo string) (*models.Payment, error) {
	payment, err := s.paymentRepo.GetByPaymentNo(strings.TrimSpace(paymentNo))
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}
	return payment, nil
}

// ListByOrderID 订单支付记录
func (s *PaymentService) ListByOrderID(orderID uint) ([]models.Payment, error) {
	return s.paymentRepo.ListByOrderID(orderID)
}

// List 管理端支付列表
func (s *PaymentService) List(filter repository.PaymentListFilter) ([]models.Payment, int64, error) {
	return s.paymentRepo.List(filter)
}

// HandleStripeWebhook 处理 Stripe Webhook 回调。
// 验签失败返回 ErrPaymentSignature；重复回调幂等处理。
func (s *PaymentService) HandleStripeWebhook(channelCode string, headers map[string]string, body []byte) (*models.Payment, error) {
	channel, err := s.channelRepo.GetByCode(strings.TrimSpace(channelCode))
	if err != nil {
		return nil, err
	}
	cfg, err := s.stripeConfigFor(channel)
	if err != nil {
		return nil, err
	}

	event, err := stripe.ParseEvent(cfg, headers, body, time.Now())
	if err != nil {
		if errors.Is(err, stripe.ErrBadSignature) {
			return nil, ErrPaymentSignature
		}
		logger.Warnw("payment_webhook_parse_failed", "channel", channelCode, "error", err)
		return nil, ErrPaymentSignature
	}

	payment, err := s.locatePayment(event)
	if err != nil {
		return nil, err
	}

	switch event.State {
	case stripe.StateSucceeded:
		if err := s.capture(payment, event); err != nil {
			return nil, err
		}
	case stripe.StateFailed:
		s.markTerminal(payment, constants.PaymentStatusFailed, event.Type)
	case stripe.StateExpired:
		s.markTerminal(payment, constants.PaymentStatusExpired, event.Type)
	}

	fresh, err := s.paymentRepo.GetByID(payment.ID)
	if err != nil || fresh == nil {
		return payment, nil
	}
	return fresh, nil
}

func (s *PaymentService) locatePayment(event *stripe.Event) (*models.Payment, error) {
	if event.PaymentID != 0 {
		payment, err := s.paymentRepo.GetByID(event.PaymentID)
		if err != nil {
			return nil, err
		}
		if payment != nil {
			return payment, nil
		}
	}
	if ref := strings.TrimSpace(event.Ref); ref != "" {
		payment, err := s.paymentRepo.GetByExternalTradeNo(constants.PaymentProviderStripe, ref)
		if err != nil {
			return nil, err
		}
		if payment != nil {
			return payment, nil
		}
	}
	return nil, ErrPaymentNotFound
}

// capture 支付成功：标记支付、订单转已支付、开具发票。
// 条件更新保证重复回调只生效一次。
func (s *PaymentService) capture(payment *models.Payment, event *stripe.Event) error {
	succeededAt := time.Now()
	if event.PaidAt != nil {
		succeededAt = *event.PaidAt
	}
	updates := map[string]interface{}{
		"succeeded_at": succeededAt,
		"updated_at":   time.Now(),
	}
	if ref := strings.TrimSpace(event.Ref); ref != "" {
		updates["external_trade_no"] = ref
	}
	affected, err := s.paymentRepo.UpdateStatusIfCurrent(payment.ID, constants.PaymentStatusCreated, constants.PaymentStatusSucceeded, updates)
	if err != nil {
		return err
	}
	if affected == 0 {
		// 已处理过的回调
		return nil
	}

	if err := s.orderSvc.TransitionStatus(payment.OrderID, constants.OrderStatusPaid); err != nil {
		logger.Warnw("payment_order_transition_failed", "payment_no", payment.PaymentNo, "order_id", payment.OrderID, "error", err)
	}
	if _, err := s.invoiceSvc.IssueForOrder(payment.OrderID); err != nil {
		logger.Warnw("payment_invoice_issue_failed", "payment_no", payment.PaymentNo, "order_id", payment.OrderID, "error", err)
	}
	return nil
}

// markTerminal 支付失败/过期（尽力而为，重复回调幂等）
func (s *PaymentService) markTerminal(payment *models.Payment, toStatus, reason string) {
	updates := map[string]interface{}{
		"fail_reason": reason,
		"updated_at":  time.Now(),
	}
	if _, err := s.paymentRepo.UpdateStatusIfCurrent(payment.ID, constants.PaymentStatusCreated, toStatus, updates); err != nil {
		logger.Warnw("payment_mark_terminal_failed", "payment_no", payment.PaymentNo, "status", toStatus, "error", err)
	}
}

// SyncFromGateway 主动查询网关同步支付状态（用户从收银台返回时调用）
func (s *PaymentService) SyncFromGateway(ctx context.Context, paymentNo string) (*models.Payment, error) {
	payment, err := s.GetByPaymentNo(paymentNo)
	if err != nil {
		return nil, err
	}
	if payment.Status != constants.PaymentStatusCreated || payment.ExternalTradeNo == "" {
		return payment, nil
	}
	channel, err := s.channelRepo.GetByID(payment.ChannelID)
	if err != nil {
		return nil, err
	}
	cfg, err := s.stripeConfigFor(channel)
	if err != nil {
		return nil, err
	}
	client, err := stripe.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	info, err := client.LookupPayment(ctx, payment.ExternalTradeNo)
	if err != nil {
		logger.Warnw("payment_gateway_query_failed", "payment_no", paymentNo, "error", err)
		return payment, nil
	}
	switch info.State {
	case stripe.StateSucceeded:
		event := &stripe.Event{
			Ref:    payment.ExternalTradeNo,
			PaidAt: info.PaidAt,
		}
		if err := s.capture(payment, event); err != nil {
			return nil, err
		}
	case stripe.StateFailed:
		s.markTerminal(payment, constants.PaymentStatusFailed, "gateway query")
	case stripe.StateExpired:
		s.markTerminal(payment, constants.PaymentStatusExpired, "gateway query")
	}
	return s.GetByPaymentNo(paymentNo)
}
