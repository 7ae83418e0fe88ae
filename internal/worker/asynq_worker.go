package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/mercato-next/internal/logger"
	"github.com/mercato-next/internal/provider"
	"github.com/mercato-next/internal/queue"
	"github.com/mercato-next/internal/service"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(container *provider.Container) *Consumer {
	return &Consumer{Container: container}
}

// Register 注册任务处理器
func (c *Consumer) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(queue.TaskFulfillmentCreate, c.HandleFulfillmentCreate)
	mux.HandleFunc(queue.TaskOrderStatusEmail, c.HandleOrderStatusEmail)
	mux.HandleFunc(queue.TaskOrderTimeoutCancel, c.HandleOrderTimeoutCancel)
	mux.HandleFunc(queue.TaskRestockNotify, c.HandleRestockNotify)
}

// HandleFulfillmentCreate 订单支付后生成拣货单
func (c *Consumer) HandleFulfillmentCreate(ctx context.Context, t *asynq.Task) error {
	var payload queue.FulfillmentCreatePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal fulfillment create payload: %w: %v", asynq.SkipRetry, err)
	}

	_, err := c.FulfillmentService.CreateForOrder(payload.OrderID)
	if err != nil {
		// 重复投递或订单已删除时直接跳过
		if errors.Is(err, service.ErrFulfillmentExists) || errors.Is(err, service.ErrOrderNotFound) {
			logger.Debugw("fulfillment_create_skipped", "order_id", payload.OrderID, "reason", err)
			return nil
		}
		logger.Errorw("fulfillment_create_failed", "order_id", payload.OrderID, "error", err)
		return err
	}

	logger.Infow("fulfillment_created", "order_id", payload.OrderID)
	return nil
}

// HandleOrderStatusEmail 订单状态变更通知邮件
func (c *Consumer) HandleOrderStatusEmail(ctx context.Context, t *asynq.Task) error {
	var payload queue.OrderStatusEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal order status email payload: %w: %v", asynq.SkipRetry, err)
	}

	order, err := c.OrderRepo.GetByID(payload.OrderID)
	if err != nil {
		return err
	}
	if order == nil {
		logger.Debugw("order_status_email_skipped", "order_id", payload.OrderID, "reason", "order not found")
		return nil
	}

	email, locale, err := c.OrderService.ResolveReceiverEmail(payload.OrderID)
	if err != nil {
		return err
	}
	if email == "" {
		logger.Debugw("order_status_email_skipped", "order_id", payload.OrderID, "reason", "no receiver email")
		return nil
	}

	input := service.OrderStatusEmailInput{
		OrderNo:  order.OrderNo,
		Status:   payload.Status,
		Amount:   order.TotalAmount,
		Currency: order.Currency,
	}
	if err := c.EmailService.SendOrderStatusEmail(email, input, locale); err != nil {
		if errors.Is(err, service.ErrEmailServiceDisabled) || errors.Is(err, service.ErrEmailServiceNotConfigured) {
			logger.Debugw("order_status_email_skipped", "order_id", payload.OrderID, "reason", err)
			return nil
		}
		if errors.Is(err, service.ErrEmailRecipientRejected) || errors.Is(err, service.ErrInvalidEmail) {
			logger.Warnw("order_status_email_rejected", "order_id", payload.OrderID, "email", email, "error", err)
			return nil
		}
		logger.Errorw("order_status_email_failed", "order_id", payload.OrderID, "error", err)
		return err
	}

	logger.Infow("order_status_email_sent", "order_id", payload.OrderID, "status", payload.Status)
	return nil
}

// HandleOrderTimeoutCancel 超时未支付订单自动取消
func (c *Consumer) HandleOrderTimeoutCancel(ctx context.Context, t *asynq.Task) error {
	var payload queue.OrderTimeoutCancelPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal order timeout cancel payload: %w: %v", asynq.SkipRetry, err)
	}

	if err := c.OrderService.CancelExpired(payload.OrderID); err != nil {
		logger.Errorw("order_timeout_cancel_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	// 随订单一并取消拣货单，失败不重试整个任务
	if err := c.FulfillmentService.CancelByOrderID(payload.OrderID, "order payment timed out"); err != nil {
		logger.Warnw("order_timeout_cancel_fulfillment_failed", "order_id", payload.OrderID, "error", err)
	}
	return nil
}

// HandleRestockNotify 商品补货后通知心愿单订阅用户
func (c *Consumer) HandleRestockNotify(ctx context.Context, t *asynq.Task) error {
	var payload queue.RestockNotifyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal restock notify payload: %w: %v", asynq.SkipRetry, err)
	}

	product, err := c.ProductRepo.GetByID(fmt.Sprintf("%d", payload.ProductID))
	if err != nil {
		return err
	}
	if product == nil || !product.IsActive {
		logger.Debugw("restock_notify_skipped", "product_id", payload.ProductID, "reason", "product unavailable")
		return nil
	}

	subscribers, err := c.WishlistService.ListSubscribers(payload.ProductID)
	if err != nil {
		return err
	}
	if len(subscribers) == 0 {
		return nil
	}

	notified := make([]uint, 0, len(subscribers))
	for _, item := range subscribers {
		user, err := c.UserRepo.GetByID(item.UserID)
		if err != nil {
			logger.Warnw("restock_notify_user_lookup_failed", "user_id", item.UserID, "error", err)
			continue
		}
		if user == nil {
			// 用户已注销，清掉孤儿订阅行，不计入已通知
			if err := c.WishlistService.RemoveItem(item.UserID, item.ProductID); err != nil {
				logger.Warnw("restock_notify_orphan_cleanup_failed", "user_id", item.UserID, "product_id", item.ProductID, "error", err)
			}
			continue
		}
		if err := c.EmailService.SendRestockEmail(user.Email, product.Name, user.Locale); err != nil {
			if errors.Is(err, service.ErrEmailServiceDisabled) || errors.Is(err, service.ErrEmailServiceNotConfigured) {
				logger.Debugw("restock_notify_skipped", "product_id", payload.ProductID, "reason", err)
				return nil
			}
			logger.Warnw("restock_notify_send_failed", "user_id", item.UserID, "product_id", payload.ProductID, "error", err)
			continue
		}
		notified = append(notified, item.ID)
	}

	if err := c.WishlistService.MarkNotified(notified); err != nil {
		logger.Warnw("restock_notify_mark_failed", "product_id", payload.ProductID, "error", err)
	}

	logger.Infow("restock_notify_done", "product_id", payload.ProductID, "notified", len(notified))
	return nil
}
