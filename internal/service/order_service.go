package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/mercato-next/internal/constants"
	"github.com/mercato-next/internal/logger"
	"github.com/mercato-next/internal/models"
	"github.com/mercato-next/internal/queue"
	"github.com/mercato-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderService 订单服务
type OrderService struct {
	orderRepo            repository.OrderRepository
	cartRepo             repository.CartRepository
	productRepo          repository.ProductRepository
	userRepo             repository.UserRepository
	queueClient          *queue.Client
	paymentExpireMinutes int
}

// NewOrderService 创建订单服务
func NewOrderService(
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	queueClient *queue.Client,
	paymentExpireMinutes int,
) *OrderService {
	if paymentExpireMinutes <= 0 {
		paymentExpireMinutes = 15
	}
	return &OrderService{
		orderRepo:            orderRepo,
		cartRepo:             cartRepo,
		productRepo:          productRepo,
		userRepo:             userRepo,
		queueClient:          queueClient,
		paymentExpireMinutes: paymentExpireMinutes,
	}
}

// CreateOrderItemInput 下单商品行输入
type CreateOrderItemInput struct {
	ProductID uint
	Quantity  int
}

// CreateOrderInput 下单输入
type CreateOrderInput struct {
	UserID uint
	Items  []CreateOrderItemInput
	Note   string
	// FromCart 为 true 时忽略 Items，以购物车内容下单并在成功后清空购物车
	FromCart bool
}

// allowedOrderTransitions 订单状态机：仅允许表内迁移
var allowedOrderTransitions = map[string]map[string]bool{
	constants.OrderStatusPendingPayment: {
		constants.OrderStatusPaid:     true,
		constants.OrderStatusCanceled: true,
	},
	constants.OrderStatusPaid: {
		constants.OrderStatusFulfilling: true,
		constants.OrderStatusRefunded:   true,
	},
	constants.OrderStatusFulfilling: {
		constants.OrderStatusCompleted: true,
		constants.OrderStatusRefunded:  true,
	},
}

// CanTransitionOrderStatus 校验订单状态迁移是否合法
func CanTransitionOrderStatus(from, to string) bool {
	targets, ok := allowedOrderTransitions[from]
	if !ok {
		return false
	}
	return targets[to]
}

// mergeOrderItems 合并同一商品的重复行（数量相加，保持首次出现顺序）
func mergeOrderItems(items []CreateOrderItemInput) []CreateOrderItemInput {
	merged := make([]CreateOrderItemInput, 0, len(items))
	index := make(map[uint]int, len(items))
	for _, item := range items {
		if pos, ok := index[item.ProductID]; ok {
			merged[pos].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(merged)
		merged = append(merged, item)
	}
	return merged
}

// generateOrderNo 生成订单号：前缀 + 时间戳 + 随机数
func generateOrderNo() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	suffix := int64(0)
	if err == nil {
		suffix = n.Int64()
	}
	return fmt.Sprintf("%s%s%06d", constants.OrderNoPrefix, time.Now().Format("20060102150405"), suffix)
}

// Create 创建订单：校验商品、合并重复行、快照价格、预占库存、清空购物车。
// 拣货单创建与超时取消通过队列异步触发，失败不阻塞下单。
func (s *OrderService) Create(input CreateOrderInput) (*models.Order, error) {
	if input.UserID == 0 {
		return nil, ErrInvalidInput
	}

	items := input.Items
	if input.FromCart {
		cartItems, err := s.cartRepo.ListByUser(input.UserID)
		if err != nil {
			return nil, err
		}
		items = items[:0]
		for _, ci := range cartItems {
			items = append(items, CreateOrderItemInput{ProductID: ci.ProductID, Quantity: ci.Quantity})
		}
	}
	if len(items) == 0 {
		return nil, ErrCartEmpty
	}
	for _, item := range items {
		if item.ProductID == 0 || item.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}
	}
	items = mergeOrderItems(items)

	ids := make([]uint, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.productRepo.ListByIDs(ids)
	if err != nil {
		return nil, err
	}
	productByID := make(map[uint]*models.Product, len(products))
	for i := range products {
		productByID[products[i].ID] = &products[i]
	}

	var contactEmail string
	if user, err := s.userRepo.GetByID(input.UserID); err == nil && user != nil {
		contactEmail = user.Email
	}

	now := time.Now()
	currency := constants.DefaultCurrency
	subtotal := decimal.Zero
	itemCount := 0
	orderItems := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		product, ok := productByID[item.ProductID]
		if !ok || !product.IsActive {
			return nil, ErrProductNotAvailable
		}
		if product.StockQuantity < item.Quantity {
			return nil, ErrProductOutOfStock
		}
		unitPrice := product.EffectivePrice()
		linePrice := lineSubtotal(unitPrice, item.Quantity)
		subtotal = subtotal.Add(linePrice.Decimal)
		itemCount += item.Quantity
		currency = product.Currency

		vendorName := ""
		if product.Vendor != nil {
			vendorName = product.Vendor.Name
		}
		orderItems = append(orderItems, models.OrderItem{
			ProductID:   product.ID,
			VendorID:    product.VendorID,
			ProductName: product.Name,
			VendorName:  vendorName,
			Unit:        product.Unit,
			Quantity:    item.Quantity,
			UnitPrice:   unitPrice,
			TotalPrice:  linePrice,
			CreatedAt:   now,
		})
	}

	order := &models.Order{
		OrderNo:        generateOrderNo(),
		UserID:         input.UserID,
		Status:         constants.OrderStatusPendingPayment,
		Currency:       currency,
		SubtotalAmount: models.NewMoneyFromDecimal(subtotal),
		TotalAmount:    models.NewMoneyFromDecimal(subtotal),
		ItemCount:      itemCount,
		ContactEmail:   contactEmail,
		Note:           input.Note,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		productRepo := s.productRepo.WithTx(tx)
		for _, item := range items {
			affected, err := productRepo.ReserveStock(item.ProductID, item.Quantity)
			if err != nil {
				return err
			}
			if affected == 0 {
				return ErrProductOutOfStock
			}
		}
		if err := s.orderRepo.WithTx(tx).Create(order, orderItems); err != nil {
			return err
		}
		if input.FromCart {
			if err := s.cartRepo.WithTx(tx).ClearByUser(input.UserID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if err == ErrProductOutOfStock {
			return nil, err
		}
		logger.Errorw("order_create_failed", "user_id", input.UserID, "error", err)
		return nil, ErrOrderCreateFailed
	}
	order.Items = orderItems

	// 下单即建拣货单 + 超时取消，均为尽力而为的异步副作用
	if s.queueClient != nil {
		if err := s.queueClient.EnqueueFulfillmentCreate(queue.FulfillmentCreatePayload{OrderID: order.ID}); err != nil {
			logger.Warnw("order_enqueue_fulfillment_create_failed", "order_id", order.ID, "error", err)
		}
		delay := time.Duration(s.paymentExpireMinutes) * time.Minute
		if err := s.queueClient.EnqueueOrderTimeoutCancel(queue.OrderTimeoutCancelPayload{OrderID: order.ID}, delay); err != nil {
			logger.Warnw("order_enqueue_timeout_cancel_failed", "order_id", order.ID, "error", err)
		}
	}
	return order, nil
}

// GetByIDAndUser 获取用户订单详情
func (s *OrderService) GetByIDAndUser(id, userID uint) (*models.Order, error) {
	if id == 0 || userID == 0 {
		return nil, ErrInvalidInput
	}
	order, err := s.orderRepo.GetByIDAndUser(id, userID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetByOrderNoAndUser 获取用户订单详情（按订单号）
func (s *OrderService) GetByOrderNoAndUser(orderNo string, userID uint) (*models.Order, error) {
	if orderNo == "" || userID == 0 {
		return nil, ErrInvalidInput
	}
	order, err := s.orderRepo.GetByOrderNoAndUser(orderNo, userID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListByUser 用户订单列表
func (s *OrderService) ListByUser(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	if filter.UserID == 0 {
		return nil, 0, ErrInvalidInput
	}
	return s.orderRepo.ListByUser(filter)
}

// ListAdmin 管理端订单列表
func (s *OrderService) ListAdmin(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.ListAdmin(filter)
}

// GetByID 管理端订单详情
func (s *OrderService) GetByID(id uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// TransitionStatus 按状态机迁移订单状态，并异步发送状态通知邮件。
func (s *OrderService) TransitionStatus(orderID uint, toStatus string) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return ErrOrderFetchFailed
	}
	if order == nil {
		return ErrOrderNotFound
	}
	if !CanTransitionOrderStatus(order.Status, toStatus) {
		return ErrOrderStatusInvalid
	}

	now := time.Now()
	updates := map[string]interface{}{"updated_at": now}
	switch toStatus {
	case constants.OrderStatusPaid:
		updates["paid_at"] = now
	case constants.OrderStatusCanceled:
		updates["canceled_at"] = now
	case constants.OrderStatusCompleted:
		updates["completed_at"] = now
	}

	affected, err := s.orderRepo.UpdateStatusIfCurrent(orderID, order.Status, toStatus, updates)
	if err != nil {
		return ErrOrderUpdateFailed
	}
	if affected == 0 {
		// 并发下状态已被他人变更
		return ErrOrderStatusInvalid
	}

	if toStatus == constants.OrderStatusCanceled || toStatus == constants.OrderStatusRefunded {
		s.releaseOrderStock(order)
	}

	s.notifyStatus(orderID, toStatus)
	return nil
}

// CancelByUser 买家取消自己的待支付订单
func (s *OrderService) CancelByUser(orderID, userID uint) error {
	if orderID == 0 || userID == 0 {
		return ErrInvalidInput
	}
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return ErrOrderFetchFailed
	}
	if order == nil {
		return ErrOrderNotFound
	}
	if order.Status != constants.OrderStatusPendingPayment {
		return ErrOrderStatusInvalid
	}

	now := time.Now()
	affected, err := s.orderRepo.UpdateStatusIfCurrent(orderID, constants.OrderStatusPendingPayment, constants.OrderStatusCanceled, map[string]interface{}{
		"canceled_at": now,
		"updated_at":  now,
	})
	if err != nil {
		return ErrOrderUpdateFailed
	}
	if affected == 0 {
		return ErrOrderStatusInvalid
	}
	s.releaseOrderStock(order)
	s.notifyStatus(orderID, constants.OrderStatusCanceled)
	return nil
}

// CancelExpired 取消超时未支付订单（由延迟队列任务触发，幂等）
func (s *OrderService) CancelExpired(orderID uint) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return ErrOrderFetchFailed
	}
	if order == nil || order.Status != constants.OrderStatusPendingPayment {
		return nil
	}
	now := time.Now()
	affected, err := s.orderRepo.UpdateStatusIfCurrent(orderID, constants.OrderStatusPendingPayment, constants.OrderStatusCanceled, map[string]interface{}{
		"canceled_at": now,
		"updated_at":  now,
	})
	if err != nil {
		return ErrOrderUpdateFailed
	}
	if affected == 0 {
		return nil
	}
	s.releaseOrderStock(order)
	s.notifyStatus(orderID, constants.OrderStatusCanceled)
	return nil
}

// releaseOrderStock 取消/退款后回补库存（尽力而为，失败仅记日志）
func (s *OrderService) releaseOrderStock(order *models.Order) {
	for _, item := range order.Items {
		if _, err := s.productRepo.ReleaseStock(item.ProductID, item.Quantity); err != nil {
			logger.Warnw("order_release_stock_failed",
				"order_id", order.ID,
				"product_id", item.ProductID,
				"quantity", item.Quantity,
				"error", err,
			)
		}
	}
}

func (s *OrderService) notifyStatus(orderID uint, status string) {
	if s.queueClient == nil {
		return
	}
	if err := s.queueClient.EnqueueOrderStatusEmail(queue.OrderStatusEmailPayload{
		OrderID: orderID,
		Status:  status,
	}); err != nil {
		logger.Warnw("order_enqueue_status_email_failed",
			"order_id", orderID,
			"status", status,
			"error", err,
		)
	}
}

// ResolveReceiverEmail 解析订单状态通知收件邮箱
func (s *OrderService) ResolveReceiverEmail(orderID uint) (string, string, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil || order == nil {
		return "", "", err
	}
	if order.ContactEmail != "" {
		return order.ContactEmail, localeForUser(s.userRepo, order.UserID), nil
	}
	user, err := s.userRepo.GetByID(order.UserID)
	if err != nil || user == nil {
		return "", "", err
	}
	return user.Email, user.Locale, nil
}

func localeForUser(userRepo repository.UserRepository, userID uint) string {
	if user, err := userRepo.GetByID(userID); err == nil && user != nil {
		return user.Locale
	}
	return ""
}

// ParseOrderID 解析路径参数中的订单 ID
func ParseOrderID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidInput
	}
	return uint(id), nil
}
