package service

import (
	"errors"
	"math"
	"time"

	"github.com/mercato-next/internal/constants"
	"github.com/mercato-next/internal/logger"
	"github.com/mercato-next/internal/models"
	"github.com/mercato-next/internal/queue"
	"github.com/mercato-next/internal/repository"

	"gorm.io/gorm"
)

// FulfillmentService 拣货单服务
type FulfillmentService struct {
	orderRepo       repository.OrderRepository
	fulfillmentRepo repository.FulfillmentRepository
	userRepo        repository.UserRepository
	adminRepo       repository.AdminRepository
	queueClient     *queue.Client
}

// NewFulfillmentService 创建拣货单服务
func NewFulfillmentService(
	orderRepo repository.OrderRepository,
	fulfillmentRepo repository.FulfillmentRepository,
	userRepo repository.UserRepository,
	adminRepo repository.AdminRepository,
	queueClient *queue.Client,
) *FulfillmentService {
	return &FulfillmentService{
		orderRepo:       orderRepo,
		fulfillmentRepo: fulfillmentRepo,
		userRepo:        userRepo,
		adminRepo:       adminRepo,
		queueClient:     queueClient,
	}
}

// fulfillmentItemStatuses 明细状态闭集
var fulfillmentItemStatuses = map[string]bool{
	constants.FulfillmentItemStatusPending:    true,
	constants.FulfillmentItemStatusAdded:      true,
	constants.FulfillmentItemStatusOutOfStock: true,
	constants.FulfillmentItemStatusPartial:    true,
}

// FulfillmentTotals 汇总下单/已拣件数（全量重算，不做增量维护）
func FulfillmentTotals(items []models.FulfillmentItem) (ordered, fulfilled int) {
	for _, item := range items {
		ordered += item.QuantityOrdered
		fulfilled += item.QuantityFulfilled
	}
	return ordered, fulfilled
}

// FulfillmentProgress 拣货进度百分比：round(100 × 已拣 / 下单)，下单为 0 时返回 0
func FulfillmentProgress(items []models.FulfillmentItem) int {
	ordered, fulfilled := FulfillmentTotals(items)
	if ordered == 0 {
		return 0
	}
	return int(math.Round(100 * float64(fulfilled) / float64(ordered)))
}

// IsFullyFulfilled 所有明细均已拣齐且数量匹配
func IsFullyFulfilled(items []models.FulfillmentItem) bool {
	if len(items) == 0 {
		return false
	}
	for _, item := range items {
		if item.Status != constants.FulfillmentItemStatusAdded {
			return false
		}
		if item.QuantityFulfilled != item.QuantityOrdered {
			return false
		}
	}
	return true
}

// FulfillmentDetail 拣货单详情（进度在读取时重算）
type FulfillmentDetail struct {
	models.OrderFulfillment
	ProgressPercent int `json:"progress_percent"`
}

func buildFulfillmentDetail(f *models.OrderFulfillment) *FulfillmentDetail {
	return &FulfillmentDetail{
		OrderFulfillment: *f,
		ProgressPercent:  FulfillmentProgress(f.Items),
	}
}

// CreateForOrder 为订单创建拣货单：快照订单号、客户与商品行，一单一张。
// 由下单后的异步任务触发，也可由后台手动补建。
func (s *FulfillmentService) CreateForOrder(orderID uint) (*models.OrderFulfillment, error) {
	if orderID == 0 {
		return nil, ErrFulfillmentInvalid
	}
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if len(order.Items) == 0 {
		return nil, ErrFulfillmentInvalid
	}

	customerName := ""
	if user, err := s.userRepo.GetByID(order.UserID); err == nil && user != nil {
		customerName = user.DisplayName
		if customerName == "" {
			customerName = user.Email
		}
	}

	now := time.Now()
	ordered := 0
	items := make([]models.FulfillmentItem, 0, len(order.Items))
	for _, oi := range order.Items {
		ordered += oi.Quantity
		items = append(items, models.FulfillmentItem{
			OrderItemID:     oi.ID,
			ProductID:       oi.ProductID,
			ProductName:     oi.ProductName,
			VendorName:      oi.VendorName,
			Unit:            oi.Unit,
			QuantityOrdered: oi.Quantity,
			Status:          constants.FulfillmentItemStatusPending,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}

	fulfillment := &models.OrderFulfillment{
		OrderID:           orderID,
		OrderNo:           order.OrderNo,
		CustomerID:        order.UserID,
		CustomerName:      customerName,
		Status:            constants.FulfillmentStatusPending,
		TotalItemsOrdered: ordered,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		var existing models.OrderFulfillment
		if err := tx.Where("order_id = ?", orderID).First(&existing).Error; err == nil {
			return ErrFulfillmentExists
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return s.fulfillmentRepo.WithTx(tx).Create(fulfillment, items)
	})
	if err != nil {
		if errors.Is(err, ErrFulfillmentExists) {
			return nil, ErrFulfillmentExists
		}
		logger.Errorw("fulfillment_create_failed", "order_id", orderID, "error", err)
		return nil, ErrFulfillmentCreateFailed
	}
	fulfillment.Items = items
	return fulfillment, nil
}

// Get 获取拣货单详情
func (s *FulfillmentService) Get(id uint) (*FulfillmentDetail, error) {
	fulfillment, err := s.fulfillmentRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if fulfillment == nil {
		return nil, ErrFulfillmentNotFound
	}
	return buildFulfillmentDetail(fulfillment), nil
}

// GetByOrderID 按订单获取拣货单详情
func (s *FulfillmentService) GetByOrderID(orderID uint) (*FulfillmentDetail, error) {
	fulfillment, err := s.fulfillmentRepo.GetByOrderID(orderID)
	if err != nil {
		return nil, err
	}
	if fulfillment == nil {
		return nil, ErrFulfillmentNotFound
	}
	return buildFulfillmentDetail(fulfillment), nil
}

// List 拣货单列表
func (s *FulfillmentService) List(filter repository.FulfillmentListFilter) ([]FulfillmentDetail, int64, error) {
	fulfillments, total, err := s.fulfillmentRepo.List(filter)
	if err != nil {
		return nil, 0, err
	}
	details := make([]FulfillmentDetail, 0, len(fulfillments))
	for i := range fulfillments {
		details = append(details, *buildFulfillmentDetail(&fulfillments[i]))
	}
	return details, total, nil
}

// Start 开始拣货：pending → in_progress，记录操作员工与时间
func (s *FulfillmentService) Start(id, adminID uint) error {
	if id == 0 || adminID == 0 {
		return ErrFulfillmentInvalid
	}
	now := time.Now()
	affected, err := s.fulfillmentRepo.UpdateStatusIfCurrent(id,
		[]string{constants.FulfillmentStatusPending},
		constants.FulfillmentStatusInProgress,
		map[string]interface{}{
			"started_by": adminID,
			"started_at": now,
			"updated_at": now,
		})
	if err != nil {
		return err
	}
	if affected == 0 {
		return s.statusErrorFor(id)
	}

	// 拣货开始后订单进入配货中（尽力而为）
	s.syncOrderStatus(id, constants.OrderStatusFulfilling)
	return nil
}

// Complete 完成拣货：要求所有明细已拣齐且数量匹配，in_progress → completed
func (s *FulfillmentService) Complete(id, adminID uint) error {
	if id == 0 || adminID == 0 {
		return ErrFulfillmentInvalid
	}
	fulfillment, err := s.fulfillmentRepo.GetByID(id)
	if err != nil {
		return err
	}
	if fulfillment == nil {
		return ErrFulfillmentNotFound
	}
	if fulfillment.Status != constants.FulfillmentStatusInProgress {
		return ErrFulfillmentStatusInvalid
	}
	if !IsFullyFulfilled(fulfillment.Items) {
		return ErrFulfillmentStatusInvalid
	}

	now := time.Now()
	affected, err := s.fulfillmentRepo.UpdateStatusIfCurrent(id,
		[]string{constants.FulfillmentStatusInProgress},
		constants.FulfillmentStatusCompleted,
		map[string]interface{}{
			"completed_by": adminID,
			"completed_at": now,
			"updated_at":   now,
		})
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrFulfillmentStatusInvalid
	}

	s.syncOrderStatus(id, constants.OrderStatusCompleted)
	return nil
}

// Cancel 取消拣货单：非终态 → cancelled（终态），通常随订单取消触发
func (s *FulfillmentService) Cancel(id, adminID uint, note string) error {
	if id == 0 {
		return ErrFulfillmentInvalid
	}
	now := time.Now()
	updates := map[string]interface{}{
		"cancelled_at": now,
		"updated_at":   now,
	}
	if adminID != 0 {
		updates["cancelled_by"] = adminID
	}
	if note != "" {
		updates["notes"] = note
	}
	affected, err := s.fulfillmentRepo.UpdateStatusIfCurrent(id,
		[]string{constants.FulfillmentStatusPending, constants.FulfillmentStatusInProgress},
		constants.FulfillmentStatusCancelled,
		updates)
	if err != nil {
		return err
	}
	if affected == 0 {
		return s.statusErrorFor(id)
	}
	return nil
}

// CancelByOrderID 随订单取消拣货单（幂等，无拣货单时为空操作）
func (s *FulfillmentService) CancelByOrderID(orderID uint, note string) error {
	fulfillment, err := s.fulfillmentRepo.GetByOrderID(orderID)
	if err != nil {
		return err
	}
	if fulfillment == nil {
		return nil
	}
	err = s.Cancel(fulfillment.ID, 0, note)
	if errors.Is(err, ErrFulfillmentStatusInvalid) {
		return nil
	}
	return err
}

// UpdateItemStatusInput 更新拣货明细输入
type UpdateItemStatusInput struct {
	FulfillmentID     uint
	ItemID            uint
	Status            string
	QuantityFulfilled int
	Note              string
	AdminID           uint
	AdminName         string
}

// UpdateItemStatus 更新拣货明细状态并全量重算已拣件数。
// 对 pending 拣货单的首次操作会自动转入 in_progress。
func (s *FulfillmentService) UpdateItemStatus(input UpdateItemStatusInput) (*FulfillmentDetail, error) {
	if input.FulfillmentID == 0 || input.ItemID == 0 {
		return nil, ErrFulfillmentInvalid
	}
	if !fulfillmentItemStatuses[input.Status] {
		return nil, ErrFulfillmentInvalid
	}

	fulfillment, err := s.fulfillmentRepo.GetByID(input.FulfillmentID)
	if err != nil {
		return nil, err
	}
	if fulfillment == nil {
		return nil, ErrFulfillmentNotFound
	}
	if fulfillment.Status == constants.FulfillmentStatusCompleted ||
		fulfillment.Status == constants.FulfillmentStatusCancelled {
		return nil, ErrFulfillmentStatusInvalid
	}

	item, err := s.fulfillmentRepo.GetItem(input.FulfillmentID, input.ItemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrFulfillmentItemNotFound
	}

	quantity := input.QuantityFulfilled
	if quantity > item.QuantityOrdered {
		return nil, ErrFulfillmentQuantityExceeded
	}
	switch input.Status {
	case constants.FulfillmentItemStatusAdded:
		if quantity == 0 {
			quantity = item.QuantityOrdered
		}
		if quantity != item.QuantityOrdered {
			return nil, ErrFulfillmentInvalid
		}
	case constants.FulfillmentItemStatusOutOfStock:
		quantity = 0
	case constants.FulfillmentItemStatusPartial:
		if quantity <= 0 || quantity >= item.QuantityOrdered {
			return nil, ErrFulfillmentInvalid
		}
	case constants.FulfillmentItemStatusPending:
		quantity = 0
	}

	// 首次处理明细时自动开始拣货
	if fulfillment.Status == constants.FulfillmentStatusPending {
		if err := s.Start(input.FulfillmentID, input.AdminID); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	item.Status = input.Status
	item.QuantityFulfilled = quantity
	item.Note = input.Note
	item.ProcessedAt = &now
	if input.AdminID != 0 {
		adminID := input.AdminID
		item.ProcessedBy = &adminID
		item.ProcessedByName = input.AdminName
	}
	item.UpdatedAt = now

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.fulfillmentRepo.WithTx(tx)
		if err := repo.UpdateItem(item); err != nil {
			return err
		}
		// 全量重算，避免增量维护在并发下漂移
		fresh, err := repo.GetByID(input.FulfillmentID)
		if err != nil {
			return err
		}
		if fresh == nil {
			return ErrFulfillmentNotFound
		}
		_, fulfilled := FulfillmentTotals(fresh.Items)
		return repo.UpdateTotals(input.FulfillmentID, fulfilled)
	})
	if err != nil {
		return nil, err
	}

	return s.Get(input.FulfillmentID)
}

// statusErrorFor 条件更新未命中时区分不存在与状态非法
func (s *FulfillmentService) statusErrorFor(id uint) error {
	fulfillment, err := s.fulfillmentRepo.GetByID(id)
	if err != nil {
		return err
	}
	if fulfillment == nil {
		return ErrFulfillmentNotFound
	}
	return ErrFulfillmentStatusInvalid
}

// syncOrderStatus 拣货进度驱动订单状态（尽力而为，失败仅记日志）
func (s *FulfillmentService) syncOrderStatus(fulfillmentID uint, targetStatus string) {
	fulfillment, err := s.fulfillmentRepo.GetByID(fulfillmentID)
	if err != nil || fulfillment == nil {
		return
	}
	order, err := s.orderRepo.GetByID(fulfillment.OrderID)
	if err != nil || order == nil {
		return
	}
	if !CanTransitionOrderStatus(order.Status, targetStatus) {
		return
	}
	now := time.Now()
	updates := map[string]interface{}{"updated_at": now}
	if targetStatus == constants.OrderStatusCompleted {
		updates["completed_at"] = now
	}
	if _, err := s.orderRepo.UpdateStatusIfCurrent(order.ID, order.Status, targetStatus, updates); err != nil {
		logger.Warnw("fulfillment_sync_order_status_failed",
			"fulfillment_id", fulfillmentID,
			"order_id", order.ID,
			"target_status", targetStatus,
			"error", err,
		)
		return
	}
	if s.queueClient != nil {
		if err := s.queueClient.EnqueueOrderStatusEmail(queue.OrderStatusEmailPayload{
			OrderID: order.ID,
			Status:  targetStatus,
		}); err != nil {
			logger.Warnw("fulfillment_enqueue_status_email_failed",
				"order_id", order.ID,
				"status", targetStatus,
				"error", err,
			)
		}
	}
}
