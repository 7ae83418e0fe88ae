package repository

import (
	"errors"

	"github.com/mercato-next/internal/models"

	"gorm.io/gorm"
)

// FulfillmentRepository 拣货单数据访问接口
type FulfillmentRepository interface {
	Create(fulfillment *models.OrderFulfillment, items []models.FulfillmentItem) error
	GetByID(id uint) (*models.OrderFulfillment, error)
	GetByOrderID(orderID uint) (*models.OrderFulfillment, error)
	List(filter FulfillmentListFilter) ([]models.OrderFulfillment, int64, error)
	UpdateStatusIfCurrent(id uint, fromStatuses []string, toStatus string, updates map[string]interface{}) (int64, error)
	GetItem(fulfillmentID, itemID uint) (*models.FulfillmentItem, error)
	UpdateItem(item *models.FulfillmentItem) error
	UpdateTotals(id uint, totalFulfilled int) error
	WithTx(tx *gorm.DB) *GormFulfillmentRepository
}

// GormFulfillmentRepository GORM 实现
type GormFulfillmentRepository struct {
	db *gorm.DB
}

// NewFulfillmentRepository 创建拣货单仓库
func NewFulfillmentRepository(db *gorm.DB) *GormFulfillmentRepository {
	return &GormFulfillmentRepository{db: db}
}

// WithTx 绑定事务
func (r *GormFulfillmentRepository) WithTx(tx *gorm.DB) *GormFulfillmentRepository {
	if tx == nil {
		return r
	}
	return &GormFulfillmentRepository{db: tx}
}

// Create 创建拣货单与明细
func (r *GormFulfillmentRepository) Create(fulfillment *models.OrderFulfillment, items []models.FulfillmentItem) error {
	if err := r.db.Create(fulfillment).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].FulfillmentID = fulfillment.ID
	}
	if len(items) > 0 {
		if err := r.db.Create(&items).Error; err != nil {
			return err
		}
	}
	return nil
}

// GetByID 根据 ID 获取拣货单（含明细）
func (r *GormFulfillmentRepository) GetByID(id uint) (*models.OrderFulfillment, error) {
	var fulfillment models.OrderFulfillment
	if err := r.db.Preload("Items").First(&fulfillment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &fulfillment, nil
}

// GetByOrderID 根据订单 ID 获取拣货单
func (r *GormFulfillmentRepository) GetByOrderID(orderID uint) (*models.OrderFulfillment, error) {
	var fulfillment models.OrderFulfillment
	if err := r.db.Preload("Items").Where("order_id = ?", orderID).First(&fulfillment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &fulfillment, nil
}

// List 拣货单列表
func (r *GormFulfillmentRepository) List(filter FulfillmentListFilter) ([]models.OrderFulfillment, int64, error) {
	var fulfillments []models.OrderFulfillment
	query := r.db.Model(&models.OrderFulfillment{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.OrderNo != "" {
		query = query.Where("order_no = ?", filter.OrderNo)
	}
	if filter.CustomerID != 0 {
		query = query.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	if err := query.Preload("Items").Order("id desc").Find(&fulfillments).Error; err != nil {
		return nil, 0, err
	}
	return fulfillments, total, nil
}

// UpdateStatusIfCurrent 仅当当前状态在给定集合内时更新，返回受影响行数。
func (r *GormFulfillmentRepository) UpdateStatusIfCurrent(id uint, fromStatuses []string, toStatus string, updates map[string]interface{}) (int64, error) {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = toStatus
	result := r.db.Model(&models.OrderFulfillment{}).
		Where("id = ? AND status IN ?", id, fromStatuses).
		Updates(updates)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// GetItem 获取拣货明细行
func (r *GormFulfillmentRepository) GetItem(fulfillmentID, itemID uint) (*models.FulfillmentItem, error) {
	var item models.FulfillmentItem
	if err := r.db.Where("id = ? AND fulfillment_id = ?", itemID, fulfillmentID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// UpdateItem 更新拣货明细行
func (r *GormFulfillmentRepository) UpdateItem(item *models.FulfillmentItem) error {
	return r.db.Save(item).Error
}

// UpdateTotals 更新已拣总件数
func (r *GormFulfillmentRepository) UpdateTotals(id uint, totalFulfilled int) error {
	return r.db.Model(&models.OrderFulfillment{}).
		Where("id = ?", id).
		Update("total_items_fulfilled", totalFulfilled).Error
}
