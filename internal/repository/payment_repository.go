package repository

import (
	"github.com/mercato-next/internal/models"

	"gorm.io/gorm"
)

// PaymentRepository 支付记录数据访问接口
type PaymentRepository interface {
	Create(payment *models.Payment) error
	GetByID(id uint) (*models.Payment, error)
	GetByPaymentNo(paymentNo string) (*models.Payment, error)
	GetByExternalTradeNo(provider, tradeNo string) (*models.Payment, error)
	ListByOrderID(orderID uint) ([]models.Payment, error)
	List(filter PaymentListFilter) ([]models.Payment, int64, error)
	Update(payment *models.Payment) error
	UpdateStatusIfCurrent(id uint, fromStatus, toStatus string, updates map[string]interface{}) (int64, error)
	WithTx(tx *gorm.DB) *GormPaymentRepository
}

// GormPaymentRepository PaymentRepository 的 GORM 实现
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository 创建支付仓库
func NewPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// WithTx 返回绑定到事务的仓库副本
func (r *GormPaymentRepository) WithTx(tx *gorm.DB) *GormPaymentRepository {
	if tx == nil {
		return r
	}
	return &GormPaymentRepository{db: tx}
}

func (r *GormPaymentRepository) getOne(conds ...interface{}) (*models.Payment, error) {
	var payment models.Payment
	found, err := fetchFirst(r.db, &payment, conds...)
	if !found || err != nil {
		return nil, err
	}
	return &payment, nil
}

// Create 创建支付记录
func (r *GormPaymentRepository) Create(payment *models.Payment) error {
	return r.db.Create(payment).Error
}

// GetByID 根据 ID 获取支付记录，未找到返回 nil
func (r *GormPaymentRepository) GetByID(id uint) (*models.Payment, error) {
	return r.getOne(id)
}

// GetByPaymentNo 根据支付单号获取支付记录
func (r *GormPaymentRepository) GetByPaymentNo(paymentNo string) (*models.Payment, error) {
	return r.getOne("payment_no = ?", paymentNo)
}

// GetByExternalTradeNo 根据外部交易号获取支付记录，回调侧入口
func (r *GormPaymentRepository) GetByExternalTradeNo(provider, tradeNo string) (*models.Payment, error) {
	return r.getOne("provider = ? AND external_trade_no = ?", provider, tradeNo)
}

// ListByOrderID 获取订单下的支付记录，最新在前
func (r *GormPaymentRepository) ListByOrderID(orderID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Where("order_id = ?", orderID).Order("id desc").Find(&payments).Error
	return payments, err
}

func (r *GormPaymentRepository) listQuery(filter PaymentListFilter) *gorm.DB {
	query := r.db.Model(&models.Payment{})
	if filter.OrderID != 0 {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if filter.ChannelID != 0 {
		query = query.Where("channel_id = ?", filter.ChannelID)
	}
	if filter.Provider != "" {
		query = query.Where("provider = ?", filter.Provider)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}
	return query
}

// List 支付记录列表
func (r *GormPaymentRepository) List(filter PaymentListFilter) ([]models.Payment, int64, error) {
	query := r.listQuery(filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var payments []models.Payment
	err := applyPagination(query, filter.Page, filter.PageSize).
		Order("id desc").
		Find(&payments).Error
	if err != nil {
		return nil, 0, err
	}
	return payments, total, nil
}

// Update 更新支付记录
func (r *GormPaymentRepository) Update(payment *models.Payment) error {
	return r.db.Save(payment).Error
}

// UpdateStatusIfCurrent 仅当当前状态匹配时更新，用于回调幂等
func (r *GormPaymentRepository) UpdateStatusIfCurrent(id uint, fromStatus, toStatus string, updates map[string]interface{}) (int64, error) {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = toStatus
	result := r.db.Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(updates)
	return result.RowsAffected, result.Error
}
