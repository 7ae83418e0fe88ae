package repository

import (
	"errors"

	"github.com/mercato-next/internal/models"

	"gorm.io/gorm"
)

// PaymentChannelRepository 支付渠道数据访问接口
type PaymentChannelRepository interface {
	List(filter PaymentChannelListFilter) ([]models.PaymentChannel, int64, error)
	ListEnabled() ([]models.PaymentChannel, error)
	GetByID(id uint) (*models.PaymentChannel, error)
	GetByCode(code string) (*models.PaymentChannel, error)
	Create(channel *models.PaymentChannel) error
	Update(channel *models.PaymentChannel) error
	Delete(id uint) error
}

// GormPaymentChannelRepository GORM 实现
type GormPaymentChannelRepository struct {
	db *gorm.DB
}

// NewPaymentChannelRepository 创建支付渠道仓库
func NewPaymentChannelRepository(db *gorm.DB) *GormPaymentChannelRepository {
	return &GormPaymentChannelRepository{db: db}
}

// List 渠道列表
func (r *GormPaymentChannelRepository) List(filter PaymentChannelListFilter) ([]models.PaymentChannel, int64, error) {
	var channels []models.PaymentChannel
	query := r.db.Model(&models.PaymentChannel{})

	if filter.Provider != "" {
		query = query.Where("provider = ?", filter.Provider)
	}
	if filter.ActiveOnly {
		query = query.Where("is_enabled = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	if err := query.Order("sort_order DESC, id ASC").Find(&channels).Error; err != nil {
		return nil, 0, err
	}
	return channels, total, nil
}

// ListEnabled 获取启用的渠道
func (r *GormPaymentChannelRepository) ListEnabled() ([]models.PaymentChannel, error) {
	var channels []models.PaymentChannel
	if err := r.db.Where("is_enabled = ?", true).Order("sort_order DESC, id ASC").Find(&channels).Error; err != nil {
		return nil, err
	}
	return channels, nil
}

// GetByID 根据 ID 获取渠道
func (r *GormPaymentChannelRepository) GetByID(id uint) (*models.PaymentChannel, error) {
	var channel models.PaymentChannel
	if err := r.db.First(&channel, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &channel, nil
}

// GetByCode 根据编码获取渠道
func (r *GormPaymentChannelRepository) GetByCode(code string) (*models.PaymentChannel, error) {
	var channel models.PaymentChannel
	if err := r.db.Where("code = ?", code).First(&channel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &channel, nil
}

// Create 创建渠道
func (r *GormPaymentChannelRepository) Create(channel *models.PaymentChannel) error {
	return r.db.Create(channel).Error
}

// Update 更新渠道
func (r *GormPaymentChannelRepository) Update(channel *models.PaymentChannel) error {
	return r.db.Save(channel).Error
}

// Delete 删除渠道
func (r *GormPaymentChannelRepository) Delete(id uint) error {
	return r.db.Delete(&models.PaymentChannel{}, id).Error
}
