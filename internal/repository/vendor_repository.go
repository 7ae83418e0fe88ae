package repository

import (
	"errors"
	"strings"

	"github.com/mercato-next/internal/models"

	"gorm.io/gorm"
)

// VendorRepository 商户数据访问接口
type VendorRepository interface {
	List(filter VendorListFilter) ([]models.Vendor, int64, error)
	GetBySlug(slug string, onlyActive bool) (*models.Vendor, error)
	GetByID(id string) (*models.Vendor, error)
	Create(vendor *models.Vendor) error
	Update(vendor *models.Vendor) error
	Delete(id string) error
	CountBySlug(slug string, excludeID *string) (int64, error)
	CountProducts(vendorID string) (int64, error)
}

// GormVendorRepository GORM 实现
type GormVendorRepository struct {
	db *gorm.DB
}

// NewVendorRepository 创建商户仓库
func NewVendorRepository(db *gorm.DB) *GormVendorRepository {
	return &GormVendorRepository{db: db}
}

// List 商户列表
func (r *GormVendorRepository) List(filter VendorListFilter) ([]models.Vendor, int64, error) {
	var vendors []models.Vendor
	query := r.db.Model(&models.Vendor{})

	if filter.OnlyActive {
		query = query.Where("status = ?", "active")
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + search + "%"
		query = query.Where("slug LIKE ? OR name LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	if err := query.Order("sort_order DESC, id ASC").Find(&vendors).Error; err != nil {
		return nil, 0, err
	}
	return vendors, total, nil
}

// GetBySlug 根据 slug 获取商户
func (r *GormVendorRepository) GetBySlug(slug string, onlyActive bool) (*models.Vendor, error) {
	query := r.db.Where("slug = ?", slug)
	if onlyActive {
		query = query.Where("status = ?", "active")
	}
	var vendor models.Vendor
	if err := query.First(&vendor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &vendor, nil
}

// GetByID 根据 ID 获取商户
func (r *GormVendorRepository) GetByID(id string) (*models.Vendor, error) {
	var vendor models.Vendor
	if err := r.db.First(&vendor, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &vendor, nil
}

// Create 创建商户
func (r *GormVendorRepository) Create(vendor *models.Vendor) error {
	return r.db.Create(vendor).Error
}

// Update 更新商户
func (r *GormVendorRepository) Update(vendor *models.Vendor) error {
	return r.db.Save(vendor).Error
}

// Delete 删除商户
func (r *GormVendorRepository) Delete(id string) error {
	return r.db.Delete(&models.Vendor{}, id).Error
}

// CountBySlug 统计 slug 数量
func (r *GormVendorRepository) CountBySlug(slug string, excludeID *string) (int64, error) {
	var count int64
	query := r.db.Model(&models.Vendor{}).Where("slug = ?", slug)
	if excludeID != nil {
		query = query.Where("id != ?", *excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountProducts 统计商户在售商品数
func (r *GormVendorRepository) CountProducts(vendorID string) (int64, error) {
	var count int64
	if err := r.db.Model(&models.Product{}).Where("vendor_id = ?", vendorID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
