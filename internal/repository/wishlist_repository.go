package repository

import (
	"errors"

	"github.com/mercato-next/internal/models"

	"gorm.io/gorm"
)

// WishlistRepository 心愿单数据访问接口
type WishlistRepository interface {
	ListByUser(userID uint) ([]models.WishlistItem, error)
	GetByUserAndProduct(userID, productID uint) (*models.WishlistItem, error)
	Create(item *models.WishlistItem) error
	DeleteByUserAndProduct(userID, productID uint) error
	ListSubscribersByProduct(productID uint) ([]models.WishlistItem, error)
	MarkNotified(ids []uint) error
}

// GormWishlistRepository GORM 实现
type GormWishlistRepository struct {
	db *gorm.DB
}

// NewWishlistRepository 创建心愿单仓库
func NewWishlistRepository(db *gorm.DB) *GormWishlistRepository {
	return &GormWishlistRepository{db: db}
}

// ListByUser 获取用户心愿单
func (r *GormWishlistRepository) ListByUser(userID uint) ([]models.WishlistItem, error) {
	var items []models.WishlistItem
	if err := r.db.Preload("Product").Preload("Product.Vendor").
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// GetByUserAndProduct 获取单个心愿单项
func (r *GormWishlistRepository) GetByUserAndProduct(userID, productID uint) (*models.WishlistItem, error) {
	var item models.WishlistItem
	err := r.db.Where("user_id = ? AND product_id = ?", userID, productID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Create 添加心愿单项
func (r *GormWishlistRepository) Create(item *models.WishlistItem) error {
	return r.db.Create(item).Error
}

// DeleteByUserAndProduct 移除心愿单项
func (r *GormWishlistRepository) DeleteByUserAndProduct(userID, productID uint) error {
	return r.db.Where("user_id = ? AND product_id = ?", userID, productID).Delete(&models.WishlistItem{}).Error
}

// ListSubscribersByProduct 获取订阅了某商品到货提醒的心愿单项
func (r *GormWishlistRepository) ListSubscribersByProduct(productID uint) ([]models.WishlistItem, error) {
	var items []models.WishlistItem
	if err := r.db.Where("product_id = ? AND notify_restock = ?", productID, true).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// MarkNotified 记录提醒时间
func (r *GormWishlistRepository) MarkNotified(ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Model(&models.WishlistItem{}).
		Where("id IN ?", ids).
		Update("notified_at", gorm.Expr("CURRENT_TIMESTAMP")).Error
}
