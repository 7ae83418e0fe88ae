package repository

import (
	"github.com/mercato-next/internal/models"

	"gorm.io/gorm"
)

// CategoryRepository 品类数据访问接口
type CategoryRepository interface {
	List() ([]models.Category, error)
	GetByID(id string) (*models.Category, error)
	Create(category *models.Category) error
	Update(category *models.Category) error
	Delete(id string) error
	CountBySlug(slug string, excludeID *string) (int64, error)
	CountProducts(categoryID string) (int64, error)
}

// GormCategoryRepository CategoryRepository 的 GORM 实现
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository 创建分类仓库
func NewCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// List 分类列表，置顶值越大越靠前
func (r *GormCategoryRepository) List() ([]models.Category, error) {
	var categories []models.Category
	err := r.db.Order("sort_order DESC, id ASC").Find(&categories).Error
	return categories, err
}

// GetByID 根据 ID 获取分类，未找到返回 nil
func (r *GormCategoryRepository) GetByID(id string) (*models.Category, error) {
	var category models.Category
	found, err := fetchFirst(r.db, &category, id)
	if !found || err != nil {
		return nil, err
	}
	return &category, nil
}

// Create 新增分类
func (r *GormCategoryRepository) Create(category *models.Category) error {
	return r.db.Create(category).Error
}

// Update 保存分类全部字段
func (r *GormCategoryRepository) Update(category *models.Category) error {
	return r.db.Save(category).Error
}

// Delete 软删除分类
func (r *GormCategoryRepository) Delete(id string) error {
	return r.db.Delete(&models.Category{}, id).Error
}

// CountBySlug 统计 slug 冲突数
func (r *GormCategoryRepository) CountBySlug(slug string, excludeID *string) (int64, error) {
	return countSlugConflicts(r.db, &models.Category{}, slug, excludeID)
}

// CountProducts 统计某分类下商品数，用于删除前校验
func (r *GormCategoryRepository) CountProducts(categoryID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Product{}).Where("category_id = ?", categoryID).Count(&count).Error
	return count, err
}
