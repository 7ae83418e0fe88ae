package repository

import (
	"strings"

	"github.com/mercato-next/internal/models"

	"gorm.io/gorm"
)

// PostRepository 文章数据访问接口（公告 / 博客 / 菜谱共用）
type PostRepository interface {
	List(filter PostListFilter) ([]models.Post, int64, error)
	GetBySlug(slug string, onlyPublished bool) (*models.Post, error)
	GetByID(id string) (*models.Post, error)
	Create(post *models.Post) error
	Update(post *models.Post) error
	Delete(id string) error
	CountBySlug(slug string, excludeID *string) (int64, error)
}

// GormPostRepository PostRepository 的 GORM 实现
type GormPostRepository struct {
	db *gorm.DB
}

// NewPostRepository 创建文章仓库
func NewPostRepository(db *gorm.DB) *GormPostRepository {
	return &GormPostRepository{db: db}
}

func (r *GormPostRepository) listQuery(filter PostListFilter) *gorm.DB {
	query := r.db.Model(&models.Post{})
	if filter.OnlyPublished {
		query = query.Where("is_published = ?", true)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + search + "%"
		query = query.Where("slug LIKE ? OR title LIKE ?", like, like)
	}
	return query
}

// List 文章列表，total 为过滤后的总数
func (r *GormPostRepository) List(filter PostListFilter) ([]models.Post, int64, error) {
	query := r.listQuery(filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = "created_at DESC"
	}

	var posts []models.Post
	err := applyPagination(query, filter.Page, filter.PageSize).
		Order(orderBy).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// GetBySlug 根据 slug 获取文章，未找到返回 nil
func (r *GormPostRepository) GetBySlug(slug string, onlyPublished bool) (*models.Post, error) {
	query := r.db.Where("slug = ?", slug)
	if onlyPublished {
		query = query.Where("is_published = ?", true)
	}

	var post models.Post
	found, err := fetchFirst(query, &post)
	if !found || err != nil {
		return nil, err
	}
	return &post, nil
}

// GetByID 根据 ID 获取文章，未找到返回 nil
func (r *GormPostRepository) GetByID(id string) (*models.Post, error) {
	var post models.Post
	found, err := fetchFirst(r.db, &post, id)
	if !found || err != nil {
		return nil, err
	}
	return &post, nil
}

// Create 写入新文章
func (r *GormPostRepository) Create(post *models.Post) error {
	return r.db.Create(post).Error
}

// Update 保存文章全部字段
func (r *GormPostRepository) Update(post *models.Post) error {
	return r.db.Save(post).Error
}

// Delete 软删除文章
func (r *GormPostRepository) Delete(id string) error {
	return r.db.Delete(&models.Post{}, id).Error
}

// CountBySlug 统计 slug 冲突数
func (r *GormPostRepository) CountBySlug(slug string, excludeID *string) (int64, error) {
	return countSlugConflicts(r.db, &models.Post{}, slug, excludeID)
}
