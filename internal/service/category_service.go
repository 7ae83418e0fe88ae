package service

import (
	"strings"

	"github.com/mercato-next/internal/models"
	"github.com/mercato-next/internal/repository"
)

// CategoryService 分类服务
type CategoryService struct {
	categoryRepo repository.CategoryRepository
}

// NewCategoryService 创建分类服务
func NewCategoryService(categoryRepo repository.CategoryRepository) *CategoryService {
	return &CategoryService{categoryRepo: categoryRepo}
}

// List 分类列表（按排序权重）
func (s *CategoryService) List() ([]models.Category, error) {
	return s.categoryRepo.List()
}

// GetByID 按 ID 获取分类
func (s *CategoryService) GetByID(id string) (*models.Category, error) {
	category, err := s.categoryRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrNotFound
	}
	return category, nil
}

// SaveCategoryInput 分类创建/更新输入
type SaveCategoryInput struct {
	Slug        string
	Name        string
	Description string
	Icon        string
	SortOrder   int
}

func (s *CategoryService) validateSaveInput(input *SaveCategoryInput, excludeID *string) error {
	input.Slug = strings.TrimSpace(input.Slug)
	input.Name = strings.TrimSpace(input.Name)
	if input.Slug == "" || input.Name == "" {
		return ErrInvalidInput
	}
	count, err := s.categoryRepo.CountBySlug(input.Slug, excludeID)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrSlugExists
	}
	return nil
}

// Create 创建分类
func (s *CategoryService) Create(input SaveCategoryInput) (*models.Category, error) {
	if err := s.validateSaveInput(&input, nil); err != nil {
		return nil, err
	}
	category := &models.Category{
		Slug:        input.Slug,
		Name:        input.Name,
		Description: input.Description,
		Icon:        input.Icon,
		SortOrder:   input.SortOrder,
	}
	if err := s.categoryRepo.Create(category); err != nil {
		return nil, err
	}
	return category, nil
}

// Update 更新分类
func (s *CategoryService) Update(id string, input SaveCategoryInput) (*models.Category, error) {
	category, err := s.categoryRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrNotFound
	}
	if err := s.validateSaveInput(&input, &id); err != nil {
		return nil, err
	}
	category.Slug = input.Slug
	category.Name = input.Name
	category.Description = input.Description
	category.Icon = input.Icon
	category.SortOrder = input.SortOrder
	if err := s.categoryRepo.Update(category); err != nil {
		return nil, err
	}
	return category, nil
}

// Delete 删除分类。仍有商品挂在分类下时拒绝删除。
func (s *CategoryService) Delete(id string) error {
	category, err := s.categoryRepo.GetByID(id)
	if err != nil {
		return err
	}
	if category == nil {
		return ErrNotFound
	}
	count, err := s.categoryRepo.CountProducts(id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrInvalidInput
	}
	return s.categoryRepo.Delete(id)
}
