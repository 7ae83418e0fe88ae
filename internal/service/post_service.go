package service

import (
	"strings"
	"time"

	"github.com/mercato-next/internal/constants"
	"github.com/mercato-next/internal/models"
	"github.com/mercato-next/internal/repository"
)

// allowedPostTypes 文章类型闭集
var allowedPostTypes = map[string]bool{
	constants.PostTypeBlog:   true,
	constants.PostTypeNotice: true,
	constants.PostTypeRecipe: true,
}

// PostService 内容文章服务
type PostService struct {
	postRepo repository.PostRepository
}

// NewPostService 创建文章服务
func NewPostService(postRepo repository.PostRepository) *PostService {
	return &PostService{postRepo: postRepo}
}

// List 文章列表
func (s *PostService) List(filter repository.PostListFilter) ([]models.Post, int64, error) {
	if filter.Type != "" && !allowedPostTypes[filter.Type] {
		return nil, 0, ErrInvalidPostType
	}
	return s.postRepo.List(filter)
}

// GetBySlug 按 slug 获取文章
func (s *PostService) GetBySlug(slug string, onlyPublished bool) (*models.Post, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, ErrInvalidInput
	}
	post, err := s.postRepo.GetBySlug(slug, onlyPublished)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrNotFound
	}
	return post, nil
}

// GetByID 按 ID 获取文章
func (s *PostService) GetByID(id string) (*models.Post, error) {
	post, err := s.postRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrNotFound
	}
	return post, nil
}

// SavePostInput 文章创建/更新输入
type SavePostInput struct {
	Slug        string
	Type        string
	Title       string
	Summary     string
	Content     string
	Thumbnail   string
	IsPublished bool
}

func (s *PostService) validateSaveInput(input *SavePostInput, excludeID *string) error {
	input.Slug = strings.TrimSpace(input.Slug)
	input.Title = strings.TrimSpace(input.Title)
	if input.Slug == "" || input.Title == "" {
		return ErrInvalidInput
	}
	if !allowedPostTypes[input.Type] {
		return ErrInvalidPostType
	}
	count, err := s.postRepo.CountBySlug(input.Slug, excludeID)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrSlugExists
	}
	return nil
}

// Create 创建文章
func (s *PostService) Create(input SavePostInput) (*models.Post, error) {
	if err := s.validateSaveInput(&input, nil); err != nil {
		return nil, err
	}
	post := &models.Post{
		Slug:        input.Slug,
		Type:        input.Type,
		Title:       input.Title,
		Summary:     input.Summary,
		Content:     input.Content,
		Thumbnail:   input.Thumbnail,
		IsPublished: input.IsPublished,
	}
	if input.IsPublished {
		now := time.Now()
		post.PublishedAt = &now
	}
	if err := s.postRepo.Create(post); err != nil {
		return nil, err
	}
	return post, nil
}

// Update 更新文章。首次发布时记录发布时间。
func (s *PostService) Update(id string, input SavePostInput) (*models.Post, error) {
	post, err := s.postRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrNotFound
	}
	if err := s.validateSaveInput(&input, &id); err != nil {
		return nil, err
	}
	post.Slug = input.Slug
	post.Type = input.Type
	post.Title = input.Title
	post.Summary = input.Summary
	post.Content = input.Content
	post.Thumbnail = input.Thumbnail
	if input.IsPublished && !post.IsPublished && post.PublishedAt == nil {
		now := time.Now()
		post.PublishedAt = &now
	}
	post.IsPublished = input.IsPublished
	if err := s.postRepo.Update(post); err != nil {
		return nil, err
	}
	return post, nil
}

// Delete 删除文章（软删除）
func (s *PostService) Delete(id string) error {
	post, err := s.postRepo.GetByID(id)
	if err != nil {
		return err
	}
	if post == nil {
		return ErrNotFound
	}
	return s.postRepo.Delete(id)
}
