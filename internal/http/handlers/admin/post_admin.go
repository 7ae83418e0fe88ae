package admin

import (
	"errors"

	"github.com/mercato-next/internal/http/response"
	"github.com/mercato-next/internal/repository"
	"github.com/mercato-next/internal/service"

	"github.com/gin-gonic/gin"
)

// SavePostRequest 文章创建 / 更新请求
type SavePostRequest struct {
	Slug        string `json:"slug" binding:"required"`
	Type        string `json:"type" binding:"required"`
	Title       string `json:"title" binding:"required"`
	Summary     string `json:"summary"`
	Content     string `json:"content"`
	Thumbnail   string `json:"thumbnail"`
	IsPublished bool   `json:"is_published"`
}

func (r *SavePostRequest) toInput() service.SavePostInput {
	return service.SavePostInput{
		Slug:        r.Slug,
		Type:        r.Type,
		Title:       r.Title,
		Summary:     r.Summary,
		Content:     r.Content,
		Thumbnail:   r.Thumbnail,
		IsPublished: r.IsPublished,
	}
}

func respondPostError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidPostType):
		respondError(c, response.CodeBadRequest, "error.invalid_post_type", nil)
	case errors.Is(err, service.ErrSlugExists):
		respondError(c, response.CodeBadRequest, "error.slug_exists", nil)
	case errors.Is(err, service.ErrInvalidInput):
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
	case errors.Is(err, service.ErrNotFound):
		respondError(c, response.CodeNotFound, "error.not_found", nil)
	default:
		respondError(c, response.CodeInternal, "error.internal", err)
	}
}

// ListAdminPosts 文章列表（含未发布）
func (h *Handler) ListAdminPosts(c *gin.Context) {
	page, pageSize := parsePageQuery(c)
	posts, total, err := h.PostService.List(repository.PostListFilter{
		Page:     page,
		PageSize: pageSize,
		Type:     c.Query("type"),
		Search:   c.Query("search"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, gin.H{"posts": posts}, buildPagination(page, pageSize, total))
}

// GetAdminPost 文章详情
func (h *Handler) GetAdminPost(c *gin.Context) {
	post, err := h.PostService.GetByID(c.Param("id"))
	if err != nil {
		respondPostError(c, err)
		return
	}
	response.Success(c, post)
}

// CreatePost 创建文章
func (h *Handler) CreatePost(c *gin.Context) {
	var req SavePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	post, err := h.PostService.Create(req.toInput())
	if err != nil {
		respondPostError(c, err)
		return
	}
	response.Success(c, post)
}

// UpdatePost 更新文章
func (h *Handler) UpdatePost(c *gin.Context) {
	var req SavePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	post, err := h.PostService.Update(c.Param("id"), req.toInput())
	if err != nil {
		respondPostError(c, err)
		return
	}
	response.Success(c, post)
}

// DeletePost 删除文章
func (h *Handler) DeletePost(c *gin.Context) {
	if err := h.PostService.Delete(c.Param("id")); err != nil {
		respondPostError(c, err)
		return
	}
	response.Success(c, nil)
}
