package public

import (
	"errors"
	"strconv"

	handlershared "github.com/mercato-next/internal/http/handlers/shared"
	"github.com/mercato-next/internal/http/response"
	"github.com/mercato-next/internal/repository"
	"github.com/mercato-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ListPosts 文章列表（仅已发布）
func (h *Handler) ListPosts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	posts, total, err := h.PostService.List(repository.PostListFilter{
		Page:          page,
		PageSize:      pageSize,
		Type:          c.Query("type"),
		Search:        c.Query("search"),
		OnlyPublished: true,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidPostType) {
			respondError(c, response.CodeBadRequest, "error.invalid_post_type", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, gin.H{"posts": posts}, buildPagination(page, pageSize, total))
}

// GetPost 文章详情（按 slug，仅已发布）
func (h *Handler) GetPost(c *gin.Context) {
	post, err := h.PostService.GetBySlug(c.Param("slug"), true)
	if err != nil {
		respondError(c, response.CodeNotFound, "error.not_found", nil)
		return
	}
	response.Success(c, post)
}
