package admin

import (
	"time"

	"github.com/mercato-next/internal/cache"
	"github.com/mercato-next/internal/constants"
	"github.com/mercato-next/internal/http/response"
	"github.com/mercato-next/internal/logger"
	"github.com/mercato-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// UpdateUserStatusRequest 买家账号状态变更请求
type UpdateUserStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ListAdminUsers 买家列表
func (h *Handler) ListAdminUsers(c *gin.Context) {
	page, pageSize := parsePageQuery(c)
	users, total, err := h.UserRepo.List(repository.UserListFilter{
		Page:        page,
		PageSize:    pageSize,
		Keyword:     c.Query("keyword"),
		Status:      c.Query("status"),
		CreatedFrom: parseTimeQuery(c, "created_from"),
		CreatedTo:   parseTimeQuery(c, "created_to"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, gin.H{"users": users}, buildPagination(page, pageSize, total))
}

// GetAdminUser 买家详情
func (h *Handler) GetAdminUser(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	user, err := h.UserRepo.GetByID(userID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	if user == nil {
		respondError(c, response.CodeNotFound, "error.not_found", nil)
		return
	}
	response.Success(c, user)
}

// UpdateUserStatus 启用 / 禁用买家账号，禁用时历史 Token 全量失效
func (h *Handler) UpdateUserStatus(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if req.Status != constants.UserStatusActive && req.Status != constants.UserStatusDisabled {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	user, err := h.UserRepo.GetByID(userID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	if user == nil {
		respondError(c, response.CodeNotFound, "error.not_found", nil)
		return
	}

	if user.Status != req.Status {
		user.Status = req.Status
		if req.Status == constants.UserStatusDisabled {
			now := time.Now()
			user.TokenVersion++
			user.TokenInvalidBefore = &now
		}
		if err := h.UserRepo.Update(user); err != nil {
			respondError(c, response.CodeInternal, "error.internal", err)
			return
		}
		_ = cache.SetUserAuthState(c.Request.Context(), cache.BuildUserAuthState(user))
	}

	logger.Infow("admin_user_status_updated",
		"operator_admin_id", currentAdminID(c),
		"target_user_id", userID,
		"status", req.Status,
	)
	response.Success(c, user)
}
