package admin

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mercato-next/internal/cache"
	handlershared "github.com/mercato-next/internal/http/handlers/shared"
	"github.com/mercato-next/internal/http/response"
	"github.com/mercato-next/internal/i18n"
	"github.com/mercato-next/internal/models"
	"github.com/mercato-next/internal/service"

	"github.com/gin-gonic/gin"
)

// 内置超管账号不可删除、不可降权
const protectedSuperAdminUsername = "admin"

type authzCreateAdminPayload struct {
	Username    string `json:"username" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"display_name"`
	IsSuper     *bool  `json:"is_super"`
}

type authzUpdateAdminPayload struct {
	Username    *string `json:"username"`
	Password    *string `json:"password"`
	DisplayName *string `json:"display_name"`
	IsSuper     *bool   `json:"is_super"`
}

// loadAdmin 按路径参数加载员工，缺失时已写好错误响应
func (h *Handler) loadAdmin(c *gin.Context) (*models.Admin, bool) {
	adminID, ok := adminIDParam(c)
	if !ok {
		return nil, false
	}
	admin, err := h.AdminRepo.GetByID(adminID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return nil, false
	}
	if admin == nil {
		respondError(c, response.CodeBadRequest, "error.admin_id_invalid", nil)
		return nil, false
	}
	return admin, true
}

// hashValidPassword 校验口令策略并返回哈希，失败时已写好错误响应
func (h *Handler) hashValidPassword(c *gin.Context, password string) (string, bool) {
	password = strings.TrimSpace(password)
	if password == "" {
		respondError(c, response.CodeBadRequest, "error.weak_password", nil)
		return "", false
	}
	if err := h.AuthService.ValidatePassword(password); err != nil {
		if !respondAdminPasswordPolicyError(c, err) {
			respondError(c, response.CodeBadRequest, "error.weak_password", err)
		}
		return "", false
	}
	hash, err := h.AuthService.HashPassword(password)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return "", false
	}
	return hash, true
}

// usernameAvailable 检查员工账号是否可用（excludeID 为更新场景下的自身）
func (h *Handler) usernameAvailable(c *gin.Context, username string, excludeID uint) bool {
	existing, err := h.AdminRepo.GetByUsername(username)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return false
	}
	if existing != nil && existing.ID != excludeID {
		respondError(c, response.CodeBadRequest, "error.admin_username_exists", nil)
		return false
	}
	return true
}

func isProtectedSuperAdmin(username string) bool {
	return strings.EqualFold(strings.TrimSpace(username), protectedSuperAdminUsername)
}

// ListAuthzAdmins 获取员工列表（含角色）
func (h *Handler) ListAuthzAdmins(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	admins, total, err := h.AdminRepo.List(page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	items := make([]gin.H, 0, len(admins))
	for _, admin := range admins {
		roles, roleErr := h.AuthzService.GetAdminRoles(admin.ID)
		if roleErr != nil {
			respondError(c, response.CodeInternal, "error.internal", roleErr)
			return
		}
		items = append(items, gin.H{
			"id":            admin.ID,
			"username":      admin.Username,
			"display_name":  admin.DisplayName,
			"is_super":      admin.IsSuper,
			"last_login_at": admin.LastLoginAt,
			"created_at":    admin.CreatedAt,
			"roles":         roles,
		})
	}

	response.SuccessWithPage(c, gin.H{"admins": items}, response.Pagination{
		Page:     page,
		PageSize: pageSize,
		Total:    total,
	})
}

// CreateAuthzAdmin 创建员工账号
func (h *Handler) CreateAuthzAdmin(c *gin.Context) {
	var req authzCreateAdminPayload
	if !bindJSON(c, &req) {
		return
	}

	username, err := normalizeAdminUsername(req.Username)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.admin_username_invalid", err)
		return
	}
	if !h.usernameAvailable(c, username, 0) {
		return
	}
	hash, ok := h.hashValidPassword(c, req.Password)
	if !ok {
		return
	}

	admin := &models.Admin{
		Username:     username,
		PasswordHash: hash,
		DisplayName:  strings.TrimSpace(req.DisplayName),
		IsSuper:      (req.IsSuper != nil && *req.IsSuper) || isProtectedSuperAdmin(username),
	}
	if err := h.AdminRepo.Create(admin); err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	_ = cache.SetAdminAuthState(c.Request.Context(), cache.BuildAdminAuthState(admin))

	auditLog(c, "admin_authz_admin_created",
		"target_admin_id", admin.ID,
		"target_username", admin.Username,
		"is_super", admin.IsSuper,
	)
	response.Success(c, admin)
}

// UpdateAuthzAdmin 更新员工账号，仅写入实际变化的字段
func (h *Handler) UpdateAuthzAdmin(c *gin.Context) {
	admin, ok := h.loadAdmin(c)
	if !ok {
		return
	}
	var req authzUpdateAdminPayload
	if !bindJSON(c, &req) {
		return
	}

	var updatedFields []string
	touch := func(field string) { updatedFields = append(updatedFields, field) }

	if req.Username != nil {
		username, err := normalizeAdminUsername(*req.Username)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.admin_username_invalid", err)
			return
		}
		if username != admin.Username {
			if !h.usernameAvailable(c, username, admin.ID) {
				return
			}
			admin.Username = username
			touch("username")
		}
	}

	if req.DisplayName != nil {
		if displayName := strings.TrimSpace(*req.DisplayName); displayName != admin.DisplayName {
			admin.DisplayName = displayName
			touch("display_name")
		}
	}

	if req.IsSuper != nil {
		// 内置超管不可降权
		next := *req.IsSuper || isProtectedSuperAdmin(admin.Username)
		if admin.IsSuper != next {
			admin.IsSuper = next
			touch("is_super")
		}
	}

	if req.Password != nil {
		hash, ok := h.hashValidPassword(c, *req.Password)
		if !ok {
			return
		}
		now := time.Now()
		admin.PasswordHash = hash
		admin.TokenVersion++
		admin.TokenInvalidBefore = &now
		touch("password")
	}

	if len(updatedFields) == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	if err := h.AdminRepo.Update(admin); err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	_ = cache.SetAdminAuthState(c.Request.Context(), cache.BuildAdminAuthState(admin))

	sort.Strings(updatedFields)
	if currentAdminID(c) == admin.ID {
		c.Set("admin_is_super", admin.IsSuper)
	}

	auditLog(c, "admin_authz_admin_updated",
		"target_admin_id", admin.ID,
		"target_username", admin.Username,
		"updated_fields", updatedFields,
	)
	response.Success(c, admin)
}

// DeleteAuthzAdmin 删除员工账号。禁止删除自己、内置超管与最后一个账号。
func (h *Handler) DeleteAuthzAdmin(c *gin.Context) {
	admin, ok := h.loadAdmin(c)
	if !ok {
		return
	}
	if currentAdminID(c) == admin.ID {
		respondError(c, response.CodeBadRequest, "error.admin_delete_self_forbidden", nil)
		return
	}
	if isProtectedSuperAdmin(admin.Username) {
		respondError(c, response.CodeBadRequest, "error.admin_delete_protected", nil)
		return
	}

	_, total, err := h.AdminRepo.List(1, 1)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	if total <= 1 {
		respondError(c, response.CodeBadRequest, "error.admin_delete_last_forbidden", nil)
		return
	}

	if err := h.AuthzService.SetAdminRoles(admin.ID, []string{}); err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	if err := h.AdminRepo.Delete(admin.ID); err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	_ = cache.DelAdminAuthState(c.Request.Context(), admin.ID)

	auditLog(c, "admin_authz_admin_deleted",
		"target_admin_id", admin.ID,
		"target_username", admin.Username,
	)
	response.Success(c, nil)
}

func normalizeAdminUsername(username string) (string, error) {
	trimmed := strings.TrimSpace(username)
	switch {
	case trimmed == "":
		return "", fmt.Errorf("username is required")
	case strings.ContainsAny(trimmed, " \t\r\n"):
		return "", fmt.Errorf("username contains whitespace")
	}
	if length := len([]rune(trimmed)); length < 3 || length > 64 {
		return "", fmt.Errorf("username length out of range")
	}
	return trimmed, nil
}

// respondAdminPasswordPolicyError 将口令策略错误翻译为本地化提示
func respondAdminPasswordPolicyError(c *gin.Context, err error) bool {
	if err == nil || !errors.Is(err, service.ErrWeakPassword) {
		return false
	}
	if perr, ok := err.(interface {
		Key() string
		Args() []interface{}
	}); ok {
		msg := i18n.Sprintf(handlershared.RequestLocale(c), perr.Key(), perr.Args()...)
		respondErrorWithMsg(c, response.CodeBadRequest, msg, nil)
		return true
	}
	respondError(c, response.CodeBadRequest, "error.weak_password", nil)
	return true
}
