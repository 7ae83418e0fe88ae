package admin

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/mercato-next/internal/http/response"
	"github.com/mercato-next/internal/logger"

	"github.com/gin-gonic/gin"
)

type roleRequest struct {
	Role string `json:"role" binding:"required"`
}

type rolePolicyRequest struct {
	Role   string `json:"role" binding:"required"`
	Object string `json:"object" binding:"required"`
	Action string `json:"action" binding:"required"`
}

type adminRolesRequest struct {
	Roles []string `json:"roles"`
}

// bindJSON 绑定请求体，失败时统一回 bad_request
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return false
	}
	return true
}

// auditLog 权限变更留痕，自动带上操作者
func auditLog(c *gin.Context, event string, kv ...interface{}) {
	fields := append([]interface{}{"operator_admin_id", currentAdminID(c)}, kv...)
	logger.Infow(event, fields...)
}

// GetAuthzMe 获取当前员工权限快照
func (h *Handler) GetAuthzMe(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}

	roles, err := h.AuthzService.GetAdminRoles(adminID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	policies, err := h.AuthzService.GetAdminPolicies(adminID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	response.Success(c, gin.H{
		"admin_id": adminID,
		"is_super": c.GetBool("admin_is_super"),
		"roles":    roles,
		"policies": policies,
	})
}

// ListAuthzRoles 获取角色列表
func (h *Handler) ListAuthzRoles(c *gin.Context) {
	roles, err := h.AuthzService.ListRoles()
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, roles)
}

// CreateAuthzRole 创建角色
func (h *Handler) CreateAuthzRole(c *gin.Context) {
	var req roleRequest
	if !bindJSON(c, &req) {
		return
	}

	role, err := h.AuthzService.EnsureRole(req.Role)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	auditLog(c, "admin_authz_role_created", "role", role)
	response.Success(c, gin.H{"role": role})
}

// DeleteAuthzRole 删除角色
func (h *Handler) DeleteAuthzRole(c *gin.Context) {
	role := roleParam(c)
	if role == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	if err := h.AuthzService.DeleteRole(role); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	auditLog(c, "admin_authz_role_deleted", "role", role)
	response.Success(c, nil)
}

// GetAuthzRolePolicies 获取角色策略
func (h *Handler) GetAuthzRolePolicies(c *gin.Context) {
	role := roleParam(c)
	if role == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	policies, err := h.AuthzService.GetRolePolicies(role)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	response.Success(c, policies)
}

// mutateRolePolicy 授予 / 撤销共用的请求壳，apply 为具体的策略操作
func (h *Handler) mutateRolePolicy(c *gin.Context, event string, apply func(role, object, action string) error) {
	var req rolePolicyRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := apply(req.Role, req.Object, req.Action); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	auditLog(c, event, "role", req.Role, "object", req.Object, "action", req.Action)
	response.Success(c, nil)
}

// GrantAuthzPolicy 授予角色策略
func (h *Handler) GrantAuthzPolicy(c *gin.Context) {
	h.mutateRolePolicy(c, "admin_authz_policy_granted", h.AuthzService.GrantRolePolicy)
}

// RevokeAuthzPolicy 撤销角色策略
func (h *Handler) RevokeAuthzPolicy(c *gin.Context) {
	h.mutateRolePolicy(c, "admin_authz_policy_revoked", h.AuthzService.RevokeRolePolicy)
}

// GetAuthzAdminRoles 获取员工角色
func (h *Handler) GetAuthzAdminRoles(c *gin.Context) {
	adminID, ok := adminIDParam(c)
	if !ok {
		return
	}
	if _, err := h.AdminRepo.GetByID(adminID); err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	roles, err := h.AuthzService.GetAdminRoles(adminID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, roles)
}

// SetAuthzAdminRoles 设置员工角色（覆盖式）
func (h *Handler) SetAuthzAdminRoles(c *gin.Context) {
	adminID, ok := adminIDParam(c)
	if !ok {
		return
	}
	admin, err := h.AdminRepo.GetByID(adminID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	if admin == nil {
		respondError(c, response.CodeBadRequest, "error.admin_id_invalid", nil)
		return
	}

	var req adminRolesRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.AuthzService.SetAdminRoles(adminID, req.Roles); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	auditLog(c, "admin_authz_admin_roles_updated", "target_admin_id", adminID, "roles", req.Roles)
	response.Success(c, nil)
}

func adminIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.admin_id_invalid", nil)
		return 0, false
	}
	return uint(id), true
}

// roleParam 路由里的角色名可能带 URL 编码（role:xx 中的冒号）
func roleParam(c *gin.Context) string {
	value := c.Param("role")
	if decoded, err := url.QueryUnescape(value); err == nil {
		value = decoded
	}
	return strings.TrimSpace(value)
}

// currentAdminID 取操作者 ID，只进审计字段，拿不到时记 0
func currentAdminID(c *gin.Context) uint {
	var id int64
	switch value := c.Value("admin_id").(type) {
	case uint:
		return value
	case int:
		id = int64(value)
	case float64:
		id = int64(value)
	}
	if id <= 0 {
		return 0
	}
	return uint(id)
}
