package admin

import (
	handlershared "github.com/mercato-next/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

// getAdminID 读取鉴权中间件写入的员工 ID
func getAdminID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUintWithKeys(c, "admin_id", "error.bad_request", "error.internal")
}

// getAdminName 读取员工署名，拣货单操作留痕用
func getAdminName(c *gin.Context) string {
	if value, ok := c.Get("admin_name"); ok {
		if name, ok := value.(string); ok {
			return name
		}
	}
	return ""
}
