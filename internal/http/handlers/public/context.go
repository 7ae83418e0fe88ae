package public

import (
	handlershared "github.com/mercato-next/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

// getUserID 读取鉴权中间件写入的买家 ID
func getUserID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUintWithKeys(c, "user_id", "error.bad_request", "error.internal")
}
