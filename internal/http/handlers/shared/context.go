package shared

import (
	"github.com/mercato-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetContextUintWithKeys 从上下文读取 uint 值并统一处理错误响应。
// 中间件写入的是 uint，int/float64 仅为兜底。
func GetContextUintWithKeys(c *gin.Context, key, invalidKey, typeInvalidKey string) (uint, bool) {
	value, exists := c.Get(key)
	if !exists {
		RespondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		return nonNegativeUint(c, int64(v), invalidKey)
	case float64:
		return nonNegativeUint(c, int64(v), invalidKey)
	}
	RespondError(c, response.CodeInternal, typeInvalidKey, nil)
	return 0, false
}

func nonNegativeUint(c *gin.Context, v int64, invalidKey string) (uint, bool) {
	if v < 0 {
		RespondError(c, response.CodeBadRequest, invalidKey, nil)
		return 0, false
	}
	return uint(v), true
}
