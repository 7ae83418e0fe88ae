package shared

import (
	"github.com/mercato-next/internal/http/response"
	"github.com/mercato-next/internal/i18n"
	"github.com/mercato-next/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 的日志实例
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if requestID, ok := c.Get("request_id"); ok {
		if id, ok := requestID.(string); ok && id != "" {
			return logger.SW("request_id", id)
		}
	}
	return logger.S()
}

// RequestLocale 解析请求语言，优先取中间件写入的 locale
func RequestLocale(c *gin.Context) string {
	if c == nil {
		return i18n.DefaultLocale
	}
	if value, ok := c.Get("locale"); ok {
		if locale, ok := value.(string); ok && locale != "" {
			return locale
		}
	}
	return i18n.ResolveLocale(c.GetHeader("Accept-Language"))
}

func respondAppError(c *gin.Context, code int, msg string, err error) {
	appErr := response.WrapError(code, msg, err)
	if err != nil {
		RequestLog(c).Errorw("handler_error",
			"code", appErr.Code,
			"message", appErr.Message,
			"error", err,
		)
	}
	response.Error(c, appErr.Code, appErr.Message)
}

// RespondError 按 i18n key 返回本地化错误响应，有原始错误时记录日志
func RespondError(c *gin.Context, code int, key string, err error) {
	respondAppError(c, code, i18n.T(RequestLocale(c), key), err)
}

// RespondErrorWithMsg 返回自定义消息错误响应
func RespondErrorWithMsg(c *gin.Context, code int, msg string, err error) {
	respondAppError(c, code, msg, err)
}
