package admin

import (
	handlershared "github.com/mercato-next/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 包内别名，省去每个 handler 文件重复引入 shared 包

func requestLog(c *gin.Context) *zap.SugaredLogger { return handlershared.RequestLog(c) }

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

func respondErrorWithMsg(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondErrorWithMsg(c, code, msg, err)
}
