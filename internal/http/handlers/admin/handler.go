package admin

import "github.com/mercato-next/internal/provider"

// Handler 管理端 API 入口，直接嵌入依赖容器
type Handler struct {
	*provider.Container
}

// New 创建后台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
