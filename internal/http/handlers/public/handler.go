package public

import "github.com/mercato-next/internal/provider"

// Handler 店面与买家侧 API 入口，直接嵌入依赖容器
type Handler struct {
	*provider.Container
}

// New 创建前台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
