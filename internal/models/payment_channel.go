package models

import (
	"time"

	"gorm.io/gorm"
)

// PaymentChannel 支付渠道配置表
type PaymentChannel struct {
	ID        uint           `gorm:"primarykey" json:"id"`                           // 主键
	Code      string         `gorm:"uniqueIndex;not null" json:"code"`               // 渠道编码
	Name      string         `gorm:"not null" json:"name"`                           // 渠道名称
	Provider  string         `gorm:"type:varchar(50);not null" json:"provider"`      // 支付服务商
	Type      string         `gorm:"type:varchar(20);default:'redirect'" json:"type"` // 渠道展示类型
	Config    JSON           `gorm:"type:json" json:"-"`                             // 渠道密钥配置（不返回给前端）
	IsEnabled bool           `gorm:"default:false;index" json:"is_enabled"`          // 是否启用
	SortOrder int            `gorm:"default:0;index" json:"sort_order"`              // 排序权重
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                        // 创建时间
	UpdatedAt time.Time      `gorm:"index" json:"updated_at"`                        // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                                 // 软删除时间
}

// TableName 指定表名
func (PaymentChannel) TableName() string {
	return "payment_channels"
}
