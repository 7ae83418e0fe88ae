package models

import (
	"time"

	"gorm.io/gorm"
)

// Vendor 本地商户表
type Vendor struct {
	ID          uint           `gorm:"primarykey" json:"id"`                        // 主键
	Slug        string         `gorm:"uniqueIndex;not null" json:"slug"`            // 唯一标识
	Name        string         `gorm:"not null" json:"name"`                        // 商户名称
	Description string         `gorm:"type:text" json:"description"`                // 商户简介
	LogoURL     string         `gorm:"type:varchar(500)" json:"logo_url"`           // 商户 Logo
	Address     string         `gorm:"type:varchar(500)" json:"address"`            // 线下地址
	Phone       string         `gorm:"type:varchar(50)" json:"phone"`               // 联系电话
	Email       string         `gorm:"type:varchar(255)" json:"email"`              // 联系邮箱
	Status      string         `gorm:"default:'active';index" json:"status"`        // 商户状态
	SortOrder   int            `gorm:"default:0;index" json:"sort_order"`           // 排序权重
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                     // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`                     // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                              // 软删除时间
}

// TableName 指定表名
func (Vendor) TableName() string {
	return "vendors"
}
