package models

import (
	"time"

	"gorm.io/gorm"
)

// Invoice 发票表（支付成功后开具，开具后不可修改）
type Invoice struct {
	ID             uint           `gorm:"primarykey" json:"id"`                           // 主键
	InvoiceNo      string         `gorm:"uniqueIndex;not null" json:"invoice_no"`         // 发票号
	OrderID        uint           `gorm:"not null;uniqueIndex" json:"order_id"`           // 关联订单（一单一票）
	OrderNo        string         `gorm:"not null;index" json:"order_no"`                 // 订单号快照
	UserID         uint           `gorm:"not null;index" json:"user_id"`                  // 用户ID
	Status         string         `gorm:"not null;default:'issued';index" json:"status"`  // 发票状态
	Currency       string         `gorm:"type:varchar(10);default:'USD'" json:"currency"` // 币种
	SubtotalAmount Money          `gorm:"type:decimal(20,2);not null" json:"subtotal"`    // 小计
	TotalAmount    Money          `gorm:"type:decimal(20,2);not null" json:"total"`       // 总额
	LinesJSON      JSON           `gorm:"type:json" json:"lines"`                         // 行项目快照
	IssuedAt       time.Time      `gorm:"index" json:"issued_at"`                         // 开具时间
	VoidedAt       *time.Time     `json:"voided_at"`                                      // 作废时间
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                        // 创建时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                 // 软删除时间
}

// TableName 指定表名
func (Invoice) TableName() string {
	return "invoices"
}
