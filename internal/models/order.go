package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表
type Order struct {
	ID             uint           `gorm:"primarykey" json:"id"`                           // 主键
	OrderNo        string         `gorm:"uniqueIndex;not null" json:"order_no"`           // 订单号
	UserID         uint           `gorm:"not null;index" json:"user_id"`                  // 下单用户
	Status         string         `gorm:"not null;index" json:"status"`                   // 订单状态
	Currency       string         `gorm:"type:varchar(10);default:'USD'" json:"currency"` // 币种
	SubtotalAmount Money          `gorm:"type:decimal(20,2);not null" json:"subtotal"`    // 商品小计
	TotalAmount    Money          `gorm:"type:decimal(20,2);not null" json:"total"`       // 应付总额
	ItemCount      int            `gorm:"not null;default:0" json:"item_count"`           // 商品总件数
	ContactEmail   string         `gorm:"type:varchar(255)" json:"contact_email"`         // 联系邮箱快照
	Note           string         `gorm:"type:text" json:"note"`                          // 买家备注
	PaidAt         *time.Time     `json:"paid_at"`                                        // 支付时间
	CanceledAt     *time.Time     `json:"canceled_at"`                                    // 取消时间
	CompletedAt    *time.Time     `json:"completed_at"`                                   // 完成时间
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                        // 创建时间
	UpdatedAt      time.Time      `gorm:"index" json:"updated_at"`                        // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                 // 软删除时间

	Items       []OrderItem       `gorm:"foreignKey:OrderID" json:"items,omitempty"`       // 订单项
	Fulfillment *OrderFulfillment `gorm:"foreignKey:OrderID" json:"fulfillment,omitempty"` // 拣货单
	Invoice     *Invoice          `gorm:"foreignKey:OrderID" json:"invoice,omitempty"`     // 发票
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
