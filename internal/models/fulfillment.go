package models

import (
	"time"

	"gorm.io/gorm"
)

// OrderFulfillment 订单拣货单（一单一张，下单信息快照）
type OrderFulfillment struct {
	ID                  uint           `gorm:"primarykey" json:"id"`                     // 主键
	OrderID             uint           `gorm:"not null;uniqueIndex" json:"order_id"`     // 关联订单（一单一张）
	OrderNo             string         `gorm:"not null;index" json:"order_no"`           // 订单号快照
	CustomerID          uint           `gorm:"not null;index" json:"customer_id"`        // 客户ID快照
	CustomerName        string         `gorm:"type:varchar(255)" json:"customer_name"`   // 客户名称快照
	Status              string         `gorm:"not null;index" json:"status"`             // 拣货单状态
	TotalItemsOrdered   int            `gorm:"not null;default:0" json:"total_items_ordered"`   // 下单总件数
	TotalItemsFulfilled int            `gorm:"not null;default:0" json:"total_items_fulfilled"` // 已拣总件数
	StartedBy           *uint          `json:"started_by"`                               // 开始拣货的员工
	StartedAt           *time.Time     `json:"started_at"`                               // 开始时间
	CompletedBy         *uint          `json:"completed_by"`                             // 完成拣货的员工
	CompletedAt         *time.Time     `json:"completed_at"`                             // 完成时间
	CancelledBy         *uint          `json:"cancelled_by"`                             // 取消操作员工
	CancelledAt         *time.Time     `json:"cancelled_at"`                             // 取消时间
	Notes               string         `gorm:"type:text" json:"notes"`                   // 备注
	CreatedAt           time.Time      `gorm:"index" json:"created_at"`                  // 创建时间
	UpdatedAt           time.Time      `gorm:"index" json:"updated_at"`                  // 更新时间
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`                           // 软删除时间

	Items []FulfillmentItem `gorm:"foreignKey:FulfillmentID" json:"items,omitempty"` // 拣货明细
}

// TableName 指定表名
func (OrderFulfillment) TableName() string {
	return "order_fulfillments"
}

// FulfillmentItem 拣货明细行
type FulfillmentItem struct {
	ID                uint      `gorm:"primarykey" json:"id"`                       // 主键
	FulfillmentID     uint      `gorm:"not null;index" json:"fulfillment_id"`       // 所属拣货单
	OrderItemID       uint      `gorm:"not null;index" json:"order_item_id"`        // 对应订单项
	ProductID         uint      `gorm:"not null;index" json:"product_id"`           // 商品ID快照
	ProductName       string    `gorm:"not null" json:"product_name"`               // 商品名称快照
	VendorName        string    `json:"vendor_name"`                                // 商户名称快照
	Unit              string    `gorm:"type:varchar(20)" json:"unit"`               // 计价单位快照
	QuantityOrdered   int       `gorm:"not null" json:"quantity_ordered"`           // 下单数量
	QuantityFulfilled int       `gorm:"not null;default:0" json:"quantity_fulfilled"` // 已拣数量
	Status            string    `gorm:"not null;default:'pending'" json:"status"`   // 明细状态
	Note              string    `gorm:"type:varchar(500)" json:"note"`              // 行备注（如缺货原因）
	ProcessedBy       *uint     `json:"processed_by"`                               // 处理员工ID
	ProcessedByName   string    `gorm:"type:varchar(255)" json:"processed_by_name"` // 处理员工姓名快照
	ProcessedAt       *time.Time `json:"processed_at"`                              // 处理时间
	CreatedAt         time.Time `gorm:"index" json:"created_at"`                    // 创建时间
	UpdatedAt         time.Time `gorm:"index" json:"updated_at"`                    // 更新时间
}

// TableName 指定表名
func (FulfillmentItem) TableName() string {
	return "fulfillment_items"
}
