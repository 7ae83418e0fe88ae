package models

import "time"

// OrderItem 订单项（下单时的商品快照）
type OrderItem struct {
	ID          uint      `gorm:"primarykey" json:"id"`                        // 主键
	OrderID     uint      `gorm:"not null;index" json:"order_id"`              // 所属订单
	ProductID   uint      `gorm:"not null;index" json:"product_id"`            // 商品ID
	VendorID    uint      `gorm:"not null;index" json:"vendor_id"`             // 商户ID快照
	ProductName string    `gorm:"not null" json:"product_name"`                // 商品名称快照
	VendorName  string    `gorm:"not null" json:"vendor_name"`                 // 商户名称快照
	Unit        string    `gorm:"type:varchar(20)" json:"unit"`                // 计价单位快照
	Quantity    int       `gorm:"not null" json:"quantity"`                    // 购买数量
	UnitPrice   Money     `gorm:"type:decimal(20,2);not null" json:"unit_price"` // 成交单价快照
	TotalPrice  Money     `gorm:"type:decimal(20,2);not null" json:"total_price"` // 行小计
	CreatedAt   time.Time `gorm:"index" json:"created_at"`                     // 创建时间
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}
