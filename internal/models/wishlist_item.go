package models

import (
	"time"

	"gorm.io/gorm"
)

// WishlistItem 心愿单项（支持到货提醒订阅）
type WishlistItem struct {
	ID            uint           `gorm:"primarykey" json:"id"`                                             // 主键
	UserID        uint           `gorm:"not null;uniqueIndex:idx_wishlist_user_product" json:"user_id"`    // 用户ID
	ProductID     uint           `gorm:"not null;uniqueIndex:idx_wishlist_user_product" json:"product_id"` // 商品ID
	NotifyRestock bool           `gorm:"not null" json:"notify_restock"`                                   // 是否订阅到货提醒（创建路径显式赋值）
	NotifiedAt    *time.Time     `json:"notified_at"`                                                      // 上次提醒时间
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`                                          // 创建时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                                                   // 软删除时间

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"` // 关联商品
}

// TableName 指定表名
func (WishlistItem) TableName() string {
	return "wishlist_items"
}
