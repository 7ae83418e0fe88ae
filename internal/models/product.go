package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 商品表
type Product struct {
	ID              uint           `gorm:"primarykey" json:"id"`                                 // 主键
	Slug            string         `gorm:"uniqueIndex;not null" json:"slug"`                     // 唯一标识
	Name            string         `gorm:"not null;index" json:"name"`                           // 商品名称
	Description     string         `gorm:"type:text" json:"description"`                         // 商品描述
	VendorID        uint           `gorm:"not null;index" json:"vendor_id"`                      // 所属商户
	CategoryID      uint           `gorm:"index" json:"category_id"`                             // 所属分类
	Unit            string         `gorm:"type:varchar(20);default:'each'" json:"unit"`          // 计价单位
	Currency        string         `gorm:"type:varchar(10);default:'USD'" json:"currency"`       // 币种
	PriceAmount     Money          `gorm:"type:decimal(20,2);not null" json:"price"`             // 原价
	SalePriceAmount *Money         `gorm:"type:decimal(20,2)" json:"sale_price,omitempty"`       // 促销价（为空表示无促销）
	StockQuantity   int            `gorm:"not null;default:0" json:"stock_quantity"`             // 库存数量
	Images          StringArray    `gorm:"type:json" json:"images"`                              // 商品图片
	Tags            StringArray    `gorm:"type:json" json:"tags"`                                // 标签
	SortOrder       int            `gorm:"default:0;index" json:"sort_order"`                    // 排序权重
	IsActive        bool           `gorm:"not null;index" json:"is_active"`                      // 是否上架（创建路径显式赋值，不能依赖列默认值）
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                              // 创建时间
	UpdatedAt       time.Time      `gorm:"index" json:"updated_at"`                              // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                       // 软删除时间

	Vendor   *Vendor   `gorm:"foreignKey:VendorID" json:"vendor,omitempty"`     // 关联商户
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"` // 关联分类
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}

// EffectivePrice 实际售价（有促销价时取促销价）
func (p *Product) EffectivePrice() Money {
	if p.SalePriceAmount != nil {
		return *p.SalePriceAmount
	}
	return p.PriceAmount
}

// InStock 是否有库存
func (p *Product) InStock() bool {
	return p.StockQuantity > 0
}
