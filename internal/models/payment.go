package models

import (
	"time"

	"gorm.io/gorm"
)

// Payment 支付记录表
type Payment struct {
	ID              uint           `gorm:"primarykey" json:"id"`                           // 主键
	PaymentNo       string         `gorm:"uniqueIndex;not null" json:"payment_no"`         // 支付单号
	OrderID         uint           `gorm:"not null;index" json:"order_id"`                 // 关联订单
	ChannelID       uint           `gorm:"not null;index" json:"channel_id"`               // 支付渠道
	Provider        string         `gorm:"type:varchar(50);not null" json:"provider"`      // 支付服务商
	Status          string         `gorm:"not null;index" json:"status"`                   // 支付状态
	Amount          Money          `gorm:"type:decimal(20,2);not null" json:"amount"`      // 支付金额
	Currency        string         `gorm:"type:varchar(10);default:'USD'" json:"currency"` // 币种
	ExternalTradeNo string         `gorm:"index" json:"external_trade_no"`                 // 外部交易号（checkout session / intent）
	PayURL          string         `gorm:"type:varchar(1000)" json:"pay_url"`              // 收银台跳转地址
	FailReason      string         `gorm:"type:varchar(500)" json:"fail_reason"`           // 失败原因
	SucceededAt     *time.Time     `json:"succeeded_at"`                                   // 成功时间
	ExpiredAt       *time.Time     `json:"expired_at"`                                     // 过期时间
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                        // 创建时间
	UpdatedAt       time.Time      `gorm:"index" json:"updated_at"`                        // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                 // 软删除时间
}

// TableName 指定表名
func (Payment) TableName() string {
	return "payments"
}
