package models

import (
	"time"

	"gorm.io/gorm"
)

// Payment 支付记录
type Payment struct {
	ID              uint           `gorm:"primarykey" json:"id"`                            // 主键
	OrderID         uint           `gorm:"index;not null" json:"order_id"`                  // 订单ID
	IntentID        string         `gorm:"index" json:"intent_id"`                          // 支付意向ID（第三方流水号）
	ClientSecret    string         `gorm:"type:varchar(500)" json:"client_secret"`          // 前端确认支付所需的密钥
	IdempotencyKey  string         `gorm:"index;not null" json:"-"`                         // 幂等键（重试复用，防止重复扣款）
	Amount          Money          `gorm:"type:decimal(20,2);not null" json:"amount"`       // 支付金额
	Currency        string         `gorm:"not null" json:"currency"`                        // 币种
	Status          string         `gorm:"index;not null" json:"status"`                    // 支付状态
	ProviderPayload JSON           `gorm:"type:json" json:"provider_payload"`               // 第三方回调数据
	CallbackAt      *time.Time     `gorm:"index" json:"callback_at"`                        // 回调时间
	PaidAt          *time.Time     `gorm:"index" json:"paid_at"`                            // 支付时间
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                         // 创建时间
	UpdatedAt       time.Time      `gorm:"index" json:"updated_at"`                         // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                  // 软删除时间
}

// TableName 指定表名
func (Payment) TableName() string {
	return "payments"
}
