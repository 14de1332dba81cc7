package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表
type Order struct {
	ID              uint           `gorm:"primarykey" json:"id"`                                 // 主键
	OrderNo         string         `gorm:"uniqueIndex;not null" json:"order_no"`                 // 订单编号（TRK 前缀）
	UserID          uint           `gorm:"index;not null" json:"user_id"`                        // 用户ID
	Email           string         `gorm:"index" json:"email"`                                   // 下单邮箱
	Status          string         `gorm:"index;not null" json:"status"`                         // 订单状态
	Currency        string         `gorm:"not null" json:"currency"`                             // 币种
	Amount          Money          `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`  // 订单金额（服务端按快照单价汇总）
	PaymentIntentID *string        `gorm:"uniqueIndex" json:"payment_intent_id,omitempty"`       // 支付意向ID（外部支付引用）
	PaymentError    string         `gorm:"type:varchar(500)" json:"payment_error,omitempty"`     // 最近一次支付失败原因

	// 收货地址快照（下单时固化，后续地址修改不影响订单）
	ShippingStreet     string `gorm:"type:varchar(200)" json:"shipping_street"`
	ShippingCity       string `gorm:"type:varchar(100)" json:"shipping_city"`
	ShippingState      string `gorm:"type:varchar(100)" json:"shipping_state"`
	ShippingPostalCode string `gorm:"type:varchar(20)" json:"shipping_postal_code"`
	ShippingCountry    string `gorm:"type:varchar(100)" json:"shipping_country"`

	ExpiresAt  *time.Time     `gorm:"index" json:"expires_at"`  // 支付过期时间
	PaidAt     *time.Time     `gorm:"index" json:"paid_at"`     // 支付时间
	CanceledAt *time.Time     `gorm:"index" json:"canceled_at"` // 取消时间
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`  // 创建时间
	UpdatedAt  time.Time      `gorm:"index" json:"updated_at"`  // 更新时间
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`           // 软删除时间

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"` // 订单项
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
