package model

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// 決済確定時に1回だけ作成される。
// PaymentSessionIDのuniqueで二重計上（同じsessionの再confirm）を防ぐ。
// UserIDが無い注文はゲスト注文で、GuestIDに生成したuuidが入る。
type Order struct {
	ID               int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID           *int64      `gorm:"index" json:"user_id"`
	GuestID          string      `gorm:"type:varchar(36);index" json:"guest_id,omitempty"`
	PaymentSessionID string      `gorm:"type:varchar(255);not null;uniqueIndex" json:"-"`
	Status           OrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	TotalPrice       int64       `gorm:"not null" json:"total_price"`
	ShippingAddress  string      `gorm:"type:text;not null" json:"shipping_address"`
	CreatedAt        time.Time   `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time   `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
