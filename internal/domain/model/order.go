package model

import "time"

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusInProgress OrderStatus = "in_progress"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// deliveredとcancelledは終端。そこからの遷移は無い。
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// キャンセルできるのはpending / in_progressのみ。
func (s OrderStatus) Cancellable() bool {
	return s == OrderStatusPending || s == OrderStatusInProgress
}

type Order struct {
	ID              int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	BuyerID         int64       `gorm:"column:buyer_id;not null;index" json:"buyer_id"`
	DeliveryAddress string      `gorm:"type:varchar(500);not null" json:"delivery_address"`
	Status          OrderStatus `gorm:"type:varchar(20);not null;index;default:'pending'" json:"status"`
	PlacedAt        time.Time   `gorm:"column:placed_at;not null;autoCreateTime" json:"placed_at"`
	UpdatedAt       time.Time   `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
