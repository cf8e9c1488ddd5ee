package model

import "time"

// 注文明細。unit_priceは注文確定時点のスナップショット。
// 作成後は不変。キャンセルでも行は消さない（監査用に残す）。
type OrderItem struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   int64     `gorm:"column:order_id;not null;index" json:"order_id"`
	ProductID int64     `gorm:"column:product_id;not null;index" json:"product_id"`
	Quantity  int64     `gorm:"not null" json:"quantity"`
	UnitPrice int64     `gorm:"column:unit_price;not null" json:"unit_price"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
