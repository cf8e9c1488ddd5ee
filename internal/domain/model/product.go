package model

import (
	"time"

	"gorm.io/gorm"
)

// 商品。unit_priceは最小通貨単位のint64で持つ。
// stock_quantityはDB側のCHECKでも0未満を禁止する。
type Product struct {
	ID            int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Name          string         `gorm:"type:varchar(255);not null" json:"name"`
	Description   string         `gorm:"type:text" json:"description"`
	UnitPrice     int64          `gorm:"column:unit_price;not null" json:"unit_price"`
	StockQuantity int64          `gorm:"column:stock_quantity;not null" json:"stock_quantity"`
	ImageURL      string         `gorm:"type:varchar(500)" json:"image_url"`
	CreatedAt     time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}
