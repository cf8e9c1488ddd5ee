package repository

import (
	"context"

	"marketplace/internal/domain/model"
)

// 明細＋商品の表示用フィールド
type OrderItemDetail struct {
	model.OrderItem
	ProductName string `json:"product_name"`
	ImageURL    string `json:"image_url"`
}

type OrderItemRepository interface {
	CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error)
	//商品名・画像をJOINした明細
	ListDetailByOrderID(ctx context.Context, orderID int64) ([]OrderItemDetail, error)
}
