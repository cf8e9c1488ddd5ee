package repository

import (
	"context"

	"marketplace/internal/domain/model"
)

// 管理者一覧用。購入者の表示名をJOINで付ける。
type AdminOrder struct {
	model.Order
	BuyerName string `json:"buyer_name"`
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	//placed_atの新しい順
	ListByBuyerID(ctx context.Context, buyerID int64) ([]model.Order, error)
	Create(ctx context.Context, order model.Order) (int64, error)
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error

	// statusがpending/in_progressのときだけcancelledに更新する。
	// 同時キャンセルでも在庫戻しが二重にならないように条件付きUPDATEにする。
	CancelIfCancellable(ctx context.Context, orderID int64) (bool, error)

	//管理者用の注文一覧（全件、新しい順、buyer名つき）
	ListAdmin(ctx context.Context) ([]AdminOrder, error)
}
