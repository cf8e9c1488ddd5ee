package repository

import "context"

type InventoryRepository interface {
	// 在庫が足りるときだけ減算する。足りなければfalse。
	// stock_quantity >= qty を同じUPDATEで条件にするので負在庫にならない。
	DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error)

	// 在庫戻し（キャンセル）
	IncreaseStock(ctx context.Context, productID int64, qty int64) error
}
