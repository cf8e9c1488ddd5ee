package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
)

type OrderUsecase struct {
	tx         repo.TransactionManager
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	orderItems repo.OrderItemRepository,
) *OrderUsecase {
	return &OrderUsecase{tx: tx, orders: orders, orderItems: orderItems}
}

type PlaceOrderItemInput struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

type PlaceOrderInput struct {
	DeliveryAddress string
	Items           []PlaceOrderItemInput
}

type PlaceOrderOutput struct {
	OrderID int64 `json:"order_id"`
}

type OrderItemOutput struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	ImageURL    string `json:"image_url"`
	Quantity    int64  `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
}

type OrderOutput struct {
	ID              int64             `json:"id"`
	DeliveryAddress string            `json:"delivery_address"`
	Status          string            `json:"status"`
	PlacedAt        time.Time         `json:"placed_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	Items           []OrderItemOutput `json:"items"`
}

// 注文確定。在庫チェック→明細insert→在庫減算を1トランザクションで行う。
// どこかで失敗したら注文行も明細も在庫も全部巻き戻る。
func (u *OrderUsecase) PlaceOrder(ctx context.Context, buyerID int64, in PlaceOrderInput) (PlaceOrderOutput, error) {
	if buyerID <= 0 {
		return PlaceOrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if strings.TrimSpace(in.DeliveryAddress) == "" || len(in.Items) == 0 {
		return PlaceOrderOutput{}, NewHTTPError(http.StatusBadRequest, "address and items required")
	}
	for _, it := range in.Items {
		if it.ProductID <= 0 {
			return PlaceOrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
		}
		if it.Quantity < 1 {
			return PlaceOrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
		}
	}

	var out PlaceOrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		now := time.Now()
		orderID, err := r.Orders().Create(ctx, model.Order{
			BuyerID:         buyerID,
			DeliveryAddress: strings.TrimSpace(in.DeliveryAddress),
			Status:          model.OrderStatusPending,
			PlacedAt:        now,
			UpdatedAt:       now,
		})
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		orderItems := make([]model.OrderItem, 0, len(in.Items))

		//入力順に処理する。明細の並びも入力順になる。
		for _, it := range in.Items {
			//FOR UPDATEで商品行をロック。同じ商品への同時注文はここで直列になる。
			p, err := r.Products().FindByIDForUpdate(ctx, it.ProductID)
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusNotFound, "product not found")
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}

			//在庫減算（足りないなら false）
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, it.ProductID, it.Quantity)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !ok {
				return NewHTTPError(http.StatusBadRequest, "insufficient stock")
			}

			//価格はロック中に読んだ値をスナップショット
			orderItems = append(orderItems, model.OrderItem{
				ProductID: it.ProductID,
				Quantity:  it.Quantity,
				UnitPrice: p.UnitPrice,
			})
		}

		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = PlaceOrderOutput{OrderID: orderID}
		return nil
	})

	if err != nil {
		return PlaceOrderOutput{}, err
	}
	return out, nil
}

// 自分の注文一覧。管理者はこのエンドポイントを使えない（管理者一覧を使う）。
func (u *OrderUsecase) ListMyOrders(ctx context.Context, buyerID int64, role model.Role) ([]OrderOutput, error) {
	if buyerID <= 0 {
		return []OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if role == model.RoleAdmin {
		return []OrderOutput{}, NewHTTPError(http.StatusForbidden, "admins cannot use this endpoint")
	}

	orders, err := u.orders.ListByBuyerID(ctx, buyerID)
	if err != nil {
		return []OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	outs := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		items, err := u.orderItems.ListDetailByOrderID(ctx, o.ID)
		if err != nil {
			return []OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		outs = append(outs, toOrderOutput(o, items))
	}
	return outs, nil
}

// 自分の注文1件。他人の注文は「存在しない扱い」にする。
func (u *OrderUsecase) GetMyOrder(ctx context.Context, buyerID int64, orderID int64) (OrderOutput, error) {
	if buyerID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	o, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return OrderOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if o.BuyerID != buyerID {
		return OrderOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	items, err := u.orderItems.ListDetailByOrderID(ctx, orderID)
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return toOrderOutput(o, items), nil
}

// キャンセル。在庫戻しとステータス更新を1トランザクションで行う。
// 明細行は消さない（監査用に残す）。
func (u *OrderUsecase) CancelOrder(ctx context.Context, buyerID int64, orderID int64) (MessageOutput, error) {
	if buyerID <= 0 {
		return MessageOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return MessageOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		//他人の注文は「存在しない扱い」
		if o.BuyerID != buyerID {
			return NewHTTPError(http.StatusNotFound, "not found")
		}

		//条件付きUPDATE。0件なら（今見た後に）terminalへ変わったかもともと不可。
		ok, err := r.Orders().CancelIfCancellable(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if !ok {
			return NewHTTPError(http.StatusBadRequest, "order cannot be cancelled")
		}

		//在庫戻し
		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		for _, it := range items {
			if err := r.Inventory().IncreaseStock(ctx, it.ProductID, it.Quantity); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		return nil
	})

	if err != nil {
		return MessageOutput{}, err
	}
	return MessageOutput{Message: "order cancelled"}, nil
}

func toOrderOutput(o model.Order, items []repo.OrderItemDetail) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			ImageURL:    it.ImageURL,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
		})
	}

	return OrderOutput{
		ID:              o.ID,
		DeliveryAddress: o.DeliveryAddress,
		Status:          string(o.Status),
		PlacedAt:        o.PlacedAt,
		UpdatedAt:       o.UpdatedAt,
		Items:           outItems,
	}
}
