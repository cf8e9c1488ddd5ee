package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
)

type AdminOrderUsecase struct {
	tx         repo.TransactionManager
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
}

func NewAdminOrderUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	orderItems repo.OrderItemRepository,
) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx, orders: orders, orderItems: orderItems}
}

type AdminOrderOutput struct {
	OrderOutput
	BuyerID   int64  `json:"buyer_id"`
	BuyerName string `json:"buyer_name"`
}

type AdminUpdateStatusInput struct {
	Status string
}

// 全注文一覧（buyer名つき、新しい順）
func (u *AdminOrderUsecase) List(ctx context.Context) ([]AdminOrderOutput, error) {
	orders, err := u.orders.ListAdmin(ctx)
	if err != nil {
		return []AdminOrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	outs := make([]AdminOrderOutput, 0, len(orders))
	for _, o := range orders {
		items, err := u.orderItems.ListDetailByOrderID(ctx, o.ID)
		if err != nil {
			return []AdminOrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		outs = append(outs, AdminOrderOutput{
			OrderOutput: toOrderOutput(o.Order, items),
			BuyerID:     o.BuyerID,
			BuyerName:   o.BuyerName,
		})
	}
	return outs, nil
}

// ステータス更新。このエンドポイントからcancelledにはできない
// （在庫戻しを伴うキャンセルは購入者のcancel経路だけ）。
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, orderID int64, in AdminUpdateStatusInput) error {
	if orderID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	newStatus := model.OrderStatus(strings.TrimSpace(in.Status))
	switch newStatus {
	case model.OrderStatusPending, model.OrderStatusInProgress, model.OrderStatusDelivered:
		// OK
	default:
		return NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		// すでに同じなら何もしない（200）
		if o.Status == newStatus {
			return nil
		}
		// 終端からの遷移は無い
		if o.Status.Terminal() {
			return NewHTTPError(http.StatusBadRequest,
				fmt.Sprintf("cannot change %s order", o.Status))
		}

		if err := r.Orders().UpdateStatus(ctx, orderID, newStatus); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusNotFound, "not found")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		return nil
	})
}
