package repository

import (
	"context"
	"errors"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"

	"gorm.io/gorm"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

func (r *OrderGormRepository) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).Where("id = ?", orderID).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Order{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Order{}, err
	}
	return o, nil
}

// 自分の注文一覧（placed_atの新しい順）
func (r *OrderGormRepository) ListByBuyerID(ctx context.Context, buyerID int64) ([]model.Order, error) {
	var items []model.Order
	err := r.db.WithContext(ctx).
		Where("buyer_id = ?", buyerID).
		Order("placed_at desc").
		Order("id desc").
		Find(&items).Error
	if err != nil {
		return []model.Order{}, err
	}
	return items, nil
}

func (r *OrderGormRepository) Create(ctx context.Context, order model.Order) (int64, error) {
	if err := r.db.WithContext(ctx).Create(&order).Error; err != nil {
		return 0, err
	}
	return order.ID, nil
}

func (r *OrderGormRepository) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Update("status", status)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// キャンセル可能なときだけcancelledへ。0件更新はキャンセル不可。
func (r *OrderGormRepository) CancelIfCancellable(ctx context.Context, orderID int64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status IN ?", orderID, []model.OrderStatus{
			model.OrderStatusPending,
			model.OrderStatusInProgress,
		}).
		Update("status", model.OrderStatusCancelled)

	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	return true, nil
}

// 管理者用。全注文＋buyer表示名、新しい順。
func (r *OrderGormRepository) ListAdmin(ctx context.Context) ([]repo.AdminOrder, error) {
	var items []repo.AdminOrder

	err := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Select("orders.*, users.name AS buyer_name").
		Joins("JOIN users ON users.id = orders.buyer_id").
		Order("orders.placed_at desc").
		Order("orders.id desc").
		Find(&items).Error
	if err != nil {
		return []repo.AdminOrder{}, err
	}

	return items, nil
}
