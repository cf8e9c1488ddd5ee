package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
)

type ProductUsecase struct {
	products repo.ProductRepository
}

// DI
func NewProductUsecase(products repo.ProductRepository) *ProductUsecase {
	return &ProductUsecase{products: products}
}

type CreateProductInput struct {
	Name          string
	Description   string
	UnitPrice     *int64
	StockQuantity *int64
	ImageURL      string
}

// 部分更新。nilのフィールドは今の値を残す（COALESCE相当）。
type UpdateProductInput struct {
	Name          *string
	Description   *string
	UnitPrice     *int64
	StockQuantity *int64
	ImageURL      *string
}

// 公開一覧（新しい順）
func (u *ProductUsecase) ListPublic(ctx context.Context) ([]model.Product, error) {
	products, err := u.products.ListPublic(ctx)
	if err != nil {
		return []model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return products, nil
}

// 1件取得（管理者専用ルートから呼ばれる）
func (u *ProductUsecase) Get(ctx context.Context, productID int64) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	p, err := u.products.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return p, nil
}

func (u *ProductUsecase) Create(ctx context.Context, in CreateProductInput) (model.Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || in.UnitPrice == nil {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "name and unit price required")
	}
	if *in.UnitPrice < 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "unit price must be >= 0")
	}

	var stock int64
	if in.StockQuantity != nil {
		if *in.StockQuantity < 0 {
			return model.Product{}, NewHTTPError(http.StatusBadRequest, "stock must be >= 0")
		}
		stock = *in.StockQuantity
	}

	p := model.Product{
		Name:          name,
		Description:   in.Description,
		UnitPrice:     *in.UnitPrice,
		StockQuantity: stock,
		ImageURL:      in.ImageURL,
	}

	created, err := u.products.Create(ctx, p)
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return created, nil
}

// 指定されたフィールドだけ置き換える
func (u *ProductUsecase) Update(ctx context.Context, productID int64, in UpdateProductInput) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if in.UnitPrice != nil && *in.UnitPrice < 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "unit price must be >= 0")
	}
	//在庫をマイナスに直接セットさせない
	if in.StockQuantity != nil && *in.StockQuantity < 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "stock must be >= 0")
	}

	p, err := u.products.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return model.Product{}, NewHTTPError(http.StatusBadRequest, "name must not be empty")
		}
		p.Name = name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.UnitPrice != nil {
		p.UnitPrice = *in.UnitPrice
	}
	if in.StockQuantity != nil {
		p.StockQuantity = *in.StockQuantity
	}
	if in.ImageURL != nil {
		p.ImageURL = *in.ImageURL
	}

	if err := u.products.Update(ctx, p); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.Product{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return p, nil
}

func (u *ProductUsecase) Delete(ctx context.Context, productID int64) error {
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	err := u.products.SoftDelete(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}
