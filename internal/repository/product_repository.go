package repository

import (
	"context"
	"errors"

	"danicandles/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// 一覧検索
type ProductListQuery struct {
	Page       int
	Limit      int
	Q          string
	Collection string
	MinPrice   *int64
	MaxPrice   *int64
	Sort       string
}

// カタログは読み取りのみ。
type ProductRepository interface {
	ListPublic(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	FindBySlug(ctx context.Context, slug string) (model.Product, error)
	//注文の価格再検証用。見つからないIDは結果に含まれない
	FindByIDs(ctx context.Context, ids []string) ([]model.Product, error)
}
