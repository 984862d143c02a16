package services

import (
	"context"

	"stockservice/internal/domain"
)

// StockStore is the persistence contract StockService forwards to.
// repos.StockRepo satisfies it.
type StockStore interface {
	FindAll(ctx context.Context) ([]domain.Stock, error)
	FindByID(ctx context.Context, id string) (domain.Stock, error)
	Save(ctx context.Context, s *domain.Stock) error
	DeleteByID(ctx context.Context, id string) error
}

type StockService struct {
	Store StockStore
}

func NewStockService(store StockStore) *StockService {
	return &StockService{Store: store}
}

func (s *StockService) ListStocks(ctx context.Context) ([]domain.Stock, error) {
	return s.Store.FindAll(ctx)
}

func (s *StockService) GetStock(ctx context.Context, id string) (domain.Stock, error) {
	return s.Store.FindByID(ctx, id)
}

func (s *StockService) SaveStock(ctx context.Context, st *domain.Stock) error {
	return s.Store.Save(ctx, st)
}

func (s *StockService) DeleteStock(ctx context.Context, id string) error {
	return s.Store.DeleteByID(ctx, id)
}
