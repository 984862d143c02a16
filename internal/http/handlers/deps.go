package handlers

import (
	"stockservice/internal/repos"
	"stockservice/internal/services"

	"github.com/jmoiron/sqlx"
)

type Deps struct {
	StockHandler  *StockHandler
	PageHandler   *PageHandler
	HealthHandler *HealthHandler
}

func NewDeps(db *sqlx.DB) *Deps {
	stockRepo := repos.NewStockRepo(db)
	stockSvc := services.NewStockService(stockRepo)

	return &Deps{
		StockHandler:  &StockHandler{Stocks: stockSvc},
		PageHandler:   &PageHandler{Stocks: stockSvc},
		HealthHandler: &HealthHandler{DB: db},
	}
}
