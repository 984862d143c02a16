package handlers

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/gofiber/fiber/v2"

	"stockservice/internal/services"
)

type PageHandler struct {
	Stocks *services.StockService
}

type stockCard struct {
	ID     string
	Image  template.URL
	Price  float64
	Detail string
}

// GET /
func (h *PageHandler) Home(c *fiber.Ctx) error {
	stocks, err := h.Stocks.ListStocks(c.UserContext())
	if err != nil {
		return fmt.Errorf("list stocks: %w", err)
	}
	cards := make([]stockCard, 0, len(stocks))
	for _, s := range stocks {
		// data: URIs are built here from a parsed media type and base64 text only
		cards = append(cards, stockCard{ID: s.ID, Image: template.URL(s.DataURI()), Price: s.Price, Detail: s.Detail})
	}
	return render(c, "stocks", fiber.Map{"Stocks": cards, "Count": len(cards)})
}

// NotFound is the catch-all route. API paths get an empty 404, pages get the notfound view.
func NotFound(c *fiber.Ctx) error {
	if strings.HasPrefix(c.Path(), stockBasePath) {
		return notFound(c)
	}
	return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Page not found"})
}
