package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"stockservice/internal/domain"
	"stockservice/internal/log"
	"stockservice/internal/repos"
	"stockservice/internal/services"
	"stockservice/internal/validate"
)

const stockBasePath = "/api/stock"

type StockHandler struct {
	Stocks *services.StockService
}

// GET /api/stock
func (h *StockHandler) List(c *fiber.Ctx) error {
	stocks, err := h.Stocks.ListStocks(c.UserContext())
	if err != nil {
		return fmt.Errorf("list stocks: %w", err)
	}
	out := make([]domain.StockView, 0, len(stocks))
	for _, s := range stocks {
		out = append(out, s.View())
	}
	return c.JSON(out)
}

// GET /api/stock/:id
func (h *StockHandler) Get(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "id"})
		return notFound(c)
	}
	s, err := h.Stocks.GetStock(c.UserContext(), id)
	if errors.Is(err, repos.ErrNotFound) {
		return notFound(c)
	}
	if err != nil {
		return fmt.Errorf("get stock %s: %w", id, err)
	}
	return c.JSON(s.View())
}

// POST /api/stock
func (h *StockHandler) Create(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return badRequest(c, "form", "multipart form data expected")
	}
	file := formFile(form, "file")
	if file == nil {
		return badRequest(c, "file", "required parameter 'file' is missing")
	}
	price, detail, err := stockForm(form).Parse()
	if err != nil {
		return badRequest(c, "form", err.Error())
	}
	s := domain.Stock{Price: price, Detail: detail}
	if err := readImage(c, file, &s); err != nil {
		return err
	}

	if err := h.Stocks.SaveStock(c.UserContext(), &s); err != nil {
		return fmt.Errorf("save stock: %w", err)
	}
	log.Audit(c, "stock.create", map[string]any{"stock_id": s.ID, "bytes": len(s.Image), "content_type": s.ContentType})
	c.Location(stockBasePath + "/" + s.ID)
	return c.SendString("Stock added successfully")
}

// PUT /api/stock/:id
func (h *StockHandler) Update(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return badRequest(c, "form", "multipart form data expected")
	}
	price, detail, err := stockForm(form).Parse()
	if err != nil {
		return badRequest(c, "form", err.Error())
	}

	id, ok := validate.ID(c.Params("id"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "id"})
		return notFound(c)
	}
	s, err := h.Stocks.GetStock(c.UserContext(), id)
	if errors.Is(err, repos.ErrNotFound) {
		return notFound(c)
	}
	if err != nil {
		return fmt.Errorf("get stock %s: %w", id, err)
	}

	// An absent or empty file keeps the stored image.
	imageReplaced := false
	if file := formFile(form, "file"); file != nil && file.Size > 0 {
		if err := readImage(c, file, &s); err != nil {
			return err
		}
		imageReplaced = true
	}
	s.Price = price
	s.Detail = detail

	if err := h.Stocks.SaveStock(c.UserContext(), &s); err != nil {
		return fmt.Errorf("save stock %s: %w", id, err)
	}
	log.Audit(c, "stock.update", map[string]any{"stock_id": s.ID, "image_replaced": imageReplaced})
	return c.SendString("Stock updated successfully")
}

// DELETE /api/stock/:id
func (h *StockHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.Stocks.DeleteStock(c.UserContext(), id); err != nil {
		return fmt.Errorf("delete stock %s: %w", id, err)
	}
	log.Audit(c, "stock.delete", map[string]any{"stock_id": id})
	return c.Status(fiber.StatusNoContent).Send(nil)
}

func notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).Send(nil)
}

// badRequest logs the rejection and returns a 400 that the app error handler
// writes out as plain text.
func badRequest(c *fiber.Ctx, field, msg string) error {
	log.Security(c, "validation.fail", map[string]any{"field": field, "reason": msg})
	return fiber.NewError(fiber.StatusBadRequest, msg)
}

func stockForm(form *multipart.Form) validate.StockForm {
	var f validate.StockForm
	if v := form.Value["price"]; len(v) > 0 {
		f.Price = v[0]
	}
	if v := form.Value["detail"]; len(v) > 0 {
		f.Detail = &v[0]
	}
	return f
}

func formFile(form *multipart.Form, key string) *multipart.FileHeader {
	if files := form.File[key]; len(files) > 0 {
		return files[0]
	}
	return nil
}

// readImage validates the uploaded part and copies its bytes and media type into s.
func readImage(c *fiber.Ctx, file *multipart.FileHeader, s *domain.Stock) error {
	ct := file.Header.Get(fiber.HeaderContentType)
	if msg, ok := validate.Image(ct, file.Size); !ok {
		return badRequest(c, "file", msg)
	}
	f, err := file.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	b, err := io.ReadAll(io.LimitReader(f, validate.MaxImageBytes+1))
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}
	s.Image = b
	s.ContentType = validate.MediaType(ct)
	return nil
}
