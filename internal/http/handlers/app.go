package handlers

import (
	"errors"
	"io/fs"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
	"github.com/jmoiron/sqlx"

	"stockservice/internal/config"
	applog "stockservice/internal/log"
	"stockservice/web"
)

const genericErrorMessage = "Something went wrong. Please try again."

// ErrorHandler keeps client errors (status < 500) as they are and hides the
// details of everything else behind a generic 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return c.Status(fe.Code).SendString(fe.Message)
	}
	applog.Error(c, "server.error", err, nil)
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.Status(fiber.StatusInternalServerError).SendString(genericErrorMessage)
}

// NewApp builds the Fiber app with middlewares and every route registered.
func NewApp(db *sqlx.DB, cfg config.Config) (*fiber.App, error) {
	views, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		return nil, err
	}
	engine := html.NewFileSystem(http.FS(views), ".html")

	app := fiber.New(fiber.Config{
		Views:        engine,
		ErrorHandler: ErrorHandler,
		BodyLimit:    cfg.BodyLimit,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	// ---------- Middlewares ----------
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{Output: applog.Writer()}))
	app.Use(helmet.New(helmet.Config{CrossOriginResourcePolicy: "cross-origin"}))
	app.Use(cors.New(cors.Config{AllowOrigins: "*"}))
	if cfg.RateLimit > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        cfg.RateLimit,
			Expiration: time.Minute,
			LimitReached: func(c *fiber.Ctx) error {
				applog.Security(c, "rate.limit.hit", nil)
				return c.Status(fiber.StatusTooManyRequests).SendString("rate limit exceeded, retry soon")
			},
		}))
	}

	deps := NewDeps(db)

	// Pages
	app.Get("/", deps.PageHandler.Home)

	// API
	api := app.Group(stockBasePath)
	api.Get("", deps.StockHandler.List)
	api.Get("/:id", deps.StockHandler.Get)
	api.Post("", deps.StockHandler.Create)
	api.Put("/:id", deps.StockHandler.Update)
	api.Delete("/:id", deps.StockHandler.Delete)

	// Health & 404
	app.Get("/healthz", deps.HealthHandler.Check)
	app.Use(NotFound)

	return app, nil
}
