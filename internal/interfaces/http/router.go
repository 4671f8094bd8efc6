package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/application/session"
	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/application/stock"
	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/application/transfer"
	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/application/usecase"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	TransferUC  *transfer.UseCase
	SessionUC   *session.UseCase
	StockUC     *stock.UseCase
	WarehouseUC *usecase.WarehouseUseCase
	ProductUC   *usecase.ProductUseCase
	JWTSecret   string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	// Prometheus (público, sin auth)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Transfers (protegido)
	transfers := protected.Group("/transfers")
	transferHandler := NewTransferHandler(deps.TransferUC)
	transfers.Post("/", transferHandler.Create)
	transfers.Get("/", transferHandler.List)
	transfers.Get("/:id", transferHandler.GetByID)
	transfers.Patch("/:id", transferHandler.Update)
	transfers.Post("/:id/ship", transferHandler.Ship)
	transfers.Post("/:id/receive", transferHandler.Receive)
	transfers.Post("/:id/receive-partial", transferHandler.ReceivePartial)
	transfers.Post("/:id/cancel", transferHandler.Cancel)

	// Inventory sessions (protegido)
	sessions := protected.Group("/inventory-sessions")
	sessionHandler := NewSessionHandler(deps.SessionUC)
	sessions.Post("/", sessionHandler.Create)
	sessions.Get("/", sessionHandler.List)
	sessions.Get("/:id", sessionHandler.GetByID)
	sessions.Get("/:id/report", sessionHandler.Report)
	sessions.Post("/:id/count", sessionHandler.Count)
	sessions.Post("/:id/count-barcode", sessionHandler.CountByBarcode)
	sessions.Post("/:id/bulk-count", sessionHandler.BulkCount)
	sessions.Post("/:id/recount", sessionHandler.Recount)
	sessions.Post("/:id/pause", sessionHandler.Pause)
	sessions.Post("/:id/resume", sessionHandler.Resume)
	sessions.Post("/:id/finish", sessionHandler.Finish)
	sessions.Post("/:id/validate", sessionHandler.Validate)
	sessions.Post("/:id/cancel", sessionHandler.Cancel)

	// Stock y movimientos (protegido)
	stockGroup := protected.Group("/stock")
	stockHandler := NewStockHandler(deps.StockUC)
	stockGroup.Post("/adjustments", stockHandler.Adjust)
	stockGroup.Get("/movements", stockHandler.Movements)
	stockGroup.Get("/warehouses/:id", stockHandler.WarehouseStock)
	stockGroup.Get("/products/:id", stockHandler.ProductStock)

	// Warehouses (protegido)
	warehouses := protected.Group("/warehouses")
	warehouseHandler := NewWarehouseHandler(deps.WarehouseUC)
	warehouses.Post("/", warehouseHandler.Create)
	warehouses.Get("/", warehouseHandler.List)
	warehouses.Get("/:id", warehouseHandler.GetByID)
	warehouses.Patch("/:id/active", warehouseHandler.SetActive)

	// Products (protegido)
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Post("/", productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
}
