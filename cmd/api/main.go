package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/application/session"
	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/application/stock"
	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/application/transfer"
	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/application/usecase"
	infrapdf "github.com/LeloucheViBritania/apis-stock-control-sub001/internal/infrastructure/pdf"
	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/infrastructure/postgres"
	httpRouter "github.com/LeloucheViBritania/apis-stock-control-sub001/internal/interfaces/http"
	"github.com/LeloucheViBritania/apis-stock-control-sub001/pkg/config"
	"github.com/LeloucheViBritania/apis-stock-control-sub001/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   "info",
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	stockRepo := postgres.NewStockRepository(pool)
	movementRepo := postgres.NewMovementRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	warehouseRepo := postgres.NewWarehouseRepository(pool)
	transferRepo := postgres.NewTransferRepository(pool)
	sessionRepo := postgres.NewSessionRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	reportGenerator := infrapdf.NewMarotoReportGenerator()

	transferUC := transfer.NewUseCase(txRunner, transferRepo, productRepo, warehouseRepo)
	sessionUC := session.NewUseCase(txRunner, sessionRepo, productRepo, warehouseRepo, reportGenerator)
	stockUC := stock.NewUseCase(txRunner, stockRepo, movementRepo, productRepo)
	warehouseUC := usecase.NewWarehouseUseCase(warehouseRepo)
	productUC := usecase.NewProductUseCase(productRepo)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Stock Control API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		TransferUC:  transferUC,
		SessionUC:   sessionUC,
		StockUC:     stockUC,
		WarehouseUC: warehouseUC,
		ProductUC:   productUC,
		JWTSecret:   cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
