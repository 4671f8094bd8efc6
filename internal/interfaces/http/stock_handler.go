package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/application/dto"
	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/application/stock"
	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/domain/entity"
)

// StockHandler maneja consultas de existencias, movimientos y ajustes manuales (protegido).
type StockHandler struct {
	uc *stock.UseCase
}

// NewStockHandler construye el handler.
func NewStockHandler(uc *stock.UseCase) *StockHandler {
	return &StockHandler{uc: uc}
}

// Adjust godoc
// @Summary      Ajuste manual de stock
// @Description  Cantidad firmada: positiva suma, negativa resta. Kind ADJUSTMENT
//	(default) o RETURN (solo positivo). Reason es obligatorio.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustStockRequest  true  "Ajuste"
// @Success      200   {object}  dto.StockEntryResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/adjustments [post]
func (h *StockHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustStockRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Adjust(c.Context(), GetUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	adjustmentsTotal.Inc()
	return c.JSON(out)
}

// WarehouseStock godoc
// @Summary      Existencias de una bodega
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id           path   string  true   "ID de la bodega"
// @Param        category_id  query  string  false  "Filtrar por categoría"
// @Param        zone_prefix  query  string  false  "Filtrar por prefijo de ubicación"
// @Success      200  {array}  dto.StockEntryResponse
// @Router       /api/stock/warehouses/{id} [get]
func (h *StockHandler) WarehouseStock(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return missingID(c)
	}
	filter := entity.StockFilter{
		CategoryID: c.Query("category_id"),
		ZonePrefix: c.Query("zone_prefix"),
	}
	out, err := h.uc.GetWarehouseStock(id, filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ProductStock godoc
// @Summary      Existencias de un producto en todas las bodegas
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {array}  dto.StockEntryResponse
// @Router       /api/stock/products/{id} [get]
func (h *StockHandler) ProductStock(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return missingID(c)
	}
	out, err := h.uc.GetProductStock(id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Movements godoc
// @Summary      Log de movimientos
// @Description  Requiere product_id o warehouse_id. Rango de fechas opcional (RFC 3339).
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id    query  string  false  "Filtrar por producto"
// @Param        warehouse_id  query  string  false  "Filtrar por bodega"
// @Param        from          query  string  false  "Fecha inicial"
// @Param        to            query  string  false  "Fecha final"
// @Param        limit         query  int     false  "Límite"   default(20)
// @Param        offset        query  int     false  "Offset"   default(0)
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock/movements [get]
func (h *StockHandler) Movements(c *fiber.Ctx) error {
	var from, to *time.Time
	if s := c.Query("from"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "from: fecha inválida (RFC 3339)"})
		}
		from = &t
	}
	if s := c.Query("to"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "to: fecha inválida (RFC 3339)"})
		}
		to = &t
	}
	page := dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)}
	page.DefaultPage()
	out, err := h.uc.ListMovements(c.Query("product_id"), c.Query("warehouse_id"), from, to, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
