package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/application/dto"
	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/application/session"
)

// SessionHandler maneja las peticiones HTTP de sesiones de conteo físico (protegido).
type SessionHandler struct {
	uc *session.UseCase
}

// NewSessionHandler construye el handler.
func NewSessionHandler(uc *session.UseCase) *SessionHandler {
	return &SessionHandler{uc: uc}
}

// Create godoc
// @Summary      Abrir sesión de conteo físico
// @Description  Congela el stock teórico de la bodega (con filtros opcionales) como
//	líneas PENDING. Solo puede existir una sesión activa por bodega.
// @Tags         inventory-sessions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateSessionRequest  true  "Bodega y filtros del snapshot"
// @Success      201   {object}  dto.SessionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory-sessions [post]
func (h *SessionHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateSessionRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Create(c.Context(), GetUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	sessionActionsTotal.WithLabelValues("create").Inc()
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Count godoc
// @Summary      Registrar conteo de un producto
// @Description  Último conteo gana. Si la varianza supera el 10% del teórico la
//	línea queda marcada para reconteo.
// @Tags         inventory-sessions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string            true  "ID de la sesión"
// @Param        body  body  dto.CountRequest  true  "Producto y cantidad contada"
// @Success      200   {object}  dto.InventoryLineResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory-sessions/{id}/count [post]
func (h *SessionHandler) Count(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return missingID(c)
	}
	var in dto.CountRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Count(c.Context(), GetUserID(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	sessionActionsTotal.WithLabelValues("count").Inc()
	return c.JSON(out)
}

// CountByBarcode godoc
// @Summary      Registrar conteo escaneando código de barras
// @Tags         inventory-sessions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true  "ID de la sesión"
// @Param        body  body  dto.CountByBarcodeRequest  true  "Código de barras y cantidad"
// @Success      200   {object}  dto.InventoryLineResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory-sessions/{id}/count-barcode [post]
func (h *SessionHandler) CountByBarcode(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return missingID(c)
	}
	var in dto.CountByBarcodeRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.CountByBarcode(c.Context(), GetUserID(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	sessionActionsTotal.WithLabelValues("count_barcode").Inc()
	return c.JSON(out)
}

// BulkCount godoc
// @Summary      Conteo masivo
// @Description  Registra varios conteos en una llamada. Cada ítem se procesa de
//	forma aislada: los fallidos se reportan en errors sin abortar al resto.
// @Tags         inventory-sessions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                true  "ID de la sesión"
// @Param        body  body  dto.BulkCountRequest  true  "Ítems a contar"
// @Success      200   {object}  dto.BulkCountResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/inventory-sessions/{id}/bulk-count [post]
func (h *SessionHandler) BulkCount(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return missingID(c)
	}
	var in dto.BulkCountRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.BulkCount(c.Context(), GetUserID(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	sessionActionsTotal.WithLabelValues("bulk_count").Inc()
	return c.JSON(out)
}

// Recount godoc
// @Summary      Reconteo de una línea
// @Description  El reconteo es autoritativo: fija la cantidad final y limpia la
//	marca de reconteo aunque la varianza siga alta.
// @Tags         inventory-sessions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string              true  "ID de la sesión"
// @Param        body  body  dto.RecountRequest  true  "Producto y cantidad recontada"
// @Success      200   {object}  dto.InventoryLineResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory-sessions/{id}/recount [post]
func (h *SessionHandler) Recount(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return missingID(c)
	}
	var in dto.RecountRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Recount(c.Context(), GetUserID(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	sessionActionsTotal.WithLabelValues("recount").Inc()
	return c.JSON(out)
}

// Pause godoc
// @Summary      Pausar sesión (IN_PROGRESS -> PAUSED)
// @Tags         inventory-sessions
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la sesión"
// @Success      200  {object}  dto.SessionResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory-sessions/{id}/pause [post]
func (h *SessionHandler) Pause(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return missingID(c)
	}
	out, err := h.uc.Pause(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	sessionActionsTotal.WithLabelValues("pause").Inc()
	return c.JSON(out)
}

// Resume godoc
// @Summary      Reanudar sesión (PAUSED -> IN_PROGRESS)
// @Tags         inventory-sessions
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la sesión"
// @Success      200  {object}  dto.SessionResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory-sessions/{id}/resume [post]
func (h *SessionHandler) Resume(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return missingID(c)
	}
	out, err := h.uc.Resume(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	sessionActionsTotal.WithLabelValues("resume").Inc()
	return c.JSON(out)
}

// Finish godoc
// @Summary      Cerrar conteo (IN_PROGRESS -> FINISHED)
// @Description  Requiere que no queden líneas PENDING.
// @Tags         inventory-sessions
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la sesión"
// @Success      200  {object}  dto.SessionResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory-sessions/{id}/finish [post]
func (h *SessionHandler) Finish(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return missingID(c)
	}
	out, err := h.uc.Finish(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	sessionActionsTotal.WithLabelValues("finish").Inc()
	return c.JSON(out)
}

// Validate godoc
// @Summary      Validar sesión y aplicar ajustes al ledger
// @Description  Rechaza si alguna línea sigue PENDING o marcada para reconteo
//	(incluidas las excluidas). Por cada línea no excluida con varianza genera
//	un ADJUSTMENT con origen en la sesión.
// @Tags         inventory-sessions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                      true   "ID de la sesión"
// @Param        body  body  dto.ValidateSessionRequest  false  "Opciones de validación"
// @Success      200   {object}  dto.SessionResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory-sessions/{id}/validate [post]
func (h *SessionHandler) Validate(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return missingID(c)
	}
	var in dto.ValidateSessionRequest
	_ = c.BodyParser(&in) // body opcional
	out, err := h.uc.Validate(c.Context(), GetUserID(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	sessionActionsTotal.WithLabelValues("validate").Inc()
	return c.JSON(out)
}

// Cancel godoc
// @Summary      Cancelar sesión sin tocar el ledger
// @Tags         inventory-sessions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                    true   "ID de la sesión"
// @Param        body  body  dto.CancelSessionRequest  false  "Motivo"
// @Success      200   {object}  dto.SessionResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory-sessions/{id}/cancel [post]
func (h *SessionHandler) Cancel(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return missingID(c)
	}
	var in dto.CancelSessionRequest
	_ = c.BodyParser(&in)
	out, err := h.uc.Cancel(c.Context(), id, in.Reason)
	if err != nil {
		return respondError(c, err)
	}
	sessionActionsTotal.WithLabelValues("cancel").Inc()
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener sesión con sus líneas
// @Tags         inventory-sessions
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la sesión"
// @Success      200  {object}  dto.SessionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory-sessions/{id} [get]
func (h *SessionHandler) GetByID(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return missingID(c)
	}
	out, err := h.uc.GetByID(id)
	if err != nil {
		return respondError(c, err)
	}
	if out == nil {
		return notFound(c, "sesión no encontrada")
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar sesiones de conteo
// @Tags         inventory-sessions
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Límite"   default(20)
// @Param        offset  query  int  false  "Offset"   default(0)
// @Success      200     {object}  dto.SessionListResponse
// @Router       /api/inventory-sessions [get]
func (h *SessionHandler) List(c *fiber.Ctx) error {
	page := dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)}
	page.DefaultPage()
	out, err := h.uc.List(page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Report godoc
// @Summary      Acta de conteo en PDF
// @Description  Disponible para sesiones FINISHED o VALIDATED.
// @Tags         inventory-sessions
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de la sesión"
// @Success      200  {file}    binary
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory-sessions/{id}/report [get]
func (h *SessionHandler) Report(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return missingID(c)
	}
	pdf, err := h.uc.Report(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	c.Set("Content-Type", "application/pdf")
	c.Set("Content-Disposition", `attachment; filename="acta-conteo.pdf"`)
	return c.Send(pdf)
}
