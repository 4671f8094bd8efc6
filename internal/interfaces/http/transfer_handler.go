package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/application/dto"
	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/application/transfer"
)

// TransferHandler maneja las peticiones HTTP de traslados entre bodegas (protegido).
type TransferHandler struct {
	uc *transfer.UseCase
}

// NewTransferHandler construye el handler.
func NewTransferHandler(uc *transfer.UseCase) *TransferHandler {
	return &TransferHandler{uc: uc}
}

// Create godoc
// @Summary      Crear traslado entre bodegas
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateTransferRequest  true  "Bodega origen, destino y líneas"
// @Success      201   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/transfers [post]
func (h *TransferHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateTransferRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Create(c.Context(), GetUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	transferActionsTotal.WithLabelValues("create").Inc()
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Ship godoc
// @Summary      Despachar traslado (PENDING -> IN_TRANSIT)
// @Description  Descuenta del stock de la bodega origen las cantidades solicitadas.
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del traslado"
// @Success      200  {object}  dto.TransferResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/ship [post]
func (h *TransferHandler) Ship(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return missingID(c)
	}
	out, err := h.uc.Ship(c.Context(), GetUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	transferActionsTotal.WithLabelValues("ship").Inc()
	return c.JSON(out)
}

// Receive godoc
// @Summary      Recibir traslado completo (IN_TRANSIT -> COMPLETE)
// @Description  Acredita en destino la cantidad solicitada de cada línea.
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del traslado"
// @Success      200  {object}  dto.TransferResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/receive [post]
func (h *TransferHandler) Receive(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return missingID(c)
	}
	out, err := h.uc.Receive(c.Context(), GetUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	transferActionsTotal.WithLabelValues("receive").Inc()
	return c.JSON(out)
}

// ReceivePartial godoc
// @Summary      Recepción parcial de traslado
// @Description  Acredita en destino las cantidades indicadas por línea. La cantidad
//	recibida de cada línea se sobreescribe con el valor enviado; el traslado
//	pasa a COMPLETE solo cuando todas las líneas quedan completas.
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true  "ID del traslado"
// @Param        body  body  dto.ReceivePartialRequest  true  "Cantidades recibidas por línea"
// @Success      200   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/receive-partial [post]
func (h *TransferHandler) ReceivePartial(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return missingID(c)
	}
	var in dto.ReceivePartialRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.ReceivePartial(c.Context(), GetUserID(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	transferActionsTotal.WithLabelValues("receive_partial").Inc()
	return c.JSON(out)
}

// Cancel godoc
// @Summary      Cancelar traslado
// @Description  Desde PENDING no toca el stock; desde IN_TRANSIT reacredita el origen.
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true   "ID del traslado"
// @Param        body  body  dto.CancelTransferRequest  false  "Motivo"
// @Success      200   {object}  dto.TransferResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/cancel [post]
func (h *TransferHandler) Cancel(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return missingID(c)
	}
	var in dto.CancelTransferRequest
	_ = c.BodyParser(&in) // body opcional
	out, err := h.uc.Cancel(c.Context(), GetUserID(c), id, in.Reason)
	if err != nil {
		return respondError(c, err)
	}
	transferActionsTotal.WithLabelValues("cancel").Inc()
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar fecha/notas de un traslado PENDING
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true  "ID del traslado"
// @Param        body  body  dto.UpdateTransferRequest  true  "Campos a modificar"
// @Success      200   {object}  dto.TransferResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/transfers/{id} [patch]
func (h *TransferHandler) Update(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return missingID(c)
	}
	var in dto.UpdateTransferRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Update(c.Context(), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener traslado por ID
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del traslado"
// @Success      200  {object}  dto.TransferResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id} [get]
func (h *TransferHandler) GetByID(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return missingID(c)
	}
	out, err := h.uc.GetByID(id)
	if err != nil {
		return respondError(c, err)
	}
	if out == nil {
		return notFound(c, "traslado no encontrado")
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar traslados
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "PENDING | IN_TRANSIT | COMPLETE | CANCELLED"
// @Param        limit   query  int     false  "Límite"   default(20)
// @Param        offset  query  int     false  "Offset"   default(0)
// @Success      200     {object}  dto.TransferListResponse
// @Router       /api/transfers [get]
func (h *TransferHandler) List(c *fiber.Ctx) error {
	page := dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)}
	page.DefaultPage()
	out, err := h.uc.List(c.Query("status"), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
