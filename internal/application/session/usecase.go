// Package session implementa la máquina de estados de sesiones de inventario
// físico: snapshot teórico del libro, conteo y reconteo manual, y validación
// que concilia las varianzas contra el libro vía el mutador. A diferencia de
// los traslados, el conteo masivo aísla el fallo de cada ítem.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/application/dto"
	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/application/ledger"
	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/domain"
	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/domain/entity"
	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/domain/repository"
)

// referenceKind clave de la secuencia anual de referencias de sesión.
const referenceKind = "INV"

// UseCase orquesta el ciclo de conteo físico y conciliación.
type UseCase struct {
	txRunner      ledger.TxRunner
	sessionRepo   repository.SessionRepository
	productRepo   repository.ProductRepository
	warehouseRepo repository.WarehouseRepository
	reports       ReportGenerator
}

// NewUseCase construye el caso de uso.
func NewUseCase(
	txRunner ledger.TxRunner,
	sessionRepo repository.SessionRepository,
	productRepo repository.ProductRepository,
	warehouseRepo repository.WarehouseRepository,
	reports ReportGenerator,
) *UseCase {
	return &UseCase{
		txRunner:      txRunner,
		sessionRepo:   sessionRepo,
		productRepo:   productRepo,
		warehouseRepo: warehouseRepo,
		reports:       reports,
	}
}

// Create abre una sesión para la bodega: toma el snapshot del libro para
// cada existencia que pase el filtro y crea las líneas en PENDING.
// Rechaza con Conflict si la bodega ya tiene una sesión IN_PROGRESS o
// PAUSED; la verificación corre dentro de la misma transacción que el
// insert (más el índice único parcial del esquema) para que dos creaciones
// concurrentes no pasen ambas.
func (uc *UseCase) Create(ctx context.Context, actorID string, in dto.CreateSessionRequest) (*dto.SessionResponse, error) {
	if in.WarehouseID == "" {
		return nil, fmt.Errorf("%w: bodega obligatoria", domain.ErrInvalidInput)
	}
	warehouse, err := uc.warehouseRepo.GetByID(in.WarehouseID)
	if err != nil {
		return nil, err
	}
	if warehouse == nil {
		return nil, fmt.Errorf("%w: bodega %s", domain.ErrNotFound, in.WarehouseID)
	}
	if !warehouse.Active {
		return nil, fmt.Errorf("%w: bodega %s inactiva", domain.ErrInvalidInput, in.WarehouseID)
	}

	filter := entity.StockFilter{
		CategoryID: in.CategoryID,
		ZonePrefix: in.ZonePrefix,
		ProductIDs: in.ProductIDs,
	}

	now := time.Now()
	session := &entity.InventorySession{
		ID:          uuid.New().String(),
		WarehouseID: warehouse.ID,
		Filter:      filter,
		Status:      entity.SessionStatusInProgress,
		Notes:       in.Notes,
		StartedAt:   now,
		CreatedBy:   actorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var lines []*entity.InventoryLine
	err = uc.txRunner.Run(ctx, func(r ledger.TxRepos) error {
		active, err := r.Sessions.FindActiveByWarehouse(warehouse.ID)
		if err != nil {
			return err
		}
		if active != nil {
			return fmt.Errorf("%w: la bodega %s ya tiene la sesión activa %s",
				domain.ErrConflict, warehouse.ID, active.Reference)
		}

		entries, err := r.Stock.ListByWarehouse(warehouse.ID, filter)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return fmt.Errorf("%w: el filtro no coincide con ningún producto en la bodega", domain.ErrInvalidInput)
		}

		costs, err := uc.unitCosts(r, entries)
		if err != nil {
			return err
		}

		lines = make([]*entity.InventoryLine, 0, len(entries))
		for _, e := range entries {
			lines = append(lines, &entity.InventoryLine{
				ID:                  uuid.New().String(),
				SessionID:           session.ID,
				ProductID:           e.ProductID,
				TheoreticalQuantity: e.Quantity,
				UnitCost:            costs[e.ProductID],
				Status:              entity.LineStatusPending,
				Location:            e.Location,
			})
		}
		session.TotalProducts = len(lines)

		seq, err := r.References.Next(referenceKind, now.Year())
		if err != nil {
			return err
		}
		session.Reference = fmt.Sprintf("%s-%d-%05d", referenceKind, now.Year(), seq)
		return r.Sessions.Create(session, lines)
	})
	if err != nil {
		return nil, err
	}
	return toSessionResponse(session, lines), nil
}

// Count registra el conteo manual de un producto. Solo actualiza la línea:
// el libro no se toca hasta la validación. Falla si la sesión no está
// IN_PROGRESS o si el producto no tiene línea en la sesión.
func (uc *UseCase) Count(ctx context.Context, actorID, sessionID string, in dto.CountRequest) (*dto.InventoryLineResponse, error) {
	var line *entity.InventoryLine
	err := uc.txRunner.Run(ctx, func(r ledger.TxRepos) error {
		session, err := uc.lockSession(r, sessionID)
		if err != nil {
			return err
		}
		if err := session.EnsureCan(entity.SessionActionCount); err != nil {
			return err
		}
		line, err = uc.sessionLine(r, session, in.ProductID)
		if err != nil {
			return err
		}

		line.ApplyCount(in.Quantity, actorID, time.Now())
		if in.Location != "" {
			line.Location = in.Location
		}
		if in.Notes != "" {
			line.Notes = in.Notes
		}
		return r.Sessions.UpdateLine(line)
	})
	if err != nil {
		return nil, err
	}
	return toLineResponse(line), nil
}

// CountByBarcode resuelve el barcode a producto y delega en Count.
func (uc *UseCase) CountByBarcode(ctx context.Context, actorID, sessionID string, in dto.CountByBarcodeRequest) (*dto.InventoryLineResponse, error) {
	product, err := uc.productRepo.GetByBarcode(in.Barcode)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: barcode %s", domain.ErrNotFound, in.Barcode)
	}
	return uc.Count(ctx, actorID, sessionID, dto.CountRequest{
		ProductID: product.ID,
		Quantity:  in.Quantity,
		Location:  in.Location,
		Notes:     in.Notes,
	})
}

// BulkCount aplica Count a cada ítem de forma independiente: el fallo de un
// ítem (producto sin línea, sesión inactiva) se recoge como error de ese
// ítem y no aborta a los demás. Frontera deliberadamente distinta al resto
// de acciones, que son todo-o-nada.
func (uc *UseCase) BulkCount(ctx context.Context, actorID, sessionID string, in dto.BulkCountRequest) (*dto.BulkCountResponse, error) {
	out := &dto.BulkCountResponse{Errors: []dto.BulkCountError{}}
	for _, item := range in.Items {
		if _, err := uc.Count(ctx, actorID, sessionID, item); err != nil {
			out.Errors = append(out.Errors, dto.BulkCountError{
				ProductID: item.ProductID,
				Error:     err.Error(),
			})
			continue
		}
		out.Success++
	}
	return out, nil
}

// Recount registra el reconteo autoritativo de una línea ya contada:
// recalcula la varianza con la nueva cantidad y limpia el flag de reconteo
// sin importar la magnitud resultante.
func (uc *UseCase) Recount(ctx context.Context, actorID, sessionID string, in dto.RecountRequest) (*dto.InventoryLineResponse, error) {
	var line *entity.InventoryLine
	err := uc.txRunner.Run(ctx, func(r ledger.TxRepos) error {
		session, err := uc.lockSession(r, sessionID)
		if err != nil {
			return err
		}
		if err := session.EnsureCan(entity.SessionActionRecount); err != nil {
			return err
		}
		line, err = uc.sessionLine(r, session, in.ProductID)
		if err != nil {
			return err
		}
		if line.Status == entity.LineStatusPending {
			return fmt.Errorf("%w: la línea del producto %s aún no tiene conteo", domain.ErrInvalidState, in.ProductID)
		}

		line.ApplyRecount(in.Quantity, actorID, time.Now())
		if in.Notes != "" {
			line.Notes = in.Notes
		}
		return r.Sessions.UpdateLine(line)
	})
	if err != nil {
		return nil, err
	}
	return toLineResponse(line), nil
}

// Pause suspende temporalmente la sesión; contar y recontar fallan en PAUSED.
func (uc *UseCase) Pause(ctx context.Context, sessionID string) (*dto.SessionResponse, error) {
	return uc.transition(ctx, sessionID, entity.SessionActionPause, entity.SessionStatusPaused)
}

// Resume reanuda una sesión pausada.
func (uc *UseCase) Resume(ctx context.Context, sessionID string) (*dto.SessionResponse, error) {
	return uc.transition(ctx, sessionID, entity.SessionActionResume, entity.SessionStatusInProgress)
}

// Finish cierra el conteo: exige que no queden líneas PENDING y deja la
// sesión en FINISHED a la espera de validación.
func (uc *UseCase) Finish(ctx context.Context, sessionID string) (*dto.SessionResponse, error) {
	var session *entity.InventorySession
	var lines []*entity.InventoryLine
	err := uc.txRunner.Run(ctx, func(r ledger.TxRepos) error {
		var err error
		session, err = uc.lockSession(r, sessionID)
		if err != nil {
			return err
		}
		if err := session.EnsureCan(entity.SessionActionFinish); err != nil {
			return err
		}
		lines, err = r.Sessions.ListLines(session.ID)
		if err != nil {
			return err
		}
		for _, l := range lines {
			if l.Status == entity.LineStatusPending {
				return fmt.Errorf("%w: quedan líneas sin contar (producto %s)", domain.ErrInvalidState, l.ProductID)
			}
		}
		now := time.Now()
		session.Status = entity.SessionStatusFinished
		session.FinishedAt = &now
		session.UpdatedAt = now
		return r.Sessions.Update(session)
	})
	if err != nil {
		return nil, err
	}
	return toSessionResponse(session, lines), nil
}

// Validate concilia la sesión contra el libro. Falla si CUALQUIER línea
// (incluidas las excluidas del ajuste) sigue PENDING o con flag de reconteo.
// Para cada línea no excluida con varianza final distinta de cero aplica el
// ajuste firmado vía el mutador (kind ADJUSTMENT, origen la sesión), todo en
// una unidad atómica: nunca se aplican ajustes parciales. La sesión queda
// VALIDATED y no puede reabrirse.
func (uc *UseCase) Validate(ctx context.Context, actorID, sessionID string, in dto.ValidateSessionRequest) (*dto.SessionResponse, error) {
	applyAdjustments := true
	if in.ApplyAdjustments != nil {
		applyAdjustments = *in.ApplyAdjustments
	}
	excluded := make(map[string]bool, len(in.ExcludedLineIDs))
	for _, id := range in.ExcludedLineIDs {
		excluded[id] = true
	}

	var session *entity.InventorySession
	var lines []*entity.InventoryLine
	err := uc.txRunner.Run(ctx, func(r ledger.TxRepos) error {
		var err error
		session, err = uc.lockSession(r, sessionID)
		if err != nil {
			return err
		}
		if err := session.EnsureCan(entity.SessionActionValidate); err != nil {
			return err
		}
		lines, err = r.Sessions.ListLines(session.ID)
		if err != nil {
			return err
		}

		// La exclusión solo exime del ajuste, no del chequeo: una línea
		// excluida PENDING o con reconteo pendiente bloquea la validación.
		for _, l := range lines {
			if l.Status == entity.LineStatusPending {
				return fmt.Errorf("%w: línea sin contar (producto %s)", domain.ErrInvalidState, l.ProductID)
			}
			if l.NeedsRecount {
				return fmt.Errorf("%w: línea con reconteo pendiente (producto %s)", domain.ErrInvalidState, l.ProductID)
			}
		}

		now := time.Now()
		if applyAdjustments {
			for _, l := range lines {
				if excluded[l.ID] {
					continue
				}
				variance := l.Variance()
				if variance == 0 {
					continue
				}
				sign := "+"
				if variance < 0 {
					sign = "-"
				}
				reason := fmt.Sprintf("Ajuste inventario %s (%s%d)", session.Reference, sign, abs(variance))
				if in.Reason != "" {
					reason += ": " + in.Reason
				}
				_, err := ledger.ApplyDelta(r, ledger.Delta{
					ProductID:   l.ProductID,
					WarehouseID: session.WarehouseID,
					Quantity:    variance,
					Kind:        entity.MovementTypeADJUSTMENT,
					UnitCost:    l.UnitCost,
					Reason:      reason,
					Origin:      entity.OriginSession(session.ID),
					ActorID:     actorID,
					Now:         now,
				})
				if err != nil {
					return err
				}
			}
		}

		if err := r.Sessions.MarkLinesValidated(session.ID); err != nil {
			return err
		}
		for _, l := range lines {
			l.Status = entity.LineStatusValidated
		}

		session.Status = entity.SessionStatusValidated
		session.ValidatedBy = actorID
		session.ValidatedAt = &now
		if session.FinishedAt == nil {
			session.FinishedAt = &now
		}
		session.UpdatedAt = now
		return r.Sessions.Update(session)
	})
	if err != nil {
		return nil, err
	}
	return toSessionResponse(session, lines), nil
}

// Cancel cancela la sesión sin efecto sobre el libro; los conteos quedan
// como historial de auditoría.
func (uc *UseCase) Cancel(ctx context.Context, sessionID, reason string) (*dto.SessionResponse, error) {
	var session *entity.InventorySession
	err := uc.txRunner.Run(ctx, func(r ledger.TxRepos) error {
		var err error
		session, err = uc.lockSession(r, sessionID)
		if err != nil {
			return err
		}
		if err := session.EnsureCan(entity.SessionActionCancel); err != nil {
			return err
		}
		session.Status = entity.SessionStatusCancelled
		if reason != "" {
			session.Notes = reason
		}
		session.UpdatedAt = time.Now()
		return r.Sessions.Update(session)
	})
	if err != nil {
		return nil, err
	}
	return toSessionResponse(session, nil), nil
}

// GetByID devuelve la sesión con sus líneas y el progreso de conteo.
func (uc *UseCase) GetByID(id string) (*dto.SessionResponse, error) {
	session, err := uc.sessionRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("%w: sesión %s", domain.ErrNotFound, id)
	}
	lines, err := uc.sessionRepo.ListLines(id)
	if err != nil {
		return nil, err
	}
	return toSessionResponse(session, lines), nil
}

// List lista sesiones con paginación.
func (uc *UseCase) List(limit, offset int) (*dto.SessionListResponse, error) {
	list, err := uc.sessionRepo.List(limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.SessionResponse, 0, len(list))
	for _, s := range list {
		items = append(items, *toSessionResponse(s, nil))
	}
	return &dto.SessionListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

// Report genera el PDF de varianzas de una sesión FINISHED o VALIDATED.
func (uc *UseCase) Report(ctx context.Context, sessionID string) ([]byte, error) {
	session, err := uc.sessionRepo.GetByID(sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("%w: sesión %s", domain.ErrNotFound, sessionID)
	}
	if session.Status != entity.SessionStatusFinished && session.Status != entity.SessionStatusValidated {
		return nil, fmt.Errorf("%w: el reporte requiere sesión FINISHED o VALIDATED (actual %s)",
			domain.ErrInvalidState, session.Status)
	}

	lines, err := uc.sessionRepo.ListLines(sessionID)
	if err != nil {
		return nil, err
	}
	warehouse, err := uc.warehouseRepo.GetByID(session.WarehouseID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	products, err := uc.productRepo.ListByIDs(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*entity.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	reportLines := make([]ReportLine, 0, len(lines))
	for _, l := range lines {
		reportLines = append(reportLines, ReportLine{Line: l, Product: byID[l.ProductID]})
	}
	return uc.reports.GenerateSessionReport(ctx, session, warehouse, reportLines)
}

// transition aplica una transición simple de estado (pause/resume) bajo la
// guarda de la tabla, dentro de la transacción.
func (uc *UseCase) transition(ctx context.Context, sessionID string, action entity.SessionAction, to entity.SessionStatus) (*dto.SessionResponse, error) {
	var session *entity.InventorySession
	err := uc.txRunner.Run(ctx, func(r ledger.TxRepos) error {
		var err error
		session, err = uc.lockSession(r, sessionID)
		if err != nil {
			return err
		}
		if err := session.EnsureCan(action); err != nil {
			return err
		}
		session.Status = to
		session.UpdatedAt = time.Now()
		return r.Sessions.Update(session)
	})
	if err != nil {
		return nil, err
	}
	return toSessionResponse(session, nil), nil
}

func (uc *UseCase) lockSession(r ledger.TxRepos, id string) (*entity.InventorySession, error) {
	session, err := r.Sessions.GetByIDForUpdate(id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("%w: sesión %s", domain.ErrNotFound, id)
	}
	return session, nil
}

func (uc *UseCase) sessionLine(r ledger.TxRepos, session *entity.InventorySession, productID string) (*entity.InventoryLine, error) {
	line, err := r.Sessions.GetLine(session.ID, productID)
	if err != nil {
		return nil, err
	}
	if line == nil {
		return nil, fmt.Errorf("%w: el producto %s no tiene línea en la sesión %s",
			domain.ErrNotFound, productID, session.Reference)
	}
	return line, nil
}

// unitCosts resuelve el snapshot de costo unitario para las existencias del snapshot.
func (uc *UseCase) unitCosts(r ledger.TxRepos, entries []*entity.StockEntry) (map[string]decimal.Decimal, error) {
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ProductID)
	}
	products, err := r.Products.ListByIDs(ids)
	if err != nil {
		return nil, err
	}
	costs := make(map[string]decimal.Decimal, len(products))
	for _, p := range products {
		costs[p.ID] = p.UnitCost
	}
	return costs, nil
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func toSessionResponse(s *entity.InventorySession, lines []*entity.InventoryLine) *dto.SessionResponse {
	resp := &dto.SessionResponse{
		ID:            s.ID,
		Reference:     s.Reference,
		WarehouseID:   s.WarehouseID,
		Status:        string(s.Status),
		TotalProducts: s.TotalProducts,
		StartedAt:     s.StartedAt,
		FinishedAt:    s.FinishedAt,
		CreatedBy:     s.CreatedBy,
		ValidatedBy:   s.ValidatedBy,
		ValidatedAt:   s.ValidatedAt,
	}
	for _, l := range lines {
		if l.Status != entity.LineStatusPending {
			resp.CountedLines++
		}
		resp.Lines = append(resp.Lines, *toLineResponse(l))
	}
	return resp
}

func toLineResponse(l *entity.InventoryLine) *dto.InventoryLineResponse {
	return &dto.InventoryLineResponse{
		ID:                  l.ID,
		ProductID:           l.ProductID,
		TheoreticalQuantity: l.TheoreticalQuantity,
		CountedQuantity:     l.CountedQuantity,
		RecountedQuantity:   l.RecountedQuantity,
		Variance:            l.Variance(),
		VarianceValue:       l.VarianceValue(),
		UnitCost:            l.UnitCost,
		Status:              string(l.Status),
		NeedsRecount:        l.NeedsRecount,
		Location:            l.Location,
		Notes:               l.Notes,
	}
}
