// Package testutil provee dobles en memoria de los puertos de persistencia
// para las pruebas de los use cases, incluyendo un TxRunner con semántica de
// rollback: si la función de la transacción falla, el estado queda como antes.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/application/ledger"
	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/domain"
	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/domain/entity"
)

// Store estado compartido de todos los repositorios en memoria.
type Store struct {
	Stock         map[string]*entity.StockEntry // key: productID|warehouseID
	Movements     []*entity.MovementRecord
	Products      map[string]*entity.Product
	Warehouses    map[string]*entity.Warehouse
	Transfers     map[string]*entity.Transfer
	TransferLines map[string]*entity.TransferLine // key: lineID
	Sessions      map[string]*entity.InventorySession
	SessionLines  map[string]*entity.InventoryLine // key: lineID
	References    map[string]int64                 // key: kind|year
}

// NewStore crea un Store vacío.
func NewStore() *Store {
	return &Store{
		Stock:         map[string]*entity.StockEntry{},
		Products:      map[string]*entity.Product{},
		Warehouses:    map[string]*entity.Warehouse{},
		Transfers:     map[string]*entity.Transfer{},
		TransferLines: map[string]*entity.TransferLine{},
		Sessions:      map[string]*entity.InventorySession{},
		SessionLines:  map[string]*entity.InventoryLine{},
		References:    map[string]int64{},
	}
}

// Repos devuelve el conjunto de repositorios sobre este Store.
func (s *Store) Repos() ledger.TxRepos {
	return ledger.TxRepos{
		Stock:      &StockRepo{s},
		Movements:  &MovementRepo{s},
		Products:   &ProductRepo{s},
		Transfers:  &TransferRepo{s},
		Sessions:   &SessionRepo{s},
		References: &ReferenceRepo{s},
	}
}

// SeedProduct agrega un producto al catálogo.
func (s *Store) SeedProduct(p *entity.Product) { s.Products[p.ID] = cloneProduct(p) }

// SeedWarehouse agrega una bodega.
func (s *Store) SeedWarehouse(w *entity.Warehouse) { s.Warehouses[w.ID] = cloneWarehouse(w) }

// SeedStock fija una entrada del libro.
func (s *Store) SeedStock(e *entity.StockEntry) {
	s.Stock[stockKey(e.ProductID, e.WarehouseID)] = cloneStock(e)
}

// snapshot copia profunda del estado completo.
func (s *Store) snapshot() *Store {
	c := NewStore()
	for k, v := range s.Stock {
		c.Stock[k] = cloneStock(v)
	}
	for _, m := range s.Movements {
		c.Movements = append(c.Movements, cloneMovement(m))
	}
	for k, v := range s.Products {
		c.Products[k] = cloneProduct(v)
	}
	for k, v := range s.Warehouses {
		c.Warehouses[k] = cloneWarehouse(v)
	}
	for k, v := range s.Transfers {
		c.Transfers[k] = cloneTransfer(v)
	}
	for k, v := range s.TransferLines {
		c.TransferLines[k] = cloneTransferLine(v)
	}
	for k, v := range s.Sessions {
		c.Sessions[k] = cloneSession(v)
	}
	for k, v := range s.SessionLines {
		c.SessionLines[k] = cloneSessionLine(v)
	}
	for k, v := range s.References {
		c.References[k] = v
	}
	return c
}

func (s *Store) restore(from *Store) {
	s.Stock = from.Stock
	s.Movements = from.Movements
	s.Products = from.Products
	s.Warehouses = from.Warehouses
	s.Transfers = from.Transfers
	s.TransferLines = from.TransferLines
	s.Sessions = from.Sessions
	s.SessionLines = from.SessionLines
	s.References = from.References
}

// TxRunner ejecuta la función contra el Store y deshace todo si falla,
// imitando el commit/rollback de la transacción real.
type TxRunner struct {
	Store *Store
}

// Run implementa ledger.TxRunner.
func (r *TxRunner) Run(_ context.Context, fn func(tr ledger.TxRepos) error) error {
	snap := r.Store.snapshot()
	if err := fn(r.Store.Repos()); err != nil {
		r.Store.restore(snap)
		return err
	}
	return nil
}

func stockKey(productID, warehouseID string) string { return productID + "|" + warehouseID }

// ── StockRepo ─────────────────────────────────────────────────────────────────

type StockRepo struct{ s *Store }

func (r *StockRepo) Get(productID, warehouseID string) (*entity.StockEntry, error) {
	if e, ok := r.s.Stock[stockKey(productID, warehouseID)]; ok {
		return cloneStock(e), nil
	}
	return &entity.StockEntry{ProductID: productID, WarehouseID: warehouseID}, nil
}

func (r *StockRepo) GetForUpdate(productID, warehouseID string) (*entity.StockEntry, error) {
	return r.Get(productID, warehouseID)
}

func (r *StockRepo) Upsert(entry *entity.StockEntry) error {
	r.s.Stock[stockKey(entry.ProductID, entry.WarehouseID)] = cloneStock(entry)
	return nil
}

func (r *StockRepo) ListByWarehouse(warehouseID string, filter entity.StockFilter) ([]*entity.StockEntry, error) {
	var subset map[string]bool
	if len(filter.ProductIDs) > 0 {
		subset = map[string]bool{}
		for _, id := range filter.ProductIDs {
			subset[id] = true
		}
	}
	var out []*entity.StockEntry
	for _, e := range r.s.Stock {
		if e.WarehouseID != warehouseID {
			continue
		}
		if subset != nil && !subset[e.ProductID] {
			continue
		}
		if filter.CategoryID != "" {
			p, ok := r.s.Products[e.ProductID]
			if !ok || p.CategoryID != filter.CategoryID {
				continue
			}
		}
		if filter.ZonePrefix != "" && !hasPrefix(e.Location, filter.ZonePrefix) {
			continue
		}
		out = append(out, cloneStock(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

func (r *StockRepo) ListByProduct(productID string) ([]*entity.StockEntry, error) {
	var out []*entity.StockEntry
	for _, e := range r.s.Stock {
		if e.ProductID == productID {
			out = append(out, cloneStock(e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WarehouseID < out[j].WarehouseID })
	return out, nil
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

// ── MovementRepo ──────────────────────────────────────────────────────────────

type MovementRepo struct{ s *Store }

func (r *MovementRepo) Create(record *entity.MovementRecord) error {
	r.s.Movements = append(r.s.Movements, cloneMovement(record))
	return nil
}

func (r *MovementRepo) GetByID(id string) (*entity.MovementRecord, error) {
	for _, m := range r.s.Movements {
		if m.ID == id {
			return cloneMovement(m), nil
		}
	}
	return nil, nil
}

func (r *MovementRepo) ListByProduct(productID string, from, to *time.Time, limit, offset int) ([]*entity.MovementRecord, error) {
	return r.list(func(m *entity.MovementRecord) bool { return m.ProductID == productID }, from, to, limit, offset)
}

func (r *MovementRepo) ListByWarehouse(warehouseID string, from, to *time.Time, limit, offset int) ([]*entity.MovementRecord, error) {
	return r.list(func(m *entity.MovementRecord) bool { return m.WarehouseID == warehouseID }, from, to, limit, offset)
}

func (r *MovementRepo) list(match func(*entity.MovementRecord) bool, from, to *time.Time, limit, offset int) ([]*entity.MovementRecord, error) {
	var out []*entity.MovementRecord
	for _, m := range r.s.Movements {
		if !match(m) {
			continue
		}
		if from != nil && m.CreatedAt.Before(*from) {
			continue
		}
		if to != nil && m.CreatedAt.After(*to) {
			continue
		}
		out = append(out, cloneMovement(m))
	}
	// Más reciente primero, como el repositorio real
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ── ProductRepo ───────────────────────────────────────────────────────────────

type ProductRepo struct{ s *Store }

func (r *ProductRepo) Create(p *entity.Product) error {
	for _, existing := range r.s.Products {
		if existing.SKU == p.SKU {
			return fmt.Errorf("%w: sku %s", domain.ErrConflict, p.SKU)
		}
	}
	r.s.Products[p.ID] = cloneProduct(p)
	return nil
}

func (r *ProductRepo) GetByID(id string) (*entity.Product, error) {
	if p, ok := r.s.Products[id]; ok {
		return cloneProduct(p), nil
	}
	return nil, nil
}

func (r *ProductRepo) GetByBarcode(barcode string) (*entity.Product, error) {
	for _, p := range r.s.Products {
		if p.Barcode == barcode {
			return cloneProduct(p), nil
		}
	}
	return nil, nil
}

func (r *ProductRepo) ListByIDs(ids []string) ([]*entity.Product, error) {
	var out []*entity.Product
	for _, id := range ids {
		if p, ok := r.s.Products[id]; ok {
			out = append(out, cloneProduct(p))
		}
	}
	return out, nil
}

func (r *ProductRepo) List(limit, offset int) ([]*entity.Product, error) {
	var out []*entity.Product
	for _, p := range r.s.Products {
		out = append(out, cloneProduct(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return page(out, limit, offset), nil
}

// ── WarehouseRepo ─────────────────────────────────────────────────────────────

type WarehouseRepo struct{ s *Store }

// NewWarehouseRepo doble de WarehouseRepository sobre el Store.
func NewWarehouseRepo(s *Store) *WarehouseRepo { return &WarehouseRepo{s} }

func (r *WarehouseRepo) Create(w *entity.Warehouse) error {
	r.s.Warehouses[w.ID] = cloneWarehouse(w)
	return nil
}

func (r *WarehouseRepo) GetByID(id string) (*entity.Warehouse, error) {
	if w, ok := r.s.Warehouses[id]; ok {
		return cloneWarehouse(w), nil
	}
	return nil, nil
}

func (r *WarehouseRepo) Update(w *entity.Warehouse) error {
	r.s.Warehouses[w.ID] = cloneWarehouse(w)
	return nil
}

func (r *WarehouseRepo) List(limit, offset int) ([]*entity.Warehouse, error) {
	var out []*entity.Warehouse
	for _, w := range r.s.Warehouses {
		out = append(out, cloneWarehouse(w))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return page(out, limit, offset), nil
}

// ── TransferRepo ──────────────────────────────────────────────────────────────

type TransferRepo struct{ s *Store }

func (r *TransferRepo) Create(t *entity.Transfer, lines []*entity.TransferLine) error {
	for _, existing := range r.s.Transfers {
		if existing.Reference == t.Reference {
			return fmt.Errorf("%w: referencia %s", domain.ErrConflict, t.Reference)
		}
	}
	r.s.Transfers[t.ID] = cloneTransfer(t)
	for _, l := range lines {
		r.s.TransferLines[l.ID] = cloneTransferLine(l)
	}
	return nil
}

func (r *TransferRepo) GetByID(id string) (*entity.Transfer, error) {
	if t, ok := r.s.Transfers[id]; ok {
		return cloneTransfer(t), nil
	}
	return nil, nil
}

func (r *TransferRepo) GetByIDForUpdate(id string) (*entity.Transfer, error) {
	return r.GetByID(id)
}

func (r *TransferRepo) Update(t *entity.Transfer) error {
	r.s.Transfers[t.ID] = cloneTransfer(t)
	return nil
}

func (r *TransferRepo) ListLines(transferID string) ([]*entity.TransferLine, error) {
	var out []*entity.TransferLine
	for _, l := range r.s.TransferLines {
		if l.TransferID == transferID {
			out = append(out, cloneTransferLine(l))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

func (r *TransferRepo) UpdateLine(l *entity.TransferLine) error {
	r.s.TransferLines[l.ID] = cloneTransferLine(l)
	return nil
}

func (r *TransferRepo) List(status entity.TransferStatus, limit, offset int) ([]*entity.Transfer, error) {
	var out []*entity.Transfer
	for _, t := range r.s.Transfers {
		if status != "" && t.Status != status {
			continue
		}
		out = append(out, cloneTransfer(t))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, limit, offset), nil
}

// ── SessionRepo ───────────────────────────────────────────────────────────────

type SessionRepo struct{ s *Store }

func (r *SessionRepo) Create(session *entity.InventorySession, lines []*entity.InventoryLine) error {
	// Índice único parcial: una sesión activa por bodega
	for _, existing := range r.s.Sessions {
		if existing.WarehouseID == session.WarehouseID && existing.Status.IsActive() {
			return fmt.Errorf("%w: la bodega %s ya tiene una sesión activa", domain.ErrConflict, session.WarehouseID)
		}
	}
	r.s.Sessions[session.ID] = cloneSession(session)
	for _, l := range lines {
		r.s.SessionLines[l.ID] = cloneSessionLine(l)
	}
	return nil
}

func (r *SessionRepo) GetByID(id string) (*entity.InventorySession, error) {
	if s, ok := r.s.Sessions[id]; ok {
		return cloneSession(s), nil
	}
	return nil, nil
}

func (r *SessionRepo) GetByIDForUpdate(id string) (*entity.InventorySession, error) {
	return r.GetByID(id)
}

func (r *SessionRepo) FindActiveByWarehouse(warehouseID string) (*entity.InventorySession, error) {
	for _, s := range r.s.Sessions {
		if s.WarehouseID == warehouseID && s.Status.IsActive() {
			return cloneSession(s), nil
		}
	}
	return nil, nil
}

func (r *SessionRepo) Update(session *entity.InventorySession) error {
	r.s.Sessions[session.ID] = cloneSession(session)
	return nil
}

func (r *SessionRepo) ListLines(sessionID string) ([]*entity.InventoryLine, error) {
	var out []*entity.InventoryLine
	for _, l := range r.s.SessionLines {
		if l.SessionID == sessionID {
			out = append(out, cloneSessionLine(l))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

func (r *SessionRepo) GetLine(sessionID, productID string) (*entity.InventoryLine, error) {
	for _, l := range r.s.SessionLines {
		if l.SessionID == sessionID && l.ProductID == productID {
			return cloneSessionLine(l), nil
		}
	}
	return nil, nil
}

func (r *SessionRepo) UpdateLine(l *entity.InventoryLine) error {
	r.s.SessionLines[l.ID] = cloneSessionLine(l)
	return nil
}

func (r *SessionRepo) MarkLinesValidated(sessionID string) error {
	for _, l := range r.s.SessionLines {
		if l.SessionID == sessionID {
			l.Status = entity.LineStatusValidated
		}
	}
	return nil
}

func (r *SessionRepo) List(limit, offset int) ([]*entity.InventorySession, error) {
	var out []*entity.InventorySession
	for _, s := range r.s.Sessions {
		out = append(out, cloneSession(s))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, limit, offset), nil
}

// ── ReferenceRepo ─────────────────────────────────────────────────────────────

type ReferenceRepo struct{ s *Store }

func (r *ReferenceRepo) Next(kind string, year int) (int64, error) {
	key := fmt.Sprintf("%s|%d", kind, year)
	r.s.References[key]++
	return r.s.References[key], nil
}

// ── clones ────────────────────────────────────────────────────────────────────

func cloneStock(e *entity.StockEntry) *entity.StockEntry { c := *e; return &c }

func cloneMovement(m *entity.MovementRecord) *entity.MovementRecord { c := *m; return &c }

func cloneProduct(p *entity.Product) *entity.Product { c := *p; return &c }

func cloneWarehouse(w *entity.Warehouse) *entity.Warehouse { c := *w; return &c }

func cloneTransfer(t *entity.Transfer) *entity.Transfer {
	c := *t
	c.CompletedAt = cloneTime(t.CompletedAt)
	return &c
}

func cloneTransferLine(l *entity.TransferLine) *entity.TransferLine { c := *l; return &c }

func cloneSession(s *entity.InventorySession) *entity.InventorySession {
	c := *s
	c.FinishedAt = cloneTime(s.FinishedAt)
	c.ValidatedAt = cloneTime(s.ValidatedAt)
	if s.Filter.ProductIDs != nil {
		c.Filter.ProductIDs = append([]string(nil), s.Filter.ProductIDs...)
	}
	return &c
}

func cloneSessionLine(l *entity.InventoryLine) *entity.InventoryLine {
	c := *l
	c.CountedQuantity = cloneInt64(l.CountedQuantity)
	c.RecountedQuantity = cloneInt64(l.RecountedQuantity)
	c.CountedAt = cloneTime(l.CountedAt)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneInt64(n *int64) *int64 {
	if n == nil {
		return nil
	}
	v := *n
	return &v
}

func page[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return nil
	}
	list = list[offset:]
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list
}
