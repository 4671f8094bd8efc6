package domain

import "errors"

// Errores de dominio (sin dependencias externas).
// La capa HTTP los traduce a códigos de estado; la capa de aplicación
// los envuelve con fmt.Errorf("...: %w", err) para agregar contexto.
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrInvalidState      = errors.New("transición de estado no permitida")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrUnauthorized      = errors.New("no autorizado")
)
