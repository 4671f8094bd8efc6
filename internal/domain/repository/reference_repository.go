package repository

// ReferenceRepository define el puerto del generador de referencias
// secuenciales por año (TRF-2026-00042, INV-2026-00007). Next debe
// ejecutarse dentro de la transacción que crea el documento para que la
// secuencia no tenga huecos ni duplicados.
type ReferenceRepository interface {
	Next(kind string, year int) (int64, error)
}
