// migrate aplica el esquema de la base de datos (scripts/schema.sql).
//
// Uso: go run ./cmd/migrate [ruta/schema.sql]
// Las sentencias usan IF NOT EXISTS, por lo que es seguro re-ejecutarlo.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/LeloucheViBritania/apis-stock-control-sub001/internal/infrastructure/postgres"
	"github.com/LeloucheViBritania/apis-stock-control-sub001/pkg/config"
)

func main() {
	schemaPath := "scripts/schema.sql"
	if len(os.Args) > 1 {
		schemaPath = os.Args[1]
	}
	schema, err := os.ReadFile(schemaPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer esquema: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Conexión a PostgreSQL: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, string(schema)); err != nil {
		fmt.Fprintf(os.Stderr, "Aplicar esquema: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Esquema aplicado correctamente.")
}
