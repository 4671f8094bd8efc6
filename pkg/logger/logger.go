// Package logger envuelve zerolog con la configuración de la aplicación:
// consola legible en desarrollo, JSON de una línea por evento en el resto
// de entornos, y el nombre del servicio como campo fijo de cada registro.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config parámetros de arranque del logger.
type Config struct {
	Env     string // "development" habilita la salida de consola
	Level   string // nivel mínimo; acepta los nombres de zerolog ("debug", "info", ...)
	Service string // agregado como campo fijo "service" si no está vacío
}

// Logger logger estructurado de la aplicación.
type Logger struct {
	zl zerolog.Logger
}

// New construye el logger según la configuración y lo instala también como
// logger global de zerolog para las librerías que escriben por esa vía.
// Un nivel desconocido o vacío cae a info.
func New(cfg Config) *Logger {
	var out io.Writer = os.Stdout
	if strings.EqualFold(cfg.Env, "development") {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	ctx := zerolog.New(out).Level(level).With().Timestamp()
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}
	zl := ctx.Logger()
	log.Logger = zl

	return &Logger{zl: zl}
}

// Component devuelve un sublogger con el campo "component" fijo, para
// distinguir el origen de los eventos (http, postgres, workflows).
func (l *Logger) Component(name string) *Logger {
	return &Logger{zl: l.zl.With().Str("component", name).Logger()}
}

// Eventos por nivel, delegados a zerolog.
func (l *Logger) Trace() *zerolog.Event { return l.zl.Trace() }
func (l *Logger) Debug() *zerolog.Event { return l.zl.Debug() }
func (l *Logger) Info() *zerolog.Event  { return l.zl.Info() }
func (l *Logger) Warn() *zerolog.Event  { return l.zl.Warn() }
func (l *Logger) Error() *zerolog.Event { return l.zl.Error() }
func (l *Logger) Fatal() *zerolog.Event { return l.zl.Fatal() }

// Zerolog expone el logger interno cuando se necesita la API directa.
func (l *Logger) Zerolog() zerolog.Logger {
	return l.zl
}
