package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Contadores de negocio expuestos en /metrics. Se incrementan en los
// handlers solo cuando la operación fue aceptada.
var (
	transferActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockcontrol_transfer_actions_total",
			Help: "Acciones de traslado aceptadas, por acción.",
		},
		[]string{"action"},
	)

	sessionActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockcontrol_session_actions_total",
			Help: "Acciones de sesión de inventario aceptadas, por acción.",
		},
		[]string{"action"},
	)

	adjustmentsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stockcontrol_manual_adjustments_total",
			Help: "Ajustes manuales de stock aceptados.",
		},
	)
)
