package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/walletfeed/chainfeed/types"
)

const unknownErrorType = "unknown"

type ErrorMetrics struct {
	ErrorsTotal     *prometheus.CounterVec
	CategoriesTotal *prometheus.CounterVec
	ComponentHealth *prometheus.GaugeVec
}

func NewErrorMetrics() *ErrorMetrics {
	return &ErrorMetrics{
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "chainfeed_errors_total",
				Help:        "Total number of errors by component and type",
				ConstLabels: constLabels(),
			},
			[]string{"component", "error_type"},
		),
		CategoriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "chainfeed_error_categories_total",
				Help:        "Total number of errors by component and category (infrastructure, malformed_response, invalid_input)",
				ConstLabels: constLabels(),
			},
			[]string{"component", "category"},
		),
		ComponentHealth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name:        "chainfeed_component_health",
				Help:        "Health status of components (1=healthy, 0=unhealthy)",
				ConstLabels: constLabels(),
			},
			[]string{"component"},
		),
	}
}

func (e *ErrorMetrics) Register(reg *prometheus.Registry) {
	reg.MustRegister(
		e.ErrorsTotal,
		e.CategoriesTotal,
		e.ComponentHealth,
	)
}

// TrackError counts an error of the given type for component.
func TrackError(component, errorType string) {
	GetMetrics().Error.ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

// TrackStandardError counts err under its StandardError type and category.
// Errors of any other kind count as "unknown" and carry no category.
func TrackStandardError(component string, err error) {
	errType, ok := types.GetErrorType(err)
	if !ok {
		TrackError(component, unknownErrorType)
		return
	}
	TrackError(component, string(errType))
	GetMetrics().Error.CategoriesTotal.WithLabelValues(component, string(errType.Category())).Inc()
}

func SetComponentHealth(component string, healthy bool) {
	var status float64
	if healthy {
		status = 1
	}
	GetMetrics().Error.ComponentHealth.WithLabelValues(component).Set(status)
}
