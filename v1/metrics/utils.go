package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Aleph-Alpha/querykit/v1/observability"
	"github.com/Aleph-Alpha/querykit/v1/queryerr"
)

// ObserveOperation records an observed operation. Catalog queries feed the
// query series; every other operation feeds the backend series.
func (m *Metrics) ObserveOperation(op observability.OperationContext) {
	if op.Component == "catalog" && op.Operation == "query" {
		m.queriesTotal.WithLabelValues(op.Resource, op.SubResource).Inc()
		if op.Error != nil {
			m.queryErrorsTotal.WithLabelValues(op.Resource, queryerr.GetErrorCategory(op.Error).String()).Inc()
		}
		return
	}

	m.backendDuration.WithLabelValues(op.Component, op.Operation).Observe(op.Duration.Seconds())
	if op.Error != nil {
		m.backendErrors.WithLabelValues(op.Component, op.Operation).Inc()
	}
}

// CreateCounter creates and registers a CounterVec under the service label.
func (m *Metrics) CreateCounter(name, help string, labels []string) *prometheus.CounterVec {
	counter := createCounterVec(m.namespace, name, help, labels)
	m.registerer.MustRegister(counter)
	return counter
}

// CreateHistogram creates and registers a HistogramVec under the service label.
func (m *Metrics) CreateHistogram(name, help string, labels []string, buckets []float64) *prometheus.HistogramVec {
	hist := createHistogramVec(m.namespace, name, help, labels, buckets)
	m.registerer.MustRegister(hist)
	return hist
}

func createCounterVec(namespace, name, help string, labels []string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		},
		labels,
	)
}

func createHistogramVec(namespace, name, help string, labels []string, buckets []float64) *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
			Buckets:   buckets,
		},
		labels,
	)
}
