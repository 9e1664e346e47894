// Package metrics exposes the pipeline's prometheus instruments.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics aggregates the counters shared by the job runner and the AI
// layer. A nil *Metrics is safe to call.
type Metrics struct {
	JobsTotal    *prometheus.CounterVec
	FilesTotal   *prometheus.CounterVec
	AICallsTotal *prometheus.CounterVec
	RecordsTotal *prometheus.CounterVec
}

// New registers the instruments on reg (defaulting to the global registry).
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		JobsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "acervo_jobs_total",
			Help: "Digitization jobs by terminal status.",
		}, []string{"status"}),
		FilesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "acervo_files_total",
			Help: "Files processed by outcome.",
		}, []string{"outcome"}),
		AICallsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "acervo_ai_calls_total",
			Help: "Model calls by purpose and outcome.",
		}, []string{"purpose", "outcome"}),
		RecordsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "acervo_records_total",
			Help: "Extracted records by registry type.",
		}, []string{"tipo"}),
	}
}

func (m *Metrics) Job(status string) {
	if m != nil {
		m.JobsTotal.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) File(outcome string) {
	if m != nil {
		m.FilesTotal.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) AICall(purpose, outcome string) {
	if m != nil {
		m.AICallsTotal.WithLabelValues(purpose, outcome).Inc()
	}
}

func (m *Metrics) Record(tipo string) {
	if m != nil {
		m.RecordsTotal.WithLabelValues(tipo).Inc()
	}
}
