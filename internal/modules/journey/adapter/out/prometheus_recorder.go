package out

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	journeyout "shiftbuddy/internal/modules/journey/port/out"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	refreshDuration *prom.HistogramVec
	refreshResults  *prom.CounterVec
	currentStep     *prom.GaugeVec
}

// NewPrometheusRecorder constructs and registers the journey metrics on reg.
func NewPrometheusRecorder(reg prom.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		refreshDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "shiftbuddy",
			Name:      "slot_track_refresh_duration_seconds",
			Help:      "Duration of slot-track refreshes",
			Buckets:   prom.DefBuckets,
		}, []string{"outcome"}),
		refreshResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "shiftbuddy",
			Name:      "slot_track_refresh_total",
			Help:      "Slot-track refreshes by outcome (applied, stale, failed)",
		}, []string{"outcome"}),
		currentStep: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "shiftbuddy",
			Name:      "journey_current_step",
			Help:      "Current journey step per slot (5 = finished)",
		}, []string{"slot_id"}),
	}
	reg.MustRegister(pr.refreshDuration, pr.refreshResults, pr.currentStep)
	return pr
}

var _ journeyout.Recorder = (*PrometheusRecorder)(nil)

func (p *PrometheusRecorder) ObserveRefresh(outcome string, duration time.Duration) {
	p.refreshDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	p.refreshResults.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) SetStep(slotID string, step int) {
	p.currentStep.WithLabelValues(slotID).Set(float64(step))
}
