// Package metrics exposes engine run telemetry as Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/piwi3910/OffcutReuse/internal/model"
)

const namespace = "offcut_reuse"

// Recorder holds the collectors for engine runs. A nil *Recorder is valid
// and records nothing.
type Recorder struct {
	runs         *prometheus.CounterVec
	assignments  prometheus.Counter
	unassigned   prometheus.Counter
	scorerFaults prometheus.Counter
	excluded     *prometheus.CounterVec
	duration     prometheus.Histogram
	overall      prometheus.Gauge
}

// NewRecorder creates the collectors and registers them on reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Engine runs by result status.",
		}, []string{"status"}),
		assignments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assignments_total",
			Help:      "Pieces assigned to existing offcuts.",
		}),
		unassigned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unassigned_pieces_total",
			Help:      "Pieces left for fresh sheets.",
		}),
		scorerFaults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scorer_faults_total",
			Help:      "Piece/offcut pairs degraded to incompatible after a scorer fault.",
		}),
		excluded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "excluded_entities_total",
			Help:      "Input records excluded because they could not be normalised.",
		}, []string{"kind"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of engine runs.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
		overall: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_overall_score",
			Help:      "Overall efficiency score of the most recent successful run.",
		}),
	}

	for _, c := range []prometheus.Collector{r.runs, r.assignments, r.unassigned, r.scorerFaults, r.excluded, r.duration, r.overall} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// ScorerFault counts one degraded pair.
func (r *Recorder) ScorerFault() {
	if r == nil {
		return
	}
	r.scorerFaults.Inc()
}

// ObserveRun records the outcome of a finished run.
func (r *Recorder) ObserveRun(res model.Result, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.runs.WithLabelValues(string(res.Status)).Inc()
	r.duration.Observe(elapsed.Seconds())
	for _, ex := range res.Exclusions {
		r.excluded.WithLabelValues(string(ex.Kind)).Inc()
	}
	if !res.OK() {
		return
	}
	r.assignments.Add(float64(len(res.Assignments)))
	r.unassigned.Add(float64(len(res.Unassigned)))
	r.overall.Set(res.Metrics.OverallScore)
}
