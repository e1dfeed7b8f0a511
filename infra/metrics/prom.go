package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/4Lajf/grafikonator-6000/core/metrics"
)

// PromSink records scheduling outcomes in Prometheus metrics.
type PromSink struct {
	assignments *prometheus.CounterVec
	batchPairs  *prometheus.HistogramVec
	duration    prometheus.Histogram
}

// NewPromSink registers scheduling metrics on the default Prometheus
// registerer. The Prometheus server should be started separately using
// cfg.PrometheusPort.
func NewPromSink() (coremetrics.Sink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.Sink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	assignments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_assignments_total",
		Help: "Total number of processed (time slot, department) pairs",
	}, []string{"department", "tier", "assigned"})
	batchPairs := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "schedule_batch_pairs",
		Help:    "Pairs processed per batch run",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	}, []string{"outcome"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "schedule_batch_duration_seconds",
		Help:    "Wall time of one batch scheduling run",
		Buckets: prometheus.DefBuckets,
	})

	if err := reg.Register(assignments); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			assignments = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(batchPairs); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			batchPairs = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(duration); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			duration = are.ExistingCollector.(prometheus.Histogram)
		} else {
			return nil, err
		}
	}

	return &PromSink{assignments: assignments, batchPairs: batchPairs, duration: duration}, nil
}

// RecordAssignments increments the pair counter for each outcome.
func (s *PromSink) RecordAssignments(results []coremetrics.AssignmentResult) error {
	for _, r := range results {
		s.assignments.WithLabelValues(r.DepartmentName, r.Tier.String(), strconv.FormatBool(r.Assigned)).Inc()
	}
	return nil
}

// RecordBatchRun observes the run-level histograms.
func (s *PromSink) RecordBatchRun(res coremetrics.BatchRunResult) error {
	s.batchPairs.WithLabelValues("success").Observe(float64(res.Successes))
	s.batchPairs.WithLabelValues("failure").Observe(float64(res.Failures))
	s.duration.Observe(res.Duration.Seconds())
	return nil
}
