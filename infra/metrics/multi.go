package metrics

import coremetrics "github.com/4Lajf/grafikonator-6000/core/metrics"

// MultiSink fans scheduling records out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordAssignments forwards the records to all sinks, returning the first
// error encountered.
func (m *MultiSink) RecordAssignments(results []coremetrics.AssignmentResult) error {
	for _, s := range m.Sinks {
		if err := s.RecordAssignments(results); err != nil {
			return err
		}
	}
	return nil
}

// RecordBatchRun forwards run summaries to sinks that support them.
func (m *MultiSink) RecordBatchRun(res coremetrics.BatchRunResult) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.BatchRunRecorder); ok {
			if err := rec.RecordBatchRun(res); err != nil {
				return err
			}
		}
	}
	return nil
}
