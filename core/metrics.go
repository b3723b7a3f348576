package core

import "context"

// NopMetricsRecorder discards pipeline metrics. It is the default recorder so
// the submit/status counters and duration histograms cost nothing unless a
// deployment plugs in a real backend via WithMetricsRecorder.
type NopMetricsRecorder struct{}

func (NopMetricsRecorder) IncCounter(context.Context, string, int64, map[string]string) {}

func (NopMetricsRecorder) ObserveHistogram(context.Context, string, float64, map[string]string) {}

// cloneTags copies metric tags before handing them to a recorder, since
// observeOperation reuses its tag maps across the counter and histogram
// calls for one operation.
func cloneTags(tags map[string]string) map[string]string {
	if len(tags) == 0 {
		return map[string]string{}
	}
	copied := make(map[string]string, len(tags))
	for key, value := range tags {
		copied[key] = value
	}
	return copied
}

var _ MetricsRecorder = NopMetricsRecorder{}
