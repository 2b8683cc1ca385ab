package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronJobMetricsRecordsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)

	m.ObserveRun("basket-reminder", 250*time.Millisecond, nil)
	m.ObserveRun("basket-reminder", time.Second, errors.New("smtp"))
	m.ObserveRun("", time.Millisecond, nil)
	m.IncSkipped()

	mfs, err := reg.Gather()
	require.NoError(t, err)

	sum, err := fetchHistogramSum(mfs, "cron_job_duration_seconds", "job", "basket-reminder")
	require.NoError(t, err)
	assert.InDelta(t, 1.25, sum, 1e-9)

	failures, err := fetchCounterValue(mfs, "cron_job_runs_total", "outcome", OutcomeFailure)
	require.NoError(t, err)
	assert.Equal(t, 1.0, failures)

	_, err = fetchHistogramSum(mfs, "cron_job_duration_seconds", "job", "unknown")
	assert.NoError(t, err)

	assert.Equal(t, 2, testutil.CollectAndCount(m.lastSuccess))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.skipped))
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
