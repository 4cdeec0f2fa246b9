package services

import (
	"context"
	"time"

	aws_pkg "restaurant-service/pkg/aws"
)

const metricsService = "restaurant-service"

func metricDimensions(extra map[string]string) map[string]string {
	dims := map[string]string{"Service": metricsService}
	for k, v := range extra {
		dims[k] = v
	}
	return dims
}

// recordCount emits a count asynchronously so CloudWatch latency never adds
// to request time.
func recordCount(m *aws_pkg.MetricsClient, metric string, extra map[string]string) {
	if m == nil || !m.IsEnabled() {
		return
	}
	dims := metricDimensions(extra)
	go func() {
		metricCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = m.RecordCount(metricCtx, metric, dims)
	}()
}

func recordValue(m *aws_pkg.MetricsClient, metric string, value float64, extra map[string]string) {
	if m == nil || !m.IsEnabled() {
		return
	}
	dims := metricDimensions(extra)
	go func() {
		metricCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = m.RecordValue(metricCtx, metric, value, dims)
	}()
}
