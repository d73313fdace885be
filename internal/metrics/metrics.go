package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "medorders"

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Metrics of the order alerting job. Registered on its own registry so it can be pushed as a whole
type Metrics struct {
	Registry *prometheus.Registry

	PagesFetched    prometheus.Counter
	OrdersProcessed prometheus.Counter
	Alerts          *prometheus.CounterVec
	Updates         *prometheus.CounterVec
	Runs            *prometheus.CounterVec
	RunDuration     prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),

		PagesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_fetched_total",
			Help:      "Total number of orders pages fetched",
		}),
		OrdersProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_processed_total",
			Help:      "Total number of orders processed",
		}),
		Alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_total",
			Help:      "Total number of delivered item alerts by result",
		}, []string{"result"}),
		Updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_total",
			Help:      "Total number of order updates by result",
		}, []string{"result"}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total number of batch runs by result",
		}, []string{"result"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of batch runs",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	m.Registry.MustRegister(
		m.PagesFetched,
		m.OrdersProcessed,
		m.Alerts,
		m.Updates,
		m.Runs,
		m.RunDuration,
	)

	return m
}

func (m *Metrics) PageFetched()         { m.PagesFetched.Inc() }
func (m *Metrics) OrderProcessed()      { m.OrdersProcessed.Inc() }
func (m *Metrics) AlertSent(err error)  { m.Alerts.WithLabelValues(result(err)).Inc() }
func (m *Metrics) UpdateSent(err error) { m.Updates.WithLabelValues(result(err)).Inc() }

func (m *Metrics) RunFinished(err error, duration time.Duration) {
	m.Runs.WithLabelValues(result(err)).Inc()
	m.RunDuration.Observe(duration.Seconds())
}

// Push sends all metrics to Prometheus Pushgateway under the job name
func (m *Metrics) Push(ctx context.Context, url string, job string) error {
	err := push.New(url, job).Gatherer(m.Registry).PushContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", url, err)
	}
	return nil
}

func result(err error) string {
	if err != nil {
		return ResultFailure
	}
	return ResultSuccess
}
