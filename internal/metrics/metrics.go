package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "investment_tracker"

// SMS kinds
const (
	KindWelcome      = "welcome"
	KindConfirmation = "confirmation"
	KindMonthly      = "monthly"
)

// Registry holds every collector of the service
var Registry = prometheus.NewRegistry()

var (
	SMSSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sms_sent_total",
		Help:      "SMS dispatch attempts by kind and status.",
	}, []string{"kind", "status"})

	SummaryUsers = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "summary_batch_users_total",
		Help:      "Users processed by the monthly update batch by outcome (sent, skipped, failed).",
	}, []string{"outcome"})

	SummaryBatchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "summary_batch_duration_seconds",
		Help:      "Duration of a monthly update batch.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
	})

	SchedulerFirings = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scheduler_firings_total",
		Help:      "Monthly update firings by trigger (schedule, manual).",
	}, []string{"trigger"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		SMSSent,
		SummaryUsers,
		SummaryBatchDuration,
		SchedulerFirings,
	)
}

// Handler serves the registry in the Prometheus text format
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// ObserveSMS counts one dispatch attempt
func ObserveSMS(kind string, delivered bool) {
	status := "failed"
	if delivered {
		status = "delivered"
	}
	SMSSent.WithLabelValues(kind, status).Inc()
}
