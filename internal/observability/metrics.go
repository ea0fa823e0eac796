package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Domain collectors for the chat core. HTTP traffic is measured separately by
// the middleware package.
var (
	// exchanges counts orchestrated messages by terminal outcome.
	exchanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindcare_chat_exchanges_total",
			Help: "Chat messages handled, by outcome.",
		},
		[]string{"outcome"},
	)

	// providerLat records completion provider latency by backend and result.
	providerLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mindcare_llm_request_duration_seconds",
			Help:    "Duration of completion provider calls in seconds.",
			Buckets: []float64{.25, .5, 1, 2, 4, 8, 15, 30, 60},
		},
		[]string{"provider", "result"},
	)

	// quotaDenials counts rejected messages by caller kind (user or guest).
	quotaDenials = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mindcare_quota_denials_total",
			Help: "Messages denied because the daily allowance was used up.",
		},
		[]string{"caller"},
	)

	// crisisFlags counts messages tagged by the crisis screen.
	crisisFlags = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mindcare_crisis_flags_total",
			Help: "Messages flagged as indicating a possible crisis.",
		},
	)
)

func init() {
	prometheus.MustRegister(exchanges, providerLat, quotaDenials, crisisFlags)
}

// RecordExchange counts one message that ended in outcome.
func RecordExchange(outcome string) {
	exchanges.WithLabelValues(outcome).Inc()
}

// ObserveProvider records one provider call. ok selects the result label.
func ObserveProvider(provider string, d time.Duration, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	providerLat.WithLabelValues(provider, result).Observe(d.Seconds())
}

// RecordQuotaDenial counts a denial for caller ("user" or "guest").
func RecordQuotaDenial(caller string) {
	quotaDenials.WithLabelValues(caller).Inc()
}

// RecordCrisis counts one crisis-flagged message.
func RecordCrisis() {
	crisisFlags.Inc()
}
