package messaging

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	stepAuthenticate = "authenticate"
	stepProvision    = "provision"
	stepSendSMS      = "send_sms"
	stepSendMMS      = "send_mms"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "telstra_messaging",
		Name:      "requests_total",
		Help:      "Outbound Telstra Messaging API requests by step and outcome.",
	}, []string{"step", "outcome"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "telstra_messaging",
		Name:      "request_duration_seconds",
		Help:      "Latency of outbound Telstra Messaging API requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"step"})
)

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case IsAuthentication(err):
		return "unauthenticated"
	case IsTransport(err):
		return "transport_error"
	case IsRemoteService(err):
		return "remote_error"
	default:
		return "error"
	}
}
