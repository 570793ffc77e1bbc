package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestsServed counts HTTP requests by outcome (success,
	// error-handled, failed)
	RequestsServed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "operator_requests_served_total",
		Help: "The total number of HTTP requests served, by outcome",
	}, []string{"outcome"})

	// Renders counts successful renders by strategy (static, template,
	// executable)
	Renders = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "operator_renders_total",
		Help: "The total number of successful renders, by strategy",
	}, []string{"strategy"})

	// RenderFailures counts failed resolve-and-render attempts by failure kind
	RenderFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "operator_render_failures_total",
		Help: "The total number of failed renders, by failure kind",
	}, []string{"kind"})

	// RenderDuration records how long renders take, by strategy
	RenderDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name: "operator_render_duration_seconds",
		Help: "Render duration, by strategy",
	}, []string{"strategy"})
)

func init() {
	prometheus.MustRegister(RequestsServed)
	prometheus.MustRegister(Renders)
	prometheus.MustRegister(RenderFailures)
	prometheus.MustRegister(RenderDuration)
}
