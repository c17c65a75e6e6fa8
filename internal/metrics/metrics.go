package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type ServerMetrics struct {
	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec
	// 決済確定の結果（confirmed / conflict / not_found / rejected / error）
	Payments *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// reg が nil ならデフォルトのレジストリに登録
func NewServerMetrics(service string, reg prometheus.Registerer) *ServerMetrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shopcart",
		Subsystem: service,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"handler", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "shopcart",
		Subsystem: service,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"handler"})
	payments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shopcart",
		Subsystem: service,
		Name:      "payment_confirmations_total",
		Help:      "Payment confirmations by outcome.",
	}, []string{"outcome"})

	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	} else if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}
	reg.MustRegister(requests, latency, payments)

	return &ServerMetrics{Requests: requests, LatencyMS: latency, Payments: payments, gatherer: gatherer}
}

func (m *ServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// HTTPステータスから決済確定の結果ラベルを決める
func PaymentOutcome(status int) string {
	switch {
	case status < 300:
		return "confirmed"
	case status == http.StatusConflict:
		return "conflict"
	case status == http.StatusNotFound:
		return "not_found"
	case status < 500:
		return "rejected"
	}
	return "error"
}
