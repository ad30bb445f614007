package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "sheetgate"
)

var (
	fetchDurationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120}

	// Fetch Metrics
	FetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "fetch_duration_seconds",
		Help:      "Time taken for a spreadsheet fetch to complete.",
		Buckets:   fetchDurationBuckets,
	}, []string{"strategy"})

	FetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fetches_total",
		Help:      "Count of spreadsheet fetch requests.",
	}, []string{"strategy", "outcome"})

	// Token Exchange Metrics
	TokenExchangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_exchanges_total",
		Help:      "Count of OAuth JWT-bearer token exchanges.",
	}, []string{"outcome"})
)
