package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AnswersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "caseqa_answers_total",
			Help: "Total number of answers produced, by outcome",
		},
		[]string{"outcome"},
	)

	AnswerDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "caseqa_answer_duration_seconds",
			Help:    "Duration of answer generation in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"outcome"},
	)

	DocumentLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "caseqa_document_lookups_total",
			Help: "Total number of document lookups, by result",
		},
		[]string{"backend", "result"},
	)

	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "caseqa_http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"method", "path", "status"},
	)
)
