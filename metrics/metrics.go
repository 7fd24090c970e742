// Package metrics 定义服务的 Prometheus 指标，通过 promauto 注册到默认 Registry。
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RankRequests 按结果统计 Rank 调用：hit / miss / repair / empty / error
	RankRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studyrec_rank_requests_total",
			Help: "Total number of ranking calls by outcome",
		},
		[]string{"outcome"},
	)

	RankDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "studyrec_rank_duration_seconds",
			Help:    "Duration of ranking calls that reached the providers",
			Buckets: prometheus.DefBuckets,
		},
	)

	// CandidateFailures 单个候选 Embedding 失败（被丢弃，不影响整体）
	CandidateFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "studyrec_candidate_embedding_failures_total",
			Help: "Total number of candidates dropped because their embedding failed",
		},
	)

	// DegenerateScores 相似度为 NaN/Inf 的候选
	DegenerateScores = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "studyrec_degenerate_scores_total",
			Help: "Total number of candidates dropped because of a non-numeric similarity",
		},
	)

	ProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studyrec_provider_requests_total",
			Help: "Total number of outbound provider requests",
		},
		[]string{"provider", "status"},
	)

	ProviderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "studyrec_provider_request_duration_seconds",
			Help:    "Duration of outbound provider requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	// CircuitBreakerState 0=closed 1=half-open 2=open
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "studyrec_circuit_breaker_state",
			Help: "Current circuit breaker state per provider (0=closed, 1=half-open, 2=open)",
		},
		[]string{"provider"},
	)

	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studyrec_store_operations_total",
			Help: "Total number of store operations",
		},
		[]string{"backend", "operation", "status"},
	)

	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studyrec_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "studyrec_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordProviderRequest 记录一次外部服务调用
func RecordProviderRequest(provider string, duration time.Duration, err error) {
	ProviderRequests.WithLabelValues(provider, statusLabel(err)).Inc()
	ProviderDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordStoreOperation 记录一次存储操作
func RecordStoreOperation(backend, operation string, err error) {
	StoreOperations.WithLabelValues(backend, operation, statusLabel(err)).Inc()
}

// RecordAPIRequest 记录一次 HTTP 请求
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
