// Package api 提供 HTTP 接口：推荐排序、只读查询、学习内容查询、健康检查与指标。
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config HTTP 层配置
type Config struct {
	CORSAllowedOrigins []string
	RateLimitRequests  int
	RateLimitWindow    time.Duration
	RateLimitDisabled  bool
	// MaxBodyBytes 请求体上限，<= 0 时使用 DefaultMaxBodyBytes
	MaxBodyBytes int64
}

// DefaultMaxBodyBytes 默认请求体上限
const DefaultMaxBodyBytes int64 = 1 << 20

// DefaultConfig 返回默认配置。CORS 来源默认为空，需要显式配置。
func DefaultConfig() Config {
	return Config{
		CORSAllowedOrigins: []string{},
		RateLimitRequests:  60,
		RateLimitWindow:    time.Minute,
		MaxBodyBytes:       DefaultMaxBodyBytes,
	}
}

// NewRouter 组装路由与中间件。
//
//	POST /api/youtube-recommendations   生成（或命中）推荐集
//	GET  /api/youtube-recommendations   只读查询
//	POST /api/study-type                学习内容查询（content 为 nil 时不挂载）
//	GET  /api/health                    存活
//	GET  /api/health/ready              存储连通性
//	GET  /metrics                       Prometheus
func NewRouter(h *Handler, cfg Config) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         86400,
	}))
	r.Use(RequestLogger())

	r.Route("/api/health", func(r chi.Router) {
		r.Get("/", h.Health)
		r.Get("/ready", h.Ready)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(rateLimit(cfg))
		r.Use(maxBody(cfg.MaxBodyBytes))

		r.Post("/youtube-recommendations", h.Recommend)
		r.Get("/youtube-recommendations", h.LookupRecommendations)
		if h.content != nil {
			r.Post("/study-type", h.StudyType)
		}
	})

	r.Handle("/metrics", promhttp.Handler())
	return r
}

// rateLimit 按客户端 IP 限流（RealIP 之后执行，取到的是真实来源地址）
func rateLimit(cfg Config) func(http.Handler) http.Handler {
	if cfg.RateLimitDisabled || cfg.RateLimitRequests <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	window := cfg.RateLimitWindow
	if window <= 0 {
		window = time.Minute
	}
	return httprate.Limit(
		cfg.RateLimitRequests,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			respondError(w, http.StatusTooManyRequests, "Too many requests")
		}),
	)
}

func maxBody(limit int64) func(http.Handler) http.Handler {
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
