package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/cenkalti/backoff/v4"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/rushteam/studyrec/logging"
	"github.com/rushteam/studyrec/metrics"
)

// maxErrorBody 是错误信息中保留的响应体长度上限
const maxErrorBody = 512

// RetryConfig 重试配置。MaxRetries 为 0 时不重试。
type RetryConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryConfig 默认重试 2 次，200ms 起指数退避。
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      2,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     2 * time.Second,
	}
}

// StatusError 表示外部服务返回了非 2xx 状态码。
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Retryable 429 与 5xx 视为可重试。
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// resilientCaller 为单个外部服务封装 HTTP 调用：熔断 + 指数退避重试 + 指标。
type resilientCaller struct {
	name       string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
	retry      RetryConfig
}

func newResilientCaller(name string, httpClient *http.Client, retry RetryConfig) *resilientCaller {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		// 连续 5 次失败，或至少 10 次请求中失败率 >= 60% 时熔断
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.ConsecutiveFailures >= 5 {
				return true
			}
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("provider", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
		// 4xx（除 429）是调用方问题，不计入熔断
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var se *StatusError
			return errors.As(err, &se) && !se.Retryable()
		},
	})

	return &resilientCaller{name: name, httpClient: httpClient, breaker: cb, retry: retry}
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// Do 发送请求并返回 2xx 响应体。newReq 每次重试都会被调用，以便重建请求体。
func (c *resilientCaller) Do(ctx context.Context, newReq func(ctx context.Context) (*http.Request, error)) ([]byte, error) {
	var body []byte

	operation := func() error {
		start := time.Now()
		b, err := c.breaker.Execute(func() ([]byte, error) {
			return c.once(ctx, newReq)
		})
		metrics.RecordProviderRequest(c.name, time.Since(start), err)
		if err != nil {
			if !isRetryable(err) {
				return backoff.Permanent(err)
			}
			logging.Ctx(ctx).Debug().Err(err).Str("provider", c.name).Msg("provider call failed, will retry")
			return err
		}
		body = b
		return nil
	}

	if err := backoff.Retry(operation, c.backoff(ctx)); err != nil {
		return nil, err
	}
	return body, nil
}

func (c *resilientCaller) backoff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if c.retry.InitialInterval > 0 {
		b.InitialInterval = c.retry.InitialInterval
	}
	if c.retry.MaxInterval > 0 {
		b.MaxInterval = c.retry.MaxInterval
	}
	b.MaxElapsedTime = 0

	retries := c.retry.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}

func (c *resilientCaller) once(ctx context.Context, newReq func(ctx context.Context) (*http.Request, error)) ([]byte, error) {
	req, err := newReq(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, redactURLError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

func isRetryable(err error) bool {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	// 网络错误
	var ue *url.Error
	return errors.As(err, &ue)
}

// redactURLError 去掉错误信息中 URL 携带的 key 参数。
func redactURLError(err error) error {
	var ue *url.Error
	if !errors.As(err, &ue) {
		return err
	}
	if u, perr := url.Parse(ue.URL); perr == nil {
		q := u.Query()
		if q.Has("key") {
			q.Set("key", "REDACTED")
			u.RawQuery = q.Encode()
			ue.URL = u.String()
		}
	}
	return ue
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "…(" + strconv.Itoa(len(s)) + " bytes)"
}
