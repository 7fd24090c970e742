package service

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/rushteam/studyrec/core"
	"github.com/rushteam/studyrec/logging"
	"github.com/rushteam/studyrec/pkg/conv"
)

const (
	DefaultGeminiEndpoint = "https://generativelanguage.googleapis.com"
	DefaultGeminiModel    = "embedding-001"
)

// GeminiEmbedder 是 Gemini embedContent 接口的 core.Embedder 实现。
//
// 请求：POST {endpoint}/v1beta/models/{model}:embedContent?key={apiKey}
//
//	{"content": {"parts": [{"text": "..."}]}}
//
// 响应中的 embedding 字段可能是裸数组，也可能是 {"values": [...]}，统一在 decodeEmbedding 中归一化。
// API Key 在构造时按凭证来源顺序解析一次，之后不再读取环境。
type GeminiEmbedder struct {
	// Endpoint 服务地址（不含路径）
	Endpoint string

	// Model 模型名称
	Model string

	// Timeout 单次 HTTP 请求超时
	Timeout time.Duration

	// Retry 重试配置
	Retry RetryConfig

	credentials []CredentialSource
	apiKey      string
	keySource   string
	httpClient  *http.Client
	caller      *resilientCaller
}

// GeminiOption Gemini 客户端配置选项
type GeminiOption func(*GeminiEmbedder)

// WithGeminiEndpoint 设置服务地址
func WithGeminiEndpoint(endpoint string) GeminiOption {
	return func(e *GeminiEmbedder) {
		e.Endpoint = strings.TrimRight(endpoint, "/")
	}
}

// WithGeminiModel 设置模型名称
func WithGeminiModel(model string) GeminiOption {
	return func(e *GeminiEmbedder) {
		e.Model = model
	}
}

// WithGeminiCredentials 设置有序的凭证来源，第一个非空值生效
func WithGeminiCredentials(sources ...CredentialSource) GeminiOption {
	return func(e *GeminiEmbedder) {
		e.credentials = sources
	}
}

// WithGeminiTimeout 设置超时时间
func WithGeminiTimeout(timeout time.Duration) GeminiOption {
	return func(e *GeminiEmbedder) {
		e.Timeout = timeout
	}
}

// WithGeminiRetry 设置重试配置
func WithGeminiRetry(retry RetryConfig) GeminiOption {
	return func(e *GeminiEmbedder) {
		e.Retry = retry
	}
}

// WithGeminiHTTPClient 使用自定义 HTTP 客户端（忽略 Timeout）
func WithGeminiHTTPClient(client *http.Client) GeminiOption {
	return func(e *GeminiEmbedder) {
		e.httpClient = client
	}
}

// NewGeminiEmbedder 创建一个新的 Gemini Embedding 客户端。
func NewGeminiEmbedder(opts ...GeminiOption) *GeminiEmbedder {
	e := &GeminiEmbedder{
		Endpoint:    DefaultGeminiEndpoint,
		Model:       DefaultGeminiModel,
		Timeout:     30 * time.Second,
		Retry:       DefaultRetryConfig(),
		credentials: EnvCredentials(DefaultGeminiKeyEnv...),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.apiKey, e.keySource = ResolveCredential(e.credentials...)
	if e.httpClient == nil {
		e.httpClient = &http.Client{Timeout: e.Timeout}
	}
	e.caller = newResilientCaller(e.Name(), e.httpClient, e.Retry)
	return e
}

func (e *GeminiEmbedder) Name() string { return "gemini" }

// Configured 是否解析到了 API Key
func (e *GeminiEmbedder) Configured() bool { return e.apiKey != "" }

// KeySource 返回生效的凭证来源名（用于启动日志，不含密钥本身）
func (e *GeminiEmbedder) KeySource() string { return e.keySource }

type geminiEmbedRequest struct {
	Content geminiContent `json:"content"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiEmbedResponse struct {
	Embedding any `json:"embedding"`
}

// Embed 实现 core.Embedder 接口
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if e.apiKey == "" {
		return nil, core.ErrMissingCredential
	}

	payload, err := json.Marshal(geminiEmbedRequest{
		Content: geminiContent{Parts: []geminiPart{{Text: text}}},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:embedContent?key=%s",
		e.Endpoint, url.PathEscape(e.Model), url.QueryEscape(e.apiKey))

	logging.Ctx(ctx).Debug().Str("text", truncate(text, 80)).Msg("generating embedding")

	body, err := e.caller.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, core.NewProviderError("gemini: embed request failed", err)
	}

	vec, err := decodeEmbedding(body)
	if err != nil {
		return nil, core.NewProviderError("gemini: invalid embedding response", err)
	}
	return vec, nil
}

// decodeEmbedding 把 {"embedding": [...]} 或 {"embedding": {"values": [...]}} 归一化为 []float64。
func decodeEmbedding(body []byte) ([]float64, error) {
	var resp geminiEmbedResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	raw := resp.Embedding
	if m, ok := raw.(map[string]any); ok {
		raw = m["values"]
	}
	vec, ok := conv.ToFloat64Slice(raw)
	if !ok {
		return nil, fmt.Errorf("embedding has unexpected shape %T", resp.Embedding)
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("embedding is empty")
	}
	return vec, nil
}
