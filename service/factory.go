package service

import (
	"fmt"
	"time"

	"github.com/rushteam/studyrec/core"
)

// 外部服务类型
const (
	ProviderGemini  = "gemini"
	ProviderYouTube = "youtube"
)

// ProviderConfig 是外部服务客户端的通用配置（由 config 包从应用配置转换而来）。
type ProviderConfig struct {
	// Type 服务类型：gemini / youtube
	Type string

	// Endpoint 服务地址，为空时使用默认值
	Endpoint string

	// Model 模型名称（Embedding 服务）
	Model string

	// APIKey 配置文件中的密钥，优先级最高
	APIKey string

	// CredentialEnv 依次尝试的环境变量名
	CredentialEnv []string

	// MaxResults 默认返回条数（搜索服务）
	MaxResults int

	// Timeout 单次请求超时
	Timeout time.Duration

	// Retry 重试配置
	Retry RetryConfig
}

func (c *ProviderConfig) credentials(defaultEnv ...string) []CredentialSource {
	sources := []CredentialSource{StaticCredential("config", c.APIKey)}
	env := c.CredentialEnv
	if len(env) == 0 {
		env = defaultEnv
	}
	return append(sources, EnvCredentials(env...)...)
}

// NewEmbedder 根据配置创建 Embedding 客户端（工厂方法）。
func NewEmbedder(config *ProviderConfig) (core.Embedder, error) {
	if config == nil {
		return nil, fmt.Errorf("provider config is required")
	}

	switch config.Type {
	case ProviderGemini, "":
		opts := []GeminiOption{
			WithGeminiCredentials(config.credentials(DefaultGeminiKeyEnv...)...),
			WithGeminiRetry(config.Retry),
		}
		if config.Endpoint != "" {
			opts = append(opts, WithGeminiEndpoint(config.Endpoint))
		}
		if config.Model != "" {
			opts = append(opts, WithGeminiModel(config.Model))
		}
		if config.Timeout > 0 {
			opts = append(opts, WithGeminiTimeout(config.Timeout))
		}
		return NewGeminiEmbedder(opts...), nil

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", config.Type)
	}
}

// NewVideoSearcher 根据配置创建视频搜索客户端（工厂方法）。
func NewVideoSearcher(config *ProviderConfig) (core.VideoSearcher, error) {
	if config == nil {
		return nil, fmt.Errorf("provider config is required")
	}

	switch config.Type {
	case ProviderYouTube, "":
		opts := []YouTubeOption{
			WithYouTubeCredentials(config.credentials("YOUTUBE_API_KEY")...),
			WithYouTubeRetry(config.Retry),
		}
		if config.Endpoint != "" {
			opts = append(opts, WithYouTubeEndpoint(config.Endpoint))
		}
		if config.MaxResults > 0 {
			opts = append(opts, WithYouTubeMaxResults(config.MaxResults))
		}
		if config.Timeout > 0 {
			opts = append(opts, WithYouTubeTimeout(config.Timeout))
		}
		return NewYouTubeSearcher(opts...), nil

	default:
		return nil, fmt.Errorf("unsupported search provider: %s", config.Type)
	}
}

// ValidateConfig 验证服务配置
func ValidateConfig(config *ProviderConfig) error {
	if config == nil {
		return fmt.Errorf("config is required")
	}
	switch config.Type {
	case "", ProviderGemini, ProviderYouTube:
	default:
		return fmt.Errorf("unknown provider type: %s", config.Type)
	}
	if config.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	if config.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry count must not be negative")
	}
	return nil
}
