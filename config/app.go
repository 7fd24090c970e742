package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/rushteam/studyrec/api"
	"github.com/rushteam/studyrec/logging"
	"github.com/rushteam/studyrec/service"
	"github.com/rushteam/studyrec/store"
)

// AppConfig 是服务的完整配置，按 默认值 -> YAML 文件 -> 环境变量 的顺序叠加（见 Load）。
type AppConfig struct {
	Server    ServerConfig   `koanf:"server"`
	Database  DatabaseConfig `koanf:"database"`
	Redis     RedisConfig    `koanf:"redis"`
	Embedding ProviderConfig `koanf:"embedding"`
	YouTube   ProviderConfig `koanf:"youtube"`
	Ranker    RankerConfig   `koanf:"ranker"`
	Logging   LoggingConfig  `koanf:"logging"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Addr              string        `koanf:"addr" validate:"required"`
	ReadTimeout       time.Duration `koanf:"read_timeout" validate:"min=0"`
	WriteTimeout      time.Duration `koanf:"write_timeout" validate:"min=0"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout" validate:"min=0"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"min=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"min=0"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// DatabaseConfig Postgres 配置。URL 为空时推荐集存放在内存（或 Redis）中，且不提供学习内容接口。
type DatabaseConfig struct {
	URL             string        `koanf:"url" validate:"omitempty,url"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"min=0"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"min=0"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime" validate:"min=0"`
}

// RedisConfig Redis 配置。Addr 为空时不启用。
// 与 Postgres 同时配置时作为读穿缓存，否则作为推荐集的主存储。
type RedisConfig struct {
	Addr     string        `koanf:"addr" validate:"omitempty,hostname_port"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db" validate:"min=0"`
	Prefix   string        `koanf:"prefix"`
	TTL      time.Duration `koanf:"ttl" validate:"min=0"`
}

// ProviderConfig 外部服务配置
type ProviderConfig struct {
	Type                 string        `koanf:"type" validate:"omitempty,oneof=gemini youtube"`
	Endpoint             string        `koanf:"endpoint" validate:"omitempty,url"`
	Model                string        `koanf:"model"`
	APIKey               string        `koanf:"api_key"`
	CredentialEnv        []string      `koanf:"credential_env"`
	MaxResults           int           `koanf:"max_results" validate:"min=0,max=50"`
	Timeout              time.Duration `koanf:"timeout" validate:"min=0"`
	MaxRetries           int           `koanf:"max_retries" validate:"min=0,max=10"`
	RetryInitialInterval time.Duration `koanf:"retry_initial_interval" validate:"min=0"`
	RetryMaxInterval     time.Duration `koanf:"retry_max_interval" validate:"min=0"`
}

// RankerConfig 排序配置。PipelinePath 为空时使用内置 Pipeline（见 DefaultPipelineConfig）。
type RankerConfig struct {
	SearchLimit   int      `koanf:"search_limit" validate:"min=1,max=50"`
	MaxConcurrent int      `koanf:"max_concurrent" validate:"min=1,max=64"`
	Coalesce      bool     `koanf:"coalesce"`
	PipelinePath  string   `koanf:"pipeline_path"`
	Blacklist     []string `koanf:"blacklist"`
	BlacklistKey  string   `koanf:"blacklist_key"`
	FilterExpr    string   `koanf:"filter_expr"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error disabled off"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// defaultAppConfig 返回默认配置，作为 koanf 的第一层。
func defaultAppConfig() *AppConfig {
	retry := service.DefaultRetryConfig()
	return &AppConfig{
		Server: ServerConfig{
			Addr:              ":8080",
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      90 * time.Second,
			ShutdownTimeout:   20 * time.Second,
			CORSOrigins:       []string{},
			RateLimitRequests: 60,
			RateLimitWindow:   time.Minute,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Redis: RedisConfig{
			Prefix: "studyrec:rec:",
			TTL:    24 * time.Hour,
		},
		Embedding: ProviderConfig{
			Type:                 service.ProviderGemini,
			Model:                service.DefaultGeminiModel,
			Timeout:              10 * time.Second,
			MaxRetries:           retry.MaxRetries,
			RetryInitialInterval: retry.InitialInterval,
			RetryMaxInterval:     retry.MaxInterval,
		},
		YouTube: ProviderConfig{
			Type:                 service.ProviderYouTube,
			MaxResults:           service.DefaultYouTubeMaxResults,
			Timeout:              10 * time.Second,
			MaxRetries:           retry.MaxRetries,
			RetryInitialInterval: retry.InitialInterval,
			RetryMaxInterval:     retry.MaxInterval,
		},
		Ranker: RankerConfig{
			SearchLimit:   10,
			MaxConcurrent: 8,
			Coalesce:      true,
			BlacklistKey:  "studyrec:blacklist",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate 校验配置
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Ranker.FilterExpr != "" {
		if _, err := compileFilterExpr(c.Ranker.FilterExpr); err != nil {
			return fmt.Errorf("invalid ranker.filter_expr: %w", err)
		}
	}
	return nil
}

// ServiceConfig 转为 service 包的客户端配置
func (p ProviderConfig) ServiceConfig() *service.ProviderConfig {
	return &service.ProviderConfig{
		Type:          p.Type,
		Endpoint:      p.Endpoint,
		Model:         p.Model,
		APIKey:        p.APIKey,
		CredentialEnv: p.CredentialEnv,
		MaxResults:    p.MaxResults,
		Timeout:       p.Timeout,
		Retry: service.RetryConfig{
			MaxRetries:      p.MaxRetries,
			InitialInterval: p.RetryInitialInterval,
			MaxInterval:     p.RetryMaxInterval,
		},
	}
}

// APIConfig 转为 HTTP 层配置
func (s ServerConfig) APIConfig() api.Config {
	return api.Config{
		CORSAllowedOrigins: s.CORSOrigins,
		RateLimitRequests:  s.RateLimitRequests,
		RateLimitWindow:    s.RateLimitWindow,
		RateLimitDisabled:  s.RateLimitDisabled,
		MaxBodyBytes:       api.DefaultMaxBodyBytes,
	}
}

// LoggerConfig 转为 logging 包配置
func (l LoggingConfig) LoggerConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = l.Level
	cfg.Format = l.Format
	cfg.Caller = l.Caller
	return cfg
}

// PostgresOptions 转为连接池配置
func (d DatabaseConfig) PostgresOptions() store.PostgresOptions {
	return store.PostgresOptions{
		MaxOpenConns:    d.MaxOpenConns,
		MaxIdleConns:    d.MaxIdleConns,
		ConnMaxLifetime: d.ConnMaxLifetime,
	}
}

// RedisOptions 转为 Redis 存储配置
func (r RedisConfig) RedisOptions() store.RedisOptions {
	return store.RedisOptions{
		Addr:     r.Addr,
		Password: r.Password,
		DB:       r.DB,
		Prefix:   r.Prefix,
		TTL:      r.TTL,
	}
}
