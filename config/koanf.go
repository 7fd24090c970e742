package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar 指定配置文件路径的环境变量
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths 未指定 CONFIG_PATH 时依次查找的配置文件
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/studyrec/config.yaml",
}

// envMappings 环境变量到配置路径的映射，未列出的变量被忽略。
// GEMINI_API_KEY / GEMINI_API_KEY_2 / GEMINI_API_KEY_3 不在此列：由 service 包按顺序读取。
var envMappings = map[string]string{
	"http_addr":           "server.addr",
	"cors_origins":        "server.cors_origins",
	"rate_limit_requests": "server.rate_limit_requests",
	"rate_limit_disabled": "server.rate_limit_disabled",

	"database_url":            "database.url",
	"database_max_open_conns": "database.max_open_conns",

	"redis_addr":     "redis.addr",
	"redis_password": "redis.password",
	"redis_db":       "redis.db",
	"redis_ttl":      "redis.ttl",

	"embedding_endpoint":  "embedding.endpoint",
	"embedding_model":     "embedding.model",
	"embedding_api_key":   "embedding.api_key",
	"embedding_timeout":   "embedding.timeout",
	"embedding_key_envs":  "embedding.credential_env",
	"youtube_endpoint":    "youtube.endpoint",
	"youtube_api_key":     "youtube.api_key",
	"youtube_timeout":     "youtube.timeout",
	"youtube_max_results": "youtube.max_results",

	"ranker_search_limit":   "ranker.search_limit",
	"ranker_max_concurrent": "ranker.max_concurrent",
	"ranker_coalesce":       "ranker.coalesce",
	"ranker_pipeline_path":  "ranker.pipeline_path",
	"ranker_blacklist":      "ranker.blacklist",
	"ranker_filter_expr":    "ranker.filter_expr",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// sliceConfigPaths 环境变量中以逗号分隔的列表字段
var sliceConfigPaths = []string{
	"server.cors_origins",
	"embedding.credential_env",
	"ranker.blacklist",
}

// Load 加载配置：结构体默认值 -> YAML 文件（可选）-> 环境变量，最后校验。
func Load() (*AppConfig, error) {
	return LoadFile(findConfigFile())
}

// LoadFile 与 Load 相同，但显式指定配置文件（path 为空时跳过文件层）。
func LoadFile(path string) (*AppConfig, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultAppConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &AppConfig{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envTransformFunc 把环境变量名映射为配置路径；返回空字符串表示忽略该变量。
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

// processSliceFields 把环境变量中的逗号分隔字符串转为列表
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if err := k.Set(path, out); err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
	}
	return nil
}
