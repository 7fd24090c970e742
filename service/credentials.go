package service

import (
	"os"
	"strings"
)

// DefaultGeminiKeyEnv 是 Gemini API Key 的环境变量槽位，按顺序取第一个非空值。
var DefaultGeminiKeyEnv = []string{"GEMINI_API_KEY", "GEMINI_API_KEY_2", "GEMINI_API_KEY_3"}

// CredentialSource 是一个凭证来源（环境变量、配置文件、密钥管理服务...）。
type CredentialSource interface {
	Name() string
	Lookup() (string, bool)
}

type envCredential string

// EnvCredential 从环境变量读取凭证。
func EnvCredential(name string) CredentialSource { return envCredential(name) }

func (e envCredential) Name() string { return "env:" + string(e) }

func (e envCredential) Lookup() (string, bool) {
	v, ok := os.LookupEnv(string(e))
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

type staticCredential struct {
	name  string
	value string
}

// StaticCredential 使用固定值（通常来自配置文件）。
func StaticCredential(name, value string) CredentialSource {
	return staticCredential{name: name, value: strings.TrimSpace(value)}
}

func (s staticCredential) Name() string { return s.name }

func (s staticCredential) Lookup() (string, bool) { return s.value, s.value != "" }

// EnvCredentials 把环境变量名列表转为有序的凭证来源。
func EnvCredentials(names ...string) []CredentialSource {
	out := make([]CredentialSource, 0, len(names))
	for _, n := range names {
		out = append(out, EnvCredential(n))
	}
	return out
}

// ResolveCredential 按顺序返回第一个非空凭证及其来源名；全部为空时返回 ("", "")。
func ResolveCredential(sources ...CredentialSource) (value, source string) {
	for _, s := range sources {
		if s == nil {
			continue
		}
		if v, ok := s.Lookup(); ok {
			return v, s.Name()
		}
	}
	return "", ""
}
