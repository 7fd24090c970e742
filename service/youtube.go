package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/rushteam/studyrec/core"
)

const (
	DefaultYouTubeEndpoint   = "https://www.googleapis.com"
	DefaultYouTubeMaxResults = 10
)

// YouTubeSearcher 是 YouTube Data API v3 search 接口的 core.VideoSearcher 实现。
//
// 请求：GET {endpoint}/youtube/v3/search?part=snippet&type=video&maxResults={n}&q={query}&key={apiKey}
type YouTubeSearcher struct {
	// Endpoint 服务地址（不含路径）
	Endpoint string

	// MaxResults 默认返回条数
	MaxResults int

	// Timeout 单次 HTTP 请求超时
	Timeout time.Duration

	// Retry 重试配置
	Retry RetryConfig

	credentials []CredentialSource
	apiKey      string
	httpClient  *http.Client
	caller      *resilientCaller
}

// YouTubeOption YouTube 客户端配置选项
type YouTubeOption func(*YouTubeSearcher)

// WithYouTubeEndpoint 设置服务地址
func WithYouTubeEndpoint(endpoint string) YouTubeOption {
	return func(s *YouTubeSearcher) {
		s.Endpoint = strings.TrimRight(endpoint, "/")
	}
}

// WithYouTubeCredentials 设置有序的凭证来源
func WithYouTubeCredentials(sources ...CredentialSource) YouTubeOption {
	return func(s *YouTubeSearcher) {
		s.credentials = sources
	}
}

// WithYouTubeMaxResults 设置默认返回条数
func WithYouTubeMaxResults(n int) YouTubeOption {
	return func(s *YouTubeSearcher) {
		s.MaxResults = n
	}
}

// WithYouTubeTimeout 设置超时时间
func WithYouTubeTimeout(timeout time.Duration) YouTubeOption {
	return func(s *YouTubeSearcher) {
		s.Timeout = timeout
	}
}

// WithYouTubeRetry 设置重试配置
func WithYouTubeRetry(retry RetryConfig) YouTubeOption {
	return func(s *YouTubeSearcher) {
		s.Retry = retry
	}
}

// WithYouTubeHTTPClient 使用自定义 HTTP 客户端（忽略 Timeout）
func WithYouTubeHTTPClient(client *http.Client) YouTubeOption {
	return func(s *YouTubeSearcher) {
		s.httpClient = client
	}
}

// NewYouTubeSearcher 创建一个新的 YouTube 搜索客户端。
func NewYouTubeSearcher(opts ...YouTubeOption) *YouTubeSearcher {
	s := &YouTubeSearcher{
		Endpoint:    DefaultYouTubeEndpoint,
		MaxResults:  DefaultYouTubeMaxResults,
		Timeout:     15 * time.Second,
		Retry:       DefaultRetryConfig(),
		credentials: []CredentialSource{EnvCredential("YOUTUBE_API_KEY")},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.apiKey, _ = ResolveCredential(s.credentials...)
	if s.httpClient == nil {
		s.httpClient = &http.Client{Timeout: s.Timeout}
	}
	s.caller = newResilientCaller(s.Name(), s.httpClient, s.Retry)
	return s
}

func (s *YouTubeSearcher) Name() string { return "youtube" }

// Configured 是否解析到了 API Key
func (s *YouTubeSearcher) Configured() bool { return s.apiKey != "" }

type youtubeSearchResponse struct {
	Items []youtubeSearchItem `json:"items"`
}

type youtubeSearchItem struct {
	ID      youtubeVideoID `json:"id"`
	Snippet struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Thumbnails  map[string]struct {
			URL string `json:"url"`
		} `json:"thumbnails"`
	} `json:"snippet"`
}

// youtubeVideoID 兼容 {"kind": "...", "videoId": "..."} 与裸字符串两种形态。
type youtubeVideoID string

func (v *youtubeVideoID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = youtubeVideoID(s)
		return nil
	}
	var obj struct {
		VideoID string `json:"videoId"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		// 无法识别的 id 视为缺失，由上层丢弃
		*v = ""
		return nil
	}
	*v = youtubeVideoID(obj.VideoID)
	return nil
}

// thumbnailPreference 缩略图优先级
var thumbnailPreference = []string{"medium", "high", "default"}

func (it youtubeSearchItem) candidate() core.Candidate {
	c := core.Candidate{
		ExternalID:  strings.TrimSpace(string(it.ID)),
		Title:       it.Snippet.Title,
		Description: it.Snippet.Description,
	}
	for _, size := range thumbnailPreference {
		if t, ok := it.Snippet.Thumbnails[size]; ok && t.URL != "" {
			c.ThumbnailURL = t.URL
			break
		}
	}
	return c
}

// Search 实现 core.VideoSearcher 接口。没有 videoId 的结果被丢弃。
func (s *YouTubeSearcher) Search(ctx context.Context, query string, limit int) ([]core.Candidate, error) {
	if s.apiKey == "" {
		return nil, core.ErrMissingCredential
	}
	if limit <= 0 {
		limit = s.MaxResults
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("maxResults", strconv.Itoa(limit))
	params.Set("q", query)
	params.Set("type", "video")
	params.Set("key", s.apiKey)
	endpoint := s.Endpoint + "/youtube/v3/search?" + params.Encode()

	body, err := s.caller.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, core.NewProviderError("youtube: search request failed", err)
	}

	var resp youtubeSearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, core.NewProviderError("youtube: invalid search response", err)
	}

	out := make([]core.Candidate, 0, len(resp.Items))
	for _, it := range resp.Items {
		c := it.candidate()
		if !c.HasID() {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}
