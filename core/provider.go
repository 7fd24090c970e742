package core

import "context"

// Embedder 是文本 Embedding 服务的领域接口。
//
// 实现需在边界处把远端返回的不同结构（裸数组 / {"values": [...]}）统一为 []float64。
// 远端错误或缺少凭证时返回 Module 为 ModuleProvider 的 DomainError。
type Embedder interface {
	Name() string
	Embed(ctx context.Context, text string) ([]float64, error)
}

// VideoSearcher 是视频搜索服务的领域接口。
//
// limit <= 0 时使用实现自己的默认页大小。
type VideoSearcher interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]Candidate, error)
}
