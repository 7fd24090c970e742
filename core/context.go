package core

import "sync"

// RecommendContext 承载一次排序请求的上下文，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	Key RecommendationKey

	// TopicVector 是主题文本的 Embedding，由 ranker 在执行 Pipeline 前生成
	TopicVector []float64

	// Labels 是请求级标签（例如 cache=miss）
	Labels map[string]Label

	// Params 请求级参数，例如搜索条数覆盖、调试开关
	Params map[string]any

	mu       sync.Mutex
	failures []CandidateFailure
}

// CandidateFailure 记录单个候选在打分阶段的失败原因（仅用于诊断，不影响整体结果）。
type CandidateFailure struct {
	ExternalID string
	Title      string
	Err        error
}

// NewRecommendContext 创建请求上下文。
func NewRecommendContext(key RecommendationKey) *RecommendContext {
	return &RecommendContext{
		Key:    key,
		Labels: make(map[string]Label),
		Params: make(map[string]any),
	}
}

// PutLabel 写入请求级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取请求级 Label。
func (rctx *RecommendContext) GetLabel(key string) (Label, bool) {
	if rctx.Labels == nil {
		return Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}

// RecordFailure 记录候选失败，可并发调用。
func (rctx *RecommendContext) RecordFailure(f CandidateFailure) {
	rctx.mu.Lock()
	defer rctx.mu.Unlock()
	rctx.failures = append(rctx.failures, f)
}

// Failures 返回已记录的候选失败（副本）。
func (rctx *RecommendContext) Failures() []CandidateFailure {
	rctx.mu.Lock()
	defer rctx.mu.Unlock()
	out := make([]CandidateFailure, len(rctx.failures))
	copy(out, rctx.failures)
	return out
}
