package recall

import (
	"context"
	"fmt"

	"github.com/rushteam/studyrec/core"
	"github.com/rushteam/studyrec/pipeline"
	"github.com/rushteam/studyrec/pkg/conv"
)

// DefaultSearchLimit 是视频搜索默认返回条数。
const DefaultSearchLimit = 10

// ParamSearchLimit 是请求级参数名，可覆盖 SearchSource.Limit。
const ParamSearchLimit = "search_limit"

// SearchSource 以请求主题为查询词，从视频搜索服务召回候选。
//   - 没有外部 ID 的候选被静默丢弃
//   - 搜索失败直接返回错误（对整次排序是致命的）
//
// SearchSource 同时实现了 Source 和 Node 接口，可以直接在 Pipeline 中使用
type SearchSource struct {
	Searcher core.VideoSearcher
	Limit    int
}

func (r *SearchSource) Name() string        { return "recall.search" }
func (r *SearchSource) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall
func (r *SearchSource) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口
func (r *SearchSource) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Searcher == nil {
		return nil, core.NewDomainError(core.ModuleProvider, core.ErrorCodeNotConfigured, "video searcher is not set")
	}
	if rctx == nil {
		return nil, core.NewValidationError("recommend context is required")
	}

	limit := r.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	limit = conv.ConfigGetInt(rctx.Params, ParamSearchLimit, limit)

	candidates, err := r.Searcher.Search(ctx, rctx.Key.Topic, limit)
	if err != nil {
		if core.IsDomainError(err) {
			return nil, err
		}
		return nil, core.NewProviderError(fmt.Sprintf("%s: search failed", r.Searcher.Name()), err)
	}

	items := make([]*core.Item, 0, len(candidates))
	for _, c := range candidates {
		if !c.HasID() {
			continue
		}
		it := core.NewItem(c)
		it.PutLabel("search_provider", core.Label{Value: r.Searcher.Name(), Source: "recall"})
		items = append(items, it)
	}
	return items, nil
}
