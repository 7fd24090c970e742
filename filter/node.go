package filter

import (
	"context"

	"github.com/rushteam/studyrec/core"
	"github.com/rushteam/studyrec/logging"
	"github.com/rushteam/studyrec/pipeline"
)

// FilterNode 是过滤 Node，可以组合多个过滤器进行过滤。
// 如果任何一个过滤器返回 true，该物品就会被过滤掉。
// 保留下来的 Item 维持输入顺序。
type FilterNode struct {
	Filters []Filter
}

func (n *FilterNode) Name() string {
	return "filter.node"
}

func (n *FilterNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}

	out := make([]*core.Item, 0, len(items))
	filteredCount := 0

	for _, item := range items {
		if item == nil {
			continue
		}

		shouldFilter := false
		filterReason := ""

		// 依次检查每个过滤器
		for _, f := range n.Filters {
			ok, err := f.ShouldFilter(ctx, rctx, item)
			if err != nil {
				// 过滤器错误时保留该条并告警，不中断流程
				logging.Ctx(ctx).Warn().Err(err).Str("filter", f.Name()).Str("video_id", item.ID).Msg("filter error, item kept")
				continue
			}
			if ok {
				shouldFilter = true
				filterReason = f.Name()
				break
			}
		}

		if shouldFilter {
			filteredCount++
			item.PutLabel("filtered", core.Label{
				Value:  "true",
				Source: filterReason,
			})
			continue
		}

		out = append(out, item)
	}

	if filteredCount > 0 {
		logging.Ctx(ctx).Debug().Int("filtered", filteredCount).Int("kept", len(out)).Msg("candidates filtered")
	}
	return out, nil
}
