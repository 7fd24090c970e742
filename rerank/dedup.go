package rerank

import (
	"context"

	"github.com/rushteam/studyrec/core"
	"github.com/rushteam/studyrec/pipeline"
)

// DedupNode 按外部 ID 去重，保留第一次出现的候选（即视频搜索返回顺序中靠前的那个）。
// 去重在打分之后执行，打分失败被丢弃的候选不会占用 ID。
type DedupNode struct{}

func (n *DedupNode) Name() string {
	return "rerank.dedup"
}

func (n *DedupNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *DedupNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	seen := make(map[string]bool, len(items))
	out := make([]*core.Item, 0, len(items))

	for _, it := range items {
		if it == nil || seen[it.ID] {
			continue
		}
		seen[it.ID] = true
		out = append(out, it)
	}
	return out, nil
}
