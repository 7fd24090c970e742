package rerank

import (
	"context"
	"sort"

	"github.com/rushteam/studyrec/core"
	"github.com/rushteam/studyrec/pipeline"
)

// SortNode 按分数降序稳定排序，同分时保持输入（视频搜索返回）顺序。
//
// 默认按对外的整数分数 round(sim*100) 比较，与持久化/返回的分数一致；
// ByRawScore 为 true 时按原始相似度比较。
type SortNode struct {
	ByRawScore bool
}

func (n *SortNode) Name() string {
	return "rerank.sort"
}

func (n *SortNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *SortNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it != nil {
			out = append(out, it)
		}
	}

	key := func(it *core.Item) float64 {
		if n.ByRawScore {
			return it.Score
		}
		return float64(core.ScoreFromSimilarity(it.Score))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return key(out[i]) > key(out[j])
	})
	return out, nil
}
