package filter

import (
	"context"
	"math"

	"github.com/rushteam/studyrec/core"
	"github.com/rushteam/studyrec/metrics"
)

// DegenerateScoreFilter 过滤掉分数不是有限数的候选（NaN / ±Inf）。
// 零向量的余弦相似度为 NaN，若不剔除会破坏排序。
type DegenerateScoreFilter struct{}

func (f *DegenerateScoreFilter) Name() string {
	return "filter.degenerate"
}

func (f *DegenerateScoreFilter) ShouldFilter(
	_ context.Context,
	_ *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	if math.IsNaN(item.Score) || math.IsInf(item.Score, 0) {
		metrics.DegenerateScores.Inc()
		return true, nil
	}
	return false, nil
}
