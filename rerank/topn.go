package rerank

import (
	"context"

	"github.com/rushteam/studyrec/core"
	"github.com/rushteam/studyrec/pipeline"
)

// TopNNode 是一个 Top-N 截断节点，用于在排序后截取前 N 个候选。
// 推荐集固定为 core.MaxRecommendations 条。
//
// 示例：
//
//	pipeline := &pipeline.Pipeline{
//	    Nodes: []pipeline.Node{
//	        &rank.EmbeddingNode{...},              // 打分
//	        &rerank.DedupNode{},                   // 按外部 ID 去重
//	        &rerank.SortNode{},                    // 稳定降序
//	        &rerank.TopNNode{N: core.MaxRecommendations},
//	    },
//	}
type TopNNode struct {
	// N 要保留的候选数量（Top N）
	// 如果 N <= 0，则返回所有物品（不截断）
	// 如果 N > len(items)，则返回所有物品
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.N <= 0 {
		return items, nil
	}

	// 如果候选数量小于等于 N，直接返回
	if len(items) <= n.N {
		return items, nil
	}

	// 截取前 N 个候选
	return items[:n.N], nil
}
