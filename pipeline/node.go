package pipeline

import (
	"context"

	"github.com/rushteam/studyrec/core"
)

// Kind 用于标记 Node 类型，方便观测/编排（例如按阶段打点）。
type Kind string

const (
	KindRecall Kind = "recall" // 召回阶段：从视频搜索服务生成候选集
	KindRank   Kind = "rank"   // 打分阶段：Embedding + 余弦相似度
	KindFilter Kind = "filter" // 过滤阶段：剔除退化分数、黑名单、规则不满足的候选
	KindReRank Kind = "rerank" // 重排阶段：去重、稳定排序、截断
)

// Node 是 Pipeline 的最小可扩展单元。
// 统一采用“输入 items -> 输出 items”的形态，方便 Recall 生成、Filter 截断、ReRank 重排等操作。
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		rctx *core.RecommendContext,
		items []*core.Item,
	) ([]*core.Item, error)
}
