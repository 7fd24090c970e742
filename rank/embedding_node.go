package rank

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/studyrec/core"
	"github.com/rushteam/studyrec/logging"
	"github.com/rushteam/studyrec/metrics"
	"github.com/rushteam/studyrec/model"
	"github.com/rushteam/studyrec/pipeline"
)

// DefaultMaxConcurrent 是候选 Embedding 的默认并发上限。
const DefaultMaxConcurrent = 8

// EmbeddingNode 是基于文本 Embedding 的打分 Node。
//
// 对每个候选的 "标题 描述" 编码，与 rctx.TopicVector 计算余弦相似度写入 Item.Score。
//   - 候选编码并发执行（errgroup + SetLimit），结果按输入顺序收集
//   - 单个候选编码失败只丢弃该候选，失败原因记录到 rctx.Failures()
//   - rctx.TopicVector 为空时先编码主题，主题编码失败则整体失败
//
// 本 Node 不排序，排序由 rerank.SortNode 完成。
type EmbeddingNode struct {
	Encoder       model.TextEncoder
	MaxConcurrent int
}

func (n *EmbeddingNode) Name() string        { return "rank.embedding" }
func (n *EmbeddingNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *EmbeddingNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}
	if n.Encoder == nil {
		return nil, core.NewDomainError(core.ModuleProvider, core.ErrorCodeNotConfigured, "text encoder is not set")
	}
	if rctx == nil {
		return nil, core.NewValidationError("recommend context is required")
	}

	if len(rctx.TopicVector) == 0 {
		vec, err := n.Encoder.EncodeText(ctx, rctx.Key.Topic)
		if err != nil {
			return nil, err
		}
		rctx.TopicVector = vec
	}

	limit := n.MaxConcurrent
	if limit <= 0 {
		limit = DefaultMaxConcurrent
	}

	scored := make([]*core.Item, len(items))
	var eg errgroup.Group
	eg.SetLimit(limit)

	for i, it := range items {
		if it == nil {
			continue
		}
		eg.Go(func() error {
			vec, err := n.Encoder.EncodeText(ctx, it.Candidate.Text())
			if err != nil {
				rctx.RecordFailure(core.CandidateFailure{
					ExternalID: it.ID,
					Title:      it.Candidate.Title,
					Err:        err,
				})
				metrics.CandidateFailures.Inc()
				logging.Ctx(ctx).Warn().Err(err).
					Str("video_id", it.ID).
					Str("title", it.Candidate.Title).
					Msg("candidate embedding failed, dropped")
				return nil
			}

			sim := model.CosineSimilarity(rctx.TopicVector, vec)
			it.Score = sim
			if it.Meta == nil {
				it.Meta = make(map[string]any)
			}
			it.Meta["similarity"] = sim
			it.PutLabel("rank_model", core.Label{Value: n.Encoder.Name(), Source: "rank"})
			it.PutLabel("rank_type", core.Label{Value: "embedding", Source: "rank"})
			scored[i] = it
			return nil
		})
	}
	_ = eg.Wait()

	// 请求被取消时所有候选都会失败，此时应返回错误而不是空结果
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]*core.Item, 0, len(scored))
	for _, it := range scored {
		if it != nil {
			out = append(out, it)
		}
	}
	return out, nil
}
