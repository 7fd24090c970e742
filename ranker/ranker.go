// Package ranker 编排一次 YouTube 推荐排序：读缓存、修复重复、生成、持久化。
package ranker

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/rushteam/studyrec/core"
	"github.com/rushteam/studyrec/logging"
	"github.com/rushteam/studyrec/metrics"
	"github.com/rushteam/studyrec/model"
	"github.com/rushteam/studyrec/pipeline"
)

// Ranker 是推荐排序的入口。
//
// 单个 key 的状态只有两种：Empty 与 Populated。
//   - Populated 且无重复：直接返回（缓存命中，不调用外部服务）
//   - Populated 但有重复外部 ID：删除整个集合并返回空（下一次调用重新生成）
//   - Empty：编码主题 -> 执行 Pipeline -> 原子替换 -> 返回
//
// 同一进程内对同一 key 的并发 Rank 调用通过 singleflight 合并，跟随者拿到首个调用的结果。
// 合并后的调用脱离发起者的取消信号执行（受 sharedTimeout 约束），每个调用方只等待自己的 ctx。
type Ranker struct {
	store    core.RecommendationStore
	encoder  model.TextEncoder
	pipeline *pipeline.Pipeline

	coalesce      bool
	sharedTimeout time.Duration
	group         singleflight.Group
}

// DefaultSharedTimeout 合并调用的执行上限
const DefaultSharedTimeout = 60 * time.Second

// Option Ranker 配置选项
type Option func(*Ranker)

// WithCoalescing 开关同 key 并发调用合并（默认开启）
func WithCoalescing(enabled bool) Option {
	return func(r *Ranker) {
		r.coalesce = enabled
	}
}

// WithSharedTimeout 设置合并调用的执行上限，<= 0 时使用 DefaultSharedTimeout
func WithSharedTimeout(d time.Duration) Option {
	return func(r *Ranker) {
		if d > 0 {
			r.sharedTimeout = d
		}
	}
}

// New 创建 Ranker。encoder 用于主题编码，pipeline 负责召回、打分、过滤与重排。
func New(store core.RecommendationStore, encoder model.TextEncoder, p *pipeline.Pipeline, opts ...Option) *Ranker {
	r := &Ranker{
		store:    store,
		encoder:  encoder,
		pipeline: p,
		coalesce: true,

		sharedTimeout: DefaultSharedTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rank 返回 key 的推荐集（最多 core.MaxRecommendations 条，外部 ID 互不相同）。
func (r *Ranker) Rank(ctx context.Context, key core.RecommendationKey) ([]core.Recommendation, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if !r.coalesce {
		return r.rank(ctx, key)
	}

	ch := r.group.DoChan(key.CourseID+"\x00"+key.Topic, func() (any, error) {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.sharedTimeout)
		defer cancel()
		return r.rank(sctx, key)
	})
	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	if res.Shared {
		logging.Ctx(ctx).Debug().Str("course_id", key.CourseID).Str("topic", key.Topic).Msg("rank call coalesced")
	}
	recs := res.Val.([]core.Recommendation)
	out := make([]core.Recommendation, len(recs))
	copy(out, recs)
	return out, nil
}

func (r *Ranker) rank(ctx context.Context, key core.RecommendationKey) ([]core.Recommendation, error) {
	log := logging.Ctx(ctx).With().Str("course_id", key.CourseID).Str("topic", key.Topic).Logger()

	existing, ok, err := r.cached(ctx, key)
	if err != nil {
		metrics.RankRequests.WithLabelValues("error").Inc()
		return nil, err
	}
	if ok {
		if len(existing) == 0 {
			metrics.RankRequests.WithLabelValues("repair").Inc()
		} else {
			metrics.RankRequests.WithLabelValues("hit").Inc()
			log.Info().Int("count", len(existing)).Msg("existing recommendations found")
		}
		return existing, nil
	}

	start := time.Now()
	recs, err := r.generate(ctx, key)
	metrics.RankDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RankRequests.WithLabelValues("error").Inc()
		log.Error().Err(err).Msg("generate recommendations failed")
		return nil, err
	}
	if len(recs) == 0 {
		metrics.RankRequests.WithLabelValues("empty").Inc()
	} else {
		metrics.RankRequests.WithLabelValues("miss").Inc()
	}
	return recs, nil
}

// cached 读取已存集合。ok 为 true 表示调用方应直接返回 recs（命中，或已修复为空）。
// 重复检查覆盖读到的全部记录，返回前截断到 core.MaxRecommendations 条。
func (r *Ranker) cached(ctx context.Context, key core.RecommendationKey) (recs []core.Recommendation, ok bool, err error) {
	existing, err := r.store.Find(ctx, key)
	if err != nil {
		return nil, false, core.WrapDomainError(core.ModuleStore, core.ErrorCodeInternalError, "find recommendations", err)
	}
	if len(existing) == 0 {
		return nil, false, nil
	}
	if core.HasDuplicateIDs(existing) {
		if err := r.repair(ctx, key, len(existing)); err != nil {
			return nil, false, err
		}
		return []core.Recommendation{}, true, nil
	}
	if len(existing) > core.MaxRecommendations {
		existing = existing[:core.MaxRecommendations]
	}
	return existing, true, nil
}

// repair 删除含重复外部 ID 的集合，本次调用返回空。
func (r *Ranker) repair(ctx context.Context, key core.RecommendationKey, count int) error {
	logging.Ctx(ctx).Warn().
		Err(core.ErrDuplicateRecommendations).
		Str("course_id", key.CourseID).
		Str("topic", key.Topic).
		Int("count", count).
		Msg("duplicate recommendations detected, clearing stored set")
	if err := r.store.DeleteAll(ctx, key); err != nil {
		return core.WrapDomainError(core.ModuleStore, core.ErrorCodeInternalError, "delete duplicate recommendations", err)
	}
	return nil
}

func (r *Ranker) generate(ctx context.Context, key core.RecommendationKey) ([]core.Recommendation, error) {
	if r.encoder == nil || r.pipeline == nil {
		return nil, core.NewDomainError(core.ModuleRanker, core.ErrorCodeNotConfigured, "ranker is not configured")
	}

	rctx := core.NewRecommendContext(key)
	topicVec, err := r.encoder.EncodeText(ctx, key.Topic)
	if err != nil {
		return nil, fmt.Errorf("embed topic: %w", err)
	}
	rctx.TopicVector = topicVec

	items, err := r.pipeline.Run(ctx, rctx, nil)
	if err != nil {
		return nil, err
	}
	if failures := rctx.Failures(); len(failures) > 0 {
		logging.Ctx(ctx).Warn().Int("failed", len(failures)).Int("kept", len(items)).Msg("some candidates dropped")
	}

	top := toRecommendations(key, items)
	if len(top) == 0 {
		logging.Ctx(ctx).Warn().Str("topic", key.Topic).Msg("no recommendations generated")
		return []core.Recommendation{}, nil
	}

	if err := r.store.Replace(ctx, key, top); err != nil {
		return nil, core.WrapDomainError(core.ModuleStore, core.ErrorCodeInternalError, "save recommendations", err)
	}
	logging.Ctx(ctx).Info().Str("course_id", key.CourseID).Str("topic", key.Topic).Int("count", len(top)).Msg("recommendations generated")
	return top, nil
}

// toRecommendations 把 Pipeline 输出转为推荐集，并保证外部 ID 唯一、条数不超过上限。
func toRecommendations(key core.RecommendationKey, items []*core.Item) []core.Recommendation {
	out := make([]core.Recommendation, 0, core.MaxRecommendations)
	for _, it := range items {
		if it == nil || len(out) == core.MaxRecommendations {
			continue
		}
		rec := it.ToRecommendation(key)
		if core.ContainsID(out, rec.ExternalID) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// Lookup 只读查询：返回已存集合（按分数降序，最多 core.MaxRecommendations 条），不会触发生成。
// 已存集合含重复外部 ID 时同样清空并返回空。
func (r *Ranker) Lookup(ctx context.Context, key core.RecommendationKey) ([]core.Recommendation, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	recs, ok, err := r.cached(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []core.Recommendation{}, nil
	}
	return recs, nil
}

// Ping 检查存储连通性
func (r *Ranker) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}
