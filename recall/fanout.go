package recall

import (
	"context"
	"errors"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/studyrec/core"
	"github.com/rushteam/studyrec/logging"
	"github.com/rushteam/studyrec/pipeline"
)

// Fanout 是一个 Recall Node：并发执行多个召回源，并按 Sources 顺序合并结果。
//   - 合并后的顺序固定为“源顺序 + 源内顺序”，与完成先后无关（后续稳定排序依赖该顺序）
//   - 单个源失败只丢弃该源；全部源失败时返回第一个错误
type Fanout struct {
	Sources       []Source
	Dedup         bool
	Timeout       time.Duration // 每个召回源的超时时间
	MaxConcurrent int           // 最大并发数（0 表示无限制）
}

func (n *Fanout) Name() string        { return "recall.fanout" }
func (n *Fanout) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *Fanout) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	if len(n.Sources) == 0 {
		return nil, nil
	}

	results := make([][]*core.Item, len(n.Sources))
	errs := make([]error, len(n.Sources))

	eg, egCtx := errgroup.WithContext(ctx)
	if n.MaxConcurrent > 0 {
		eg.SetLimit(n.MaxConcurrent)
	}

	for i, src := range n.Sources {
		eg.Go(func() error {
			recallCtx := egCtx
			if n.Timeout > 0 {
				var cancel context.CancelFunc
				recallCtx, cancel = context.WithTimeout(egCtx, n.Timeout)
				defer cancel()
			}

			items, err := src.Recall(recallCtx, rctx)
			if err != nil {
				// 不中断其他召回源
				errs[i] = err
				logging.Ctx(ctx).Warn().Err(err).Str("source", src.Name()).Msg("recall source failed")
				return nil
			}

			// 记录召回来源 label，方便 explain / 观测
			for _, it := range items {
				it.PutLabel("recall_source", core.Label{Value: src.Name(), Source: "recall"})
				it.PutLabel("recall_priority", core.Label{Value: strconv.Itoa(i), Source: "recall"})
			}
			results[i] = items
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var all []*core.Item
	failed := 0
	for i := range n.Sources {
		if errs[i] != nil {
			failed++
			continue
		}
		all = append(all, results[i]...)
	}
	if failed == len(n.Sources) {
		return nil, errors.Join(errs...)
	}

	return n.mergeFirst(all), nil
}

// mergeFirst 按 ID 去重，保留第一个出现的，并把后续同 ID 的 label 合并进来。
func (n *Fanout) mergeFirst(all []*core.Item) []*core.Item {
	if !n.Dedup {
		return all
	}
	seen := make(map[string]*core.Item, len(all))
	out := make([]*core.Item, 0, len(all))
	for _, it := range all {
		if it == nil {
			continue
		}
		if old, ok := seen[it.ID]; ok {
			for k, v := range it.Labels {
				old.PutLabel(k, v)
			}
			continue
		}
		seen[it.ID] = it
		out = append(out, it)
	}
	return out
}
