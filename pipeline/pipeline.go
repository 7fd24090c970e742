package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rushteam/studyrec/core"
	"github.com/rushteam/studyrec/logging"
)

// Pipeline 把一次排序拆成可组合的 Node 链：召回 -> 打分 -> 过滤 -> 重排。
type Pipeline struct {
	Name  string
	Nodes []Node
}

// Run 依次执行各 Node；任一 Node 返回错误即中止。
func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		start := time.Now()
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", node.Name(), err)
		}
		logging.Ctx(ctx).Debug().
			Str("pipeline", p.Name).
			Str("node", node.Name()).
			Str("kind", string(node.Kind())).
			Int("in", len(cur)).
			Int("out", len(next)).
			Dur("took", time.Since(start)).
			Msg("pipeline node done")
		cur = next
		if len(cur) == 0 {
			// 无候选时后续节点无事可做
			break
		}
	}
	return cur, nil
}
