package recall

import (
	"context"

	"github.com/rushteam/studyrec/core"
)

// Static 返回固定的候选列表（置顶视频、演示数据、测试）。
type Static struct {
	Label      string
	Candidates []core.Candidate
}

func (r *Static) Name() string {
	if r.Label != "" {
		return r.Label
	}
	return "recall.static"
}

func (r *Static) Recall(_ context.Context, _ *core.RecommendContext) ([]*core.Item, error) {
	items := make([]*core.Item, 0, len(r.Candidates))
	for _, c := range r.Candidates {
		if !c.HasID() {
			continue
		}
		items = append(items, core.NewItem(c))
	}
	return items, nil
}
