package filter

import (
	"context"

	"github.com/rushteam/studyrec/core"
	"github.com/rushteam/studyrec/pkg/dsl"
)

// ExprFilter 是基于 CEL 表达式的过滤器。
//
// 表达式为 true 的候选被保留（Invert 为 true 时反之）。例如：
//
//	!item.title.contains("#shorts")
//	item.description.size() > 0
type ExprFilter struct {
	expr   *dsl.Expr
	Invert bool
}

// NewExprFilter 编译表达式并创建过滤器。
func NewExprFilter(expr string, invert bool) (*ExprFilter, error) {
	e, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &ExprFilter{expr: e, Invert: invert}, nil
}

func (f *ExprFilter) Name() string {
	return "filter.expr"
}

func (f *ExprFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	keep, err := f.expr.Evaluate(item, rctx)
	if err != nil {
		return false, err
	}
	if f.Invert {
		keep = !keep
	}
	return !keep, nil
}
