// Package dsl 提供基于 CEL (Common Expression Language) 的候选规则表达式。
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/studyrec/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

// getCELEnv 获取或创建 CEL 环境，定义 item / label / rctx 三个动态变量
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("item", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("rctx", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Expr 是编译后的布尔表达式，编译一次、并发求值。
//
// 表达式语法（CEL 标准语法）：
//   - 文本：item.title.contains("shorts") / item.description.size() > 20
//   - 数值：item.score >= 0.3
//   - 标签：label.recall_source == "search"
//   - 请求：rctx.topic == "graphs"
type Expr struct {
	source string
	prg    cel.Program
}

// Compile 编译表达式，要求结果类型为 bool。
func Compile(expr string) (*Expr, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile %q: %w", expr, issues.Err())
	}
	if ast.OutputType() != cel.BoolType && ast.OutputType() != cel.DynType {
		return nil, fmt.Errorf("expression %q must return bool, got %s", expr, ast.OutputType())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", expr, err)
	}
	return &Expr{source: expr, prg: prg}, nil
}

// String 返回原始表达式
func (e *Expr) String() string { return e.source }

// Evaluate 对单个 Item 求值。
func (e *Expr) Evaluate(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	out, _, err := e.prg.Eval(buildInput(item, rctx))
	if err != nil {
		// 访问不存在的 label key 会报错，规则应使用 has(label.key) 或 "key" in label 判断
		return false, fmt.Errorf("eval %q: %w", e.source, err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression %q must return boolean, got %T", e.source, out.Value())
	}
	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据
func buildInput(item *core.Item, rctx *core.RecommendContext) map[string]any {
	labels := make(map[string]any, len(item.Labels))
	for k, v := range item.Labels {
		labels[k] = v.Value
	}

	itemMap := map[string]any{
		"id":            item.ID,
		"score":         item.Score,
		"title":         item.Candidate.Title,
		"description":   item.Candidate.Description,
		"thumbnail_url": item.Candidate.ThumbnailURL,
	}

	rctxMap := map[string]any{}
	if rctx != nil {
		rctxMap["course_id"] = rctx.Key.CourseID
		rctxMap["topic"] = rctx.Key.Topic
	}

	return map[string]any{
		"item":  itemMap,
		"label": labels,
		"rctx":  rctxMap,
	}
}
