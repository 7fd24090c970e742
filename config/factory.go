package config

import (
	"fmt"

	"github.com/rushteam/studyrec/core"
	"github.com/rushteam/studyrec/pipeline"
	"github.com/rushteam/studyrec/pkg/dsl"
)

// DefaultPipelineName 内置 Pipeline 名称
const DefaultPipelineName = "youtube-ranker"

// DefaultPipelineConfig 返回内置的排序 Pipeline：
//
//	recall.search -> rank.embedding -> filter(degenerate[, blacklist][, expr]) -> rerank.dedup -> rerank.sort -> rerank.topn
//
// 去重放在打分之后：打分失败被丢弃的候选不占用 ID，其后的同 ID 候选不会被补上（先出现者优先）。
func DefaultPipelineConfig(rc RankerConfig) *pipeline.Config {
	filters := []any{map[string]any{"type": "degenerate"}}
	if len(rc.Blacklist) > 0 || rc.BlacklistKey != "" {
		ids := make([]any, 0, len(rc.Blacklist))
		for _, id := range rc.Blacklist {
			ids = append(ids, id)
		}
		filters = append(filters, map[string]any{
			"type":     "blacklist",
			"item_ids": ids,
			"key":      rc.BlacklistKey,
		})
	}
	if rc.FilterExpr != "" {
		filters = append(filters, map[string]any{
			"type": "expr",
			"expr": rc.FilterExpr,
		})
	}

	cfg := &pipeline.Config{}
	cfg.Pipeline.Name = DefaultPipelineName
	cfg.Pipeline.Nodes = []pipeline.NodeConfig{
		{Type: "recall.search", Config: map[string]any{"limit": rc.SearchLimit}},
		{Type: "rank.embedding", Config: map[string]any{"max_concurrent": rc.MaxConcurrent}},
		{Type: "filter", Config: map[string]any{"filters": filters}},
		{Type: "rerank.dedup"},
		{Type: "rerank.sort"},
		{Type: "rerank.topn", Config: map[string]any{"n": core.MaxRecommendations}},
	}
	return cfg
}

// LoadPipeline 构建排序 Pipeline：配置了 PipelinePath 时从 YAML 文件加载，否则使用内置 Pipeline。
func LoadPipeline(rc RankerConfig, deps Dependencies) (*pipeline.Pipeline, error) {
	cfg := DefaultPipelineConfig(rc)
	if rc.PipelinePath != "" {
		loaded, err := pipeline.LoadFromYAML(rc.PipelinePath)
		if err != nil {
			return nil, fmt.Errorf("load pipeline %s: %w", rc.PipelinePath, err)
		}
		cfg = loaded
	}
	if err := ValidatePipelineConfig(cfg); err != nil {
		return nil, err
	}
	return cfg.BuildPipeline(DefaultFactory(deps))
}

func compileFilterExpr(expr string) (*dsl.Expr, error) {
	return dsl.Compile(expr)
}
