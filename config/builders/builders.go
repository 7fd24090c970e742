// Package builders 注册内置 Node 的配置构建逻辑。
package builders

import (
	"fmt"
	"time"

	"github.com/rushteam/studyrec/config"
	"github.com/rushteam/studyrec/core"
	"github.com/rushteam/studyrec/filter"
	"github.com/rushteam/studyrec/pipeline"
	"github.com/rushteam/studyrec/pkg/conv"
	"github.com/rushteam/studyrec/rank"
	"github.com/rushteam/studyrec/recall"
	"github.com/rushteam/studyrec/rerank"
)

func init() {
	config.Register("recall.search", BuildSearchNode)
	config.Register("recall.fanout", BuildFanoutNode)
	config.Register("rank.embedding", BuildEmbeddingNode)
	config.Register("filter", BuildFilterNode)
	config.Register("rerank.dedup", BuildDedupNode)
	config.Register("rerank.sort", BuildSortNode)
	config.Register("rerank.topn", BuildTopNNode)
}

func BuildSearchNode(deps config.Dependencies, cfg map[string]any) (pipeline.Node, error) {
	if deps.Searcher == nil {
		return nil, fmt.Errorf("recall.search requires a video searcher")
	}
	return &recall.SearchSource{
		Searcher: deps.Searcher,
		Limit:    conv.ConfigGetInt(cfg, "limit", recall.DefaultSearchLimit),
	}, nil
}

// BuildFanoutNode 构建多源召回，sources 支持 search 与 static：
//
//	type: recall.fanout
//	config:
//	  timeout: 5          # 秒
//	  sources:
//	    - { type: static, label: pinned, candidates: [{ id: abc, title: Intro }] }
//	    - { type: search, limit: 10 }
func BuildFanoutNode(deps config.Dependencies, cfg map[string]any) (pipeline.Node, error) {
	sourcesConfig := conv.ConfigGetMaps(cfg, "sources")
	if len(sourcesConfig) == 0 {
		return nil, fmt.Errorf("sources not found or invalid")
	}
	sources := make([]recall.Source, 0, len(sourcesConfig))
	for _, sc := range sourcesConfig {
		switch sourceType := conv.ConfigGet(sc, "type", ""); sourceType {
		case "search":
			node, err := BuildSearchNode(deps, sc)
			if err != nil {
				return nil, err
			}
			sources = append(sources, node.(*recall.SearchSource))
		case "static":
			sources = append(sources, &recall.Static{
				Label:      conv.ConfigGet(sc, "label", ""),
				Candidates: staticCandidates(conv.ConfigGetMaps(sc, "candidates")),
			})
		default:
			return nil, fmt.Errorf("unknown source type: %s", sourceType)
		}
	}
	fanout := &recall.Fanout{
		Sources: sources,
		Dedup:   conv.ConfigGet(cfg, "dedup", true),
	}
	if sec := conv.ConfigGetInt(cfg, "timeout", 0); sec > 0 {
		fanout.Timeout = time.Duration(sec) * time.Second
	}
	if n := conv.ConfigGetInt(cfg, "max_concurrent", 0); n > 0 {
		fanout.MaxConcurrent = n
	}
	return fanout, nil
}

func staticCandidates(raw []map[string]any) []core.Candidate {
	out := make([]core.Candidate, 0, len(raw))
	for _, m := range raw {
		out = append(out, core.Candidate{
			ExternalID:   conv.ConfigGet(m, "id", ""),
			Title:        conv.ConfigGet(m, "title", ""),
			Description:  conv.ConfigGet(m, "description", ""),
			ThumbnailURL: conv.ConfigGet(m, "thumbnail_url", ""),
		})
	}
	return out
}

func BuildEmbeddingNode(deps config.Dependencies, cfg map[string]any) (pipeline.Node, error) {
	if deps.Encoder == nil {
		return nil, fmt.Errorf("rank.embedding requires a text encoder")
	}
	return &rank.EmbeddingNode{
		Encoder:       deps.Encoder,
		MaxConcurrent: conv.ConfigGetInt(cfg, "max_concurrent", rank.DefaultMaxConcurrent),
	}, nil
}

func BuildFilterNode(deps config.Dependencies, cfg map[string]any) (pipeline.Node, error) {
	filtersConfig := conv.ConfigGetMaps(cfg, "filters")
	if len(filtersConfig) == 0 {
		return nil, fmt.Errorf("filters not found or invalid")
	}

	filters := make([]filter.Filter, 0, len(filtersConfig))
	for _, fc := range filtersConfig {
		switch filterType := conv.ConfigGet(fc, "type", ""); filterType {
		case "degenerate":
			filters = append(filters, &filter.DegenerateScoreFilter{})

		case "blacklist":
			ids := conv.SliceAnyToString(fc["item_ids"])
			if ids == nil {
				ids = []string{}
			}
			key := conv.ConfigGet(fc, "key", "")
			var adapter *filter.StoreAdapter
			if deps.Sets != nil && key != "" {
				adapter = filter.NewStoreAdapter(deps.Sets)
			}
			filters = append(filters, filter.NewBlacklistFilter(ids, adapter, key))

		case "expr":
			expr := conv.ConfigGet(fc, "expr", "")
			if expr == "" {
				return nil, fmt.Errorf("expr filter requires expr")
			}
			f, err := filter.NewExprFilter(expr, conv.ConfigGet(fc, "invert", false))
			if err != nil {
				return nil, fmt.Errorf("compile expr filter: %w", err)
			}
			filters = append(filters, f)

		default:
			return nil, fmt.Errorf("unknown filter type: %s", filterType)
		}
	}
	return &filter.FilterNode{Filters: filters}, nil
}

func BuildDedupNode(config.Dependencies, map[string]any) (pipeline.Node, error) {
	return &rerank.DedupNode{}, nil
}

func BuildSortNode(_ config.Dependencies, cfg map[string]any) (pipeline.Node, error) {
	return &rerank.SortNode{ByRawScore: conv.ConfigGet(cfg, "by_raw_score", false)}, nil
}

func BuildTopNNode(_ config.Dependencies, cfg map[string]any) (pipeline.Node, error) {
	n := conv.ConfigGetInt(cfg, "n", core.MaxRecommendations)
	if n <= 0 || n > core.MaxRecommendations {
		n = core.MaxRecommendations
	}
	return &rerank.TopNNode{N: n}, nil
}
