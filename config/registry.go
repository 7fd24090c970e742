package config

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rushteam/studyrec/core"
	"github.com/rushteam/studyrec/filter"
	"github.com/rushteam/studyrec/model"
	"github.com/rushteam/studyrec/pipeline"
)

// 使用配置驱动时，需在 main 或入口处 import _ "github.com/rushteam/studyrec/config/builders"
// 以触发内置 Node（recall.search、rank.embedding、rerank.topn 等）的 init 注册。

// Dependencies 是构建 Node 时需要的运行期依赖（外部服务、存储），配置文件只描述参数。
type Dependencies struct {
	Searcher core.VideoSearcher
	Encoder  model.TextEncoder

	// Sets 黑名单集合的读取端（store.RedisStore / store.MemoryStore），可为 nil
	Sets filter.SetReader
}

// NodeBuilder 根据依赖与 config 构建 Node。
// 各组件在 init 中调用 Register(typeName, builder) 即可被配置驱动。
type NodeBuilder func(deps Dependencies, cfg map[string]any) (pipeline.Node, error)

var (
	defaultBuilders   = make(map[string]NodeBuilder)
	defaultBuildersMu sync.RWMutex
)

// Register 注册一种 Node 的构建逻辑，供 DefaultFactory 与配置驱动使用。
func Register(typeName string, builder NodeBuilder) {
	if typeName == "" || builder == nil {
		return
	}
	defaultBuildersMu.Lock()
	defer defaultBuildersMu.Unlock()
	defaultBuilders[typeName] = builder
}

// SupportedTypes 返回当前已注册的 Node 类型列表（排序），用于错误提示与校验。
func SupportedTypes() []string {
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	types := make([]string, 0, len(defaultBuilders))
	for t := range defaultBuilders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// DefaultFactory 返回绑定了 deps 的 NodeFactory，包含所有通过 Register 注册的 Node 类型。
func DefaultFactory(deps Dependencies) *pipeline.NodeFactory {
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	f := pipeline.NewNodeFactory()
	for typeName, builder := range defaultBuilders {
		f.Register(typeName, func(cfg map[string]any) (pipeline.Node, error) {
			return builder(deps, cfg)
		})
	}
	return f
}

// ValidatePipelineConfig 校验 pipeline 配置中所有 node 类型均已注册；若有未支持类型则返回包含已支持列表的错误。
func ValidatePipelineConfig(cfg *pipeline.Config) error {
	if cfg == nil {
		return fmt.Errorf("pipeline config is nil")
	}
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	for _, nc := range cfg.Pipeline.Nodes {
		if _, ok := defaultBuilders[nc.Type]; !ok {
			supported := make([]string, 0, len(defaultBuilders))
			for t := range defaultBuilders {
				supported = append(supported, t)
			}
			sort.Strings(supported)
			return fmt.Errorf("unsupported node type %q (supported: %v)", nc.Type, supported)
		}
	}
	return nil
}
