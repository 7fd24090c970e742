package model

import (
	"context"
	"fmt"

	"github.com/rushteam/studyrec/core"
)

// EmbeddingModel 是基于远程 Embedding 服务的文本编码模型。
//
// 核心思想：
//   - 主题文本与候选视频的 "标题 描述" 编码到同一向量空间
//   - 通过余弦相似度衡量候选与主题的语义相关性
//
// 工程特征：
//   - 实时性：中等（每个文本一次 RPC）
//   - 可解释性：中等（分数即相似度）
type EmbeddingModel struct {
	// Embedder 远程 Embedding 服务
	Embedder core.Embedder

	// Dimension 期望的向量维度，0 表示不校验
	Dimension int
}

// NewEmbeddingModel 创建一个新的 Embedding 模型。
func NewEmbeddingModel(embedder core.Embedder) *EmbeddingModel {
	return &EmbeddingModel{Embedder: embedder}
}

// WithDimension 设置期望的向量维度。
func (m *EmbeddingModel) WithDimension(dim int) *EmbeddingModel {
	m.Dimension = dim
	return m
}

func (m *EmbeddingModel) Name() string {
	if m.Embedder == nil {
		return "embedding"
	}
	return m.Embedder.Name()
}

// EncodeText 将单个文本编码为向量。
func (m *EmbeddingModel) EncodeText(ctx context.Context, text string) ([]float64, error) {
	if m.Embedder == nil {
		return nil, core.NewDomainError(core.ModuleProvider, core.ErrorCodeNotConfigured, "embedder is not set")
	}
	vec, err := m.Embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(vec) == 0 {
		return nil, core.NewProviderError("empty embedding", nil)
	}
	if m.Dimension > 0 && len(vec) != m.Dimension {
		return nil, core.NewProviderError(fmt.Sprintf("embedding dimension mismatch: expected %d, got %d", m.Dimension, len(vec)), nil)
	}
	return vec, nil
}

// EncodeTexts 逐条编码文本；任一失败即返回错误。
// 需要容错的批量场景请使用 rank.EmbeddingNode。
func (m *EmbeddingModel) EncodeTexts(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, 0, len(texts))
	for i, text := range texts {
		vec, err := m.EncodeText(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("encode text %d: %w", i, err)
		}
		out = append(out, vec)
	}
	return out, nil
}

// Similarity 计算两个向量的余弦相似度。
func (m *EmbeddingModel) Similarity(vec1, vec2 []float64) float64 {
	return CosineSimilarity(vec1, vec2)
}
