// Package model 提供文本编码与向量相似度计算。
package model

import "context"

// TextEncoder 是排序阶段的最小抽象：把文本编码为稠密向量。
// 具体实现可以是远程 Embedding 服务，也可以是测试中的固定向量表。
type TextEncoder interface {
	Name() string
	EncodeText(ctx context.Context, text string) ([]float64, error)
}
