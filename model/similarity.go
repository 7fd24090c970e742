package model

import "math"

// CosineSimilarity 计算两个向量的余弦相似度，取值 [-1, 1]。
//
// 向量为空或长度不一致时返回 0（表示不可比较，而非相同）。
// 任一向量模为 0 时结果为 NaN，由 filter.DegenerateScoreFilter 在排序前剔除。
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
