// Package store 提供 core.RecommendationStore 与 core.StudyContentStore 的实现。
//
// 注意：此包只包含实现，接口定义在 core 包。
//
// 示例：
//
//	var recs core.RecommendationStore = NewMemoryStore()
//	recs, err := NewPostgresStore(ctx, dsn)
//	recs = NewCachedStore(primary, redisStore)
package store

import (
	"sort"

	"github.com/rushteam/studyrec/core"
)

// sortByScore 按分数降序稳定排序（同分保持写入顺序）。
func sortByScore(recs []core.Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Score > recs[j].Score
	})
}

// uniqueForKey 把 recs 绑定到 key，并丢弃外部 ID 重复的条目（保留第一条）。
func uniqueForKey(key core.RecommendationKey, recs []core.Recommendation) []core.Recommendation {
	out := make([]core.Recommendation, 0, len(recs))
	for _, r := range recs {
		if core.ContainsID(out, r.ExternalID) {
			continue
		}
		r.CourseID = key.CourseID
		r.Topic = key.Topic
		out = append(out, r)
	}
	return out
}
