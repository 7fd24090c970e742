// Package studyrec 为学习课程推荐 YouTube 视频。
//
// 设计要点：
// - Pipeline-first: 排序逻辑通过 Node 串联（Recall → Rank → Filter → ReRank）
// - Labels-first: labels 全链路透传与标准化 merge，便于解释每个候选的来源与打分方式
// - Store-backed: 每个 (courseId, topic) 的推荐集持久化，命中即返回，发现重复即清空重建
package studyrec

import (
	"github.com/rushteam/studyrec/core"
	"github.com/rushteam/studyrec/pipeline"
)

// 轻量 facade：便于直接 import "studyrec" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

type Recommendation = core.Recommendation
type RecommendationKey = core.RecommendationKey

const (
	KindRecall = pipeline.KindRecall
	KindRank   = pipeline.KindRank
	KindFilter = pipeline.KindFilter
	KindReRank = pipeline.KindReRank
)

// MaxRecommendations 单个推荐集的最大条数
const MaxRecommendations = core.MaxRecommendations
