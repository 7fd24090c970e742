package core

import (
	"math"
	"strings"
	"time"
)

// MaxRecommendations 是单个 (courseId, topic) 推荐集的最大条数。
const MaxRecommendations = 5

// RecommendationKey 标识一个推荐集：课程 ID + 主题，精确匹配。
type RecommendationKey struct {
	CourseID string `json:"courseId" validate:"required"`
	Topic    string `json:"topic" validate:"required"`
}

// Validate 校验 courseId 与 topic 均非空。
func (k RecommendationKey) Validate() error {
	if strings.TrimSpace(k.CourseID) == "" || strings.TrimSpace(k.Topic) == "" {
		return NewValidationError("Course ID and topic are required")
	}
	return nil
}

func (k RecommendationKey) String() string {
	return k.CourseID + ":" + k.Topic
}

// Recommendation 是持久化 / 返回给调用方的推荐单元。
// Score 为 round(cosine * 100)。
type Recommendation struct {
	CourseID     string    `json:"-" db:"courseId"`
	Topic        string    `json:"-" db:"topic"`
	ExternalID   string    `json:"externalId" db:"videoId"`
	Title        string    `json:"title" db:"title"`
	Description  string    `json:"description" db:"description"`
	ThumbnailURL string    `json:"thumbnailUrl" db:"thumbnailUrl"`
	Score        int       `json:"score" db:"similarityScore"`
	CreatedAt    time.Time `json:"-" db:"createdAt"`
}

// ScoreFromSimilarity 把余弦相似度换算为整数分数（四舍五入，.5 向上取整）。
// NaN / Inf 应在进入排序前被 filter.DegenerateScoreFilter 剔除，这里兜底返回 0。
func ScoreFromSimilarity(sim float64) int {
	if math.IsNaN(sim) || math.IsInf(sim, 0) {
		return 0
	}
	return int(math.Floor(sim*100 + 0.5))
}

// HasDuplicateIDs 判断推荐集中是否存在重复的外部 ID。
func HasDuplicateIDs(recs []Recommendation) bool {
	seen := make(map[string]struct{}, len(recs))
	for _, r := range recs {
		if _, ok := seen[r.ExternalID]; ok {
			return true
		}
		seen[r.ExternalID] = struct{}{}
	}
	return false
}

// ContainsID 判断推荐集中是否已包含指定外部 ID。
func ContainsID(recs []Recommendation, externalID string) bool {
	for _, r := range recs {
		if r.ExternalID == externalID {
			return true
		}
	}
	return false
}
