package core

import "strings"

// Candidate 是视频搜索服务返回的候选视频（打分前的原始输入）。
type Candidate struct {
	ExternalID   string `json:"externalId"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
}

// Text 返回用于生成 Embedding 的文本：标题与描述以空格拼接。
func (c Candidate) Text() string {
	return c.Title + " " + c.Description
}

// HasID 判断候选是否带有可用的外部 ID。
func (c Candidate) HasID() bool {
	return strings.TrimSpace(c.ExternalID) != ""
}

// Item 是 Pipeline 中的统一承载结构：候选、相似度分数、元信息、标签。
// Score 保存原始余弦相似度，用于排序；最终对外的整数分数由 ScoreFromSimilarity 计算。
type Item struct {
	ID        string
	Score     float64
	Candidate Candidate
	Meta      map[string]any
	Labels    map[string]Label
}

func NewItem(c Candidate) *Item {
	return &Item{
		ID:        c.ExternalID,
		Candidate: c,
		Meta:      make(map[string]any),
		Labels:    make(map[string]Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按 MergeLabel 规则累积。
func (it *Item) PutLabel(key string, lbl Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// ToRecommendation 把打分后的 Item 转为可持久化的推荐记录。
func (it *Item) ToRecommendation(key RecommendationKey) Recommendation {
	return Recommendation{
		CourseID:     key.CourseID,
		Topic:        key.Topic,
		ExternalID:   it.ID,
		Title:        it.Candidate.Title,
		Description:  it.Candidate.Description,
		ThumbnailURL: it.Candidate.ThumbnailURL,
		Score:        ScoreFromSimilarity(it.Score),
	}
}
