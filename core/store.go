package core

import "context"

// RecommendationStore 是推荐集存储的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store）实现
//   - 以 (courseId, topic) 精确匹配为 key，一个 key 对应一个推荐集
//
// 实现：
//   - store.MemoryStore（测试 / 开发）
//   - store.PostgresStore（生产，youtubeRecommendations 表）
//   - store.RedisStore（缓存或独立部署）
//   - store.CachedStore（Redis 读穿缓存 + Postgres 主存储）
type RecommendationStore interface {
	// Name 返回存储后端名称（用于日志/监控）
	Name() string

	// Find 返回 key 下已存的推荐集，按分数降序；不存在时返回空切片而非错误
	Find(ctx context.Context, key RecommendationKey) ([]Recommendation, error)

	// DeleteAll 删除 key 下的全部记录
	DeleteAll(ctx context.Context, key RecommendationKey) error

	// Insert 插入单条记录（不做去重）
	Insert(ctx context.Context, rec Recommendation) error

	// Replace 原子地替换 key 下的推荐集：先删除旧集合，再逐条插入，
	// 已存在相同外部 ID 的记录跳过（防并发写入重复）
	Replace(ctx context.Context, key RecommendationKey, recs []Recommendation) error

	// Ping 检查后端连通性
	Ping(ctx context.Context) error

	// Close 关闭连接/释放资源
	Close() error
}

// StudyContentStore 是学习内容（章节笔记、闪卡、测验、问答）的只读存储接口。
type StudyContentStore interface {
	// ChapterNotes 返回课程的全部章节笔记
	ChapterNotes(ctx context.Context, courseID string) ([]ChapterNote, error)

	// StudyContents 返回课程的学习内容；studyType 为空时返回全部类型
	StudyContents(ctx context.Context, courseID, studyType string) ([]StudyContent, error)
}
