package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver

	"github.com/rushteam/studyrec/core"
	"github.com/rushteam/studyrec/metrics"
)

const (
	findRecommendationsSQL = `SELECT "courseId", topic, "videoId", title,
	COALESCE(description, '') AS description,
	COALESCE("thumbnailUrl", '') AS "thumbnailUrl",
	COALESCE("similarityScore", 0) AS "similarityScore",
	COALESCE("createdAt", NOW()) AS "createdAt"
FROM "youtubeRecommendations"
WHERE "courseId" = $1 AND topic = $2
ORDER BY "similarityScore" DESC NULLS LAST, id ASC`

	deleteRecommendationsSQL = `DELETE FROM "youtubeRecommendations" WHERE "courseId" = $1 AND topic = $2`

	insertRecommendationSQL = `INSERT INTO "youtubeRecommendations"
	("courseId", topic, "videoId", title, description, "thumbnailUrl", "similarityScore")
VALUES (:courseId, :topic, :videoId, :title, :description, :thumbnailUrl, :similarityScore)`

	// 已存在相同 videoId 时跳过，防并发写入重复
	insertRecommendationIfAbsentSQL = `INSERT INTO "youtubeRecommendations"
	("courseId", topic, "videoId", title, description, "thumbnailUrl", "similarityScore")
SELECT $1::varchar, $2::varchar, $3::varchar, $4::varchar, $5::text, $6::varchar, $7::integer
WHERE NOT EXISTS (
	SELECT 1 FROM "youtubeRecommendations" WHERE "courseId" = $1 AND topic = $2 AND "videoId" = $3
)`
)

// PostgresStore 是 Postgres 实现的 RecommendationStore（youtubeRecommendations 表）。
type PostgresStore struct {
	db *sqlx.DB
}

// PostgresOptions 连接池配置
type PostgresOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// OpenPostgres 建立连接并 Ping。
func OpenPostgres(ctx context.Context, dsn string, opts PostgresOptions) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}
	return db, nil
}

// NewPostgresStore 使用已建立的连接创建 PostgresStore。
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Name() string { return "postgres" }

func (s *PostgresStore) Find(ctx context.Context, key core.RecommendationKey) (recs []core.Recommendation, err error) {
	defer func() { metrics.RecordStoreOperation(s.Name(), "find", err) }()

	recs = []core.Recommendation{}
	if err := s.db.SelectContext(ctx, &recs, findRecommendationsSQL, key.CourseID, key.Topic); err != nil {
		return nil, fmt.Errorf("find recommendations: %w", err)
	}
	return recs, nil
}

func (s *PostgresStore) DeleteAll(ctx context.Context, key core.RecommendationKey) (err error) {
	defer func() { metrics.RecordStoreOperation(s.Name(), "delete", err) }()

	if _, err := s.db.ExecContext(ctx, deleteRecommendationsSQL, key.CourseID, key.Topic); err != nil {
		return fmt.Errorf("delete recommendations: %w", err)
	}
	return nil
}

func (s *PostgresStore) Insert(ctx context.Context, rec core.Recommendation) (err error) {
	defer func() { metrics.RecordStoreOperation(s.Name(), "insert", err) }()

	if _, err := s.db.NamedExecContext(ctx, insertRecommendationSQL, rec); err != nil {
		return fmt.Errorf("insert recommendation: %w", err)
	}
	return nil
}

// Replace 在一个事务内删除旧集合并写入新集合，避免出现可观测的空窗口。
func (s *PostgresStore) Replace(ctx context.Context, key core.RecommendationKey, recs []core.Recommendation) (err error) {
	defer func() { metrics.RecordStoreOperation(s.Name(), "replace", err) }()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, deleteRecommendationsSQL, key.CourseID, key.Topic); err != nil {
		return fmt.Errorf("delete recommendations: %w", err)
	}
	for _, rec := range recs {
		if _, err = tx.ExecContext(ctx, insertRecommendationIfAbsentSQL,
			key.CourseID, key.Topic, rec.ExternalID, rec.Title, rec.Description, rec.ThumbnailURL, rec.Score,
		); err != nil {
			return fmt.Errorf("insert recommendation %s: %w", rec.ExternalID, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
