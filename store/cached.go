package store

import (
	"context"
	"errors"

	"github.com/rushteam/studyrec/core"
	"github.com/rushteam/studyrec/logging"
)

// CachedStore 是读穿缓存：Primary 为权威存储（Postgres），Cache 为加速层（Redis）。
//   - Find 先读缓存，未命中读主存储并回填（仅回填无重复的集合，重复集合交由上层修复）
//   - 写操作先写主存储，再同步缓存；缓存写失败只记录日志
type CachedStore struct {
	Primary core.RecommendationStore
	Cache   core.RecommendationStore
}

func NewCachedStore(primary, cache core.RecommendationStore) *CachedStore {
	return &CachedStore{Primary: primary, Cache: cache}
}

func (s *CachedStore) Name() string {
	return s.Primary.Name() + "+" + s.Cache.Name()
}

func (s *CachedStore) Find(ctx context.Context, key core.RecommendationKey) ([]core.Recommendation, error) {
	if recs, err := s.Cache.Find(ctx, key); err == nil && len(recs) > 0 {
		return recs, nil
	} else if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("cache", s.Cache.Name()).Msg("cache read failed, falling back to primary")
	}

	recs, err := s.Primary.Find(ctx, key)
	if err != nil {
		return nil, err
	}
	if len(recs) > 0 && !core.HasDuplicateIDs(recs) {
		if err := s.Cache.Replace(ctx, key, recs); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("cache", s.Cache.Name()).Msg("cache fill failed")
		}
	}
	return recs, nil
}

func (s *CachedStore) DeleteAll(ctx context.Context, key core.RecommendationKey) error {
	if err := s.Primary.DeleteAll(ctx, key); err != nil {
		return err
	}
	s.invalidate(ctx, key)
	return nil
}

func (s *CachedStore) Insert(ctx context.Context, rec core.Recommendation) error {
	if err := s.Primary.Insert(ctx, rec); err != nil {
		return err
	}
	s.invalidate(ctx, core.RecommendationKey{CourseID: rec.CourseID, Topic: rec.Topic})
	return nil
}

func (s *CachedStore) Replace(ctx context.Context, key core.RecommendationKey, recs []core.Recommendation) error {
	if err := s.Primary.Replace(ctx, key, recs); err != nil {
		return err
	}
	if err := s.Cache.Replace(ctx, key, recs); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("cache", s.Cache.Name()).Msg("cache replace failed")
		s.invalidate(ctx, key)
	}
	return nil
}

func (s *CachedStore) invalidate(ctx context.Context, key core.RecommendationKey) {
	if err := s.Cache.DeleteAll(ctx, key); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("cache", s.Cache.Name()).Str("key", key.String()).Msg("cache invalidate failed")
	}
}

// Ping 只要求主存储可用；缓存不可用时降级为直读主存储。
func (s *CachedStore) Ping(ctx context.Context) error {
	if err := s.Primary.Ping(ctx); err != nil {
		return err
	}
	if err := s.Cache.Ping(ctx); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("cache", s.Cache.Name()).Msg("cache ping failed")
	}
	return nil
}

func (s *CachedStore) Close() error {
	return errors.Join(s.Primary.Close(), s.Cache.Close())
}
