package store

import (
	"context"
	"sync"
	"time"

	"github.com/rushteam/studyrec/core"
)

// MemoryStore 是内存实现的 RecommendationStore，用于测试/开发/原型。
// 进程重启后数据丢失。同时提供字符串集合（黑名单）读写。
type MemoryStore struct {
	mu   sync.RWMutex
	recs map[core.RecommendationKey][]core.Recommendation
	sets map[string]map[string]struct{}

	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		recs: make(map[core.RecommendationKey][]core.Recommendation),
		sets: make(map[string]map[string]struct{}),
		now:  time.Now,
	}
}

func (m *MemoryStore) Name() string { return "memory" }

func (m *MemoryStore) Find(_ context.Context, key core.RecommendationKey) ([]core.Recommendation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored := m.recs[key]
	out := make([]core.Recommendation, len(stored))
	copy(out, stored)
	sortByScore(out)
	return out, nil
}

func (m *MemoryStore) DeleteAll(_ context.Context, key core.RecommendationKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.recs, key)
	return nil
}

func (m *MemoryStore) Insert(_ context.Context, rec core.Recommendation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := core.RecommendationKey{CourseID: rec.CourseID, Topic: rec.Topic}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = m.now()
	}
	m.recs[key] = append(m.recs[key], rec)
	return nil
}

func (m *MemoryStore) Replace(_ context.Context, key core.RecommendationKey, recs []core.Recommendation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := uniqueForKey(key, recs)
	if len(next) == 0 {
		delete(m.recs, key)
		return nil
	}
	now := m.now()
	for i := range next {
		if next[i].CreatedAt.IsZero() {
			next[i].CreatedAt = now
		}
	}
	m.recs[key] = next
	return nil
}

// Members 返回集合成员；集合不存在时返回 core.ErrStoreNotFound。
func (m *MemoryStore) Members(_ context.Context, key string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	set, ok := m.sets[key]
	if !ok {
		return nil, core.ErrStoreNotFound
	}
	out := make([]string, 0, len(set))
	for member := range set {
		out = append(out, member)
	}
	return out, nil
}

// AddMembers 向集合添加成员。
func (m *MemoryStore) AddMembers(_ context.Context, key string, members ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	set, ok := m.sets[key]
	if !ok {
		set = make(map[string]struct{}, len(members))
		m.sets[key] = set
	}
	for _, member := range members {
		set[member] = struct{}{}
	}
	return nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }
