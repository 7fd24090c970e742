package filter

import (
	"context"
	"errors"

	"github.com/rushteam/studyrec/core"
)

// SetReader 是按 key 读取字符串集合的最小存储接口（store.RedisStore / store.MemoryStore 实现）。
type SetReader interface {
	Members(ctx context.Context, key string) ([]string, error)
}

// StoreAdapter 将 SetReader 适配为过滤器所需的存储接口。
type StoreAdapter struct {
	store SetReader
}

// NewStoreAdapter 创建一个 SetReader 适配器。
func NewStoreAdapter(s SetReader) *StoreAdapter {
	return &StoreAdapter{store: s}
}

// GetBlacklist 从 Store 读取黑名单；key 不存在视为空名单。
func (a *StoreAdapter) GetBlacklist(ctx context.Context, key string) ([]string, error) {
	ids, err := a.store.Members(ctx, key)
	if errors.Is(err, core.ErrStoreNotFound) {
		return nil, nil
	}
	return ids, err
}
