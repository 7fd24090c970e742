package store

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/rushteam/studyrec/core"
	"github.com/rushteam/studyrec/metrics"
)

// DefaultRedisPrefix 是 key 前缀默认值。
const DefaultRedisPrefix = "studyrec"

// RedisStore 是 Redis 实现的 RecommendationStore。
// 每个 (courseId, topic) 对应一个 List，元素为推荐记录的 JSON；Replace 使用 MULTI/EXEC 原子执行。
// 既可单独部署，也可作为 CachedStore 的缓存层（配合 TTL）。
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisOptions Redis 连接与 key 配置
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	// TTL 推荐集过期时间，0 表示不过期
	TTL time.Duration
}

func NewRedisStore(opts RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return NewRedisStoreWithClient(client, opts.Prefix, opts.TTL), nil
}

// NewRedisStoreWithClient 使用已有的 client 创建 RedisStore。
func NewRedisStoreWithClient(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisStore) Name() string { return "redis" }

// redisRecord 是 List 元素的 JSON 结构；core.Recommendation 的 JSON 形态不含 key 与时间。
type redisRecord struct {
	CourseID     string    `json:"courseId"`
	Topic        string    `json:"topic"`
	ExternalID   string    `json:"videoId"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	Score        int       `json:"similarityScore"`
	CreatedAt    time.Time `json:"createdAt"`
}

func toRedisRecord(rec core.Recommendation) redisRecord {
	return redisRecord(rec)
}

func (rr redisRecord) recommendation() core.Recommendation {
	return core.Recommendation(rr)
}

func (r *RedisStore) recKey(key core.RecommendationKey) string {
	return r.prefix + ":rec:" + url.QueryEscape(key.CourseID) + ":" + url.QueryEscape(key.Topic)
}

func (r *RedisStore) setKey(key string) string {
	return r.prefix + ":set:" + key
}

func (r *RedisStore) Find(ctx context.Context, key core.RecommendationKey) (recs []core.Recommendation, err error) {
	defer func() { metrics.RecordStoreOperation(r.Name(), "find", err) }()

	vals, err := r.client.LRange(ctx, r.recKey(key), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	recs = make([]core.Recommendation, 0, len(vals))
	for _, v := range vals {
		var rr redisRecord
		if err := json.Unmarshal([]byte(v), &rr); err != nil {
			return nil, core.WrapDomainError(core.ModuleStore, core.ErrorCodeDataAnomaly, "redis: corrupt recommendation record", err)
		}
		recs = append(recs, rr.recommendation())
	}
	sortByScore(recs)
	return recs, nil
}

func (r *RedisStore) DeleteAll(ctx context.Context, key core.RecommendationKey) (err error) {
	defer func() { metrics.RecordStoreOperation(r.Name(), "delete", err) }()
	return r.client.Del(ctx, r.recKey(key)).Err()
}

func (r *RedisStore) Insert(ctx context.Context, rec core.Recommendation) (err error) {
	defer func() { metrics.RecordStoreOperation(r.Name(), "insert", err) }()

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	data, err := json.Marshal(toRedisRecord(rec))
	if err != nil {
		return err
	}
	k := r.recKey(core.RecommendationKey{CourseID: rec.CourseID, Topic: rec.Topic})
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, k, data)
		if r.ttl > 0 {
			pipe.Expire(ctx, k, r.ttl)
		}
		return nil
	})
	return err
}

func (r *RedisStore) Replace(ctx context.Context, key core.RecommendationKey, recs []core.Recommendation) (err error) {
	defer func() { metrics.RecordStoreOperation(r.Name(), "replace", err) }()

	next := uniqueForKey(key, recs)
	now := time.Now()
	values := make([]any, 0, len(next))
	for _, rec := range next {
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		data, err := json.Marshal(toRedisRecord(rec))
		if err != nil {
			return err
		}
		values = append(values, data)
	}

	k := r.recKey(key)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, k)
		if len(values) > 0 {
			pipe.RPush(ctx, k, values...)
			if r.ttl > 0 {
				pipe.Expire(ctx, k, r.ttl)
			}
		}
		return nil
	})
	return err
}

// Members 返回集合成员；集合不存在时返回 core.ErrStoreNotFound。
func (r *RedisStore) Members(ctx context.Context, key string) ([]string, error) {
	members, err := r.client.SMembers(ctx, r.setKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, core.ErrStoreNotFound
		}
		return nil, err
	}
	if len(members) == 0 {
		return nil, core.ErrStoreNotFound
	}
	return members, nil
}

// AddMembers 向集合添加成员。
func (r *RedisStore) AddMembers(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	args := make([]any, len(members))
	for i, m := range members {
		args[i] = m
	}
	return r.client.SAdd(ctx, r.setKey(key), args...).Err()
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
