// Command server 启动 YouTube 学习视频推荐服务。
//
// 配置来源依次为内置默认值、配置文件（CONFIG_PATH 或 ./config.yaml）、环境变量，详见 config 包。
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rushteam/studyrec/api"
	"github.com/rushteam/studyrec/config"
	_ "github.com/rushteam/studyrec/config/builders"
	"github.com/rushteam/studyrec/core"
	"github.com/rushteam/studyrec/filter"
	"github.com/rushteam/studyrec/logging"
	"github.com/rushteam/studyrec/model"
	"github.com/rushteam/studyrec/ranker"
	"github.com/rushteam/studyrec/service"
	"github.com/rushteam/studyrec/store"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("server exited")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Init(cfg.Logging.LoggerConfig())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer stores.close()

	embedder, err := service.NewEmbedder(cfg.Embedding.ServiceConfig())
	if err != nil {
		return err
	}
	searcher, err := service.NewVideoSearcher(cfg.YouTube.ServiceConfig())
	if err != nil {
		return err
	}
	warnIfUnconfigured("embedding", embedder)
	warnIfUnconfigured("search", searcher)

	encoder := model.NewEmbeddingModel(embedder)
	p, err := config.LoadPipeline(cfg.Ranker, config.Dependencies{
		Searcher: searcher,
		Encoder:  encoder,
		Sets:     stores.sets,
	})
	if err != nil {
		return err
	}
	r := ranker.New(stores.recs, encoder, p, ranker.WithCoalescing(cfg.Ranker.Coalesce))

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.NewRouter(api.NewHandler(r, stores.content), cfg.Server.APIConfig()),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().
			Str("addr", cfg.Server.Addr).
			Str("store", stores.recs.Name()).
			Str("pipeline", p.Name).
			Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logging.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type storeSet struct {
	recs    core.RecommendationStore
	content core.StudyContentStore
	sets    filter.SetReader
	closers []func() error
}

func (s *storeSet) close() {
	for _, c := range s.closers {
		if err := c(); err != nil {
			logging.Warn().Err(err).Msg("close store")
		}
	}
}

// openStores 按配置组装存储：
//
//	Postgres + Redis  -> CachedStore（Redis 读穿缓存）
//	仅 Postgres        -> PostgresStore
//	仅 Redis           -> RedisStore
//	都未配置           -> MemoryStore（进程内，重启丢失）
func openStores(ctx context.Context, cfg *config.AppConfig) (*storeSet, error) {
	s := &storeSet{}

	var primary core.RecommendationStore
	if cfg.Database.URL != "" {
		openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		db, err := store.OpenPostgres(openCtx, cfg.Database.URL, cfg.Database.PostgresOptions())
		cancel()
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, db.Close)
		primary = store.NewPostgresStore(db)
		s.content = store.NewPostgresContentStore(db)
	}

	if cfg.Redis.Addr != "" {
		rs, err := store.NewRedisStore(cfg.Redis.RedisOptions())
		if err != nil {
			s.close()
			return nil, err
		}
		s.closers = append(s.closers, rs.Close)
		s.sets = rs
		if primary != nil {
			s.recs = store.NewCachedStore(primary, rs)
		} else {
			s.recs = rs
		}
	} else {
		s.recs = primary
	}

	if s.recs == nil {
		mem := store.NewMemoryStore()
		s.recs = mem
		s.sets = mem
		logging.Warn().Msg("no database or redis configured, using in-memory store")
	}
	return s, nil
}

func warnIfUnconfigured(kind string, v any) {
	if c, ok := v.(interface{ Configured() bool }); ok && !c.Configured() {
		logging.Warn().Str("provider", kind).Msg("no api key configured, requests will fail until one is set")
	}
}
