package ranker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/studyrec/core"
	"github.com/rushteam/studyrec/filter"
	"github.com/rushteam/studyrec/pipeline"
	"github.com/rushteam/studyrec/rank"
	"github.com/rushteam/studyrec/recall"
	"github.com/rushteam/studyrec/rerank"
	"github.com/rushteam/studyrec/store"
)

type fakeEncoder struct {
	mu      sync.Mutex
	vectors map[string][]float64
	fail    map[string]error
	calls   int
}

func (e *fakeEncoder) Name() string { return "fake" }
func (e *fakeEncoder) EncodeText(_ context.Context, text string) ([]float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if err, ok := e.fail[text]; ok {
		return nil, err
	}
	vec, ok := e.vectors[text]
	if !ok {
		return nil, core.NewProviderError("no vector for "+text, nil)
	}
	return vec, nil
}

func (e *fakeEncoder) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

type fakeSearcher struct {
	candidates []core.Candidate
	err        error
	calls      atomic.Int32
	started    chan struct{}
	release    chan struct{}
}

func (s *fakeSearcher) Name() string { return "fake" }
func (s *fakeSearcher) Search(ctx context.Context, _ string, _ int) ([]core.Candidate, error) {
	if s.calls.Add(1) == 1 && s.started != nil {
		close(s.started)
	}
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.candidates, s.err
}

// spyStore 统计写操作次数
type spyStore struct {
	*store.MemoryStore
	replaces atomic.Int32
	deletes  atomic.Int32
}

func (s *spyStore) Replace(ctx context.Context, key core.RecommendationKey, recs []core.Recommendation) error {
	s.replaces.Add(1)
	return s.MemoryStore.Replace(ctx, key, recs)
}

func (s *spyStore) DeleteAll(ctx context.Context, key core.RecommendationKey) error {
	s.deletes.Add(1)
	return s.MemoryStore.DeleteAll(ctx, key)
}

var testKey = core.RecommendationKey{CourseID: "course-1", Topic: "graphs"}

func candidate(id, title string) core.Candidate {
	return core.Candidate{ExternalID: id, Title: title, Description: "desc", ThumbnailURL: "https://img/" + id}
}

func testPipeline(s core.VideoSearcher, enc *fakeEncoder) *pipeline.Pipeline {
	return &pipeline.Pipeline{
		Name: "test",
		Nodes: []pipeline.Node{
			&recall.SearchSource{Searcher: s},
			&rank.EmbeddingNode{Encoder: enc},
			&filter.FilterNode{Filters: []filter.Filter{&filter.DegenerateScoreFilter{}}},
			&rerank.DedupNode{},
			&rerank.SortNode{},
			&rerank.TopNNode{N: core.MaxRecommendations},
		},
	}
}

func newRanker(st core.RecommendationStore, s *fakeSearcher, enc *fakeEncoder, opts ...Option) *Ranker {
	return New(st, enc, testPipeline(s, enc), opts...)
}

func TestRankOrdersBySimilarity(t *testing.T) {
	enc := &fakeEncoder{vectors: map[string][]float64{
		"graphs": {1, 0},
		"A desc": {0, 1},
		"B desc": {1, 0},
	}}
	s := &fakeSearcher{candidates: []core.Candidate{candidate("A", "A"), candidate("B", "B")}}
	st := &spyStore{MemoryStore: store.NewMemoryStore()}

	got, err := newRanker(st, s, enc).Rank(context.Background(), testKey)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "B", got[0].ExternalID)
	assert.Equal(t, 100, got[0].Score)
	assert.Equal(t, "A", got[1].ExternalID)
	assert.Equal(t, 0, got[1].Score)
	assert.Equal(t, testKey.CourseID, got[0].CourseID)
	assert.Equal(t, "https://img/B", got[0].ThumbnailURL)

	stored, err := st.Find(context.Background(), testKey)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
	assert.EqualValues(t, 1, st.replaces.Load())
}

func TestRankCacheHitSkipsProviders(t *testing.T) {
	st := &spyStore{MemoryStore: store.NewMemoryStore()}
	ctx := context.Background()
	for i, score := range []int{90, 80, 70} {
		require.NoError(t, st.Insert(ctx, core.Recommendation{
			CourseID: testKey.CourseID, Topic: testKey.Topic,
			ExternalID: fmt.Sprintf("v%d", i), Title: "t", Score: score,
		}))
	}
	enc := &fakeEncoder{}
	s := &fakeSearcher{}

	got, err := newRanker(st, s, enc).Rank(ctx, testKey)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "v0", got[0].ExternalID)
	assert.Zero(t, enc.Calls(), "cache hit must not call the embedder")
	assert.Zero(t, s.calls.Load(), "cache hit must not call the searcher")
	assert.Zero(t, st.replaces.Load())
}

func TestRankCacheHitCapsAtMax(t *testing.T) {
	st := &spyStore{MemoryStore: store.NewMemoryStore()}
	ctx := context.Background()
	for i := 0; i < 8; i++ {
		require.NoError(t, st.Insert(ctx, core.Recommendation{
			CourseID: testKey.CourseID, Topic: testKey.Topic,
			ExternalID: fmt.Sprintf("v%d", i), Title: "t", Score: i * 10,
		}))
	}
	s := &fakeSearcher{}

	got, err := newRanker(st, s, &fakeEncoder{}).Rank(ctx, testKey)
	require.NoError(t, err)
	require.Len(t, got, core.MaxRecommendations)
	assert.Equal(t, "v7", got[0].ExternalID)
	assert.Equal(t, "v3", got[core.MaxRecommendations-1].ExternalID)
	assert.Zero(t, s.calls.Load())
	assert.Zero(t, st.deletes.Load())
}

func TestRankRepairsDuplicates(t *testing.T) {
	st := &spyStore{MemoryStore: store.NewMemoryStore()}
	ctx := context.Background()
	for _, id := range []string{"dup", "other", "dup"} {
		require.NoError(t, st.Insert(ctx, core.Recommendation{CourseID: testKey.CourseID, Topic: testKey.Topic, ExternalID: id}))
	}
	enc := &fakeEncoder{}
	s := &fakeSearcher{}

	got, err := newRanker(st, s, enc).Rank(ctx, testKey)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
	assert.EqualValues(t, 1, st.deletes.Load())
	assert.Zero(t, s.calls.Load())

	stored, err := st.Find(ctx, testKey)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestRankNoCandidatesWritesNothing(t *testing.T) {
	st := &spyStore{MemoryStore: store.NewMemoryStore()}
	enc := &fakeEncoder{vectors: map[string][]float64{"graphs": {1, 0}}}
	s := &fakeSearcher{}

	got, err := newRanker(st, s, enc).Rank(context.Background(), testKey)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, st.replaces.Load())
	assert.Zero(t, st.deletes.Load())
}

func TestRankIsolatesCandidateFailures(t *testing.T) {
	enc := &fakeEncoder{
		vectors: map[string][]float64{
			"graphs": {1, 0},
			"A desc": {1, 0},
			"C desc": {0.6, 0.8},
		},
		fail: map[string]error{"B desc": errors.New("quota exceeded")},
	}
	s := &fakeSearcher{candidates: []core.Candidate{candidate("A", "A"), candidate("B", "B"), candidate("C", "C")}}

	got, err := newRanker(&spyStore{MemoryStore: store.NewMemoryStore()}, s, enc).Rank(context.Background(), testKey)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].ExternalID)
	assert.Equal(t, "C", got[1].ExternalID)
	assert.Equal(t, 60, got[1].Score)
}

func TestRankDropsDegenerateScores(t *testing.T) {
	enc := &fakeEncoder{vectors: map[string][]float64{
		"graphs": {1, 0},
		"A desc": {0, 0},
		"B desc": {1, 1},
	}}
	s := &fakeSearcher{candidates: []core.Candidate{candidate("A", "A"), candidate("B", "B")}}

	got, err := newRanker(&spyStore{MemoryStore: store.NewMemoryStore()}, s, enc).Rank(context.Background(), testKey)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "B", got[0].ExternalID)
	assert.Equal(t, 71, got[0].Score)
}

func TestRankCapsAndDeduplicates(t *testing.T) {
	vectors := map[string][]float64{"graphs": {1, 0}}
	var cands []core.Candidate
	for i := 0; i < 8; i++ {
		id := fmt.Sprintf("v%d", i)
		cands = append(cands, candidate(id, id))
		vectors[id+" desc"] = []float64{float64(i), 10}
	}
	// 重复 ID 出现在更靠后的位置，且相似度更高，仍应保留第一次出现的候选
	cands = append(cands, core.Candidate{ExternalID: "v0", Title: "dup", Description: "desc"})
	vectors["dup desc"] = []float64{1, 0}
	enc := &fakeEncoder{vectors: vectors}
	s := &fakeSearcher{candidates: cands}

	got, err := newRanker(&spyStore{MemoryStore: store.NewMemoryStore()}, s, enc).Rank(context.Background(), testKey)
	require.NoError(t, err)
	require.Len(t, got, core.MaxRecommendations)
	assert.False(t, core.HasDuplicateIDs(got))
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
	}
	assert.Equal(t, "v7", got[0].ExternalID)
	for _, rec := range got {
		assert.NotEqual(t, "dup", rec.Title)
	}
}

func TestRankProviderErrors(t *testing.T) {
	t.Run("topic embedding", func(t *testing.T) {
		enc := &fakeEncoder{fail: map[string]error{"graphs": core.NewProviderError("gemini: status 500", nil)}}
		s := &fakeSearcher{candidates: []core.Candidate{candidate("A", "A")}}
		st := &spyStore{MemoryStore: store.NewMemoryStore()}

		_, err := newRanker(st, s, enc).Rank(context.Background(), testKey)
		require.Error(t, err)
		assert.True(t, core.IsProviderError(err))
		assert.Zero(t, s.calls.Load())
		assert.Zero(t, st.replaces.Load())
	})
	t.Run("search", func(t *testing.T) {
		enc := &fakeEncoder{vectors: map[string][]float64{"graphs": {1, 0}}}
		s := &fakeSearcher{err: core.NewProviderError("youtube: status 403", nil)}
		st := &spyStore{MemoryStore: store.NewMemoryStore()}

		_, err := newRanker(st, s, enc).Rank(context.Background(), testKey)
		require.Error(t, err)
		assert.True(t, core.IsProviderError(err))
		assert.Zero(t, st.replaces.Load())
	})
}

func TestRankInvalidKey(t *testing.T) {
	r := newRanker(store.NewMemoryStore(), &fakeSearcher{}, &fakeEncoder{})
	_, err := r.Rank(context.Background(), core.RecommendationKey{CourseID: "c"})
	require.Error(t, err)
	assert.True(t, core.IsInvalidInput(err))
}

func TestRankCoalescesConcurrentCalls(t *testing.T) {
	enc := &fakeEncoder{vectors: map[string][]float64{"graphs": {1, 0}, "A desc": {1, 0}}}
	s := &fakeSearcher{
		candidates: []core.Candidate{candidate("A", "A")},
		started:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	st := &spyStore{MemoryStore: store.NewMemoryStore()}
	r := newRanker(st, s, enc)

	const callers = 5
	results := make([][]core.Recommendation, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], errs[0] = r.Rank(context.Background(), testKey)
	}()
	<-s.started
	for i := 1; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = r.Rank(context.Background(), testKey)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(s.release)
	wg.Wait()

	// 晚到的调用要么被合并，要么命中已写入的集合，搜索只会发生一次
	assert.EqualValues(t, 1, s.calls.Load())
	assert.EqualValues(t, 1, st.replaces.Load())
	for i := range callers {
		require.NoError(t, errs[i])
		require.Len(t, results[i], 1)
		assert.Equal(t, "A", results[i][0].ExternalID)
	}
}

func TestRankLeaderCancelDoesNotFailFollowers(t *testing.T) {
	enc := &fakeEncoder{vectors: map[string][]float64{"graphs": {1, 0}, "A desc": {1, 0}}}
	s := &fakeSearcher{
		candidates: []core.Candidate{candidate("A", "A")},
		started:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	st := &spyStore{MemoryStore: store.NewMemoryStore()}
	r := newRanker(st, s, enc)

	leaderCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	leaderErr := make(chan error, 1)
	go func() {
		_, err := r.Rank(leaderCtx, testKey)
		leaderErr <- err
	}()
	<-s.started

	type result struct {
		recs []core.Recommendation
		err  error
	}
	follower := make(chan result, 1)
	go func() {
		recs, err := r.Rank(context.Background(), testKey)
		follower <- result{recs, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	select {
	case err := <-leaderErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(s.release)
	select {
	case res := <-follower:
		require.NoError(t, res.err)
		require.Len(t, res.recs, 1)
		assert.Equal(t, "A", res.recs[0].ExternalID)
	case <-time.After(time.Second):
		t.Fatal("follower did not return")
	}
	assert.EqualValues(t, 1, s.calls.Load())
	assert.EqualValues(t, 1, st.replaces.Load())
}

func TestLookup(t *testing.T) {
	ctx := context.Background()

	t.Run("missing", func(t *testing.T) {
		r := newRanker(store.NewMemoryStore(), &fakeSearcher{}, &fakeEncoder{})
		got, err := r.Lookup(ctx, testKey)
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.NotNil(t, got)
	})

	t.Run("caps at max", func(t *testing.T) {
		st := store.NewMemoryStore()
		for i := 0; i < 7; i++ {
			require.NoError(t, st.Insert(ctx, core.Recommendation{
				CourseID: testKey.CourseID, Topic: testKey.Topic,
				ExternalID: fmt.Sprintf("v%d", i), Score: i * 10,
			}))
		}
		s := &fakeSearcher{}
		r := newRanker(st, s, &fakeEncoder{})
		got, err := r.Lookup(ctx, testKey)
		require.NoError(t, err)
		require.Len(t, got, core.MaxRecommendations)
		assert.Equal(t, "v6", got[0].ExternalID)
		assert.Zero(t, s.calls.Load())
	})

	t.Run("repairs duplicates", func(t *testing.T) {
		st := &spyStore{MemoryStore: store.NewMemoryStore()}
		for _, id := range []string{"a", "a"} {
			require.NoError(t, st.Insert(ctx, core.Recommendation{CourseID: testKey.CourseID, Topic: testKey.Topic, ExternalID: id}))
		}
		r := newRanker(st, &fakeSearcher{}, &fakeEncoder{})
		got, err := r.Lookup(ctx, testKey)
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.EqualValues(t, 1, st.deletes.Load())
	})

	t.Run("invalid key", func(t *testing.T) {
		r := newRanker(store.NewMemoryStore(), &fakeSearcher{}, &fakeEncoder{})
		_, err := r.Lookup(ctx, core.RecommendationKey{Topic: "graphs"})
		assert.True(t, core.IsInvalidInput(err))
	})
}
