package rank

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/rushteam/studyrec/core"
)

type mapEncoder struct {
	mu      sync.Mutex
	vectors map[string][]float64
	calls   int
}

func (e *mapEncoder) Name() string { return "map" }
func (e *mapEncoder) EncodeText(_ context.Context, text string) ([]float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	vec, ok := e.vectors[text]
	if !ok {
		return nil, core.NewProviderError("no vector for "+text, nil)
	}
	return vec, nil
}

func item(id, title string) *core.Item {
	return core.NewItem(core.Candidate{ExternalID: id, Title: title, Description: "d"})
}

func TestEmbeddingNodeScores(t *testing.T) {
	enc := &mapEncoder{vectors: map[string][]float64{
		"graphs": {1, 0},
		"A d":    {1, 0},
		"B d":    {0, 1},
	}}
	rctx := core.NewRecommendContext(core.RecommendationKey{CourseID: "c", Topic: "graphs"})

	out, err := (&EmbeddingNode{Encoder: enc}).Process(context.Background(), rctx, []*core.Item{item("a", "A"), item("b", "B")})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d items", len(out))
	}
	if math.Abs(out[0].Score-1) > 1e-9 || math.Abs(out[1].Score) > 1e-9 {
		t.Errorf("scores = %v, %v", out[0].Score, out[1].Score)
	}
	if len(rctx.TopicVector) != 2 {
		t.Error("topic vector should be filled in when missing")
	}
	if out[0].Labels["rank_type"].Value != "embedding" {
		t.Errorf("missing rank_type label: %+v", out[0].Labels)
	}
}

func TestEmbeddingNodeIsolatesFailures(t *testing.T) {
	enc := &mapEncoder{vectors: map[string][]float64{
		"A d": {1, 0},
		"C d": {0.6, 0.8},
	}}
	rctx := core.NewRecommendContext(core.RecommendationKey{CourseID: "c", Topic: "graphs"})
	rctx.TopicVector = []float64{1, 0}

	in := []*core.Item{item("a", "A"), item("b", "B"), item("c", "C")}
	out, err := (&EmbeddingNode{Encoder: enc, MaxConcurrent: 2}).Process(context.Background(), rctx, in)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(out) != 2 || out[0].ID != "a" || out[1].ID != "c" {
		t.Fatalf("unexpected survivors: %v", out)
	}
	if enc.calls != 3 {
		t.Errorf("topic vector was preset, expected 3 calls, got %d", enc.calls)
	}
	failures := rctx.Failures()
	if len(failures) != 1 || failures[0].ExternalID != "b" || !core.IsProviderError(failures[0].Err) {
		t.Errorf("failures = %+v", failures)
	}
}

func TestEmbeddingNodeTopicFailureIsFatal(t *testing.T) {
	enc := &mapEncoder{vectors: map[string][]float64{}}
	rctx := core.NewRecommendContext(core.RecommendationKey{CourseID: "c", Topic: "graphs"})
	_, err := (&EmbeddingNode{Encoder: enc}).Process(context.Background(), rctx, []*core.Item{item("a", "A")})
	if !core.IsProviderError(err) {
		t.Errorf("expected provider error, got %v", err)
	}
}

func TestEmbeddingNodeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	enc := &mapEncoder{vectors: map[string][]float64{"A d": {1}}}
	rctx := core.NewRecommendContext(core.RecommendationKey{CourseID: "c", Topic: "t"})
	rctx.TopicVector = []float64{1}
	if _, err := (&EmbeddingNode{Encoder: enc}).Process(ctx, rctx, []*core.Item{item("a", "A")}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
