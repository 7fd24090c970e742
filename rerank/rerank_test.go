package rerank

import (
	"context"
	"testing"

	"github.com/rushteam/studyrec/core"
)

func scored(id string, score float64) *core.Item {
	it := core.NewItem(core.Candidate{ExternalID: id})
	it.Score = score
	return it
}

func ids(items []*core.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestDedupKeepsFirst(t *testing.T) {
	in := []*core.Item{scored("a", 0.1), scored("b", 0.5), scored("a", 0.9), nil, scored("c", 0.2)}
	out, err := (&DedupNode{}).Process(context.Background(), nil, in)
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(out); !equal(got, []string{"a", "b", "c"}) {
		t.Errorf("dedup = %v", got)
	}
	if out[0].Score != 0.1 {
		t.Errorf("first occurrence should win, got score %v", out[0].Score)
	}
}

func TestSortStable(t *testing.T) {
	tests := []struct {
		name  string
		raw   bool
		items []*core.Item
		want  []string
	}{
		{
			name:  "descending",
			items: []*core.Item{scored("low", 0), scored("high", 1), scored("mid", 0.5)},
			want:  []string{"high", "mid", "low"},
		},
		{
			name:  "ties keep input order",
			items: []*core.Item{scored("first", 0.5), scored("second", 0.5), scored("top", 0.7)},
			want:  []string{"top", "first", "second"},
		},
		{
			name:  "same integer score is a tie",
			items: []*core.Item{scored("x", 0.731), scored("y", 0.734)},
			want:  []string{"x", "y"},
		},
		{
			name:  "raw score breaks integer ties",
			raw:   true,
			items: []*core.Item{scored("x", 0.731), scored("y", 0.734)},
			want:  []string{"y", "x"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := (&SortNode{ByRawScore: tt.raw}).Process(context.Background(), nil, tt.items)
			if err != nil {
				t.Fatal(err)
			}
			if got := ids(out); !equal(got, tt.want) {
				t.Errorf("sort = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTopN(t *testing.T) {
	in := make([]*core.Item, 0, 8)
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		in = append(in, scored(id, 0.5))
	}
	out, _ := (&TopNNode{N: core.MaxRecommendations}).Process(context.Background(), nil, in)
	if len(out) != core.MaxRecommendations || out[4].ID != "e" {
		t.Errorf("topn = %v", ids(out))
	}
	out, _ = (&TopNNode{N: 0}).Process(context.Background(), nil, in)
	if len(out) != len(in) {
		t.Errorf("N <= 0 should not truncate, got %d", len(out))
	}
	out, _ = (&TopNNode{N: 5}).Process(context.Background(), nil, in[:2])
	if len(out) != 2 {
		t.Errorf("short input should pass through, got %d", len(out))
	}
}
