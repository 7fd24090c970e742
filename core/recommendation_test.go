package core

import (
	"errors"
	"fmt"
	"math"
	"testing"
)

func TestScoreFromSimilarity(t *testing.T) {
	tests := []struct {
		name string
		sim  float64
		want int
	}{
		{"identical", 1, 100},
		{"orthogonal", 0, 0},
		{"round half up", 0.625, 63},
		{"round down", 0.8449, 84},
		{"negative half rounds toward +inf", -0.125, -12},
		{"negative", -0.42, -42},
		{"nan", math.NaN(), 0},
		{"inf", math.Inf(1), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ScoreFromSimilarity(tt.sim); got != tt.want {
				t.Errorf("ScoreFromSimilarity(%v) = %d, want %d", tt.sim, got, tt.want)
			}
		})
	}
}

func TestHasDuplicateIDs(t *testing.T) {
	unique := []Recommendation{{ExternalID: "a"}, {ExternalID: "b"}}
	if HasDuplicateIDs(unique) {
		t.Error("expected no duplicates")
	}
	dup := []Recommendation{{ExternalID: "a"}, {ExternalID: "b"}, {ExternalID: "a"}}
	if !HasDuplicateIDs(dup) {
		t.Error("expected duplicates")
	}
	if HasDuplicateIDs(nil) {
		t.Error("nil set has no duplicates")
	}
}

func TestRecommendationKeyValidate(t *testing.T) {
	tests := []struct {
		key     RecommendationKey
		wantErr bool
	}{
		{RecommendationKey{CourseID: "c1", Topic: "graphs"}, false},
		{RecommendationKey{CourseID: "", Topic: "graphs"}, true},
		{RecommendationKey{CourseID: "c1", Topic: "  "}, true},
		{RecommendationKey{}, true},
	}
	for _, tt := range tests {
		err := tt.key.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("Validate(%+v) err = %v, wantErr %v", tt.key, err, tt.wantErr)
		}
		if err != nil && !IsInvalidInput(err) {
			t.Errorf("Validate(%+v) should return INVALID_INPUT, got %v", tt.key, err)
		}
	}
}

func TestDomainErrorWrapping(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("embed topic: %w", NewProviderError("gemini: request failed", cause))

	if !IsProviderError(err) {
		t.Fatal("expected provider error through wrap chain")
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable with errors.Is")
	}
	if IsInvalidInput(err) {
		t.Error("provider error must not be INVALID_INPUT")
	}
	if !IsProviderError(ErrMissingCredential) {
		t.Error("missing credential belongs to the provider module")
	}
}

func TestItemToRecommendation(t *testing.T) {
	it := NewItem(Candidate{ExternalID: "vid", Title: "T", Description: "D", ThumbnailURL: "u"})
	it.Score = 0.734
	rec := it.ToRecommendation(RecommendationKey{CourseID: "c", Topic: "t"})
	if rec.ExternalID != "vid" || rec.Score != 73 || rec.CourseID != "c" || rec.Topic != "t" {
		t.Errorf("unexpected recommendation: %+v", rec)
	}
}

func TestMergeLabel(t *testing.T) {
	a := Label{Value: "search", Source: "recall"}
	b := Label{Value: "embedding", Source: "rank"}
	got := MergeLabel(a, b)
	if got.Value != "search|embedding" || got.Source != "recall,rank" {
		t.Errorf("MergeLabel = %+v", got)
	}
	if MergeLabel(a, a) != a {
		t.Error("merging an identical label should be a no-op")
	}
}
