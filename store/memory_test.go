package store

import (
	"context"
	"errors"
	"testing"

	"github.com/rushteam/studyrec/core"
)

var testKey = core.RecommendationKey{CourseID: "c1", Topic: "graphs"}

func rec(id string, score int) core.Recommendation {
	return core.Recommendation{CourseID: testKey.CourseID, Topic: testKey.Topic, ExternalID: id, Title: "t-" + id, Score: score}
}

func TestMemoryStoreFindSorted(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for _, r := range []core.Recommendation{rec("a", 10), rec("b", 90), rec("c", 10)} {
		if err := s.Insert(ctx, r); err != nil {
			t.Fatal(err)
		}
	}
	got, err := s.Find(ctx, testKey)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[0].ExternalID != "b" || got[1].ExternalID != "a" || got[2].ExternalID != "c" {
		t.Errorf("Find() = %+v", got)
	}
	if got[0].CreatedAt.IsZero() {
		t.Error("Insert should stamp CreatedAt")
	}

	other, _ := s.Find(ctx, core.RecommendationKey{CourseID: "c1", Topic: "trees"})
	if len(other) != 0 {
		t.Errorf("topic must match exactly, got %v", other)
	}
}

func TestMemoryStoreReplace(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_ = s.Insert(ctx, rec("old", 50))

	err := s.Replace(ctx, testKey, []core.Recommendation{
		{ExternalID: "x", Score: 80},
		{ExternalID: "y", Score: 70},
		{ExternalID: "x", Score: 10},
	})
	if err != nil {
		t.Fatal(err)
	}
	got, _ := s.Find(ctx, testKey)
	if len(got) != 2 || got[0].ExternalID != "x" || got[0].Score != 80 || got[1].ExternalID != "y" {
		t.Errorf("Replace() left %+v", got)
	}
	if got[0].CourseID != testKey.CourseID || got[0].Topic != testKey.Topic {
		t.Errorf("Replace should bind records to the key, got %+v", got[0])
	}

	if err := s.Replace(ctx, testKey, nil); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.Find(ctx, testKey); len(got) != 0 {
		t.Errorf("replace with empty set should clear the key, got %v", got)
	}
}

func TestMemoryStoreDeleteAllAndSets(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_ = s.Insert(ctx, rec("a", 1))
	_ = s.DeleteAll(ctx, testKey)
	if got, _ := s.Find(ctx, testKey); len(got) != 0 {
		t.Errorf("DeleteAll left %v", got)
	}

	if _, err := s.Members(ctx, "blacklist"); !errors.Is(err, core.ErrStoreNotFound) {
		t.Errorf("missing set should be ErrStoreNotFound, got %v", err)
	}
	_ = s.AddMembers(ctx, "blacklist", "v1", "v2", "v1")
	members, err := s.Members(ctx, "blacklist")
	if err != nil || len(members) != 2 {
		t.Errorf("Members() = %v, %v", members, err)
	}
}
