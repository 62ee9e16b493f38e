package pipeline

import (
	"testing"

	"cloudcollector/internal/models"
)

func rec(owner, id string) models.CollectionRecord {
	return models.CollectionRecord{ID: id, OwnerID: owner}
}

func TestViewPrependsNewest(t *testing.T) {
	v := NewCollectionView()
	v.OnRecordCreated(rec("u1", "a"))
	v.OnRecordCreated(rec("u1", "b"))

	got := v.Snapshot("u1")
	if len(got) != 2 || got[0].ID != "b" || got[1].ID != "a" {
		t.Errorf("snapshot order = %+v, want newest first", got)
	}
}

func TestViewIsolatesPrincipals(t *testing.T) {
	v := NewCollectionView()
	v.OnRecordCreated(rec("u1", "a"))
	v.OnRecordCreated(rec("u2", "b"))

	if got := v.Snapshot("u1"); len(got) != 1 || got[0].ID != "a" {
		t.Errorf("u1 snapshot = %+v", got)
	}
	if got := v.Snapshot("u2"); len(got) != 1 || got[0].ID != "b" {
		t.Errorf("u2 snapshot = %+v", got)
	}
}

func TestViewDelete(t *testing.T) {
	v := NewCollectionView()
	v.OnRecordCreated(rec("u1", "a"))
	v.OnRecordCreated(rec("u1", "b"))
	v.OnRecordDeleted("u1", "a")

	got := v.Snapshot("u1")
	if len(got) != 1 || got[0].ID != "b" {
		t.Errorf("snapshot after delete = %+v, want only b", got)
	}

	// deleting an unknown id is a no-op
	v.OnRecordDeleted("u1", "missing")
	if got := v.Snapshot("u1"); len(got) != 1 {
		t.Errorf("snapshot after no-op delete = %+v", got)
	}
}

func TestViewFavoriteToggle(t *testing.T) {
	v := NewCollectionView()
	v.OnRecordCreated(rec("u1", "a"))
	v.OnFavoriteToggled("u1", "a", true)

	if got := v.Snapshot("u1"); !got[0].Favorite {
		t.Error("favorite flag not set")
	}
}

func TestViewReplace(t *testing.T) {
	v := NewCollectionView()
	v.OnRecordCreated(rec("u1", "stale"))
	v.Replace("u1", []models.CollectionRecord{rec("u1", "x"), rec("u1", "y")})

	got := v.Snapshot("u1")
	if len(got) != 2 || got[0].ID != "x" {
		t.Errorf("snapshot after replace = %+v", got)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	v := NewCollectionView()
	v.OnRecordCreated(rec("u1", "a"))

	got := v.Snapshot("u1")
	got[0].ID = "mutated"
	if fresh := v.Snapshot("u1"); fresh[0].ID != "a" {
		t.Error("snapshot mutation leaked into the view")
	}
}

func TestGuardRearmsAfterFailure(t *testing.T) {
	g := newRunGuard()
	if !g.tryStart("s") {
		t.Fatal("first tryStart refused")
	}
	if g.tryStart("s") {
		t.Fatal("tryStart admitted a concurrent run")
	}
	g.finish("s", false)
	if g.state("s") != StateFailed {
		t.Errorf("state = %v, want failed", g.state("s"))
	}
	if !g.tryStart("s") {
		t.Fatal("tryStart refused after failure")
	}
	g.finish("s", true)
	if g.state("s") != StateSucceeded {
		t.Errorf("state = %v, want succeeded", g.state("s"))
	}
}
