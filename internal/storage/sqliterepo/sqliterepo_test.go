package sqliterepo

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"commgraph/internal/relationships"

	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := RunMigrations(context.Background(), db); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}
	return db
}

func TestCommunityRepository_UpsertPreservesCreatedAt(t *testing.T) {
	ctx := context.Background()
	repo := NewCommunityRepository(openTestDB(t))

	c := relationships.NewCommunity(55, "gamers", "a community")
	first, err := repo.Save(ctx, c)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Re-save with a new name and a different created_at; the stored
	// created_at must win.
	c.Name = "gamers-renamed"
	c.CreatedAt = time.Now().Add(24 * time.Hour)
	if _, err := repo.Save(ctx, c); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	got, ok, err := repo.Load(ctx, 55)
	if err != nil || !ok {
		t.Fatalf("Load failed: ok=%v err=%v", ok, err)
	}
	if got.Name != "gamers-renamed" {
		t.Errorf("expected renamed community, got %q", got.Name)
	}
	// Second precision: sqlite text storage truncates sub-second digits.
	if got.CreatedAt.Unix() != first.CreatedAt.Unix() {
		t.Errorf("created_at changed on upsert: %v != %v", got.CreatedAt, first.CreatedAt)
	}
}

func TestCommunityRepository_LoadMissing(t *testing.T) {
	repo := NewCommunityRepository(openTestDB(t))

	_, ok, err := repo.Load(context.Background(), 999)
	if err != nil {
		t.Fatalf("missing row must not be an error, got: %v", err)
	}
	if ok {
		t.Error("expected not found")
	}
}

func TestCommunityRepository_Deactivate(t *testing.T) {
	ctx := context.Background()
	repo := NewCommunityRepository(openTestDB(t))

	if _, err := repo.Save(ctx, relationships.NewCommunity(55, "gamers", "")); err != nil {
		t.Fatal(err)
	}
	if err := repo.Deactivate(ctx, 55); err != nil {
		t.Fatalf("Deactivate failed: %v", err)
	}

	got, ok, err := repo.Load(ctx, 55)
	if err != nil || !ok {
		t.Fatalf("deactivated row must still load: ok=%v err=%v", ok, err)
	}
	if got.Active {
		t.Error("expected active=false")
	}
	if got.DeactivatedAt == nil {
		t.Error("expected deactivated_at to be stamped")
	}
}

func TestRelationshipRepository_DuplicateTripleKeepsOneRow(t *testing.T) {
	ctx := context.Background()
	repo := NewRelationshipRepository(openTestDB(t))

	first, err := repo.Save(ctx, relationships.New(1, 100, relationships.TypeServerMember))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if first.ID == 0 {
		t.Error("expected a surrogate id")
	}

	second, err := repo.Save(ctx, relationships.New(1, 100, relationships.TypeServerMember))
	if err != nil {
		t.Fatalf("duplicate Save must not fail: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("duplicate save returned a different row: %d != %d", second.ID, first.ID)
	}
	if second.CreatedAt.Unix() != first.CreatedAt.Unix() {
		t.Error("duplicate save must keep the original created_at")
	}

	all, err := repo.All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 row, got %d", len(all))
	}

	// Same pair under a different type is a distinct edge.
	if _, err := repo.Save(ctx, relationships.New(1, 100, relationships.TypeServerModerator)); err != nil {
		t.Fatal(err)
	}
	all, err = repo.All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(all))
	}
}

func TestRelationshipRepository_SaveMany(t *testing.T) {
	ctx := context.Background()
	repo := NewRelationshipRepository(openTestDB(t))

	// Seed one edge that the batch repeats.
	if _, err := repo.Save(ctx, relationships.New(1, 100, relationships.TypeServerMember)); err != nil {
		t.Fatal(err)
	}

	batch := []relationships.Relationship{
		relationships.New(1, 100, relationships.TypeServerMember),
		relationships.New(2, 100, relationships.TypeServerMember),
		relationships.New(3, 100, relationships.TypeServerMember),
	}
	if err := repo.SaveMany(ctx, batch); err != nil {
		t.Fatalf("SaveMany failed: %v", err)
	}

	all, err := repo.All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(all))
	}
}

func TestRelationshipRepository_DeleteTriple(t *testing.T) {
	ctx := context.Background()
	repo := NewRelationshipRepository(openTestDB(t))

	if _, err := repo.Save(ctx, relationships.New(1, 100, relationships.TypeServerMember)); err != nil {
		t.Fatal(err)
	}

	if err := repo.Delete(ctx, 1, 100, relationships.TypeServerMember); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	all, err := repo.All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 0 {
		t.Fatalf("expected 0 rows, got %d", len(all))
	}

	// Deleting the absent triple again is a no-op.
	if err := repo.Delete(ctx, 1, 100, relationships.TypeServerMember); err != nil {
		t.Fatalf("absent delete should be a no-op, got: %v", err)
	}
}

func TestRelationshipRepository_FindBySubjectAndObject(t *testing.T) {
	ctx := context.Background()
	repo := NewRelationshipRepository(openTestDB(t))

	seed := []relationships.Relationship{
		relationships.New(1, 100, relationships.TypeServerMember),
		relationships.New(1, 200, relationships.TypeServerMember),
		relationships.New(1, 55, relationships.TypeCommunityMember),
		relationships.New(2, 100, relationships.TypeServerMember),
	}
	if err := repo.SaveMany(ctx, seed); err != nil {
		t.Fatal(err)
	}

	bySubject, err := repo.FindBySubject(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(bySubject) != 3 {
		t.Errorf("expected 3 edges for subject 1, got %d", len(bySubject))
	}

	memberships, err := repo.FindBySubject(ctx, 1, relationships.TypeCommunityMember)
	if err != nil {
		t.Fatal(err)
	}
	if len(memberships) != 1 || memberships[0].ObjectID != 55 {
		t.Errorf("expected one COMMUNITY_MEMBER edge to 55, got %v", memberships)
	}

	byObject, err := repo.FindByObject(ctx, 100, relationships.TypeServerMember)
	if err != nil {
		t.Fatal(err)
	}
	if len(byObject) != 2 {
		t.Errorf("expected 2 members of server 100, got %d", len(byObject))
	}
}
