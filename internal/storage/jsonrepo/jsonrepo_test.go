package jsonrepo

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"commgraph/internal/community"
	"commgraph/internal/storage"
)

func TestUserRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	repo := NewUserRepository(dir)

	u := community.NewUser(42, "alice")
	u.Servers.Add(100)
	u.Communities.Add(55)

	saved, err := repo.Save(ctx, u)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if saved.ID != 42 {
		t.Errorf("expected id 42, got %d", saved.ID)
	}

	// The record lands in a per-entity file.
	if _, err := os.Stat(filepath.Join(dir, "user_42.json")); err != nil {
		t.Errorf("expected user_42.json to exist: %v", err)
	}

	got, ok, err := repo.Load(ctx, 42)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !ok {
		t.Fatal("expected user to be found")
	}
	if got.Name != "alice" {
		t.Errorf("expected name alice, got %q", got.Name)
	}
	if !got.Servers.Has(100) || !got.Communities.Has(55) {
		t.Error("membership sets lost in round trip")
	}
	if got.CreatedAt.IsZero() {
		t.Error("created_at lost in round trip")
	}
}

func TestUserRepository_LoadMissing(t *testing.T) {
	repo := NewUserRepository(t.TempDir())

	_, ok, err := repo.Load(context.Background(), 999)
	if err != nil {
		t.Fatalf("missing record must not be an error, got: %v", err)
	}
	if ok {
		t.Error("expected not found")
	}
}

func TestUserRepository_DeleteAbsent(t *testing.T) {
	repo := NewUserRepository(t.TempDir())

	if err := repo.Delete(context.Background(), 999); err != nil {
		t.Fatalf("deleting an absent record should be a no-op, got: %v", err)
	}
}

func TestServerRepository_CommunityPointer(t *testing.T) {
	ctx := context.Background()
	repo := NewServerRepository(t.TempDir())

	s := community.NewServer(100, "general")
	cid := int64(55)
	s.Community = &cid
	s.Users.Add(1)

	if _, err := repo.Save(ctx, s); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, ok, err := repo.Load(ctx, 100)
	if err != nil || !ok {
		t.Fatalf("Load failed: ok=%v err=%v", ok, err)
	}
	if got.Community == nil || *got.Community != 55 {
		t.Error("community pointer lost in round trip")
	}

	// And the nil pointer survives too.
	got.Community = nil
	if _, err := repo.Save(ctx, got); err != nil {
		t.Fatal(err)
	}
	again, _, err := repo.Load(ctx, 100)
	if err != nil {
		t.Fatal(err)
	}
	if again.Community != nil {
		t.Error("expected nil community pointer")
	}
}

func TestCommunityRepository_AllAndClear(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	repo := NewCommunityRepository(dir)

	for i := int64(1); i <= 3; i++ {
		c := community.NewCommunity(i, 1, "c")
		if _, err := repo.Save(ctx, c); err != nil {
			t.Fatal(err)
		}
	}
	// A foreign record type in the same directory is ignored.
	userRepo := NewUserRepository(dir)
	if _, err := userRepo.Save(ctx, community.NewUser(9, "alice")); err != nil {
		t.Fatal(err)
	}

	all, err := repo.All(ctx)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 communities, got %d", len(all))
	}

	if err := repo.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	all, err = repo.All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 0 {
		t.Errorf("expected empty after clear, got %d", len(all))
	}

	// The user record survived the community clear.
	if _, ok, _ := userRepo.Load(ctx, 9); !ok {
		t.Error("clear must only touch its own record type")
	}
}

func TestFindBy_PredicateScan(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(t.TempDir())

	names := []string{"alice", "bob", "carol"}
	for i, name := range names {
		if _, err := repo.Save(ctx, community.NewUser(int64(i+1), name)); err != nil {
			t.Fatal(err)
		}
	}

	got, err := storage.FindBy(ctx, repo, func(u *community.User) bool {
		return u.Name != "bob"
	})
	if err != nil {
		t.Fatalf("FindBy failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 matches, got %d", len(got))
	}

	one, ok, err := storage.FindOneBy(ctx, repo, func(u *community.User) bool {
		return u.Name == "carol"
	})
	if err != nil || !ok {
		t.Fatalf("FindOneBy failed: ok=%v err=%v", ok, err)
	}
	if one.ID != 3 {
		t.Errorf("expected id 3, got %d", one.ID)
	}
}
