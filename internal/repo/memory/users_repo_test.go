package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/geocoder89/accounthub/internal/domain/user"
	"github.com/geocoder89/accounthub/internal/repo/memory"
)

func seed(t *testing.T, repo *memory.UsersRepo, email, name string, role user.Role, at time.Time) user.User {
	t.Helper()

	u := user.New(email, "hash", name, at)
	u.Role = role

	created, err := repo.Create(context.Background(), u)
	if err != nil {
		t.Fatalf("create %s: %v", email, err)
	}

	return created
}

func TestUsersRepoCreateRejectsDuplicateEmail(t *testing.T) {
	repo := memory.NewUsersRepo()
	ctx := context.Background()
	now := time.Now()

	seed(t, repo, "a@x.com", "Alice", user.RoleUser, now)

	_, err := repo.Create(ctx, user.New("a@x.com", "hash2", "Alice2", now))
	if !errors.Is(err, user.ErrDuplicateEmail) {
		t.Fatalf("err = %v, want ErrDuplicateEmail", err)
	}

	all, _ := repo.List(ctx)
	if len(all) != 1 {
		t.Fatalf("len = %d, want 1", len(all))
	}
}

func TestUsersRepoConcurrentSignupsKeepOneRow(t *testing.T) {
	repo := memory.NewUsersRepo()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = repo.Create(ctx, user.New("race@x.com", "hash", "Racer", time.Now()))
		}()
	}
	wg.Wait()

	all, _ := repo.List(ctx)
	if len(all) != 1 {
		t.Fatalf("len = %d, want 1", len(all))
	}
}

func TestUsersRepoGetByID(t *testing.T) {
	repo := memory.NewUsersRepo()
	ctx := context.Background()

	u := seed(t, repo, "a@x.com", "Alice", user.RoleUser, time.Now())

	got, err := repo.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Email != "a@x.com" {
		t.Fatalf("email = %q", got.Email)
	}

	_, err = repo.GetByID(ctx, "missing")
	if !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	exists, err := repo.ExistsByEmail(ctx, "a@x.com")
	if err != nil || !exists {
		t.Fatalf("exists = %v, %v", exists, err)
	}
}

func TestUsersRepoListOrderAndFilters(t *testing.T) {
	repo := memory.NewUsersRepo()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	bob := seed(t, repo, "bob@corp.io", "Bob", user.RoleAdmin, base.Add(2*time.Minute))
	alice := seed(t, repo, "alice@x.com", "Alice Smith", user.RoleUser, base)
	carol := seed(t, repo, "carol@CORP.io", "Carol Smith", user.RoleUser, base.Add(time.Minute))

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	wantOrder := []string{alice.ID, carol.ID, bob.ID}
	for i, id := range wantOrder {
		if all[i].ID != id {
			t.Fatalf("all[%d] = %s, want %s", i, all[i].ID, id)
		}
	}

	admins, _ := repo.ListByRole(ctx, user.RoleAdmin)
	if len(admins) != 1 || admins[0].ID != bob.ID {
		t.Fatalf("admins = %+v", admins)
	}

	frag := "corp"
	byEmail, _ := repo.Search(ctx, user.SearchFilter{EmailContains: &frag})
	if len(byEmail) != 2 {
		t.Fatalf("email search len = %d, want 2", len(byEmail))
	}

	name := "smith"
	role := user.RoleUser
	combined, _ := repo.Search(ctx, user.SearchFilter{NameContains: &name, Role: &role})
	if len(combined) != 2 || combined[0].ID != alice.ID || combined[1].ID != carol.ID {
		t.Fatalf("combined = %+v", combined)
	}

	admin := user.RoleAdmin
	none, _ := repo.Search(ctx, user.SearchFilter{NameContains: &name, Role: &admin})
	if len(none) != 0 {
		t.Fatalf("expected no match, got %+v", none)
	}
}
