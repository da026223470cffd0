package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/geocoder89/accounthub/internal/domain/user"
)

// UsersRepo is an in-process user store for tests and database-less dev runs.
// Email uniqueness is enforced under the write lock, so the check and the insert
// are atomic here.
type UsersRepo struct {
	mu      sync.RWMutex
	items   map[string]user.User // {"id": user}
	byEmail map[string]string    // {"email": id}
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		items:   make(map[string]user.User),
		byEmail: make(map[string]string),
	}
}

func (r *UsersRepo) Create(_ context.Context, u user.User) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[u.Email]; taken {
		return user.User{}, user.ErrDuplicateEmail
	}

	r.items[u.ID] = u
	r.byEmail[u.Email] = u.ID

	return u, nil
}

func (r *UsersRepo) GetByID(_ context.Context, id string) (user.User, error) {
	r.mu.RLock()
	u, ok := r.items[id]
	r.mu.RUnlock()

	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return u, nil
}

func (r *UsersRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.RLock()
	_, ok := r.byEmail[email]
	r.mu.RUnlock()

	return ok, nil
}

func (r *UsersRepo) List(ctx context.Context) ([]user.User, error) {
	return r.Search(ctx, user.SearchFilter{})
}

func (r *UsersRepo) ListByRole(ctx context.Context, role user.Role) ([]user.User, error) {
	return r.Search(ctx, user.SearchFilter{Role: &role})
}

func (r *UsersRepo) Search(_ context.Context, filter user.SearchFilter) ([]user.User, error) {
	r.mu.RLock()
	out := make([]user.User, 0, len(r.items))

	for _, u := range r.items {
		if matches(u, filter) {
			out = append(out, u)
		}
	}
	r.mu.RUnlock()

	// same order as the postgres store
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})

	return out, nil
}

func matches(u user.User, f user.SearchFilter) bool {
	if f.EmailContains != nil && !containsFold(u.Email, *f.EmailContains) {
		return false
	}

	if f.NameContains != nil && !containsFold(u.Name, *f.NameContains) {
		return false
	}

	if f.Role != nil && u.Role != *f.Role {
		return false
	}

	return true
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
