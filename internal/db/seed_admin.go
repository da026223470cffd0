package db

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/accounthub/internal/config"
	"github.com/geocoder89/accounthub/internal/domain/user"
)

type AdminStore interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, u user.User) (user.User, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// EnsureAdminUser creates the configured ADMIN account once. Signup only ever
// creates USER accounts, so this is the way an ADMIN comes into existence.
func EnsureAdminUser(ctx context.Context, store AdminStore, hasher PasswordHasher, cfg config.Config) (bool, error) {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return false, nil
	}

	// check if the user exists

	exists, err := store.ExistsByEmail(ctx, cfg.AdminEmail)

	if err != nil {
		return false, err
	}

	if exists {
		return false, nil
	}

	hash, err := hasher.Hash(cfg.AdminPassword)

	if err != nil {
		return false, err
	}

	u := user.New(cfg.AdminEmail, hash, cfg.AdminName, time.Now())
	u.Role = user.RoleAdmin

	_, err = store.Create(ctx, u)

	// another instance seeded it first
	if errors.Is(err, user.ErrDuplicateEmail) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return true, nil
}
