package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/accounthub/internal/domain/user"
	"github.com/geocoder89/accounthub/internal/observability"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// emailUniqueConstraint is the constraint name Postgres generates for users.email UNIQUE.
const emailUniqueConstraint = "users_email_key"

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{
		pool: pool,
		prom: prom,
	}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	err := r.observe("users.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO users (id, email, password_hash, name, role, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			u.ID, u.Email, u.PasswordHash, u.Name, string(u.Role), u.CreatedAt, u.UpdatedAt,
		)
		return err
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation && pgErr.ConstraintName == emailUniqueConstraint {
			return user.User{}, user.ErrDuplicateEmail
		}

		return user.User{}, fmt.Errorf("insert user: %w", err)
	}

	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_id", func() error {
		row := r.pool.QueryRow(ctx,
			`SELECT `+userColumns+`
			FROM users
			WHERE id = $1`,
			id,
		)
		var scanErr error
		u, scanErr = scanUser(row)
		return scanErr
	})

	if err != nil {
		if isMissing(err) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool

	err := r.observe("users.exists_by_email", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`,
			email,
		).Scan(&exists)
	})

	return exists, err
}

func (r *UsersRepo) List(ctx context.Context) ([]user.User, error) {
	return r.search(ctx, "users.list", user.SearchFilter{})
}

func (r *UsersRepo) ListByRole(ctx context.Context, role user.Role) ([]user.User, error) {
	return r.search(ctx, "users.list_by_role", user.SearchFilter{Role: &role})
}

func (r *UsersRepo) Search(ctx context.Context, filter user.SearchFilter) ([]user.User, error) {
	return r.search(ctx, "users.search", filter)
}

func (r *UsersRepo) search(ctx context.Context, op string, filter user.SearchFilter) ([]user.User, error) {
	query, args, err := buildSearchUsersQuery(filter)
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", op, err)
	}

	output := make([]user.User, 0)

	err = r.observe(op, func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			u, err := scanUser(rows)
			if err != nil {
				return err
			}
			output = append(output, u)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return output, nil
}

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	var role string

	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.Name,
		&role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return user.User{}, err
	}

	u.Role = user.Role(role)

	return u, nil
}

// isMissing treats an id that cannot be a uuid like an id that was never created.
func isMissing(err error) bool {
	if errors.Is(err, pgx.ErrNoRows) {
		return true
	}

	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.InvalidTextRepresentation
}
