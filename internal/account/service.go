// Package account holds the account service: signup plus the user read queries.
//
// Authorization is not checked here. The transport layer decides who may call
// which operation before the service runs.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/geocoder89/accounthub/internal/domain/user"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Store is the persistence capability the service needs.
type Store interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context) ([]user.User, error)
	ListByRole(ctx context.Context, role user.Role) ([]user.User, error)
	Search(ctx context.Context, filter user.SearchFilter) ([]user.User, error)
}

type Hasher interface {
	Hash(plain string) (string, error)
}

// Cache keeps public projections by id. Users are never updated or deleted,
// so entries never go stale.
type Cache interface {
	Get(ctx context.Context, id string) (user.PublicUser, bool)
	Set(ctx context.Context, u user.PublicUser)
}

type Service struct {
	store  Store
	hasher Hasher
	cache  Cache
	log    *slog.Logger
	loc    *time.Location
	now    func() time.Time
	tracer trace.Tracer
}

type Option func(*Service)

func WithCache(c Cache) Option {
	return func(s *Service) { s.cache = c }
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithLocation sets the zone public timestamps are rendered in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, hasher Hasher, opts ...Option) *Service {
	s := &Service{
		store:  store,
		hasher: hasher,
		log:    slog.Default(),
		loc:    time.Local,
		now:    time.Now,
		tracer: otel.Tracer("github.com/geocoder89/accounthub/internal/account"),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// SignUp creates a USER account. Writes one row on success and none on failure.
func (s *Service) SignUp(ctx context.Context, email, password, name string) (user.PublicUser, error) {
	ctx, span := s.tracer.Start(ctx, "account.SignUp")
	defer span.End()

	exists, err := s.store.ExistsByEmail(ctx, email)
	if err != nil {
		return user.PublicUser{}, s.fail(ctx, span, "signup existence check failed", fmt.Errorf("check email: %w", err))
	}

	if exists {
		return user.PublicUser{}, s.fail(ctx, span, "signup rejected", user.ErrDuplicateEmail)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return user.PublicUser{}, s.fail(ctx, span, "password hashing failed", fmt.Errorf("hash password: %w", err))
	}

	// the unique constraint on users.email still guards the race between the
	// check above and this insert; stores report it as ErrDuplicateEmail.
	created, err := s.store.Create(ctx, user.New(email, hash, name, s.now()))
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return user.PublicUser{}, s.fail(ctx, span, "signup rejected", user.ErrDuplicateEmail)
		}

		return user.PublicUser{}, s.fail(ctx, span, "create user failed", fmt.Errorf("create user: %w", err))
	}

	span.SetAttributes(attribute.String("user.id", created.ID))
	s.log.InfoContext(ctx, "user_signed_up", "user_id", created.ID)

	out := user.ToPublic(created, s.loc)

	if s.cache != nil {
		s.cache.Set(ctx, out)
	}

	return out, nil
}

func (s *Service) GetUserByID(ctx context.Context, id string) (user.PublicUser, error) {
	ctx, span := s.tracer.Start(ctx, "account.GetUserByID", trace.WithAttributes(attribute.String("user.id", id)))
	defer span.End()

	if s.cache != nil {
		if u, ok := s.cache.Get(ctx, id); ok {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return u, nil
		}
	}

	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.PublicUser{}, s.fail(ctx, span, "user lookup missed", user.ErrNotFound)
		}

		return user.PublicUser{}, s.fail(ctx, span, "user lookup failed", fmt.Errorf("get user: %w", err))
	}

	out := user.ToPublic(u, s.loc)

	if s.cache != nil {
		s.cache.Set(ctx, out)
	}

	return out, nil
}

// GetAllUsers returns every user in store order (created_at, then id).
func (s *Service) GetAllUsers(ctx context.Context) ([]user.PublicUser, error) {
	ctx, span := s.tracer.Start(ctx, "account.GetAllUsers")
	defer span.End()

	users, err := s.store.List(ctx)
	if err != nil {
		return nil, s.fail(ctx, span, "list users failed", fmt.Errorf("list users: %w", err))
	}

	span.SetAttributes(attribute.Int("result.count", len(users)))

	return user.ToPublicList(users, s.loc), nil
}

func (s *Service) GetUsersByRole(ctx context.Context, role user.Role) ([]user.PublicUser, error) {
	ctx, span := s.tracer.Start(ctx, "account.GetUsersByRole", trace.WithAttributes(attribute.String("user.role", string(role))))
	defer span.End()

	if !role.Valid() {
		return nil, s.fail(ctx, span, "role query rejected", user.ErrInvalidRole)
	}

	users, err := s.store.ListByRole(ctx, role)
	if err != nil {
		return nil, s.fail(ctx, span, "list users by role failed", fmt.Errorf("list users by role: %w", err))
	}

	span.SetAttributes(attribute.Int("result.count", len(users)))

	return user.ToPublicList(users, s.loc), nil
}

// SearchUsersByEmail matches a case-insensitive fragment of the email.
func (s *Service) SearchUsersByEmail(ctx context.Context, fragment string) ([]user.PublicUser, error) {
	fragment = strings.TrimSpace(fragment)

	return s.SearchUsers(ctx, user.SearchFilter{EmailContains: &fragment})
}

// SearchUsers combines the non-nil filters with AND. An empty filter matches everyone.
func (s *Service) SearchUsers(ctx context.Context, filter user.SearchFilter) ([]user.PublicUser, error) {
	ctx, span := s.tracer.Start(ctx, "account.SearchUsers")
	defer span.End()

	if filter.Role != nil && !filter.Role.Valid() {
		return nil, s.fail(ctx, span, "search rejected", user.ErrInvalidRole)
	}

	users, err := s.store.Search(ctx, filter)
	if err != nil {
		return nil, s.fail(ctx, span, "search users failed", fmt.Errorf("search users: %w", err))
	}

	span.SetAttributes(attribute.Int("result.count", len(users)))

	return user.ToPublicList(users, s.loc), nil
}

// fail records err on the span and logs it. Client errors log at debug.
func (s *Service) fail(ctx context.Context, span trace.Span, msg string, err error) error {
	span.RecordError(err)

	if isClientError(err) {
		s.log.DebugContext(ctx, msg, "err", err)
		return err
	}

	span.SetStatus(codes.Error, err.Error())
	s.log.ErrorContext(ctx, msg, "err", err)

	return err
}

func isClientError(err error) bool {
	return errors.Is(err, user.ErrDuplicateEmail) ||
		errors.Is(err, user.ErrNotFound) ||
		errors.Is(err, user.ErrInvalidRole)
}
