package user

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DisplayLayout is the fixed yyyy-MM-dd HH:mm:ss pattern used for public timestamps.
const DisplayLayout = "2006-01-02 15:04:05"

var (
	ErrDuplicateEmail = errors.New("email already in use")
	ErrNotFound       = errors.New("user not found")
	ErrInvalidRole    = errors.New("invalid role")
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

func (r Role) String() string {
	return string(r)
}

// ParseRole accepts only the exact role tokens, after trimming surrounding whitespace.
func ParseRole(s string) (Role, error) {
	r := Role(strings.TrimSpace(s))

	if !r.Valid() {
		return "", ErrInvalidRole
	}

	return r, nil
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// New builds a fresh USER record. The id and timestamps are assigned here so the
// memory and postgres stores agree on them.
func New(email, passwordHash, name string, now time.Time) User {
	now = now.UTC()

	return User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		Role:         RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// PublicUser is the only shape of a user that leaves the service.
type PublicUser struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      Role   `json:"role"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func ToPublic(u User, loc *time.Location) PublicUser {
	if loc == nil {
		loc = time.Local
	}

	return PublicUser{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		CreatedAt: u.CreatedAt.In(loc).Format(DisplayLayout),
		UpdatedAt: u.UpdatedAt.In(loc).Format(DisplayLayout),
	}
}

func ToPublicList(users []User, loc *time.Location) []PublicUser {
	out := make([]PublicUser, 0, len(users))

	for _, u := range users {
		out = append(out, ToPublic(u, loc))
	}

	return out
}

// SignUpRequest binds the signup body. notblank and maxbytes are registered by
// the http layer; maxbytes=72 is bcrypt's input limit.
type SignUpRequest struct {
	Email    string `json:"email" binding:"required,notblank,email,max=150"`
	Password string `json:"password" binding:"required,notblank,min=6,max=72,maxbytes=72"`
	Name     string `json:"name" binding:"required,notblank,max=50"`
}

// with pointers if optional, it will be nil
type SearchFilter struct {
	EmailContains *string
	NameContains  *string
	Role          *Role
}
