package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/accounthub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type UserReader interface {
	GetUserByID(ctx context.Context, id string) (user.PublicUser, error)
	GetAllUsers(ctx context.Context) ([]user.PublicUser, error)
	GetUsersByRole(ctx context.Context, role user.Role) ([]user.PublicUser, error)
	SearchUsersByEmail(ctx context.Context, fragment string) ([]user.PublicUser, error)
	SearchUsers(ctx context.Context, filter user.SearchFilter) ([]user.PublicUser, error)
}

type UsersHandler struct {
	users   UserReader
	timeout time.Duration
}

func NewUsersHandler(users UserReader) *UsersHandler {
	return &UsersHandler{
		users:   users,
		timeout: 2 * time.Second,
	}
}

func (h *UsersHandler) GetUserByID(ctx *gin.Context) {
	id := ctx.Param("id")

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	u, err := h.users.GetUserByID(cctx, id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		RespondInternal(ctx, "Could not fetch user")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, u)
}

func (h *UsersHandler) GetAllUsers(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	users, err := h.users.GetAllUsers(cctx)
	if err != nil {
		RespondInternal(ctx, "Could not list users")
		return
	}

	ctx.JSON(http.StatusOK, users)
}

func (h *UsersHandler) GetUsersByRole(ctx *gin.Context) {
	role, err := user.ParseRole(ctx.Param("role"))
	if err != nil {
		respondInvalidRole(ctx)
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	users, err := h.users.GetUsersByRole(cctx, role)
	if err != nil {
		h.respondListError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, users)
}

// SearchByEmail handles GET /api/users/search?email=fragment
func (h *UsersHandler) SearchByEmail(ctx *gin.Context) {
	fragment := strings.TrimSpace(ctx.Query("email"))
	if fragment == "" {
		RespondBadRequest(ctx, "email query parameter is required", gin.H{
			"fields": []FieldError{{Field: "email", Rule: "required", Message: validationMessage("required", "")}},
		})
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	users, err := h.users.SearchUsersByEmail(cctx, fragment)
	if err != nil {
		h.respondListError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, users)
}

// Search handles GET /api/users/search/complex?name=&role=
// Both parameters are optional; blank ones are ignored.
func (h *UsersHandler) Search(ctx *gin.Context) {
	var filter user.SearchFilter

	if name := strings.TrimSpace(ctx.Query("name")); name != "" {
		filter.NameContains = &name
	}

	if raw := ctx.Query("role"); strings.TrimSpace(raw) != "" {
		role, err := user.ParseRole(raw)
		if err != nil {
			respondInvalidRole(ctx)
			return
		}
		filter.Role = &role
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	users, err := h.users.SearchUsers(cctx, filter)
	if err != nil {
		h.respondListError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, users)
}

func (h *UsersHandler) respondListError(ctx *gin.Context, err error) {
	if errors.Is(err, user.ErrInvalidRole) {
		respondInvalidRole(ctx)
		return
	}

	RespondInternal(ctx, "Could not list users")
}

func respondInvalidRole(ctx *gin.Context) {
	RespondError(ctx, http.StatusBadRequest, "invalid_role", "role must be one of USER, ADMIN", nil)
}
