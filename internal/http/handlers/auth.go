package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/accounthub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type SignUpper interface {
	SignUp(ctx context.Context, email, password, name string) (user.PublicUser, error)
}

type AuthHandler struct {
	accounts SignUpper
	timeout  time.Duration
}

func NewAuthHandler(accounts SignUpper) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		timeout:  3 * time.Second,
	}
}

// SignUp always creates a USER account. Admins come from the startup seed.
func (h *AuthHandler) SignUp(ctx *gin.Context) {
	var req user.SignUpRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	created, err := h.accounts.SignUp(cctx, req.Email, req.Password, req.Name)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			RespondConflict(ctx, "email_taken", "Email is already in use.")
			return
		}

		RespondInternal(ctx, "Could not create user")
		return
	}

	ctx.JSON(http.StatusCreated, created)
}
