// Package admin gates the back office behind a session plus a server-side
// allow-list lookup, and owns admin account registration.
package admin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/countryside/storefront/internal/auth"
)

var (
	// ErrDenied means the user is authenticated but not an allow-listed admin.
	ErrDenied = errors.New("not an admin")
	// ErrNotAuthorized means the email is absent from the pre-authorized
	// allow-list; registration is refused before any credential exists.
	ErrNotAuthorized = errors.New("email not authorized for admin registration")
	// ErrBadCredentials covers unknown email or wrong password on login.
	ErrBadCredentials = errors.New("invalid email or password")
)

// Sessions is the slice of the session store the gate needs.
type Sessions interface {
	Get(ctx context.Context, token string) (*auth.Session, error)
}

// SessionCookie is the cookie both services use for the admin session token.
const SessionCookie = "admin_session"

type Gate struct {
	Repo     Repository
	Sessions Sessions
}

func NewGate(repo Repository, sessions Sessions) *Gate {
	return &Gate{Repo: repo, Sessions: sessions}
}

// Authorize allows the email only if it is on the allow-list with role=admin.
func (g *Gate) Authorize(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return ErrDenied
	}
	id, err := g.Repo.AllowListed(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return ErrDenied
	}
	if err != nil {
		return err
	}
	if id.Role != RoleAdmin {
		return ErrDenied
	}
	return nil
}

// RequireAdmin runs before every admin-only view or mutation. Denied users are
// redirected to the public page, not shown an in-page error.
func (g *Gate) RequireAdmin(redirectTo string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookie)
		if err != nil || token == "" {
			c.Redirect(http.StatusSeeOther, redirectTo)
			c.Abort()
			return
		}
		sess, err := g.Sessions.Get(c.Request.Context(), token)
		if err != nil {
			c.Redirect(http.StatusSeeOther, redirectTo)
			c.Abort()
			return
		}
		if err := g.Authorize(c.Request.Context(), sess.Email); err != nil {
			c.Redirect(http.StatusSeeOther, redirectTo)
			c.Abort()
			return
		}
		c.Set("admin_email", sess.Email)
		c.Next()
	}
}

// Register creates an admin account. The allow-list is consulted first: a
// non-listed email is rejected before any signup work happens.
func (g *Gate) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if req.Firstname == "" || req.Lastname == "" || req.Email == "" || req.Password == "" {
		return nil, fmt.Errorf("all fields are required")
	}
	if err := g.Authorize(ctx, req.Email); err != nil {
		if errors.Is(err, ErrDenied) {
			return nil, ErrNotAuthorized
		}
		return nil, err
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	u := &User{
		ID:           uuid.NewString(),
		Firstname:    req.Firstname,
		Lastname:     req.Lastname,
		Email:        req.Email,
		PasswordHash: hash,
	}
	if err := g.Repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login checks the password and confirms the account is still allow-listed.
func (g *Gate) Login(ctx context.Context, email, password string) (*User, error) {
	u, err := g.Repo.GetUserByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, err
	}
	if !CheckPassword(u.PasswordHash, password) {
		return nil, ErrBadCredentials
	}
	if err := g.Authorize(ctx, email); err != nil {
		return nil, err
	}
	return u, nil
}
