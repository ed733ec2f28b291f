package auth

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/prog-daiki/codeDot-backend/pkg/errcodes"
)

const (
	// CookieName is the session cookie set by the frontend.
	CookieName = "__session"

	contextKeyUser = "user"
)

// User is the authenticated identity stored on the echo context.
type User struct {
	ID      string `json:"id"`
	Email   string `json:"email,omitempty"`
	IsAdmin bool   `json:"is_admin"`
}

// Middleware authenticates requests and guards admin routes.
type Middleware struct {
	authService *Service
	adminUserID string
}

func NewMiddleware(authService *Service, adminUserID string) *Middleware {
	return &Middleware{
		authService: authService,
		adminUserID: adminUserID,
	}
}

// Authenticate reads the token from the Authorization header (Bearer) or the
// session cookie and stores the User on the context. Requests without a valid
// token are rejected with 401.
func (m *Middleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := tokenFromRequest(c)
		if token == "" {
			return errcodes.Unauthorized("Authentication required")
		}

		claims, err := m.authService.ValidateToken(token)
		if err != nil {
			return errcodes.Unauthorized("Invalid or expired token")
		}

		c.Set(contextKeyUser, &User{
			ID:      claims.Subject,
			Email:   claims.Email,
			IsAdmin: m.adminUserID != "" && claims.Subject == m.adminUserID,
		})

		return next(c)
	}
}

// RequireAdmin rejects users other than the configured admin. Must be used
// after Authenticate.
func (m *Middleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, ok := UserFromContext(c)
		if !ok {
			return errcodes.Unauthorized("Authentication required")
		}
		if !user.IsAdmin {
			return errcodes.NotAdmin()
		}
		return next(c)
	}
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(c echo.Context) (*User, bool) {
	user, ok := c.Get(contextKeyUser).(*User)
	return user, ok && user != nil
}

// SetUser stores user on the context the way Authenticate does.
func SetUser(c echo.Context, user *User) {
	c.Set(contextKeyUser, user)
}

func tokenFromRequest(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	if cookie, err := c.Cookie(CookieName); err == nil {
		return cookie.Value
	}
	return ""
}
