package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/prog-daiki/codeDot-backend/pkg/errcodes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newAuthContext(t *testing.T, setup func(req *http.Request)) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if setup != nil {
		setup(req)
	}
	rr := httptest.NewRecorder()
	return e.NewContext(req, rr), rr
}

func ok(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, code, codeErr.Code)
	assert.Equal(t, http.StatusUnauthorized, codeErr.HTTPCode)
}

func TestAuthenticate_BearerToken(t *testing.T) {
	t.Parallel()

	svc := NewService(testSecret)
	m := NewMiddleware(svc, "admin-user")
	token, err := svc.GenerateToken("user_1", "u1@example.com")
	require.NoError(t, err)

	c, rr := newAuthContext(t, func(req *http.Request) {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	})

	require.NoError(t, m.Authenticate(ok)(c))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	user, found := UserFromContext(c)
	require.True(t, found)
	assert.Equal(t, "user_1", user.ID)
	assert.Equal(t, "u1@example.com", user.Email)
	assert.False(t, user.IsAdmin)
}

func TestAuthenticate_SessionCookie(t *testing.T) {
	t.Parallel()

	svc := NewService(testSecret)
	m := NewMiddleware(svc, "admin-user")
	token, err := svc.GenerateToken("admin-user", "")
	require.NoError(t, err)

	c, _ := newAuthContext(t, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	})

	require.NoError(t, m.Authenticate(ok)(c))
	user, found := UserFromContext(c)
	require.True(t, found)
	assert.True(t, user.IsAdmin)
}

func TestAuthenticate_Rejects(t *testing.T) {
	t.Parallel()

	svc := NewService(testSecret)
	m := NewMiddleware(svc, "admin-user")

	t.Run("missing token", func(t *testing.T) {
		c, _ := newAuthContext(t, nil)
		requireCode(t, m.Authenticate(ok)(c), errcodes.CodeUnauthorized)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewService("other-secret").GenerateToken("user_1", "")
		require.NoError(t, err)
		c, _ := newAuthContext(t, func(req *http.Request) {
			req.Header.Set(echo.HeaderAuthorization, "Bearer "+other)
		})
		requireCode(t, m.Authenticate(ok)(c), errcodes.CodeUnauthorized)
	})

	t.Run("expired token", func(t *testing.T) {
		claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user_1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		}}
		expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		c, _ := newAuthContext(t, func(req *http.Request) {
			req.Header.Set(echo.HeaderAuthorization, "Bearer "+expired)
		})
		requireCode(t, m.Authenticate(ok)(c), errcodes.CodeUnauthorized)
	})

	t.Run("token without subject", func(t *testing.T) {
		claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}
		anon, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		c, _ := newAuthContext(t, func(req *http.Request) {
			req.Header.Set(echo.HeaderAuthorization, "Bearer "+anon)
		})
		requireCode(t, m.Authenticate(ok)(c), errcodes.CodeUnauthorized)
	})
}

func TestRequireAdmin(t *testing.T) {
	t.Parallel()

	m := NewMiddleware(NewService(testSecret), "admin-user")

	t.Run("admin passes", func(t *testing.T) {
		c, rr := newAuthContext(t, nil)
		SetUser(c, &User{ID: "admin-user", IsAdmin: true})
		require.NoError(t, m.RequireAdmin(ok)(c))
		assert.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("other users are rejected", func(t *testing.T) {
		c, _ := newAuthContext(t, nil)
		SetUser(c, &User{ID: "user_1"})
		requireCode(t, m.RequireAdmin(ok)(c), errcodes.CodeNotAdmin)
	})

	t.Run("unauthenticated is rejected", func(t *testing.T) {
		c, _ := newAuthContext(t, nil)
		requireCode(t, m.RequireAdmin(ok)(c), errcodes.CodeUnauthorized)
	})
}

func TestNoAdminConfigured(t *testing.T) {
	t.Parallel()

	svc := NewService(testSecret)
	m := NewMiddleware(svc, "")
	token, err := svc.GenerateToken("user_1", "")
	require.NoError(t, err)

	c, _ := newAuthContext(t, func(req *http.Request) {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	})
	require.NoError(t, m.Authenticate(ok)(c))
	user, _ := UserFromContext(c)
	assert.False(t, user.IsAdmin)
}
