package testutils

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prog-daiki/codeDot-backend/pkg/auth"
	"github.com/prog-daiki/codeDot-backend/pkg/binder"
	"github.com/prog-daiki/codeDot-backend/pkg/errcodes"
	"github.com/stretchr/testify/require"
)

// NewEcho returns an echo instance wired with the API's binder and error
// handler.
func NewEcho(t *testing.T) *echo.Echo {
	t.Helper()

	e := echo.New()
	b, err := binder.New()
	require.NoError(t, err)
	e.Binder = b
	e.HTTPErrorHandler = errcodes.NewHandler().Handle
	return e
}

// NewContext builds a handler context for method and path with an optional
// JSON body. The user, when non-nil, is stored as the authenticated user.
func NewContext(t *testing.T, method, path, body string, user *auth.User) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rr := httptest.NewRecorder()

	c := NewEcho(t).NewContext(req, rr)
	if user != nil {
		auth.SetUser(c, user)
	}
	return c, rr
}

// SetParams sets the route path and its parameters on c.
func SetParams(c echo.Context, path string, kv ...string) {
	c.SetPath(path)
	names := make([]string, 0, len(kv)/2)
	values := make([]string, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		names = append(names, kv[i])
		values = append(values, kv[i+1])
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
}
