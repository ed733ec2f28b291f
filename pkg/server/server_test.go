package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prog-daiki/codeDot-backend/pkg/cache"
	"github.com/prog-daiki/codeDot-backend/pkg/config"
	"github.com/prog-daiki/codeDot-backend/pkg/payments"
	"github.com/prog-daiki/codeDot-backend/pkg/testutils"
	"github.com/prog-daiki/codeDot-backend/pkg/videoassets"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type api struct {
	t    *testing.T
	e    *echo.Echo
	host *videoassets.FakeHost
}

func newAPI(t *testing.T) *api {
	t.Helper()
	host := videoassets.NewFakeHost()
	e, err := newEcho(config.NewForTest(), testutils.NewTestDB(t), &Dependencies{
		Host:      host,
		Processor: payments.NewFakeProcessor(),
		Cache:     cache.Noop{},
	})
	require.NoError(t, err)
	return &api{t: t, e: e, host: host}
}

func (a *api) do(method, path, token, body string) *httptest.ResponseRecorder {
	a.t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	a.e.ServeHTTP(rr, req)
	return rr
}

// ok performs the request, requires the status and decodes the body into out
// when out is non-nil.
func (a *api) ok(status int, method, path, token, body string, out interface{}) {
	a.t.Helper()
	rr := a.do(method, path, token, body)
	require.Equal(a.t, status, rr.Code, "%s %s: %s", method, path, rr.Body.String())
	if out != nil {
		require.NoError(a.t, json.Unmarshal(rr.Body.Bytes(), out))
	}
}

func (a *api) token(body string) string {
	a.t.Helper()
	var res struct {
		Token string `json:"token"`
	}
	a.ok(http.StatusCreated, http.MethodPost, "/test/tokens", "", body, &res)
	return res.Token
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body.Code
}

type idResponse struct {
	ID string `json:"id"`
}

func TestHealth(t *testing.T) {
	a := newAPI(t)
	rr := a.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAuthBoundary(t *testing.T) {
	a := newAPI(t)
	user := a.token(`{"user_id":"u1","email":"u1@example.com"}`)

	rr := a.do(http.MethodGet, "/courses/publish", "", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = a.do(http.MethodPost, "/courses", user, `{"title":"Intro"}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "not_admin", errorCode(t, rr))

	rr = a.do(http.MethodGet, "/jobs", user, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = a.do(http.MethodGet, "/jobs/assets/asset-1/logs", user, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = a.do(http.MethodGet, "/categories", "", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = a.do(http.MethodGet, "/categories", user, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = a.do(http.MethodPost, "/categories", user, `{"name":"Go"}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "not_admin", errorCode(t, rr))

	rr = a.do(http.MethodGet, "/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCoursePublishingFlow(t *testing.T) {
	a := newAPI(t)
	admin := a.token(`{"admin":true}`)
	user := a.token(`{"user_id":"u1","email":"u1@example.com"}`)

	var category idResponse
	a.ok(http.StatusCreated, http.MethodPost, "/categories", admin, `{"name":"Go"}`, &category)

	var course idResponse
	a.ok(http.StatusCreated, http.MethodPost, "/courses", admin, `{"title":"Intro"}`, &course)
	base := "/courses/" + course.ID

	rr := a.do(http.MethodPut, base+"/publish", admin, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "required_fields_empty", errorCode(t, rr))

	a.ok(http.StatusOK, http.MethodPut, base+"/description", admin, `{"description":"Learn Go"}`, nil)
	a.ok(http.StatusOK, http.MethodPut, base+"/thumbnail", admin, `{"image_url":"https://img.example.com/a.png"}`, nil)
	a.ok(http.StatusOK, http.MethodPut, base+"/price", admin, `{"price":0}`, nil)
	a.ok(http.StatusOK, http.MethodPut, base+"/category", admin, `{"category_id":"`+category.ID+`"}`, nil)

	var chapter idResponse
	a.ok(http.StatusCreated, http.MethodPost, base+"/chapters", admin, `{"title":"Setup"}`, &chapter)
	chapterBase := base + "/chapters/" + chapter.ID

	rr = a.do(http.MethodPut, chapterBase+"/publish", admin, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	a.ok(http.StatusOK, http.MethodPut, chapterBase+"/description", admin, `{"description":"Install Go"}`, nil)
	a.ok(http.StatusOK, http.MethodPut, chapterBase+"/video", admin, `{"video_url":"https://cdn.example.com/v.mp4"}`, nil)
	a.ok(http.StatusOK, http.MethodPut, chapterBase+"/publish", admin, "", nil)
	a.ok(http.StatusOK, http.MethodPut, base+"/publish", admin, "", nil)

	var listed []struct {
		ID        string `json:"id"`
		Purchased bool   `json:"purchased"`
	}
	a.ok(http.StatusOK, http.MethodGet, "/courses/publish?title=intr", user, "", &listed)
	require.Len(t, listed, 1)
	assert.Equal(t, course.ID, listed[0].ID)
	assert.False(t, listed[0].Purchased)

	a.ok(http.StatusCreated, http.MethodPost, base+"/checkout/free", user, "", nil)
	rr = a.do(http.MethodPost, base+"/checkout/free", user, "")
	assert.Equal(t, "already_exists", errorCode(t, rr))

	var purchased []idResponse
	a.ok(http.StatusOK, http.MethodGet, "/courses/purchased", user, "", &purchased)
	require.Len(t, purchased, 1)
	assert.Equal(t, course.ID, purchased[0].ID)

	// Taking the only chapter offline takes the course offline with it.
	a.ok(http.StatusOK, http.MethodPut, chapterBase+"/unpublish", admin, "", nil)
	rr = a.do(http.MethodGet, "/courses/publish/"+course.ID, user, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	a.ok(http.StatusOK, http.MethodDelete, base, admin, "", nil)
	assert.Len(t, a.host.Deleted(), 1)
	rr = a.do(http.MethodGet, base, admin, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
