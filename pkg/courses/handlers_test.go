package courses

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prog-daiki/codeDot-backend/pkg/auth"
	"github.com/prog-daiki/codeDot-backend/pkg/categories"
	"github.com/prog-daiki/codeDot-backend/pkg/errcodes"
	"github.com/prog-daiki/codeDot-backend/pkg/models"
	"github.com/prog-daiki/codeDot-backend/pkg/testutils"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHandler(f *fixture) *handler {
	return &handler{
		courseService:   f.svc,
		categoryService: categories.NewService(f.db),
	}
}

func TestHandlerCreate(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	h := newHandler(f)

	c, rr := testutils.NewContext(t, http.MethodPost, "/courses", `{"title":"Intro to Go"}`, nil)
	require.NoError(t, h.create(c))
	assert.Equal(t, http.StatusCreated, rr.Code)

	var got models.Course
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "Intro to Go", got.Title)
	assert.False(t, got.PublishFlag)
}

func TestHandlerCreate_TitleTooLong(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	h := newHandler(f)

	long := make([]byte, 101)
	for i := range long {
		long[i] = 'a'
	}
	c, _ := testutils.NewContext(t, http.MethodPost, "/courses", `{"title":"`+string(long)+`"}`, nil)
	requireCode(t, h.create(c), errcodes.CodeValidation)
}

func TestHandlerUpdateFields(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	h := newHandler(f)
	course := f.course(t, "Intro", nil)

	tests := []struct {
		name    string
		path    string
		body    string
		check   func(t *testing.T, c *models.Course)
	}{
		{"title", "title", `{"title":"Renamed"}`, func(t *testing.T, c *models.Course) {
			assert.Equal(t, "Renamed", c.Title)
		}},
		{"description", "description", `{"description":"All about Go"}`, func(t *testing.T, c *models.Course) {
			require.NotNil(t, c.Description)
			assert.Equal(t, "All about Go", *c.Description)
		}},
		{"thumbnail", "thumbnail", `{"image_url":"https://img.example.com/x.png"}`, func(t *testing.T, c *models.Course) {
			require.NotNil(t, c.ImageURL)
			assert.Equal(t, "https://img.example.com/x.png", *c.ImageURL)
		}},
		{"free price", "price", `{"price":0}`, func(t *testing.T, c *models.Course) {
			require.NotNil(t, c.Price)
			assert.Equal(t, 0, *c.Price)
		}},
		{"source url", "source_url", `{"source_url":"https://github.com/example/repo"}`, func(t *testing.T, c *models.Course) {
			require.NotNil(t, c.SourceURL)
			assert.Equal(t, "https://github.com/example/repo", *c.SourceURL)
		}},
	}

	handlers := map[string]echo.HandlerFunc{
		"title":       h.updateTitle,
		"description": h.updateDescription,
		"thumbnail":   h.updateThumbnail,
		"price":       h.updatePrice,
		"source_url":  h.updateSourceURL,
	}

	for _, tt := range tests {
		c, rr := testutils.NewContext(t, http.MethodPut, "/courses/"+course.ID+"/"+tt.path, tt.body, nil)
		testutils.SetParams(c, "/courses/:id/"+tt.path, "id", course.ID)
		require.NoError(t, handlers[tt.path](c), tt.name)
		assert.Equal(t, http.StatusOK, rr.Code, tt.name)
		tt.check(t, f.reload(t, course.ID))
	}
}

func TestHandlerUpdateFields_Validation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	h := newHandler(f)
	course := f.course(t, "Intro", nil)

	tests := []struct {
		name    string
		body    string
		handler echo.HandlerFunc
	}{
		{"negative price", `{"price":-1}`, h.updatePrice},
		{"price too high", `{"price":1000001}`, h.updatePrice},
		{"missing price", `{}`, h.updatePrice},
		{"thumbnail not a url", `{"image_url":"not a url"}`, h.updateThumbnail},
		{"empty description", `{"description":""}`, h.updateDescription},
	}

	for _, tt := range tests {
		c, _ := testutils.NewContext(t, http.MethodPut, "/courses/"+course.ID, tt.body, nil)
		testutils.SetParams(c, "/courses/:id", "id", course.ID)
		requireCode(t, tt.handler(c), errcodes.CodeValidation)
	}
}

func TestHandlerUpdateCategory(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	h := newHandler(f)
	course := f.course(t, "Intro", nil)
	cat := f.category(t, "Go")

	c, _ := testutils.NewContext(t, http.MethodPut, "/courses/"+course.ID+"/category", `{"category_id":"missing"}`, nil)
	testutils.SetParams(c, "/courses/:id/category", "id", course.ID)
	err := h.updateCategory(c)
	requireCode(t, err, errcodes.CodeNotFound)
	assert.Contains(t, err.Error(), "Category not found.")

	c, rr := testutils.NewContext(t, http.MethodPut, "/courses/"+course.ID+"/category", `{"category_id":"`+cat.ID+`"}`, nil)
	testutils.SetParams(c, "/courses/:id/category", "id", course.ID)
	require.NoError(t, h.updateCategory(c))
	assert.Equal(t, http.StatusOK, rr.Code)
	got := f.reload(t, course.ID)
	require.NotNil(t, got.CategoryID)
	assert.Equal(t, cat.ID, *got.CategoryID)
}

func TestHandlerUpdate_CourseNotFound(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	h := newHandler(f)

	c, _ := testutils.NewContext(t, http.MethodPut, "/courses/missing/title", `{"title":"x"}`, nil)
	testutils.SetParams(c, "/courses/:id/title", "id", "missing")
	requireCode(t, h.updateTitle(c), errcodes.CodeNotFound)
}

func TestHandlerListPublished(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	h := newHandler(f)
	cat := f.category(t, "Go")
	course := f.course(t, "Go Basics", func(c *models.Course) {
		publishable(cat.ID)(c)
		c.PublishFlag = true
	})
	f.chapter(t, course.ID, 1, true, "a1")

	c, _ := testutils.NewContext(t, http.MethodGet, "/courses/publish", "", nil)
	requireCode(t, h.listPublished(c), errcodes.CodeUnauthorized)

	c, rr := testutils.NewContext(t, http.MethodGet, "/courses/publish?title=basics", "", &auth.User{ID: "u1"})
	require.NoError(t, h.listPublished(c))
	assert.Equal(t, http.StatusOK, rr.Code)

	var got []map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, course.ID, got[0]["id"])
	assert.Equal(t, false, got[0]["purchased"])

	c, _ = testutils.NewContext(t, http.MethodGet, "/courses/publish?sort=asc", "", &auth.User{ID: "u1"})
	requireCode(t, h.listPublished(c), "unknown_parameter")
}
