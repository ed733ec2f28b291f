package chapters

import (
	"context"
	"net/http"
	"testing"

	"github.com/prog-daiki/codeDot-backend/pkg/errcodes"
	"github.com/prog-daiki/codeDot-backend/pkg/models"
	"github.com/prog-daiki/codeDot-backend/pkg/testutils"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chapterPath = "/courses/:course_id/chapters/:id"

func TestHandlerCreate(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	h := &handler{chapterService: f.svc}
	course := f.draftCourse(t)

	c, rr := testutils.NewContext(t, http.MethodPost, "/courses/"+course.ID+"/chapters", `{"title":"Setup"}`, nil)
	testutils.SetParams(c, "/courses/:course_id/chapters", "course_id", course.ID)
	require.NoError(t, h.create(c))
	assert.Equal(t, http.StatusCreated, rr.Code)

	var got models.Chapter
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "Setup", got.Title)
	assert.Equal(t, 1, got.Position)

	c, _ = testutils.NewContext(t, http.MethodPost, "/courses/"+course.ID+"/chapters", `{"title":""}`, nil)
	testutils.SetParams(c, "/courses/:course_id/chapters", "course_id", course.ID)
	requireCode(t, h.create(c), errcodes.CodeValidation, "")
}

func TestHandlerUpdateTitle(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	h := &handler{chapterService: f.svc}
	course := f.draftCourse(t)
	ch, err := f.svc.CreateChapter(context.Background(), course.ID, "Setup")
	require.NoError(t, err)

	c, rr := testutils.NewContext(t, http.MethodPut, "/", `{"title":"Install"}`, nil)
	testutils.SetParams(c, chapterPath+"/title", "course_id", course.ID, "id", ch.ID)
	require.NoError(t, h.updateTitle(c))
	assert.Equal(t, http.StatusOK, rr.Code)

	got, err := f.svc.RetrieveChapter(context.Background(), RetrieveChapterOptions{CourseID: course.ID, ID: ch.ID})
	require.NoError(t, err)
	assert.Equal(t, "Install", got.Title)

	c, _ = testutils.NewContext(t, http.MethodPut, "/", `{"title":"Install"}`, nil)
	testutils.SetParams(c, chapterPath+"/title", "course_id", course.ID, "id", "missing")
	requireCode(t, h.updateTitle(c), errcodes.CodeNotFound, "Chapter not found.")
}

func TestHandlerUpdateVideo_RejectsInvalidURL(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	h := &handler{chapterService: f.svc}
	course := f.draftCourse(t)
	ch, err := f.svc.CreateChapter(context.Background(), course.ID, "Setup")
	require.NoError(t, err)

	c, _ := testutils.NewContext(t, http.MethodPut, "/", `{"video_url":"not a url"}`, nil)
	testutils.SetParams(c, chapterPath+"/video", "course_id", course.ID, "id", ch.ID)
	requireCode(t, h.updateVideo(c), errcodes.CodeValidation, "")
	assert.Equal(t, 0, f.host.Live())

	c, rr := testutils.NewContext(t, http.MethodPut, "/", `{"video_url":"https://cdn.example.com/v.mp4"}`, nil)
	testutils.SetParams(c, chapterPath+"/video", "course_id", course.ID, "id", ch.ID)
	require.NoError(t, h.updateVideo(c))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, f.host.Live())
}

func TestHandlerReorder(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	h := &handler{chapterService: f.svc}
	course := f.draftCourse(t)
	ctx := context.Background()

	a, err := f.svc.CreateChapter(ctx, course.ID, "a")
	require.NoError(t, err)
	b, err := f.svc.CreateChapter(ctx, course.ID, "b")
	require.NoError(t, err)

	body := `{"list":[{"id":"` + a.ID + `","position":2},{"id":"` + b.ID + `","position":1}]}`
	c, rr := testutils.NewContext(t, http.MethodPut, "/", body, nil)
	testutils.SetParams(c, "/courses/:course_id/chapters/reorder", "course_id", course.ID)
	require.NoError(t, h.reorder(c))
	assert.Equal(t, http.StatusOK, rr.Code)

	var got []*models.Chapter
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, b.ID, got[0].ID)
	assert.Equal(t, a.ID, got[1].ID)

	c, _ = testutils.NewContext(t, http.MethodPut, "/", `{"list":[{"id":"`+a.ID+`","position":0}]}`, nil)
	testutils.SetParams(c, "/courses/:course_id/chapters/reorder", "course_id", course.ID)
	requireCode(t, h.reorder(c), errcodes.CodeValidation, "")

	c, _ = testutils.NewContext(t, http.MethodPut, "/", `{"list":[]}`, nil)
	testutils.SetParams(c, "/courses/:course_id/chapters/reorder", "course_id", course.ID)
	requireCode(t, h.reorder(c), errcodes.CodeValidation, "")
}

func TestHandlerPublishAndDelete(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	h := &handler{chapterService: f.svc}
	course := f.publishedCourse(t)
	ch := f.readyChapter(t, course.ID, "only")

	c, rr := testutils.NewContext(t, http.MethodPut, "/", "", nil)
	testutils.SetParams(c, chapterPath+"/publish", "course_id", course.ID, "id", ch.ID)
	require.NoError(t, h.publish(c))
	assert.Equal(t, http.StatusOK, rr.Code)

	c, rr = testutils.NewContext(t, http.MethodDelete, "/", "", nil)
	testutils.SetParams(c, chapterPath, "course_id", course.ID, "id", ch.ID)
	require.NoError(t, h.delete(c))
	assert.Equal(t, http.StatusOK, rr.Code)

	var got models.Chapter
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, ch.ID, got.ID)
	assert.False(t, f.coursePublished(t, course.ID))
}
