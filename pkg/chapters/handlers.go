package chapters

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/prog-daiki/codeDot-backend/pkg/models"
)

type handler struct {
	chapterService *Service
}

func chapterOptions(c echo.Context) RetrieveChapterOptions {
	return RetrieveChapterOptions{
		CourseID: c.Param("course_id"),
		ID:       c.Param("id"),
	}
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	chapters, err := h.chapterService.ListChapters(ctx, c.Param("course_id"))
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, chapters))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()

	chapter, err := h.chapterService.RetrieveChapter(ctx, chapterOptions(c))
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, chapter))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateChapterPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	chapter, err := h.chapterService.CreateChapter(ctx, c.Param("course_id"), params.Title)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, chapter))
}

func (h *handler) updateField(c echo.Context, payload interface{}, column string, apply func(*models.Chapter)) error {
	ctx := c.Request().Context()

	if err := c.Bind(payload); err != nil {
		return errors.WithStack(err)
	}

	chapter, err := h.chapterService.RetrieveChapter(ctx, chapterOptions(c))
	if err != nil {
		return errors.WithStack(err)
	}

	apply(chapter)
	err = h.chapterService.UpdateChapter(ctx, chapter, UpdateChapterOptions{Columns: []string{column}})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, chapter))
}

func (h *handler) updateTitle(c echo.Context) error {
	params := &UpdateTitlePayload{}
	return h.updateField(c, params, "title", func(ch *models.Chapter) {
		ch.Title = params.Title
	})
}

func (h *handler) updateDescription(c echo.Context) error {
	params := &UpdateDescriptionPayload{}
	return h.updateField(c, params, "description", func(ch *models.Chapter) {
		ch.Description = &params.Description
	})
}

func (h *handler) updateVideo(c echo.Context) error {
	ctx := c.Request().Context()

	params := UpdateVideoPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	chapter, err := h.chapterService.UpdateVideo(ctx, c.Param("course_id"), c.Param("id"), params.VideoURL)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, chapter))
}

func (h *handler) reorder(c echo.Context) error {
	ctx := c.Request().Context()
	courseID := c.Param("course_id")

	params := ReorderPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	if err := h.chapterService.Reorder(ctx, courseID, params.List); err != nil {
		return errors.WithStack(err)
	}

	chapters, err := h.chapterService.ListChapters(ctx, courseID)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, chapters))
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()

	chapter, err := h.chapterService.DeleteChapter(ctx, c.Param("course_id"), c.Param("id"))
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, chapter))
}

func (h *handler) publish(c echo.Context) error {
	ctx := c.Request().Context()

	chapter, err := h.chapterService.Publish(ctx, c.Param("course_id"), c.Param("id"))
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, chapter))
}

func (h *handler) unpublish(c echo.Context) error {
	ctx := c.Request().Context()

	chapter, err := h.chapterService.Unpublish(ctx, c.Param("course_id"), c.Param("id"))
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, chapter))
}
