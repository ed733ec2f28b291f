package courses

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/prog-daiki/codeDot-backend/pkg/auth"
	"github.com/prog-daiki/codeDot-backend/pkg/categories"
	"github.com/prog-daiki/codeDot-backend/pkg/errcodes"
	"github.com/prog-daiki/codeDot-backend/pkg/models"
)

type handler struct {
	courseService   *Service
	categoryService *categories.Service
}

func (h *handler) listAdmin(c echo.Context) error {
	ctx := c.Request().Context()

	courses, err := h.courseService.ListAdminCourses(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, courses))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	course, err := h.courseService.RetrieveCourse(ctx, RetrieveCourseOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, course))
}

func (h *handler) listPublished(c echo.Context) error {
	ctx := c.Request().Context()
	user, ok := auth.UserFromContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	params := ListPublishedCoursesQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	courses, err := h.courseService.ListPublishedCourses(ctx, ListPublishedCoursesOptions{
		UserID:     user.ID,
		Title:      params.Title,
		CategoryID: params.CategoryID,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, courses))
}

func (h *handler) retrievePublished(c echo.Context) error {
	ctx := c.Request().Context()
	user, ok := auth.UserFromContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	course, err := h.courseService.RetrievePublishedCourse(ctx, c.Param("id"), user.ID)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, course))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateCoursePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	course := &models.Course{Title: params.Title}
	if err := h.courseService.CreateCourse(ctx, course); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, course))
}

// updateField binds payload, applies it to the course through apply and
// saves the column it touched.
func (h *handler) updateField(c echo.Context, payload interface{}, column string, apply func(*models.Course)) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	if err := c.Bind(payload); err != nil {
		return errors.WithStack(err)
	}

	course, err := h.courseService.RetrieveCourse(ctx, RetrieveCourseOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	apply(course)
	err = h.courseService.UpdateCourse(ctx, course, UpdateCourseOptions{Columns: []string{column}})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, course))
}

func (h *handler) updateTitle(c echo.Context) error {
	params := &UpdateTitlePayload{}
	return h.updateField(c, params, "title", func(course *models.Course) {
		course.Title = params.Title
	})
}

func (h *handler) updateDescription(c echo.Context) error {
	params := &UpdateDescriptionPayload{}
	return h.updateField(c, params, "description", func(course *models.Course) {
		course.Description = &params.Description
	})
}

func (h *handler) updateThumbnail(c echo.Context) error {
	params := &UpdateThumbnailPayload{}
	return h.updateField(c, params, "image_url", func(course *models.Course) {
		course.ImageURL = &params.ImageURL
	})
}

func (h *handler) updatePrice(c echo.Context) error {
	params := &UpdatePricePayload{}
	return h.updateField(c, params, "price", func(course *models.Course) {
		course.Price = params.Price
	})
}

func (h *handler) updateSourceURL(c echo.Context) error {
	params := &UpdateSourceURLPayload{}
	return h.updateField(c, params, "source_url", func(course *models.Course) {
		course.SourceURL = &params.SourceURL
	})
}

func (h *handler) updateCategory(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	params := UpdateCategoryPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	course, err := h.courseService.RetrieveCourse(ctx, RetrieveCourseOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	category, err := h.categoryService.RetrieveCategory(ctx, categories.RetrieveCategoryOptions{ID: &params.CategoryID})
	if err != nil {
		return errors.WithStack(err)
	}

	course.CategoryID = &category.ID
	course.Category = category
	err = h.courseService.UpdateCourse(ctx, course, UpdateCourseOptions{Columns: []string{"category_id"}})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, course))
}

func (h *handler) publish(c echo.Context) error {
	ctx := c.Request().Context()

	course, err := h.courseService.Publish(ctx, c.Param("id"))
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, course))
}

func (h *handler) unpublish(c echo.Context) error {
	ctx := c.Request().Context()

	course, err := h.courseService.Unpublish(ctx, c.Param("id"))
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, course))
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()

	course, err := h.courseService.DeleteCourse(ctx, c.Param("id"))
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, course))
}
