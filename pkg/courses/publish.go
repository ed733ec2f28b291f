package courses

import (
	"strings"

	"github.com/prog-daiki/codeDot-backend/pkg/errcodes"
	"github.com/prog-daiki/codeDot-backend/pkg/models"
)

// CanPublish reports whether course may be published given its chapters.
// A course needs a title, description, thumbnail, category and a price
// (zero is a free course) plus at least one published chapter.
func CanPublish(course *models.Course, chapters []*models.Chapter) error {
	if strings.TrimSpace(course.Title) == "" ||
		isBlank(course.Description) ||
		isBlank(course.ImageURL) ||
		isBlank(course.CategoryID) ||
		course.Price == nil {
		return errcodes.RequiredFieldsEmpty("Course")
	}

	for _, ch := range chapters {
		if ch.PublishFlag {
			return nil
		}
	}
	return errcodes.RequiredFieldsEmpty("Course")
}

func isBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}
