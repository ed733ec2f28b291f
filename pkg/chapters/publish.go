package chapters

import (
	"strings"

	"github.com/prog-daiki/codeDot-backend/pkg/errcodes"
	"github.com/prog-daiki/codeDot-backend/pkg/models"
)

// CanPublish reports whether chapter may be published. A chapter needs its
// video asset and a title, description and video URL.
func CanPublish(chapter *models.Chapter, asset *models.MuxData) error {
	if asset == nil {
		return errcodes.NotFound("MuxData")
	}
	if strings.TrimSpace(chapter.Title) == "" || isBlank(chapter.Description) || isBlank(chapter.VideoURL) {
		return errcodes.RequiredFieldsEmpty("Chapter")
	}
	return nil
}

func isBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}
