package chapters

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/prog-daiki/codeDot-backend/pkg/errcodes"
	"github.com/prog-daiki/codeDot-backend/pkg/models"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

// ReorderItem moves one chapter to a new position.
type ReorderItem struct {
	ID       string `json:"id" validate:"required"`
	Position int    `json:"position" validate:"min=1"`
}

// UpdateVideo points the chapter at a new video. The new asset is created
// before anything is stored; the asset record and the chapter's video URL are
// then swapped in one transaction. If that transaction fails the new asset is
// deleted again, and the previous asset is only deleted once the swap has
// committed.
func (svc *Service) UpdateVideo(ctx context.Context, courseID, chapterID, videoURL string) (*models.Chapter, error) {
	log := logger.FromContext(ctx)

	chapter, err := svc.RetrieveChapter(ctx, RetrieveChapterOptions{CourseID: courseID, ID: chapterID})
	if err != nil {
		return nil, err
	}
	previous := chapter.MuxData

	asset, err := svc.assets.CreateAsset(ctx, videoURL)
	if err != nil {
		return nil, err
	}

	err = svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		txSvc := svc.WithTx(tx)
		current, err := txSvc.RetrieveChapter(ctx, RetrieveChapterOptions{CourseID: courseID, ID: chapterID})
		if err != nil {
			return err
		}

		md, err := txSvc.assets.ReplaceMuxData(ctx, chapterID, asset)
		if err != nil {
			return err
		}

		current.VideoURL = &videoURL
		if err := txSvc.UpdateChapter(ctx, current, UpdateChapterOptions{Columns: []string{"video_url"}}); err != nil {
			return err
		}
		current.MuxData = md
		chapter = current
		return nil
	})
	if err != nil {
		log.Err(err).Warn("video swap failed, removing the new asset", logger.Data{
			"chapter_id": chapterID,
			"asset_id":   asset.ID,
		})
		if cerr := svc.assets.DeleteAssetOrEnqueue(ctx, asset.ID, "video swap for chapter "+chapterID+" failed"); cerr != nil {
			log.Err(cerr).Error("failed to queue asset cleanup", logger.Data{"asset_id": asset.ID})
		}
		return nil, err
	}

	if previous != nil && previous.AssetID != asset.ID {
		if err := svc.assets.DeleteAssetOrEnqueue(ctx, previous.AssetID, "replaced on chapter "+chapterID); err != nil {
			log.Err(err).Error("failed to queue asset cleanup", logger.Data{"asset_id": previous.AssetID})
		}
	}

	return chapter, nil
}

// Reorder replaces the order of the course's chapters. The items must name
// every chapter of the course once, and their positions must run 1..N. The
// updates are applied together or not at all.
func (svc *Service) Reorder(ctx context.Context, courseID string, items []ReorderItem) error {
	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		txSvc := svc.WithTx(tx)
		if err := txSvc.ensureCourse(ctx, courseID); err != nil {
			return err
		}

		var ids []string
		err := tx.
			NewSelect().
			Model((*models.Chapter)(nil)).
			Column("ch.id").
			Where("ch.course_id = ?", courseID).
			Scan(ctx, &ids)
		if err != nil {
			return errors.WithStack(err)
		}
		owned := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			owned[id] = struct{}{}
		}

		seenIDs := map[string]struct{}{}
		seenPositions := map[int]struct{}{}
		for _, item := range items {
			if _, ok := owned[item.ID]; !ok {
				return errcodes.NotFound("Chapter")
			}
			if _, dup := seenIDs[item.ID]; dup {
				return errcodes.ValidationError("Chapter " + item.ID + " appears more than once.")
			}
			if item.Position < 1 || item.Position > len(ids) {
				return errcodes.ValidationError(fmt.Sprintf("Position must be between 1 and %d.", len(ids)))
			}
			if _, dup := seenPositions[item.Position]; dup {
				return errcodes.ValidationError("Position is used by more than one chapter.")
			}
			seenIDs[item.ID] = struct{}{}
			seenPositions[item.Position] = struct{}{}
		}
		if len(items) != len(ids) {
			return errcodes.ValidationError("Every chapter of the course must be listed.")
		}

		now := time.Now()
		for _, item := range items {
			_, err := tx.
				NewUpdate().
				Model((*models.Chapter)(nil)).
				Set("position = ?", item.Position).
				Set("updated_at = ?", now).
				Where("id = ?", item.ID).
				Where("course_id = ?", courseID).
				Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	})
}

// DeleteChapter removes the chapter and its asset record, closes the gap in
// positions and unpublishes the course if it lost its last published
// chapter. The external asset is deleted after the rows are gone.
func (svc *Service) DeleteChapter(ctx context.Context, courseID, chapterID string) (*models.Chapter, error) {
	var chapter *models.Chapter
	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		txSvc := svc.WithTx(tx)
		var err error
		chapter, err = txSvc.RetrieveChapter(ctx, RetrieveChapterOptions{CourseID: courseID, ID: chapterID})
		if err != nil {
			return err
		}

		if err := txSvc.assets.DeleteMuxData(ctx, chapterID); err != nil {
			return err
		}

		_, err = tx.
			NewDelete().
			Model((*models.Chapter)(nil)).
			Where("id = ?", chapterID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = tx.
			NewUpdate().
			Model((*models.Chapter)(nil)).
			Set("position = position - 1").
			Where("course_id = ?", courseID).
			Where("position > ?", chapter.Position).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = txSvc.courses.ReconcilePublishState(ctx, courseID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if chapter.MuxData != nil {
		if err := svc.assets.DeleteAssetOrEnqueue(ctx, chapter.MuxData.AssetID, "chapter "+chapterID+" deleted"); err != nil {
			logger.FromContext(ctx).Err(err).Error("failed to queue asset cleanup", logger.Data{"asset_id": chapter.MuxData.AssetID})
		}
	}

	return chapter, nil
}

// Publish flips the chapter to published once CanPublish allows it.
func (svc *Service) Publish(ctx context.Context, courseID, chapterID string) (*models.Chapter, error) {
	chapter, err := svc.RetrieveChapter(ctx, RetrieveChapterOptions{CourseID: courseID, ID: chapterID})
	if err != nil {
		return nil, err
	}

	if err := CanPublish(chapter, chapter.MuxData); err != nil {
		return nil, err
	}

	chapter.PublishFlag = true
	if err := svc.UpdateChapter(ctx, chapter, UpdateChapterOptions{Columns: []string{"publish_flag"}}); err != nil {
		return nil, err
	}
	return chapter, nil
}

// Unpublish takes the chapter offline and unpublishes the course when no
// published chapter is left.
func (svc *Service) Unpublish(ctx context.Context, courseID, chapterID string) (*models.Chapter, error) {
	var chapter *models.Chapter
	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		txSvc := svc.WithTx(tx)
		var err error
		chapter, err = txSvc.RetrieveChapter(ctx, RetrieveChapterOptions{CourseID: courseID, ID: chapterID})
		if err != nil {
			return err
		}

		chapter.PublishFlag = false
		if err := txSvc.UpdateChapter(ctx, chapter, UpdateChapterOptions{Columns: []string{"publish_flag"}}); err != nil {
			return err
		}

		_, err = txSvc.courses.ReconcilePublishState(ctx, courseID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return chapter, nil
}
