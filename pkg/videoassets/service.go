package videoassets

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prog-daiki/codeDot-backend/pkg/errcodes"
	"github.com/prog-daiki/codeDot-backend/pkg/jobs"
	"github.com/prog-daiki/codeDot-backend/pkg/models"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
	"golang.org/x/sync/errgroup"
)

// deleteConcurrency bounds parallel calls to the video host.
const deleteConcurrency = 4

type Service struct {
	db   bun.IDB
	host Host
}

func NewService(db bun.IDB, host Host) *Service {
	return &Service{db: db, host: host}
}

// WithTx returns a copy of the service whose queries run on tx.
func (svc *Service) WithTx(tx bun.IDB) *Service {
	return &Service{db: tx, host: svc.host}
}

func (svc *Service) RetrieveMuxData(ctx context.Context, chapterID string) (*models.MuxData, error) {
	md := &models.MuxData{}
	err := svc.db.
		NewSelect().
		Model(md).
		Where("md.chapter_id = ?", chapterID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("MuxData")
		}
		return nil, errors.WithStack(err)
	}
	return md, nil
}

func (svc *Service) ListMuxDataForCourse(ctx context.Context, courseID string) ([]*models.MuxData, error) {
	list := []*models.MuxData{}
	err := svc.db.
		NewSelect().
		Model(&list).
		Join("JOIN chapters AS ch ON ch.id = md.chapter_id").
		Where("ch.course_id = ?", courseID).
		Order("ch.position ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return list, nil
}

// ReplaceMuxData swaps whatever asset record the chapter has for asset.
func (svc *Service) ReplaceMuxData(ctx context.Context, chapterID string, asset *Asset) (*models.MuxData, error) {
	if err := svc.DeleteMuxData(ctx, chapterID); err != nil {
		return nil, errors.WithStack(err)
	}

	md := &models.MuxData{
		ID:         uuid.NewString(),
		AssetID:    asset.ID,
		PlaybackID: asset.PlaybackID,
		ChapterID:  chapterID,
	}
	_, err := svc.db.
		NewInsert().
		Model(md).
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return md, nil
}

func (svc *Service) DeleteMuxData(ctx context.Context, chapterID string) error {
	_, err := svc.db.
		NewDelete().
		Model((*models.MuxData)(nil)).
		Where("chapter_id = ?", chapterID).
		Exec(ctx)
	return errors.WithStack(err)
}

func (svc *Service) DeleteMuxDataForCourse(ctx context.Context, courseID string) error {
	_, err := svc.db.
		NewDelete().
		Model((*models.MuxData)(nil)).
		Where("chapter_id IN (?)", svc.db.NewSelect().
			Model((*models.Chapter)(nil)).
			Column("id").
			Where("course_id = ?", courseID)).
		Exec(ctx)
	return errors.WithStack(err)
}

func (svc *Service) CreateAsset(ctx context.Context, inputURL string) (*Asset, error) {
	asset, err := svc.host.CreateAsset(ctx, inputURL)
	return asset, errors.WithStack(err)
}

// DeleteAssets deletes the external assets in parallel and returns the ids
// whose deletion failed.
func (svc *Service) DeleteAssets(ctx context.Context, assetIDs []string) []string {
	failed := make([]bool, len(assetIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(deleteConcurrency)
	for i, id := range assetIDs {
		g.Go(func() error {
			if err := svc.host.DeleteAsset(gctx, id); err != nil {
				logger.FromContext(ctx).Err(err).Warn("video asset deletion failed", logger.Data{"asset_id": id})
				failed[i] = true
			}
			return nil
		})
	}
	_ = g.Wait()

	var out []string
	for i, f := range failed {
		if f {
			out = append(out, assetIDs[i])
		}
	}
	return out
}

// EnqueueCleanup queues retries for external assets that could not be
// deleted.
func (svc *Service) EnqueueCleanup(ctx context.Context, assetIDs []string, reason string) error {
	jobService := jobs.NewService(svc.db)
	for _, id := range assetIDs {
		if _, err := jobService.EnqueueAssetCleanup(ctx, id, reason); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

// DeleteAssetOrEnqueue deletes one external asset and falls back to the
// retry queue when the host cannot be reached.
func (svc *Service) DeleteAssetOrEnqueue(ctx context.Context, assetID, reason string) error {
	failed := svc.DeleteAssets(ctx, []string{assetID})
	return svc.EnqueueCleanup(ctx, failed, reason)
}
